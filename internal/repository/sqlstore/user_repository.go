package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/repository"
)

type UserRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewUserRepository returns a UserRepository over db.
func NewUserRepository(db *sql.DB, dialect Dialect) *UserRepository {
	return &UserRepository{db: db, dialect: dialect}
}

var _ repository.UserRepository = (*UserRepository)(nil)

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (int64, error) {
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	var id int64
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
INSERT INTO users (username, password_hash, created_at)
VALUES (?, ?, ?)
RETURNING id`),
		user.Username,
		user.PasswordHash,
		user.CreatedAt,
	).Scan(&id)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, fmt.Errorf("insert user %q: %w", user.Username, repository.ErrUserExists)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	return id, nil
}

func (r *UserRepository) FindBy(ctx context.Context, filter repository.UserFilter) (*domain.User, error) {
	var (
		conds []string
		args  []any
	)
	if filter.ID != 0 {
		conds = append(conds, "id = ?")
		args = append(args, filter.ID)
	}
	if filter.Username != "" {
		conds = append(conds, "username = ?")
		args = append(args, filter.Username)
	}
	if len(conds) == 0 {
		return nil, errors.New("find user: empty filter")
	}

	row := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
SELECT id, username, password_hash, created_at
FROM users
WHERE `+strings.Join(conds, " AND ")+`
LIMIT 1`),
		args...,
	)
	return scanUser(row)
}

func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, username, password_hash, created_at
FROM users
ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

func scanUser(row interface {
	Scan(dest ...any) error
}) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrUserNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &user, nil
}
