package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/repository"
)

const (
	createSessionsTableSQLite = `
CREATE TABLE IF NOT EXISTS sessions (
	sid TEXT PRIMARY KEY,
	sess TEXT NOT NULL,
	expired INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expired_index ON sessions (expired);
`
	createSessionsTablePostgres = `
CREATE TABLE IF NOT EXISTS sessions (
	sid VARCHAR(255) PRIMARY KEY,
	sess TEXT NOT NULL,
	expired BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS sessions_expired_index ON sessions (expired);
`
)

// SessionRepository stores sessions in a table it creates on Init. Expiry is
// kept as unix milliseconds so comparisons behave the same on every engine.
type SessionRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSessionRepository returns a SessionRepository over db.
func NewSessionRepository(db *sql.DB, dialect Dialect) *SessionRepository {
	return &SessionRepository{db: db, dialect: dialect}
}

var _ repository.SessionRepository = (*SessionRepository)(nil)

func (r *SessionRepository) Init(ctx context.Context) error {
	ddl := createSessionsTableSQLite
	if r.dialect == Postgres {
		ddl = createSessionsTablePostgres
	}
	if _, err := r.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("create sessions table: %w", err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string, now time.Time) (*domain.Session, error) {
	var (
		session domain.Session
		expired int64
	)
	err := r.db.QueryRowContext(ctx, r.dialect.Rebind(`
SELECT sid, sess, expired
FROM sessions
WHERE sid = ? AND expired > ?`),
		id,
		now.UnixMilli(),
	).Scan(&session.ID, &session.Data, &expired)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	session.ExpiresAt = time.UnixMilli(expired).UTC()
	return &session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	_, err := r.db.ExecContext(ctx, r.dialect.Rebind(`
INSERT INTO sessions (sid, sess, expired)
VALUES (?, ?, ?)
ON CONFLICT (sid) DO UPDATE SET sess = excluded.sess, expired = excluded.expired`),
		session.ID,
		session.Data,
		session.ExpiresAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM sessions WHERE sid = ?`), id); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *SessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, r.dialect.Rebind(`DELETE FROM sessions WHERE expired <= ?`), now.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("expired sessions rows affected: %w", err)
	}
	return n, nil
}
