package repository

import (
	"context"
	"errors"

	"gatekeeper/internal/domain"
)

var (
	// ErrUserExists is returned when a username uniqueness constraint is violated.
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when no user matches a lookup.
	ErrUserNotFound = errors.New("user not found")
)

// UserFilter narrows a user lookup. Zero fields are ignored; at least one
// field must be set.
type UserFilter struct {
	ID       int64
	Username string
}

// UserRepository defines persistence operations for User entities.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (int64, error)
	FindBy(ctx context.Context, filter UserFilter) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
}
