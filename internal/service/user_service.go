package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gatekeeper/internal/domain"
	"gatekeeper/internal/repository"
	"gatekeeper/internal/sec"
)

var (
	// ErrMissingCredentials indicates that username or password was not provided.
	ErrMissingCredentials = errors.New("username and password are required")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserAlreadyExists is returned when attempting to register with an existing username.
	ErrUserAlreadyExists = errors.New("user already exists")
)

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Authenticate(ctx context.Context, username, password string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
}

type userService struct {
	users  repository.UserRepository
	hasher sec.Hasher
}

// NewUserService returns a UserService backed by users and hasher.
func NewUserService(users repository.UserRepository, hasher sec.Hasher) UserService {
	return &userService{
		users:  users,
		hasher: hasher,
	}
}

func (s *userService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserExists) {
			return nil, fmt.Errorf("%w: %w", ErrUserAlreadyExists, err)
		}
		return nil, err
	}

	return sanitizeUser(user), nil
}

// Authenticate returns ErrInvalidCredentials both for unknown users and for
// wrong passwords.
func (s *userService) Authenticate(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.FindBy(ctx, repository.UserFilter{Username: username})
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password for %q: %w", username, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	return sanitizeUser(user), nil
}

// ListUsers returns every user with credential fields stripped.
func (s *userService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.User, len(users))
	for i := range users {
		out[i] = *sanitizeUser(&users[i])
	}
	return out, nil
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:        user.ID,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}
