package repository

import (
	"context"
	"errors"
	"time"

	"gatekeeper/internal/domain"
)

// ErrSessionNotFound is returned for unknown or expired sessions.
var ErrSessionNotFound = errors.New("session not found")

// SessionRepository persists session records keyed by session id.
type SessionRepository interface {
	Init(ctx context.Context) error
	Get(ctx context.Context, id string, now time.Time) (*domain.Session, error)
	Save(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
