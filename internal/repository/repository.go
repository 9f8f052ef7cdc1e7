package repository

import (
	"context"
	"errors"

	"github.com/fjod/furstore/internal/domain"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionRepository is the durable store behind the session cache.
type SessionRepository interface {
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	UpsertSession(ctx context.Context, session *domain.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
}
