package cache

import (
	"context"
	"errors"

	"github.com/fjod/furstore/internal/domain"
)

type SessionCache interface {
	Get(ctx context.Context, sessionID string) (*domain.Session, error)
	Set(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, sessionID string) error
}

type ProductCache interface {
	Get(ctx context.Context, productID int64) (domain.ProductSnapshot, error)
	Set(ctx context.Context, product domain.ProductSnapshot) error
}

// SubmitLock serialises order submission per session across requests and instances.
type SubmitLock interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

var (
	ErrCacheMiss = errors.New("cache miss")
	ErrLocked    = errors.New("lock held by another request")
)
