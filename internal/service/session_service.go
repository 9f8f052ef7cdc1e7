// Package service wires the cart, checkout and order flows to storage and the backend API.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/fjod/furstore/internal/cache"
	"github.com/fjod/furstore/internal/domain"
	"github.com/fjod/furstore/internal/repository"
)

// SessionService loads and saves sessions cache-aside. The repository is
// optional; without one the cache is the only store.
type SessionService struct {
	repo  repository.SessionRepository
	cache cache.SessionCache
	sfg   singleflight.Group // Prevents cache stampede
	now   func() time.Time
	log   zerolog.Logger
}

func NewSessionService(repo repository.SessionRepository, c cache.SessionCache, log zerolog.Logger) *SessionService {
	return &SessionService{
		repo:  repo,
		cache: c,
		now:   time.Now,
		log:   log.With().Str("component", "sessions").Logger(),
	}
}

// Get returns the session for id, or a fresh empty one when none is stored.
// The caller owns the returned value.
func (s *SessionService) Get(ctx context.Context, sessionID string) (*domain.Session, error) {
	v, err, _ := s.sfg.Do(sessionID, func() (interface{}, error) {
		sess, err := s.cache.Get(ctx, sessionID)
		if err == nil {
			return sess, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cache get error")
		}

		if s.repo == nil {
			return domain.NewSession(sessionID, s.now().UTC()), nil
		}
		sess, err = s.repo.GetSession(ctx, sessionID)
		if errors.Is(err, repository.ErrSessionNotFound) {
			return domain.NewSession(sessionID, s.now().UTC()), nil
		}
		if err != nil {
			return nil, err
		}

		// Filled before returning so a later Save cannot be overtaken by this older copy.
		if err := s.cache.Set(ctx, sess); err != nil {
			s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cache set error")
		}
		return sess, nil
	})
	if err != nil {
		return nil, err
	}
	// Callers sharing a flight must not share a session.
	return v.(*domain.Session).Clone(), nil
}

// Save persists sess and writes it through to the cache. A failed cache
// write drops the entry so the next read goes to the repository.
func (s *SessionService) Save(ctx context.Context, sess *domain.Session) error {
	if s.repo == nil {
		sess.UpdatedAt = s.now().UTC()
		if sess.CreatedAt.IsZero() {
			sess.CreatedAt = sess.UpdatedAt
		}
		return s.cache.Set(ctx, sess)
	}

	if err := s.repo.UpsertSession(ctx, sess); err != nil {
		s.log.Error().Err(err).Str("session_id", sess.ID).Msg("repo upsert session error")
		return err
	}
	if err := s.cache.Set(ctx, sess); err != nil {
		s.log.Warn().Err(err).Str("session_id", sess.ID).Msg("cache set error")
		s.invalidate(sess.ID)
	}
	return nil
}

func (s *SessionService) Delete(ctx context.Context, sessionID string) error {
	if s.repo != nil {
		if err := s.repo.DeleteSession(ctx, sessionID); err != nil && !errors.Is(err, repository.ErrSessionNotFound) {
			return err
		}
	}
	s.invalidate(sessionID)
	return nil
}

func (s *SessionService) invalidate(sessionID string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, sessionID); err != nil {
		s.log.Warn().Err(err).Str("session_id", sessionID).Msg("cache invalidate error")
	}
}
