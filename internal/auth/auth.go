// Package auth is the thin collaborator around the backend's identity
// tables. It does not implement authentication itself; it resolves profiles,
// tracks the current session and broadcasts sign-in/sign-out events so the
// cache can be cleared before another account takes over the device.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"pontual/internal/cache"
	"pontual/internal/model"
)

// ErrNotSignedIn is returned by operations that need a session.
var ErrNotSignedIn = errors.New("not signed in")

// ProfileLookup resolves profiles from whichever store backs the service.
type ProfileLookup interface {
	GetProfileByEmail(ctx context.Context, email string) (*model.Profile, error)
}

// Service tracks the signed-in profile for this process.
type Service struct {
	profiles ProfileLookup
	cache    *cache.SecureCache
	bus      *Bus
	logger   *zerolog.Logger

	mu      sync.RWMutex
	current *model.Profile
}

// New wires the auth service to the cache: sign-out clears the whole cache
// synchronously, sign-in sweeps expired entries.
func New(profiles ProfileLookup, c *cache.SecureCache, logger *zerolog.Logger) *Service {
	s := &Service{
		profiles: profiles,
		cache:    c,
		bus:      NewBus(),
		logger:   logger,
	}

	s.bus.Subscribe(EventSignedOut, func(_ Event, userID string) {
		removed := c.ClearUser(userID)
		removed += c.ClearAll()
		logger.Info().Str("user_id", userID).Int("removed", removed).Msg("auth: cache cleared on sign-out")
	})
	s.bus.Subscribe(EventSignedIn, func(_ Event, _ string) {
		c.ClearExpired()
	})

	return s
}

// Events exposes the bus for additional subscribers.
func (s *Service) Events() *Bus {
	return s.bus
}

// SignIn resolves the profile by email and opens a session.
func (s *Service) SignIn(ctx context.Context, email string) (*model.Profile, error) {
	p, err := s.profiles.GetProfileByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("unknown email")
		}
		return nil, err
	}

	s.mu.Lock()
	s.current = p
	s.mu.Unlock()

	s.bus.Publish(EventSignedIn, p.ID)
	s.logger.Info().Str("user_id", p.ID).Msg("auth: signed in")
	return p, nil
}

// SignOut closes the session. The cache is cleared synchronously by the
// bus subscriber before this returns.
func (s *Service) SignOut() {
	s.mu.Lock()
	p := s.current
	s.current = nil
	s.mu.Unlock()

	if p == nil {
		return
	}
	s.bus.Publish(EventSignedOut, p.ID)
	s.logger.Info().Str("user_id", p.ID).Msg("auth: signed out")
}

// CurrentUser returns the signed-in profile, if any.
func (s *Service) CurrentUser() (*model.Profile, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == nil {
		return nil, false
	}
	return s.current, true
}
