package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pontual/internal/cache"
	"pontual/internal/model"
)

type fakeProfiles struct {
	byEmail map[string]*model.Profile
}

func (f *fakeProfiles) GetProfileByEmail(_ context.Context, email string) (*model.Profile, error) {
	p, ok := f.byEmail[email]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return p, nil
}

func newTestAuth(t *testing.T) (*Service, *cache.SecureCache) {
	t.Helper()
	logger := zerolog.Nop()
	c := cache.New(cache.NewMemoryStore(), "pontual_", time.Minute, &logger)
	profiles := &fakeProfiles{byEmail: map[string]*model.Profile{
		"ana@example.com":   {ID: "u1", Email: "ana@example.com", Role: model.RoleEmployee},
		"bruno@example.com": {ID: "u2", Email: "bruno@example.com", Role: model.RoleManager},
	}}
	return New(profiles, c, &logger), c
}

func TestSignInAndCurrentUser(t *testing.T) {
	s, _ := newTestAuth(t)

	_, ok := s.CurrentUser()
	assert.False(t, ok)

	p, err := s.SignIn(context.Background(), "ana@example.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", p.ID)

	got, ok := s.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "u1", got.ID)
}

func TestSignInUnknownEmail(t *testing.T) {
	s, _ := newTestAuth(t)
	_, err := s.SignIn(context.Background(), "nobody@example.com")
	assert.EqualError(t, err, "unknown email")
}

func TestSignOutClearsWholeCache(t *testing.T) {
	s, c := newTestAuth(t)

	_, err := s.SignIn(context.Background(), "ana@example.com")
	require.NoError(t, err)

	require.True(t, c.Set("records", []string{"r1"}, "u1"))
	require.True(t, c.Set("records", []string{"r9"}, "u2"))

	s.SignOut()

	// Full synchronous clear: nothing survives a sign-out, not even other
	// users' leftovers on the same device.
	assert.Equal(t, 0, c.GetInfo().Total)
	_, ok := s.CurrentUser()
	assert.False(t, ok)
}

func TestSignInSweepsExpired(t *testing.T) {
	s, c := newTestAuth(t)

	require.True(t, c.SetTTL("stale", 1, "u2", time.Millisecond))
	time.Sleep(5 * time.Millisecond)

	_, err := s.SignIn(context.Background(), "ana@example.com")
	require.NoError(t, err)

	assert.Equal(t, 0, c.GetInfo().Total)
}

func TestBusUnsubscribe(t *testing.T) {
	b := NewBus()
	calls := 0
	unsub := b.Subscribe(EventSignedIn, func(Event, string) { calls++ })

	b.Publish(EventSignedIn, "u1")
	unsub()
	b.Publish(EventSignedIn, "u1")

	assert.Equal(t, 1, calls)
}

func TestSignOutWithoutSessionIsNoop(t *testing.T) {
	s, c := newTestAuth(t)
	require.True(t, c.Set("k", 1, "u1"))

	s.SignOut()

	assert.Equal(t, 1, c.GetInfo().Total)
}
