// Package cache provides a namespaced, per-user, TTL-bound cache over a
// plain key-value store. It exists to keep one user's cached reads invisible
// to the next account signing in on the same device: every entry records its
// owner and lookups fail closed on a mismatch.
package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"pontual/internal/metrics"
)

const entryVersion = 1

// DefaultTTL applies when the cache is constructed with a non-positive TTL.
const DefaultTTL = 5 * time.Minute

// Entry is the serialized envelope around every cached value.
type Entry struct {
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`  // unix millis at write
	ExpiresAt int64           `json:"expires_at"` // unix millis
	UserID    string          `json:"user_id,omitempty"`
	Version   int             `json:"version"`
}

// Info aggregates the state of all entries under the cache prefix.
type Info struct {
	Total   int `json:"total"`
	Expired int `json:"expired"`
	Valid   int `json:"valid"`
	Size    int `json:"size"` // cumulative serialized length in bytes
}

// SecureCache is best-effort: store failures degrade to false/nil results
// and are never surfaced to callers.
type SecureCache struct {
	store      Store
	prefix     string
	defaultTTL time.Duration
	logger     *zerolog.Logger
	now        func() time.Time
}

// New constructs a cache over store. All keys are namespaced under prefix.
func New(store Store, prefix string, defaultTTL time.Duration, logger *zerolog.Logger) *SecureCache {
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	return &SecureCache{
		store:      store,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// namespacedKey builds "prefix + userID + _ + key", or "prefix + key" when
// there is no user context.
func (c *SecureCache) namespacedKey(key, userID string) string {
	if userID == "" {
		return c.prefix + key
	}
	return c.prefix + userID + "_" + key
}

// Set stores value for userID with the default TTL.
func (c *SecureCache) Set(key string, value any, userID string) bool {
	return c.SetTTL(key, value, userID, c.defaultTTL)
}

// SetTTL stores value for userID, expiring after ttl. A write rejected for
// capacity triggers an expired-entry sweep and one retry.
func (c *SecureCache) SetTTL(key string, value any, userID string, ttl time.Duration) bool {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache: value not serializable")
		return false
	}

	now := c.now()
	entry := Entry{
		Data:      data,
		Timestamp: now.UnixMilli(),
		ExpiresAt: now.Add(ttl).UnixMilli(),
		UserID:    userID,
		Version:   entryVersion,
	}
	raw, err := json.Marshal(entry)
	if err != nil {
		return false
	}

	k := c.namespacedKey(key, userID)
	if err := c.store.Set(k, string(raw)); err != nil {
		c.logger.Warn().Err(err).Str("key", k).Msg("cache: write failed, sweeping expired entries")
		c.ClearExpired()
		if err := c.store.Set(k, string(raw)); err != nil {
			return false
		}
	}
	return true
}

// Get reads the entry owned by userID into out and reports whether it was a
// hit. An entry owned by a different user is deleted and treated as a miss,
// as is an expired or corrupt entry.
func (c *SecureCache) Get(key, userID string, out any) bool {
	return c.lookup(key, userID, true, out)
}

// Peek reads like Get but skips the ownership check. Expiry still applies.
func (c *SecureCache) Peek(key, userID string, out any) bool {
	return c.lookup(key, userID, false, out)
}

func (c *SecureCache) lookup(key, userID string, validateUser bool, out any) bool {
	k := c.namespacedKey(key, userID)
	raw, ok := c.store.Get(k)
	if !ok {
		if validateUser {
			c.purgeForeign(key, userID)
		}
		metrics.IncCacheMiss()
		return false
	}

	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.store.Remove(k)
		metrics.IncCacheEviction("corrupt")
		metrics.IncCacheMiss()
		return false
	}

	if validateUser && entry.UserID != userID {
		// Fail closed: never hand one user's data to another.
		c.store.Remove(k)
		metrics.IncCacheEviction("mismatch")
		metrics.IncCacheMiss()
		c.logger.Warn().Str("key", key).Msg("cache: owner mismatch, entry dropped")
		return false
	}

	if c.now().UnixMilli() > entry.ExpiresAt {
		c.store.Remove(k)
		metrics.IncCacheEviction("expired")
		metrics.IncCacheMiss()
		return false
	}

	if out != nil {
		if err := json.Unmarshal(entry.Data, out); err != nil {
			metrics.IncCacheMiss()
			return false
		}
	}
	metrics.IncCacheHit()
	return true
}

// purgeForeign drops entries for the same logical key that belong to a
// different owner. A request under the wrong user must not just miss; the
// stale entry from the previous account is removed so it cannot outlive a
// user switch on the same device.
func (c *SecureCache) purgeForeign(key, userID string) {
	for _, k := range c.store.Keys() {
		if !strings.HasPrefix(k, c.prefix) {
			continue
		}
		raw, ok := c.store.Get(k)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			continue
		}
		if entry.UserID == "" || entry.UserID == userID {
			continue
		}
		// A foreign entry for this logical key sits at exactly
		// prefix + owner + "_" + key; anything else is unrelated.
		if k != c.prefix+entry.UserID+"_"+key {
			continue
		}
		c.store.Remove(k)
		metrics.IncCacheEviction("mismatch")
		c.logger.Warn().Str("key", key).Msg("cache: owner mismatch, entry dropped")
	}
}

// Remove deletes a single namespaced entry.
func (c *SecureCache) Remove(key, userID string) {
	c.store.Remove(c.namespacedKey(key, userID))
}

// Has reports whether Get would hit, without decoding the value.
func (c *SecureCache) Has(key, userID string) bool {
	return c.lookup(key, userID, true, nil)
}

// ClearUser deletes every entry namespaced to userID and returns the count.
// Called synchronously on sign-out before any navigation happens.
func (c *SecureCache) ClearUser(userID string) int {
	userPrefix := c.prefix + userID + "_"
	removed := 0
	for _, k := range c.store.Keys() {
		if strings.HasPrefix(k, userPrefix) {
			c.store.Remove(k)
			removed++
		}
	}
	return removed
}

// ClearExpired scans everything under the cache prefix and drops entries
// that are past their expiry or fail to parse. Returns the count removed.
func (c *SecureCache) ClearExpired() int {
	metrics.IncCacheSweep()
	nowMs := c.now().UnixMilli()
	removed := 0
	for _, k := range c.store.Keys() {
		if !strings.HasPrefix(k, c.prefix) {
			continue
		}
		raw, ok := c.store.Get(k)
		if !ok {
			continue
		}
		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			c.store.Remove(k)
			metrics.IncCacheEviction("corrupt")
			removed++
			continue
		}
		if nowMs > entry.ExpiresAt {
			c.store.Remove(k)
			metrics.IncCacheEviction("expired")
			removed++
		}
	}
	if removed > 0 {
		c.logger.Debug().Int("removed", removed).Msg("cache: sweep done")
	}
	return removed
}

// ClearAll deletes every entry under the cache prefix regardless of owner.
func (c *SecureCache) ClearAll() int {
	removed := 0
	for _, k := range c.store.Keys() {
		if strings.HasPrefix(k, c.prefix) {
			c.store.Remove(k)
			removed++
		}
	}
	return removed
}

// GetInfo aggregates entry counts and total serialized size.
func (c *SecureCache) GetInfo() Info {
	nowMs := c.now().UnixMilli()
	var info Info
	for _, k := range c.store.Keys() {
		if !strings.HasPrefix(k, c.prefix) {
			continue
		}
		raw, ok := c.store.Get(k)
		if !ok {
			continue
		}
		info.Total++
		info.Size += len(raw)

		var entry Entry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil || nowMs > entry.ExpiresAt {
			info.Expired++
			continue
		}
		info.Valid++
	}
	return info
}

// Sweep runs ClearExpired on a ticker until ctx is cancelled. Run it as a
// goroutine from main.
func (c *SecureCache) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.ClearExpired()
		}
	}
}
