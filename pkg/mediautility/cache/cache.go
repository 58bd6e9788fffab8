// Package cache remembers recognition outcomes per media item and offset.
//
// Entries live in a primary Store (normally redis). When the primary cannot
// be reached the cache degrades to process memory for the rest of its life
// and keeps serving requests.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/aidanngill/MediaUtility/pkg/models"
)

// noMatchValue is stored for media that was sampled but not recognized.
var noMatchValue = []byte("{}")

type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Debugf(format string, args ...any)
}

type Config struct {
	// Primary is the preferred store. Nil means memory only.
	Primary Store
	Logger  Logger
	// OnDegraded is called once, with the triggering error, when the cache
	// switches to the in-memory fallback.
	OnDegraded func(err error)
}

// ResultCache maps media keys to cached outcomes. Store failures are logged,
// never returned.
type ResultCache struct {
	primary    Store
	fallback   *MemoryStore
	log        Logger
	onDegraded func(error)

	mu       sync.Mutex
	pinged   bool
	degraded bool
}

func New(cfg Config) *ResultCache {
	c := &ResultCache{
		primary:    cfg.Primary,
		fallback:   NewMemoryStore(),
		log:        cfg.Logger,
		onDegraded: cfg.OnDegraded,
	}
	if c.primary == nil {
		c.pinged = true
		c.degraded = true
	}
	return c
}

// KeyFor builds the cache key for ref sampled at start seconds. Links no
// platform catalogues have no key: the generic extractor names direct
// files after their path, so unrelated uploads would share one.
func KeyFor(ref *models.MediaReference, start int) (string, bool) {
	if !ref.Catalogued() || start < 0 {
		return "", false
	}
	return strings.Join([]string{ref.ExtractorID, ref.ContentID, strconv.Itoa(start)}, "-"), true
}

// Degraded reports whether the cache has fallen back to process memory.
func (c *ResultCache) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.degraded && c.primary != nil
}

// store returns the store to use for the next operation, pinging the
// primary on first use.
func (c *ResultCache) store(ctx context.Context) Store {
	c.mu.Lock()
	if c.degraded {
		c.mu.Unlock()
		return c.fallback
	}
	if c.pinged {
		c.mu.Unlock()
		return c.primary
	}
	c.mu.Unlock()

	err := c.primary.Ping(ctx)

	c.mu.Lock()
	if err != nil && ctx.Err() != nil {
		// caller gave up; try again next time
		c.mu.Unlock()
		return nil
	}
	c.pinged = true
	c.mu.Unlock()

	if err != nil {
		c.degrade(err)
		return c.fallback
	}
	c.infof("Connected to cache store")
	return c.primary
}

func (c *ResultCache) degrade(cause error) {
	c.mu.Lock()
	if c.degraded {
		c.mu.Unlock()
		return
	}
	c.degraded = true
	hook := c.onDegraded
	c.mu.Unlock()

	c.warnf("cache_degraded: %v; using in-memory fallback", cause)
	if hook != nil {
		hook(cause)
	}
}

// Lookup returns the cached outcome for key. Missing keys, store errors and
// unreadable values all come back as OutcomeUnknown.
func (c *ResultCache) Lookup(ctx context.Context, key string) models.CachedOutcome {
	s := c.store(ctx)
	if s == nil {
		return models.CachedOutcome{}
	}

	raw, found, err := s.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrUnavailable) {
			c.degrade(err)
		} else {
			c.warnf("Cache lookup for %s failed: %v", key, err)
		}
		return models.CachedOutcome{}
	}
	if !found {
		c.debugf("Cache miss for %s", key)
		return models.CachedOutcome{}
	}

	outcome, err := decode(raw)
	if err != nil {
		c.warnf("Ignoring unreadable cache entry %s: %v", key, err)
		return models.CachedOutcome{}
	}
	c.debugf("Cache hit for %s (%s)", key, outcome.Kind)
	return outcome
}

// StoreNoMatch records that the media at key holds no recognizable song.
func (c *ResultCache) StoreNoMatch(ctx context.Context, key string) {
	c.set(ctx, key, noMatchValue)
}

// StoreIdentified records song for key.
func (c *ResultCache) StoreIdentified(ctx context.Context, key string, song *models.Song) {
	if song == nil {
		c.StoreNoMatch(ctx, key)
		return
	}
	raw, err := json.Marshal(song)
	if err != nil {
		c.warnf("Encoding cache entry %s: %v", key, err)
		return
	}
	c.set(ctx, key, raw)
}

func (c *ResultCache) set(ctx context.Context, key string, value []byte) {
	s := c.store(ctx)
	if s == nil {
		return
	}
	err := s.Set(ctx, key, value)
	if err == nil {
		return
	}
	if !errors.Is(err, ErrUnavailable) {
		c.warnf("Cache write for %s failed: %v", key, err)
		return
	}
	c.degrade(err)
	// keep the result for the rest of this process
	_ = c.fallback.Set(ctx, key, value)
}

// Close releases the primary store.
func (c *ResultCache) Close() error {
	if c.primary == nil {
		return nil
	}
	return c.primary.Close()
}

func decode(raw []byte) (models.CachedOutcome, error) {
	if bytes.Equal(bytes.TrimSpace(raw), noMatchValue) {
		return models.CachedOutcome{Kind: models.OutcomeNoMatch}, nil
	}
	var song models.Song
	if err := json.Unmarshal(raw, &song); err != nil {
		return models.CachedOutcome{}, err
	}
	if song == (models.Song{}) {
		return models.CachedOutcome{Kind: models.OutcomeNoMatch}, nil
	}
	return models.CachedOutcome{Kind: models.OutcomeIdentified, Song: &song}, nil
}

func (c *ResultCache) infof(format string, args ...any) {
	if c.log != nil {
		c.log.Infof(format, args...)
	}
}

func (c *ResultCache) warnf(format string, args ...any) {
	if c.log != nil {
		c.log.Warnf(format, args...)
	}
}

func (c *ResultCache) debugf(format string, args ...any) {
	if c.log != nil {
		c.log.Debugf(format, args...)
	}
}
