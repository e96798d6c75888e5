// Package sessioncache provides a bounded in-process cache for loaded
// session handles. Eviction is strict FIFO by insertion order, independent
// of access pattern: session handles are large and roughly equally likely to
// be re-requested, so insertion age is the better signal than recency here.
package sessioncache

import (
	"context"
	"sync"

	"github.com/mpapenbr/f1telemetry-compare-go/log"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/apperrors"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/model"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/upstream"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/cache"
	"github.com/mpapenbr/f1telemetry-compare-go/pkg/utils/metrics"
)

const defaultCapacity = 20

// Key identifies a loaded session. Event id and session type are normalized
// and the load flags are rendered canonically, so two logically identical
// requests always collide.
type Key struct {
	Year        int
	Event       string
	SessionType string
	Flags       string
}

type (
	Option func(*Cache)
	Cache  struct {
		mutex    sync.Mutex
		entries  map[Key]upstream.Session
		order    []Key // insertion order, oldest first
		capacity int
		loader   upstream.SessionLoader
		l        *log.Logger
	}
)

func WithCapacity(capacity int) Option {
	return func(c *Cache) {
		if capacity > 0 {
			c.capacity = capacity
		}
	}
}

func WithLoader(loader upstream.SessionLoader) Option {
	return func(c *Cache) {
		c.loader = loader
	}
}

func WithLogger(arg *log.Logger) Option {
	return func(c *Cache) {
		c.l = arg
	}
}

func New(opts ...Option) *Cache {
	ret := &Cache{
		entries:  make(map[Key]upstream.Session),
		order:    make([]Key, 0),
		capacity: defaultCapacity,
		l:        log.Default().Named("cache.session"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

// GetOrLoad returns the cached session handle or loads it via the upstream
// loader. The session type is validated before any load attempt. Loader
// failures are not retried and nothing is cached on failure.
//
//nolint:whitespace // can't make both editor and linter happy
func (c *Cache) GetOrLoad(
	ctx context.Context,
	year int,
	event, sessionType string,
	flags upstream.LoadFlags,
) (upstream.Session, error) {
	normalized, ok := model.NormalizeSessionType(sessionType)
	if !ok {
		return nil, apperrors.Validationf(
			"invalid session type: %q. Valid types: FP1, FP2, FP3, Q, S, SS, SQ, R",
			sessionType)
	}
	key := Key{
		Year:        year,
		Event:       model.NormalizeEventID(event),
		SessionType: normalized,
		Flags:       flags.Key(),
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	if session, found := c.entries[key]; found {
		metrics.SessionCacheHits.Inc()
		return session, nil
	}
	metrics.SessionCacheMisses.Inc()

	if c.loader == nil {
		return nil, cache.ErrCacheMiss
	}

	c.l.Debug("loading session",
		log.Int("year", year),
		log.String("event", event),
		log.String("session", normalized),
		log.String("flags", flags.Key()))
	session, err := c.loader.Load(ctx, year, event, normalized, flags)
	if err != nil {
		if apperrors.IsNotFound(err) ||
			apperrors.IsTelemetryUnavailable(err) ||
			apperrors.IsLoadFailure(err) {
			return nil, err
		}
		return nil, &apperrors.LoadFailureError{
			Year: year, Event: event, SessionType: normalized, Err: err,
		}
	}

	if len(c.order) >= c.capacity {
		c.evictOldest()
	}
	c.entries[key] = session
	c.order = append(c.order, key)
	return session, nil
}

// evictOldest removes the least-recently-inserted entry. Caller holds the lock.
func (c *Cache) evictOldest() {
	if len(c.order) == 0 {
		return
	}
	oldest := c.order[0]
	c.order = c.order[1:]
	delete(c.entries, oldest)
	metrics.SessionCacheEvictions.Inc()
	c.l.Debug("evicted session", log.Any("key", oldest))
}

func (c *Cache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[Key]upstream.Session)
	c.order = c.order[:0]
}

type Stats struct {
	CachedSessions int      `json:"cachedSessions"`
	Capacity       int      `json:"capacity"`
	Keys           []string `json:"keys"`
}

func (c *Cache) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	keys := make([]string, 0, len(c.order))
	for _, k := range c.order {
		keys = append(keys, k.String())
	}
	return Stats{
		CachedSessions: len(c.entries),
		Capacity:       c.capacity,
		Keys:           keys,
	}
}
