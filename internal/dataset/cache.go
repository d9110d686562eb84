package dataset

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/cvilledata/crimedash/internal/incident"
	"github.com/cvilledata/crimedash/internal/logging"
	"github.com/cvilledata/crimedash/internal/telemetry"
)

// DefaultTTL is the validity window of a loaded table.
const DefaultTTL = 24 * time.Hour

const tableKey = "incidents"

// Loader produces a fresh incident table.
type Loader func(ctx context.Context) (*incident.Table, error)

// FileLoader returns a Loader reading path with LoadIncidents.
func FileLoader(path string, opt LoadOptions) Loader {
	return func(context.Context) (*incident.Table, error) {
		return LoadIncidents(path, opt)
	}
}

// Cache holds the loaded table for a TTL. A miss triggers exactly one
// reload; concurrent callers wait for it and share the same immutable
// table. Failed loads are not cached.
type Cache struct {
	load  Loader
	ttl   time.Duration
	store *cache.Cache
	group singleflight.Group
}

// NewCache creates a cache around load. ttl <= 0 uses DefaultTTL.
func NewCache(load Loader, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		load:  load,
		ttl:   ttl,
		store: cache.New(ttl, ttl*2),
	}
}

// Get returns the cached table, loading it on a miss or after expiry.
func (c *Cache) Get(ctx context.Context) (*incident.Table, error) {
	if t, ok := c.cached(); ok {
		telemetry.CacheLookups.WithLabelValues("hit").Inc()
		return t, nil
	}
	telemetry.CacheLookups.WithLabelValues("miss").Inc()
	v, err, _ := c.group.Do(tableKey, func() (any, error) {
		// Another caller may have finished a reload while this one queued.
		if t, ok := c.cached(); ok {
			return t, nil
		}
		return c.reload(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*incident.Table), nil
}

func (c *Cache) cached() (*incident.Table, bool) {
	v, ok := c.store.Get(tableKey)
	if !ok {
		return nil, false
	}
	return v.(*incident.Table), true
}

func (c *Cache) reload(ctx context.Context) (*incident.Table, error) {
	start := time.Now()
	t, err := c.load(ctx)
	telemetry.DatasetLoadDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.DatasetLoads.WithLabelValues("error").Inc()
		logging.Ctx(ctx).Error().Err(err).Msg("incident table load failed")
		return nil, err
	}
	telemetry.DatasetLoads.WithLabelValues("ok").Inc()
	telemetry.DatasetRecords.Set(float64(t.Len()))
	telemetry.DatasetSkipped.Set(float64(t.Skipped))
	c.store.Set(tableKey, t, cache.DefaultExpiration)
	logging.Ctx(ctx).Info().
		Str("source", t.Source).
		Int("records", t.Len()).
		Int("skipped", t.Skipped).
		Dur("took", time.Since(start)).
		Dur("ttl", c.ttl).
		Msg("incident table loaded")
	return t, nil
}

// Invalidate drops the cached table so the next Get reloads the source.
func (c *Cache) Invalidate() {
	c.store.Delete(tableKey)
}

// Expires reports when the cached table expires. ok is false when nothing
// is cached.
func (c *Cache) Expires() (time.Time, bool) {
	_, exp, ok := c.store.GetWithExpiration(tableKey)
	return exp, ok
}

// TTL returns the validity window.
func (c *Cache) TTL() time.Duration { return c.ttl }
