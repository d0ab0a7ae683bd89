package sheets

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/tabular"
)

// DefaultCacheTTL is how long a fetched worksheet is reused
const DefaultCacheTTL = 10 * time.Minute

// CachedSource keeps worksheets for a TTL and coalesces concurrent fetches
// of the same worksheet into one upstream call. Errors are not cached.
type CachedSource struct {
	source Source
	cache  *cache.Cache
	group  singleflight.Group
	log    logger.Logger
}

// NewCachedSource wraps source. A ttl of 0 uses DefaultCacheTTL.
func NewCachedSource(source Source, ttl time.Duration, log logger.Logger) *CachedSource {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if log == nil {
		log = logger.Global().Module("sheets")
	}
	// Expired entries are dropped lazily on Get, so no janitor goroutine runs
	return &CachedSource{source: source, cache: cache.New(ttl, 0), log: log}
}

// Worksheet returns the cached table or fetches it
func (c *CachedSource) Worksheet(ctx context.Context, name string) (*tabular.Table, error) {
	if v, ok := c.cache.Get(name); ok {
		c.log.Debug("worksheet cache hit", logger.String("worksheet", name))
		return v.(*tabular.Table), nil
	}

	// The shared fetch outlives any single caller; each caller stops
	// waiting when its own context ends
	fetchCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(name, func() (any, error) {
		table, err := c.source.Worksheet(fetchCtx, name)
		if err != nil {
			return nil, err
		}
		c.cache.SetDefault(name, table)
		return table, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.log.Debug("worksheet fetch shared", logger.String("worksheet", name))
		}
		return res.Val.(*tabular.Table), nil
	}
}

// Invalidate drops the cached copy of the named worksheets, or all of them
// when no name is given
func (c *CachedSource) Invalidate(names ...string) {
	if len(names) == 0 {
		c.cache.Flush()
		return
	}
	for _, name := range names {
		c.cache.Delete(name)
	}
}
