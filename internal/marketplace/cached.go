package marketplace

import (
	"context"
	"time"

	"github.com/yanizio/sermonario/internal/cache"
)

const listKey = "\x00list"

// CachedCatalog keeps catalog rows in a short-lived LRU.  File lookups and
// grants go straight to the wrapped Catalog.
type CachedCatalog struct {
	Catalog
	lru *cache.LRU[string, any]
}

// NewCachedCatalog wraps c.  size bounds the number of cached sermons.
func NewCachedCatalog(c Catalog, size int, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{Catalog: c, lru: cache.New[string, any](size+1, ttl)}
}

func (c *CachedCatalog) ListSermons(ctx context.Context) ([]Sermon, error) {
	if v, ok := c.lru.Get(listKey); ok {
		return cloneList(v.([]Sermon)), nil
	}
	out, err := c.Catalog.ListSermons(ctx)
	if err != nil {
		return nil, err
	}
	c.lru.Add(listKey, cloneList(out))
	return out, nil
}

func (c *CachedCatalog) GetSermon(ctx context.Context, id string) (Sermon, error) {
	if v, ok := c.lru.Get(id); ok {
		return v.(Sermon), nil
	}
	s, err := c.Catalog.GetSermon(ctx, id)
	if err != nil {
		return Sermon{}, err
	}
	c.lru.Add(id, s)
	return s, nil
}

// cloneList copies the slice so callers may set HasAccess freely.
func cloneList(in []Sermon) []Sermon {
	if in == nil {
		return nil
	}
	out := make([]Sermon, len(in))
	copy(out, in)
	return out
}
