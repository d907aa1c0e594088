package marketplace

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	fakeCatalog
	lists, gets int
}

func (c *countingCatalog) ListSermons(ctx context.Context) ([]Sermon, error) {
	c.lists++
	return c.fakeCatalog.ListSermons(ctx)
}

func (c *countingCatalog) GetSermon(ctx context.Context, id string) (Sermon, error) {
	c.gets++
	return c.fakeCatalog.GetSermon(ctx, id)
}

func TestCachedCatalog(t *testing.T) {
	inner := &countingCatalog{fakeCatalog: fakeCatalog{
		sermons: map[string]Sermon{freeID: {ID: freeID}, paidID: {ID: paidID, PriceInCents: 1}},
		grants:  map[string]bool{},
	}}
	c := NewCachedCatalog(inner, 8, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		list, err := c.ListSermons(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		list[0].HasAccess = true
		_, err = c.GetSermon(ctx, paidID)
		require.NoError(t, err)
	}
	assert.Equal(t, 1, inner.lists)
	assert.Equal(t, 1, inner.gets)

	again, _ := c.ListSermons(ctx)
	assert.False(t, again[0].HasAccess)

	_, err := c.GetSermon(ctx, "0b8f6c9e-0000-4000-8000-000000000999")
	assert.ErrorIs(t, err, ErrNotFound)

	_, _ = c.HasGrant(ctx, token, paidID)
	_, _ = c.HasGrant(ctx, token, paidID)
	assert.EqualValues(t, 2, inner.lookups.Load())
}
