package wishlist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mizora-service/internal/apperr"
	"mizora-service/internal/catalog"
)

func TestWishlistFlow(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c, err := NewConf(store, catalog.NewChainedResolver(catalog.NewSeedSource()))
	require.NoError(t, err)

	added, err := c.Add(ctx, "u1", "3")
	require.NoError(t, err)
	assert.True(t, added)

	added, err = c.Add(ctx, "u1", "3")
	require.NoError(t, err)
	assert.False(t, added)

	_, err = c.Add(ctx, "u1", "missing")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))

	_, err = store.Add(ctx, "u1", "retired")
	require.NoError(t, err)

	entries, err := c.List(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "iced-matcha-starter-kit", entries[0].Product.Slug)

	require.NoError(t, c.Remove(ctx, "u1", "3"))
	err = c.Remove(ctx, "u1", "3")
	assert.Equal(t, apperr.KindNotFound, apperr.KindOf(err))
}
