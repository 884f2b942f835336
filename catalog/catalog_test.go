package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
)

var fixtures = []core.Product{
	{ID: 1, Name: "Green tea", Slug: "green-tea", Category: "tea", PriceCents: 3000, Available: true},
	{ID: 2, Name: "Red tea", Slug: "red-tea", Category: "tea", PriceCents: 2500, Available: true},
	{ID: 3, Name: "Tea pot", Slug: "tea-pot", Category: "ware", PriceCents: 9900, Available: false},
}

func TestCatalogs(t *testing.T) {
	ctx := context.Background()

	sqlite, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })
	require.NoError(t, sqlite.Upsert(ctx, fixtures...))

	catalogs := map[string]core.Catalog{
		"memory": NewMemoryCatalog(fixtures...),
		"sqlite": sqlite,
	}

	for name, c := range catalogs {
		t.Run(name, func(t *testing.T) {
			ids, err := c.ProductIDs(ctx)
			require.NoError(t, err)
			assert.Equal(t, []int64{1, 2, 3}, ids)

			got, err := c.Products(ctx, []int64{3, 1, 42})
			require.NoError(t, err)
			assert.ElementsMatch(t, []core.Product{fixtures[0], fixtures[2]}, got)

			got, err = c.Products(ctx, nil)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestSQLiteCatalog_UpsertOverwrites(t *testing.T) {
	ctx := context.Background()
	c, err := OpenSQLite(ctx, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	require.NoError(t, c.Upsert(ctx, fixtures[0]))
	updated := fixtures[0]
	updated.Available = false
	updated.PriceCents = 100
	require.NoError(t, c.Upsert(ctx, updated))

	got, err := c.Products(ctx, []int64{1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, updated, got[0])
}
