package rerank

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func items(ids ...int64) []*core.Item {
	out := make([]*core.Item, len(ids))
	for i, id := range ids {
		out[i] = core.NewProductItem(id, float64(len(ids)-i))
	}
	return out
}

func idsOf(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestTopNNode(t *testing.T) {
	tests := []struct {
		name string
		n    int
		want []string
	}{
		{name: "truncate", n: 2, want: []string{"1", "2"}},
		{name: "fewer than n", n: 10, want: []string{"1", "2", "3"}},
		{name: "no limit", n: 0, want: []string{"1", "2", "3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := (&TopNNode{N: tt.n}).Process(context.Background(), nil, items(1, 2, 3))
			require.NoError(t, err)
			assert.Equal(t, tt.want, idsOf(out))
		})
	}
}

func TestDiversity(t *testing.T) {
	in := items(1, 2, 3, 4, 5)
	in[0].Product = &core.Product{ID: 1, Category: "tea"}
	in[1].Product = &core.Product{ID: 2, Category: "tea"}
	in[2].PutLabel(utils.LabelCategory, utils.NewLabel("cups", "rule"))
	in[3].Meta[utils.LabelCategory] = "cups"

	out, err := (&Diversity{}).Process(context.Background(), nil, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "3", "5"}, idsOf(out))

	out, err = (&Diversity{PerCategory: 2}).Process(context.Background(), nil, items(1, 2, 3))
	require.NoError(t, err)
	assert.Len(t, out, 3)
}

func TestResolveNode_PreservesRank(t *testing.T) {
	cat := catalog.NewMemoryCatalog(
		core.Product{ID: 1, Name: "one"},
		core.Product{ID: 2, Name: "two"},
		core.Product{ID: 3, Name: "three"},
		core.Product{ID: 4, Name: "four"},
	)
	node := &ResolveNode{Catalog: cat}

	for i := 0; i < 10; i++ {
		out, err := node.Process(context.Background(), nil, items(4, 99, 2, 3, 1))
		require.NoError(t, err)
		assert.Equal(t, []string{"4", "2", "3", "1"}, idsOf(out))

		products := Products(out)
		require.Len(t, products, 4)
		assert.Equal(t, "four", products[0].Name)
		assert.Equal(t, "one", products[3].Name)
	}
}
