package dsl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/utils"
)

func TestEval(t *testing.T) {
	item := core.NewProductItem(42, 3)
	item.PutLabel(utils.LabelRecallSource, utils.NewLabel("recall.copurchase", "recall"))
	item.Product = &core.Product{ID: 42, Category: "tea", PriceCents: 1200, Available: true}
	rctx := &core.RecommendContext{Scene: "cart", ProductIDs: []int64{7, 8}}

	tests := []struct {
		expr string
		want bool
	}{
		{expr: "", want: true},
		{expr: "item.score >= 2.0", want: true},
		{expr: "item.score > 3.0", want: false},
		{expr: "item.product_id == 42", want: true},
		{expr: `item.available && item.category == "tea"`, want: true},
		{expr: `rctx.scene == "cart" && item.price_cents < 1000`, want: false},
		{expr: `has(label.recall_source) && label.recall_source.contains("copurchase")`, want: true},
		{expr: `has(label.filtered)`, want: false},
		{expr: `7 in rctx.product_ids`, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := Eval(tt.expr, item, rctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEval_UnresolvedProduct(t *testing.T) {
	got, err := Eval(`item.category == ""`, core.NewProductItem(1, 1), nil)
	require.NoError(t, err)
	assert.True(t, got)
}

func TestCompile_Errors(t *testing.T) {
	_, err := Compile("item.score >")
	assert.Error(t, err)

	p, err := Compile("item.score")
	require.NoError(t, err)
	_, err = p.Eval(core.NewProductItem(1, 1), nil)
	assert.Error(t, err)
}
