package shop

import (
	"bytes"
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/catalog"
	"github.com/rushteam/shoprec/copurchase"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pipeline"
	"github.com/rushteam/shoprec/pkg/logging"
	"github.com/rushteam/shoprec/rerank"
	"github.com/rushteam/shoprec/store"
)

func testCatalog() *catalog.MemoryCatalog {
	return catalog.NewMemoryCatalog(
		core.Product{ID: 1, Name: "green tea", Available: true},
		core.Product{ID: 2, Name: "teapot", Available: true},
		core.Product{ID: 3, Name: "cups", Available: true},
		core.Product{ID: 4, Name: "kettle", Available: false},
		core.Product{ID: 5, Name: "honey", Available: true},
		core.Product{ID: 6, Name: "lemon", Available: true},
		core.Product{ID: 7, Name: "scale", Available: true},
	)
}

func names(products []core.Product) []string {
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func TestService_ProductDetail(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	rec := copurchase.New(ms, nil)
	svc := New(rec, testCatalog())

	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 2, 3, 4, 5, 6, 7}))
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 4}))
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 4}))
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 7}))

	// kettle 共购最多但已下架；scale 次之；其余同分按 ID 升序
	got := svc.ProductDetail(ctx, 1)
	assert.Equal(t, []string{"scale", "teapot", "cups", "honey"}, names(got))

	assert.Nil(t, svc.ProductDetail(ctx, 999))
}

func TestService_Cart(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	rec := copurchase.New(ms, nil)
	svc := New(rec, testCatalog(), WithLimit(2))

	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 2, 3}))
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{2, 5}))
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 5}))
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{6, 7}))

	// 1 的集合 {2:1, 3:1, 5:1}，2 的集合 {1:1, 3:1, 5:1}；合并并移除 1、2 后 5:2、3:2
	got := svc.Cart(ctx, []int64{1, 2})
	assert.Equal(t, []string{"cups", "honey"}, names(got))

	assert.Nil(t, svc.Cart(ctx, nil))
	assert.Nil(t, svc.Cart(ctx, []int64{}))
}

func TestService_DegradesWhenStoreDown(t *testing.T) {
	var buf bytes.Buffer
	prev := logging.Logger()
	logging.SetLogger(logging.NewTestLogger(&buf))
	t.Cleanup(func() { logging.SetLogger(prev) })

	mr := miniredis.RunT(t)
	rs, err := store.NewRedisStoreWithOptions(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rs.Close() })

	ctx := context.Background()
	rec := copurchase.New(rs, nil)
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 2}))
	svc := New(rec, testCatalog())
	assert.Equal(t, []string{"teapot"}, names(svc.ProductDetail(ctx, 1)))

	mr.Close()
	assert.Nil(t, svc.ProductDetail(ctx, 1))
	assert.Nil(t, svc.Cart(ctx, []int64{1, 2}))
	assert.Contains(t, buf.String(), "recommendations unavailable")
	assert.Contains(t, buf.String(), `"store_unavailable":true`)
}

func TestService_CustomPipelines(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	rec := copurchase.New(ms, nil)
	cat := testCatalog()
	require.NoError(t, rec.RecordCoPurchases(ctx, []int64{1, 2, 3}))

	detail := DefaultPipeline("detail", rec, cat, 1)
	svc := New(rec, cat, WithPipelines(detail, nil))
	assert.Equal(t, []string{"teapot"}, names(svc.ProductDetail(ctx, 1)))
	assert.Equal(t, []string{"teapot", "cups"}, names(svc.Cart(ctx, []int64{1})))

	// 只有解析节点之前的链路不会产生商品记录
	bare := &pipeline.Pipeline{Nodes: []pipeline.Node{&rerank.TopNNode{N: 1}}}
	assert.Nil(t, New(rec, cat, WithPipelines(bare, bare)).ProductDetail(ctx, 1))
}
