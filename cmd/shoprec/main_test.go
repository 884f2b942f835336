package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
)

func TestParseIDs(t *testing.T) {
	ids, err := parseIDs([]string{"3", "7,12", " 5 ,", ""})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 7, 12, 5}, ids)

	_, err = parseIDs([]string{"3", "x"})
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("SHOPREC_REDIS_ADDR", "redis:6380")
	t.Setenv("SHOPREC_TIMEOUT", "750ms")
	t.Setenv("SHOPREC_BREAKER_FAILURES", "3")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", cfg.RedisAddr)
	assert.Equal(t, 750*time.Millisecond, cfg.Timeout)
	assert.Equal(t, uint32(3), cfg.BreakerFailures)
	assert.Equal(t, 6, cfg.MaxResults)
	assert.Equal(t, "orders.completed", cfg.OrderTopic)
	assert.Equal(t, ":9108", cfg.MetricsAddr)
	assert.Equal(t, "product", cfg.KeyPrefix)

	nc := cfg.natsConfig("replicas")
	assert.Equal(t, "SHOPREC_ORDERS", nc.StreamName)
	assert.Equal(t, []string{"orders.completed"}, nc.Subjects)
	assert.Equal(t, "replicas", nc.DurableName)
	assert.Equal(t, 5*time.Second, nc.NakDelay)
	assert.Equal(t, 10, nc.MaxDeliver)
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("SHOPREC_MAX_RESULTS", "0")
	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("SHOPREC_MAX_RESULTS", "4")
	t.Setenv("SHOPREC_TIMEOUT", "soon")
	_, err = LoadConfig()
	assert.Error(t, err)
}

func TestClearRequiresConfirmation(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"clear"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--yes")
}

func TestReadProducts(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	require.NoError(t, os.WriteFile(good, []byte(`[{"id":1,"name":"Green tea","category":"tea","price_cents":450,"available":true},{"id":2,"name":"Kettle"}]`), 0o600))

	products, err := readProducts(good)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, core.Product{ID: 1, Name: "Green tea", Category: "tea", PriceCents: 450, Available: true}, products[0])
	assert.False(t, products[1].Available)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`[{"name":"no id"}]`), 0o600))
	_, err = readProducts(bad)
	assert.Error(t, err)

	_, err = readProducts(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}
