package events

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nats-io/nats-server/v2/server"
	natstest "github.com/nats-io/nats-server/v2/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/core"
)

func runJetStreamServer(t *testing.T) *server.Server {
	t.Helper()
	opts := natstest.DefaultTestOptions
	opts.Port = -1
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	s := natstest.RunServer(&opts)
	t.Cleanup(s.Shutdown)
	return s
}

// flakyRecorder 前 failures 次调用返回存储不可用，之后成功。
type flakyRecorder struct {
	mu       sync.Mutex
	failures int
	calls    int
	recorded [][]int64
}

func (f *flakyRecorder) RecordCoPurchases(_ context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return core.StoreUnavailable(context.DeadlineExceeded)
	}
	f.recorded = append(f.recorded, ids)
	return nil
}

func (f *flakyRecorder) snapshot() (int, [][]int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls, append([][]int64(nil), f.recorded...)
}

func TestEnsureStream_Idempotent(t *testing.T) {
	s := runJetStreamServer(t)
	cfg := NATSConfig{URL: s.ClientURL()}

	require.NoError(t, EnsureStream(context.Background(), cfg))
	require.NoError(t, EnsureStream(context.Background(), cfg))
}

func TestNATS_NackedOrderIsRedelivered(t *testing.T) {
	s := runJetStreamServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg := NATSConfig{
		URL:            s.ClientURL(),
		QueueGroup:     "shoprec-test",
		AckWaitTimeout: 5 * time.Second,
		NakDelay:       100 * time.Millisecond,
		CloseTimeout:   time.Second,
	}
	sub, err := NewNATSSubscriber(ctx, cfg, nil)
	require.NoError(t, err)
	defer sub.Close()
	pub, err := NewNATSPublisher(ctx, cfg, nil)
	require.NoError(t, err)
	defer pub.Close()

	rec := &flakyRecorder{failures: 1}
	runCtx, stop := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- NewConsumer(sub, rec, "", nil).Run(runCtx) }()

	require.NoError(t, Publish(pub, "", &OrderCompleted{OrderID: "A1", ProductIDs: []int64{1, 2}}))

	require.Eventually(t, func() bool {
		_, recorded := rec.snapshot()
		return len(recorded) == 1
	}, 10*time.Second, 20*time.Millisecond)

	calls, recorded := rec.snapshot()
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int64{1, 2}, recorded[0])

	stop()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

func TestNATS_OrdersPublishedBeforeConsumerStarts(t *testing.T) {
	s := runJetStreamServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	cfg := NATSConfig{URL: s.ClientURL(), CloseTimeout: time.Second}

	pub, err := NewNATSPublisher(ctx, cfg, nil)
	require.NoError(t, err)
	defer pub.Close()
	require.NoError(t, Publish(pub, "", &OrderCompleted{OrderID: "A1", ProductIDs: []int64{3, 4}}))

	sub, err := NewNATSSubscriber(ctx, cfg, nil)
	require.NoError(t, err)
	defer sub.Close()

	rec := &flakyRecorder{}
	runCtx, stop := context.WithCancel(ctx)
	defer stop()
	go func() { _ = NewConsumer(sub, rec, "", nil).Run(runCtx) }()

	require.Eventually(t, func() bool {
		_, recorded := rec.snapshot()
		return len(recorded) == 1
	}, 10*time.Second, 20*time.Millisecond)
}
