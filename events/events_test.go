package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/shoprec/copurchase"
	"github.com/rushteam/shoprec/core"
	"github.com/rushteam/shoprec/pkg/metrics"
	"github.com/rushteam/shoprec/store"
)

func TestOrderCompleted_RoundTrip(t *testing.T) {
	data, err := Marshal(&OrderCompleted{OrderID: "A1", ProductIDs: []int64{3, 7}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"order_id":"A1","product_ids":[3,7]}`, string(data))

	_, err = Marshal(&OrderCompleted{OrderID: "A1"})
	assert.ErrorIs(t, err, errNoProducts)

	tests := []struct {
		name    string
		payload string
		wantErr error
	}{
		{name: "not json", payload: "{"},
		{name: "missing order id", payload: `{"product_ids":[1]}`, wantErr: errNoOrderID},
		{name: "no products", payload: `{"order_id":"A2","product_ids":[]}`, wantErr: errNoProducts},
		{name: "wrong type", payload: `{"order_id":"A3","product_ids":["x"]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Unmarshal([]byte(tt.payload))
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

type stubRecorder struct {
	err   error
	calls atomic.Int32
}

func (s *stubRecorder) RecordCoPurchases(context.Context, []int64) error {
	s.calls.Add(1)
	return s.err
}

func acked(msg *message.Message) bool {
	select {
	case <-msg.Acked():
		return true
	default:
		return false
	}
}

func nacked(msg *message.Message) bool {
	select {
	case <-msg.Nacked():
		return true
	default:
		return false
	}
}

func TestConsumer_Handle(t *testing.T) {
	valid := `{"order_id":"A1","product_ids":[1,2]}`
	tests := []struct {
		name       string
		payload    string
		recordErr  error
		want       string
		wantNack   bool
		wantCalled bool
	}{
		{name: "recorded", payload: valid, want: ResultRecorded, wantCalled: true},
		{name: "malformed", payload: "nope", want: ResultDropped},
		{name: "empty order", payload: `{"order_id":"A1","product_ids":[]}`, want: ResultDropped},
		{name: "invalid input", payload: valid, recordErr: core.ErrInvalidInput, want: ResultDropped, wantCalled: true},
		{
			name:       "store unavailable",
			payload:    valid,
			recordErr:  core.StoreUnavailable(errors.New("connection refused")),
			want:       ResultFailed,
			wantNack:   true,
			wantCalled: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &stubRecorder{err: tt.recordErr}
			c := NewConsumer(nil, rec, "", nil)
			before := testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues(tt.want))

			msg := message.NewMessage(watermill.NewUUID(), []byte(tt.payload))
			assert.Equal(t, tt.want, c.Handle(msg))
			assert.Equal(t, tt.wantNack, nacked(msg))
			assert.Equal(t, !tt.wantNack, acked(msg))
			assert.Equal(t, tt.wantCalled, rec.calls.Load() == 1)
			assert.Equal(t, before+1, testutil.ToFloat64(metrics.EventsProcessed.WithLabelValues(tt.want)))
		})
	}
}

func TestConsumer_Run(t *testing.T) {
	ms := store.NewMemoryStore()
	t.Cleanup(func() { _ = ms.Close() })
	rec := copurchase.New(ms, nil)

	pubsub := gochannel.NewGoChannel(gochannel.Config{Persistent: true}, watermill.NewStdLogger(false, false))
	t.Cleanup(func() { _ = pubsub.Close() })

	require.NoError(t, Publish(pubsub, "", &OrderCompleted{OrderID: "A1", ProductIDs: []int64{1, 2, 3}}))
	require.NoError(t, pubsub.Publish(DefaultTopic, message.NewMessage(watermill.NewUUID(), []byte("garbage"))))
	require.NoError(t, Publish(pubsub, "", &OrderCompleted{OrderID: "A2", ProductIDs: []int64{1, 2}}))
	assert.Error(t, Publish(pubsub, "", &OrderCompleted{OrderID: "A3"}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewConsumer(pubsub, rec, DefaultTopic, nil).Run(ctx) }()

	require.Eventually(t, func() bool {
		got, err := rec.SuggestScored(context.Background(), []int64{1}, 10)
		return err == nil && len(got) == 2 && got[0].Score == 2
	}, 5*time.Second, 10*time.Millisecond)

	got, err := rec.Suggest(context.Background(), []int64{1}, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 3}, got)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop")
	}
}

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	return nil, errors.New("nats: no servers available")
}
func (failingSubscriber) Close() error { return nil }

func TestConsumer_SubscribeError(t *testing.T) {
	err := NewConsumer(failingSubscriber{}, &stubRecorder{}, "", nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

type closedSubscriber struct{}

func (closedSubscriber) Subscribe(context.Context, string) (<-chan *message.Message, error) {
	ch := make(chan *message.Message)
	close(ch)
	return ch, nil
}
func (closedSubscriber) Close() error { return nil }

func TestConsumer_RunSubscriptionClosed(t *testing.T) {
	err := NewConsumer(closedSubscriber{}, &stubRecorder{}, "", nil).Run(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, NewConsumer(closedSubscriber{}, &stubRecorder{}, "", nil).Run(ctx))
}
