package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/rushteam/shoprec/core"
)

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil))
	assert.Equal(t, "invalid", Result(core.ErrInvalidInput))
	assert.Equal(t, "unavailable", Result(core.StoreUnavailable(context.DeadlineExceeded)))
	assert.Equal(t, "error", Result(errors.New("boom")))
}

func TestObserveOperation(t *testing.T) {
	before := testutil.ToFloat64(RecommenderOperations.WithLabelValues("test_op", "unavailable"))

	err := core.StoreUnavailable(errors.New("dial tcp: refused"))
	ObserveOperation("test_op", time.Now(), &err)

	after := testutil.ToFloat64(RecommenderOperations.WithLabelValues("test_op", "unavailable"))
	assert.Equal(t, before+1, after)
}
