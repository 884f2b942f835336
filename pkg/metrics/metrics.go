// Package metrics 定义 Prometheus 指标。
//
// 推荐器指标：
//   - shoprec_recommender_operations_total{op, result}：op = record / suggest / clear，result = ok / invalid / unavailable / error
//   - shoprec_recommender_duration_seconds{op}
//
// 存储指标：
//   - shoprec_store_breaker_state{name}：0=closed, 1=half-open, 2=open
//
// 事件指标：
//   - shoprec_events_processed_total{result}：result = recorded / dropped / failed
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rushteam/shoprec/core"
)

var (
	RecommenderOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoprec",
			Subsystem: "recommender",
			Name:      "operations_total",
			Help:      "Recommender operations by outcome.",
		},
		[]string{"op", "result"},
	)

	RecommenderDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shoprec",
			Subsystem: "recommender",
			Name:      "duration_seconds",
			Help:      "Recommender operation latency including store round-trips.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		},
		[]string{"op"},
	)

	StoreBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "shoprec",
			Subsystem: "store",
			Name:      "breaker_state",
			Help:      "Circuit breaker state: 0=closed, 1=half-open, 2=open.",
		},
		[]string{"name"},
	)

	EventsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shoprec",
			Subsystem: "events",
			Name:      "processed_total",
			Help:      "Order events handled by the consumer.",
		},
		[]string{"result"},
	)
)

// Result 将错误归类为指标 result 标签。
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case core.IsInvalidInput(err):
		return "invalid"
	case core.IsUnavailable(err):
		return "unavailable"
	default:
		return "error"
	}
}

// ObserveOperation 记录一次推荐器操作的结果与耗时。
//
//	defer metrics.ObserveOperation("suggest", time.Now(), &err)
func ObserveOperation(op string, start time.Time, errp *error) {
	var err error
	if errp != nil {
		err = *errp
	}
	RecommenderOperations.WithLabelValues(op, Result(err)).Inc()
	RecommenderDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
