// Package metrics holds the Prometheus collectors for pipeline runs and the HTTP API.
package metrics

import (
	"errors"
	"fmt"
	"time"

	"picksheet/pkg/labels"

	"github.com/prometheus/client_golang/prometheus"
)

// Run results used as the "result" label.
const (
	ResultSuccess       = "success"
	ResultEngineFailure = "engine_failure"
	ResultError         = "error"
)

// PipelineMetrics counts runs and what the engine did with their segments.
type PipelineMetrics struct {
	RunsTotal       *prometheus.CounterVec
	SegmentsTotal   prometheus.Counter
	RecordsTotal    prometheus.Counter
	SkippedSegments *prometheus.CounterVec
	RunDuration     prometheus.Histogram
}

// NewPipelineMetrics registers and returns pipeline collectors. A nil registerer means
// the default one.
func NewPipelineMetrics(namespace string, reg prometheus.Registerer) *PipelineMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &PipelineMetrics{
		RunsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Count of pipeline runs by outcome.",
		}, []string{"result"}),
		SegmentsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_total",
			Help:      "Total number of document segments examined.",
		}),
		RecordsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_total",
			Help:      "Total number of shipment records extracted.",
		}),
		SkippedSegments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_segments_total",
			Help:      "Segments that produced no record, by reason.",
		}, []string{"reason"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one pipeline run.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}

	mustRegisterCollector(reg, m.RunsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.RunsTotal = v
		}
	})
	mustRegisterCollector(reg, m.SegmentsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Counter); ok {
			m.SegmentsTotal = v
		}
	})
	mustRegisterCollector(reg, m.RecordsTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Counter); ok {
			m.RecordsTotal = v
		}
	})
	mustRegisterCollector(reg, m.SkippedSegments, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.SkippedSegments = v
		}
	})
	mustRegisterCollector(reg, m.RunDuration, func(existing prometheus.Collector) {
		if v, ok := existing.(prometheus.Histogram); ok {
			m.RunDuration = v
		}
	})
	return m
}

// ObserveRun records one finished run. res may be nil when err is set.
func (m *PipelineMetrics) ObserveRun(res *labels.Result, err error, d time.Duration) {
	if m == nil {
		return
	}
	m.RunDuration.Observe(d.Seconds())
	m.RunsTotal.WithLabelValues(RunResult(err)).Inc()
	if res == nil {
		return
	}
	m.SegmentsTotal.Add(float64(res.Segments))
	m.RecordsTotal.Add(float64(len(res.Records)))
	for _, s := range res.Skipped {
		m.SkippedSegments.WithLabelValues(s.Reason).Inc()
	}
}

// RunResult maps a run error onto the result label.
func RunResult(err error) string {
	switch {
	case err == nil:
		return ResultSuccess
	case errors.Is(err, labels.ErrEngineFailure):
		return ResultEngineFailure
	default:
		return ResultError
	}
}

// HTTPMetrics groups Prometheus collectors for HTTP observability.
type HTTPMetrics struct {
	ReqTotal *prometheus.CounterVec
	ReqDur   *prometheus.HistogramVec
}

// NewHTTPMetrics registers and returns HTTP metrics collectors.
func NewHTTPMetrics(namespace string, reg prometheus.Registerer) *HTTPMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &HTTPMetrics{
		ReqTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests handled by the server.",
		}, []string{"method", "route", "status"}),
		ReqDur: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	mustRegisterCollector(reg, m.ReqTotal, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.CounterVec); ok {
			m.ReqTotal = v
		}
	})
	mustRegisterCollector(reg, m.ReqDur, func(existing prometheus.Collector) {
		if v, ok := existing.(*prometheus.HistogramVec); ok {
			m.ReqDur = v
		}
	})
	return m
}

// Observe records one handled request.
func (m *HTTPMetrics) Observe(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.ReqTotal.WithLabelValues(method, route, fmt.Sprint(status)).Inc()
	m.ReqDur.WithLabelValues(method, route).Observe(d.Seconds())
}

func mustRegisterCollector(reg prometheus.Registerer, c prometheus.Collector, onExisting func(prometheus.Collector)) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			onExisting(are.ExistingCollector)
			return
		}
		panic(fmt.Errorf("register collector: %w", err))
	}
}
