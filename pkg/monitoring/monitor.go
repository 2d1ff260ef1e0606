package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// EvaluationCounter counts evaluator calls by trigger (edit, sweep) and outcome.
	EvaluationCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_evaluations_total",
			Help: "Evaluator calls by source and outcome",
		},
		[]string{"source", "outcome"},
	)

	EvaluationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "answer_evaluation_duration_seconds",
			Help:    "Latency of evaluator calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"provider"},
	)

	SweepRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "answer_sweep_runs_total",
			Help: "Sweep runs by result",
		},
		[]string{"result"},
	)

	SweepEvaluated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "answer_sweep_evaluated_total",
			Help: "Answers re-scored by sweeps",
		},
	)

	EvaluationQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "answer_evaluation_queue_depth",
			Help: "Evaluation tasks waiting for a worker",
		},
	)
)

var initOnce sync.Once

func Init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestCounter,
			RequestDuration,
			EvaluationCounter,
			EvaluationDuration,
			SweepRuns,
			SweepEvaluated,
			EvaluationQueueDepth,
		)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
