package observability

import (
	"context"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/yungbote/examiner-backend/internal/pkg/logger"
)

type Metrics struct {
	registry *prometheus.Registry

	apiRequests *prometheus.CounterVec
	apiLatency  *prometheus.HistogramVec
	apiInflight prometheus.Gauge

	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
	llmTokens   *prometheus.CounterVec

	reasoningCalls   *prometheus.CounterVec
	reasoningLatency *prometheus.HistogramVec
	reasoningRetries *prometheus.CounterVec

	workflowTotal *prometheus.CounterVec
	stageLatency  *prometheus.HistogramVec
	cacheLookups  *prometheus.CounterVec
	scorePercent  prometheus.Histogram

	pgStats *prometheus.GaugeVec
}

var (
	initOnce sync.Once
	instance *Metrics
)

func Enabled() bool {
	v := strings.TrimSpace(os.Getenv("METRICS_ENABLED"))
	return strings.EqualFold(v, "true") || v == "1" || strings.EqualFold(v, "yes")
}

func Current() *Metrics {
	return instance
}

// Init builds the process-wide metrics when METRICS_ENABLED is set.
func Init(log *logger.Logger) *Metrics {
	if !Enabled() {
		return nil
	}
	initOnce.Do(func() {
		instance = New(prometheus.NewRegistry())
		if log != nil {
			log.Info("Prometheus metrics enabled")
		}
	})
	return instance
}

// New registers every collector on reg.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return &Metrics{
		registry: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_api_requests_total",
			Help: "Total API requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examiner_api_request_duration_seconds",
			Help:    "API request latency in seconds by method/route/status.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30, 60},
		}, []string{"method", "route", "status"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Name: "examiner_api_inflight_requests",
			Help: "In-flight API requests.",
		}),
		llmRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_llm_requests_total",
			Help: "Provider HTTP calls by model/endpoint/status.",
		}, []string{"model", "endpoint", "status"}),
		llmLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examiner_llm_request_duration_seconds",
			Help:    "Provider HTTP call latency.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 9),
		}, []string{"model", "endpoint", "status"}),
		llmTokens: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_llm_tokens_total",
			Help: "Tokens consumed by model and direction.",
		}, []string{"model", "direction"}),
		reasoningCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_reasoning_calls_total",
			Help: "Gateway calls by prompt kind and outcome code.",
		}, []string{"kind", "outcome"}),
		reasoningLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examiner_reasoning_call_duration_seconds",
			Help:    "Gateway call latency including retries.",
			Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"kind"}),
		reasoningRetries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_reasoning_retries_total",
			Help: "Provider retries by prompt kind.",
		}, []string{"kind"}),
		workflowTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_grading_workflow_total",
			Help: "Grading workflow runs by strategy and outcome code.",
		}, []string{"strategy", "outcome"}),
		stageLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "examiner_grading_stage_duration_seconds",
			Help:    "Latency of each grading pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 14),
		}, []string{"stage"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Name: "examiner_cache_lookups_total",
			Help: "Concept set and result lookups by cache and hit/miss.",
		}, []string{"cache", "result"}),
		scorePercent: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "examiner_grading_percentage",
			Help:    "Distribution of newly persisted grading percentages.",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		}),
		pgStats: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "examiner_postgres_pool",
			Help: "database/sql pool statistics.",
		}, []string{"stat"}),
	}
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveAPI(method, route, status string, dur time.Duration) {
	if m == nil {
		return
	}
	m.apiRequests.WithLabelValues(orDefault(method, "UNKNOWN"), orDefault(route, "unknown"), orDefault(status, "0")).Inc()
	m.apiLatency.WithLabelValues(orDefault(method, "UNKNOWN"), orDefault(route, "unknown"), orDefault(status, "0")).Observe(dur.Seconds())
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.Inc()
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.Dec()
}

func (m *Metrics) ObserveLLMRequest(model, endpoint, status string, dur time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	model = orDefault(model, "unknown")
	endpoint = orDefault(endpoint, "unknown")
	status = orDefault(status, "0")
	m.llmRequests.WithLabelValues(model, endpoint, status).Inc()
	if dur > 0 {
		m.llmLatency.WithLabelValues(model, endpoint, status).Observe(dur.Seconds())
	}
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(model, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) ObserveReasoningCall(kind, outcome string, dur time.Duration) {
	if m == nil {
		return
	}
	m.reasoningCalls.WithLabelValues(orDefault(kind, "unknown"), orDefault(outcome, "ok")).Inc()
	m.reasoningLatency.WithLabelValues(orDefault(kind, "unknown")).Observe(dur.Seconds())
}

func (m *Metrics) IncReasoningRetry(kind string) {
	if m == nil {
		return
	}
	m.reasoningRetries.WithLabelValues(orDefault(kind, "unknown")).Inc()
}

func (m *Metrics) IncWorkflow(strategy, outcome string) {
	if m == nil {
		return
	}
	m.workflowTotal.WithLabelValues(orDefault(strategy, "unknown"), orDefault(outcome, "ok")).Inc()
}

func (m *Metrics) ObserveStage(stage string, dur time.Duration) {
	if m == nil {
		return
	}
	m.stageLatency.WithLabelValues(orDefault(stage, "unknown")).Observe(dur.Seconds())
}

func (m *Metrics) IncCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.cacheLookups.WithLabelValues(orDefault(cache, "unknown"), result).Inc()
}

func (m *Metrics) ObserveScore(percentage float64) {
	if m == nil {
		return
	}
	m.scorePercent.Observe(percentage)
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB, interval time.Duration) {
	if m == nil || db == nil {
		return
	}
	if interval <= 0 {
		interval = 15 * time.Second
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.WithLabelValues("open_connections").Set(float64(stats.OpenConnections))
				m.pgStats.WithLabelValues("in_use").Set(float64(stats.InUse))
				m.pgStats.WithLabelValues("idle").Set(float64(stats.Idle))
				m.pgStats.WithLabelValues("wait_count").Set(float64(stats.WaitCount))
				m.pgStats.WithLabelValues("wait_duration_seconds").Set(stats.WaitDuration.Seconds())
			}
		}
	}()
}

func orDefault(v, def string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return def
	}
	return v
}
