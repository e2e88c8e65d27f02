package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Message metrics
	messagesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_messages_received_total",
		Help: "Total number of messages received",
	}, []string{"channel"})

	messagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_messages_processed_total",
		Help: "Total number of messages processed",
	}, []string{"status"})

	// Intent metrics
	intentsClassified = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_intents_classified_total",
		Help: "Total number of classified intents",
	}, []string{"intent"})

	// Query metrics
	queriesBlocked = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medchat_queries_blocked_total",
		Help: "Total number of SQL queries rejected by the validator",
	})

	queryErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_query_errors_total",
		Help: "Total number of query execution errors",
	}, []string{"kind"})

	// AI metrics
	aiRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "medchat_ai_request_duration_seconds",
		Help:    "Duration of AI requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"purpose", "status"})

	// Cache metrics
	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medchat_cache_hits_total",
		Help: "Total number of query cache hits",
	})

	cacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "medchat_cache_misses_total",
		Help: "Total number of query cache misses",
	})

	// Rate limit metrics
	rateLimitExceeded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "medchat_rate_limit_exceeded_total",
		Help: "Total number of rate limit exceeded events",
	}, []string{"user_id"})

	// Active threads gauge
	activeThreads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "medchat_active_threads",
		Help: "Number of active conversation threads",
	})
)

// Metrics provides methods to record metrics
type Metrics struct{}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordMessageReceived records a received message
func (m *Metrics) RecordMessageReceived(channel string) {
	messagesReceived.WithLabelValues(channel).Inc()
}

// RecordMessageProcessed records a processed message
func (m *Metrics) RecordMessageProcessed(status string) {
	messagesProcessed.WithLabelValues(status).Inc()
}

// RecordIntent records a classified intent
func (m *Metrics) RecordIntent(intent string) {
	intentsClassified.WithLabelValues(intent).Inc()
}

// RecordQueryBlocked records a validator rejection
func (m *Metrics) RecordQueryBlocked() {
	queriesBlocked.Inc()
}

// RecordQueryError records a query execution error by kind
func (m *Metrics) RecordQueryError(kind string) {
	queryErrors.WithLabelValues(kind).Inc()
}

// RecordAIRequest records an AI request
func (m *Metrics) RecordAIRequest(purpose, status string, duration time.Duration) {
	aiRequestDuration.WithLabelValues(purpose, status).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit
func (m *Metrics) RecordCacheHit() {
	cacheHits.Inc()
}

// RecordCacheMiss records a cache miss
func (m *Metrics) RecordCacheMiss() {
	cacheMisses.Inc()
}

// RecordRateLimitExceeded records a rate limit exceeded event
func (m *Metrics) RecordRateLimitExceeded(userID string) {
	rateLimitExceeded.WithLabelValues(userID).Inc()
}

// SetActiveThreads sets the number of active threads
func (m *Metrics) SetActiveThreads(count float64) {
	activeThreads.Set(count)
}

// StartMetricsServer starts the metrics HTTP server
func StartMetricsServer(port int, path string) error {
	router := mux.NewRouter()
	router.Handle(path, promhttp.Handler())

	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	addr := fmt.Sprintf(":%d", port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	return server.ListenAndServe()
}
