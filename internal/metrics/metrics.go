package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once       sync.Once
	collectors []prometheus.Collector
)

func register(cs ...prometheus.Collector) {
	collectors = append(collectors, cs...)
}

// MustRegister enregistre une seule fois tous les collecteurs du paquet
func MustRegister() {
	once.Do(func() {
		if len(collectors) > 0 {
			prometheus.MustRegister(collectors...)
		}
	})
}

// Handler expose le registre par défaut
func Handler() http.Handler {
	return promhttp.Handler()
}

func init() {
	register(
		triggersTotal,
		cancellationsTotal,
		statusQueriesTotal,
		metadataUpdatesTotal,
		metadataConflictsTotal,
		generatedItemsTotal,
		generationLatencyMs,
		rateLimitedTotal,
	)
}

var (
	triggersTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyloop_generation_triggers_total",
			Help: "Generation trigger requests, labeled by outcome.",
		},
		[]string{"outcome"}, // 'dispatched', 'invalid', 'no_materials', 'not_found', 'error'
	)

	cancellationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyloop_run_cancellations_total",
			Help: "Run cancellation requests, labeled by outcome.",
		},
		[]string{"outcome"}, // 'cancelled', 'not_cancellable', 'not_found', 'error'
	)

	statusQueriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyloop_status_queries_total",
			Help: "Generation status queries, labeled by overall status.",
		},
		[]string{"overall"},
	)

	metadataUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyloop_metadata_updates_total",
			Help: "Week metadata updates, labeled by content type.",
		},
		[]string{"content_type"},
	)

	metadataConflictsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "studyloop_metadata_conflicts_total",
			Help: "Optimistic locking conflicts on week metadata writes.",
		},
	)

	generatedItemsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyloop_generated_items_total",
			Help: "Items produced by the generator, labeled by content type.",
		},
		[]string{"content_type"},
	)

	generationLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "studyloop_generation_latency_ms",
			Help:    "LLM generation latency per content type in milliseconds.",
			Buckets: []float64{250, 500, 1000, 2500, 5000, 10000, 20000, 40000, 80000},
		},
		[]string{"content_type", "success"},
	)

	rateLimitedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "studyloop_rate_limited_total",
			Help: "Requests rejected by the rate limiter, labeled by backend.",
		},
		[]string{"backend"}, // 'redis', 'memory'
	)
)

func IncTrigger(outcome string) {
	triggersTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncCancellation(outcome string) {
	cancellationsTotal.WithLabelValues(norm(outcome)).Inc()
}

func IncStatusQuery(overall string) {
	statusQueriesTotal.WithLabelValues(norm(overall)).Inc()
}

func IncMetadataUpdate(contentType string) {
	metadataUpdatesTotal.WithLabelValues(contentType).Inc()
}

func IncMetadataConflict() {
	metadataConflictsTotal.Inc()
}

func AddGeneratedItems(contentType string, count int) {
	if count <= 0 {
		return
	}
	generatedItemsTotal.WithLabelValues(contentType).Add(float64(count))
}

func ObserveGeneration(contentType string, latencyMs int64, success bool) {
	label := "false"
	if success {
		label = "true"
	}
	generationLatencyMs.WithLabelValues(contentType, label).Observe(float64(latencyMs))
}

func IncRateLimited(backend string) {
	rateLimitedTotal.WithLabelValues(norm(backend)).Inc()
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }
