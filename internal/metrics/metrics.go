package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once sync.Once

	replies = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "furnish_replies_total",
		Help: "Replies by classified intent and envelope type",
	}, []string{"intent", "type"})

	failures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "furnish_request_failures_total",
		Help: "Failed requests by error class",
	}, []string{"reason"})

	retrievalLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "furnish_retrieval_latency_ms",
		Help:    "Latency of embed plus catalog search in milliseconds",
		Buckets: []float64{5, 10, 25, 50, 100, 200, 400, 800, 1600, 3200},
	})

	retrievalResults = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "furnish_retrieval_results",
		Help:    "Items returned per retrieval after filtering",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 10},
	})

	topScore = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "furnish_retrieval_top_score",
		Help:    "Similarity of the best retrieved item",
		Buckets: []float64{0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.85, 0.9, 0.95, 1.0},
	})

	blurbFallbacks = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "furnish_blurb_fallbacks_total",
		Help: "Blurbs rendered from the template because generation failed",
	})
)

func ensureRegistered() {
	once.Do(func() {
		prometheus.MustRegister(replies, failures, retrievalLatency, retrievalResults, topScore, blurbFallbacks)
	})
}

// ObserveReply counts a successful reply.
func ObserveReply(intent, typ string) {
	ensureRegistered()
	replies.WithLabelValues(intent, typ).Inc()
}

// IncFailure counts a failed request.
func IncFailure(reason string) {
	ensureRegistered()
	failures.WithLabelValues(reason).Inc()
}

// ObserveRetrieval records latency, result count and the best score.
func ObserveRetrieval(start time.Time, results int, best float64) {
	ensureRegistered()
	retrievalLatency.Observe(float64(time.Since(start).Milliseconds()))
	retrievalResults.Observe(float64(results))
	if results > 0 {
		topScore.Observe(best)
	}
}

func IncBlurbFallback() {
	ensureRegistered()
	blurbFallbacks.Inc()
}

// Handler serves the default registry.
func Handler() http.Handler {
	ensureRegistered()
	return promhttp.Handler()
}
