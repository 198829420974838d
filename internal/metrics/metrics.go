package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "careermatch"

// Pipeline and embedding Prometheus metrics.
var (
	PostingsFetchedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "postings_fetched_total",
			Help:      "Total number of postings returned by the search provider after dedup",
		},
	)

	SearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "search_requests_total",
			Help:      "Total number of posting search requests",
		},
		[]string{"status"},
	)

	RankingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rankings_total",
			Help:      "Ranking calls by outcome",
		},
		[]string{"outcome"},
	)

	ClusteringsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "clusterings_total",
			Help:      "Clustering calls by outcome",
		},
		[]string{"outcome"},
	)

	EmbeddingRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_requests_total",
			Help:      "Total number of embedding requests",
		},
		[]string{"provider", "model", "status"},
	)

	EmbeddingRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "embedding_request_duration_seconds",
			Help:      "Embedding request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider", "model"},
	)

	EmbeddingCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "embedding_cache_total",
			Help:      "Embedding cache hits and misses",
		},
		[]string{"result"},
	)

	AssistantRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Assistant generation requests by provider and status",
		},
		[]string{"provider", "status"},
	)
)

var (
	registry     = prometheus.NewRegistry()
	registerOnce sync.Once
)

// Register adds all metrics to the package registry. Safe to call more than once.
func Register() {
	registerOnce.Do(func() {
		registry.MustRegister(
			PostingsFetchedTotal,
			SearchRequestsTotal,
			RankingsTotal,
			ClusteringsTotal,
			EmbeddingRequestsTotal,
			EmbeddingRequestDuration,
			EmbeddingCacheTotal,
			AssistantRequestsTotal,
		)
	})
}

// WriteTextfile dumps the current metric values in the text exposition format,
// suitable for the node exporter textfile collector.
func WriteTextfile(path string) error {
	Register()
	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
