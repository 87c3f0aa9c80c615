package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	collectionCycles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deviceapi",
		Name:      "collection_cycles_total",
		Help:      "Number of provider fan-out collection cycles performed.",
	})

	cacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "deviceapi",
		Name:      "cache_hits_total",
		Help:      "Collect calls served from the metrics cache.",
	})

	sourceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "deviceapi",
		Name:      "source_failures_total",
		Help:      "Provider source collections that failed or timed out.",
	}, []string{"source"})

	collectionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "deviceapi",
		Name:      "collection_duration_seconds",
		Help:      "Duration of full collection cycles.",
		Buckets:   prometheus.DefBuckets,
	})
)
