package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// RankFallbackTotal counts ranking requests served by the lexical
	// fallback scorer instead of TF-IDF.
	RankFallbackTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "studyrank",
			Name:      "rank_fallback_total",
			Help:      "Ranking requests degraded to the lexical fallback scorer",
		},
	)

	// BundleCacheTotal counts recommendation bundle cache lookups by
	// result ("hit"/"miss").
	BundleCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "studyrank",
			Name:      "bundle_cache_total",
			Help:      "Recommendation bundle cache lookups",
		},
		[]string{"result"},
	)
)

// RegisterEngineMetrics registers the ranking/recommendation metrics
// explicitly (no init()).
func RegisterEngineMetrics() {
	prometheus.MustRegister(RankFallbackTotal)
	prometheus.MustRegister(BundleCacheTotal)
}
