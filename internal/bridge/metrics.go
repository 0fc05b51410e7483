package bridge

import "github.com/prometheus/client_golang/prometheus"

var (
	callsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ortbridge",
			Subsystem: "bridge",
			Name:      "calls_total",
			Help:      "Total number of method calls by result code",
		},
		[]string{"method", "code"},
	)

	callDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ortbridge",
			Subsystem: "bridge",
			Name:      "call_duration_seconds",
			Help:      "Duration of method calls in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	metadataCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ortbridge",
			Subsystem: "bridge",
			Name:      "metadata_cache_total",
			Help:      "Metadata lookups by cache outcome",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(callsTotal, callDuration, metadataCacheTotal)
}
