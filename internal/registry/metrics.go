package registry

import "github.com/prometheus/client_golang/prometheus"

var (
	liveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ortbridge",
		Subsystem: "registry",
		Name:      "live_sessions",
		Help:      "Sessions currently registered",
	})

	liveValues = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "ortbridge",
		Subsystem: "registry",
		Name:      "live_values",
		Help:      "Tensor values currently registered",
	})

	tooBusyTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ortbridge",
			Subsystem: "registry",
			Name:      "too_busy_total",
			Help:      "Runs rejected by admission control",
		},
		[]string{"stage"},
	)

	admissionWait = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ortbridge",
		Subsystem: "registry",
		Name:      "admission_wait_seconds",
		Help:      "Time a run waited for a slot",
		Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
	})
)

func init() {
	prometheus.MustRegister(liveSessions, liveValues, tooBusyTotal, admissionWait)
}
