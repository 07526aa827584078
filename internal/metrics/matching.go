package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "voicematch"

// percentBuckets spans the 0-100 score scale in 10-point steps.
var percentBuckets = prometheus.LinearBuckets(10, 10, 10)

// Speaker matching Prometheus metrics.
var (
	IdentificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "identifications_total",
			Help:      "Identification calls by decision class",
		},
		[]string{"decision"},
	)

	IdentificationBestScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "identification_best_score_percent",
			Help:      "Best candidate score of each scored identification",
			Buckets:   percentBuckets,
		},
	)

	VerificationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "verifications_total",
			Help:      "Verification calls by outcome",
		},
		[]string{"result"}, // "accepted" / "rejected" / "no_voice"
	)

	EnrollmentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "enrollments_total",
			Help:      "Enrollment writes by operation and status",
		},
		[]string{"operation", "status"}, // operation: "create" / "append" / "replace"
	)

	EnrollmentQuality = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "enrollment_quality_percent",
			Help:      "Enrollment quality of each stored sample set",
			Buckets:   percentBuckets,
		},
	)

	SpeakersDeletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "speakers_deleted_total",
			Help:      "Total speakers deleted",
		},
	)
)

var matchingMetricsRegistered bool

// RegisterMatchingMetrics registers the matching metrics. Must be called once from main.
func RegisterMatchingMetrics() {
	if matchingMetricsRegistered {
		return
	}
	prometheus.MustRegister(IdentificationsTotal)
	prometheus.MustRegister(IdentificationBestScore)
	prometheus.MustRegister(VerificationsTotal)
	prometheus.MustRegister(EnrollmentsTotal)
	prometheus.MustRegister(EnrollmentQuality)
	prometheus.MustRegister(SpeakersDeletedTotal)
	matchingMetricsRegistered = true
}
