package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	roundTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "game_rounds_total",
			Help: "Total dice rounds by result",
		},
		[]string{"result"},
	)

	roundDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "game_round_duration_ms",
			Help:    "Dice round duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result"},
	)

	paymentTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payment_verifications_total",
			Help: "Total payment verification attempts by result",
		},
		[]string{"result"},
	)

	paymentDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "payment_verification_duration_ms",
			Help:    "Payment verification duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result"},
	)
)

// RecordRound records business metrics for one wagering round.
// result should be "win", "lose" or "error".
func RecordRound(result string, started time.Time) {
	durMs := float64(time.Since(started).Milliseconds())
	roundTotal.WithLabelValues(result).Inc()
	roundDuration.WithLabelValues(result).Observe(durMs)
}

// RecordPaymentVerify records business metrics for one verification attempt.
func RecordPaymentVerify(success bool, started time.Time) {
	result := "success"
	if !success {
		result = "fail"
	}
	durMs := float64(time.Since(started).Milliseconds())
	paymentTotal.WithLabelValues(result).Inc()
	paymentDuration.WithLabelValues(result).Observe(durMs)
}
