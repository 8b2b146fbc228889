package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	bookingSubmitted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shifa",
			Name:      "booking_submitted_total",
			Help:      "Count of booking submissions by outcome.",
		},
		[]string{"outcome"},
	)

	couponApplied = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shifa",
			Name:      "coupon_applied_total",
			Help:      "Count of coupon applications by outcome.",
		},
		[]string{"outcome"},
	)

	authEvents = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shifa",
			Name:      "auth_events_total",
			Help:      "Count of auth state changes by kind (login, register, booking_issued, logout, forced_logout).",
		},
		[]string{"kind"},
	)

	apiErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shifa",
			Name:      "api_errors_total",
			Help:      "Count of normalized gateway errors by kind.",
		},
		[]string{"kind"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(bookingSubmitted, couponApplied, authEvents, apiErrors)
	})
}

func IncBookingSubmitted(outcome string) {
	bookingSubmitted.WithLabelValues(outcome).Inc()
}

func IncCouponApplied(outcome string) {
	couponApplied.WithLabelValues(outcome).Inc()
}

func IncAuthEvent(kind string) {
	authEvents.WithLabelValues(kind).Inc()
}

func IncAPIError(kind string) {
	apiErrors.WithLabelValues(kind).Inc()
}
