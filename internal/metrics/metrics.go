package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piscineiro",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookings = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piscineiro",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		},
		[]string{"outcome"},
	)

	bookingRaceLost = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "piscineiro",
			Name:      "booking_race_lost_total",
			Help:      "Bookings rejected because a concurrent writer won the slot.",
		},
	)

	mailsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "piscineiro",
			Name:      "mails_sent_total",
			Help:      "Outgoing mails by type and result.",
		},
		[]string{"mail_type", "result"},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookings, bookingRaceLost, mailsSent)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncBooking records a booking attempt outcome: confirmed, rejected, race_lost
// or error.
func IncBooking(outcome string) {
	bookings.WithLabelValues(outcome).Inc()
	if outcome == "race_lost" {
		bookingRaceLost.Inc()
	}
}

// IncMail records one mail delivery attempt.
func IncMail(mailType, result string) {
	mailsSent.WithLabelValues(mailType, result).Inc()
}
