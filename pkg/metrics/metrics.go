package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// BookingMetrics exposes counters/histograms for the appointment lifecycle.
// A nil *BookingMetrics is valid and records nothing.
type BookingMetrics struct {
	bookings      *prometheus.CounterVec
	cancellations *prometheus.CounterVec
	completions   *prometheus.CounterVec
	payments      *prometheus.CounterVec
	notifications *prometheus.CounterVec
	httpLatency   *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		bookings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Booking attempts by result",
		}, []string{"result"}),
		cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Cancellation attempts by actor kind and result",
		}, []string{"actor", "result"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "booking",
			Name:      "completions_total",
			Help:      "Completion attempts by result",
		}, []string{"result"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "payment",
			Name:      "operations_total",
			Help:      "Gateway operations by provider, action and result",
		}, []string{"provider", "action", "result"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "physio",
			Subsystem: "notify",
			Name:      "emails_total",
			Help:      "Notification emails handed to the mailer by template and result",
		}, []string{"template", "result"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "physio",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.bookings, m.cancellations, m.completions, m.payments, m.notifications, m.httpLatency)
	return m
}

// Result maps an error to the "ok"/"error" label, or to code when one is given.
func Result(err error, code string) string {
	if err == nil {
		return "ok"
	}
	if code != "" {
		return code
	}
	return "error"
}

func (m *BookingMetrics) ObserveBooking(result string) {
	if m == nil {
		return
	}
	m.bookings.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObserveCancellation(actor, result string) {
	if m == nil {
		return
	}
	m.cancellations.WithLabelValues(actor, result).Inc()
}

func (m *BookingMetrics) ObserveCompletion(result string) {
	if m == nil {
		return
	}
	m.completions.WithLabelValues(result).Inc()
}

func (m *BookingMetrics) ObservePayment(provider, action, result string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(provider, action, result).Inc()
}

func (m *BookingMetrics) ObserveNotification(template, result string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(template, result).Inc()
}

func (m *BookingMetrics) ObserveHTTP(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpLatency.WithLabelValues(method, route, status).Observe(seconds)
}
