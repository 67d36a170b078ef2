package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestBookingMetricsCustomRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewBookingMetrics(reg)

	m.ObserveBooking("ok")
	m.ObserveBooking("slot_taken")
	m.ObserveCancellation("patient", "ok")
	m.ObserveCompletion("ok")
	m.ObservePayment("stripe", "create", "ok")
	m.ObserveNotification("appointment_booked", "ok")
	m.ObserveHTTP("POST", "/api/user/book-appointment", "200", 0.02)

	assert.Equal(t, 2.0, counterValue(t, reg, "physio_booking_bookings_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "physio_booking_cancellations_total"))
	assert.Equal(t, 1.0, counterValue(t, reg, "physio_payment_operations_total"))
}

func TestBookingMetricsNilSafe(t *testing.T) {
	var m *BookingMetrics
	m.ObserveBooking("ok")
	m.ObserveCancellation("admin", "ok")
	m.ObserveCompletion("ok")
	m.ObservePayment("razorpay", "verify", "error")
	m.ObserveNotification("verify_email", "error")
	m.ObserveHTTP("GET", "/healthz", "200", 0.001)
}

func TestResult(t *testing.T) {
	assert.Equal(t, "ok", Result(nil, "slot_taken"))
	assert.Equal(t, "slot_taken", Result(errors.New("x"), "slot_taken"))
	assert.Equal(t, "error", Result(errors.New("x"), ""))
}
