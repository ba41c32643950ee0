package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestCounters(t *testing.T) {
	before := testutil.ToFloat64(bookingEvents.WithLabelValues("booking_created"))
	IncBookingEvent("booking_created")
	assert.Equal(t, before+1, testutil.ToFloat64(bookingEvents.WithLabelValues("booking_created")))

	AddRefunded("USD", 40)
	AddRefunded("USD", 0)
	assert.Equal(t, 40.0, testutil.ToFloat64(refundAmount.WithLabelValues("USD")))
}
