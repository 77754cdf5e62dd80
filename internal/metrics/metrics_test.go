package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetrics(t *testing.T) {
	// Register should be safe to call multiple times
	Register()
	Register()

	// Counter helpers should not panic
	assert.NotPanics(t, func() {
		IncHTTP("test_endpoint")
		IncBooking("confirmed")
		IncBooking("race_lost")
		IncMail("booking_confirmation", "ok")
	})
}
