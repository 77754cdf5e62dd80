// Package schedule holds the pure slot arithmetic for provider calendars:
// generating the bookable marks of a day and classifying a candidate slot
// against the attendance window, existing reservations and the clock.
package schedule

import (
	"errors"
	"fmt"
	"time"

	"piscineiro/internal/models"
)

// ErrInvalidWorkingHours reports a provider record with missing or malformed
// attendance hours. Callers surface it as "availability cannot be loaded"
// rather than failing the whole request.
var ErrInvalidWorkingHours = errors.New("invalid working hours")

// DaySlots returns the hourly slot marks covering [Start, End) of the window,
// in ascending order: 08:00–18:00 yields 08:00 through 17:00. The sequence is
// date-independent; date-sensitive filtering belongs to Classify.
func DaySlots(hours models.WorkingHours) ([]string, error) {
	if err := hours.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWorkingHours, err)
	}

	start, _ := time.Parse(models.SlotTimeLayout, hours.Start)
	end, _ := time.Parse(models.SlotTimeLayout, hours.End)

	slots := make([]string, 0, end.Hour()-start.Hour())
	for h := start.Hour(); h < end.Hour(); h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
	}
	return slots, nil
}
