package schedule

import (
	"time"

	"piscineiro/internal/models"
)

// Reason explains why a slot is blocked.
type Reason string

const (
	ReasonPast         Reason = "past"
	ReasonOutsideHours Reason = "outside_hours"
	ReasonTaken        Reason = "already_booked"
)

// Classification is the verdict for one candidate (date, time) slot.
type Classification struct {
	Bookable bool   `json:"bookable"`
	Reason   Reason `json:"reason,omitempty"`
}

func bookable() Classification        { return Classification{Bookable: true} }
func blocked(r Reason) Classification { return Classification{Reason: r} }

// Classify decides whether a candidate slot on the given date can be booked.
// Checks run in fixed precedence: past beats outside-hours beats already-booked,
// because each carries a distinct user-facing message. The function is pure;
// "now" is threaded in so callers re-evaluate instead of caching.
func Classify(date time.Time, slot string, hours models.WorkingHours, booked []models.BookedSlot, now time.Time) Classification {
	if slotInPast(date, slot, now) {
		return blocked(ReasonPast)
	}
	if !withinHours(slot, hours) {
		return blocked(ReasonOutsideHours)
	}
	if slotTaken(date, slot, booked) {
		return blocked(ReasonTaken)
	}
	return bookable()
}

// slotInPast reports whether the slot on the selected date is already gone.
// Only the current day is considered: past calendar days are rejected at
// date-selection time, and future days are never "past" regardless of time.
func slotInPast(date time.Time, slot string, now time.Time) bool {
	y1, m1, d1 := date.Date()
	y2, m2, d2 := now.Date()
	if y1 != y2 || m1 != m2 || d1 != d2 {
		return false
	}

	t, err := time.Parse(models.SlotTimeLayout, slot)
	if err != nil {
		return false
	}
	slotAt := time.Date(y1, m1, d1, t.Hour(), t.Minute(), 0, 0, now.Location())
	return !slotAt.After(now)
}

// withinHours checks [Start, End) with minute precision: start inclusive,
// end exclusive, matching DaySlots boundary semantics.
func withinHours(slot string, hours models.WorkingHours) bool {
	s, err := time.Parse(models.SlotTimeLayout, slot)
	if err != nil {
		return false
	}
	start, err := time.Parse(models.SlotTimeLayout, hours.Start)
	if err != nil {
		return false
	}
	end, err := time.Parse(models.SlotTimeLayout, hours.End)
	if err != nil {
		return false
	}

	mins := s.Hour()*60 + s.Minute()
	return mins >= start.Hour()*60+start.Minute() && mins < end.Hour()*60+end.Minute()
}

func slotTaken(date time.Time, slot string, booked []models.BookedSlot) bool {
	dateStr := date.Format(models.DateLayout)
	for _, b := range booked {
		if b.Date == dateStr && b.Time == slot {
			return true
		}
	}
	return false
}
