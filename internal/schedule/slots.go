package schedule

import (
	"time"

	"github.com/citaflow/citabot-backend/internal/config"
)

// SlotsForDay enumerates the appointment slots of day's calendar date:
// starting at opening time and advancing by the slot duration. A slot
// whose end would run past closing is excluded, so the count is always
// floor((close-open)/duration). Pure function of its inputs.
func SlotsForDay(hours config.Hours, day time.Time) []time.Time {
	open := hours.OpenAt(day)
	close := hours.CloseAt(day)
	dur := hours.Duration()

	var slots []time.Time
	for cursor := open; !cursor.Add(dur).After(close); cursor = cursor.Add(dur) {
		slots = append(slots, cursor)
	}
	return slots
}

// WithinHours reports whether an appointment starting at start fits the
// business day: not before opening and ending no later than closing.
func WithinHours(hours config.Hours, start time.Time) bool {
	open := hours.OpenAt(start)
	close := hours.CloseAt(start)
	return !start.Before(open) && !start.Add(hours.Duration()).After(close)
}
