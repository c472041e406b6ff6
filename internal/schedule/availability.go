package schedule

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/citaflow/citabot-backend/internal/config"
)

// DefaultCalendarTimeout bounds every external calendar consultation.
const DefaultCalendarTimeout = 6 * time.Second

// DefaultSuggestionLimit caps how many free slots are offered at once.
const DefaultSuggestionLimit = 6

// ReservationStore is the durable, authoritative record of booked slots.
type ReservationStore interface {
	HasOverlap(businessID string, start, end time.Time) (bool, error)
}

// FreeBusy is the external shared calendar's availability view. It may be
// slow, wrong, or down; the resolver never lets it block a booking.
type FreeBusy interface {
	IsFree(ctx context.Context, calendarID string, start, end time.Time) (bool, error)
}

// Resolver answers "is this slot free" by cross-checking the reservation
// store (always, authoritative) and the external calendar (best effort,
// degrade-open).
type Resolver struct {
	store    ReservationStore
	calendar FreeBusy // nil when no calendar is configured
	timeout  time.Duration
	now      func() time.Time
}

// NewResolver wires a resolver. calendar may be nil.
func NewResolver(store ReservationStore, calendar FreeBusy) *Resolver {
	return &Resolver{
		store:    store,
		calendar: calendar,
		timeout:  DefaultCalendarTimeout,
		now:      time.Now,
	}
}

// WithClock overrides the resolver's clock. For tests.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// IsFree implements the two-source availability policy:
//  1. the reservation store is consulted first and an overlap is final;
//  2. the calendar can only narrow further — an explicit "busy" blocks,
//     while a timeout, error or unknown answer counts as free.
//
// The returned error is non-nil only for reservation-store failures.
func (r *Resolver) IsFree(ctx context.Context, businessID, calendarID string, start time.Time, dur time.Duration) (bool, error) {
	end := start.Add(dur)

	taken, err := r.store.HasOverlap(businessID, start, end)
	if err != nil {
		return false, err
	}
	if taken {
		return false, nil
	}

	return r.calendarFree(ctx, calendarID, start, end), nil
}

// calendarFree consults the external calendar with a bounded timeout and
// degrades open on any failure. An invalid_grant answer means the stored
// credentials are dead and the degradation will persist until someone
// re-authorizes, so it is logged louder than a transient blip.
func (r *Resolver) calendarFree(ctx context.Context, calendarID string, start, end time.Time) bool {
	if r.calendar == nil {
		return true
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	free, err := r.calendar.IsFree(ctx, calendarID, start, end)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "invalid_grant") {
			log.Printf("❌ ALERTA: calendario rechazó las credenciales (invalid_grant), operando solo con BD: %v", err)
		} else {
			log.Printf("⚠️  Calendario no disponible, operando solo con BD: %v", err)
		}
		return true
	}
	return free
}

// SuggestDay lists up to limit free slots of day's calendar date, in
// order, skipping slots already in the past. Only the reservation store
// is consulted: a suggestion list is a quick DB-backed offer, and every
// pick is still re-validated at confirmation time.
func (r *Resolver) SuggestDay(businessID string, hours config.Hours, day time.Time, limit int) ([]time.Time, error) {
	if limit <= 0 {
		limit = DefaultSuggestionLimit
	}
	now := r.now().In(hours.Location())
	dur := hours.Duration()

	var free []time.Time
	for _, slot := range SlotsForDay(hours, day) {
		if !slot.After(now) {
			continue
		}
		taken, err := r.store.HasOverlap(businessID, slot, slot.Add(dur))
		if err != nil {
			return nil, err
		}
		if !taken {
			free = append(free, slot)
			if len(free) >= limit {
				break
			}
		}
	}
	return free, nil
}

// SuggestNextDay rolls the suggestion to the day after day. The returned
// day labels the list so the caller can tell the user which date the
// offered times belong to.
func (r *Resolver) SuggestNextDay(businessID string, hours config.Hours, day time.Time, limit int) (time.Time, []time.Time, error) {
	next := startOfDay(day.In(hours.Location())).AddDate(0, 0, 1)
	slots, err := r.SuggestDay(businessID, hours, next, limit)
	return next, slots, err
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
