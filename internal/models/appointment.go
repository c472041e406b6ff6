package models

import "time"

// Appointment represents a confirmed booking for a business slot
type Appointment struct {
	ID       string `json:"id" gorm:"primaryKey"`
	ClientID string `json:"client_id" gorm:"index"` // WhatsApp phone number
	Name     string `json:"name"`
	Service  string `json:"service"`

	// Slot occupied by the appointment. EndsAt is stored denormalized so
	// overlap queries work the same on postgres and sqlite.
	StartsAt    time.Time `json:"starts_at" gorm:"index"`
	EndsAt      time.Time `json:"ends_at" gorm:"index"`
	DurationMin int       `json:"duration_min"`

	BusinessID string `json:"business_id" gorm:"index"`

	// Google Calendar event ID when the event creation succeeded; empty
	// when the calendar was down at finalize time (local row is still
	// the source of truth).
	CalendarEventID string `json:"calendar_event_id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
