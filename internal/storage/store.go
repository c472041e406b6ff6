package storage

import (
	"errors"
	"time"

	"github.com/citaflow/citabot-backend/internal/models"
)

// ErrSlotTaken is returned by CreateAppointment when the requested slot
// overlaps an existing appointment for the same business. The write-time
// check inside the store is the final word on double booking.
var ErrSlotTaken = errors.New("slot already booked")

var storeInstance Store

// SetStore sets the global store instance (call from main.go)
func SetStore(s Store) {
	storeInstance = s
}

// GetStore returns the global store instance
func GetStore() Store {
	return storeInstance
}

// Store defines the interface for storage operations
type Store interface {
	// Appointment operations
	CreateAppointment(appt *models.Appointment) (*models.Appointment, error)
	GetAppointment(id string) (*models.Appointment, error)
	GetAppointmentsByBusiness(businessID string, from, to time.Time) ([]*models.Appointment, error)
	DeleteAppointment(id string) error
	SetAppointmentCalendarEvent(id, eventID string) error
	HasOverlap(businessID string, start, end time.Time) (bool, error)

	// Client profile operations (best-effort cache)
	GetClientByPhone(phone string) (*models.Client, error)
	UpsertClient(client *models.Client) error
}
