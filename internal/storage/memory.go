package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/citaflow/citabot-backend/internal/models"
)

// MemoryStore holds all data in memory, for tests and local development
type MemoryStore struct {
	appointments map[string]*models.Appointment
	clients      map[string]*models.Client

	// Mutexes for thread safety
	apptMu   sync.RWMutex
	clientMu sync.RWMutex
}

// NewMemoryStore creates a new in-memory storage
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: make(map[string]*models.Appointment),
		clients:      make(map[string]*models.Client),
	}
}

// CreateAppointment books a slot, rejecting overlaps under the same lock
// that publishes the new row. Mirrors the transactional check the
// database store performs.
func (m *MemoryStore) CreateAppointment(appt *models.Appointment) (*models.Appointment, error) {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	if appt.EndsAt.IsZero() {
		appt.EndsAt = appt.StartsAt.Add(time.Duration(appt.DurationMin) * time.Minute)
	}
	for _, existing := range m.appointments {
		if existing.BusinessID != appt.BusinessID {
			continue
		}
		if appt.StartsAt.Before(existing.EndsAt) && existing.StartsAt.Before(appt.EndsAt) {
			return nil, ErrSlotTaken
		}
	}

	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}
	now := time.Now()
	appt.CreatedAt = now
	appt.UpdatedAt = now

	m.appointments[appt.ID] = appt
	return appt, nil
}

func (m *MemoryStore) GetAppointment(id string) (*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	appt, exists := m.appointments[id]
	if !exists {
		return nil, fmt.Errorf("appointment not found")
	}
	return appt, nil
}

func (m *MemoryStore) GetAppointmentsByBusiness(businessID string, from, to time.Time) ([]*models.Appointment, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	var results []*models.Appointment
	for _, appt := range m.appointments {
		if appt.BusinessID != businessID {
			continue
		}
		if appt.StartsAt.Before(from) || !appt.StartsAt.Before(to) {
			continue
		}
		results = append(results, appt)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].StartsAt.Before(results[j].StartsAt) })
	return results, nil
}

func (m *MemoryStore) DeleteAppointment(id string) error {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	if _, exists := m.appointments[id]; !exists {
		return fmt.Errorf("appointment not found")
	}
	delete(m.appointments, id)
	return nil
}

// SetAppointmentCalendarEvent records the external calendar event ID
// after the event is created.
func (m *MemoryStore) SetAppointmentCalendarEvent(id, eventID string) error {
	m.apptMu.Lock()
	defer m.apptMu.Unlock()

	appt, exists := m.appointments[id]
	if !exists {
		return fmt.Errorf("appointment not found")
	}
	appt.CalendarEventID = eventID
	appt.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryStore) HasOverlap(businessID string, start, end time.Time) (bool, error) {
	m.apptMu.RLock()
	defer m.apptMu.RUnlock()

	for _, appt := range m.appointments {
		if appt.BusinessID != businessID {
			continue
		}
		if start.Before(appt.EndsAt) && appt.StartsAt.Before(end) {
			return true, nil
		}
	}
	return false, nil
}

// Client operations

func (m *MemoryStore) GetClientByPhone(phone string) (*models.Client, error) {
	m.clientMu.RLock()
	defer m.clientMu.RUnlock()

	client, exists := m.clients[phone]
	if !exists {
		return nil, fmt.Errorf("client not found")
	}
	return client, nil
}

// UpsertClient merges the known fields: a blank name or email never
// erases a previously stored value.
func (m *MemoryStore) UpsertClient(client *models.Client) error {
	m.clientMu.Lock()
	defer m.clientMu.Unlock()

	existing, ok := m.clients[client.Phone]
	if !ok {
		existing = &models.Client{Phone: client.Phone}
		m.clients[client.Phone] = existing
	}
	if client.Name != "" {
		existing.Name = client.Name
	}
	if client.Email != "" {
		existing.Email = client.Email
	}
	existing.UpdatedAt = time.Now()
	return nil
}
