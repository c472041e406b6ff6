package storage

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/citaflow/citabot-backend/internal/models"
)

// DatabaseStore persists to PostgreSQL through gorm. The overlap check
// and the insert of a new appointment run inside one transaction, so a
// concurrent confirmation of the same slot loses with ErrSlotTaken.
type DatabaseStore struct {
	db *gorm.DB
}

// NewDatabaseStore creates a database-backed store
func NewDatabaseStore(db *gorm.DB) *DatabaseStore {
	return &DatabaseStore{db: db}
}

func (s *DatabaseStore) CreateAppointment(appt *models.Appointment) (*models.Appointment, error) {
	if appt.EndsAt.IsZero() {
		appt.EndsAt = appt.StartsAt.Add(time.Duration(appt.DurationMin) * time.Minute)
	}
	if appt.ID == "" {
		appt.ID = uuid.NewString()
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Appointment{}).
			Where("business_id = ? AND starts_at < ? AND ends_at > ?", appt.BusinessID, appt.EndsAt, appt.StartsAt).
			Count(&count).Error; err != nil {
			return fmt.Errorf("overlap check: %w", err)
		}
		if count > 0 {
			return ErrSlotTaken
		}
		return tx.Create(appt).Error
	})
	if err != nil {
		return nil, err
	}
	return appt, nil
}

func (s *DatabaseStore) GetAppointment(id string) (*models.Appointment, error) {
	var appt models.Appointment
	if err := s.db.First(&appt, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("appointment not found")
		}
		return nil, err
	}
	return &appt, nil
}

func (s *DatabaseStore) GetAppointmentsByBusiness(businessID string, from, to time.Time) ([]*models.Appointment, error) {
	var appts []*models.Appointment
	err := s.db.
		Where("business_id = ? AND starts_at >= ? AND starts_at < ?", businessID, from, to).
		Order("starts_at asc").
		Find(&appts).Error
	if err != nil {
		return nil, err
	}
	return appts, nil
}

func (s *DatabaseStore) DeleteAppointment(id string) error {
	result := s.db.Delete(&models.Appointment{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

// SetAppointmentCalendarEvent records the external calendar event ID
// after the event is created.
func (s *DatabaseStore) SetAppointmentCalendarEvent(id, eventID string) error {
	result := s.db.Model(&models.Appointment{}).
		Where("id = ?", id).
		Update("calendar_event_id", eventID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("appointment not found")
	}
	return nil
}

func (s *DatabaseStore) HasOverlap(businessID string, start, end time.Time) (bool, error) {
	var count int64
	err := s.db.Model(&models.Appointment{}).
		Where("business_id = ? AND starts_at < ? AND ends_at > ?", businessID, end, start).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *DatabaseStore) GetClientByPhone(phone string) (*models.Client, error) {
	var client models.Client
	if err := s.db.First(&client, "phone = ?", phone).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("client not found")
		}
		return nil, err
	}
	return &client, nil
}

// UpsertClient keeps the COALESCE semantics of the original schema: a
// blank name or email never overwrites a stored value.
func (s *DatabaseStore) UpsertClient(client *models.Client) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.Client
		err := tx.First(&existing, "phone = ?", client.Phone).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			client.UpdatedAt = time.Now()
			return tx.Create(client).Error
		}
		if err != nil {
			return err
		}
		if client.Name != "" {
			existing.Name = client.Name
		}
		if client.Email != "" {
			existing.Email = client.Email
		}
		existing.UpdatedAt = time.Now()
		return tx.Save(&existing).Error
	})
}
