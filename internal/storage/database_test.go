package storage

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/citaflow/citabot-backend/internal/models"
)

func newTestDB(t *testing.T) *DatabaseStore {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Appointment{}, &models.Client{}))
	return NewDatabaseStore(db)
}

func testAppt(start time.Time) *models.Appointment {
	return &models.Appointment{
		ClientID:    "+50255512345",
		Name:        "Ana",
		Service:     "Corte de cabello",
		StartsAt:    start,
		DurationMin: 60,
		BusinessID:  "default",
	}
}

func TestCreateAppointmentRejectsOverlap(t *testing.T) {
	store := newTestDB(t)
	start := time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)

	first, err := store.CreateAppointment(testAppt(start))
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	require.Equal(t, start.Add(time.Hour), first.EndsAt)

	// Same slot.
	_, err = store.CreateAppointment(testAppt(start))
	require.ErrorIs(t, err, ErrSlotTaken)

	// Partial overlap.
	_, err = store.CreateAppointment(testAppt(start.Add(30 * time.Minute)))
	require.ErrorIs(t, err, ErrSlotTaken)

	// Adjacent slot is fine.
	_, err = store.CreateAppointment(testAppt(start.Add(time.Hour)))
	require.NoError(t, err)

	// Same instant, different business, is fine.
	other := testAppt(start)
	other.BusinessID = "otra"
	_, err = store.CreateAppointment(other)
	require.NoError(t, err)
}

func TestHasOverlapBoundaries(t *testing.T) {
	store := newTestDB(t)
	start := time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)
	_, err := store.CreateAppointment(testAppt(start))
	require.NoError(t, err)

	taken, err := store.HasOverlap("default", start, start.Add(time.Hour))
	require.NoError(t, err)
	require.True(t, taken)

	taken, err = store.HasOverlap("default", start.Add(time.Hour), start.Add(2*time.Hour))
	require.NoError(t, err)
	require.False(t, taken, "back-to-back slots must not count as overlapping")

	taken, err = store.HasOverlap("otra", start, start.Add(time.Hour))
	require.NoError(t, err)
	require.False(t, taken, "overlap is scoped per business")
}

func TestUpsertClientNeverErasesKnownFields(t *testing.T) {
	store := newTestDB(t)

	require.NoError(t, store.UpsertClient(&models.Client{Phone: "+502555", Name: "Ana", Email: "ana@example.com"}))
	// A later upsert with only a name must keep the email.
	require.NoError(t, store.UpsertClient(&models.Client{Phone: "+502555", Name: "Ana María"}))

	client, err := store.GetClientByPhone("+502555")
	require.NoError(t, err)
	require.Equal(t, "Ana María", client.Name)
	require.Equal(t, "ana@example.com", client.Email)
}

func TestGetAndDeleteAppointment(t *testing.T) {
	store := newTestDB(t)
	start := time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)

	created, err := store.CreateAppointment(testAppt(start))
	require.NoError(t, err)

	got, err := store.GetAppointment(created.ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, got.ID)
	require.Equal(t, "Corte de cabello", got.Service)

	require.NoError(t, store.DeleteAppointment(created.ID))
	_, err = store.GetAppointment(created.ID)
	require.Error(t, err)
	require.Error(t, store.DeleteAppointment(created.ID), "deleting twice must fail")

	// The freed slot books again.
	_, err = store.CreateAppointment(testAppt(start))
	require.NoError(t, err)
}

func TestGetAppointmentsByBusinessRange(t *testing.T) {
	store := newTestDB(t)
	day := time.Date(2026, 8, 14, 0, 0, 0, 0, time.UTC)

	for _, h := range []int{9, 11, 15} {
		_, err := store.CreateAppointment(testAppt(day.Add(time.Duration(h) * time.Hour)))
		require.NoError(t, err)
	}
	_, err := store.CreateAppointment(testAppt(day.AddDate(0, 0, 1).Add(9 * time.Hour)))
	require.NoError(t, err)

	appts, err := store.GetAppointmentsByBusiness("default", day, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, appts, 3)
	require.True(t, appts[0].StartsAt.Before(appts[1].StartsAt))
}

func TestMemoryStoreConcurrentBookingSingleWinner(t *testing.T) {
	store := NewMemoryStore()
	start := time.Date(2026, 8, 14, 10, 0, 0, 0, time.UTC)

	const attempts = 16
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.CreateAppointment(testAppt(start))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			require.True(t, errors.Is(err, ErrSlotTaken))
		}
	}
	require.Equal(t, 1, winners, "exactly one concurrent booking may win the slot")
}
