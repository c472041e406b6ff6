package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/citaflow/citabot-backend/internal/models"
	"github.com/citaflow/citabot-backend/internal/storage"
)

func newAppointmentApp(t *testing.T) (*fiber.App, *models.Appointment) {
	t.Helper()
	store := storage.NewMemoryStore()
	storage.SetStore(store)

	appt, err := store.CreateAppointment(&models.Appointment{
		ClientID:    "+50255512345",
		Name:        "Ana",
		Service:     "Corte de cabello",
		StartsAt:    time.Now().Add(24 * time.Hour),
		DurationMin: 60,
		BusinessID:  "default",
	})
	require.NoError(t, err)

	h := NewAppointmentHandler()
	app := fiber.New()
	app.Get("/api/appointments", h.List)
	app.Get("/api/appointments/:id", h.Get)
	app.Delete("/api/appointments/:id", h.Cancel)
	return app, appt
}

func TestListAppointmentsDefaultWindow(t *testing.T) {
	app, _ := newAppointmentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/appointments", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Count        int                   `json:"count"`
		Appointments []*models.Appointment `json:"appointments"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, 1, body.Count)
	require.Equal(t, "Corte de cabello", body.Appointments[0].Service)
}

func TestListAppointmentsRejectsBadDate(t *testing.T) {
	app, _ := newAppointmentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/appointments?from=2026-08-14", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestGetAppointmentByID(t *testing.T) {
	app, appt := newAppointmentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/appointments/"+appt.ID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/api/appointments/nope", nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCancelAppointmentFreesSlot(t *testing.T) {
	app, appt := newAppointmentApp(t)

	resp, err := app.Test(httptest.NewRequest(http.MethodDelete, "/api/appointments/"+appt.ID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// The slot passes the overlap check again once cancelled.
	taken, err := storage.GetStore().HasOverlap("default", appt.StartsAt, appt.EndsAt)
	require.NoError(t, err)
	require.False(t, taken)

	// A second cancel is a 404, not a silent success.
	resp, err = app.Test(httptest.NewRequest(http.MethodDelete, "/api/appointments/"+appt.ID, nil))
	require.NoError(t, err)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
