package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/citaflow/citabot-backend/internal/config"
	"github.com/citaflow/citabot-backend/internal/storage"
	"github.com/citaflow/citabot-backend/internal/timeparse"
)

// AppointmentHandler exposes the small read/cancel API the business
// owner uses to review the agenda and free a slot when a client calls
// to cancel. Cancelling deletes the row, so the slot immediately passes
// the same overlap check new bookings go through.
type AppointmentHandler struct {
	store storage.Store
}

// NewAppointmentHandler creates the handler on the process-wide store
// set from main.
func NewAppointmentHandler() *AppointmentHandler {
	return &AppointmentHandler{store: storage.GetStore()}
}

// List returns a business's appointments in a date range. from/to are
// dd/mm/yyyy query params; the default window is today plus seven days.
func (h *AppointmentHandler) List(c *fiber.Ctx) error {
	bizID := c.Query("business_id", "default")
	loc := config.Get(bizID).Hours.Location()
	now := time.Now().In(loc)

	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if q := c.Query("from"); q != "" {
		parsed, err := time.ParseInLocation("02/01/2006", q, loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "from must be dd/mm/yyyy",
			})
		}
		from = parsed
	}
	to := from.AddDate(0, 0, 7)
	if q := c.Query("to"); q != "" {
		parsed, err := time.ParseInLocation("02/01/2006", q, loc)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "to must be dd/mm/yyyy",
			})
		}
		to = parsed.AddDate(0, 0, 1)
	}

	appts, err := h.store.GetAppointmentsByBusiness(bizID, from, to)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "could not list appointments",
		})
	}
	return c.JSON(fiber.Map{
		"business_id":  bizID,
		"from":         timeparse.FormatDay(from),
		"count":        len(appts),
		"appointments": appts,
	})
}

// Get returns one appointment by ID.
func (h *AppointmentHandler) Get(c *fiber.Ctx) error {
	appt, err := h.store.GetAppointment(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "appointment not found",
		})
	}
	return c.JSON(appt)
}

// Cancel deletes an appointment, freeing its slot for new bookings.
func (h *AppointmentHandler) Cancel(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.store.DeleteAppointment(id); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "appointment not found",
		})
	}
	return c.JSON(fiber.Map{
		"status": "cancelled",
		"id":     id,
	})
}
