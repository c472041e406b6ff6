package handlers

import "github.com/gofiber/fiber/v2"

// HealthHandler handles health check requests
type HealthHandler struct {
	Version  string
	Storage  string
	WhatsApp bool
	Calendar bool
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version, storage string, whatsapp, calendar bool) *HealthHandler {
	return &HealthHandler{
		Version:  version,
		Storage:  storage,
		WhatsApp: whatsapp,
		Calendar: calendar,
	}
}

// Check returns the health status of the service
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "OK",
		"service": "CitaBot Backend",
		"version": h.Version,
		"storage": h.Storage,
		"services": fiber.Map{
			"whatsapp": h.WhatsApp,
			"calendar": h.Calendar,
		},
	})
}
