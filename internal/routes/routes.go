package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/citaflow/citabot-backend/internal/handlers"
	"github.com/citaflow/citabot-backend/internal/middleware"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, whatsapp *handlers.WhatsAppHandler, health *handlers.HealthHandler) {

	// Root endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "CitaBot Backend",
			"version": health.Version,
			"endpoints": fiber.Map{
				"health":        "/health",
				"appointments":  "/api/appointments",
				"webhook":       "/webhook/whatsapp",
				"test_whatsapp": "/test/whatsapp",
			},
		})
	})

	app.Get("/health", health.Check)

	// ========== API ROUTES ==========
	api := app.Group("/api")
	appointments := handlers.NewAppointmentHandler()
	api.Get("/appointments", appointments.List)
	api.Get("/appointments/:id", appointments.Get)
	api.Delete("/appointments/:id", appointments.Cancel)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	// WhatsApp webhook - signature validation is skipped in development
	// so ngrok tunnels work.
	if os.Getenv("ENVIRONMENT") == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		webhooks.Post("/whatsapp", whatsapp.HandleWebhook)
		if os.Getenv("ENVIRONMENT") == "development" {
			println("⚠️  WhatsApp webhook validation DISABLED for development")
		}
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(), whatsapp.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if os.Getenv("ENVIRONMENT") == "development" {
		app.Post("/test/whatsapp", whatsapp.HandleTestWebhook)
	}
}
