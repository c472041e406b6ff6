package handlers

import (
	"log"
	"os"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/citaflow/citabot-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	bot           *services.BotService
	twilioService *services.TwilioService // nil when Twilio is not configured
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(bot *services.BotService, twilioService *services.TwilioService) *WhatsAppHandler {
	return &WhatsAppHandler{
		bot:           bot,
		twilioService: twilioService,
	}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid  string `form:"MessageSid"`
	AccountSid  string `form:"AccountSid"`
	From        string `form:"From"` // WhatsApp number (whatsapp:+50255512345)
	To          string `form:"To"`   // The business Twilio number
	Body        string `form:"Body"` // Message text
	ProfileName string `form:"ProfileName"`
	NumMedia    string `form:"NumMedia"`
}

// HandleWebhook processes incoming WhatsApp messages
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	log.Printf("📱 WhatsApp message from %s: %s", payload.From, payload.Body)

	// Status callbacks arrive on the same URL with an empty body; only
	// real inbound messages are processed.
	if payload.Body != "" && payload.From != "" {
		from := strings.TrimPrefix(payload.From, "whatsapp:")

		response := h.bot.ProcessMessage(c.Context(), from, businessID(), payload.Body, payload.ProfileName)

		if h.twilioService != nil && response != "" {
			if err := h.twilioService.SendWhatsAppMessage(from, response); err != nil {
				log.Printf("❌ Failed to send WhatsApp response: %v", err)
			}
		} else if response != "" {
			log.Printf("📤 Response (not sent - Twilio not configured): %s", response)
		}
	}

	return c.SendStatus(fiber.StatusOK)
}

// TestWebhookPayload is the JSON shape of the development endpoint.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Name    string `json:"name"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test WhatsApp messages without Twilio (for
// development). The reply comes back in the HTTP response instead of a
// WhatsApp message.
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook from %s: %s", payload.From, payload.Message)

	response := h.bot.ProcessMessage(c.Context(), payload.From, businessID(), payload.Message, payload.Name)
	return c.JSON(fiber.Map{"reply": response})
}

// businessID resolves which business this deployment serves. One bot
// process serves one business.
func businessID() string {
	if id := os.Getenv("BUSINESS_ID"); id != "" {
		return id
	}
	return "default"
}
