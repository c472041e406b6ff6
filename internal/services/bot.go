package services

import (
	"context"
	"strings"

	"github.com/citaflow/citabot-backend/internal/booking"
	"github.com/citaflow/citabot-backend/internal/config"
)

// BotService is the conversational front door: it owns the main menu and
// hands off to the booking flow when the user asks for an appointment or
// already has one in progress.
type BotService struct {
	flow *booking.Flow
}

// NewBotService creates the bot on top of the booking flow.
func NewBotService(flow *booking.Flow) *BotService {
	return &BotService{flow: flow}
}

// bookingWords are the free-text triggers that enter the booking flow
// from the menu.
var bookingWords = map[string]bool{
	"citas": true, "cita": true, "agendar": true, "reservar": true,
}

// ProcessMessage routes one inbound WhatsApp message and returns the
// reply text.
func (b *BotService) ProcessMessage(ctx context.Context, phone, businessID, text, displayName string) string {
	cfg := config.Get(businessID)
	low := strings.ToLower(strings.TrimSpace(text))

	// Menu commands win over everything, including a flow in progress.
	switch low {
	case "menu", "menú", "volver":
		b.flow.Reset(phone)
		return cfg.MainMenu
	}

	// A dialogue in progress consumes every message.
	if b.flow.HasSession(phone) {
		return b.flow.HandleMessage(ctx, phone, businessID, text, displayName).Reply
	}

	if low == "salir" || low == "cancelar" {
		return "¡Hasta pronto! Escribe cualquier mensaje cuando quieras volver."
	}

	if bookingWords[low] {
		return b.flow.HandleMessage(ctx, phone, businessID, text, displayName).Reply
	}

	if opt, ok := cfg.Options[low]; ok {
		if opt.Next == "booking" {
			return b.flow.HandleMessage(ctx, phone, businessID, text, displayName).Reply
		}
		reply := opt.Reply
		if opt.ShowPrices && cfg.PriceSheet != "" {
			reply += "\n\n" + cfg.PriceSheet
		}
		return reply
	}

	// Anything unrecognized re-shows the menu.
	return cfg.MainMenu
}
