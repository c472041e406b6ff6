package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/citaflow/citabot-backend/internal/booking"
	"github.com/citaflow/citabot-backend/internal/schedule"
	"github.com/citaflow/citabot-backend/internal/storage"
)

const botPhone = "+50255500002"

func newTestBot(t *testing.T) *BotService {
	t.Helper()
	now := func() time.Time {
		loc, err := time.LoadLocation("America/Guatemala")
		require.NoError(t, err)
		return time.Date(2026, 8, 12, 10, 30, 0, 0, loc)
	}
	store := storage.NewMemoryStore()
	timers := booking.NewTimerManager()
	t.Cleanup(timers.CancelAll)
	flow := booking.NewFlow(store, schedule.NewResolver(store, nil).WithClock(now),
		booking.NewMemorySessionStore(), timers).WithClock(now)
	return NewBotService(flow)
}

func ask(b *BotService, text string) string {
	return b.ProcessMessage(context.Background(), botPhone, "default", text, "Ana")
}

func TestUnknownTextShowsMenu(t *testing.T) {
	b := newTestBot(t)
	reply := ask(b, "buenas tardes")
	require.Contains(t, reply, "Bienvenida a Salón Belleza Total")
}

func TestServicesOptionAppendsPriceSheet(t *testing.T) {
	b := newTestBot(t)
	reply := ask(b, "1")
	require.Contains(t, reply, "Estos son nuestros servicios")
	require.Contains(t, reply, "Corte de cabello - Q100")
}

func TestMenuOptionEntersBookingFlow(t *testing.T) {
	b := newTestBot(t)
	reply := ask(b, "2")
	require.Contains(t, reply, "Vamos a agendar tu cita")
	require.True(t, b.flow.HasSession(botPhone))
}

func TestKeywordEntersBookingFlow(t *testing.T) {
	b := newTestBot(t)
	reply := ask(b, "citas")
	require.Contains(t, reply, "Vamos a agendar tu cita")
}

func TestFlowInProgressConsumesMenuLookingInput(t *testing.T) {
	b := newTestBot(t)
	ask(b, "citas")

	// "4" is a menu option, but inside the flow it picks catalog entry 4.
	reply := ask(b, "4")
	require.Contains(t, reply, "fecha y hora")
}

func TestMenuCommandResetsFlow(t *testing.T) {
	b := newTestBot(t)
	ask(b, "citas")
	require.True(t, b.flow.HasSession(botPhone))

	reply := ask(b, "menú")
	require.Contains(t, reply, "Bienvenida")
	require.False(t, b.flow.HasSession(botPhone))
}

func TestGoodbyeOutsideFlow(t *testing.T) {
	b := newTestBot(t)
	require.Contains(t, ask(b, "salir"), "Hasta pronto")
}
