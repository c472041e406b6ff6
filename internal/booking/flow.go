package booking

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/citaflow/citabot-backend/internal/config"
	"github.com/citaflow/citabot-backend/internal/models"
	"github.com/citaflow/citabot-backend/internal/schedule"
	"github.com/citaflow/citabot-backend/internal/storage"
	"github.com/citaflow/citabot-backend/internal/timeparse"
)

// Result is the outcome of one state-machine step: exactly one outbound
// reply plus whether the conversation reached a terminal transition.
type Result struct {
	Reply     string `json:"reply"`
	Finalized bool   `json:"finalized"`
}

// Messenger delivers the asynchronous lifecycle nudges (reminder and
// soft-close notices). Outbound replies to inbound messages travel back
// through the webhook handler instead.
type Messenger interface {
	SendWhatsAppMessage(to, message string) error
}

// CalendarEvent is the external calendar event created on finalize.
type CalendarEvent struct {
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	Attendees   []string
}

// EventCalendar creates events on the external shared calendar.
type EventCalendar interface {
	CreateEvent(ctx context.Context, calendarID string, event CalendarEvent) (string, error)
}

// Mailer sends the best-effort confirmation email.
type Mailer interface {
	SendAppointmentEmail(ctx context.Context, to, name, service string, when time.Time, cfg *config.BusinessConfig) error
}

// Flow is the booking state machine. One inbound message drives exactly
// one step: validate input for the current state, consult the parser and
// the availability resolver as needed, mutate the session, and produce
// the reply and next state.
type Flow struct {
	store    storage.Store
	resolver *schedule.Resolver
	sessions SessionStore
	timers   *TimerManager

	calendar  EventCalendar // nil when no calendar configured
	mailer    Mailer        // nil when email sending is disabled
	messenger Messenger     // nil in tests

	now func() time.Time
}

// NewFlow wires the state machine with its required collaborators.
func NewFlow(store storage.Store, resolver *schedule.Resolver, sessions SessionStore, timers *TimerManager) *Flow {
	return &Flow{
		store:    store,
		resolver: resolver,
		sessions: sessions,
		timers:   timers,
		now:      time.Now,
	}
}

// WithCalendar attaches the external calendar collaborator.
func (f *Flow) WithCalendar(c EventCalendar) *Flow { f.calendar = c; return f }

// WithMailer attaches the confirmation mailer.
func (f *Flow) WithMailer(m Mailer) *Flow { f.mailer = m; return f }

// WithMessenger attaches the outbound messenger used by timer nudges.
func (f *Flow) WithMessenger(m Messenger) *Flow { f.messenger = m; return f }

// WithClock overrides the flow's clock. For tests.
func (f *Flow) WithClock(now func() time.Time) *Flow { f.now = now; return f }

// HasSession reports whether phone has a booking dialogue in progress.
func (f *Flow) HasSession(phone string) bool {
	_, ok := f.sessions.Get(phone)
	return ok
}

// Reset hard-deletes phone's session and clears its timers. Used by the
// menu command and by explicit cancellation.
func (f *Flow) Reset(phone string) {
	f.timers.Cancel(phone)
	f.sessions.Delete(phone)
}

const (
	promptDateTime  = "Indica la fecha y hora (ej: hoy 4 pm, mañana, 15/08/2026 14:30)."
	promptEmail     = "¿Cuál es tu correo para enviarte la confirmación? Escribe omitir si no deseas recibir correo."
	replyStoreError = "Tuvimos un problema consultando la agenda. Intenta de nuevo en un momento."
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)

// HandleMessage advances phone's booking dialogue by one step.
func (f *Flow) HandleMessage(ctx context.Context, phone, businessID, text, displayName string) Result {
	cfg := config.Get(businessID)
	loc := cfg.Hours.Location()
	now := f.now().In(loc)
	low := strings.ToLower(strings.TrimSpace(text))

	// Passive purge of long-abandoned sessions; the background job does
	// the same on a timer.
	f.PurgeExpired()

	switch low {
	case "continuar", "reanudar", "seguir":
		if sess := f.reactivate(phone, cfg, now); sess != nil {
			f.scheduleInactivity(sess, cfg, now)
			return Result{Reply: cfg.Session.ResumeMsg}
		}
		f.sessions.Delete(phone)
		return Result{Reply: "No encontré una sesión anterior. Escribe citas para iniciar."}

	case "salir", "cancelar":
		f.Reset(phone)
		return Result{Reply: "Flujo cancelado. Si deseas agendar más tarde, escribe citas.", Finalized: true}
	}

	sess := f.reactivate(phone, cfg, now)
	if sess == nil {
		var ok bool
		sess, ok = f.sessions.Get(phone)
		if !ok {
			sess = &Session{Phone: phone, BusinessID: businessID, State: StateInitial}
		}
	}
	f.scheduleInactivity(sess, cfg, now)

	switch sess.State {
	case StateInitial:
		return f.stepInitial(sess, cfg, displayName)
	case StateAwaitService:
		return f.stepService(sess, cfg, text)
	case StateAwaitDateTime:
		return f.stepDateTime(ctx, sess, cfg, text, now)
	case StateAwaitTimeOnly:
		return f.stepTimeOnly(ctx, sess, cfg, text, now)
	case StateAwaitSlotChoice:
		return f.stepSlotChoice(ctx, sess, cfg, text, now)
	case StateAwaitAlternateDay:
		return f.stepAlternateDay(ctx, sess, cfg, text, now)
	case StateAwaitEmail:
		return f.stepEmail(sess, cfg, text)
	case StateAwaitConfirmation:
		return f.stepConfirmation(ctx, sess, cfg, low, now)
	default:
		// Defensive fallback: never leave a user stuck in an unknown state.
		f.Reset(phone)
		return Result{Reply: "He reiniciado el flujo. Escribe citas si deseas agendar.", Finalized: true}
	}
}

// ===== State steps =====

func (f *Flow) stepInitial(sess *Session, cfg *config.BusinessConfig, displayName string) Result {
	sess.State = StateAwaitService
	sess.Name = displayName
	if sess.Name == "" {
		sess.Name = "cliente"
	}

	// Opportunistic lookup of a previously stored email so the email
	// step can be skipped later. Never blocks the flow.
	if client, err := f.store.GetClientByPhone(sess.Phone); err == nil {
		sess.Email = client.Email
	}

	f.sessions.Put(sess)
	return Result{Reply: fmt.Sprintf(
		"Perfecto %s. Vamos a agendar tu cita en %s.\nAhora selecciona el servicio que deseas agendar%s",
		sess.Name, cfg.Name, cfg.ServiceListText())}
}

func (f *Flow) stepService(sess *Session, cfg *config.BusinessConfig, text string) Result {
	catalog := cfg.ServiceCatalog()
	entry := strings.TrimSpace(text)

	// An all-digit answer is always a catalog pick, never a service name;
	// out of range re-shows the list.
	if n, err := strconv.Atoi(entry); err == nil {
		if len(catalog) > 0 && n >= 1 && n <= len(catalog) {
			sess.Service = &ServiceChoice{Name: catalog[n-1], CatalogIndex: n, FromCatalog: true}
			sess.State = StateAwaitDateTime
			f.sessions.Put(sess)
			return Result{Reply: promptDateTime}
		}
		return Result{Reply: "Opción inválida. Elige un número de la lista:" + cfg.ServiceListText()}
	}

	// Nothing usable: show the list again.
	if len(entry) < 2 {
		if len(catalog) > 0 {
			var b strings.Builder
			for i, name := range catalog {
				fmt.Fprintf(&b, "%d. %s\n", i+1, name)
			}
			return Result{Reply: strings.TrimRight(b.String(), "\n")}
		}
		if cfg.PriceSheet != "" {
			return Result{Reply: cfg.PriceSheet}
		}
		return Result{Reply: "Por favor escribe el nombre del servicio."}
	}

	// Free text becomes the service name, tagged as such.
	sess.Service = &ServiceChoice{Name: entry}
	sess.State = StateAwaitDateTime
	f.sessions.Put(sess)
	return Result{Reply: promptDateTime}
}

func (f *Flow) stepDateTime(ctx context.Context, sess *Session, cfg *config.BusinessConfig, text string, now time.Time) Result {
	loc := cfg.Hours.Location()
	parsed, err := timeparse.Parse(text, loc, now)
	if err != nil {
		// Maybe it was a bare time: apply it to today, or tomorrow when
		// that instant already passed.
		clock, ok := timeparse.ParseClock(text)
		if !ok {
			return Result{Reply: "No entendí la fecha. Ej: hoy 4 pm, mañana, siguiente sábado, 15/08/2026 14:30."}
		}
		dt := timeparse.At(startOfDay(now), clock)
		if !dt.After(now) {
			dt = dt.AddDate(0, 0, 1)
		}
		if !schedule.WithinHours(cfg.Hours, dt) {
			return f.outsideHoursReply(cfg)
		}
		return f.tryCandidate(ctx, sess, cfg, dt, now)
	}

	if parsed.TimeErr {
		sess.State = StateAwaitTimeOnly
		sess.BaseDay = startOfDay(parsed.Day)
		f.sessions.Put(sess)
		return Result{Reply: "No reconocí la hora. Indica solo la hora, por ejemplo 4 pm, 16:00 o 4:30."}
	}

	if !parsed.HasTime {
		return f.listDay(sess, cfg, startOfDay(parsed.Day))
	}

	dt := parsed.Day
	if !dt.After(now) {
		return Result{Reply: "La fecha y hora no pueden ser del pasado. Intenta otra vez."}
	}
	if !schedule.WithinHours(cfg.Hours, dt) {
		return f.outsideHoursReply(cfg)
	}
	return f.tryCandidate(ctx, sess, cfg, dt, now)
}

func (f *Flow) stepTimeOnly(ctx context.Context, sess *Session, cfg *config.BusinessConfig, text string, now time.Time) Result {
	loc := cfg.Hours.Location()

	// The user may answer with a day instead; list that day's slots.
	if parsed, err := timeparse.Parse(text, loc, now); err == nil && !parsed.HasTime && !parsed.TimeErr {
		return f.listDay(sess, cfg, startOfDay(parsed.Day))
	}

	clock, ok := timeparse.ParseClock(text)
	if !ok {
		return Result{Reply: "No entendí la hora. Ej: 4 pm, 16:00 o 4:30."}
	}

	base := sess.BaseDay
	if base.IsZero() {
		base = startOfDay(now)
	}
	dt := timeparse.At(base.In(loc), clock)
	if !dt.After(now) {
		return Result{Reply: "Esa hora ya pasó. Indica otra por favor."}
	}
	if !schedule.WithinHours(cfg.Hours, dt) {
		return f.outsideHoursReply(cfg)
	}
	return f.tryCandidate(ctx, sess, cfg, dt, now)
}

func (f *Flow) stepSlotChoice(ctx context.Context, sess *Session, cfg *config.BusinessConfig, text string, now time.Time) Result {
	loc := cfg.Hours.Location()
	low := strings.ToLower(strings.TrimSpace(text))

	switch low {
	case "otro dia", "otro día", "otra fecha", "otro horario":
		sess.State = StateAwaitDateTime
		sess.ClearSuggestions()
		f.sessions.Put(sess)
		return Result{Reply: promptDateTime}
	}

	// A bare day re-lists that day's openings without leaving this state.
	if parsed, err := timeparse.Parse(text, loc, now); err == nil && !parsed.HasTime && !parsed.TimeErr {
		return f.listDay(sess, cfg, startOfDay(parsed.Day))
	}

	// Resolve the chosen instant: full natural date, bare time applied to
	// the suggestion day, or a verbatim match against the offered list.
	var chosen time.Time
	if parsed, err := timeparse.Parse(text, loc, now); err == nil && parsed.HasTime {
		chosen = parsed.Day
	} else if clock, ok := timeparse.ParseClock(text); ok && !sess.SuggestionsDay.IsZero() {
		chosen = timeparse.At(sess.SuggestionsDay.In(loc), clock)
	} else {
		compact := strings.ReplaceAll(strings.TrimSpace(text), " ", "")
		for _, s := range sess.Suggestions {
			if timeparse.FormatClock(s) == compact {
				chosen = s
				break
			}
		}
	}
	if chosen.IsZero() {
		return Result{Reply: "No pude reconocer esa hora. Escribe una de la lista (ej: 11:00) o una nueva fecha en formato natural o dd/mm/yyyy hh:mm."}
	}

	if !schedule.WithinHours(cfg.Hours, chosen) {
		return f.outsideHoursReply(cfg)
	}

	// A pick straight off the offered list was just read as free from the
	// same data; it is trusted here and re-validated at confirmation.
	fromList := false
	for _, s := range sess.Suggestions {
		if s.Equal(chosen) {
			fromList = true
			break
		}
	}
	if !fromList {
		free, err := f.resolver.IsFree(ctx, sess.BusinessID, cfg.CalendarID, chosen, cfg.Hours.Duration())
		if err != nil {
			return Result{Reply: replyStoreError}
		}
		if !free {
			return Result{Reply: "Esa hora se acaba de ocupar. Prueba otra de la lista o escribe otra fecha."}
		}
	}

	sess.When = chosen
	return f.toEmailOrConfirm(sess, cfg)
}

func (f *Flow) stepAlternateDay(ctx context.Context, sess *Session, cfg *config.BusinessConfig, text string, now time.Time) Result {
	loc := cfg.Hours.Location()
	parsed, err := timeparse.Parse(text, loc, now)
	if err != nil || (parsed.HasTime && !parsed.Day.After(now)) {
		return Result{Reply: "No entendí la fecha. Intenta mañana 4 pm o 15/08/2026 14:30."}
	}
	if parsed.TimeErr {
		sess.State = StateAwaitTimeOnly
		sess.BaseDay = startOfDay(parsed.Day)
		f.sessions.Put(sess)
		return Result{Reply: "No reconocí la hora. Indica solo la hora, por ejemplo 4 pm, 16:00 o 4:30."}
	}
	if !parsed.HasTime {
		return f.listDay(sess, cfg, startOfDay(parsed.Day))
	}
	if !schedule.WithinHours(cfg.Hours, parsed.Day) {
		return f.outsideHoursReply(cfg)
	}
	return f.tryCandidate(ctx, sess, cfg, parsed.Day, now)
}

func (f *Flow) stepEmail(sess *Session, cfg *config.BusinessConfig, text string) Result {
	low := strings.ToLower(strings.TrimSpace(text))
	if low == "omitir" || low == "skip" || low == "no" {
		sess.EmailSkipped = true
		sess.State = StateAwaitConfirmation
		f.sessions.Put(sess)
		return Result{Reply: f.summary(sess)}
	}

	entry := strings.TrimSpace(text)
	if !emailRe.MatchString(entry) {
		return Result{Reply: "Parece que tu correo no es válido. Ej: nombre@dominio.com. Intenta de nuevo o escribe omitir."}
	}

	sess.Email = entry
	if err := f.store.UpsertClient(&models.Client{Phone: sess.Phone, Name: sess.Name, Email: sess.Email}); err != nil {
		log.Printf("⚠️  No se pudo guardar el cliente %s: %v", sess.Phone, err)
	}
	sess.State = StateAwaitConfirmation
	f.sessions.Put(sess)
	return Result{Reply: f.summary(sess)}
}

func (f *Flow) stepConfirmation(ctx context.Context, sess *Session, cfg *config.BusinessConfig, low string, now time.Time) Result {
	switch low {
	case "si", "sí", "ok", "confirmo", "confirmar":
		return f.finalize(ctx, sess, cfg, now)
	case "no", "corregir", "editar":
		sess.State = StateAwaitService
		f.sessions.Put(sess)
		return Result{Reply: "De acuerdo. Selecciona nuevamente el servicio." + cfg.ServiceListText()}
	default:
		return Result{Reply: "Responde SI para confirmar o NO para corregir."}
	}
}

// finalize re-validates the slot, persists the appointment, fires the
// best-effort side effects and closes the session. The fresh availability
// check happens on every confirmation, regardless of whether the slot
// came from a suggestion list: two users can be offered the same slot,
// and the check plus the store's transactional insert decide the winner.
func (f *Flow) finalize(ctx context.Context, sess *Session, cfg *config.BusinessConfig, now time.Time) Result {
	dur := cfg.Hours.Duration()

	free, err := f.resolver.IsFree(ctx, sess.BusinessID, cfg.CalendarID, sess.When, dur)
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if !free {
		return f.slotLostReply(sess, cfg, now)
	}

	serviceName := ""
	if sess.Service != nil {
		serviceName = sess.Service.Name
	}
	appt := &models.Appointment{
		ClientID:    sess.Phone,
		Name:        sess.Name,
		Service:     serviceName,
		StartsAt:    sess.When,
		DurationMin: int(dur / time.Minute),
		BusinessID:  sess.BusinessID,
	}
	created, err := f.store.CreateAppointment(appt)
	if err == storage.ErrSlotTaken {
		return f.slotLostReply(sess, cfg, now)
	}
	if err != nil {
		// Keep the session so the user can retry without re-entering
		// everything.
		log.Printf("❌ No se pudo guardar la cita de %s: %v", sess.Phone, err)
		return Result{Reply: "No pude guardar tu cita por un problema interno. Responde SI para intentar de nuevo."}
	}

	f.createCalendarEvent(ctx, created, sess, cfg)

	if err := f.store.UpsertClient(&models.Client{Phone: sess.Phone, Name: sess.Name, Email: sess.Email}); err != nil {
		log.Printf("⚠️  No se pudo guardar el cliente %s: %v", sess.Phone, err)
	}

	if f.mailer != nil && sess.Email != "" {
		email, name, when := sess.Email, sess.Name, sess.When
		go func() {
			if err := f.mailer.SendAppointmentEmail(context.Background(), email, name, serviceName, when, cfg); err != nil {
				log.Printf("⚠️  No se pudo enviar el correo de confirmación a %s: %v", email, err)
			}
		}()
	}

	f.Reset(sess.Phone)

	reply := fmt.Sprintf("Listo %s. Tu cita para \"%s\" quedó para %s. Gracias por elegir %s.",
		sess.Name, serviceName, timeparse.Format(sess.When), cfg.Name)
	if cfg.Preparation != "" {
		reply += "\n\nAntes de tu cita:\n" + cfg.Preparation
	}
	return Result{Reply: reply, Finalized: true}
}

func (f *Flow) createCalendarEvent(ctx context.Context, appt *models.Appointment, sess *Session, cfg *config.BusinessConfig) {
	if f.calendar == nil {
		return
	}
	event := CalendarEvent{
		Summary:     fmt.Sprintf("%s - %s", appt.Service, appt.Name),
		Description: fmt.Sprintf("Reservado por WhatsApp. Usuario: %s", sess.Phone),
		Start:       appt.StartsAt,
		End:         appt.StartsAt.Add(time.Duration(appt.DurationMin) * time.Minute),
	}
	if sess.Email != "" {
		event.Description += " | " + sess.Email
		event.Attendees = []string{sess.Email}
	}

	eventID, err := f.calendar.CreateEvent(ctx, cfg.CalendarID, event)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "invalid_grant") {
			log.Printf("❌ ALERTA: createEvent invalid_grant; la cita quedó en BD, pendiente de reintento de calendario")
		} else {
			log.Printf("⚠️  createEvent falló (la cita quedó en BD): %v", err)
		}
		return
	}
	if err := f.store.SetAppointmentCalendarEvent(appt.ID, eventID); err != nil {
		log.Printf("⚠️  No se pudo anotar el evento de calendario %s: %v", eventID, err)
	}
}

// ===== Availability helpers =====

// tryCandidate validates a concrete requested instant against both
// availability sources and either advances toward confirmation or offers
// alternatives for the same day (rolling to the next when full).
func (f *Flow) tryCandidate(ctx context.Context, sess *Session, cfg *config.BusinessConfig, dt time.Time, now time.Time) Result {
	free, err := f.resolver.IsFree(ctx, sess.BusinessID, cfg.CalendarID, dt, cfg.Hours.Duration())
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if !free {
		return f.offerAlternatives(sess, cfg, startOfDay(dt), "Esa hora no está disponible.")
	}

	sess.When = dt
	return f.toEmailOrConfirm(sess, cfg)
}

// listDay answers a day-only expression with that day's free slots,
// rolling to the following day when the requested one is full.
func (f *Flow) listDay(sess *Session, cfg *config.BusinessConfig, day time.Time) Result {
	slots, err := f.resolver.SuggestDay(sess.BusinessID, cfg.Hours, day, schedule.DefaultSuggestionLimit)
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if len(slots) == 0 {
		return f.offerNextDay(sess, cfg, day)
	}

	f.storeSuggestions(sess, day, slots)
	return Result{Reply: fmt.Sprintf("Opciones libres para el %s:\n%s\n\nEscribe la hora exacta que prefieras.",
		timeparse.FormatDay(day), bulletTimes(slots))}
}

// offerAlternatives handles an occupied requested slot: same-day options
// first, next-day options second, a free-form alternate date as the last
// resort.
func (f *Flow) offerAlternatives(sess *Session, cfg *config.BusinessConfig, day time.Time, prefix string) Result {
	slots, err := f.resolver.SuggestDay(sess.BusinessID, cfg.Hours, day, schedule.DefaultSuggestionLimit)
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if len(slots) == 0 {
		return f.offerNextDay(sess, cfg, day)
	}

	f.storeSuggestions(sess, day, slots)
	return Result{Reply: fmt.Sprintf("%s\nOpciones libres para el %s:\n%s\n\nEscribe la hora exacta que prefieras o di otro día.",
		prefix, timeparse.FormatDay(day), bulletTimes(slots))}
}

// offerNextDay rolls a full day forward, labeling the list with the day
// it belongs to.
func (f *Flow) offerNextDay(sess *Session, cfg *config.BusinessConfig, day time.Time) Result {
	next, slots, err := f.resolver.SuggestNextDay(sess.BusinessID, cfg.Hours, day, schedule.DefaultSuggestionLimit)
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if len(slots) == 0 {
		sess.State = StateAwaitAlternateDay
		sess.ClearSuggestions()
		f.sessions.Put(sess)
		return Result{Reply: "Ese día está todo ocupado. Indica otra fecha (ej: viernes, 20/08/2026)."}
	}

	f.storeSuggestions(sess, next, slots)
	return Result{Reply: fmt.Sprintf("Ese día está todo ocupado.\nOpciones libres para el %s:\n%s\n\nEscribe la hora exacta que prefieras.",
		timeparse.FormatDay(next), bulletTimes(slots))}
}

// slotLostReply handles the confirmation-time race: the chosen slot got
// taken between selection and confirmation.
func (f *Flow) slotLostReply(sess *Session, cfg *config.BusinessConfig, now time.Time) Result {
	day := startOfDay(sess.When)
	slots, err := f.resolver.SuggestDay(sess.BusinessID, cfg.Hours, day, schedule.DefaultSuggestionLimit)
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if len(slots) > 0 {
		f.storeSuggestions(sess, day, slots)
		return Result{Reply: fmt.Sprintf("Se acaba de ocupar esa hora.\nOpciones disponibles para el %s:\n%s\n\nEscribe la hora exacta que prefieras.",
			timeparse.FormatDay(day), bulletTimes(slots))}
	}

	next, nextSlots, err := f.resolver.SuggestNextDay(sess.BusinessID, cfg.Hours, day, schedule.DefaultSuggestionLimit)
	if err != nil {
		return Result{Reply: replyStoreError}
	}
	if len(nextSlots) > 0 {
		f.storeSuggestions(sess, next, nextSlots)
		return Result{Reply: fmt.Sprintf("Se acaba de ocupar esa hora y ese día está lleno.\nOpciones libres para el %s:\n%s\n\nEscribe la hora exacta que prefieras.",
			timeparse.FormatDay(next), bulletTimes(nextSlots))}
	}

	sess.State = StateAwaitAlternateDay
	sess.ClearSuggestions()
	f.sessions.Put(sess)
	return Result{Reply: "No hay espacios cercanos. Indica otra fecha."}
}

func (f *Flow) storeSuggestions(sess *Session, day time.Time, slots []time.Time) {
	sess.State = StateAwaitSlotChoice
	sess.Suggestions = slots
	sess.SuggestionsDay = day
	f.sessions.Put(sess)
}

func (f *Flow) toEmailOrConfirm(sess *Session, cfg *config.BusinessConfig) Result {
	if sess.Email == "" && !sess.EmailSkipped {
		sess.State = StateAwaitEmail
		f.sessions.Put(sess)
		return Result{Reply: promptEmail}
	}
	sess.State = StateAwaitConfirmation
	f.sessions.Put(sess)
	return Result{Reply: f.summary(sess)}
}

func (f *Flow) outsideHoursReply(cfg *config.BusinessConfig) Result {
	return Result{Reply: fmt.Sprintf("El horario de atención es de %s a %s. Indica otra hora dentro del horario.",
		cfg.Hours.Open, cfg.Hours.Close)}
}

func (f *Flow) summary(sess *Session) string {
	lines := []string{
		"Por favor confirma tu cita:",
		"Nombre: " + sess.Name,
	}
	if sess.Service != nil {
		lines = append(lines, "Servicio: "+sess.Service.Name)
	}
	if sess.Email != "" {
		lines = append(lines, "Correo: "+sess.Email)
	}
	lines = append(lines, "Fecha: "+timeparse.Format(sess.When))
	return strings.Join(lines, "\n") + "\nResponde SI para confirmar o NO para corregir."
}

// ===== Inactivity lifecycle =====

// scheduleInactivity (re)arms the reminder and soft-close timers on every
// inbound message. Both callbacks re-read the session and no-op when it
// has been deleted or already marked inactive.
func (f *Flow) scheduleInactivity(sess *Session, cfg *config.BusinessConfig, now time.Time) {
	sess.LastInteractionAt = now
	f.sessions.Put(sess)

	phone := sess.Phone
	f.timers.Schedule(phone, cfg.Session.ReminderAfter(), cfg.Session.CloseAfter(),
		func() {
			cur, ok := f.sessions.Get(phone)
			if !ok || cur.Inactive {
				return
			}
			f.send(phone, cfg.Session.ReminderMsg)
		},
		func() {
			cur, ok := f.sessions.Get(phone)
			if !ok || cur.Inactive {
				return
			}
			cur.Inactive = true
			cur.InactiveAt = f.now()
			f.sessions.Put(cur)
			f.timers.Cancel(phone)
			f.send(phone, cfg.Session.CloseMsg)
		})
}

// reactivate returns phone's session ready for use: active sessions as
// they are, inactive ones revived when still inside the resume window and
// discarded otherwise (returning nil).
func (f *Flow) reactivate(phone string, cfg *config.BusinessConfig, now time.Time) *Session {
	sess, ok := f.sessions.Get(phone)
	if !ok {
		return nil
	}
	if !sess.Inactive {
		return sess
	}
	if sess.InactiveAt.IsZero() || now.Sub(sess.InactiveAt) > cfg.Session.ResumeWindow() {
		f.Reset(phone)
		return nil
	}
	sess.Inactive = false
	sess.InactiveAt = time.Time{}
	f.sessions.Put(sess)
	return sess
}

// PurgeExpired deletes sessions whose soft-close happened longer ago than
// their business's resume window.
func (f *Flow) PurgeExpired() int {
	now := f.now()
	purged := 0
	for _, sess := range f.sessions.All() {
		if !sess.Inactive || sess.InactiveAt.IsZero() {
			continue
		}
		window := config.Get(sess.BusinessID).Session.ResumeWindow()
		if now.Sub(sess.InactiveAt) > window {
			f.Reset(sess.Phone)
			purged++
		}
	}
	return purged
}

func (f *Flow) send(phone, text string) {
	if f.messenger == nil || text == "" {
		return
	}
	if err := f.messenger.SendWhatsAppMessage(phone, text); err != nil {
		log.Printf("❌ No se pudo enviar el aviso de sesión a %s: %v", phone, err)
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func bulletTimes(slots []time.Time) string {
	parts := make([]string, len(slots))
	for i, s := range slots {
		parts[i] = "• " + timeparse.FormatClock(s)
	}
	return strings.Join(parts, "\n")
}
