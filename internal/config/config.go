package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultZone is the timezone every business runs in unless overridden.
const DefaultZone = "America/Guatemala"

// Hours describes the bookable window of a calendar day.
type Hours struct {
	Open        string // "09:00"
	Close       string // "18:00"
	Zone        string // IANA name
	SlotMinutes int    // fixed service duration
}

// Location resolves the business timezone, falling back to UTC if the
// configured zone name is broken.
func (h Hours) Location() *time.Location {
	zone := h.Zone
	if zone == "" {
		zone = DefaultZone
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		log.Printf("⚠️  Unknown timezone %q, falling back to UTC", zone)
		return time.UTC
	}
	return loc
}

// Duration returns the slot length.
func (h Hours) Duration() time.Duration {
	min := h.SlotMinutes
	if min <= 0 {
		min = 60
	}
	return time.Duration(min) * time.Minute
}

// OpenAt returns the opening instant of day's calendar date.
func (h Hours) OpenAt(day time.Time) time.Time {
	return atClock(day, h.Open, h.Location())
}

// CloseAt returns the closing instant of day's calendar date.
func (h Hours) CloseAt(day time.Time) time.Time {
	return atClock(day, h.Close, h.Location())
}

func atClock(day time.Time, hhmm string, loc *time.Location) time.Time {
	hour, min := parseHM(hhmm)
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), hour, min, 0, 0, loc)
}

func parseHM(hhmm string) (int, int) {
	parts := strings.SplitN(hhmm, ":", 2)
	if len(parts) != 2 {
		return 0, 0
	}
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	return h, m
}

// SessionConfig holds the inactivity thresholds and the canned Spanish
// messages for the reminder / soft-close / resume lifecycle.
type SessionConfig struct {
	ReminderMin int
	CloseMin    int
	ResumeMin   int

	ReminderMsg string
	CloseMsg    string
	ResumeMsg   string
}

// ReminderAfter returns the nudge delay, never below one minute.
func (s SessionConfig) ReminderAfter() time.Duration {
	min := s.ReminderMin
	if min < 1 {
		min = 1
	}
	return time.Duration(min) * time.Minute
}

// CloseAfter returns the soft-close delay, never below reminder+1 minute.
func (s SessionConfig) CloseAfter() time.Duration {
	rem := s.ReminderMin
	if rem < 1 {
		rem = 1
	}
	min := s.CloseMin
	if min < rem+1 {
		min = rem + 1
	}
	return time.Duration(min) * time.Minute
}

// ResumeWindow returns how long an inactive session stays resumable.
func (s SessionConfig) ResumeWindow() time.Duration {
	min := s.ResumeMin
	if min < 1 {
		min = 120
	}
	return time.Duration(min) * time.Minute
}

// MenuOption is one numbered entry of the business main menu.
type MenuOption struct {
	Reply      string
	Next       string // "booking" enters the appointment flow, "" stays in menu
	ShowPrices bool   // append the price sheet to Reply
}

// BusinessConfig is the static per-business bot configuration. It is
// consumed as data by the engine; nothing here is mutated at runtime.
type BusinessConfig struct {
	ID   string
	Name string

	MainMenu string
	Options  map[string]MenuOption

	// Explicit catalog. When empty the catalog is derived from PriceSheet.
	Services   []string
	PriceSheet string

	// Post-booking extras appended to the confirmation (optional).
	Preparation string
	Payments    string

	Hours      Hours
	Session    SessionConfig
	CalendarID string
}

// ServiceCatalog returns the bookable service names, deriving them from
// the free-text price sheet when no explicit list is configured.
func (c *BusinessConfig) ServiceCatalog() []string {
	if len(c.Services) > 0 {
		return c.Services
	}
	return ServicesFromPriceSheet(c.PriceSheet)
}

// ServiceListText renders the numbered catalog for prompts. Falls back to
// the raw price sheet when nothing could be derived.
func (c *BusinessConfig) ServiceListText() string {
	names := c.ServiceCatalog()
	if len(names) == 0 {
		if c.PriceSheet != "" {
			return "\n\n" + c.PriceSheet
		}
		return ""
	}
	var b strings.Builder
	for i, n := range names {
		fmt.Fprintf(&b, "\n%d. %s", i+1, n)
	}
	return b.String()
}

var (
	priceLinePrefix = regexp.MustCompile(`^[\-\*\d\)\.\s]+`)
	priceLineName   = regexp.MustCompile(`^([^:–—-]+?)(?::| -|–|—| Q|$)`)
	hasLetter       = regexp.MustCompile(`(?i)[a-záéíóúñ]`)
)

// ServicesFromPriceSheet extracts service names from a human-written price
// list ("1. Uñas acrílicas – Q150"). Header and instruction lines are
// skipped; duplicates are dropped keeping first occurrence.
func ServicesFromPriceSheet(text string) []string {
	if text == "" {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)
		if strings.Contains(low, "lista de precios") || strings.HasPrefix(low, "escribe") {
			continue
		}
		stripped := priceLinePrefix.ReplaceAllString(line, "")
		m := priceLineName.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if len(name) < 2 || !hasLetter.MatchString(name) {
			continue
		}
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// businesses is the static registry, keyed by business ID. The "default"
// entry serves any unknown business.
var businesses = map[string]*BusinessConfig{
	"default": {
		ID:   "default",
		Name: "Salón Belleza Total",
		MainMenu: "💇‍♀️ *Bienvenida a Salón Belleza Total:*\n" +
			"1️⃣ Ver servicios\n" +
			"2️⃣ Reservar cita\n" +
			"3️⃣ Consultar promociones\n" +
			"4️⃣ Ubicación y horarios\n" +
			"✏️ Escribe el número de la opción o \"salir\".",
		Options: map[string]MenuOption{
			"1": {Reply: "💅 Estos son nuestros servicios:", ShowPrices: true},
			"2": {Next: "booking"},
			"3": {Reply: "✨ Promociones:\n- 15% en uñas gelish\n- 2x1 en cejas y pestañas"},
			"4": {Reply: "📍 7a avenida 12-34 zona 2. Lunes a sábado, 9am a 6pm. Tel: 2233-8899"},
		},
		PriceSheet: "Lista de precios:\n" +
			"1. Corte de cabello - Q100\n" +
			"2. Uñas acrílicas - Q150\n" +
			"3. Tinte - Q250\n" +
			"4. Pestañas clásicas - Q200\n" +
			"Escribe el número del servicio que deseas.",
		Preparation: "Llega 10 minutos antes de tu cita.\nVen sin maquillaje en el área a trabajar.",
		Payments:    "Efectivo\nTarjeta\nTransferencia",
		Hours: Hours{
			Open:        "09:00",
			Close:       "18:00",
			Zone:        DefaultZone,
			SlotMinutes: 60,
		},
		Session: SessionConfig{
			ReminderMin: envInt("SESSION_REMINDER_MIN", 5),
			CloseMin:    envInt("SESSION_CLOSE_MIN", 15),
			ResumeMin:   envInt("SESSION_RESUME_MIN", 120),
			ReminderMsg: "¿Sigues ahí? Si deseas continuar responde un mensaje o escribe cancelar para salir.",
			CloseMsg:    "He marcado tu sesión como inactiva por falta de respuesta. Puedes escribir continuar para retomarla.",
			ResumeMsg:   "Listo, he reanudado tu sesión anterior. Sigamos donde nos quedamos.",
		},
		CalendarID: "primary",
	},
}

// Get returns the configuration for a business, falling back to the
// default business when the ID is unknown or empty.
func Get(businessID string) *BusinessConfig {
	if cfg, ok := businesses[businessID]; ok {
		return cfg
	}
	return businesses["default"]
}

// Register adds or replaces a business configuration. Used by tests and
// by deployments that load extra businesses at startup.
func Register(cfg *BusinessConfig) {
	if cfg == nil || cfg.ID == "" {
		return
	}
	businesses[cfg.ID] = cfg
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
