// Package timeparse turns the free-form Spanish date/time expressions a
// WhatsApp user types into concrete instants. The grammar is fixed and
// small; anything it does not recognize is a typed error for the caller
// to re-prompt on, never a panic.
package timeparse

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrUnrecognized is returned when the text matches no supported form.
var ErrUnrecognized = errors.New("timeparse: unrecognized date expression")

// Parsed is the outcome of Parse. Day always carries the resolved
// calendar day (at the requested clock time when HasTime is set, at
// midnight otherwise). TimeErr marks a valid day expression whose
// trailing time phrase could not be read ("mañana a las veinte").
type Parsed struct {
	Day     time.Time
	HasTime bool
	TimeErr bool
}

// Clock is a bare wall-clock time without a day.
type Clock struct {
	Hour   int
	Minute int
}

var weekdays = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"miércoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
	"sábado":    time.Saturday,
}

var (
	reRelative = regexp.MustCompile(`^(hoy|ma[ñn]ana|pasado ma[ñn]ana)(?:\s+(.+))?$`)
	reNextDow  = regexp.MustCompile(`^(?:siguiente|prox|pr[oó]ximo)\s+(domingo|lunes|martes|mi[eé]rcoles|jueves|viernes|s[áa]bado)(?:\s+(.+))?$`)
	reBareDow  = regexp.MustCompile(`^(domingo|lunes|martes|mi[eé]rcoles|jueves|viernes|s[áa]bado)(?:\s+(.+))?$`)
	reStrict   = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})\s+(\d{1,2}):(\d{2})$`)
	reBareDate = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{4})$`)
	reClock    = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*(am|pm)?$`)
)

// Parse interprets text against loc with ref as "now". Recognized forms,
// in priority order: relative day words, "próximo <día>", bare weekday
// (next strict occurrence after ref), strict dd/mm/yyyy hh:mm, bare
// dd/mm/yyyy. A bare time phrase is NOT handled here; callers that hold a
// base day use ParseClock for that case.
func Parse(text string, loc *time.Location, ref time.Time) (Parsed, error) {
	txt := strings.ToLower(strings.TrimSpace(text))
	now := ref.In(loc)

	if m := reRelative.FindStringSubmatch(txt); m != nil {
		base := startOfDay(now)
		switch {
		case strings.HasPrefix(m[1], "pasado"):
			base = base.AddDate(0, 0, 2)
		case m[1] != "hoy":
			base = base.AddDate(0, 0, 1)
		}
		return withOptionalClock(base, m[2])
	}

	if m := reNextDow.FindStringSubmatch(txt); m != nil {
		base := NextWeekday(now, weekdays[m[1]])
		return withOptionalClock(base, m[2])
	}

	if m := reBareDow.FindStringSubmatch(txt); m != nil {
		base := NextWeekday(now, weekdays[m[1]])
		return withOptionalClock(base, m[2])
	}

	if m := reStrict.FindStringSubmatch(txt); m != nil {
		dt, ok := buildDate(m[1], m[2], m[3], m[4], m[5], loc)
		if !ok {
			return Parsed{}, ErrUnrecognized
		}
		return Parsed{Day: dt, HasTime: true}, nil
	}

	if m := reBareDate.FindStringSubmatch(txt); m != nil {
		dt, ok := buildDate(m[1], m[2], m[3], "0", "0", loc)
		if !ok {
			return Parsed{}, ErrUnrecognized
		}
		return Parsed{Day: dt}, nil
	}

	return Parsed{}, ErrUnrecognized
}

// ParseClock reads a bare time phrase: "4 pm", "16:00", "4:30", "a las 4".
// Without an am/pm marker an hour from 1 to 7 is taken as afternoon
// (+12h). That heuristic matches how clients of these businesses write
// times; it is deliberate, documented behavior, not general NLP.
func ParseClock(text string) (Clock, bool) {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.TrimPrefix(t, "a las ")
	m := reClock.FindStringSubmatch(t)
	if m == nil {
		return Clock{}, false
	}
	hour, _ := strconv.Atoi(m[1])
	min := 0
	if m[2] != "" {
		min, _ = strconv.Atoi(m[2])
	}
	switch m[3] {
	case "pm":
		if hour < 12 {
			hour += 12
		}
	case "am":
		if hour == 12 {
			hour = 0
		}
	default:
		if hour >= 1 && hour <= 7 {
			hour += 12
		}
	}
	if hour < 0 || hour > 23 || min < 0 || min > 59 {
		return Clock{}, false
	}
	return Clock{Hour: hour, Minute: min}, true
}

// NextWeekday returns midnight of the next occurrence of wd strictly
// after base's day, wrapping a full week when base already falls on wd.
func NextWeekday(base time.Time, wd time.Weekday) time.Time {
	delta := (int(wd) - int(base.Weekday()) + 7) % 7
	if delta == 0 {
		delta = 7
	}
	return startOfDay(base).AddDate(0, 0, delta)
}

// At places a clock time on a day, in the day's location.
func At(day time.Time, c Clock) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), c.Hour, c.Minute, 0, 0, day.Location())
}

// Format renders an instant in the strict dd/mm/yyyy hh:mm grammar, so
// formatted output round-trips through Parse.
func Format(t time.Time) string {
	return t.Format("02/01/2006 15:04")
}

// FormatDay renders only the date portion.
func FormatDay(t time.Time) string {
	return t.Format("02/01/2006")
}

// FormatClock renders only the wall-clock portion.
func FormatClock(t time.Time) string {
	return t.Format("15:04")
}

func withOptionalClock(base time.Time, rest string) (Parsed, error) {
	if rest == "" {
		return Parsed{Day: base}, nil
	}
	c, ok := ParseClock(rest)
	if !ok {
		return Parsed{Day: base, TimeErr: true}, nil
	}
	return Parsed{Day: At(base, c), HasTime: true}, nil
}

func buildDate(dd, mm, yyyy, hh, mi string, loc *time.Location) (time.Time, bool) {
	day, _ := strconv.Atoi(dd)
	month, _ := strconv.Atoi(mm)
	year, _ := strconv.Atoi(yyyy)
	hour, _ := strconv.Atoi(hh)
	min, _ := strconv.Atoi(mi)
	if month < 1 || month > 12 || day < 1 || hour > 23 || min > 59 {
		return time.Time{}, false
	}
	dt := time.Date(year, time.Month(month), day, hour, min, 0, 0, loc)
	// time.Date normalizes overflow (32/01 -> 01/02); reject that.
	if dt.Day() != day || dt.Month() != time.Month(month) || dt.Year() != year {
		return time.Time{}, false
	}
	return dt, true
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
