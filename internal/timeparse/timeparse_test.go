package timeparse

import (
	"testing"
	"time"
)

func mustZone(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Guatemala")
	if err != nil {
		t.Fatalf("load zone: %v", err)
	}
	return loc
}

func TestParseNaturalDates(t *testing.T) {
	loc := mustZone(t)
	// Wednesday 12/08/2026, 10:30 local
	ref := time.Date(2026, 8, 12, 10, 30, 0, 0, loc)

	tests := []struct {
		name     string
		text     string
		wantDay  string // dd/mm/yyyy
		wantTime string // hh:mm, "" when day-only
		timeErr  bool
		wantErr  bool
	}{
		{name: "hoy", text: "hoy", wantDay: "12/08/2026"},
		{name: "manana con hora pm implicita", text: "mañana 4 pm", wantDay: "13/08/2026", wantTime: "16:00"},
		{name: "manana sin acento", text: "manana", wantDay: "13/08/2026"},
		{name: "pasado manana", text: "pasado mañana", wantDay: "14/08/2026"},
		{name: "hoy con hora rota", text: "hoy a las veinte", wantDay: "12/08/2026", timeErr: true},
		{name: "proximo sabado", text: "próximo sábado", wantDay: "15/08/2026"},
		{name: "siguiente lunes con hora", text: "siguiente lunes 10 am", wantDay: "17/08/2026", wantTime: "10:00"},
		{name: "viernes pelado", text: "viernes", wantDay: "14/08/2026"},
		{name: "miercoles salta una semana", text: "miércoles", wantDay: "19/08/2026"},
		{name: "estricto", text: "15/08/2026 14:30", wantDay: "15/08/2026", wantTime: "14:30"},
		{name: "fecha sin hora", text: "20/08/2026", wantDay: "20/08/2026"},
		{name: "fecha imposible", text: "32/08/2026", wantErr: true},
		{name: "mes imposible", text: "10/13/2026 10:00", wantErr: true},
		{name: "solo hora no es fecha", text: "4 pm", wantErr: true},
		{name: "basura", text: "quiero una cita ya", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.text, loc, ref)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if day := FormatDay(got.Day); day != tt.wantDay {
				t.Errorf("day = %s, want %s", day, tt.wantDay)
			}
			if got.TimeErr != tt.timeErr {
				t.Errorf("TimeErr = %v, want %v", got.TimeErr, tt.timeErr)
			}
			if tt.wantTime == "" {
				if got.HasTime {
					t.Errorf("HasTime = true, want day-only (got %s)", FormatClock(got.Day))
				}
				return
			}
			if !got.HasTime {
				t.Fatal("HasTime = false, want a precise time")
			}
			if clock := FormatClock(got.Day); clock != tt.wantTime {
				t.Errorf("clock = %s, want %s", clock, tt.wantTime)
			}
		})
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		text     string
		wantHour int
		wantMin  int
		ok       bool
	}{
		{"4 pm", 16, 0, true},
		{"16:00", 16, 0, true},
		{"4:30", 16, 30, true}, // 1-7 without marker means afternoon
		{"7", 19, 0, true},
		{"8", 8, 0, true}, // 8+ stays as written
		{"12 am", 0, 0, true},
		{"12 pm", 12, 0, true},
		{"a las 4", 16, 0, true},
		{"25:00", 0, 0, false},
		{"16:75", 0, 0, false},
		{"mediodia", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := ParseClock(tt.text)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if got.Hour != tt.wantHour || got.Minute != tt.wantMin {
				t.Errorf("got %d:%02d, want %d:%02d", got.Hour, got.Minute, tt.wantHour, tt.wantMin)
			}
		})
	}
}

func TestStrictRoundTrip(t *testing.T) {
	loc := mustZone(t)
	ref := time.Date(2026, 8, 12, 10, 0, 0, 0, loc)
	orig := time.Date(2026, 9, 3, 14, 30, 0, 0, loc)

	parsed, err := Parse(Format(orig), loc, ref)
	if err != nil {
		t.Fatalf("re-parse formatted instant: %v", err)
	}
	if !parsed.HasTime || !parsed.Day.Equal(orig) {
		t.Errorf("round trip lost the instant: got %v, want %v", parsed.Day, orig)
	}
}

func TestNextWeekdayWrapsFullWeek(t *testing.T) {
	loc := mustZone(t)
	wednesday := time.Date(2026, 8, 12, 9, 0, 0, 0, loc)

	next := NextWeekday(wednesday, time.Wednesday)
	if want := time.Date(2026, 8, 19, 0, 0, 0, 0, loc); !next.Equal(want) {
		t.Errorf("same-day weekday should jump a week: got %v, want %v", next, want)
	}
}
