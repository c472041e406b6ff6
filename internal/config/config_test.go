package config

import (
	"testing"
	"time"
)

func TestServicesFromPriceSheet(t *testing.T) {
	sheet := "Lista de precios:\n" +
		"1. Corte de cabello - Q100\n" +
		"2. Uñas acrílicas - Q150\n" +
		"3. Tinte: Q250\n" +
		"- Pestañas clásicas – Q200\n" +
		"2. Uñas acrílicas - Q150\n" +
		"Escribe el número del servicio que deseas."

	got := ServicesFromPriceSheet(sheet)
	want := []string{"Corte de cabello", "Uñas acrílicas", "Tinte", "Pestañas clásicas"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestServicesFromPriceSheetEmpty(t *testing.T) {
	if got := ServicesFromPriceSheet(""); got != nil {
		t.Fatalf("empty sheet must yield nil, got %v", got)
	}
}

func TestSessionThresholdFloors(t *testing.T) {
	cases := []struct {
		name         string
		cfg          SessionConfig
		wantReminder time.Duration
		wantClose    time.Duration
	}{
		{"defaults", SessionConfig{ReminderMin: 5, CloseMin: 15}, 5 * time.Minute, 15 * time.Minute},
		{"close below reminder is lifted", SessionConfig{ReminderMin: 10, CloseMin: 5}, 10 * time.Minute, 11 * time.Minute},
		{"zero values get floors", SessionConfig{}, 1 * time.Minute, 2 * time.Minute},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.cfg.ReminderAfter(); got != tc.wantReminder {
				t.Errorf("ReminderAfter = %v, want %v", got, tc.wantReminder)
			}
			if got := tc.cfg.CloseAfter(); got != tc.wantClose {
				t.Errorf("CloseAfter = %v, want %v", got, tc.wantClose)
			}
		})
	}
}

func TestGetFallsBackToDefault(t *testing.T) {
	if Get("nope").ID != "default" {
		t.Fatal("unknown business must fall back to default")
	}
	if Get("").ID != "default" {
		t.Fatal("empty business must fall back to default")
	}
}

func TestHoursHelpers(t *testing.T) {
	h := Hours{Open: "09:00", Close: "18:00", Zone: "America/Guatemala", SlotMinutes: 60}
	day := time.Date(2026, 8, 14, 12, 0, 0, 0, h.Location())

	if got := h.OpenAt(day); got.Hour() != 9 || got.Minute() != 0 {
		t.Errorf("OpenAt = %v", got)
	}
	if got := h.CloseAt(day); got.Hour() != 18 {
		t.Errorf("CloseAt = %v", got)
	}
	if got := h.Duration(); got != time.Hour {
		t.Errorf("Duration = %v", got)
	}
	if got := (Hours{}).Duration(); got != time.Hour {
		t.Errorf("zero SlotMinutes must default to one hour, got %v", got)
	}
}
