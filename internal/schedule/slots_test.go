package schedule

import (
	"testing"
	"time"

	"github.com/citaflow/citabot-backend/internal/config"
)

func testHours() config.Hours {
	return config.Hours{Open: "09:00", Close: "18:00", Zone: "America/Guatemala", SlotMinutes: 60}
}

func TestSlotsForDayCountAndDeterminism(t *testing.T) {
	hours := testHours()
	day := time.Date(2026, 8, 14, 0, 0, 0, 0, hours.Location())

	first := SlotsForDay(hours, day)
	second := SlotsForDay(hours, day)

	// floor((18:00-09:00)/60m) = 9
	if len(first) != 9 {
		t.Fatalf("slot count = %d, want 9", len(first))
	}
	if len(first) != len(second) {
		t.Fatalf("non-deterministic count: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if !first[i].Equal(second[i]) {
			t.Errorf("slot %d differs between calls: %v vs %v", i, first[i], second[i])
		}
	}
	if got := first[0].Format("15:04"); got != "09:00" {
		t.Errorf("first slot = %s, want 09:00", got)
	}
	if got := first[len(first)-1].Format("15:04"); got != "17:00" {
		t.Errorf("last slot = %s, want 17:00", got)
	}
}

func TestSlotsForDayExcludesSlotPastClosing(t *testing.T) {
	hours := testHours()
	hours.SlotMinutes = 50
	day := time.Date(2026, 8, 14, 0, 0, 0, 0, hours.Location())

	slots := SlotsForDay(hours, day)

	// floor(540/50) = 10; an 11th slot would end 18:10.
	if len(slots) != 10 {
		t.Fatalf("slot count = %d, want 10", len(slots))
	}
	last := slots[len(slots)-1].Add(hours.Duration())
	if last.After(hours.CloseAt(day)) {
		t.Errorf("last slot ends %v, past closing %v", last, hours.CloseAt(day))
	}
}

func TestWithinHours(t *testing.T) {
	hours := testHours()
	loc := hours.Location()

	tests := []struct {
		name  string
		start time.Time
		want  bool
	}{
		{"opening slot", time.Date(2026, 8, 14, 9, 0, 0, 0, loc), true},
		{"last full slot", time.Date(2026, 8, 14, 17, 0, 0, 0, loc), true},
		{"before opening", time.Date(2026, 8, 14, 8, 30, 0, 0, loc), false},
		{"would run past closing", time.Date(2026, 8, 14, 17, 30, 0, 0, loc), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WithinHours(hours, tt.start); got != tt.want {
				t.Errorf("WithinHours(%v) = %v, want %v", tt.start, got, tt.want)
			}
		})
	}
}
