package availability

import (
	"testing"
	"time"
)

func TestDaySlots_Weekday(t *testing.T) {
	// 2026-03-16 is a Monday.
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)

	slots := DaySlots(day, nil)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if !slots[0].StartsAt.Equal(day.Add(9 * time.Hour)) {
		t.Fatalf("expected first slot 09:00, got %s", slots[0].StartsAt.Format(ClockLayout))
	}
	if !slots[15].StartsAt.Equal(day.Add(16*time.Hour + 30*time.Minute)) {
		t.Fatalf("expected last slot 16:30, got %s", slots[15].StartsAt.Format(ClockLayout))
	}
	for i := 1; i < len(slots); i++ {
		if slots[i].StartsAt.Sub(slots[i-1].StartsAt) != 30*time.Minute {
			t.Fatalf("slots %d and %d are not 30 minutes apart", i-1, i)
		}
	}
	for i, s := range slots {
		if !s.Available {
			t.Fatalf("slot %d should be available with no bookings", i)
		}
	}
}

func TestDaySlots_Weekend(t *testing.T) {
	// 2026-03-14 is a Saturday, 2026-03-15 a Sunday.
	for _, d := range []int{14, 15} {
		day := time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
		if slots := DaySlots(day, nil); len(slots) != 0 {
			t.Fatalf("expected no slots on 2026-03-%02d, got %d", d, len(slots))
		}
	}
}

func TestDaySlots_MarksBooked(t *testing.T) {
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	booked := []time.Time{
		day.Add(9 * time.Hour),
		day.Add(14*time.Hour + 30*time.Minute),
	}

	slots := DaySlots(day, booked)
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	available := 0
	for _, s := range slots {
		if s.Available {
			available++
			continue
		}
		clock := s.StartsAt.Format(ClockLayout)
		if clock != "09:00" && clock != "14:30" {
			t.Fatalf("unexpected unavailable slot %s", clock)
		}
	}
	if available != 14 {
		t.Fatalf("expected 14 available slots, got %d", available)
	}
}

func TestDaySlots_RespectsLocation(t *testing.T) {
	loc := time.FixedZone("clinic", -5*3600)
	day := time.Date(2026, 3, 16, 0, 0, 0, 0, loc)

	slots := DaySlots(day, []time.Time{day.Add(9 * time.Hour)})
	if len(slots) != 16 {
		t.Fatalf("expected 16 slots, got %d", len(slots))
	}
	if slots[0].Available {
		t.Fatal("09:00 should be booked")
	}
	if got := slots[0].StartsAt.Format(TimestampLayout); got != "2026-03-16T09:00:00" {
		t.Fatalf("unexpected wall-clock timestamp %s", got)
	}
}
