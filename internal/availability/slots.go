package availability

import "time"

// Wire formats for dates and appointment instants. Timestamps carry no zone
// suffix: they are wall-clock times in the clinic's configured location.
const (
	DateLayout      = "2006-01-02"
	TimestampLayout = "2006-01-02T15:04:05"
	ClockLayout     = "15:04"
)

const (
	slotStep       = 30 * time.Minute
	openingHour    = 9 // first slot starts 09:00
	lastSlotHour   = 16
	lastSlotMinute = 30 // last slot starts 16:30
)

// Slot is one bookable half-hour instant on the grid.
type Slot struct {
	StartsAt  time.Time
	Available bool
}

// DaySlots returns the ordered candidate slots for the given day, each a
// multiple of 30 minutes from 09:00 through 16:30 inclusive, annotated
// available unless an existing booking occupies that exact instant. Weekends
// yield no slots. day must be midnight of the target date in the clinic's
// location; callers are responsible for rejecting malformed date input.
func DaySlots(day time.Time, booked []time.Time) []Slot {
	if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return nil
	}

	taken := make(map[int64]struct{}, len(booked))
	for _, b := range booked {
		taken[b.Unix()] = struct{}{}
	}

	// Slots are built from wall-clock components so a DST transition earlier
	// in the day cannot shift the grid.
	step := int(slotStep / time.Minute)
	firstMin := openingHour * 60
	lastMin := lastSlotHour*60 + lastSlotMinute

	var slots []Slot
	for mins := firstMin; mins <= lastMin; mins += step {
		t := time.Date(day.Year(), day.Month(), day.Day(), mins/60, mins%60, 0, 0, day.Location())
		_, isTaken := taken[t.Unix()]
		slots = append(slots, Slot{StartsAt: t, Available: !isTaken})
	}
	return slots
}
