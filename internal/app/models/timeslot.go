package models

import "fmt"

// Slot is one schedulable one-hour window, identified by weekday and start
// hour. The catalog of slots is fixed, ordered, and identical across all
// scheduling runs.
type Slot struct {
	Day  string
	Hour int
}

// slotHours are the teaching hours of a day. 13:00 is the midday break.
var slotHours = []int{9, 10, 11, 12, 14, 15, 16}

// slotDays are the weekdays of the scheduling week, in order.
var slotDays = []string{"Mon", "Tue", "Wed", "Thu", "Fri"}

// Catalog returns the full ordered timeslot catalog (5 weekdays x 7 hours).
// The returned slice is a fresh copy; the catalog itself never changes.
func Catalog() []Slot {
	slots := make([]Slot, 0, len(slotDays)*len(slotHours))
	for _, day := range slotDays {
		for _, hour := range slotHours {
			slots = append(slots, Slot{Day: day, Hour: hour})
		}
	}
	return slots
}

// DayIndex returns the position of a weekday within the scheduling week, or -1
// for an unknown day.
func DayIndex(day string) int {
	for i, d := range slotDays {
		if d == day {
			return i
		}
	}
	return -1
}

// Start returns the slot's start time formatted as HH:MM.
func (s Slot) Start() string {
	return fmt.Sprintf("%02d:00", s.Hour)
}

// End returns the slot's end time, one hour after the start. This is the
// single authoritative end-time computation; nothing else in the codebase may
// derive end times on its own.
func (s Slot) End() string {
	return fmt.Sprintf("%02d:00", s.Hour+1)
}

// String returns the canonical "Day-HH:MM" form used in variable names.
func (s Slot) String() string {
	return s.Day + "-" + s.Start()
}
