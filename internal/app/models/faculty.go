package models

// Faculty represents a teaching staff member.
type Faculty struct {
	ID   string
	Name string
	// MaxHoursPerWeek caps the number of weekly sessions the faculty member
	// may teach. Nil means unbounded.
	MaxHoursPerWeek *int
}
