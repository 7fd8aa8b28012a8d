package models

// Course represents a schedulable course in canonical form.
type Course struct {
	ID             string
	Name           string
	Kind           Kind
	WeeklySessions int
	FacultyID      string // empty when no faculty is assigned
}
