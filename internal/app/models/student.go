package models

// Student represents a student and the flat set of course IDs they are
// enrolled in. Order is irrelevant but kept stable for deterministic model
// construction.
type Student struct {
	ID      string
	Courses []string
}
