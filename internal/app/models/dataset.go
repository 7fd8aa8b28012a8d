package models

// Dataset is the canonical domain model for one scheduling cycle. Slices are
// sorted by ID so that model construction is deterministic across runs.
type Dataset struct {
	Courses  []Course
	Students []Student
	Faculty  []Faculty
	Rooms    []Room
}

// CourseByID returns the course with the given ID, if present.
func (d *Dataset) CourseByID(id string) (Course, bool) {
	for _, c := range d.Courses {
		if c.ID == id {
			return c, true
		}
	}
	return Course{}, false
}

// FacultyByID returns the faculty member with the given ID, if present.
func (d *Dataset) FacultyByID(id string) (Faculty, bool) {
	for _, f := range d.Faculty {
		if f.ID == id {
			return f, true
		}
	}
	return Faculty{}, false
}
