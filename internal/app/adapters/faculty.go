package adapters

import (
	"github.com/planora/scheduler/internal/app/models"
)

// adaptFaculty maps a raw faculty document onto the canonical Faculty. The
// weekly hour cap is optional; faculty without one are unconstrained.
func adaptFaculty(doc map[string]interface{}) (models.Faculty, error) {
	id, ok := stringField(doc, "facultyId", "faculty_id")
	if !ok {
		return models.Faculty{}, malformed("missing faculty identifier")
	}

	name, _ := stringField(doc, "name", "facultyName")

	faculty := models.Faculty{ID: id, Name: name}
	if maxHours, ok := intField(doc, "maxHoursPerWeek", "max_hours_per_week"); ok {
		if maxHours < 0 {
			return models.Faculty{}, malformed("faculty %s: negative weekly hour cap %d", id, maxHours)
		}
		faculty.MaxHoursPerWeek = &maxHours
	}

	return faculty, nil
}
