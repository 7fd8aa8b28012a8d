package adapters

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/planora/scheduler/internal/app/models"
)

// adaptStudent maps a raw student document onto the canonical Student. The
// enrollment list must be a flat array of identifiers; non-scalar entries
// (a known data-quality failure is a nested list of lists) are skipped with a
// warning instead of failing the record.
func adaptStudent(doc map[string]interface{}) (models.Student, []string, error) {
	id, ok := stringField(doc, "studentId", "student_id")
	if !ok {
		return models.Student{}, nil, malformed("missing student identifier")
	}

	var warnings []string
	enrolled := map[string]bool{}

	rawCourses, _ := doc["courses"].([]interface{})
	for _, entry := range rawCourses {
		switch v := entry.(type) {
		case string:
			if v != "" {
				enrolled[v] = true
			}
		case float64:
			enrolled[strconv.FormatFloat(v, 'f', -1, 64)] = true
		default:
			warnings = append(warnings, fmt.Sprintf("student %s: non-scalar enrollment entry skipped", id))
		}
	}

	courses := make([]string, 0, len(enrolled))
	for courseID := range enrolled {
		courses = append(courses, courseID)
	}
	sort.Strings(courses)

	return models.Student{ID: id, Courses: courses}, warnings, nil
}
