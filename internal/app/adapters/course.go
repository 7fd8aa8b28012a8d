package adapters

import (
	"github.com/planora/scheduler/internal/app/models"
)

// adaptCourse maps a raw course document onto the canonical Course.
func adaptCourse(doc map[string]interface{}) (models.Course, error) {
	id, ok := stringField(doc, "courseId", "course_id")
	if !ok {
		return models.Course{}, malformed("missing course identifier")
	}

	rawKind, _ := stringField(doc, "type", "courseType")
	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return models.Course{}, malformed("course %s: %v", id, err)
	}

	// One weekly session is the historical default for records predating the
	// weeklyLectures field.
	weekly, ok := intField(doc, "weeklyLectures", "weekly_lectures")
	if !ok {
		weekly = 1
	}
	if weekly < 0 {
		return models.Course{}, malformed("course %s: negative weekly session count %d", id, weekly)
	}

	name, _ := stringField(doc, "courseName", "name")
	facultyID, _ := stringField(doc, "faculty", "facultyId")

	return models.Course{
		ID:             id,
		Name:           name,
		Kind:           kind,
		WeeklySessions: weekly,
		FacultyID:      facultyID,
	}, nil
}
