// Package adapters maps raw collection documents onto the canonical domain
// model. Two historical schema versions coexist in the data: the original
// snake_case fields (course_id, student_id, max_hours_per_week) and the later
// camelCase fields (courseId, studentId, maxHoursPerWeek). Every adapter
// accepts both spellings; resolution order is camelCase first, since that is
// what the current writers produce.
package adapters

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/planora/scheduler/internal/app/models"
	"github.com/planora/scheduler/internal/pkg/apperrors"
)

// Raw holds the unprocessed documents of the four source collections.
type Raw struct {
	Courses  []map[string]interface{}
	Students []map[string]interface{}
	Faculty  []map[string]interface{}
	Rooms    []map[string]interface{}
}

// Normalize converts raw documents into a canonical Dataset. Malformed
// documents are skipped with a warning rather than aborting the cycle. It
// fails only when one or more required collections are empty, naming each
// empty collection so the caller can short-circuit before a solve is
// attempted.
func Normalize(raw Raw) (*models.Dataset, []string, error) {
	if err := checkEmpty(raw); err != nil {
		return nil, nil, err
	}

	var warnings []string
	ds := &models.Dataset{}

	seen := map[string]bool{}
	for _, doc := range raw.Courses {
		course, err := adaptCourse(doc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped course record: %v", err))
			continue
		}
		if seen["c:"+course.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate course %s ignored", course.ID))
			continue
		}
		seen["c:"+course.ID] = true
		ds.Courses = append(ds.Courses, course)
	}

	for _, doc := range raw.Students {
		student, studentWarnings, err := adaptStudent(doc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped student record: %v", err))
			continue
		}
		warnings = append(warnings, studentWarnings...)
		if seen["s:"+student.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate student %s ignored", student.ID))
			continue
		}
		seen["s:"+student.ID] = true
		ds.Students = append(ds.Students, student)
	}

	for _, doc := range raw.Faculty {
		faculty, err := adaptFaculty(doc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped faculty record: %v", err))
			continue
		}
		if seen["f:"+faculty.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate faculty %s ignored", faculty.ID))
			continue
		}
		seen["f:"+faculty.ID] = true
		ds.Faculty = append(ds.Faculty, faculty)
	}

	for _, doc := range raw.Rooms {
		room, err := adaptRoom(doc)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("skipped room record: %v", err))
			continue
		}
		if !room.Available {
			// Unavailable rooms never reach the model builder
			continue
		}
		if seen["r:"+room.ID] {
			warnings = append(warnings, fmt.Sprintf("duplicate room %s ignored", room.ID))
			continue
		}
		seen["r:"+room.ID] = true
		ds.Rooms = append(ds.Rooms, room)
	}

	sort.Slice(ds.Courses, func(i, j int) bool { return ds.Courses[i].ID < ds.Courses[j].ID })
	sort.Slice(ds.Students, func(i, j int) bool { return ds.Students[i].ID < ds.Students[j].ID })
	sort.Slice(ds.Faculty, func(i, j int) bool { return ds.Faculty[i].ID < ds.Faculty[j].ID })
	sort.Slice(ds.Rooms, func(i, j int) bool { return ds.Rooms[i].ID < ds.Rooms[j].ID })

	return ds, warnings, nil
}

// checkEmpty reports every empty source collection in one error.
func checkEmpty(raw Raw) error {
	type kindCount struct {
		kind  string
		count int
	}
	counts := []kindCount{
		{"courses", len(raw.Courses)},
		{"students", len(raw.Students)},
		{"faculty", len(raw.Faculty)},
		{"rooms", len(raw.Rooms)},
	}

	var empty []string
	for _, kc := range counts {
		if kc.count == 0 {
			empty = append(empty, kc.kind)
		}
	}
	if len(empty) == 0 {
		return nil
	}

	msg := "cannot schedule, empty collections:"
	for i, kind := range empty {
		if i > 0 {
			msg += ","
		}
		msg += " " + kind
	}
	return apperrors.NewEmptyCollectionError(msg)
}

// malformed builds a record-level error classifiable with
// errors.Is(err, apperrors.ErrMalformedRecord).
func malformed(format string, args ...interface{}) error {
	return apperrors.NewCustomError(apperrors.ErrMalformedRecord, fmt.Sprintf(format, args...))
}

// stringField resolves the first present key to a string. Numeric values are
// formatted, since identifiers occasionally arrive as JSON numbers.
func stringField(doc map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		value, ok := doc[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if v != "" {
				return v, true
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64), true
		case int:
			return strconv.Itoa(v), true
		case int64:
			return strconv.FormatInt(v, 10), true
		}
	}
	return "", false
}

// intField resolves the first present key to an int.
func intField(doc map[string]interface{}, keys ...string) (int, bool) {
	for _, key := range keys {
		value, ok := doc[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case float64:
			return int(v), true
		case int:
			return v, true
		case int64:
			return int(v), true
		}
	}
	return 0, false
}

// boolField resolves the first present key to a bool.
func boolField(doc map[string]interface{}, keys ...string) (bool, bool) {
	for _, key := range keys {
		if value, ok := doc[key].(bool); ok {
			return value, true
		}
	}
	return false, false
}
