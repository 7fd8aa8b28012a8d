package adapters

import (
	"errors"
	"strings"
	"testing"

	"github.com/planora/scheduler/internal/app/models"
	"github.com/planora/scheduler/internal/pkg/apperrors"
)

func validRaw() Raw {
	return Raw{
		Courses: []map[string]interface{}{
			{"courseId": "C1", "courseName": "Algorithms", "type": "lecture", "weeklyLectures": 2, "faculty": "F1"},
		},
		Students: []map[string]interface{}{
			{"studentId": "S1", "courses": []interface{}{"C1"}},
		},
		Faculty: []map[string]interface{}{
			{"facultyId": "F1", "name": "Dr. Patel", "maxHoursPerWeek": 6},
		},
		Rooms: []map[string]interface{}{
			{"roomId": "R1", "roomType": "lecture", "capacity": 30, "isAvailable": true},
		},
	}
}

func TestNormalizeCamelCase(t *testing.T) {
	ds, warnings, err := Normalize(validRaw())
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	if len(ds.Courses) != 1 || ds.Courses[0].ID != "C1" || ds.Courses[0].WeeklySessions != 2 || ds.Courses[0].FacultyID != "F1" {
		t.Errorf("unexpected courses: %+v", ds.Courses)
	}
	if len(ds.Students) != 1 || len(ds.Students[0].Courses) != 1 {
		t.Errorf("unexpected students: %+v", ds.Students)
	}
	if len(ds.Faculty) != 1 || ds.Faculty[0].MaxHoursPerWeek == nil || *ds.Faculty[0].MaxHoursPerWeek != 6 {
		t.Errorf("unexpected faculty: %+v", ds.Faculty)
	}
	if len(ds.Rooms) != 1 || ds.Rooms[0].Capacity != 30 {
		t.Errorf("unexpected rooms: %+v", ds.Rooms)
	}
}

func TestNormalizeSnakeCase(t *testing.T) {
	raw := Raw{
		Courses: []map[string]interface{}{
			{"course_id": "C2", "name": "Databases", "courseType": "lecture", "weekly_lectures": 1, "facultyId": "F2"},
		},
		Students: []map[string]interface{}{
			{"student_id": "S2", "courses": []interface{}{"C2"}},
		},
		Faculty: []map[string]interface{}{
			{"faculty_id": "F2", "facultyName": "Dr. Osei", "max_hours_per_week": 4},
		},
		Rooms: []map[string]interface{}{
			{"room_id": "R2", "type": "lab", "capacity": 12, "is_available": true},
		},
	}

	ds, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ds.Courses[0].ID != "C2" || ds.Courses[0].Name != "Databases" || ds.Courses[0].FacultyID != "F2" {
		t.Errorf("unexpected course: %+v", ds.Courses[0])
	}
	if ds.Faculty[0].Name != "Dr. Osei" || *ds.Faculty[0].MaxHoursPerWeek != 4 {
		t.Errorf("unexpected faculty: %+v", ds.Faculty[0])
	}
	if ds.Rooms[0].Kind != models.KindLab {
		t.Errorf("room kind = %q, want lab", ds.Rooms[0].Kind)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	raw := validRaw()
	raw.Courses = []map[string]interface{}{{"courseId": "C1"}}
	raw.Rooms = []map[string]interface{}{{"roomId": "R1"}}

	ds, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	course := ds.Courses[0]
	if course.Kind != models.KindLecture || course.WeeklySessions != 1 {
		t.Errorf("course defaults: %+v", course)
	}
	room := ds.Rooms[0]
	if room.Kind != models.KindLecture || room.Capacity != defaultRoomCapacity || !room.Available {
		t.Errorf("room defaults: %+v", room)
	}
}

func TestNormalizeEmptyCollections(t *testing.T) {
	raw := validRaw()
	raw.Students = nil
	raw.Rooms = nil

	_, _, err := Normalize(raw)
	if err == nil {
		t.Fatal("Normalize succeeded with empty collections")
	}
	if !errors.Is(err, apperrors.ErrEmptyCollection) {
		t.Fatalf("error = %v, want ErrEmptyCollection", err)
	}
	msg := err.Error()
	if !strings.Contains(msg, "students") || !strings.Contains(msg, "rooms") {
		t.Errorf("error %q does not name both empty collections", msg)
	}
	if strings.Contains(msg, "courses") || strings.Contains(msg, "faculty") {
		t.Errorf("error %q names populated collections", msg)
	}
}

func TestNormalizeSkipsMalformedRecords(t *testing.T) {
	raw := validRaw()
	raw.Courses = append(raw.Courses,
		map[string]interface{}{"courseName": "no id"},
		map[string]interface{}{"courseId": "C9", "type": "seminar"},
	)
	raw.Rooms = append(raw.Rooms,
		map[string]interface{}{"roomId": "R9", "capacity": -5},
	)

	ds, warnings, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(ds.Courses) != 1 || len(ds.Rooms) != 1 {
		t.Fatalf("malformed records not skipped: %d courses, %d rooms", len(ds.Courses), len(ds.Rooms))
	}
	if len(warnings) != 3 {
		t.Errorf("warnings = %v, want 3 skip warnings", warnings)
	}
}

func TestAdaptersClassifyMalformedRecords(t *testing.T) {
	cases := map[string]error{}

	_, err := adaptCourse(map[string]interface{}{"courseName": "no id"})
	cases["course without id"] = err
	_, err = adaptCourse(map[string]interface{}{"courseId": "C9", "type": "seminar"})
	cases["course with unknown kind"] = err
	_, _, err = adaptStudent(map[string]interface{}{"name": "no id"})
	cases["student without id"] = err
	_, err = adaptFaculty(map[string]interface{}{"facultyId": "F9", "maxHoursPerWeek": -1})
	cases["faculty with negative cap"] = err
	_, err = adaptRoom(map[string]interface{}{"roomId": "R9", "capacity": -5})
	cases["room with negative capacity"] = err

	for name, err := range cases {
		if err == nil {
			t.Errorf("%s: adapter accepted the record", name)
			continue
		}
		if !errors.Is(err, apperrors.ErrMalformedRecord) {
			t.Errorf("%s: error = %v, want ErrMalformedRecord", name, err)
		}
	}
}

func TestNormalizeSkipsNonScalarEnrollments(t *testing.T) {
	raw := validRaw()
	raw.Students = []map[string]interface{}{
		{"studentId": "S1", "courses": []interface{}{"C1", []interface{}{"C2", "C3"}}},
	}

	ds, warnings, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	student := ds.Students[0]
	if len(student.Courses) != 1 || student.Courses[0] != "C1" {
		t.Errorf("enrollments = %v, want [C1]", student.Courses)
	}
	found := false
	for _, w := range warnings {
		if strings.Contains(w, "non-scalar enrollment") {
			found = true
		}
	}
	if !found {
		t.Errorf("warnings = %v, want non-scalar enrollment warning", warnings)
	}
}

func TestNormalizeDeduplicatesEnrollments(t *testing.T) {
	raw := validRaw()
	raw.Students = []map[string]interface{}{
		{"studentId": "S1", "courses": []interface{}{"C1", "C1", "C1"}},
	}

	ds, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(ds.Students[0].Courses) != 1 {
		t.Errorf("enrollments = %v, want deduplicated [C1]", ds.Students[0].Courses)
	}
}

func TestNormalizeExcludesUnavailableRooms(t *testing.T) {
	raw := validRaw()
	raw.Rooms = append(raw.Rooms,
		map[string]interface{}{"roomId": "R9", "roomType": "lecture", "capacity": 100, "isAvailable": false},
	)

	ds, warnings, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(ds.Rooms) != 1 || ds.Rooms[0].ID != "R1" {
		t.Errorf("rooms = %+v, want only R1", ds.Rooms)
	}
	if len(warnings) != 0 {
		t.Errorf("unavailable room produced warnings: %v", warnings)
	}
}

func TestNormalizeDuplicateIDs(t *testing.T) {
	raw := validRaw()
	raw.Courses = append(raw.Courses,
		map[string]interface{}{"courseId": "C1", "courseName": "Algorithms again"},
	)

	ds, warnings, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if len(ds.Courses) != 1 {
		t.Fatalf("duplicate course not ignored: %+v", ds.Courses)
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "duplicate course C1") {
		t.Errorf("warnings = %v, want duplicate warning", warnings)
	}
}

func TestNormalizeNumericIdentifiers(t *testing.T) {
	raw := validRaw()
	raw.Students = []map[string]interface{}{
		{"studentId": float64(42), "courses": []interface{}{float64(101)}},
	}

	ds, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	student := ds.Students[0]
	if student.ID != "42" {
		t.Errorf("student ID = %q, want 42", student.ID)
	}
	if len(student.Courses) != 1 || student.Courses[0] != "101" {
		t.Errorf("courses = %v, want [101]", student.Courses)
	}
}

func TestNormalizeSortsByID(t *testing.T) {
	raw := validRaw()
	raw.Courses = []map[string]interface{}{
		{"courseId": "C2"},
		{"courseId": "C1"},
	}

	ds, _, err := Normalize(raw)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if ds.Courses[0].ID != "C1" || ds.Courses[1].ID != "C2" {
		t.Errorf("courses not sorted: %+v", ds.Courses)
	}
}
