package models

import "strings"

// Session is one scheduled occurrence of a course: a room, a timeslot, the
// assigned faculty member, and the students attending.
type Session struct {
	RoomID     string   `json:"roomId"`
	Day        string   `json:"day"`
	StartTime  string   `json:"startTime"`
	EndTime    string   `json:"endTime"`
	CourseID   string   `json:"courseId"`
	FacultyID  string   `json:"facultyId"`
	StudentIDs []string `json:"studentIds"`
}

// Entry is one row of the published timetable document.
type Entry struct {
	Time      string `json:"time"`
	Faculties string `json:"faculties"`
	CourseID  string `json:"courseId"`
}

// Timetable is the published schedule shape: room -> lowercase day -> ordered
// entries.
type Timetable map[string]map[string][]Entry

// Validation carries the diagnostics published alongside every schedule.
type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// NewValidation returns a Validation with non-nil slices so the published
// document always contains both arrays.
func NewValidation() Validation {
	return Validation{Errors: []string{}, Warnings: []string{}}
}

// BuildTimetable formats decoded sessions into the published document shape.
// Session order is preserved, so a deterministically sorted session list
// yields a byte-stable document.
func BuildTimetable(sessions []Session) Timetable {
	timetable := Timetable{}
	for _, s := range sessions {
		day := strings.ToLower(s.Day)
		if timetable[s.RoomID] == nil {
			timetable[s.RoomID] = map[string][]Entry{}
		}
		faculty := s.FacultyID
		if faculty == "" {
			faculty = "Unknown"
		}
		timetable[s.RoomID][day] = append(timetable[s.RoomID][day], Entry{
			Time:      s.StartTime + " - " + s.EndTime,
			Faculties: faculty,
			CourseID:  s.CourseID,
		})
	}
	return timetable
}
