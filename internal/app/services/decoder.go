package services

import (
	"sort"

	"github.com/planora/scheduler/internal/app/models"
	"github.com/planora/scheduler/internal/cpsat"
)

// decodeSessions converts a satisfying assignment into concrete sessions:
// exactly one per session variable the solver set true, no more, no fewer.
// Output order is fully determined by the assignment, so decoding the same
// result twice yields identical output.
func decodeSessions(bm *builtModel, ds *models.Dataset, result *cpsat.Result) []models.Session {
	sessions := make([]models.Session, 0, len(bm.sessionKeys))

	for _, key := range bm.sessionKeys {
		if !result.Value(bm.sessions[key]) {
			continue
		}

		slot := bm.catalog[key.slot]
		facultyID := ""
		if course, ok := ds.CourseByID(key.course); ok {
			facultyID = course.FacultyID
		}

		var studentIDs []string
		for _, aKey := range bm.attendBySession[key] {
			if result.Value(bm.attendance[aKey]) {
				studentIDs = append(studentIDs, aKey.student)
			}
		}
		sort.Strings(studentIDs)

		sessions = append(sessions, models.Session{
			RoomID:     key.room,
			Day:        slot.Day,
			StartTime:  slot.Start(),
			EndTime:    slot.End(),
			CourseID:   key.course,
			FacultyID:  facultyID,
			StudentIDs: studentIDs,
		})
	}

	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		if d := models.DayIndex(a.Day) - models.DayIndex(b.Day); d != 0 {
			return d < 0
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.CourseID < b.CourseID
	})

	return sessions
}
