package services

import (
	"fmt"

	"github.com/planora/scheduler/internal/app/models"
	"github.com/planora/scheduler/internal/cpsat"
)

// sessionKey identifies a candidate (course, timeslot, room) triple. The slot
// is an index into the timeslot catalog.
type sessionKey struct {
	course string
	slot   int
	room   string
}

// attendKey identifies a candidate (student, course, timeslot, room) tuple.
type attendKey struct {
	student string
	course  string
	slot    int
	room    string
}

// builtModel is one scheduling instance: the constraint model plus the
// variable maps needed to decode its solution. It lives for the duration of a
// single solve.
type builtModel struct {
	model   *cpsat.Model
	catalog []models.Slot

	sessionKeys []sessionKey // creation order, for deterministic decoding
	sessions    map[sessionKey]*cpsat.BoolVar
	attendance  map[attendKey]*cpsat.BoolVar

	// attendance vars grouped by their session, for decoding and capacity
	attendBySession map[sessionKey][]attendKey

	warnings []string
}

// buildModel translates the canonical dataset into a constraint model whose
// solutions are valid timetables:
//
//  1. each (student, course) pair attends exactly the course's weekly count
//  2. attendance implies the session exists
//  3. session attendance never exceeds room capacity
//  4. a room hosts at most one course per timeslot
//  5. a student attends at most one session per timeslot
//  6. a faculty member teaches at most one session per timeslot
//  7. a capped faculty member teaches at most their weekly maximum
//
// The objective maximizes total attendance.
func buildModel(ds *models.Dataset) *builtModel {
	bm := &builtModel{
		model:           cpsat.NewModel(),
		catalog:         models.Catalog(),
		sessions:        map[sessionKey]*cpsat.BoolVar{},
		attendance:      map[attendKey]*cpsat.BoolVar{},
		attendBySession: map[sessionKey][]attendKey{},
	}

	// Session variables for room-kind-compatible triples. Unavailable rooms
	// were already dropped during normalization.
	for _, course := range ds.Courses {
		for slotIdx, slot := range bm.catalog {
			for _, room := range ds.Rooms {
				if !models.Compatible(course.Kind, room.Kind) {
					continue
				}
				key := sessionKey{course: course.ID, slot: slotIdx, room: room.ID}
				name := fmt.Sprintf("z_%s_%s_%s", course.ID, slot, room.ID)
				bm.sessions[key] = bm.model.NewBoolVar(name)
				bm.sessionKeys = append(bm.sessionKeys, key)
			}
		}
	}

	// Attendance variables for enrolled pairs wherever the session exists.
	for _, student := range ds.Students {
		for _, courseID := range student.Courses {
			course, ok := ds.CourseByID(courseID)
			if !ok {
				bm.warnings = append(bm.warnings,
					fmt.Sprintf("student %s enrolled in unknown course %s", student.ID, courseID))
				continue
			}
			for slotIdx, slot := range bm.catalog {
				for _, room := range ds.Rooms {
					sKey := sessionKey{course: course.ID, slot: slotIdx, room: room.ID}
					session, ok := bm.sessions[sKey]
					if !ok {
						continue
					}
					aKey := attendKey{student: student.ID, course: course.ID, slot: slotIdx, room: room.ID}
					name := fmt.Sprintf("a_%s_%s_%s_%s", student.ID, course.ID, slot, room.ID)
					attendance := bm.model.NewBoolVar(name)
					bm.attendance[aKey] = attendance
					bm.attendBySession[sKey] = append(bm.attendBySession[sKey], aKey)

					// Constraint 2: attendance implies session
					bm.model.AddImplication(attendance, session)
				}
			}
		}
	}

	// Constraint 1: quota. Added even when no attendance variable exists for
	// the pair, so that an unsatisfiable requirement (say, a lab course with
	// no lab room) makes the model infeasible instead of silently dropping
	// the course.
	for _, student := range ds.Students {
		for _, courseID := range student.Courses {
			course, ok := ds.CourseByID(courseID)
			if !ok {
				continue
			}
			var vars []*cpsat.BoolVar
			for slotIdx := range bm.catalog {
				for _, room := range ds.Rooms {
					key := attendKey{student: student.ID, course: course.ID, slot: slotIdx, room: room.ID}
					if v, ok := bm.attendance[key]; ok {
						vars = append(vars, v)
					}
				}
			}
			bm.model.AddSumEquals(vars, course.WeeklySessions)
		}
	}

	// Constraint 3: capacity, one per session variable. Sessions with no
	// possible attendees get the vacuous form of the same constraint.
	for _, sKey := range bm.sessionKeys {
		roomCapacity := 0
		for _, room := range ds.Rooms {
			if room.ID == sKey.room {
				roomCapacity = room.Capacity
				break
			}
		}
		var attending []*cpsat.BoolVar
		for _, aKey := range bm.attendBySession[sKey] {
			attending = append(attending, bm.attendance[aKey])
		}
		bm.model.AddCapacity(attending, roomCapacity, bm.sessions[sKey])
	}

	// A session only exists when somebody attends it. Without this the solver
	// may pad the timetable with empty sessions at no objective cost.
	for _, sKey := range bm.sessionKeys {
		terms := []cpsat.Term{{Var: bm.sessions[sKey], Coef: 1}}
		for _, aKey := range bm.attendBySession[sKey] {
			terms = append(terms, cpsat.Term{Var: bm.attendance[aKey], Coef: -1})
		}
		bm.model.AddLinearConstraint(terms, cpsat.NoLowerBound, 0)
	}

	// Constraint 4: room exclusivity per (timeslot, room)
	for slotIdx := range bm.catalog {
		for _, room := range ds.Rooms {
			var vars []*cpsat.BoolVar
			for _, course := range ds.Courses {
				key := sessionKey{course: course.ID, slot: slotIdx, room: room.ID}
				if v, ok := bm.sessions[key]; ok {
					vars = append(vars, v)
				}
			}
			if len(vars) > 1 {
				bm.model.AddSumAtMost(vars, 1)
			}
		}
	}

	// Constraint 5: student exclusivity per (student, timeslot)
	for _, student := range ds.Students {
		for slotIdx := range bm.catalog {
			var vars []*cpsat.BoolVar
			for _, courseID := range student.Courses {
				for _, room := range ds.Rooms {
					key := attendKey{student: student.ID, course: courseID, slot: slotIdx, room: room.ID}
					if v, ok := bm.attendance[key]; ok {
						vars = append(vars, v)
					}
				}
			}
			if len(vars) > 1 {
				bm.model.AddSumAtMost(vars, 1)
			}
		}
	}

	// Constraints 6 and 7: faculty exclusivity per timeslot and the optional
	// weekly load cap. Exclusivity applies to any assigned faculty
	// identifier, known or not; the cap only to faculty records declaring one.
	facultyCourses := map[string][]string{}
	var facultyOrder []string
	for _, course := range ds.Courses {
		if course.FacultyID == "" {
			continue
		}
		if _, seen := facultyCourses[course.FacultyID]; !seen {
			facultyOrder = append(facultyOrder, course.FacultyID)
		}
		facultyCourses[course.FacultyID] = append(facultyCourses[course.FacultyID], course.ID)
	}

	for _, facultyID := range facultyOrder {
		courseIDs := facultyCourses[facultyID]

		var all []*cpsat.BoolVar
		for slotIdx := range bm.catalog {
			var perSlot []*cpsat.BoolVar
			for _, courseID := range courseIDs {
				for _, room := range ds.Rooms {
					key := sessionKey{course: courseID, slot: slotIdx, room: room.ID}
					if v, ok := bm.sessions[key]; ok {
						perSlot = append(perSlot, v)
					}
				}
			}
			if len(perSlot) > 1 {
				bm.model.AddSumAtMost(perSlot, 1)
			}
			all = append(all, perSlot...)
		}

		if faculty, ok := ds.FacultyByID(facultyID); ok && faculty.MaxHoursPerWeek != nil && len(all) > 0 {
			bm.model.AddSumAtMost(all, *faculty.MaxHoursPerWeek)
		}
	}

	// Objective: maximize satisfied attendance, in variable creation order
	// for determinism.
	var objective []*cpsat.BoolVar
	for _, student := range ds.Students {
		for _, courseID := range student.Courses {
			for slotIdx := range bm.catalog {
				for _, room := range ds.Rooms {
					key := attendKey{student: student.ID, course: courseID, slot: slotIdx, room: room.ID}
					if v, ok := bm.attendance[key]; ok {
						objective = append(objective, v)
					}
				}
			}
		}
	}
	bm.model.Maximize(objective)

	return bm
}
