// Package seed loads a small demo dataset on first start so a fresh install
// produces a timetable without any external writer. Field spellings are
// deliberately mixed between the camelCase and snake_case schema versions, the
// same way real collections look after years of different writers.
package seed

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"
	appRepos "github.com/planora/scheduler/internal/app/repositories"
	"github.com/planora/scheduler/internal/pkg/logger"
)

// CreateDefaultData inserts the demo dataset when every source collection is
// empty. Populated installs are never touched.
func CreateDefaultData(ctx context.Context, dbPool *pgxpool.Pool) error {
	collections := appRepos.NewCollectionRepository(dbPool)

	counts, err := collections.Counts(ctx)
	if err != nil {
		return err
	}
	for collection, count := range counts {
		if count > 0 {
			logger.Debug().Str("collection", collection).Int64("count", count).Msg("Collections already populated, skipping seed")
			return nil
		}
	}

	logger.Info().Msg("Seeding demo collections...")

	docs := map[string][]map[string]interface{}{
		"courses": {
			{"courseId": "CS101", "courseName": "Intro to Programming", "type": "lecture", "weeklyLectures": 2, "faculty": "F1"},
			{"course_id": "CS102", "name": "Data Structures", "courseType": "lecture", "weekly_lectures": 2, "facultyId": "F1"},
			{"courseId": "PH201", "courseName": "Physics Lab", "type": "lab", "weeklyLectures": 1, "faculty": "F2"},
			{"courseId": "MA110", "courseName": "Calculus", "type": "lecture", "weeklyLectures": 3, "faculty": "F3"},
		},
		"students": {
			{"studentId": "S1", "courses": []interface{}{"CS101", "MA110"}},
			{"student_id": "S2", "courses": []interface{}{"CS101", "CS102", "PH201"}},
			{"studentId": "S3", "courses": []interface{}{"CS102", "MA110", "PH201"}},
			{"studentId": "S4", "courses": []interface{}{"CS101", "CS102"}},
		},
		"faculty": {
			{"facultyId": "F1", "name": "Dr. Patel", "maxHoursPerWeek": 6},
			{"faculty_id": "F2", "facultyName": "Dr. Osei", "max_hours_per_week": 4},
			{"facultyId": "F3", "name": "Dr. Lindqvist"},
		},
		"rooms": {
			{"roomId": "R101", "roomType": "lecture", "capacity": 40, "isAvailable": true},
			{"room_id": "R102", "type": "lecture", "capacity": 3, "is_available": true},
			{"roomId": "L1", "roomType": "lab", "capacity": 20, "isAvailable": true},
			{"roomId": "R900", "roomType": "lecture", "capacity": 100, "isAvailable": false},
		},
	}

	var finalErr error
	for _, collection := range appRepos.WatchedCollections {
		for _, doc := range docs[collection] {
			if err := collections.InsertDocument(ctx, collection, doc); err != nil {
				logger.Error().Err(err).Str("collection", collection).Msg("Error seeding document")
				finalErr = errors.Join(finalErr, err)
			}
		}
	}
	if finalErr != nil {
		return finalErr
	}

	logger.Info().Msg("Demo collections seeded")
	return nil
}
