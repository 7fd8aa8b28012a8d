// Package services holds the scheduling pipeline: fetching source documents,
// building the constraint model, running the solve, and publishing the
// resulting timetable document.
package services

import (
	"context"
	"fmt"

	"github.com/planora/scheduler/internal/app/adapters"
	"github.com/planora/scheduler/internal/app/models"
	"github.com/planora/scheduler/internal/cpsat"
	"github.com/planora/scheduler/internal/pkg/apperrors"
	"github.com/planora/scheduler/internal/pkg/logger"
)

// CollectionSource provides the raw source documents for one cycle.
type CollectionSource interface {
	FetchAll(ctx context.Context) (adapters.Raw, error)
}

// SchedulePublisher persists the computed timetable document.
type SchedulePublisher interface {
	UpsertTimetable(ctx context.Context, schedule models.Timetable, validation models.Validation) error
}

// TimetableService recomputes and publishes the timetable from the current
// state of the source collections.
type TimetableService interface {
	// Recompute runs one full scheduling cycle. A published document always
	// results, except when the source collections cannot be read or a required
	// collection is empty.
	Recompute(ctx context.Context) error
}

type timetableService struct {
	collections CollectionSource
	publisher   SchedulePublisher
	engine      cpsat.Engine
	params      cpsat.Parameters
}

// NewTimetableService creates a new TimetableService
func NewTimetableService(collections CollectionSource, publisher SchedulePublisher, engine cpsat.Engine, params cpsat.Parameters) TimetableService {
	return &timetableService{
		collections: collections,
		publisher:   publisher,
		engine:      engine,
		params:      params,
	}
}

// Recompute implements the full cycle: fetch, normalize, model, solve, decode,
// publish. Solver failures still publish an empty schedule carrying the error,
// so readers of the timetable document always see the latest outcome.
func (s *timetableService) Recompute(ctx context.Context) error {
	raw, err := s.collections.FetchAll(ctx)
	if err != nil {
		return apperrors.NewStoreError(err, "failed to fetch source collections")
	}

	logger.Info().
		Int("courses", len(raw.Courses)).
		Int("students", len(raw.Students)).
		Int("faculty", len(raw.Faculty)).
		Int("rooms", len(raw.Rooms)).
		Msg("Fetched source collections")

	ds, warnings, err := adapters.Normalize(raw)
	if err != nil {
		return err
	}

	validation := models.NewValidation()
	validation.Warnings = append(validation.Warnings, warnings...)

	bm := buildModel(ds)
	validation.Warnings = append(validation.Warnings, bm.warnings...)

	logger.Info().
		Int("variables", bm.model.NumVars()).
		Int("constraints", bm.model.NumConstraints()).
		Msg("Built scheduling model")

	result := s.engine.Solve(ctx, bm.model, s.params)
	logger.Info().
		Str("status", result.Status.String()).
		Int("objective", result.Objective).
		Msg("Solve finished")

	switch result.Status {
	case cpsat.StatusInfeasible:
		solveErr := apperrors.NewCustomError(apperrors.ErrInfeasible, "No feasible solution found")
		validation.Errors = append(validation.Errors, solveErr.Error())
		if err := s.publisher.UpsertTimetable(ctx, models.Timetable{}, validation); err != nil {
			return apperrors.NewStoreError(err, "failed to publish timetable")
		}
		return solveErr
	case cpsat.StatusUnknown:
		solveErr := apperrors.NewCustomError(apperrors.ErrSolveTimeout,
			fmt.Sprintf("No solution found within the %s solve budget", s.params.TimeBudget))
		validation.Errors = append(validation.Errors, solveErr.Error())
		if err := s.publisher.UpsertTimetable(ctx, models.Timetable{}, validation); err != nil {
			return apperrors.NewStoreError(err, "failed to publish timetable")
		}
		return solveErr
	}

	sessions := decodeSessions(bm, ds, result)
	timetable := models.BuildTimetable(sessions)

	if err := s.publisher.UpsertTimetable(ctx, timetable, validation); err != nil {
		return apperrors.NewStoreError(err, "failed to publish timetable")
	}

	logger.Info().
		Int("sessions", len(sessions)).
		Int("warnings", len(validation.Warnings)).
		Msg("Published timetable")
	return nil
}
