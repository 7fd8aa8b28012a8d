package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/planora/scheduler/internal/app/models"
	"github.com/planora/scheduler/internal/pkg/logger"
)

// timetableRowID pins the single timetable row. The schedule is a derived
// cache with no history; every publish overwrites it.
const timetableRowID = 1

// TimetableDocument is the persisted schedule plus its diagnostics.
type TimetableDocument struct {
	Schedule   models.Timetable  `json:"schedule"`
	Validation models.Validation `json:"validation"`
	UpdatedAt  time.Time         `json:"updatedAt"`
}

// TimetableRepository owns the published timetable document.
type TimetableRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewTimetableRepository creates a new TimetableRepository
func NewTimetableRepository(db *pgxpool.Pool) *TimetableRepository {
	return &TimetableRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// UpsertTimetable atomically replaces the schedule and validation of the
// single timetable document, creating it on first publish.
func (r *TimetableRepository) UpsertTimetable(ctx context.Context, schedule models.Timetable, validation models.Validation) error {
	schedulePayload, err := json.Marshal(schedule)
	if err != nil {
		return fmt.Errorf("failed to marshal schedule: %w", err)
	}
	validationPayload, err := json.Marshal(validation)
	if err != nil {
		return fmt.Errorf("failed to marshal validation: %w", err)
	}

	sql, args, err := r.sb.Insert("timetable").
		Columns("id", "schedule", "validation", "updated_at").
		Values(timetableRowID, schedulePayload, validationPayload, squirrel.Expr("now()")).
		Suffix("ON CONFLICT (id) DO UPDATE SET schedule = EXCLUDED.schedule, validation = EXCLUDED.validation, updated_at = now()").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building upsert timetable SQL")
		return fmt.Errorf("failed to build upsert timetable query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Msg("Error executing upsert timetable query")
		return fmt.Errorf("error upserting timetable: %w", err)
	}
	return nil
}

// GetTimetable retrieves the current published timetable document.
func (r *TimetableRepository) GetTimetable(ctx context.Context) (*TimetableDocument, error) {
	sql, args, err := r.sb.Select("schedule", "validation", "updated_at").
		From("timetable").
		Where(squirrel.Eq{"id": timetableRowID}).
		Limit(1).
		ToSql()
	if err != nil {
		logger.Error().Err(err).Msg("Error building get timetable SQL")
		return nil, fmt.Errorf("failed to build get timetable query: %w", err)
	}

	var schedulePayload, validationPayload []byte
	doc := &TimetableDocument{}
	err = r.db.QueryRow(ctx, sql, args...).Scan(&schedulePayload, &validationPayload, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		logger.Error().Err(err).Msg("Error scanning timetable row")
		return nil, fmt.Errorf("error getting timetable: %w", err)
	}

	if err := json.Unmarshal(schedulePayload, &doc.Schedule); err != nil {
		return nil, fmt.Errorf("failed to unmarshal schedule: %w", err)
	}
	if err := json.Unmarshal(validationPayload, &doc.Validation); err != nil {
		return nil, fmt.Errorf("failed to unmarshal validation: %w", err)
	}
	return doc, nil
}
