package repositories

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/planora/scheduler/internal/app/adapters"
	"github.com/planora/scheduler/internal/pkg/logger"
)

// WatchedCollections are the four source collections the scheduler reads and
// reacts to, in canonical order.
var WatchedCollections = []string{"courses", "students", "faculty", "rooms"}

// watchedSet guards against arbitrary table names reaching SQL.
var watchedSet = map[string]bool{
	"courses":  true,
	"students": true,
	"faculty":  true,
	"rooms":    true,
}

// CollectionRepository reads the heterogeneous source documents. Records are
// stored as one jsonb document per row so the loosely-typed historical data
// survives unmodified; all typing happens in the adapters layer.
type CollectionRepository struct {
	db *pgxpool.Pool
	sb squirrel.StatementBuilderType
}

// NewCollectionRepository creates a new CollectionRepository
func NewCollectionRepository(db *pgxpool.Pool) *CollectionRepository {
	return &CollectionRepository{
		db: db,
		sb: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// FetchAll reads every watched collection for one scheduling cycle.
func (r *CollectionRepository) FetchAll(ctx context.Context) (adapters.Raw, error) {
	var raw adapters.Raw
	var err error

	if raw.Courses, err = r.fetchCollection(ctx, "courses"); err != nil {
		return adapters.Raw{}, err
	}
	if raw.Students, err = r.fetchCollection(ctx, "students"); err != nil {
		return adapters.Raw{}, err
	}
	if raw.Faculty, err = r.fetchCollection(ctx, "faculty"); err != nil {
		return adapters.Raw{}, err
	}
	if raw.Rooms, err = r.fetchCollection(ctx, "rooms"); err != nil {
		return adapters.Raw{}, err
	}
	return raw, nil
}

// fetchCollection reads all documents of one collection in insertion order.
func (r *CollectionRepository) fetchCollection(ctx context.Context, collection string) ([]map[string]interface{}, error) {
	if !watchedSet[collection] {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}

	sql, args, err := r.sb.Select("doc").
		From(collection).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		logger.Error().Err(err).Str("collection", collection).Msg("Error building fetch collection SQL")
		return nil, fmt.Errorf("failed to build fetch query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		logger.Error().Err(err).Str("collection", collection).Msg("Error executing fetch collection query")
		return nil, fmt.Errorf("error querying collection %s: %w", collection, err)
	}
	defer rows.Close()

	docs := []map[string]interface{}{}
	for rows.Next() {
		var rawDoc []byte
		if err := rows.Scan(&rawDoc); err != nil {
			logger.Error().Err(err).Str("collection", collection).Msg("Error scanning document row")
			return nil, fmt.Errorf("error scanning document row: %w", err)
		}
		doc := map[string]interface{}{}
		if err := json.Unmarshal(rawDoc, &doc); err != nil {
			// A row that is not a JSON object is skipped, not fatal
			logger.Warn().Err(err).Str("collection", collection).Msg("Skipping non-object document")
			continue
		}
		docs = append(docs, doc)
	}

	if err := rows.Err(); err != nil {
		logger.Error().Err(err).Str("collection", collection).Msg("Error iterating document rows")
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return docs, nil
}

// Counts returns the current document count of every watched collection,
// used by the polling fallback to detect changes.
func (r *CollectionRepository) Counts(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, len(WatchedCollections))
	for _, collection := range WatchedCollections {
		sql, args, err := r.sb.Select("COUNT(*)").From(collection).ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build count query: %w", err)
		}

		var count int64
		if err := r.db.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
			logger.Error().Err(err).Str("collection", collection).Msg("Error counting documents")
			return nil, fmt.Errorf("error counting %s: %w", collection, err)
		}
		counts[collection] = count
	}
	return counts, nil
}

// InsertDocument stores one raw document in a watched collection.
func (r *CollectionRepository) InsertDocument(ctx context.Context, collection string, doc map[string]interface{}) error {
	if !watchedSet[collection] {
		return fmt.Errorf("unknown collection %q", collection)
	}

	payload, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal document: %w", err)
	}

	sql, args, err := r.sb.Insert(collection).
		Columns("doc").
		Values(payload).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.db.Exec(ctx, sql, args...); err != nil {
		logger.Error().Err(err).Str("collection", collection).Msg("Error inserting document")
		return fmt.Errorf("error inserting into %s: %w", collection, err)
	}
	return nil
}

// RepairStudentEnrollments flattens double-nested enrollment arrays in student
// documents, a known data-quality defect from an early importer. It returns
// the number of documents rewritten. This is a one-time repair; the runtime
// normalizer still skips non-scalar entries defensively.
func (r *CollectionRepository) RepairStudentEnrollments(ctx context.Context) (int, error) {
	sql, args, err := r.sb.Select("id", "doc").
		From("students").
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build repair query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("error querying students: %w", err)
	}
	defer rows.Close()

	type pendingFix struct {
		id  int64
		doc map[string]interface{}
	}
	var fixes []pendingFix

	for rows.Next() {
		var id int64
		var rawDoc []byte
		if err := rows.Scan(&id, &rawDoc); err != nil {
			return 0, fmt.Errorf("error scanning student row: %w", err)
		}
		doc := map[string]interface{}{}
		if err := json.Unmarshal(rawDoc, &doc); err != nil {
			continue
		}
		courses, ok := doc["courses"].([]interface{})
		if !ok {
			continue
		}
		flattened, changed := flattenEnrollments(courses)
		if changed {
			doc["courses"] = flattened
			fixes = append(fixes, pendingFix{id: id, doc: doc})
		}
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating student rows: %w", err)
	}

	for _, fix := range fixes {
		payload, err := json.Marshal(fix.doc)
		if err != nil {
			return 0, fmt.Errorf("failed to marshal repaired document: %w", err)
		}
		sql, args, err := r.sb.Update("students").
			Set("doc", payload).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": fix.id}).
			ToSql()
		if err != nil {
			return 0, fmt.Errorf("failed to build repair update: %w", err)
		}
		if _, err := r.db.Exec(ctx, sql, args...); err != nil {
			return 0, fmt.Errorf("error updating student %d: %w", fix.id, err)
		}
		logger.Info().Int64("studentRow", fix.id).Msg("Flattened nested enrollment list")
	}

	return len(fixes), nil
}

// flattenEnrollments flattens one level of list nesting, keeping scalar
// entries as-is. It reports whether anything changed.
func flattenEnrollments(entries []interface{}) ([]interface{}, bool) {
	changed := false
	flattened := make([]interface{}, 0, len(entries))
	for _, entry := range entries {
		if nested, ok := entry.([]interface{}); ok {
			flattened = append(flattened, nested...)
			changed = true
			continue
		}
		flattened = append(flattened, entry)
	}
	return flattened, changed
}
