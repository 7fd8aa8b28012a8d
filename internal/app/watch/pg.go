package watch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/planora/scheduler/internal/app/repositories"
	"github.com/planora/scheduler/internal/pkg/logger"
)

// drainGrace is how long one Pending call waits for a further notification
// before concluding the queue is drained.
const drainGrace = 50 * time.Millisecond

// PGSource implements Source on Postgres: LISTEN/NOTIFY for push
// subscriptions (collection triggers notify "<collection>_changed"), and
// count queries for the polling fallback.
type PGSource struct {
	pool        *pgxpool.Pool
	collections *repositories.CollectionRepository
}

// NewPGSource creates a PGSource.
func NewPGSource(pool *pgxpool.Pool, collections *repositories.CollectionRepository) *PGSource {
	return &PGSource{pool: pool, collections: collections}
}

// Subscribe opens a dedicated connection listening on the collection's
// notification channel. The connection is taken out of the pool for the
// subscription's lifetime.
func (s *PGSource) Subscribe(ctx context.Context, collection string) (Subscription, error) {
	channel, err := channelFor(collection)
	if err != nil {
		return nil, err
	}

	poolConn, err := s.pool.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection for %s subscription: %w", collection, err)
	}

	conn := poolConn.Hijack()
	if _, err := conn.Exec(ctx, "LISTEN "+channel); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("failed to listen on %s: %w", channel, err)
	}

	return &pgSubscription{conn: conn, collection: collection}, nil
}

// Counts delegates to the collection repository.
func (s *PGSource) Counts(ctx context.Context) (map[string]int64, error) {
	return s.collections.Counts(ctx)
}

// channelFor maps a watched collection onto its notification channel name,
// rejecting anything outside the watched set.
func channelFor(collection string) (string, error) {
	for _, watched := range repositories.WatchedCollections {
		if watched == collection {
			return collection + "_changed", nil
		}
	}
	return "", fmt.Errorf("unknown collection %q", collection)
}

type pgSubscription struct {
	conn       *pgx.Conn
	collection string
}

// Pending drains all queued notifications for this subscription. It blocks at
// most drainGrace past the last queued notification.
func (s *pgSubscription) Pending(ctx context.Context) (bool, error) {
	pending := false
	for {
		waitCtx, cancel := context.WithTimeout(ctx, drainGrace)
		_, err := s.conn.WaitForNotification(waitCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				// Queue drained
				return pending, nil
			}
			return pending, fmt.Errorf("waiting for %s notification: %w", s.collection, err)
		}
		pending = true
	}
}

// Close closes the dedicated connection.
func (s *pgSubscription) Close(ctx context.Context) {
	if err := s.conn.Close(ctx); err != nil {
		logger.Warn().Err(err).Str("collection", s.collection).Msg("Error closing subscription connection")
	}
}
