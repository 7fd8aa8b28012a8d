package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/planora/scheduler/internal/app/watch"
	"github.com/planora/scheduler/internal/pkg/logger"
)

// Recomputer is the reactor's view of the scheduling pipeline.
type Recomputer interface {
	Recompute(ctx context.Context) error
}

// ReactorStatus is a snapshot of the reactor's operating state.
type ReactorStatus struct {
	Mode        string     `json:"mode"`
	Cycles      int64      `json:"cycles"`
	LastCycleAt *time.Time `json:"lastCycleAt,omitempty"`
	LastError   string     `json:"lastError,omitempty"`
}

// ReactorService drives recomputation from collection changes. It subscribes
// to every watched collection when the store supports push notification and
// falls back to count polling otherwise. All recomputes run on the reactor's
// single goroutine, so overlapping triggers collapse into one cycle.
type ReactorService struct {
	source      watch.Source
	timetable   Recomputer
	collections []string
	tick        time.Duration
	poll        time.Duration

	mu     sync.Mutex
	status ReactorStatus
}

// NewReactorService creates a new ReactorService
func NewReactorService(source watch.Source, timetable Recomputer, collections []string, tick, poll time.Duration) *ReactorService {
	return &ReactorService{
		source:      source,
		timetable:   timetable,
		collections: collections,
		tick:        tick,
		poll:        poll,
	}
}

// Run blocks until the context is cancelled. It computes an initial timetable,
// then reacts to changes in watching or polling mode.
func (r *ReactorService) Run(ctx context.Context) {
	subs, err := r.subscribeAll(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Change subscriptions unavailable, falling back to count polling")
		r.setMode("polling")
		r.pollLoop(ctx)
		return
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		for _, sub := range subs {
			sub.Close(closeCtx)
		}
	}()

	r.setMode("watching")
	r.watchLoop(ctx, subs)
}

// Status returns a snapshot of the reactor's state.
func (r *ReactorService) Status() ReactorStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// subscribeAll opens a subscription per watched collection. Either all four
// succeed or none are kept; a partial set would silently miss changes.
func (r *ReactorService) subscribeAll(ctx context.Context) ([]watch.Subscription, error) {
	subs := make([]watch.Subscription, 0, len(r.collections))
	for _, collection := range r.collections {
		sub, err := r.source.Subscribe(ctx, collection)
		if err != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			for _, opened := range subs {
				opened.Close(closeCtx)
			}
			cancel()
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

// watchLoop recomputes once at startup, then once per tick whenever any
// subscription reports pending changes. Draining every subscription before
// recomputing coalesces a burst of writes into a single cycle.
func (r *ReactorService) watchLoop(ctx context.Context, subs []watch.Subscription) {
	r.recompute(ctx)

	ticker := time.NewTicker(r.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		changed := false
		for i, sub := range subs {
			pending, err := sub.Pending(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				// A broken subscription is logged and retried next tick
				logger.Warn().Err(err).Str("collection", r.collections[i]).Msg("Error checking subscription")
			}
			if pending {
				changed = true
			}
		}
		if changed {
			r.recompute(ctx)
		}
	}
}

// pollLoop recomputes once at startup, then compares count snapshots every
// poll interval and recomputes when any collection's count moved.
func (r *ReactorService) pollLoop(ctx context.Context) {
	r.recompute(ctx)

	previous, err := r.source.Counts(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Error taking initial count snapshot")
	}

	ticker := time.NewTicker(r.poll)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		current, err := r.source.Counts(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Error taking count snapshot")
			continue
		}

		if previous == nil || countsChanged(previous, current) {
			r.recompute(ctx)
		}
		previous = current
	}
}

// recompute runs one scheduling cycle. Cycle failures are recorded and logged,
// never propagated; the reactor keeps running.
func (r *ReactorService) recompute(ctx context.Context) {
	cycleID := uuid.New().String()
	cycleLog := logger.WithField("cycleId", cycleID)
	cycleLog.Info().Msg("Starting scheduling cycle")

	started := time.Now()
	err := r.timetable.Recompute(ctx)

	r.mu.Lock()
	r.status.Cycles++
	now := time.Now()
	r.status.LastCycleAt = &now
	if err != nil {
		r.status.LastError = err.Error()
	} else {
		r.status.LastError = ""
	}
	r.mu.Unlock()

	if err != nil {
		cycleLog.Error().Err(err).Dur("elapsed", time.Since(started)).Msg("Scheduling cycle failed")
		return
	}
	cycleLog.Info().Dur("elapsed", time.Since(started)).Msg("Scheduling cycle complete")
}

func (r *ReactorService) setMode(mode string) {
	r.mu.Lock()
	r.status.Mode = mode
	r.mu.Unlock()
	logger.Info().Str("mode", mode).Msg("Reactor mode selected")
}

// countsChanged reports whether any collection's count differs between two
// snapshots.
func countsChanged(previous, current map[string]int64) bool {
	if len(previous) != len(current) {
		return true
	}
	for collection, count := range current {
		if previous[collection] != count {
			return true
		}
	}
	return false
}
