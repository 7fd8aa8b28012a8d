package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/planora/scheduler/internal/app/watch"
)

type fakeSub struct {
	mu    sync.Mutex
	queue []bool
	err   error
}

func (s *fakeSub) Pending(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if len(s.queue) == 0 {
		return false, nil
	}
	pending := s.queue[0]
	s.queue = s.queue[1:]
	return pending, nil
}

func (s *fakeSub) Close(ctx context.Context) {}

type fakeSource struct {
	mu           sync.Mutex
	subs         map[string]*fakeSub
	subscribeErr error
	counts       []map[string]int64
}

func (f *fakeSource) Subscribe(ctx context.Context, collection string) (watch.Subscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.subscribeErr != nil {
		return nil, f.subscribeErr
	}
	if f.subs == nil {
		f.subs = map[string]*fakeSub{}
	}
	if f.subs[collection] == nil {
		f.subs[collection] = &fakeSub{}
	}
	return f.subs[collection], nil
}

func (f *fakeSource) Counts(ctx context.Context) (map[string]int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.counts) == 0 {
		return map[string]int64{}, nil
	}
	snapshot := f.counts[0]
	if len(f.counts) > 1 {
		f.counts = f.counts[1:]
	}
	return snapshot, nil
}

type fakeRecomputer struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeRecomputer) Recompute(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func (f *fakeRecomputer) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var testCollections = []string{"courses", "students", "faculty", "rooms"}

func startReactor(t *testing.T, r *ReactorService) (cancel func()) {
	t.Helper()
	ctx, stop := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()
	return func() {
		stop()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("reactor did not stop")
		}
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestReactorWatchingColdStartAndCoalescing(t *testing.T) {
	source := &fakeSource{subs: map[string]*fakeSub{
		// Changes on two collections in the same tick coalesce into one cycle
		"courses":  {queue: []bool{true}},
		"students": {queue: []bool{true}},
	}}
	recomputer := &fakeRecomputer{}
	reactor := NewReactorService(source, recomputer, testCollections, 10*time.Millisecond, time.Second)

	cancel := startReactor(t, reactor)
	defer cancel()

	waitFor(t, "coalesced recompute", func() bool { return recomputer.count() == 2 })
	if status := reactor.Status(); status.Mode != "watching" {
		t.Errorf("mode = %q, want watching", status.Mode)
	}

	// Quiet subscriptions trigger no further cycles
	time.Sleep(50 * time.Millisecond)
	if got := recomputer.count(); got != 2 {
		t.Errorf("recompute calls = %d, want 2", got)
	}
}

func TestReactorFallsBackToPolling(t *testing.T) {
	source := &fakeSource{
		subscribeErr: errors.New("listen not supported"),
		counts: []map[string]int64{
			{"courses": 1},
			{"courses": 1},
			{"courses": 2},
		},
	}
	recomputer := &fakeRecomputer{}
	reactor := NewReactorService(source, recomputer, testCollections, time.Second, 10*time.Millisecond)

	cancel := startReactor(t, reactor)
	defer cancel()

	// Cold-start cycle plus one for the count change
	waitFor(t, "poll-triggered recompute", func() bool { return recomputer.count() == 2 })
	if status := reactor.Status(); status.Mode != "polling" {
		t.Errorf("mode = %q, want polling", status.Mode)
	}

	time.Sleep(50 * time.Millisecond)
	if got := recomputer.count(); got != 2 {
		t.Errorf("recompute calls = %d, want 2", got)
	}
}

func TestReactorToleratesSubscriptionErrors(t *testing.T) {
	source := &fakeSource{subs: map[string]*fakeSub{
		"courses":  {err: errors.New("connection lost")},
		"students": {queue: []bool{false, true}},
	}}
	recomputer := &fakeRecomputer{}
	reactor := NewReactorService(source, recomputer, testCollections, 10*time.Millisecond, time.Second)

	cancel := startReactor(t, reactor)
	defer cancel()

	// The healthy subscription still drives recomputation
	waitFor(t, "recompute despite broken subscription", func() bool { return recomputer.count() >= 2 })
}

func TestReactorStatusTracksCycles(t *testing.T) {
	source := &fakeSource{}
	recomputer := &fakeRecomputer{err: errors.New("solve blew up")}
	reactor := NewReactorService(source, recomputer, testCollections, 10*time.Millisecond, time.Second)

	cancel := startReactor(t, reactor)
	defer cancel()

	waitFor(t, "cold-start cycle", func() bool { return reactor.Status().Cycles >= 1 })

	status := reactor.Status()
	if status.LastCycleAt == nil {
		t.Error("LastCycleAt not recorded")
	}
	if status.LastError == "" {
		t.Error("LastError not recorded for a failing cycle")
	}
}
