// Package watch provides the change-source capability the reactor is built
// on: per-collection change subscriptions when the store supports push
// notification, and document-count polling as the fallback. The reactor picks
// one of the two at startup and never mixes them mid-run.
package watch

import "context"

// Subscription is a handle on one collection's change notifications.
type Subscription interface {
	// Pending drains every notification queued since the last call without
	// blocking beyond a short grace period, and reports whether any arrived.
	// Draining is what coalesces a burst of changes into a single trigger.
	Pending(ctx context.Context) (bool, error)
	// Close releases the subscription's resources.
	Close(ctx context.Context)
}

// Source provides change subscriptions plus the count-based fallback.
type Source interface {
	// Subscribe opens a change subscription on one watched collection.
	Subscribe(ctx context.Context, collection string) (Subscription, error)
	// Counts snapshots the document count of every watched collection.
	Counts(ctx context.Context) (map[string]int64, error)
}
