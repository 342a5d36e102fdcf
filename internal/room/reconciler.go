package room

import (
	"context"

	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/session"
)

// Reconciler keeps the authoritative local ordered message set for one room
// session, merging snapshot fetches and change-feed events through the Set's
// versioned upsert rules.
type Reconciler struct {
	store  gateway.MessageStore
	set    *Set
	filter gateway.Filter
}

// NewReconciler creates a reconciler querying with the filter the session's
// role is entitled to: moderators fetch everything, ordinary sessions fetch
// only non-deleted rows.
func NewReconciler(store gateway.MessageStore, role session.Role) *Reconciler {
	filter := gateway.FilterNotDeleted
	if role == session.RoleModerator {
		filter = gateway.FilterAll
	}
	return &Reconciler{
		store:  store,
		set:    NewSet(),
		filter: filter,
	}
}

// LoadSnapshot fetches the full ordered message set and merges it into the
// local view. The merge epoch is captured before the fetch starts, so any
// feed event applied while the query is in flight outranks the fetched rows.
func (r *Reconciler) LoadSnapshot(ctx context.Context) error {
	epoch := r.set.BeginSnapshot()
	rows, err := r.store.Select(ctx, r.filter)
	if err != nil {
		return &PersistenceError{Op: "snapshot", Err: err}
	}
	r.set.ApplySnapshot(epoch, rows)
	return nil
}

// ApplyEvent merges a single change-feed notification.
func (r *Reconciler) ApplyEvent(ev feed.Event) {
	r.set.ApplyEvent(ev)
}

// Current returns the merged, ordered view.
func (r *Reconciler) Current() []Entry {
	return r.set.Current()
}
