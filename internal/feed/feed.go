// Package feed delivers row-level change notifications for the message table.
// Delivery is best-effort: a dropped event is eventually repaired by the room
// session's periodic snapshot reconciliation.
package feed

import (
	"context"

	"globalroom/backend/internal/models"
)

// Kind discriminates the two change notifications the store emits.
type Kind string

const (
	KindInsert Kind = "insert"
	KindUpdate Kind = "update"
)

// Event is a single change notification carrying the full post-mutation row.
type Event struct {
	Kind   Kind           `json:"kind"`
	Record models.Message `json:"record"`
}

// Feed is the change-notification channel for the message table. Events are
// delivered in the order the publisher committed them; there is no delivery
// guarantee beyond best effort.
type Feed interface {
	// Publish emits an event to every current subscriber.
	Publish(ctx context.Context, ev Event) error
	// Subscribe registers a new subscriber. The returned cancel function must
	// be called exactly once when the session ends; it closes the channel.
	Subscribe(ctx context.Context) (<-chan Event, func(), error)
}
