// Package gateway abstracts the durable message store. The synchronization
// core only ever talks to the MessageStore contract; the gorm implementation
// below is the production binding.
package gateway

import (
	"context"

	"globalroom/backend/internal/models"
)

// Filter selects which rows a snapshot query returns.
type Filter string

const (
	// FilterAll returns every message, deleted or not (moderator snapshots).
	FilterAll Filter = "all"
	// FilterNotDeleted returns only messages that are not soft-deleted.
	FilterNotDeleted Filter = "not-deleted"
)

// Draft is the author-supplied part of a new message. ID and CreatedAt are
// assigned by the store.
type Draft struct {
	Text        string
	AuthorID    uint
	AuthorName  string
	AuthorEmail string
}

// MessageStore is the persistence contract the synchronization core consumes.
// Every write returns the full post-mutation row.
type MessageStore interface {
	Insert(ctx context.Context, draft Draft) (models.Message, error)
	UpdateText(ctx context.Context, id uint, text string) (models.Message, error)
	MarkDeleted(ctx context.Context, id uint) (models.Message, error)
	Select(ctx context.Context, filter Filter) ([]models.Message, error)
}
