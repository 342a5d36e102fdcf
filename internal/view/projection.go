// Package view derives the renderable room timeline from the merged message
// set and the session context. Projection is a pure function of its inputs;
// it never mutates the set and carries no state of its own.
package view

import (
	"github.com/dustin/go-humanize"

	"globalroom/backend/internal/room"
	"globalroom/backend/internal/session"
)

// Badge values shown to moderators next to every message.
const (
	BadgeDeleted    = "Deleted"
	BadgeNotDeleted = "Not Deleted"
)

// PlaceholderText renders when the room holds no visible messages.
const PlaceholderText = "No chats to display"

// Item is one renderable element of the room timeline.
type Item struct {
	ID         uint   `json:"id,omitempty"`
	AuthorName string `json:"author_name,omitempty"`
	Text       string `json:"text"`
	// Own marks the session's own messages (right-aligned, editable).
	Own bool `json:"own,omitempty"`
	// Editing marks the single item currently in inline-edit mode; Text then
	// carries the editable draft instead of the stored text.
	Editing bool `json:"editing,omitempty"`
	// Pending marks an optimistic send awaiting confirmation.
	Pending bool `json:"pending,omitempty"`
	// SentAt is a relative label like "3 minutes ago".
	SentAt string `json:"sent_at,omitempty"`
	// DeletionBadge is set for moderator sessions only.
	DeletionBadge string `json:"deletion_badge,omitempty"`
	// Placeholder marks the single "no messages yet" item of an empty room.
	Placeholder bool `json:"placeholder,omitempty"`
}

// EditState carries the coordinator's inline-edit mode into the projection.
type EditState struct {
	Active bool
	ID     uint
	Draft  string
}

// Project derives the display items for the given session. Ordinary sessions
// never see soft-deleted messages; moderator sessions see everything with a
// deletion badge. An empty result collapses to one placeholder item.
func Project(entries []room.Entry, sess session.Context, edit EditState) []Item {
	items := make([]Item, 0, len(entries))
	for _, entry := range entries {
		if entry.Deleted && sess.Role != session.RoleModerator {
			continue
		}

		item := Item{
			ID:         entry.ID,
			AuthorName: entry.AuthorName,
			Text:       entry.Text,
			Own:        entry.AuthorID == sess.UserID,
			Pending:    entry.Pending,
			SentAt:     humanize.Time(entry.CreatedAt),
		}
		if item.Own {
			item.AuthorName = "You"
		}
		if sess.Role == session.RoleModerator {
			item.DeletionBadge = BadgeNotDeleted
			if entry.Deleted {
				item.DeletionBadge = BadgeDeleted
			}
		}
		if edit.Active && !entry.Pending && entry.ID == edit.ID && item.Own {
			item.Editing = true
			item.Text = edit.Draft
		}
		items = append(items, item)
	}

	if len(items) == 0 {
		return []Item{{Text: PlaceholderText, Placeholder: true}}
	}
	return items
}
