package room

import (
	"context"
	"strings"
	"sync"

	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/session"
)

// Coordinator executes the session's mutations: send, edit and soft-delete.
// Each one validates and authorizes locally, writes through the store, and
// reconciles the confirmed row back into the merged set. A failed store call
// never touches the local set; it only raises the banner.
type Coordinator struct {
	store  gateway.MessageStore
	set    *Set
	sess   session.Context
	banner *Banner

	mu        sync.Mutex
	editing   bool
	editingID uint
	draft     string
}

// NewCoordinator binds a coordinator to the session's merged set.
func NewCoordinator(store gateway.MessageStore, set *Set, sess session.Context, banner *Banner) *Coordinator {
	return &Coordinator{
		store:  store,
		set:    set,
		sess:   sess,
		banner: banner,
	}
}

// Send posts a new message authored by the session. An optimistic pending
// entry appears immediately and is replaced by the store-confirmed row, or
// discarded if the store rejects the write.
func (c *Coordinator) Send(ctx context.Context, text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Message: "Write something before submitting!"}
	}

	localID := c.set.AddPending(text, c.sess.UserID, c.sess.Name, c.sess.Email)

	msg, err := c.store.Insert(ctx, gateway.Draft{
		Text:        text,
		AuthorID:    c.sess.UserID,
		AuthorName:  c.sess.Name,
		AuthorEmail: c.sess.Email,
	})
	if err != nil {
		c.set.DropPending(localID)
		perr := &PersistenceError{Op: "send", Err: err}
		c.banner.Report(perr)
		return perr
	}

	c.set.ConfirmPending(localID, msg)
	return nil
}

// Edit replaces the text of one of the session's own messages.
func (c *Coordinator) Edit(ctx context.Context, id uint, text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Message: "Write something before submitting!"}
	}
	if err := c.authorize(id, "edit"); err != nil {
		return err
	}

	msg, err := c.store.UpdateText(ctx, id, text)
	if err != nil {
		perr := &PersistenceError{Op: "edit", Err: err}
		c.banner.Report(perr)
		return perr
	}

	c.set.Upsert(msg)
	c.finishEdit(id)
	return nil
}

// SoftDelete marks one of the session's own messages deleted. The confirmed
// tombstone goes through the same upsert as any other update; whether it
// still renders is the projection's per-role decision.
func (c *Coordinator) SoftDelete(ctx context.Context, id uint) error {
	if err := c.authorize(id, "delete"); err != nil {
		return err
	}

	msg, err := c.store.MarkDeleted(ctx, id)
	if err != nil {
		perr := &PersistenceError{Op: "delete", Err: err}
		c.banner.Report(perr)
		return perr
	}

	c.set.Upsert(msg)
	c.finishEdit(id)
	return nil
}

// BeginEdit enters inline-edit mode for one of the session's own messages,
// seeding the draft with its current text. Edit mode is single-message:
// starting a second edit silently abandons the first with nothing persisted.
func (c *Coordinator) BeginEdit(id uint) error {
	if err := c.authorize(id, "edit"); err != nil {
		return err
	}
	msg, _ := c.set.Get(id)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = true
	c.editingID = id
	c.draft = msg.Text
	return nil
}

// UpdateDraft replaces the in-progress draft text.
func (c *Coordinator) UpdateDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing {
		c.draft = text
	}
}

// CancelEdit leaves edit mode with nothing persisted.
func (c *Coordinator) CancelEdit() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = false
	c.editingID = 0
	c.draft = ""
}

// Editing reports the message currently in inline-edit mode and its draft.
func (c *Coordinator) Editing() (id uint, draft string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editingID, c.draft, c.editing
}

func (c *Coordinator) finishEdit(id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.editing && c.editingID == id {
		c.editing = false
		c.editingID = 0
		c.draft = ""
	}
}

func (c *Coordinator) authorize(id uint, action string) error {
	msg, ok := c.set.Get(id)
	if !ok {
		return ErrUnknownMessage
	}
	if msg.AuthorID != c.sess.UserID {
		return &AuthorizationError{Message: "you can only " + action + " your own messages"}
	}
	return nil
}
