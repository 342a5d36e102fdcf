package room

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/models"
	"globalroom/backend/internal/session"

	"gorm.io/gorm"
)

// fakeStore is an in-memory MessageStore for exercising the core without a
// database. Set failNext to make the next call fail; insertHook runs while an
// insert is in flight.
type fakeStore struct {
	mu         sync.Mutex
	rows       map[uint]models.Message
	order      []uint
	nextID     uint
	failNext   error
	insertHook func()
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[uint]models.Message)}
}

func (f *fakeStore) seed(m models.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[m.ID] = m
	f.order = append(f.order, m.ID)
	if m.ID > f.nextID {
		f.nextID = m.ID
	}
}

func (f *fakeStore) takeError() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeStore) Insert(_ context.Context, draft gateway.Draft) (models.Message, error) {
	if f.insertHook != nil {
		f.insertHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeError(); err != nil {
		return models.Message{}, err
	}
	f.nextID++
	m := models.Message{
		Model:       gorm.Model{ID: f.nextID, CreatedAt: time.Now()},
		Text:        draft.Text,
		AuthorID:    draft.AuthorID,
		AuthorName:  draft.AuthorName,
		AuthorEmail: draft.AuthorEmail,
	}
	f.rows[m.ID] = m
	f.order = append(f.order, m.ID)
	return m, nil
}

func (f *fakeStore) UpdateText(_ context.Context, id uint, text string) (models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeError(); err != nil {
		return models.Message{}, err
	}
	m, ok := f.rows[id]
	if !ok {
		return models.Message{}, gateway.ErrNotFound
	}
	m.Text = text
	f.rows[id] = m
	return m, nil
}

func (f *fakeStore) MarkDeleted(_ context.Context, id uint) (models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeError(); err != nil {
		return models.Message{}, err
	}
	m, ok := f.rows[id]
	if !ok {
		return models.Message{}, gateway.ErrNotFound
	}
	m.Deleted = true
	f.rows[id] = m
	return m, nil
}

func (f *fakeStore) Select(_ context.Context, filter gateway.Filter) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.takeError(); err != nil {
		return nil, err
	}
	out := make([]models.Message, 0, len(f.order))
	for _, id := range f.order {
		m := f.rows[id]
		if filter == gateway.FilterNotDeleted && m.Deleted {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

var (
	alice = session.Context{UserID: 1, Name: "alice", Email: "alice@example.com", Role: session.RoleOrdinary}
	bob   = session.Context{UserID: 2, Name: "bob", Email: "bob@example.com", Role: session.RoleOrdinary}
)

func newTestCoordinator(sess session.Context, store *fakeStore, bannerTimeout time.Duration) (*Coordinator, *Set, *Banner) {
	set := NewSet()
	banner := NewBanner(bannerTimeout)
	return NewCoordinator(store, set, sess, banner), set, banner
}

func TestSendRejectsEmptyText(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(alice, store, 0)

	for _, text := range []string{"", "   ", "\n\t"} {
		err := coord.Send(context.Background(), text)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("Send(%q): expected ValidationError, got %v", text, err)
		}
	}

	if len(store.rows) != 0 {
		t.Error("empty send reached the store")
	}
	if entries := set.Current(); len(entries) != 0 {
		t.Errorf("empty send left %d entries in the set", len(entries))
	}
}

func TestSendShowsPendingEntryWhileInFlight(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(alice, store, 0)

	store.insertHook = func() {
		entries := set.Current()
		if len(entries) != 1 || !entries[0].Pending {
			t.Errorf("expected a pending entry during the in-flight insert, got %+v", entries)
		}
	}

	if err := coord.Send(context.Background(), "hi"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	entries := set.Current()
	if len(entries) != 1 || entries[0].Pending {
		t.Fatalf("expected one confirmed entry, got %+v", entries)
	}
	if entries[0].ID == 0 {
		t.Error("confirmed entry is missing its server-assigned id")
	}
}

func TestSendFailureLeavesSetUnchangedAndRaisesBanner(t *testing.T) {
	store := newFakeStore()
	coord, set, banner := newTestCoordinator(alice, store, 50*time.Millisecond)

	store.failNext = errors.New("store unavailable")
	err := coord.Send(context.Background(), "hi")

	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected PersistenceError, got %v", err)
	}
	if entries := set.Current(); len(entries) != 0 {
		t.Errorf("failed send left %d entries in the set", len(entries))
	}

	if _, visible := banner.Current(); !visible {
		t.Fatal("banner not visible after persistence failure")
	}
	time.Sleep(120 * time.Millisecond)
	if msg, visible := banner.Current(); visible {
		t.Errorf("banner did not auto-clear, still shows %q", msg)
	}
}

func TestEditDeniedForOtherAuthors(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(bob, store, 0)

	m := msg(1, "foo", alice.UserID, time.Now())
	store.seed(m)
	set.Upsert(m)

	err := coord.Edit(context.Background(), 1, "hacked")
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}

	got, _ := set.Get(1)
	if got.Text != "foo" {
		t.Errorf("denied edit changed the message: %q", got.Text)
	}
	if store.rows[1].Text != "foo" {
		t.Errorf("denied edit reached the store: %q", store.rows[1].Text)
	}
}

func TestEditOwnMessageReplacesText(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(alice, store, 0)

	m := msg(2, "foo", alice.UserID, time.Now())
	store.seed(m)
	set.Upsert(m)

	if err := coord.Edit(context.Background(), 2, "bar"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}

	got, _ := set.Get(2)
	if got.Text != "bar" {
		t.Errorf("expected %q, got %q", "bar", got.Text)
	}
}

func TestEditUnknownMessage(t *testing.T) {
	store := newFakeStore()
	coord, _, _ := newTestCoordinator(alice, store, 0)

	if err := coord.Edit(context.Background(), 99, "text"); !errors.Is(err, ErrUnknownMessage) {
		t.Fatalf("expected ErrUnknownMessage, got %v", err)
	}
}

func TestSoftDeleteDeniedForOtherAuthors(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(bob, store, 0)

	m := msg(1, "hi", alice.UserID, time.Now())
	store.seed(m)
	set.Upsert(m)

	err := coord.SoftDelete(context.Background(), 1)
	var aerr *AuthorizationError
	if !errors.As(err, &aerr) {
		t.Fatalf("expected AuthorizationError, got %v", err)
	}
	if store.rows[1].Deleted {
		t.Error("denied delete reached the store")
	}
}

func TestSoftDeleteOwnMessageTombstones(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(alice, store, 0)

	m := msg(1, "hi", alice.UserID, time.Now())
	store.seed(m)
	set.Upsert(m)

	if err := coord.SoftDelete(context.Background(), 1); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	got, ok := set.Get(1)
	if !ok {
		t.Fatal("tombstone missing from the set")
	}
	if !got.Deleted {
		t.Error("message not marked deleted")
	}
}

func TestEditModeIsSingleMessage(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(alice, store, 0)

	first := msg(1, "one", alice.UserID, time.Now())
	second := msg(2, "two", alice.UserID, time.Now())
	store.seed(first)
	store.seed(second)
	set.Upsert(first)
	set.Upsert(second)

	if err := coord.BeginEdit(1); err != nil {
		t.Fatalf("BeginEdit(1) failed: %v", err)
	}
	coord.UpdateDraft("one edited")

	// Starting a second edit abandons the first with nothing persisted.
	if err := coord.BeginEdit(2); err != nil {
		t.Fatalf("BeginEdit(2) failed: %v", err)
	}

	id, draft, ok := coord.Editing()
	if !ok || id != 2 || draft != "two" {
		t.Fatalf("expected edit mode on message 2 with its stored text, got id=%d draft=%q ok=%v", id, draft, ok)
	}
	if got, _ := set.Get(1); got.Text != "one" {
		t.Errorf("abandoned edit persisted: %q", got.Text)
	}

	coord.CancelEdit()
	if _, _, ok := coord.Editing(); ok {
		t.Error("edit mode still active after cancel")
	}
}

func TestCommittedEditLeavesEditMode(t *testing.T) {
	store := newFakeStore()
	coord, set, _ := newTestCoordinator(alice, store, 0)

	m := msg(1, "one", alice.UserID, time.Now())
	store.seed(m)
	set.Upsert(m)

	if err := coord.BeginEdit(1); err != nil {
		t.Fatalf("BeginEdit failed: %v", err)
	}
	if err := coord.Edit(context.Background(), 1, "one edited"); err != nil {
		t.Fatalf("Edit failed: %v", err)
	}
	if _, _, ok := coord.Editing(); ok {
		t.Error("edit mode still active after commit")
	}
}
