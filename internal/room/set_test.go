package room

import (
	"testing"
	"time"

	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/models"

	"gorm.io/gorm"
)

func msg(id uint, text string, authorID uint, createdAt time.Time) models.Message {
	return models.Message{
		Model:       gorm.Model{ID: id, CreatedAt: createdAt},
		Text:        text,
		AuthorID:    authorID,
		AuthorName:  "user",
		AuthorEmail: "user@example.com",
	}
}

func deleted(m models.Message) models.Message {
	m.Deleted = true
	return m
}

func texts(entries []Entry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Text)
	}
	return out
}

func TestInsertEventAfterSnapshotDoesNotDuplicate(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	epoch := s.BeginSnapshot()
	s.ApplySnapshot(epoch, []models.Message{msg(1, "hi", 1, t1)})
	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(1, "hi", 1, t1)})

	entries := s.Current()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry after snapshot/event race, got %d", len(entries))
	}
	if entries[0].Text != "hi" {
		t.Errorf("expected text %q, got %q", "hi", entries[0].Text)
	}
}

func TestStaleSnapshotDoesNotRevertEditedText(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(2, "foo", 1, t1)})

	// The snapshot fetch begins before the edit commits, but its rows are
	// applied afterwards. The edit must survive.
	epoch := s.BeginSnapshot()
	s.ApplyEvent(feed.Event{Kind: feed.KindUpdate, Record: msg(2, "bar", 1, t1)})
	s.ApplySnapshot(epoch, []models.Message{msg(2, "foo", 1, t1)})

	got, ok := s.Get(2)
	if !ok {
		t.Fatal("message 2 missing from the set")
	}
	if got.Text != "bar" {
		t.Errorf("stale snapshot reverted text: expected %q, got %q", "bar", got.Text)
	}
}

func TestFreshSnapshotOverwritesText(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(2, "foo", 1, t1)})

	epoch := s.BeginSnapshot()
	s.ApplySnapshot(epoch, []models.Message{msg(2, "bar", 1, t1)})

	got, _ := s.Get(2)
	if got.Text != "bar" {
		t.Errorf("fresh snapshot should win: expected %q, got %q", "bar", got.Text)
	}
}

func TestDeletionIsMonotone(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(1, "hi", 1, t1)})
	s.ApplyEvent(feed.Event{Kind: feed.KindUpdate, Record: deleted(msg(1, "hi", 1, t1))})

	// Neither a stale snapshot row nor a stale update event may resurrect it.
	epoch := s.BeginSnapshot()
	s.ApplySnapshot(epoch, []models.Message{msg(1, "hi", 1, t1)})
	s.ApplyEvent(feed.Event{Kind: feed.KindUpdate, Record: msg(1, "hi", 1, t1)})

	got, ok := s.Get(1)
	if !ok {
		t.Fatal("tombstone dropped from the set")
	}
	if !got.Deleted {
		t.Error("deletion flag reverted to false")
	}
}

func TestSnapshotDropsRowsConfirmedAbsent(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	epoch := s.BeginSnapshot()
	s.ApplySnapshot(epoch, []models.Message{msg(1, "old", 1, t1)})

	// A later snapshot no longer contains the row: it is gone for good.
	epoch = s.BeginSnapshot()
	s.ApplySnapshot(epoch, nil)

	if _, ok := s.Get(1); ok {
		t.Error("row absent from a confirming snapshot should be dropped")
	}
}

func TestSnapshotKeepsRowsInsertedWhileInFlight(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	// Snapshot begins, then an insert event lands before its rows do. The
	// snapshot predates the insert, so the absence means nothing.
	epoch := s.BeginSnapshot()
	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(7, "new", 1, t1)})
	s.ApplySnapshot(epoch, nil)

	if _, ok := s.Get(7); !ok {
		t.Error("row inserted during an in-flight snapshot was dropped")
	}
}

func TestOrderingByCreatedAtThenArrival(t *testing.T) {
	s := NewSet()
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Minute)

	// id 3 shares t1 with id 1 but arrives later; arrival order breaks the tie.
	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(2, "second", 1, t2)})
	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(1, "first", 1, t1)})
	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: msg(3, "tied", 1, t1)})

	got := texts(s.Current())
	want := []string{"first", "tied", "second"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order mismatch: expected %v, got %v", want, got)
		}
	}
}

func TestConvergenceAcrossInterleavings(t *testing.T) {
	t1 := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	events := []feed.Event{
		{Kind: feed.KindInsert, Record: msg(1, "a", 1, t1)},
		{Kind: feed.KindInsert, Record: msg(2, "b", 2, t1.Add(time.Second))},
		{Kind: feed.KindUpdate, Record: msg(1, "a2", 1, t1)},
		{Kind: feed.KindUpdate, Record: deleted(msg(2, "b", 2, t1.Add(time.Second)))},
		{Kind: feed.KindInsert, Record: msg(3, "c", 1, t1.Add(2*time.Second))},
	}

	// Reference: all events applied in commit order to an empty set.
	ref := NewSet()
	for _, ev := range events {
		ref.ApplyEvent(ev)
	}

	// Same events with snapshot fetches interleaved at every point, each
	// snapshot reflecting the store state at the moment it began.
	interleaved := NewSet()
	for i, ev := range events {
		epoch := interleaved.BeginSnapshot()
		interleaved.ApplyEvent(ev)
		// Stale snapshot: store state before this event committed.
		interleaved.ApplySnapshot(epoch, storeStateAfter(events[:i]))
	}
	epoch := interleaved.BeginSnapshot()
	interleaved.ApplySnapshot(epoch, storeStateAfter(events))

	refEntries := ref.Current()
	gotEntries := interleaved.Current()
	if len(refEntries) != len(gotEntries) {
		t.Fatalf("set sizes diverged: reference %d, interleaved %d", len(refEntries), len(gotEntries))
	}
	for i := range refEntries {
		if refEntries[i].ID != gotEntries[i].ID ||
			refEntries[i].Text != gotEntries[i].Text ||
			refEntries[i].Deleted != gotEntries[i].Deleted {
			t.Errorf("entry %d diverged: reference %+v, interleaved %+v", i, refEntries[i].Message, gotEntries[i].Message)
		}
	}
}

// storeStateAfter folds events in commit order into the row set a snapshot
// taken at that point would return.
func storeStateAfter(events []feed.Event) []models.Message {
	rows := make(map[uint]models.Message)
	order := []uint{}
	for _, ev := range events {
		if _, ok := rows[ev.Record.ID]; !ok {
			order = append(order, ev.Record.ID)
		}
		rows[ev.Record.ID] = ev.Record
	}
	out := make([]models.Message, 0, len(rows))
	for _, id := range order {
		out = append(out, rows[id])
	}
	return out
}

func TestPendingLifecycle(t *testing.T) {
	s := NewSet()
	t1 := time.Now()

	localID := s.AddPending("hi", 1, "alice", "alice@example.com")

	entries := s.Current()
	if len(entries) != 1 || !entries[0].Pending {
		t.Fatalf("expected a single pending entry, got %+v", entries)
	}

	// The change feed delivers the insert before the store call returns.
	confirmed := msg(1, "hi", 1, t1)
	s.ApplyEvent(feed.Event{Kind: feed.KindInsert, Record: confirmed})
	s.ConfirmPending(localID, confirmed)

	entries = s.Current()
	if len(entries) != 1 {
		t.Fatalf("expected exactly one entry after confirmation, got %d", len(entries))
	}
	if entries[0].Pending {
		t.Error("confirmed entry still marked pending")
	}
	if entries[0].Text != "hi" {
		t.Errorf("expected text %q, got %q", "hi", entries[0].Text)
	}
}

func TestDropPendingRemovesOnlyThatEntry(t *testing.T) {
	s := NewSet()

	first := s.AddPending("one", 1, "a", "a@example.com")
	s.AddPending("two", 1, "a", "a@example.com")

	s.DropPending(first)

	entries := s.Current()
	if len(entries) != 1 || entries[0].Text != "two" {
		t.Fatalf("expected only the second pending entry, got %v", texts(entries))
	}
}
