package room

import (
	"sort"
	"sync"
	"time"

	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/models"
)

// Entry is one element of the merged local view: either a confirmed message
// or a pending optimistic send awaiting the store's response.
type Entry struct {
	models.Message
	// Pending marks an optimistic local entry that has no server identity yet.
	Pending bool
	// LocalID identifies a pending entry until its confirmation arrives.
	LocalID int64
}

// record tracks one confirmed message plus the bookkeeping the merge needs:
// a per-field version for every mutable field and an arrival sequence used to
// break CreatedAt ties.
type record struct {
	msg     models.Message
	arrival uint64
	insVer  uint64
	textVer uint64
	delVer  uint64
}

// Set is the merged local message set. Three sources write into it — snapshot
// fetches, change-feed events and confirmed local mutations — and the merge
// rules keep it convergent regardless of their interleaving:
//
//   - every feed event or confirmed mutation advances a logical clock and
//     stamps the fields it touches with the new value;
//   - a snapshot only overwrites a field whose version is at or below the
//     clock value captured when the snapshot fetch began, so a slow snapshot
//     can never undo a faster event;
//   - Deleted is monotone and never reverts to false once observed true.
//
// Soft-deleted rows stay in the set as tombstones for this bookkeeping; the
// view projection decides per role whether they render.
type Set struct {
	mu       sync.RWMutex
	records  map[uint]*record
	pendings []Entry

	clock    uint64
	arrivals uint64
	localSeq int64
}

// NewSet creates an empty merged set.
func NewSet() *Set {
	return &Set{records: make(map[uint]*record)}
}

// BeginSnapshot captures the merge epoch for a snapshot fetch that is about
// to start. Pass the returned value to ApplySnapshot once the rows arrive.
func (s *Set) BeginSnapshot() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.clock
}

// ApplySnapshot merges a full fetched row set into the local view. Rows the
// snapshot does not contain are dropped only when no event observed after the
// snapshot began has touched them. Pending entries are never affected.
func (s *Set) ApplySnapshot(epoch uint64, rows []models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[uint]bool, len(rows))
	for _, row := range rows {
		seen[row.ID] = true
		rec, ok := s.records[row.ID]
		if !ok {
			s.arrivals++
			s.records[row.ID] = &record{
				msg:     row,
				arrival: s.arrivals,
				insVer:  epoch,
				textVer: epoch,
				delVer:  epoch,
			}
			continue
		}
		if rec.textVer <= epoch {
			rec.msg.Text = row.Text
			rec.msg.UpdatedAt = row.UpdatedAt
		}
		// Deletion only ever advances, so a snapshot may set the flag but a
		// stale "not deleted" row never clears it.
		if row.Deleted {
			rec.msg.Deleted = true
		}
	}

	for id, rec := range s.records {
		if seen[id] {
			continue
		}
		if rec.insVer <= epoch && rec.textVer <= epoch && rec.delVer <= epoch {
			delete(s.records, id)
		}
	}
}

// ApplyEvent upserts a single change-feed record. The feed delivers full
// post-mutation rows, so the whole row is taken, except that a deleted flag
// already observed true is never reverted.
func (s *Set) ApplyEvent(ev feed.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(ev.Record)
}

// Upsert merges a store-confirmed row from a local mutation. It carries the
// same freshness as a feed event.
func (s *Set) Upsert(msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.upsert(msg)
}

func (s *Set) upsert(msg models.Message) {
	s.clock++
	v := s.clock

	rec, ok := s.records[msg.ID]
	if !ok {
		s.arrivals++
		s.records[msg.ID] = &record{
			msg:     msg,
			arrival: s.arrivals,
			insVer:  v,
			textVer: v,
			delVer:  v,
		}
		return
	}

	wasDeleted := rec.msg.Deleted
	rec.msg = msg
	if wasDeleted {
		rec.msg.Deleted = true
	}
	rec.textVer = v
	rec.delVer = v
}

// AddPending appends an optimistic local entry for a send that is in flight.
// The returned local id resolves it once the store answers.
func (s *Set) AddPending(text string, authorID uint, authorName, authorEmail string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.localSeq++
	entry := Entry{
		Pending: true,
		LocalID: s.localSeq,
	}
	entry.Text = text
	entry.AuthorID = authorID
	entry.AuthorName = authorName
	entry.AuthorEmail = authorEmail
	entry.CreatedAt = time.Now()
	s.pendings = append(s.pendings, entry)
	return s.localSeq
}

// ConfirmPending replaces a pending entry with the authoritative row the
// store returned. Deduplication by id makes this safe even when the change
// feed delivered the same insert first.
func (s *Set) ConfirmPending(localID int64, msg models.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPending(localID)
	s.upsert(msg)
}

// DropPending discards a pending entry whose send failed.
func (s *Set) DropPending(localID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropPending(localID)
}

func (s *Set) dropPending(localID int64) {
	for i, p := range s.pendings {
		if p.LocalID == localID {
			s.pendings = append(s.pendings[:i], s.pendings[i+1:]...)
			return
		}
	}
}

// Get returns the confirmed message with the given id, if held.
func (s *Set) Get(id uint) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return models.Message{}, false
	}
	return rec.msg, true
}

// Current returns the merged view: confirmed messages ordered by creation
// time ascending (arrival order breaks ties), followed by pending entries in
// the order they were submitted.
func (s *Set) Current() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := make([]*record, 0, len(s.records))
	for _, rec := range s.records {
		recs = append(recs, rec)
	}
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].msg.CreatedAt.Equal(recs[j].msg.CreatedAt) {
			return recs[i].msg.CreatedAt.Before(recs[j].msg.CreatedAt)
		}
		return recs[i].arrival < recs[j].arrival
	})

	entries := make([]Entry, 0, len(recs)+len(s.pendings))
	for _, rec := range recs {
		entries = append(entries, Entry{Message: rec.msg})
	}
	entries = append(entries, s.pendings...)
	return entries
}
