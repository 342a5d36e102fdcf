// Package room implements the message synchronization core for the single
// global chat room: a per-session merged view of the message table fed by an
// initial snapshot, a periodic reconciliation fetch and the change feed, plus
// the mutation path for send, edit and soft-delete.
package room

import (
	"context"
	"sync"
	"time"

	"globalroom/backend/internal/feed"
	"globalroom/backend/internal/gateway"
	"globalroom/backend/internal/session"
)

const defaultResyncInterval = 30 * time.Second

// Options tunes a room session.
type Options struct {
	// ResyncInterval is the period of the snapshot reconciliation fetch that
	// bounds staleness when feed events are dropped.
	ResyncInterval time.Duration
	// BannerTimeout is how long transient failure banners stay visible.
	BannerTimeout time.Duration
}

// Room is one user's live session in the global room. It owns the reconciler
// and coordinator bound to that user's identity and role, and the background
// loop consuming the change feed. Close tears everything down.
type Room struct {
	sess   session.Context
	rec    *Reconciler
	coord  *Coordinator
	banner *Banner

	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Open enters the room: it subscribes to the change feed, loads the initial
// snapshot and starts the reconciliation loop. The subscription and the loop
// live until Close is called or the parent context ends.
func Open(ctx context.Context, store gateway.MessageStore, f feed.Feed, sess session.Context, opts Options) (*Room, error) {
	interval := opts.ResyncInterval
	if interval <= 0 {
		interval = defaultResyncInterval
	}

	banner := NewBanner(opts.BannerTimeout)
	rec := NewReconciler(store, sess.Role)
	coord := NewCoordinator(store, rec.set, sess, banner)

	ctx, cancel := context.WithCancel(ctx)

	events, unsubscribe, err := f.Subscribe(ctx)
	if err != nil {
		cancel()
		banner.Close()
		return nil, &TransportError{Op: "subscribe", Err: err}
	}

	// A failed initial fetch is not fatal: the banner reports it and the
	// reconciliation loop converges on a later tick.
	if err := rec.LoadSnapshot(ctx); err != nil {
		banner.Report(err)
	}

	r := &Room{
		sess:   sess,
		rec:    rec,
		coord:  coord,
		banner: banner,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go r.run(ctx, events, unsubscribe, interval)
	return r, nil
}

func (r *Room) run(ctx context.Context, events <-chan feed.Event, unsubscribe func(), interval time.Duration) {
	defer close(r.done)
	defer unsubscribe()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.rec.LoadSnapshot(ctx); err != nil {
				r.banner.Report(err)
			}
		case ev, ok := <-events:
			if !ok {
				// Feed gone; keep the session alive on snapshots alone.
				r.banner.Report(&TransportError{Op: "receive", Err: errFeedClosed})
				events = nil
				continue
			}
			r.rec.ApplyEvent(ev)
		}
	}
}

// Session returns the identity the room was opened with.
func (r *Room) Session() session.Context {
	return r.sess
}

// Current returns the merged, ordered view of the room.
func (r *Room) Current() []Entry {
	return r.rec.Current()
}

// Coordinator returns the session's mutation API.
func (r *Room) Coordinator() *Coordinator {
	return r.coord
}

// Banner returns the session's transient error banner.
func (r *Room) Banner() *Banner {
	return r.banner
}

// Resync forces an immediate snapshot reconciliation.
func (r *Room) Resync(ctx context.Context) error {
	return r.rec.LoadSnapshot(ctx)
}

// Close ends the session, tearing down the feed subscription and the
// reconciliation loop. It is safe to call more than once.
func (r *Room) Close() {
	r.once.Do(func() {
		r.cancel()
		<-r.done
		r.banner.Close()
	})
}
