package room

import (
	"sync"
	"time"
)

const defaultBannerTimeout = 5 * time.Second

// Banner holds the transient user-facing error message. A reported failure
// stays visible for the configured timeout and then clears itself; reporting
// again restarts the clock.
type Banner struct {
	mu      sync.Mutex
	message string
	timer   *time.Timer
	timeout time.Duration
}

// NewBanner creates a banner with the given auto-clear timeout.
func NewBanner(timeout time.Duration) *Banner {
	if timeout <= 0 {
		timeout = defaultBannerTimeout
	}
	return &Banner{timeout: timeout}
}

// Report shows the error's message until the timeout elapses.
func (b *Banner) Report(err error) {
	if err == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.message = err.Error()
	if b.timer != nil {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(b.timeout, b.clear)
}

func (b *Banner) clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.message = ""
}

// Current returns the visible message, if any.
func (b *Banner) Current() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.message, b.message != ""
}

// Close stops the pending clear timer.
func (b *Banner) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	b.message = ""
}
