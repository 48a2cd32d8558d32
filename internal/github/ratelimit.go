package github

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"
)

// rateLimitTracker keeps the latest X-RateLimit-* values seen. Before each
// request it blocks until the reset time if the quota is known to be spent.
type rateLimitTracker struct {
	mu        sync.Mutex
	remaining int
	reset     time.Time
	known     bool

	nowFunc   func() time.Time
	sleepFunc func(ctx context.Context, d time.Duration) error
}

func newRateLimitTracker() *rateLimitTracker {
	return &rateLimitTracker{nowFunc: time.Now, sleepFunc: timeSleep}
}

// update records rate limit state from response headers.
func (t *rateLimitTracker) update(header http.Header) {
	remaining, err := strconv.Atoi(header.Get("X-RateLimit-Remaining"))
	if err != nil {
		return
	}

	resetUnix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.remaining = remaining
	t.reset = time.Unix(resetUnix, 0)
	t.known = true
}

// snapshot returns the last seen remaining quota.
func (t *rateLimitTracker) snapshot() (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.remaining, t.known
}

// wait blocks until the reset time when the quota is exhausted.
func (t *rateLimitTracker) wait(ctx context.Context) error {
	t.mu.Lock()
	if !t.known || t.remaining > 0 {
		t.mu.Unlock()
		return nil
	}

	d := t.reset.Sub(t.nowFunc())
	t.mu.Unlock()

	if d <= 0 {
		return nil
	}

	return t.sleepFunc(ctx, d)
}

// retryAfter computes the backoff for a rate-limited response: Retry-After
// for secondary limits, otherwise the primary reset timestamp.
func (t *rateLimitTracker) retryAfter(header http.Header) time.Duration {
	if ra := header.Get("Retry-After"); ra != "" {
		if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
			return time.Duration(seconds) * time.Second
		}
	}

	if resetUnix, err := strconv.ParseInt(header.Get("X-RateLimit-Reset"), 10, 64); err == nil {
		if d := time.Unix(resetUnix, 0).Sub(t.nowFunc()); d > 0 {
			return d
		}
	}

	return 0
}

// timeSleep waits for the given duration or until the context is canceled.
func timeSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
