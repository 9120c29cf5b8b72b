// Package ratelimit limits how often a client may open SSH sessions, using
// a sliding window per remote host.
package ratelimit

import (
	"sync"
	"time"
)

// bucket holds the admission times of one client inside the window
type bucket struct {
	mu         sync.Mutex
	times      []time.Time
	lastAccess time.Time
}

// Decision is the outcome of one admission check
type Decision struct {
	Allowed   bool
	Remaining int
	// RetryAfter is how long a rejected client must wait
	RetryAfter time.Duration
}

// SlidingWindow admits at most limit events per client in any window
type SlidingWindow struct {
	buckets sync.Map // client -> *bucket
	window  time.Duration
	limit   int
	now     func() time.Time

	ticker  *time.Ticker
	stop    chan struct{}
	stopped sync.WaitGroup
}

// NewSlidingWindow creates a limiter. Idle clients are forgotten every
// cleanupInterval.
func NewSlidingWindow(window time.Duration, limit int, cleanupInterval time.Duration) *SlidingWindow {
	sw := &SlidingWindow{
		window: window,
		limit:  limit,
		now:    time.Now,
		ticker: time.NewTicker(cleanupInterval),
		stop:   make(chan struct{}),
	}

	sw.stopped.Add(1)
	go sw.cleanupLoop()

	return sw
}

// Allow records an event for client if it is under its limit
func (sw *SlidingWindow) Allow(client string) Decision {
	now := sw.now()

	v, _ := sw.buckets.LoadOrStore(client, &bucket{lastAccess: now})
	b := v.(*bucket)

	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastAccess = now
	b.expire(now.Add(-sw.window))

	if len(b.times) >= sw.limit {
		retry := b.times[0].Add(sw.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		return Decision{RetryAfter: retry}
	}

	b.times = append(b.times, now)
	return Decision{Allowed: true, Remaining: sw.limit - len(b.times)}
}

// expire drops admission times at or before cutoff
func (b *bucket) expire(cutoff time.Time) {
	keep := len(b.times)
	for i, t := range b.times {
		if t.After(cutoff) {
			keep = i
			break
		}
	}
	if keep > 0 {
		b.times = append([]time.Time(nil), b.times[keep:]...)
	}
}

func (sw *SlidingWindow) cleanupLoop() {
	defer sw.stopped.Done()

	for {
		select {
		case <-sw.ticker.C:
			sw.cleanup()
		case <-sw.stop:
			return
		}
	}
}

// cleanup removes clients idle for two windows
func (sw *SlidingWindow) cleanup() {
	cutoff := sw.now().Add(-2 * sw.window)

	sw.buckets.Range(func(key, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		idle := b.lastAccess.Before(cutoff)
		b.mu.Unlock()

		if idle {
			sw.buckets.Delete(key)
		}
		return true
	})
}

// Stop ends the cleanup goroutine
func (sw *SlidingWindow) Stop() {
	sw.ticker.Stop()
	close(sw.stop)
	sw.stopped.Wait()
}

// Stats contains statistics about the limiter
type Stats struct {
	Clients int
	Events  int
	Window  time.Duration
	Limit   int
}

// GetStats returns current statistics about the limiter
func (sw *SlidingWindow) GetStats() Stats {
	st := Stats{Window: sw.window, Limit: sw.limit}
	sw.buckets.Range(func(_, value any) bool {
		b := value.(*bucket)
		b.mu.Lock()
		st.Clients++
		st.Events += len(b.times)
		b.mu.Unlock()
		return true
	})
	return st
}
