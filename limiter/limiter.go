// Package limiter provides a sliding-window, per-key attempt limiter.
package limiter

import (
	"sync"
	"time"
)

// Limiter allows at most Max attempts per key within Window.
type Limiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
	max      int
	window   time.Duration
	now      func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a Limiter and starts a background sweep that drops expired
// keys every window. Call Stop to end the sweep.
func New(max int, window time.Duration) *Limiter {
	l := &Limiter{
		attempts: make(map[string][]time.Time),
		max:      max,
		window:   window,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	go l.sweep()
	return l
}

// Stop ends the background sweep. Safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
}

func (l *Limiter) sweep() {
	ticker := time.NewTicker(l.window)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Prune()
		}
	}
}

// Prune removes expired attempts and forgets keys with none left.
func (l *Limiter) Prune() {
	cutoff := l.now().Add(-l.window)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, hits := range l.attempts {
		kept := keepAfter(hits, cutoff)
		if len(kept) == 0 {
			delete(l.attempts, key)
		} else {
			l.attempts[key] = kept
		}
	}
}

// Allow reports whether key is under the limit and, if so, records an attempt.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.current(key)
	if len(kept) >= l.max {
		return false
	}
	l.attempts[key] = append(kept, l.now())
	return true
}

// Check reports whether key is under the limit without recording anything.
// Login flows call Record only when the attempt fails.
func (l *Limiter) Check(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.current(key)) < l.max
}

// Record registers an attempt for key.
func (l *Limiter) Record(key string) {
	l.mu.Lock()
	l.attempts[key] = append(l.attempts[key], l.now())
	l.mu.Unlock()
}

// Keys returns how many keys are currently tracked.
func (l *Limiter) Keys() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.attempts)
}

// current must be called with mu held.
func (l *Limiter) current(key string) []time.Time {
	kept := keepAfter(l.attempts[key], l.now().Add(-l.window))
	if len(kept) == 0 {
		delete(l.attempts, key)
		return nil
	}
	l.attempts[key] = kept
	return kept
}

func keepAfter(hits []time.Time, cutoff time.Time) []time.Time {
	kept := hits[:0]
	for _, t := range hits {
		if t.After(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
