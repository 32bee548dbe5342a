// Package ratelimit provides per-client request rate limiting using a
// sliding window: a request is admitted only while fewer than the configured
// capacity were admitted within the trailing period. Supports both in-memory
// (single instance) and Redis (distributed) backends.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter is the interface rate-limiting backends implement. It reports
// whether the request is admitted, the remaining quota, and when the window
// frees up again.
type Limiter interface {
	Allow(ctx context.Context, clientKey string) (allowed bool, remaining int, resetAt time.Time, err error)
}

// InMemoryLimiter keeps one timestamped window per client key. Keys lock
// independently, so concurrent requests from different clients never contend
// on the same mutex.
type InMemoryLimiter struct {
	capacity int
	period   time.Duration

	mu      sync.RWMutex
	records map[string]*record

	now func() time.Time
}

type record struct {
	mu         sync.Mutex
	timestamps []time.Time
}

func NewInMemoryLimiter(capacity int, period time.Duration) *InMemoryLimiter {
	l := &InMemoryLimiter{
		capacity: capacity,
		period:   period,
		records:  make(map[string]*record),
		now:      time.Now,
	}
	go l.sweep()
	return l
}

func (l *InMemoryLimiter) Allow(ctx context.Context, clientKey string) (bool, int, time.Time, error) {
	rec := l.record(clientKey)

	rec.mu.Lock()
	defer rec.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.period)

	// Lazily drop everything outside the window.
	kept := rec.timestamps[:0]
	for _, ts := range rec.timestamps {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	rec.timestamps = kept

	if len(rec.timestamps) >= l.capacity {
		resetAt := now.Add(l.period)
		if len(rec.timestamps) > 0 {
			resetAt = rec.timestamps[0].Add(l.period)
		}
		return false, 0, resetAt, nil
	}

	rec.timestamps = append(rec.timestamps, now)
	remaining := l.capacity - len(rec.timestamps)

	return true, remaining, rec.timestamps[0].Add(l.period), nil
}

func (l *InMemoryLimiter) record(clientKey string) *record {
	l.mu.RLock()
	rec, ok := l.records[clientKey]
	l.mu.RUnlock()
	if ok {
		return rec
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if rec, ok = l.records[clientKey]; ok {
		return rec
	}
	rec = &record{}
	l.records[clientKey] = rec
	return rec
}

// sweep periodically evicts keys whose whole window has expired, bounding
// growth of the key map over the process lifetime.
func (l *InMemoryLimiter) sweep() {
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()

	for range ticker.C {
		l.sweepOnce()
	}
}

func (l *InMemoryLimiter) sweepOnce() {
	cutoff := l.now().Add(-l.period)

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, rec := range l.records {
		rec.mu.Lock()
		stale := len(rec.timestamps) == 0 || !rec.timestamps[len(rec.timestamps)-1].After(cutoff)
		rec.mu.Unlock()
		if stale {
			delete(l.records, key)
		}
	}
}
