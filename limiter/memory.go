package limiter

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const shardCount = 64

type window struct {
	attempts int
	start    time.Time
}

type shard struct {
	mu      sync.Mutex
	windows map[string]*window
}

// MemoryLimiter is an in-process fixed-window attempt limiter.
//
// Keys are spread across shards so attempts against unrelated codes never
// contend on one lock; within a shard the mutex makes the check-and-increment
// atomic. State is process-local; use RedisLimiter when several replicas must
// share one budget.
type MemoryLimiter struct {
	maxAttempts int
	windowDur   time.Duration
	shards      [shardCount]shard
	stop        chan struct{}
	stopOnce    sync.Once
}

// NewMemoryLimiter constructs a MemoryLimiter and starts its sweep goroutine.
// Call Close to release the sweeper.
func NewMemoryLimiter(maxAttempts int, windowDur time.Duration) *MemoryLimiter {
	m := &MemoryLimiter{
		maxAttempts: maxAttempts,
		windowDur:   windowDur,
		stop:        make(chan struct{}),
	}
	for i := range m.shards {
		m.shards[i].windows = make(map[string]*window)
	}
	go m.sweep()
	return m
}

// TryConsume charges one attempt for the (ipHash, code) pair.
func (m *MemoryLimiter) TryConsume(_ context.Context, ipHash, code string) (Decision, error) {
	key := attemptKey(ipHash, code)
	s := &m.shards[shardFor(key)]

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	w, exists := s.windows[key]
	if !exists || now.Sub(w.start) >= m.windowDur {
		// New window, or the old one elapsed and is treated as absent
		s.windows[key] = &window{attempts: 1, start: now}
		return Decision{Allowed: true, Remaining: m.maxAttempts - 1}, nil
	}

	if w.attempts < m.maxAttempts {
		w.attempts++
		return Decision{Allowed: true, Remaining: m.maxAttempts - w.attempts}, nil
	}

	// Exhausted: do not increment further
	return Decision{
		Allowed:    false,
		Remaining:  0,
		RetryAfter: w.start.Add(m.windowDur).Sub(now),
	}, nil
}

// Close stops the background sweeper.
func (m *MemoryLimiter) Close() {
	m.stopOnce.Do(func() { close(m.stop) })
}

// sweep periodically drops expired windows so storage stays bounded even for
// keys that are never touched again.
func (m *MemoryLimiter) sweep() {
	ticker := time.NewTicker(m.windowDur)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			now := time.Now()
			for i := range m.shards {
				s := &m.shards[i]
				s.mu.Lock()
				for key, w := range s.windows {
					if now.Sub(w.start) >= m.windowDur {
						delete(s.windows, key)
					}
				}
				s.mu.Unlock()
			}
		}
	}
}

func shardFor(key string) uint32 {
	h := fnv.New32a()
	h.Write([]byte(key))
	return h.Sum32() % shardCount
}
