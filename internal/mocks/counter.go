package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/review-pipeline/internal/ratelimit"
)

// MockCounter is an in-memory rate limit counter. Windows never elapse
// on their own; call Reset to start a fresh window.
type MockCounter struct {
	mu     sync.Mutex
	counts map[string]int64
	ttls   map[string]time.Duration

	// Err, when set, is returned by Incr so the limiter fails open
	Err error
}

// Verify interface compliance
var _ ratelimit.Counter = (*MockCounter)(nil)

func NewMockCounter() *MockCounter {
	return &MockCounter{
		counts: make(map[string]int64),
		ttls:   make(map[string]time.Duration),
	}
}

func (m *MockCounter) Incr(ctx context.Context, key string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return 0, m.Err
	}
	m.counts[key]++
	return m.counts[key], nil
}

func (m *MockCounter) Expire(ctx context.Context, key string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttls[key] = ttl
	return nil
}

func (m *MockCounter) TTL(ctx context.Context, key string) (time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ttl, ok := m.ttls[key]
	if !ok {
		return -1, nil
	}
	return ttl, nil
}

// Reset clears every counter
func (m *MockCounter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int64)
	m.ttls = make(map[string]time.Duration)
}
