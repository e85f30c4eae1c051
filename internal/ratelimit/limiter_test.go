package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCounter struct {
	mu      sync.Mutex
	counts  map[string]int64
	ttls    map[string]time.Duration
	incrErr error
	skipTTL bool
	expires int
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{counts: map[string]int64{}, ttls: map[string]time.Duration{}}
}

func (f *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incrErr != nil {
		return 0, f.incrErr
	}
	f.counts[key]++
	if _, ok := f.ttls[key]; !ok {
		f.ttls[key] = -1
	}
	return f.counts[key], nil
}

func (f *fakeCounter) Expire(_ context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expires++
	if !f.skipTTL {
		f.ttls[key] = ttl
	}
	return nil
}

func (f *fakeCounter) TTL(_ context.Context, key string) (time.Duration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ttls[key], nil
}

func TestAdmit_WithinAndOverLimit(t *testing.T) {
	fc := newFakeCounter()
	l := New(fc, zerolog.Nop())
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res := l.Admit(ctx, "comment:1.2.3.4", 3, time.Minute)
		assert.True(t, res.Allowed, "attempt %d", i)
		assert.Equal(t, 3-i, res.Remaining)
		assert.Equal(t, time.Minute, res.ResetIn)
	}

	res := l.Admit(ctx, "comment:1.2.3.4", 3, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, int64(4), fc.counts["ratelimit:comment:1.2.3.4"])
}

func TestAdmit_KeysAreIndependent(t *testing.T) {
	l := New(newFakeCounter(), zerolog.Nop())
	ctx := context.Background()

	assert.True(t, l.Admit(ctx, "view:ip:1", 1, time.Minute).Allowed)
	assert.False(t, l.Admit(ctx, "view:ip:1", 1, time.Minute).Allowed)
	assert.True(t, l.Admit(ctx, "view:ip:2", 1, time.Minute).Allowed)
}

func TestAdmit_FailOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("nil counter", func(t *testing.T) {
		res := New(nil, zerolog.Nop()).Admit(ctx, "k", 5, time.Minute)
		assert.Equal(t, Result{Allowed: true, Remaining: 5}, res)
	})

	t.Run("nil limiter", func(t *testing.T) {
		var l *Limiter
		assert.True(t, l.Admit(ctx, "k", 5, time.Minute).Allowed)
	})

	t.Run("store error", func(t *testing.T) {
		fc := newFakeCounter()
		fc.incrErr = errors.New("connection refused")
		l := New(fc, zerolog.Nop())
		for i := 0; i < 10; i++ {
			res := l.Admit(ctx, "k", 1, time.Minute)
			assert.True(t, res.Allowed)
			assert.Equal(t, 1, res.Remaining)
			assert.Zero(t, res.ResetIn)
		}
	})
}

func TestAdmit_RearmsKeyWithoutExpiry(t *testing.T) {
	fc := newFakeCounter()
	ctx := context.Background()
	l := New(fc, zerolog.Nop())

	// simulate a counter left behind without TTL
	fc.counts["ratelimit:k"] = 7
	fc.ttls["ratelimit:k"] = -1

	res := l.Admit(ctx, "k", 3, time.Minute)
	assert.False(t, res.Allowed)
	assert.Equal(t, time.Minute, res.ResetIn)
	assert.Equal(t, time.Minute, fc.ttls["ratelimit:k"])
	assert.Equal(t, 1, fc.expires)
}

func TestAllow_UsesPolicy(t *testing.T) {
	l := New(newFakeCounter(), zerolog.Nop())
	p := Policy{Action: "like", Limit: 5, Window: time.Minute}
	key := p.Key("203.0.113.9", 42)
	assert.Equal(t, "like:203.0.113.9:42", key)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.True(t, l.Allow(ctx, p, key).Allowed)
	}
	assert.False(t, l.Allow(ctx, p, key).Allowed)
}

func TestAdmit_ConcurrentNeverOverAdmits(t *testing.T) {
	l := New(newFakeCounter(), zerolog.Nop())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.Admit(ctx, "k", 5, time.Minute).Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 5, allowed)
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"forwarded list", map[string]string{"X-Forwarded-For": "203.0.113.9, 10.0.0.1"}, "203.0.113.9"},
		{"forwarded single", map[string]string{"X-Forwarded-For": " 198.51.100.7 "}, "198.51.100.7"},
		{"real ip", map[string]string{"X-Real-IP": "192.0.2.1"}, "192.0.2.1"},
		{"forwarded wins", map[string]string{"X-Forwarded-For": "1.1.1.1", "X-Real-IP": "2.2.2.2"}, "1.1.1.1"},
		{"nothing", nil, "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}
			assert.Equal(t, tt.want, ClientIP(h))
		})
	}
}

func TestWaitMessage(t *testing.T) {
	assert.Equal(t, "Please wait 1 minute before trying again.", WaitMessage(time.Minute))
	assert.Equal(t, "Please wait 5 minutes before trying again.", WaitMessage(4*time.Minute+10*time.Second))
	assert.Equal(t, "Please wait 45 seconds before trying again.", WaitMessage(45*time.Second))
	assert.Equal(t, "Please wait 1 second before trying again.", WaitMessage(0))
}
