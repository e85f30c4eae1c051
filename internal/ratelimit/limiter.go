// Package ratelimit implements fixed-window admission control on top of an
// atomic counter store. Any failure of the store admits the request.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/metrics"
	"github.com/rs/zerolog"
)

const keyPrefix = "ratelimit:"

// Counter is the subset of the fast key-value store the limiter needs.
// *cache.Client satisfies it.
type Counter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
}

// Result is the outcome of one admission check
type Result struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// Policy is a limit per window for one action
type Policy struct {
	Action string
	Limit  int
	Window time.Duration
}

// Policies groups the per-action policies used by the services
type Policies struct {
	Comment Policy
	Report  Policy
	Like    Policy
	View    Policy
}

// PoliciesFromConfig builds the action policies from configuration
func PoliciesFromConfig(cfg config.RateLimitConfig) Policies {
	return Policies{
		Comment: Policy{Action: "comment", Limit: cfg.CommentLimit, Window: cfg.CommentWindow},
		Report:  Policy{Action: "report", Limit: cfg.ReportLimit, Window: cfg.ReportWindow},
		Like:    Policy{Action: "like", Limit: cfg.LikeLimit, Window: cfg.LikeWindow},
		View:    Policy{Action: "view", Limit: cfg.ViewLimit, Window: cfg.ViewWindow},
	}
}

// Key builds the counter key for this policy. Parts are joined with ':'
// after the action name, e.g. like:203.0.113.9:42.
func (p Policy) Key(parts ...any) string {
	key := p.Action
	for _, part := range parts {
		key += ":" + fmt.Sprint(part)
	}
	return key
}

// Limiter admits or blocks actions per key
type Limiter struct {
	counter Counter
	log     zerolog.Logger
}

// New creates a limiter. A nil counter admits everything.
func New(counter Counter, log zerolog.Logger) *Limiter {
	return &Limiter{
		counter: counter,
		log:     log.With().Str("component", "ratelimit").Logger(),
	}
}

// Allow checks key against a policy and records the decision
func (l *Limiter) Allow(ctx context.Context, p Policy, key string) Result {
	res, failedOpen := l.admit(ctx, key, p.Limit, p.Window)

	outcome := "allowed"
	switch {
	case failedOpen:
		outcome = "fail_open"
	case !res.Allowed:
		outcome = "blocked"
	}
	metrics.RateLimitDecisionsTotal.WithLabelValues(p.Action, outcome).Inc()
	return res
}

// Admit increments the counter for key and reports whether the caller is
// still within limit for the current window.
func (l *Limiter) Admit(ctx context.Context, key string, limit int, window time.Duration) Result {
	res, _ := l.admit(ctx, key, limit, window)
	return res
}

func (l *Limiter) admit(ctx context.Context, key string, limit int, window time.Duration) (Result, bool) {
	open := Result{Allowed: true, Remaining: limit}
	if l == nil || l.counter == nil {
		return open, true
	}

	full := keyPrefix + key
	count, err := l.counter.Incr(ctx, full)
	if err != nil {
		l.log.Warn().Err(err).Str("key", full).Msg("Rate limit counter unavailable, allowing request")
		return open, true
	}

	if count == 1 {
		if err := l.counter.Expire(ctx, full, window); err != nil {
			l.log.Warn().Err(err).Str("key", full).Msg("Failed to set rate limit window")
		}
	}

	ttl, err := l.counter.TTL(ctx, full)
	switch {
	case err != nil:
		l.log.Warn().Err(err).Str("key", full).Msg("Failed to read rate limit TTL")
		ttl = window
	case ttl < 0:
		// The key lost its expiry (crash between INCR and EXPIRE);
		// re-arm it so the client is not blocked forever.
		if err := l.counter.Expire(ctx, full, window); err != nil {
			l.log.Warn().Err(err).Str("key", full).Msg("Failed to re-arm rate limit window")
		}
		ttl = window
	}

	remaining := limit - int(count)
	if remaining < 0 {
		remaining = 0
	}
	return Result{
		Allowed:   count <= int64(limit),
		Remaining: remaining,
		ResetIn:   ttl,
	}, false
}
