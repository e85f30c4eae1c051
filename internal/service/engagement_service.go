package service

import (
	"context"
	"errors"

	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/repository"
	"github.com/rs/zerolog"
)

// engagementService is the concrete implementation of EngagementService
type engagementService struct {
	reviews  repository.ReviewRepository
	limiter  *ratelimit.Limiter
	policies ratelimit.Policies
	log      zerolog.Logger
}

func newEngagementService(reviews repository.ReviewRepository, limiter *ratelimit.Limiter, policies ratelimit.Policies, log zerolog.Logger) *engagementService {
	return &engagementService{
		reviews:  reviews,
		limiter:  limiter,
		policies: policies,
		log:      log.With().Str("service", "engagement").Logger(),
	}
}

// ToggleLike adds or removes one like and returns the new count. The
// store applies the change atomically; likes never go below zero.
func (s *engagementService) ToggleLike(ctx context.Context, reviewID int64, increment bool, clientIP string) (int64, error) {
	policy := s.policies.Like
	if res := s.limiter.Allow(ctx, policy, policy.Key(clientIP, reviewID)); !res.Allowed {
		return 0, &RateLimitError{Action: policy.Action, RetryAfter: res.ResetIn}
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !review.Published()) {
		return 0, ErrReviewNotFound
	}
	if err != nil {
		return 0, err
	}

	var likes int64
	if increment {
		likes, err = s.reviews.IncrementCounter(ctx, reviewID, models.CounterLikes, 1)
	} else {
		likes, err = s.reviews.DecrementCounter(ctx, reviewID, models.CounterLikes, 1)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return 0, ErrReviewNotFound
	}
	if err != nil {
		return 0, err
	}
	return likes, nil
}

// TrackView counts a view of a published review at most once per client
// and review per window.
// Failures are logged and never reach the reader.
func (s *engagementService) TrackView(ctx context.Context, reviewID int64, clientIP string) {
	policy := s.policies.View
	if res := s.limiter.Allow(ctx, policy, policy.Key(clientIP, reviewID)); !res.Allowed {
		return
	}

	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil || !review.Published() {
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			s.log.Warn().Err(err).Int64("review_id", reviewID).Msg("Failed to load review for view")
		}
		return
	}

	if _, err := s.reviews.IncrementCounter(ctx, reviewID, models.CounterViews, 1); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return
		}
		s.log.Warn().Err(err).Int64("review_id", reviewID).Msg("Failed to track view")
	}
}
