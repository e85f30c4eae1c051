package service

import (
	"context"
	"errors"

	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/translation"
	"github.com/review-pipeline/internal/validation"
	"github.com/rs/zerolog"
)

// UpdateResult is a saved review plus what the translation engine decided
type UpdateResult struct {
	Review      *models.Review       `json:"review"`
	Translation translation.Decision `json:"translation"`
}

// reviewService is the concrete implementation of ReviewService
type reviewService struct {
	reviews       repository.ReviewRepository
	translator    Translator
	defaultLocale string
	log           zerolog.Logger
}

func newReviewService(reviews repository.ReviewRepository, defaultLocale string, log zerolog.Logger) *reviewService {
	return &reviewService{
		reviews:       reviews,
		defaultLocale: defaultLocale,
		log:           log.With().Str("service", "review").Logger(),
	}
}

// SetTranslator sets the translator notified after primary-locale writes
func (s *reviewService) SetTranslator(t Translator) {
	s.translator = t
}

// GetReview reads a review in locale. A locale that has not been
// translated yet falls back to the primary locale. Drafts are visible to
// their author and administrators only.
func (s *reviewService) GetReview(ctx context.Context, id int64, locale string, viewer models.Viewer) (*models.Review, error) {
	if locale == "" {
		locale = s.defaultLocale
	}

	review, err := s.reviews.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if !review.Published() && !viewer.CanModerate(review.AuthorID) {
		return nil, ErrReviewNotFound
	}

	content, err := s.reviews.GetContent(ctx, id, locale)
	if errors.Is(err, repository.ErrNotFound) && locale != s.defaultLocale {
		locale = s.defaultLocale
		content, err = s.reviews.GetContent(ctx, id, locale)
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		content = &models.ReviewContent{}
	case err != nil:
		return nil, err
	}

	review.Locale = locale
	review.Content = *content
	return review, nil
}

// UpdateReview saves the primary locale and hands the result to the
// translator. It returns once the translation decision is made.
func (s *reviewService) UpdateReview(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate, viewer models.Viewer) (*UpdateResult, error) {
	if locale != "" && locale != s.defaultLocale {
		return nil, ErrLocaleReadOnly
	}
	if err := validation.ValidateReviewUpdate(upd); err != nil {
		return nil, err
	}

	prev, err := s.reviews.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}
	if !viewer.CanModerate(prev.AuthorID) {
		return nil, ErrForbidden
	}

	prevContent, err := s.reviews.GetContent(ctx, id, s.defaultLocale)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		prevContent = &models.ReviewContent{}
	case err != nil:
		return nil, err
	}
	prev.Locale = s.defaultLocale
	prev.Content = *prevContent

	review, err := s.reviews.Update(ctx, id, s.defaultLocale, upd)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}

	result := &UpdateResult{Review: review, Translation: translation.DecisionSkip}
	if s.translator != nil {
		result.Translation = s.translator.OnReviewPublished(ctx, review, prev)
	}

	s.log.Info().
		Int64("review_id", id).
		Str("status", string(review.Status)).
		Str("translation", string(result.Translation)).
		Msg("Review updated")
	return result, nil
}

// WriteLocale stores a secondary-locale copy. Only writes flagged
// SkipTranslation, i.e. those made by the translation engine, may touch
// a secondary locale, and they never notify the translator.
func (s *reviewService) WriteLocale(ctx context.Context, id int64, locale string, content *models.ReviewContent, opts models.WriteOptions) error {
	if locale == s.defaultLocale || !opts.SkipTranslation {
		return ErrLocaleReadOnly
	}

	err := s.reviews.SaveLocaleContent(ctx, id, locale, content)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrReviewNotFound
	}
	return err
}
