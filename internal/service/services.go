package service

import (
	"context"

	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/translation"
	"github.com/rs/zerolog"
)

// CommentService defines the comment moderation operations
type CommentService interface {
	SubmitComment(ctx context.Context, in SubmitCommentInput) (*SubmitResult, error)
	ReportComment(ctx context.Context, commentID int64, reporterEmail, clientIP string) error
	ApproveComment(ctx context.Context, commentID int64) (*models.Comment, error)
	RejectComment(ctx context.Context, commentID int64) (*models.Comment, error)
	SetCommenterBanned(ctx context.Context, commenterID int64, banned bool) (*models.Commenter, error)
	ListComments(ctx context.Context, reviewID int64, viewer models.Viewer) ([]*models.Comment, error)
}

// EngagementService defines the like and view counters
type EngagementService interface {
	ToggleLike(ctx context.Context, reviewID int64, increment bool, clientIP string) (int64, error)
	TrackView(ctx context.Context, reviewID int64, clientIP string)
}

// ReviewService defines review reads and primary-locale writes
type ReviewService interface {
	GetReview(ctx context.Context, id int64, locale string, viewer models.Viewer) (*models.Review, error)
	UpdateReview(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate, viewer models.Viewer) (*UpdateResult, error)
	WriteLocale(ctx context.Context, id int64, locale string, content *models.ReviewContent, opts models.WriteOptions) error
	SetTranslator(t Translator)
}

// Translator is notified after every primary-locale write
type Translator interface {
	OnReviewPublished(ctx context.Context, review, prev *models.Review) translation.Decision
}

// TranslationEngine is a Translator that writes its results back
// through a locale writer
type TranslationEngine interface {
	Translator
	SetWriter(w translation.LocaleWriter)
}

// Services holds all service interfaces
type Services struct {
	Comment    CommentService
	Engagement EngagementService
	Review     ReviewService
}

// NewServices creates all services. engine may be nil, in which case
// reviews are never translated.
func NewServices(repos *repository.Repositories, limiter *ratelimit.Limiter, engine TranslationEngine, cfg *config.Config, log zerolog.Logger) *Services {
	policies := ratelimit.PoliciesFromConfig(cfg.RateLimit)

	commentSvc := newCommentService(repos, limiter, policies, cfg.Moderation, log)
	engagementSvc := newEngagementService(repos.Review, limiter, policies, log)
	reviewSvc := newReviewService(repos.Review, cfg.Translation.DefaultLocale, log)

	// The engine writes translations through the review service, which in
	// turn notifies the engine of primary-locale writes
	if engine != nil {
		engine.SetWriter(reviewSvc)
		reviewSvc.SetTranslator(engine)
	}

	return &Services{
		Comment:    commentSvc,
		Engagement: engagementSvc,
		Review:     reviewSvc,
	}
}
