package repository

import (
	"context"
	"errors"

	"github.com/review-pipeline/internal/database"
	"github.com/review-pipeline/internal/models"
)

var (
	// ErrNotFound is returned when the addressed row does not exist
	ErrNotFound = errors.New("repository: not found")

	// ErrDuplicate is returned when a unique key already exists
	ErrDuplicate = errors.New("repository: duplicate")

	// ErrInvalidTransition is returned when a status change is not allowed
	// from the row's current status
	ErrInvalidTransition = errors.New("repository: invalid status transition")

	// ErrInvalidQuery is returned for predicates over unknown columns
	ErrInvalidQuery = errors.New("repository: invalid query")
)

// CommenterRepository is the trust ledger
type CommenterRepository interface {
	Create(ctx context.Context, c *models.Commenter) error
	GetByID(ctx context.Context, id int64) (*models.Commenter, error)
	FindByEmailHash(ctx context.Context, hash string) (*models.Commenter, error)
	UpdateName(ctx context.Context, id int64, name string) error
	SetBanned(ctx context.Context, id int64, banned bool) (*models.Commenter, error)
}

// CommentRepository stores comments and applies moderation transitions
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	Find(ctx context.Context, p Predicate, opts ListOptions) ([]*models.Comment, error)
	AddReport(ctx context.Context, commentID int64, reporterHash string, threshold int) (*models.Comment, error)
	Approve(ctx context.Context, commentID int64, trustThreshold int) (*ApproveResult, error)
	Reject(ctx context.Context, commentID int64) (*models.Comment, error)
}

// ReviewRepository reads reviews, writes locale copies and maintains the
// engagement counters.
type ReviewRepository interface {
	GetByID(ctx context.Context, id int64) (*models.Review, error)
	GetContent(ctx context.Context, id int64, locale string) (*models.ReviewContent, error)
	Update(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate) (*models.Review, error)
	SaveLocaleContent(ctx context.Context, id int64, locale string, content *models.ReviewContent) error
	IncrementCounter(ctx context.Context, id int64, field models.CounterField, delta int64) (int64, error)
	DecrementCounter(ctx context.Context, id int64, field models.CounterField, delta int64) (int64, error)
}

// ApproveResult describes an approve transition
type ApproveResult struct {
	Comment        *models.Comment
	PreviousStatus models.CommentStatus
	// Commenter is set only when the transition counted toward trust
	Commenter *models.Commenter
}

// Repositories holds all repository interfaces
type Repositories struct {
	Commenter CommenterRepository
	Comment   CommentRepository
	Review    ReviewRepository
}

// New creates all repositories with the given database connection
func New(db *database.DB) *Repositories {
	return &Repositories{
		Commenter: NewCommenterRepo(db),
		Comment:   NewCommentRepo(db),
		Review:    NewReviewRepo(db),
	}
}
