package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/review-pipeline/internal/config"
	"github.com/review-pipeline/internal/metrics"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/repository"
	"github.com/review-pipeline/internal/spam"
	"github.com/review-pipeline/internal/validation"
	"github.com/rs/zerolog"
)

// listLimit caps how many comments a single listing returns
const listLimit = 100

// SubmitCommentInput is a comment submission
type SubmitCommentInput struct {
	Name     string
	Email    string
	Content  string
	ReviewID int64
	ClientIP string
}

// SubmitResult is the outcome of an accepted submission
type SubmitResult struct {
	CommentID int64                `json:"comment_id"`
	Status    models.CommentStatus `json:"status"`
	Message   string               `json:"message"`
}

// commentService is the concrete implementation of CommentService
type commentService struct {
	commenters repository.CommenterRepository
	comments   repository.CommentRepository
	reviews    repository.ReviewRepository
	limiter    *ratelimit.Limiter
	policies   ratelimit.Policies
	moderation config.ModerationConfig
	log        zerolog.Logger
}

func newCommentService(repos *repository.Repositories, limiter *ratelimit.Limiter, policies ratelimit.Policies, moderation config.ModerationConfig, log zerolog.Logger) *commentService {
	return &commentService{
		commenters: repos.Commenter,
		comments:   repos.Comment,
		reviews:    repos.Review,
		limiter:    limiter,
		policies:   policies,
		moderation: moderation,
		log:        log.With().Str("service", "comment").Logger(),
	}
}

// HashEmail derives the commenter identity from an email address. The
// plaintext address is never stored.
func HashEmail(email string) string {
	sum := sha256.Sum256([]byte(validation.NormalizeEmail(email)))
	return hex.EncodeToString(sum[:])
}

// SubmitComment accepts a comment. Clean content is published at once;
// content the spam classifier flags waits for an administrator.
func (s *commentService) SubmitComment(ctx context.Context, in SubmitCommentInput) (*SubmitResult, error) {
	policy := s.policies.Comment
	if res := s.limiter.Allow(ctx, policy, policy.Key(in.ClientIP)); !res.Allowed {
		metrics.CommentsRejectedTotal.WithLabelValues("rate_limited").Inc()
		return nil, &RateLimitError{Action: policy.Action, RetryAfter: res.ResetIn}
	}

	if err := validation.ValidateComment(validation.CommentInput{
		Name:     in.Name,
		Email:    in.Email,
		Content:  in.Content,
		ReviewID: in.ReviewID,
	}); err != nil {
		metrics.CommentsRejectedTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	review, err := s.reviews.GetByID(ctx, in.ReviewID)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && !review.Published()) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	content := strings.TrimSpace(in.Content)
	hash := HashEmail(in.Email)

	commenter, err := s.commenters.FindByEmailHash(ctx, hash)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if commenter != nil && commenter.Banned {
		metrics.CommentsRejectedTotal.WithLabelValues("banned").Inc()
		s.log.Info().Int64("commenter_id", commenter.ID).Msg("Rejected comment from banned commenter")
		return nil, ErrBanned
	}

	status := models.CommentStatusApproved
	if reasons := spam.Reasons(content); len(reasons) > 0 {
		status = models.CommentStatusPending
		s.log.Info().
			Int64("review_id", in.ReviewID).
			Strs("reasons", reasons).
			Msg("Comment held for moderation")
	}

	commenter, err = s.resolveCommenter(ctx, commenter, hash, name)
	if err != nil {
		return nil, err
	}

	comment := &models.Comment{
		AuthorName:  name,
		Content:     content,
		ReviewID:    in.ReviewID,
		CommenterID: commenter.ID,
		Status:      status,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}

	metrics.CommentsSubmittedTotal.WithLabelValues(string(status)).Inc()
	s.log.Info().
		Int64("comment_id", comment.ID).
		Int64("review_id", comment.ReviewID).
		Str("status", string(status)).
		Msg("Comment submitted")

	result := &SubmitResult{CommentID: comment.ID, Status: status}
	if status == models.CommentStatusApproved {
		result.Message = "Your comment has been posted!"
	} else {
		result.Message = "Your comment has been submitted and is pending moderation. It will appear once approved."
	}
	return result, nil
}

// resolveCommenter creates the commenter on first submission or updates
// the display name (last write wins). Two first submissions racing on
// one email resolve to the row that won the unique insert.
func (s *commentService) resolveCommenter(ctx context.Context, existing *models.Commenter, hash, name string) (*models.Commenter, error) {
	if existing != nil {
		if existing.Name != name {
			if err := s.commenters.UpdateName(ctx, existing.ID, name); err != nil {
				return nil, err
			}
			existing.Name = name
		}
		return existing, nil
	}

	created := &models.Commenter{Name: name, EmailHash: hash}
	err := s.commenters.Create(ctx, created)
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, repository.ErrDuplicate) {
		return nil, err
	}

	winner, err := s.commenters.FindByEmailHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("reload commenter after race: %w", err)
	}
	if winner.Banned {
		return nil, ErrBanned
	}
	return winner, nil
}

// ReportComment records a report. Each reporter identity counts once.
func (s *commentService) ReportComment(ctx context.Context, commentID int64, reporterEmail, clientIP string) error {
	policy := s.policies.Report
	if res := s.limiter.Allow(ctx, policy, policy.Key(clientIP)); !res.Allowed {
		return &RateLimitError{Action: policy.Action, RetryAfter: res.ResetIn}
	}

	if err := validation.ValidateReport(commentID, reporterEmail); err != nil {
		return err
	}

	comment, err := s.comments.AddReport(ctx, commentID, HashEmail(reporterEmail), s.moderation.ReportThreshold)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCommentNotFound
	case errors.Is(err, repository.ErrDuplicate):
		return ErrAlreadyReported
	case err != nil:
		return err
	}

	metrics.CommentReportsTotal.Inc()
	ev := s.log.Info().
		Int64("comment_id", comment.ID).
		Int("report_count", comment.ReportCount)
	if comment.Status == models.CommentStatusReported {
		metrics.CommentTransitionsTotal.WithLabelValues(string(models.CommentStatusReported)).Inc()
		ev = ev.Str("status", string(comment.Status))
	}
	ev.Msg("Comment reported")
	return nil
}

// ApproveComment publishes a pending or reported comment
func (s *commentService) ApproveComment(ctx context.Context, commentID int64) (*models.Comment, error) {
	res, err := s.comments.Approve(ctx, commentID, s.moderation.TrustThreshold)
	if err != nil {
		return nil, s.mapTransitionErr(err)
	}

	metrics.CommentTransitionsTotal.WithLabelValues(string(models.CommentStatusApproved)).Inc()
	ev := s.log.Info().
		Int64("comment_id", commentID).
		Str("from", string(res.PreviousStatus))
	if res.Commenter != nil {
		ev = ev.
			Int64("commenter_id", res.Commenter.ID).
			Int("approved_count", res.Commenter.ApprovedCommentCount).
			Bool("trusted", res.Commenter.Trusted)
	}
	ev.Msg("Comment approved")
	return res.Comment, nil
}

// RejectComment hides a comment permanently
func (s *commentService) RejectComment(ctx context.Context, commentID int64) (*models.Comment, error) {
	comment, err := s.comments.Reject(ctx, commentID)
	if err != nil {
		return nil, s.mapTransitionErr(err)
	}

	metrics.CommentTransitionsTotal.WithLabelValues(string(models.CommentStatusRejected)).Inc()
	s.log.Info().Int64("comment_id", commentID).Msg("Comment rejected")
	return comment, nil
}

func (s *commentService) mapTransitionErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrCommentNotFound
	case errors.Is(err, repository.ErrInvalidTransition):
		return ErrInvalidTransition
	}
	return err
}

// SetCommenterBanned sets or clears a commenter's ban
func (s *commentService) SetCommenterBanned(ctx context.Context, commenterID int64, banned bool) (*models.Commenter, error) {
	commenter, err := s.commenters.SetBanned(ctx, commenterID, banned)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrCommenterNotFound
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().Int64("commenter_id", commenterID).Bool("banned", banned).Msg("Commenter ban updated")
	return commenter, nil
}

// ListComments returns the newest comments on a review. Public viewers
// see approved comments only; administrators and the review's author see
// every status.
func (s *commentService) ListComments(ctx context.Context, reviewID int64, viewer models.Viewer) ([]*models.Comment, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, err
	}

	privileged := viewer.CanModerate(review.AuthorID)
	if !privileged && !review.Published() {
		return nil, ErrReviewNotFound
	}

	pred := repository.Eq("review_id", reviewID)
	if !privileged {
		pred = repository.And(pred, repository.Eq("status", models.CommentStatusApproved))
	}

	comments, err := s.comments.Find(ctx, pred, repository.ListOptions{Limit: listLimit, Sort: "-created_at"})
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	return comments, nil
}
