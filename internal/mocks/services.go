package mocks

import (
	"context"
	"sync"

	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/service"
	"github.com/review-pipeline/internal/translation"
)

// MockCommentService is a mock implementation of CommentService
type MockCommentService struct {
	SubmitFunc  func(ctx context.Context, in service.SubmitCommentInput) (*service.SubmitResult, error)
	ReportFunc  func(ctx context.Context, commentID int64, reporterEmail, clientIP string) error
	ApproveFunc func(ctx context.Context, commentID int64) (*models.Comment, error)
	RejectFunc  func(ctx context.Context, commentID int64) (*models.Comment, error)
	BanFunc     func(ctx context.Context, commenterID int64, banned bool) (*models.Commenter, error)
	ListFunc    func(ctx context.Context, reviewID int64, viewer models.Viewer) ([]*models.Comment, error)

	mu        sync.Mutex
	Submitted []service.SubmitCommentInput
	Viewers   []models.Viewer
}

// Verify interface compliance
var _ service.CommentService = (*MockCommentService)(nil)

func NewMockCommentService() *MockCommentService {
	return &MockCommentService{}
}

func (m *MockCommentService) SubmitComment(ctx context.Context, in service.SubmitCommentInput) (*service.SubmitResult, error) {
	m.mu.Lock()
	m.Submitted = append(m.Submitted, in)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, in)
	}
	return &service.SubmitResult{
		CommentID: 1,
		Status:    models.CommentStatusApproved,
		Message:   "Your comment has been posted!",
	}, nil
}

func (m *MockCommentService) ReportComment(ctx context.Context, commentID int64, reporterEmail, clientIP string) error {
	if m.ReportFunc != nil {
		return m.ReportFunc(ctx, commentID, reporterEmail, clientIP)
	}
	return nil
}

func (m *MockCommentService) ApproveComment(ctx context.Context, commentID int64) (*models.Comment, error) {
	if m.ApproveFunc != nil {
		return m.ApproveFunc(ctx, commentID)
	}
	return &models.Comment{ID: commentID, Status: models.CommentStatusApproved}, nil
}

func (m *MockCommentService) RejectComment(ctx context.Context, commentID int64) (*models.Comment, error) {
	if m.RejectFunc != nil {
		return m.RejectFunc(ctx, commentID)
	}
	return &models.Comment{ID: commentID, Status: models.CommentStatusRejected}, nil
}

func (m *MockCommentService) SetCommenterBanned(ctx context.Context, commenterID int64, banned bool) (*models.Commenter, error) {
	if m.BanFunc != nil {
		return m.BanFunc(ctx, commenterID, banned)
	}
	return &models.Commenter{ID: commenterID, Banned: banned}, nil
}

func (m *MockCommentService) ListComments(ctx context.Context, reviewID int64, viewer models.Viewer) ([]*models.Comment, error) {
	m.mu.Lock()
	m.Viewers = append(m.Viewers, viewer)
	m.mu.Unlock()

	if m.ListFunc != nil {
		return m.ListFunc(ctx, reviewID, viewer)
	}
	return []*models.Comment{}, nil
}

// MockEngagementService is a mock implementation of EngagementService
type MockEngagementService struct {
	ToggleLikeFunc func(ctx context.Context, reviewID int64, increment bool, clientIP string) (int64, error)

	mu    sync.Mutex
	Views map[int64]int
}

// Verify interface compliance
var _ service.EngagementService = (*MockEngagementService)(nil)

func NewMockEngagementService() *MockEngagementService {
	return &MockEngagementService{Views: make(map[int64]int)}
}

func (m *MockEngagementService) ToggleLike(ctx context.Context, reviewID int64, increment bool, clientIP string) (int64, error) {
	if m.ToggleLikeFunc != nil {
		return m.ToggleLikeFunc(ctx, reviewID, increment, clientIP)
	}
	if increment {
		return 1, nil
	}
	return 0, nil
}

func (m *MockEngagementService) TrackView(ctx context.Context, reviewID int64, clientIP string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Views[reviewID]++
}

// ViewCount returns how many views were tracked for a review
func (m *MockEngagementService) ViewCount(reviewID int64) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Views[reviewID]
}

// MockReviewService is a mock implementation of ReviewService
type MockReviewService struct {
	GetFunc    func(ctx context.Context, id int64, locale string, viewer models.Viewer) (*models.Review, error)
	UpdateFunc func(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate, viewer models.Viewer) (*service.UpdateResult, error)
	Translator service.Translator
}

// Verify interface compliance
var _ service.ReviewService = (*MockReviewService)(nil)

func NewMockReviewService() *MockReviewService {
	return &MockReviewService{}
}

func (m *MockReviewService) GetReview(ctx context.Context, id int64, locale string, viewer models.Viewer) (*models.Review, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id, locale, viewer)
	}
	return &models.Review{ID: id, Status: models.ReviewStatusPublished, Locale: locale}, nil
}

func (m *MockReviewService) UpdateReview(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate, viewer models.Viewer) (*service.UpdateResult, error) {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, id, locale, upd, viewer)
	}
	return &service.UpdateResult{
		Review:      &models.Review{ID: id},
		Translation: translation.DecisionSkip,
	}, nil
}

func (m *MockReviewService) WriteLocale(ctx context.Context, id int64, locale string, content *models.ReviewContent, opts models.WriteOptions) error {
	return nil
}

func (m *MockReviewService) SetTranslator(t service.Translator) {
	m.Translator = t
}
