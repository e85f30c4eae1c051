package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/repository"
)

// Store is an in-memory backing for the mock repositories. The three
// repositories share it so that moderation transitions can touch both
// comments and commenters under one lock, like the SQL transactions do.
type Store struct {
	mu sync.Mutex

	Commenters map[int64]*models.Commenter
	Comments   map[int64]*models.Comment
	Reviews    map[int64]*models.Review
	// Locales maps review ID to locale to content
	Locales map[int64]map[string]*models.ReviewContent
	Reports map[int64]map[string]bool

	// Error injection, returned by every call on the matching repository
	CommenterErr error
	CommentErr   error
	ReviewErr    error

	nextID int64
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		Commenters: make(map[int64]*models.Commenter),
		Comments:   make(map[int64]*models.Comment),
		Reviews:    make(map[int64]*models.Review),
		Locales:    make(map[int64]map[string]*models.ReviewContent),
		Reports:    make(map[int64]map[string]bool),
	}
}

// Repositories returns repositories backed by the store
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		Commenter: &MockCommenterRepository{s: s},
		Comment:   &MockCommentRepository{s: s},
		Review:    &MockReviewRepository{s: s},
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// AddReview seeds a review and its content in locale
func (s *Store) AddReview(r *models.Review, locale string, content *models.ReviewContent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	cp.Content = models.ReviewContent{}
	s.Reviews[r.ID] = &cp
	if content != nil {
		if s.Locales[r.ID] == nil {
			s.Locales[r.ID] = make(map[string]*models.ReviewContent)
		}
		s.Locales[r.ID][locale] = content.Clone()
	}
}

// AddComment seeds a comment and returns its ID
func (s *Store) AddComment(c *models.Comment) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c.ID == 0 {
		c.ID = s.id()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	cp := *c
	s.Comments[c.ID] = &cp
	return c.ID
}

// Commenter returns a copy of a commenter, or nil
func (s *Store) Commenter(id int64) *models.Commenter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.Commenters[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// CommenterByHash returns a copy of the commenter with hash, or nil
func (s *Store) CommenterByHash(hash string) *models.Commenter {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range s.Commenters {
		if c.EmailHash == hash {
			cp := *c
			return &cp
		}
	}
	return nil
}

// Comment returns a copy of a comment, or nil
func (s *Store) Comment(id int64) *models.Comment {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.Comments[id]; ok {
		cp := *c
		return &cp
	}
	return nil
}

// Content returns a copy of a review's content in locale, or nil
func (s *Store) Content(id int64, locale string) *models.ReviewContent {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.Locales[id][locale].Clone()
}

// MockCommenterRepository is an in-memory CommenterRepository
type MockCommenterRepository struct {
	s *Store
}

var _ repository.CommenterRepository = (*MockCommenterRepository)(nil)

func (m *MockCommenterRepository) Create(ctx context.Context, c *models.Commenter) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommenterErr != nil {
		return m.s.CommenterErr
	}
	for _, existing := range m.s.Commenters {
		if existing.EmailHash == c.EmailHash {
			return repository.ErrDuplicate
		}
	}
	c.ID = m.s.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.s.Commenters[c.ID] = &cp
	return nil
}

func (m *MockCommenterRepository) GetByID(ctx context.Context, id int64) (*models.Commenter, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommenterErr != nil {
		return nil, m.s.CommenterErr
	}
	c, ok := m.s.Commenters[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MockCommenterRepository) FindByEmailHash(ctx context.Context, hash string) (*models.Commenter, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommenterErr != nil {
		return nil, m.s.CommenterErr
	}
	for _, c := range m.s.Commenters {
		if c.EmailHash == hash {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockCommenterRepository) UpdateName(ctx context.Context, id int64, name string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommenterErr != nil {
		return m.s.CommenterErr
	}
	c, ok := m.s.Commenters[id]
	if !ok {
		return repository.ErrNotFound
	}
	c.Name = name
	c.UpdatedAt = time.Now()
	return nil
}

func (m *MockCommenterRepository) SetBanned(ctx context.Context, id int64, banned bool) (*models.Commenter, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommenterErr != nil {
		return nil, m.s.CommenterErr
	}
	c, ok := m.s.Commenters[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	c.Banned = banned
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

// MockCommentRepository is an in-memory CommentRepository
type MockCommentRepository struct {
	s *Store
}

var _ repository.CommentRepository = (*MockCommentRepository)(nil)

func (m *MockCommentRepository) Create(ctx context.Context, c *models.Comment) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommentErr != nil {
		return m.s.CommentErr
	}
	if _, ok := m.s.Reviews[c.ReviewID]; !ok {
		return repository.ErrNotFound
	}
	c.ID = m.s.id()
	c.CreatedAt = time.Now()
	c.UpdatedAt = c.CreatedAt
	cp := *c
	m.s.Comments[c.ID] = &cp
	return nil
}

func (m *MockCommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommentErr != nil {
		return nil, m.s.CommentErr
	}
	c, ok := m.s.Comments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// Find filters with repository.Matches and sorts by created_at, newest
// first unless opts.Sort says otherwise. Only created_at and id sorts are
// supported.
func (m *MockCommentRepository) Find(ctx context.Context, p repository.Predicate, opts repository.ListOptions) ([]*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommentErr != nil {
		return nil, m.s.CommentErr
	}

	var out []*models.Comment
	for _, c := range m.s.Comments {
		if repository.Matches(p, repository.CommentFields(c)) {
			cp := *c
			out = append(out, &cp)
		}
	}

	desc := opts.Sort == "" || strings.HasPrefix(opts.Sort, "-")
	byID := strings.TrimPrefix(opts.Sort, "-") == "id"
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		less := a.ID < b.ID
		if !byID && !a.CreatedAt.Equal(b.CreatedAt) {
			less = a.CreatedAt.Before(b.CreatedAt)
		}
		if desc {
			return !less
		}
		return less
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(out) {
			return nil, nil
		}
		out = out[opts.Offset:]
	}
	if opts.Limit > 0 && len(out) > opts.Limit {
		out = out[:opts.Limit]
	}
	return out, nil
}

func (m *MockCommentRepository) AddReport(ctx context.Context, commentID int64, reporterHash string, threshold int) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommentErr != nil {
		return nil, m.s.CommentErr
	}
	c, ok := m.s.Comments[commentID]
	if !ok || c.Status == models.CommentStatusRejected {
		return nil, repository.ErrNotFound
	}
	if m.s.Reports[commentID] == nil {
		m.s.Reports[commentID] = make(map[string]bool)
	}
	if m.s.Reports[commentID][reporterHash] {
		return nil, repository.ErrDuplicate
	}
	m.s.Reports[commentID][reporterHash] = true

	c.ReportCount++
	if c.ReportCount >= threshold {
		c.Status = models.CommentStatusReported
	}
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

func (m *MockCommentRepository) Approve(ctx context.Context, commentID int64, trustThreshold int) (*repository.ApproveResult, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommentErr != nil {
		return nil, m.s.CommentErr
	}
	c, ok := m.s.Comments[commentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c.Status == models.CommentStatusApproved {
		return nil, repository.ErrInvalidTransition
	}

	result := &repository.ApproveResult{PreviousStatus: c.Status}
	c.Status = models.CommentStatusApproved
	c.UpdatedAt = time.Now()
	cp := *c
	result.Comment = &cp

	if result.PreviousStatus == models.CommentStatusPending {
		if commenter, ok := m.s.Commenters[c.CommenterID]; ok {
			commenter.ApprovedCommentCount++
			if commenter.ApprovedCommentCount >= trustThreshold {
				commenter.Trusted = true
			}
			ccp := *commenter
			result.Commenter = &ccp
		}
	}
	return result, nil
}

func (m *MockCommentRepository) Reject(ctx context.Context, commentID int64) (*models.Comment, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.CommentErr != nil {
		return nil, m.s.CommentErr
	}
	c, ok := m.s.Comments[commentID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if c.Status == models.CommentStatusRejected {
		return nil, repository.ErrInvalidTransition
	}
	c.Status = models.CommentStatusRejected
	c.UpdatedAt = time.Now()
	cp := *c
	return &cp, nil
}

// MockReviewRepository is an in-memory ReviewRepository
type MockReviewRepository struct {
	s *Store
}

var _ repository.ReviewRepository = (*MockReviewRepository)(nil)

func (m *MockReviewRepository) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.ReviewErr != nil {
		return nil, m.s.ReviewErr
	}
	r, ok := m.s.Reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockReviewRepository) GetContent(ctx context.Context, id int64, locale string) (*models.ReviewContent, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.ReviewErr != nil {
		return nil, m.s.ReviewErr
	}
	content, ok := m.s.Locales[id][locale]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return content.Clone(), nil
}

func (m *MockReviewRepository) Update(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate) (*models.Review, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.ReviewErr != nil {
		return nil, m.s.ReviewErr
	}
	r, ok := m.s.Reviews[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if upd.Title != nil {
		r.Title = *upd.Title
	}
	if upd.Status != nil {
		r.Status = *upd.Status
		if r.Status == models.ReviewStatusPublished && r.PublishedAt == nil {
			now := time.Now()
			r.PublishedAt = &now
		}
	}
	if upd.Content != nil {
		if m.s.Locales[id] == nil {
			m.s.Locales[id] = make(map[string]*models.ReviewContent)
		}
		m.s.Locales[id][locale] = upd.Content.Clone()
	}
	r.UpdatedAt = time.Now()

	cp := *r
	cp.Locale = locale
	if content, ok := m.s.Locales[id][locale]; ok {
		cp.Content = *content.Clone()
	}
	return &cp, nil
}

func (m *MockReviewRepository) SaveLocaleContent(ctx context.Context, id int64, locale string, content *models.ReviewContent) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.ReviewErr != nil {
		return m.s.ReviewErr
	}
	if _, ok := m.s.Reviews[id]; !ok {
		return repository.ErrNotFound
	}
	if m.s.Locales[id] == nil {
		m.s.Locales[id] = make(map[string]*models.ReviewContent)
	}
	m.s.Locales[id][locale] = content.Clone()
	return nil
}

func (m *MockReviewRepository) IncrementCounter(ctx context.Context, id int64, field models.CounterField, delta int64) (int64, error) {
	return m.adjust(id, field, delta)
}

func (m *MockReviewRepository) DecrementCounter(ctx context.Context, id int64, field models.CounterField, delta int64) (int64, error) {
	return m.adjust(id, field, -delta)
}

func (m *MockReviewRepository) adjust(id int64, field models.CounterField, delta int64) (int64, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	if m.s.ReviewErr != nil {
		return 0, m.s.ReviewErr
	}
	r, ok := m.s.Reviews[id]
	if !ok {
		return 0, repository.ErrNotFound
	}

	var counter *int64
	switch field {
	case models.CounterViews:
		counter = &r.Views
	case models.CounterLikes:
		counter = &r.Likes
	default:
		return 0, repository.ErrInvalidQuery
	}
	*counter += delta
	if *counter < 0 {
		*counter = 0
	}
	return *counter, nil
}
