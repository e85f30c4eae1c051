package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/review-pipeline/internal/database"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/richtext"
)

const reviewColumns = `id, title, slug, author_id, status, views, likes, published_at, created_at, updated_at`

// counterColumns whitelists the columns the counter operations may touch
var counterColumns = map[models.CounterField]bool{
	models.CounterViews: true,
	models.CounterLikes: true,
}

// reviewRepo is the concrete implementation of ReviewRepository
type reviewRepo struct {
	db *database.DB
}

// NewReviewRepo creates a new review repository
func NewReviewRepo(db *database.DB) ReviewRepository {
	return &reviewRepo{db: db}
}

func scanReview(s rowScanner) (*models.Review, error) {
	var (
		r           models.Review
		publishedAt sql.NullTime
	)
	err := s.Scan(
		&r.ID, &r.Title, &r.Slug, &r.AuthorID, &r.Status, &r.Views, &r.Likes,
		&publishedAt, &r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if publishedAt.Valid {
		r.PublishedAt = &publishedAt.Time
	}
	return &r, nil
}

// GetByID retrieves the review row without locale content
func (r *reviewRepo) GetByID(ctx context.Context, id int64) (*models.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`
	review, err := scanReview(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get review: %w", err)
	}
	return review, err
}

// GetContent retrieves the content of one locale. ErrNotFound means the
// locale copy has never been written.
func (r *reviewRepo) GetContent(ctx context.Context, id int64, locale string) (*models.ReviewContent, error) {
	return getContent(ctx, r.db, id, locale)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getContent(ctx context.Context, q queryRower, id int64, locale string) (*models.ReviewContent, error) {
	query := `
		SELECT review_content, what_i_loved, what_could_be_better, perfect_for, favorite_quotes
		FROM review_locales WHERE review_id = $1 AND locale = $2`

	var raw [4][]byte
	var quotes []byte
	err := q.QueryRowContext(ctx, query, id, locale).Scan(&raw[0], &raw[1], &raw[2], &raw[3], &quotes)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get review content: %w", err)
	}

	var content models.ReviewContent
	for i, f := range content.RichFields() {
		doc, err := decodeDoc(raw[i])
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", f.Name, err)
		}
		*f.Doc = doc
	}
	if len(quotes) > 0 {
		if err := json.Unmarshal(quotes, &content.FavoriteQuotes); err != nil {
			return nil, fmt.Errorf("decode favorite_quotes: %w", err)
		}
	}
	return &content, nil
}

// Update writes title/status on the review row and, when present, the
// content of the given locale. published_at is stamped on the first
// publish.
func (r *reviewRepo) Update(ctx context.Context, id int64, locale string, upd *models.ReviewUpdate) (*models.Review, error) {
	var review *models.Review

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		query := `
			UPDATE reviews SET
				title = COALESCE($2, title),
				status = COALESCE($3::review_status, status),
				published_at = CASE
					WHEN COALESCE($3::review_status, status) = 'published' AND published_at IS NULL THEN NOW()
					ELSE published_at
				END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING ` + reviewColumns

		var title, status sql.NullString
		if upd.Title != nil {
			title = sql.NullString{String: *upd.Title, Valid: true}
		}
		if upd.Status != nil {
			status = sql.NullString{String: string(*upd.Status), Valid: true}
		}

		var err error
		review, err = scanReview(tx.QueryRowContext(ctx, query, id, title, status))
		if err != nil {
			return err
		}

		if upd.Content != nil {
			if err := upsertContent(ctx, tx, id, locale, upd.Content); err != nil {
				return err
			}
		}

		content, err := getContent(ctx, tx, id, locale)
		switch {
		case errors.Is(err, ErrNotFound):
			review.Content = models.ReviewContent{}
		case err != nil:
			return err
		default:
			review.Content = *content
		}
		review.Locale = locale
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("update review: %w", err)
	}
	return review, nil
}

// SaveLocaleContent replaces the content of one locale in a single write
func (r *reviewRepo) SaveLocaleContent(ctx context.Context, id int64, locale string, content *models.ReviewContent) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		return upsertContent(ctx, tx, id, locale, content)
	})
	if err != nil {
		if database.IsForeignKeyViolation(err) {
			return ErrNotFound
		}
		return fmt.Errorf("save locale content: %w", err)
	}
	return nil
}

func upsertContent(ctx context.Context, tx *sql.Tx, id int64, locale string, content *models.ReviewContent) error {
	args := []any{id, locale}
	for _, f := range content.RichFields() {
		v, err := encodeDoc(*f.Doc)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.Name, err)
		}
		args = append(args, v)
	}

	quotes := content.FavoriteQuotes
	if quotes == nil {
		quotes = []models.Quote{}
	}
	q, err := json.Marshal(quotes)
	if err != nil {
		return fmt.Errorf("encode favorite_quotes: %w", err)
	}
	args = append(args, string(q))

	_, err = tx.ExecContext(ctx, `
		INSERT INTO review_locales
			(review_id, locale, review_content, what_i_loved, what_could_be_better, perfect_for, favorite_quotes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (review_id, locale) DO UPDATE SET
			review_content = EXCLUDED.review_content,
			what_i_loved = EXCLUDED.what_i_loved,
			what_could_be_better = EXCLUDED.what_could_be_better,
			perfect_for = EXCLUDED.perfect_for,
			favorite_quotes = EXCLUDED.favorite_quotes,
			updated_at = NOW()`,
		args...,
	)
	return err
}

// IncrementCounter atomically adds delta to a counter and returns the new value
func (r *reviewRepo) IncrementCounter(ctx context.Context, id int64, field models.CounterField, delta int64) (int64, error) {
	return r.adjustCounter(ctx, id, field, "COALESCE(%[1]s, 0) + $2", delta)
}

// DecrementCounter atomically subtracts delta from a counter, clamping at zero
func (r *reviewRepo) DecrementCounter(ctx context.Context, id int64, field models.CounterField, delta int64) (int64, error) {
	return r.adjustCounter(ctx, id, field, "GREATEST(0, COALESCE(%[1]s, 0) - $2)", delta)
}

func (r *reviewRepo) adjustCounter(ctx context.Context, id int64, field models.CounterField, expr string, delta int64) (int64, error) {
	if !counterColumns[field] {
		return 0, fmt.Errorf("%w: unknown counter %q", ErrInvalidQuery, field)
	}
	if delta < 0 {
		return 0, fmt.Errorf("%w: negative delta %d", ErrInvalidQuery, delta)
	}

	col := string(field)
	query := fmt.Sprintf(`UPDATE reviews SET %[1]s = `+expr+` WHERE id = $1 RETURNING %[1]s`, col)

	var value int64
	err := r.db.QueryRowContext(ctx, query, id, delta).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("adjust %s: %w", col, err)
	}
	return value, nil
}

func encodeDoc(d *richtext.Document) (any, error) {
	if d == nil {
		return nil, nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func decodeDoc(b []byte) (*richtext.Document, error) {
	if len(b) == 0 || string(b) == "null" {
		return nil, nil
	}
	var d richtext.Document
	if err := json.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
