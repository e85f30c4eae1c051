package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/review-pipeline/internal/database"
	"github.com/review-pipeline/internal/models"
)

const commentColumns = `id, author_name, content, review_id, commenter_id, status, report_count, created_at, updated_at`

// commentFilterColumns are the columns a Predicate or Sort may reference
var commentFilterColumns = map[string]bool{
	"id":           true,
	"review_id":    true,
	"commenter_id": true,
	"status":       true,
	"report_count": true,
	"created_at":   true,
}

// commentRepo is the concrete implementation of CommentRepository
type commentRepo struct {
	db *database.DB
}

// NewCommentRepo creates a new comment repository
func NewCommentRepo(db *database.DB) CommentRepository {
	return &commentRepo{db: db}
}

func scanComment(s rowScanner) (*models.Comment, error) {
	var c models.Comment
	err := s.Scan(
		&c.ID, &c.AuthorName, &c.Content, &c.ReviewID, &c.CommenterID,
		&c.Status, &c.ReportCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new comment and fills in its generated fields
func (r *commentRepo) Create(ctx context.Context, c *models.Comment) error {
	query := `
		INSERT INTO comments (author_name, content, review_id, commenter_id, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + commentColumns

	created, err := scanComment(r.db.QueryRowContext(ctx, query,
		c.AuthorName, c.Content, c.ReviewID, c.CommenterID, c.Status,
	))
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	*c = *created
	return nil
}

// GetByID retrieves a comment by ID
func (r *commentRepo) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE id = $1`
	c, err := scanComment(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get comment: %w", err)
	}
	return c, err
}

// Find lists comments matching p
func (r *commentRepo) Find(ctx context.Context, p Predicate, opts ListOptions) ([]*models.Comment, error) {
	where, args, err := buildWhere(p, commentFilterColumns)
	if err != nil {
		return nil, err
	}
	suffix, args, err := buildSuffix(opts, commentFilterColumns, "-created_at", args)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + commentColumns + ` FROM comments WHERE ` + where + suffix
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("find comments: %w", err)
	}
	defer rows.Close()

	var comments []*models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// AddReport records a report from reporterHash and bumps the comment's
// report count in the same transaction. Once the count reaches threshold
// the comment moves to reported. A repeat report from the same identity
// returns ErrDuplicate and changes nothing. Rejected comments report as
// ErrNotFound and are left untouched.
func (r *commentRepo) AddReport(ctx context.Context, commentID int64, reporterHash string, threshold int) (*models.Comment, error) {
	var updated *models.Comment

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var status models.CommentStatus
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM comments WHERE id = $1 FOR UPDATE`, commentID,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		// Rejected comments are hidden and only an administrator may touch them
		if status == models.CommentStatusRejected {
			return ErrNotFound
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO comment_reports (comment_id, reporter_hash)
			VALUES ($1, $2)
			ON CONFLICT (comment_id, reporter_hash) DO NOTHING`,
			commentID, reporterHash,
		)
		if err != nil {
			return err
		}
		if n, err := res.RowsAffected(); err != nil {
			return err
		} else if n == 0 {
			return ErrDuplicate
		}

		query := `
			UPDATE comments SET
				report_count = report_count + 1,
				status = CASE
					WHEN report_count + 1 >= $2 THEN 'reported'::comment_status
					ELSE status
				END,
				updated_at = NOW()
			WHERE id = $1
			RETURNING ` + commentColumns

		updated, err = scanComment(tx.QueryRowContext(ctx, query, commentID, threshold))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrDuplicate) {
			return nil, err
		}
		return nil, fmt.Errorf("add report: %w", err)
	}
	return updated, nil
}

// Approve moves a comment to approved. Only a pending comment counts
// toward its commenter's trust: the approved count goes up by one and
// trusted is set once the count reaches trustThreshold. Both rows change
// in one transaction.
func (r *commentRepo) Approve(ctx context.Context, commentID int64, trustThreshold int) (*ApproveResult, error) {
	result := &ApproveResult{}

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		prev, err := lockCommentStatus(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if prev == models.CommentStatusApproved {
			return ErrInvalidTransition
		}
		result.PreviousStatus = prev

		result.Comment, err = setCommentStatus(ctx, tx, commentID, models.CommentStatusApproved)
		if err != nil {
			return err
		}
		if prev != models.CommentStatusPending {
			return nil
		}

		query := `
			UPDATE commenters SET
				approved_comment_count = approved_comment_count + 1,
				trusted = trusted OR approved_comment_count + 1 >= $2,
				updated_at = NOW()
			WHERE id = $1
			RETURNING ` + commenterColumns

		result.Commenter, err = scanCommenter(tx.QueryRowContext(ctx, query, result.Comment.CommenterID, trustThreshold))
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("approve comment: %w", err)
	}
	return result, nil
}

// Reject moves any non-rejected comment to rejected
func (r *commentRepo) Reject(ctx context.Context, commentID int64) (*models.Comment, error) {
	var rejected *models.Comment

	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		prev, err := lockCommentStatus(ctx, tx, commentID)
		if err != nil {
			return err
		}
		if prev == models.CommentStatusRejected {
			return ErrInvalidTransition
		}
		rejected, err = setCommentStatus(ctx, tx, commentID, models.CommentStatusRejected)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalidTransition) {
			return nil, err
		}
		return nil, fmt.Errorf("reject comment: %w", err)
	}
	return rejected, nil
}

func lockCommentStatus(ctx context.Context, tx *sql.Tx, id int64) (models.CommentStatus, error) {
	var status models.CommentStatus
	err := tx.QueryRowContext(ctx, `SELECT status FROM comments WHERE id = $1 FOR UPDATE`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return status, err
}

func setCommentStatus(ctx context.Context, tx *sql.Tx, id int64, status models.CommentStatus) (*models.Comment, error) {
	query := `
		UPDATE comments SET status = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + commentColumns
	return scanComment(tx.QueryRowContext(ctx, query, id, status))
}

// CommentFields exposes the filterable columns of c for Matches
func CommentFields(c *models.Comment) map[string]any {
	return map[string]any{
		"id":           c.ID,
		"review_id":    c.ReviewID,
		"commenter_id": c.CommenterID,
		"status":       c.Status,
		"report_count": c.ReportCount,
		"created_at":   c.CreatedAt,
	}
}
