package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/review-pipeline/internal/database"
	"github.com/review-pipeline/internal/models"
)

const commenterColumns = `id, name, email_hash, approved_comment_count, trusted, banned, created_at, updated_at`

// commenterRepo is the concrete implementation of CommenterRepository
type commenterRepo struct {
	db *database.DB
}

// NewCommenterRepo creates a new commenter repository
func NewCommenterRepo(db *database.DB) CommenterRepository {
	return &commenterRepo{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

func scanCommenter(s rowScanner) (*models.Commenter, error) {
	var c models.Commenter
	err := s.Scan(
		&c.ID, &c.Name, &c.EmailHash, &c.ApprovedCommentCount,
		&c.Trusted, &c.Banned, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Create inserts a new commenter and fills in its generated fields.
// A second commenter with the same email hash yields ErrDuplicate.
func (r *commenterRepo) Create(ctx context.Context, c *models.Commenter) error {
	query := `
		INSERT INTO commenters (name, email_hash)
		VALUES ($1, $2)
		RETURNING ` + commenterColumns

	created, err := scanCommenter(r.db.QueryRowContext(ctx, query, c.Name, c.EmailHash))
	if database.IsUniqueViolation(err) {
		return ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create commenter: %w", err)
	}
	*c = *created
	return nil
}

// GetByID retrieves a commenter by ID
func (r *commenterRepo) GetByID(ctx context.Context, id int64) (*models.Commenter, error) {
	query := `SELECT ` + commenterColumns + ` FROM commenters WHERE id = $1`
	c, err := scanCommenter(r.db.QueryRowContext(ctx, query, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get commenter: %w", err)
	}
	return c, err
}

// FindByEmailHash retrieves a commenter by hashed email
func (r *commenterRepo) FindByEmailHash(ctx context.Context, hash string) (*models.Commenter, error) {
	query := `SELECT ` + commenterColumns + ` FROM commenters WHERE email_hash = $1`
	c, err := scanCommenter(r.db.QueryRowContext(ctx, query, hash))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("find commenter: %w", err)
	}
	return c, err
}

// UpdateName sets the display name; last write wins
func (r *commenterRepo) UpdateName(ctx context.Context, id int64, name string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE commenters SET name = $1, updated_at = NOW() WHERE id = $2`, name, id)
	if err != nil {
		return fmt.Errorf("update commenter name: %w", err)
	}
	return requireRow(res)
}

// SetBanned sets or clears the banned flag
func (r *commenterRepo) SetBanned(ctx context.Context, id int64, banned bool) (*models.Commenter, error) {
	query := `
		UPDATE commenters SET banned = $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + commenterColumns

	c, err := scanCommenter(r.db.QueryRowContext(ctx, query, banned, id))
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("set commenter banned: %w", err)
	}
	return c, err
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
