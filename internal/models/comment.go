package models

import (
	"time"
)

// CommentStatus is the moderation state of a comment
type CommentStatus string

const (
	CommentStatusPending  CommentStatus = "pending"
	CommentStatusApproved CommentStatus = "approved"
	CommentStatusRejected CommentStatus = "rejected"
	CommentStatusReported CommentStatus = "reported"
)

// Valid reports whether s is a known status
func (s CommentStatus) Valid() bool {
	switch s {
	case CommentStatusPending, CommentStatusApproved, CommentStatusRejected, CommentStatusReported:
		return true
	}
	return false
}

// Comment is a reader comment attached to a review
type Comment struct {
	ID          int64         `json:"id" db:"id"`
	AuthorName  string        `json:"author_name" db:"author_name"`
	Content     string        `json:"content" db:"content"`
	ReviewID    int64         `json:"review_id" db:"review_id"`
	CommenterID int64         `json:"commenter_id" db:"commenter_id"`
	Status      CommentStatus `json:"status" db:"status"`
	ReportCount int           `json:"report_count" db:"report_count"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at" db:"updated_at"`
}

// Commenter is the trust ledger entry for one email identity.
// Only the hash of the normalized email is stored.
type Commenter struct {
	ID                   int64     `json:"id" db:"id"`
	Name                 string    `json:"name" db:"name"`
	EmailHash            string    `json:"-" db:"email_hash"`
	ApprovedCommentCount int       `json:"approved_comment_count" db:"approved_comment_count"`
	Trusted              bool      `json:"trusted" db:"trusted"`
	Banned               bool      `json:"banned" db:"banned"`
	CreatedAt            time.Time `json:"created_at" db:"created_at"`
	UpdatedAt            time.Time `json:"updated_at" db:"updated_at"`
}

// Report records one reporter flagging one comment
type Report struct {
	CommentID    int64     `json:"comment_id" db:"comment_id"`
	ReporterHash string    `json:"-" db:"reporter_hash"`
	ReportedAt   time.Time `json:"reported_at" db:"reported_at"`
}

// Comment content bounds, in characters after trimming
const (
	MinCommentLength = 3
	MaxCommentLength = 2000
	MinNameLength    = 2
	MaxNameLength    = 100
)
