package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/review-pipeline/internal/models"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// FieldError represents a single validation failure
type FieldError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
}

// Error is returned for malformed input. Field and Message describe the
// first failure; Errors lists all of them.
type Error struct {
	Field   string       `json:"field"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

func (e *Error) Error() string {
	return e.Message
}

func newError(errs []FieldError) error {
	if len(errs) == 0 {
		return nil
	}
	return &Error{Field: errs[0].Field, Message: errs[0].Message, Errors: errs}
}

// CommentInput is the user-supplied part of a comment submission
type CommentInput struct {
	Name     string
	Email    string
	Content  string
	ReviewID int64
}

// ValidateComment checks a comment submission. Name and content are
// measured after trimming.
func ValidateComment(in CommentInput) error {
	var errors []FieldError

	// Validate review_id
	if in.ReviewID <= 0 {
		errors = append(errors, FieldError{Field: "review_id", Message: "Invalid review ID", Value: in.ReviewID})
	}

	// Validate name
	name := strings.TrimSpace(in.Name)
	switch n := utf8.RuneCountInString(name); {
	case n < models.MinNameLength:
		errors = append(errors, FieldError{
			Field:   "name",
			Message: fmt.Sprintf("Name must be at least %d characters", models.MinNameLength),
		})
	case n > models.MaxNameLength:
		errors = append(errors, FieldError{
			Field:   "name",
			Message: fmt.Sprintf("Name must be less than %d characters", models.MaxNameLength),
		})
	}

	// Validate email
	if err := validateEmail(in.Email); err != nil {
		errors = append(errors, *err)
	}

	// Validate content
	content := strings.TrimSpace(in.Content)
	switch n := utf8.RuneCountInString(content); {
	case n < models.MinCommentLength:
		errors = append(errors, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("Comment must be at least %d characters", models.MinCommentLength),
		})
	case n > models.MaxCommentLength:
		errors = append(errors, FieldError{
			Field:   "content",
			Message: fmt.Sprintf("Comment must be less than %d characters", models.MaxCommentLength),
		})
	}

	return newError(errors)
}

// ValidateReport checks a report request
func ValidateReport(commentID int64, email string) error {
	var errors []FieldError

	if commentID <= 0 {
		errors = append(errors, FieldError{Field: "comment_id", Message: "Invalid comment ID", Value: commentID})
	}
	if err := validateEmail(email); err != nil {
		errors = append(errors, *err)
	}

	return newError(errors)
}

// ValidateReviewUpdate checks a write to the primary locale of a review
func ValidateReviewUpdate(upd *models.ReviewUpdate) error {
	var errors []FieldError

	if upd == nil {
		return newError([]FieldError{{Field: "body", Message: "Request body is required"}})
	}

	if upd.Title != nil && strings.TrimSpace(*upd.Title) == "" {
		errors = append(errors, FieldError{Field: "title", Message: "Title must not be empty"})
	}

	if upd.Status != nil {
		switch *upd.Status {
		case models.ReviewStatusDraft, models.ReviewStatusPublished:
		default:
			errors = append(errors, FieldError{
				Field:   "status",
				Message: "invalid status, must be one of: draft, published",
				Value:   *upd.Status,
			})
		}
	}

	if upd.Content != nil {
		for i, q := range upd.Content.FavoriteQuotes {
			if strings.TrimSpace(q.Quote) == "" {
				errors = append(errors, FieldError{
					Field:   fmt.Sprintf("favorite_quotes[%d].quote", i),
					Message: "Quote must not be empty",
				})
			}
		}
	}

	return newError(errors)
}

// NormalizeEmail lowercases and trims an email address. Identity hashing
// is always applied to the normalized form.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateEmail(email string) *FieldError {
	email = strings.TrimSpace(email)
	if email == "" {
		return &FieldError{Field: "email", Message: "Email is required"}
	}
	if !emailRegex.MatchString(email) {
		return &FieldError{Field: "email", Message: "Invalid email address", Value: email}
	}
	return nil
}
