package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/review-pipeline/internal/ratelimit"
)

var (
	// ErrReviewNotFound is returned for missing or unpublished reviews
	ErrReviewNotFound = errors.New("review not found")

	// ErrCommentNotFound is returned for missing comments
	ErrCommentNotFound = errors.New("comment not found")

	// ErrCommenterNotFound is returned for missing commenters
	ErrCommenterNotFound = errors.New("commenter not found")

	// ErrBanned is returned when a banned commenter submits a comment
	ErrBanned = errors.New("commenter is banned")

	// ErrAlreadyReported is returned for a repeat report from one identity
	ErrAlreadyReported = errors.New("comment already reported by this reporter")

	// ErrInvalidTransition is returned when a comment is already in the
	// requested moderation state
	ErrInvalidTransition = errors.New("comment is already in the requested state")

	// ErrLocaleReadOnly is returned for direct writes to a locale that is
	// maintained by the translation engine
	ErrLocaleReadOnly = errors.New("locale is maintained by translation")

	// ErrForbidden is returned when the viewer may not modify a review
	ErrForbidden = errors.New("viewer may not edit this review")
)

// RateLimitError is returned when an action exceeds its rate limit
type RateLimitError struct {
	Action     string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Action, e.RetryAfter)
}

// UserMessage is the wording shown to the end user
func (e *RateLimitError) UserMessage() string {
	return fmt.Sprintf("Too many %ss. %s", e.Action, ratelimit.WaitMessage(e.RetryAfter))
}
