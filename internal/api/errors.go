package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/review-pipeline/internal/service"
	"github.com/review-pipeline/internal/validation"
	"github.com/rs/zerolog"
)

// writeError maps service errors to HTTP responses
func writeError(c *gin.Context, log zerolog.Logger, err error) {
	var verr *validation.Error
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, verr)
		return
	}

	var rl *service.RateLimitError
	if errors.As(err, &rl) {
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds(rl.RetryAfter)))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": rl.UserMessage()})
		return
	}

	switch {
	case errors.Is(err, service.ErrBanned):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to post comments."})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You are not allowed to edit this review."})
	case errors.Is(err, service.ErrReviewNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Review not found"})
	case errors.Is(err, service.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Comment not found"})
	case errors.Is(err, service.ErrCommenterNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Commenter not found"})
	case errors.Is(err, service.ErrAlreadyReported):
		c.JSON(http.StatusConflict, gin.H{"error": "You have already reported this comment."})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{"error": "Comment is already in the requested state."})
	case errors.Is(err, service.ErrLocaleReadOnly):
		c.JSON(http.StatusConflict, gin.H{"error": "This locale is maintained by translation and cannot be edited directly."})
	default:
		log.Error().Err(err).
			Str("path", c.FullPath()).
			Str("request_id", c.GetString("request_id")).
			Msg("Request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

func retryAfterSeconds(d time.Duration) int {
	secs := int((d + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return secs
}

// idParam parses the :id path parameter. field names it in the error,
// e.g. review_id.
func idParam(c *gin.Context, field string) (int64, bool) {
	id, ok := parseID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusBadRequest, &validation.Error{
			Field:   field,
			Message: "Invalid " + strings.ReplaceAll(field, "_", " "),
		})
		return 0, false
	}
	return id, true
}

func parseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(s, 10, 64)
	return id, err == nil && id > 0
}
