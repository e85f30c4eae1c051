package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/review-pipeline/internal/models"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/service"
	"github.com/rs/zerolog"
)

// ReviewHandler handles review reads, writes and engagement endpoints
type ReviewHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(services *service.Services, log zerolog.Logger) *ReviewHandler {
	return &ReviewHandler{
		services: services,
		log:      log.With().Str("handler", "review").Logger(),
	}
}

type likeRequest struct {
	Increment *bool `json:"increment"`
}

// GetReview handles GET /v1/reviews/:id?locale=
func (h *ReviewHandler) GetReview(c *gin.Context) {
	id, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	review, err := h.services.Review.GetReview(c.Request.Context(), id, c.Query("locale"), viewerFrom(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, review)
}

// UpdateReview handles PUT /v1/reviews/:id?locale=
// The response carries the translation decision; translation itself
// continues in the background.
func (h *ReviewHandler) UpdateReview(c *gin.Context) {
	id, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	var upd models.ReviewUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		badBody(c)
		return
	}

	res, err := h.services.Review.UpdateReview(c.Request.Context(), id, c.Query("locale"), &upd, viewerFrom(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, res)
}

// ToggleLike handles POST /v1/reviews/:id/likes
func (h *ReviewHandler) ToggleLike(c *gin.Context) {
	id, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	req := likeRequest{}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badBody(c)
			return
		}
	}
	increment := req.Increment == nil || *req.Increment

	likes, err := h.services.Engagement.ToggleLike(c.Request.Context(), id, increment, ratelimit.ClientIP(c.Request.Header))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"likes": likes})
}

// TrackView handles POST /v1/reviews/:id/views. It always succeeds.
func (h *ReviewHandler) TrackView(c *gin.Context) {
	if id, ok := parseID(c.Param("id")); ok {
		h.services.Engagement.TrackView(c.Request.Context(), id, ratelimit.ClientIP(c.Request.Header))
	}
	c.Status(http.StatusNoContent)
}
