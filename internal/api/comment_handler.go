package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/review-pipeline/internal/ratelimit"
	"github.com/review-pipeline/internal/service"
	"github.com/review-pipeline/internal/validation"
	"github.com/rs/zerolog"
)

// CommentHandler handles comment and moderation endpoints
type CommentHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services: services,
		log:      log.With().Str("handler", "comment").Logger(),
	}
}

type submitCommentRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Content string `json:"content"`
}

type reportCommentRequest struct {
	Email string `json:"email"`
}

type banRequest struct {
	Banned *bool `json:"banned"`
}

func badBody(c *gin.Context) {
	c.JSON(http.StatusBadRequest, &validation.Error{Field: "body", Message: "Invalid request body"})
}

// SubmitComment handles POST /v1/reviews/:id/comments
func (h *CommentHandler) SubmitComment(c *gin.Context) {
	reviewID, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	var req submitCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	res, err := h.services.Comment.SubmitComment(c.Request.Context(), service.SubmitCommentInput{
		Name:     req.Name,
		Email:    req.Email,
		Content:  req.Content,
		ReviewID: reviewID,
		ClientIP: ratelimit.ClientIP(c.Request.Header),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, res)
}

// ListComments handles GET /v1/reviews/:id/comments
func (h *CommentHandler) ListComments(c *gin.Context) {
	reviewID, ok := idParam(c, "review_id")
	if !ok {
		return
	}

	comments, err := h.services.Comment.ListComments(c.Request.Context(), reviewID, viewerFrom(c))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

// ReportComment handles POST /v1/comments/:id/reports
func (h *CommentHandler) ReportComment(c *gin.Context) {
	commentID, ok := idParam(c, "comment_id")
	if !ok {
		return
	}

	var req reportCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badBody(c)
		return
	}

	err := h.services.Comment.ReportComment(c.Request.Context(), commentID, req.Email, ratelimit.ClientIP(c.Request.Header))
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Thank you for your report. Our moderators will review it."})
}

// ApproveComment handles POST /v1/admin/comments/:id/approve
func (h *CommentHandler) ApproveComment(c *gin.Context) {
	commentID, ok := idParam(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.services.Comment.ApproveComment(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// RejectComment handles POST /v1/admin/comments/:id/reject
func (h *CommentHandler) RejectComment(c *gin.Context) {
	commentID, ok := idParam(c, "comment_id")
	if !ok {
		return
	}

	comment, err := h.services.Comment.RejectComment(c.Request.Context(), commentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, comment)
}

// SetCommenterBanned handles PUT /v1/admin/commenters/:id/ban
func (h *CommentHandler) SetCommenterBanned(c *gin.Context) {
	commenterID, ok := idParam(c, "commenter_id")
	if !ok {
		return
	}

	var req banRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Banned == nil {
		c.JSON(http.StatusBadRequest, &validation.Error{Field: "banned", Message: "banned must be true or false"})
		return
	}

	commenter, err := h.services.Comment.SetCommenterBanned(c.Request.Context(), commenterID, *req.Banned)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, commenter)
}
