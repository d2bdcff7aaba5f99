package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/service"
	"github.com/portfolio-api/internal/validation"
	"github.com/rs/zerolog"
)

// Pagination headers of the comment listing
const (
	headerTotalCount = "X-Total-Count"
	headerPage       = "X-Page"
	headerLimit      = "X-Limit"
)

// CommentHandler handles comment endpoints
type CommentHandler struct {
	services  *service.Services
	validator *validation.Validator
	log       zerolog.Logger
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(services *service.Services, log zerolog.Logger) *CommentHandler {
	return &CommentHandler{
		services:  services,
		validator: services.Validator,
		log:       log.With().Str("handler", "comment").Logger(),
	}
}

// List handles GET /api/comments/:blogSlug?page&limit&sort&userId
// Returns the top-level comments of one page, each with all of its replies.
func (h *CommentHandler) List(c *gin.Context) {
	params, errs := h.validator.ParseListParams(
		c.Param("blogSlug"), c.Query("page"), c.Query("limit"), c.Query("sort"),
	)
	if len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Join(errs)})
		return
	}

	// the verified identity wins over the userId query parameter
	if user := currentUser(c); user != nil {
		params.UserID = user.UID
	} else {
		params.UserID = c.Query("userId")
	}

	result, err := h.services.Comment.ListTree(c.Request.Context(), params)
	if err != nil {
		respondError(c, h.log, err, "fetch comments")
		return
	}

	c.Header(headerTotalCount, strconv.Itoa(result.Total))
	c.Header(headerPage, strconv.Itoa(result.Page))
	c.Header(headerLimit, strconv.Itoa(result.Limit))
	c.JSON(http.StatusOK, result.Nodes)
}

// Create handles POST /api/comments
func (h *CommentHandler) Create(c *gin.Context) {
	var req models.CreateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.Create(c.Request.Context(), currentUser(c), &req)
	if err != nil {
		respondError(c, h.log, err, "create comment")
		return
	}

	c.JSON(http.StatusCreated, comment)
}

// Update handles PUT /api/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req models.UpdateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	comment, err := h.services.Comment.Update(c.Request.Context(), currentUser(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, h.log, err, "update comment")
		return
	}

	c.JSON(http.StatusOK, comment)
}

// Delete handles DELETE /api/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	if err := h.services.Comment.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, h.log, err, "delete comment")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Comment deleted"})
}
