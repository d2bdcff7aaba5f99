package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/service"
	"github.com/rs/zerolog"
)

// VoteHandler handles vote endpoints
type VoteHandler struct {
	services *service.Services
	log      zerolog.Logger
}

// NewVoteHandler creates a new VoteHandler
func NewVoteHandler(services *service.Services, log zerolog.Logger) *VoteHandler {
	return &VoteHandler{
		services: services,
		log:      log.With().Str("handler", "vote").Logger(),
	}
}

// Cast handles POST /api/comments/:id/vote
// Clients keep their own optimistic counts, so only a confirmation is returned.
func (h *VoteHandler) Cast(c *gin.Context) {
	var req models.VoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.VoteType == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "voteType is required"})
		return
	}

	if _, err := h.services.Vote.Cast(c.Request.Context(), currentUser(c), c.Param("id"), *req.VoteType); err != nil {
		respondError(c, h.log, err, "record vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote recorded"})
}

// Remove handles DELETE /api/comments/:id/vote
func (h *VoteHandler) Remove(c *gin.Context) {
	if _, err := h.services.Vote.Remove(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, h.log, err, "remove vote")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Vote removed"})
}
