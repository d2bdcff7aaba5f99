package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-api/internal/service"
	"github.com/rs/zerolog"
)

// respondError maps service errors to the uniform error envelope. Unknown
// errors are logged and answered with a generic "failed to <action>".
func respondError(c *gin.Context, log zerolog.Logger, err error, action string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": service.ErrNotFound.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})
	default:
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Failed to " + action)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to " + action})
	}
}
