package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/portfolio-api/internal/auth"
	"github.com/portfolio-api/internal/models"
	"github.com/portfolio-api/internal/ratelimit"
	"github.com/rs/zerolog"
)

const authUserKey = "auth_user"

// recoveryMiddleware handles panics
func recoveryMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error().Interface("error", err).Str("path", c.Request.URL.Path).Msg("Panic recovered")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error": "Internal server error",
				})
			}
		}()
		c.Next()
	}
}

// loggingMiddleware logs requests
func loggingMiddleware(log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		event := log.Info()
		if statusCode >= 400 {
			event = log.Warn()
		}
		if statusCode >= 500 {
			event = log.Error()
		}

		event.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", statusCode).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("Request completed")
	}
}

// requireAuth rejects requests without a valid identity
func requireAuth(authn auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authn == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		user, err := authn.Authenticate(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Set(authUserKey, user)
		c.Next()
	}
}

// optionalAuth attaches the identity when a valid token is present and lets
// anonymous requests through
func optionalAuth(authn auth.Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authn != nil && auth.BearerToken(c.Request) != "" {
			if user, err := authn.Authenticate(c.Request); err == nil {
				c.Set(authUserKey, user)
			}
		}
		c.Next()
	}
}

// requireAdmin rejects identities without the admin role
func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !currentUser(c).IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "admin role required"})
			return
		}
		c.Next()
	}
}

// rateLimit throttles writes per user, or per client IP without identity.
// Limiter errors let the request through.
func rateLimit(limiter *ratelimit.Limiter, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Enabled() {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if user := currentUser(c); user != nil {
			key = "user:" + user.UID
		}

		ok, count, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Rate limiter unavailable, allowing request")
			c.Next()
			return
		}

		remaining := limiter.Limit() - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.FormatInt(limiter.Limit(), 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if !ok {
			c.Header("Retry-After", strconv.Itoa(int(limiter.Window().Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests, slow down"})
			return
		}
		c.Next()
	}
}

// currentUser returns the identity attached by the auth middleware, or nil
func currentUser(c *gin.Context) *models.AuthUser {
	v, ok := c.Get(authUserKey)
	if !ok {
		return nil
	}
	user, _ := v.(*models.AuthUser)
	return user
}
