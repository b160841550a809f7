package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"auction-platform/internal/auth"
	"auction-platform/services/bidding/helpers"
	"auction-platform/utils"

	"github.com/gin-gonic/gin"
)

// TokenParser verifies bearer tokens
type TokenParser interface {
	Parse(token string) (auth.Claims, error)
}

// RequestLoggerMiddleware logs incoming requests with timing
func RequestLoggerMiddleware(c *gin.Context) {
	start := time.Now()

	c.Next() // process request

	fields := map[string]any{
		"method":  c.Request.Method,
		"path":    c.Request.URL.Path,
		"status":  c.Writer.Status(),
		"latency": time.Since(start).String(),
	}
	if userID := c.GetString(helpers.ContextUserID); userID != "" {
		fields["user_id"] = userID
	}
	utils.Info("HTTP Request", fields)
}

// AuthMiddleware requires a valid bearer token and stores the caller's identity on the context
func AuthMiddleware(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			utils.JSONError(c, http.StatusUnauthorized, errors.New("missing bearer token"), "authentication required")
			c.Abort()
			return
		}

		claims, err := tokens.Parse(strings.TrimSpace(token))
		if err != nil {
			utils.JSONError(c, http.StatusUnauthorized, auth.ErrInvalidToken, "invalid or expired token")
			utils.Warn("AuthMiddleware: token rejected", map[string]any{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			c.Abort()
			return
		}

		c.Set(helpers.ContextUserID, claims.Subject)
		c.Set(helpers.ContextRole, claims.Role)
		c.Next()
	}
}
