package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/thirdeye/internal/models"
	"github.com/mr1hm/thirdeye/internal/session"
)

const sessionContextKey = "session"

// requireSession resolves the bearer token into a session and stores it on
// the context. EventSource cannot set headers, so a token query parameter
// is accepted as well.
func (h *Handler) requireSession(c *gin.Context) {
	token := bearerToken(c.GetHeader("Authorization"))
	if token == "" {
		token = c.Query("token")
	}

	s, err := h.sessions.Lookup(c.Request.Context(), token)
	if errors.Is(err, session.ErrNoSession) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "not signed in"})
		return
	}
	if err != nil {
		slog.Error("session lookup failed", "error", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "failed to load session"})
		return
	}

	c.Set(sessionContextKey, s)
	c.Next()
}

func requireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := currentSession(c)
		for _, r := range roles {
			if s.User.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "not allowed for your role"})
	}
}

func currentSession(c *gin.Context) models.Session {
	v, _ := c.Get(sessionContextKey)
	s, _ := v.(models.Session)
	return s
}

func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// RequestLogger writes one line per request.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelDebug
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		slog.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"client", c.ClientIP(),
		)
	}
}
