package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// userHeader carries the authenticated user id from the upstream auth layer
const userHeader = "X-User-ID"

const userKey = "user_id"

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		args := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if uid := c.GetString(userKey); uid != "" {
			args = append(args, "user_id", uid)
		}
		switch {
		case c.Writer.Status() >= 500:
			s.log.Error("request", args...)
		case c.Writer.Status() >= 400:
			s.log.Warn("request", args...)
		default:
			s.log.Debug("request", args...)
		}
	}
}

func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		uid := strings.TrimSpace(c.GetHeader(userHeader))
		if uid == "" {
			abort(c, http.StatusUnauthorized, "authentication required", "")
			return
		}
		c.Set(userKey, uid)
		c.Next()
	}
}

// requireAdmin checks the bearer token against the configured admin token.
// With no token configured every admin request is refused.
func (s *Server) requireAdmin() gin.HandlerFunc {
	want := []byte(s.settings.AdminToken)
	return func(c *gin.Context) {
		token, ok := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if len(want) == 0 || !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(token)), want) != 1 {
			abort(c, http.StatusUnauthorized, "admin authorization required", "")
			return
		}
		c.Next()
	}
}

func userID(c *gin.Context) string {
	return c.GetString(userKey)
}
