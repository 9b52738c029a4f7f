package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/cfaprep/internal/billing"
	"github.com/pbaille/cfaprep/internal/blog"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func abort(c *gin.Context, status int, msg, details string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Details: details})
}

// fail maps err to a status and writes it; msg is the user-facing summary
func (s *Server) fail(c *gin.Context, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error(msg, "path", c.FullPath(), "error", err)
	}
	abort(c, status, msg, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, blog.ErrCategoryNotFound):
		return http.StatusNotFound
	case errors.Is(err, questions.ErrInvalidRequest),
		errors.Is(err, questions.ErrUnknownTopic),
		errors.Is(err, blog.ErrInvalidRequest),
		errors.Is(err, rag.ErrEmptyQuery),
		errors.Is(err, rag.ErrEmptyDocument),
		errors.Is(err, rag.ErrMissingDocumentID):
		return http.StatusBadRequest
	case errors.Is(err, billing.ErrNotEntitled):
		return http.StatusForbidden
	case errors.Is(err, billing.ErrDailyLimit):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
