package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/cfaprep/internal/billing"
	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/store"
)

func (s *Server) subscription(c *gin.Context) {
	e, err := s.deps.Entitlements.Entitlement(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, "failed to load subscription", err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// listQuestions serves the practice bank. Users without the full bank see
// a fixed sample from the start of the bank.
func (s *Server) listQuestions(c *gin.Context) {
	ctx := c.Request.Context()
	e, err := s.deps.Entitlements.Entitlement(ctx, userID(c))
	if err != nil {
		s.fail(c, "failed to load subscription", err)
		return
	}

	limit, offset := page(c, 20, 100)
	sample := !e.Has(billing.FeatureQuestionBank)
	if sample {
		offset = 0
		limit = min(limit, s.sampleSize)
	}

	var qs []domain.Question
	if limit > 0 {
		qs, err = s.deps.Store.ListQuestions(ctx, store.QuestionFilter{
			Level:      strings.ToUpper(c.Query("level")),
			Topic:      c.Query("topic"),
			Difficulty: strings.ToLower(c.Query("difficulty")),
			Limit:      limit,
			Offset:     offset,
		})
		if err != nil {
			s.fail(c, "failed to list questions", err)
			return
		}
	}
	if qs == nil {
		qs = []domain.Question{}
	}
	c.JSON(http.StatusOK, gin.H{"questions": qs, "sample": sample, "limit": limit, "offset": offset})
}

// AttemptRequest is the body of an answer submission
type AttemptRequest struct {
	Selected string `json:"selected"`
}

// AttemptResponse grades an answer
type AttemptResponse struct {
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
	Explanation   string `json:"explanation"`
}

func (s *Server) recordAttempt(c *gin.Context) {
	var req AttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	selected := strings.ToUpper(strings.TrimSpace(req.Selected))
	if !questions.ValidAnswer(selected) {
		abort(c, http.StatusBadRequest, "selected must be A, B or C", "")
		return
	}

	ctx := c.Request.Context()
	q, err := s.deps.Store.GetQuestion(ctx, c.Param("id"))
	if err != nil {
		s.fail(c, "question not found", err)
		return
	}

	attempt := &domain.Attempt{
		UserID:     userID(c),
		QuestionID: q.ID,
		Selected:   selected,
		Correct:    questions.Grade(q, selected),
	}
	if err := s.deps.Store.RecordAttempt(ctx, attempt); err != nil {
		s.fail(c, "failed to record attempt", err)
		return
	}

	c.JSON(http.StatusOK, AttemptResponse{
		Correct:       attempt.Correct,
		CorrectAnswer: q.CorrectAnswer,
		Explanation:   q.Explanation,
	})
}

func (s *Server) generateQuestions(c *gin.Context) {
	var req questions.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if err := req.Normalize(); err != nil {
		s.fail(c, "invalid request", err)
		return
	}

	ctx := c.Request.Context()
	uid := userID(c)
	if _, err := s.deps.Entitlements.AuthorizeGeneration(ctx, uid, req.Count); err != nil {
		s.fail(c, "question generation not allowed", err)
		return
	}

	req.CreatedBy = uid
	res, err := s.deps.Questions.Generate(ctx, req)
	if err != nil {
		s.fail(c, "question generation failed", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) progress(c *gin.Context) {
	p, err := s.deps.Store.Progress(c.Request.Context(), userID(c))
	if err != nil {
		s.fail(c, "failed to load progress", err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// page reads limit/offset query parameters, clamping limit to [1, max]
func page(c *gin.Context, def, max int) (int, int) {
	limit, err := strconv.Atoi(c.Query("limit"))
	if err != nil || limit <= 0 {
		limit = def
	}
	if limit > max {
		limit = max
	}
	offset, err := strconv.Atoi(c.Query("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}
