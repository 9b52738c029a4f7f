package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

func (s *Server) listJobs(c *gin.Context) {
	limit, _ := page(c, 50, 200)
	jobs, err := s.deps.Store.ListJobs(c.Request.Context(), store.JobFilter{
		Kind:   c.Query("kind"),
		Status: c.Query("status"),
		Limit:  limit,
	})
	if err != nil {
		s.fail(c, "failed to list jobs", err)
		return
	}
	if jobs == nil {
		jobs = []domain.GenerationJob{}
	}
	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

func (s *Server) getJob(c *gin.Context) {
	job, err := s.deps.Store.GetJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, "job not found", err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// adminGenerateQuestions fills the shared bank; no quota applies
func (s *Server) adminGenerateQuestions(c *gin.Context) {
	var req questions.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	res, err := s.deps.Questions.Generate(c.Request.Context(), req)
	if err != nil {
		s.fail(c, "question generation failed", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// SearchRequest previews the context a generator would receive
type SearchRequest struct {
	Query    string  `json:"query"`
	Level    string  `json:"level"`
	Topic    string  `json:"topic"`
	Kind     string  `json:"kind"`
	TopK     int     `json:"top_k"`
	MaxChars int     `json:"max_chars"`
	MinScore float64 `json:"min_score"`
}

// Filter builds the metadata filter from the non-empty fields
func (r SearchRequest) Filter() map[string]string {
	f := map[string]string{}
	if v := strings.ToUpper(strings.TrimSpace(r.Level)); v != "" {
		f["level"] = v
	}
	if v := strings.TrimSpace(r.Topic); v != "" {
		f["topic"] = v
	}
	if v := strings.TrimSpace(r.Kind); v != "" {
		f["kind"] = v
	}
	return f
}

func (s *Server) ragSearch(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	res, err := s.deps.Retriever.Retrieve(c.Request.Context(), rag.Request{
		Query:    req.Query,
		Filter:   req.Filter(),
		TopK:     req.TopK,
		MaxChars: req.MaxChars,
		MinScore: req.MinScore,
	})
	if err != nil {
		s.fail(c, "search failed", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) ingest(c *gin.Context) {
	var doc rag.Document
	if err := c.ShouldBindJSON(&doc); err != nil {
		abort(c, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	doc.Level = strings.ToUpper(strings.TrimSpace(doc.Level))
	if doc.Level != "" && !domain.ValidLevel(doc.Level) {
		abort(c, http.StatusBadRequest, "level must be I, II or III", "")
		return
	}
	res, err := s.deps.Ingester.Ingest(c.Request.Context(), doc)
	if err != nil {
		s.fail(c, "ingest failed", err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) removeDocument(c *gin.Context) {
	id := c.Param("id")
	n, err := s.deps.Ingester.Remove(c.Request.Context(), id)
	if err != nil {
		s.fail(c, "remove document failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": id, "removed": n})
}
