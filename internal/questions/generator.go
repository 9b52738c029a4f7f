package questions

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/llm"
	"github.com/pbaille/cfaprep/internal/logger"
	"github.com/pbaille/cfaprep/internal/rag"
)

// Request limits
const (
	DefaultCount = 5
	MaxCount     = 20
)

var (
	// ErrInvalidRequest wraps request validation failures
	ErrInvalidRequest = errors.New("invalid request")
	// ErrUnknownTopic is returned when a loaded curriculum lacks the topic
	ErrUnknownTopic = errors.New("topic not in curriculum")
	// ErrNoValidQuestions is returned when the model produced nothing usable
	ErrNoValidQuestions = errors.New("no valid questions generated")
)

// Store is the persistence the generator needs
type Store interface {
	CreateJob(ctx context.Context, kind string, input any) (*domain.GenerationJob, error)
	CompleteJob(ctx context.Context, id, resultID string) error
	FailJob(ctx context.Context, id, message string) error
	SaveQuestions(ctx context.Context, questions []domain.Question) error
	TopicKnown(ctx context.Context, level, topic string) (bool, error)
}

// Retriever assembles RAG context
type Retriever interface {
	Retrieve(ctx context.Context, req rag.Request) (*rag.Context, error)
}

// Request asks for a batch of practice questions
type Request struct {
	Level      string `json:"level"`
	Topic      string `json:"topic"`
	Subtopic   string `json:"subtopic,omitempty"`
	Difficulty string `json:"difficulty"`
	Count      int    `json:"count"`
	LOS        string `json:"los,omitempty"`
	CreatedBy  string `json:"-"`
}

// Result is what a generation run produced
type Result struct {
	JobID        string            `json:"job_id"`
	Questions    []domain.Question `json:"questions"`
	Dropped      int               `json:"dropped"`
	Sources      []string          `json:"sources"`
	ContextChars int               `json:"context_chars"`
}

// Generator produces exam-style questions grounded in curriculum chunks
type Generator struct {
	store     Store
	retriever Retriever
	llm       llm.Completer
	log       logger.Logger
}

// NewGenerator creates a Generator
func NewGenerator(s Store, r Retriever, c llm.Completer, log logger.Logger) *Generator {
	return &Generator{store: s, retriever: r, llm: c, log: log.With("component", "questions")}
}

// Normalize fills defaults and validates the request in place
func (r *Request) Normalize() error {
	r.Level = strings.ToUpper(strings.TrimSpace(r.Level))
	r.Topic = strings.TrimSpace(r.Topic)
	r.Subtopic = strings.TrimSpace(r.Subtopic)
	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))

	if !domain.ValidLevel(r.Level) {
		return fmt.Errorf("%w: level must be I, II or III", ErrInvalidRequest)
	}
	if r.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if r.Difficulty == "" {
		r.Difficulty = domain.DifficultyMedium
	}
	if !domain.ValidDifficulty(r.Difficulty) {
		return fmt.Errorf("%w: difficulty must be easy, medium or hard", ErrInvalidRequest)
	}
	if r.Count == 0 {
		r.Count = DefaultCount
	}
	if r.Count < 1 || r.Count > MaxCount {
		return fmt.Errorf("%w: count must be between 1 and %d", ErrInvalidRequest, MaxCount)
	}
	return nil
}

// Generate runs one question generation job end to end
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	known, err := g.store.TopicKnown(ctx, req.Level, req.Topic)
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, fmt.Errorf("%w: level %s %q", ErrUnknownTopic, req.Level, req.Topic)
	}

	job, err := g.store.CreateJob(ctx, domain.JobKindQuestions, req)
	if err != nil {
		return nil, err
	}
	log := g.log.With("job_id", job.ID)

	result, err := g.run(ctx, req, job.ID, log)
	if err != nil {
		log.Error("question generation failed", "error", err)
		if ferr := g.store.FailJob(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			log.Error("mark job failed", "error", ferr)
		}
		return nil, err
	}

	if err := g.store.CompleteJob(context.WithoutCancel(ctx), job.ID, result.Questions[0].ID); err != nil {
		return nil, err
	}
	log.Info("questions generated", "count", len(result.Questions), "dropped", result.Dropped)
	return result, nil
}

func (g *Generator) run(ctx context.Context, req Request, jobID string, log logger.Logger) (*Result, error) {
	ragCtx, err := g.retriever.Retrieve(ctx, rag.Request{
		Query:  rag.QuestionQuery(req.Level, req.Topic, req.Subtopic, req.LOS),
		Filter: rag.QuestionFilter(req.Level, req.Topic),
	})
	if err != nil {
		// the model still knows the curriculum; carry on without context
		log.Warn("rag retrieval failed, generating without context", "error", err)
		ragCtx = &rag.Context{Sources: []string{}}
	}

	reply, err := g.llm.Complete(ctx, llm.Prompt{
		System: systemPrompt,
		User:   buildPrompt(req, ragCtx),
	})
	if err != nil {
		return nil, fmt.Errorf("llm: %w", err)
	}

	drafts, err := parseDrafts(reply)
	if err != nil {
		return nil, err
	}

	questions, dropped := toQuestions(drafts, req, ragCtx.Sources, jobID)
	if len(questions) == 0 {
		return nil, ErrNoValidQuestions
	}
	if len(questions) > req.Count {
		dropped += len(questions) - req.Count
		questions = questions[:req.Count]
	}

	if err := g.store.SaveQuestions(ctx, questions); err != nil {
		return nil, err
	}

	return &Result{
		JobID:        jobID,
		Questions:    questions,
		Dropped:      dropped,
		Sources:      ragCtx.Sources,
		ContextChars: ragCtx.CharCount,
	}, nil
}
