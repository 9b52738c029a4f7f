// Package blog runs the admin content pipeline: retrieve curriculum context,
// draft an article with the LLM, render it and store it as a draft post.
package blog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/llm"
	"github.com/pbaille/cfaprep/internal/logger"
	"github.com/pbaille/cfaprep/internal/notify"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

// Word count bounds
const (
	DefaultWordCount = 1500
	MinWordCount     = 300
	MaxWordCount     = 5000

	wordsPerMinute = 200
)

var (
	// ErrInvalidRequest wraps request validation failures
	ErrInvalidRequest = errors.New("invalid request")
	// ErrCategoryNotFound is returned for an unknown category_id
	ErrCategoryNotFound = errors.New("category not found")
)

// Store is the persistence the pipeline needs
type Store interface {
	GetCategory(ctx context.Context, id string) (*domain.Category, error)
	CreateJob(ctx context.Context, kind string, input any) (*domain.GenerationJob, error)
	CompleteJob(ctx context.Context, id, resultID string) error
	FailJob(ctx context.Context, id, message string) error
	UniqueSlug(ctx context.Context, base string) (string, error)
	CreatePost(ctx context.Context, p *domain.BlogPost) error
}

// Retriever assembles RAG context
type Retriever interface {
	Retrieve(ctx context.Context, req rag.Request) (*rag.Context, error)
}

// Fetcher pulls readable text from a reference page
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Request is the admin's generation order
type Request struct {
	CategoryID     string   `json:"category_id"`
	Topic          string   `json:"topic"`
	Keywords       []string `json:"keywords"`
	WordCount      int      `json:"word_count"`
	IncludeFAQ     bool     `json:"include_faq"`
	EnhanceContent bool     `json:"enhance_content"`
	ReferenceURL   string   `json:"reference_url,omitempty"`
	Level          string   `json:"level,omitempty"`
}

// Result is the stored draft and the job that produced it
type Result struct {
	Post  *domain.BlogPost `json:"post"`
	JobID string           `json:"job_id"`
}

// Generator runs the blog pipeline
type Generator struct {
	store     Store
	retriever Retriever
	fetcher   Fetcher
	llm       llm.Completer
	notifier  notify.Notifier
	log       logger.Logger
}

// NewGenerator creates a Generator; a nil notifier disables notifications
func NewGenerator(s Store, r Retriever, f Fetcher, c llm.Completer, n notify.Notifier, log logger.Logger) *Generator {
	if n == nil {
		n = notify.Nop{}
	}
	return &Generator{store: s, retriever: r, fetcher: f, llm: c, notifier: n, log: log.With("component", "blog")}
}

// Normalize fills defaults and validates the request in place
func (r *Request) Normalize() error {
	r.CategoryID = strings.TrimSpace(r.CategoryID)
	r.Topic = strings.TrimSpace(r.Topic)
	r.ReferenceURL = strings.TrimSpace(r.ReferenceURL)
	r.Level = strings.ToUpper(strings.TrimSpace(r.Level))

	if r.Topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidRequest)
	}
	if r.CategoryID == "" {
		return fmt.Errorf("%w: category_id is required", ErrInvalidRequest)
	}
	if r.WordCount == 0 {
		r.WordCount = DefaultWordCount
	}
	if r.WordCount < MinWordCount || r.WordCount > MaxWordCount {
		return fmt.Errorf("%w: word_count must be between %d and %d", ErrInvalidRequest, MinWordCount, MaxWordCount)
	}
	if r.Level != "" && !domain.ValidLevel(r.Level) {
		return fmt.Errorf("%w: level must be I, II or III", ErrInvalidRequest)
	}

	keywords := make([]string, 0, len(r.Keywords))
	for _, k := range r.Keywords {
		if k = strings.TrimSpace(k); k != "" {
			keywords = append(keywords, k)
		}
	}
	r.Keywords = keywords
	return nil
}

// Generate runs one blog generation job end to end
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := req.Normalize(); err != nil {
		return nil, err
	}

	category, err := g.store.GetCategory(ctx, req.CategoryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrCategoryNotFound, req.CategoryID)
		}
		return nil, err
	}

	job, err := g.store.CreateJob(ctx, domain.JobKindBlog, req)
	if err != nil {
		return nil, err
	}
	log := g.log.With("job_id", job.ID, "topic", req.Topic)
	log.Info("blog generation started", "category", category.Name)

	post, err := g.run(ctx, req, category, job.ID, log)
	if err != nil {
		log.Error("blog generation failed", "error", err)
		if ferr := g.store.FailJob(context.WithoutCancel(ctx), job.ID, err.Error()); ferr != nil {
			log.Error("mark job failed", "error", ferr)
		}
		return nil, err
	}

	if err := g.store.CompleteJob(context.WithoutCancel(ctx), job.ID, post.ID); err != nil {
		return nil, err
	}
	log.Info("blog post drafted", "post_id", post.ID, "slug", post.Slug, "words", post.WordCount)

	msg := fmt.Sprintf("New blog draft ready for review: %q (%s, %d words)", post.Title, category.Name, post.WordCount)
	if err := g.notifier.Notify(ctx, msg); err != nil {
		log.Warn("notification failed", "error", err)
	}

	return &Result{Post: post, JobID: job.ID}, nil
}

func (g *Generator) run(ctx context.Context, req Request, category *domain.Category, jobID string, log logger.Logger) (*domain.BlogPost, error) {
	var reference string
	if req.ReferenceURL != "" && g.fetcher != nil {
		text, err := g.fetcher.Fetch(ctx, req.ReferenceURL)
		if err != nil {
			log.Warn("reference fetch failed, continuing without it", "url", req.ReferenceURL, "error", err)
		} else {
			reference = text
		}
	}

	ragCtx, err := g.retriever.Retrieve(ctx, rag.Request{
		Query:  rag.BlogQuery(req.Topic, req.Keywords),
		Filter: rag.BlogFilter(req.Level),
	})
	if err != nil {
		log.Warn("rag retrieval failed, drafting without context", "error", err)
		ragCtx = &rag.Context{Sources: []string{}}
	}

	reply, err := g.llm.Complete(ctx, llm.Prompt{
		System:    systemPrompt,
		User:      draftPrompt(req, category, ragCtx, reference),
		MaxTokens: maxTokensFor(req.WordCount),
	})
	if err != nil {
		return nil, fmt.Errorf("draft: %w", err)
	}

	var d article
	if err := llm.DecodeJSON(reply, &d); err != nil {
		return nil, fmt.Errorf("draft: %w", err)
	}
	if err := d.check(); err != nil {
		return nil, err
	}

	if req.EnhanceContent {
		enhanced, err := g.enhance(ctx, req, d.Content)
		if err != nil {
			log.Warn("enhancement failed, keeping first draft", "error", err)
		} else {
			d.Content = enhanced
		}
	}

	html, err := RenderHTML(d.Content)
	if err != nil {
		return nil, err
	}

	base := domain.Slugify(d.Slug)
	if base == "" {
		base = domain.Slugify(d.Title)
	}
	slug, err := g.store.UniqueSlug(ctx, base)
	if err != nil {
		return nil, err
	}

	words := CountWords(d.Content)
	post := &domain.BlogPost{
		CategoryID:         category.ID,
		Title:              strings.TrimSpace(d.Title),
		Slug:               slug,
		Excerpt:            strings.TrimSpace(d.Excerpt),
		Content:            d.Content,
		ContentHTML:        html,
		MetaDescription:    metaDescription(d),
		Keywords:           req.Keywords,
		WordCount:          words,
		ReadingTimeMinutes: ReadingTime(words),
		Status:             domain.PostDraft,
		SourceURL:          req.ReferenceURL,
		GenerationJobID:    jobID,
	}
	if req.IncludeFAQ {
		post.FAQ = d.cleanFAQ()
	}

	if err := g.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (g *Generator) enhance(ctx context.Context, req Request, content string) (string, error) {
	reply, err := g.llm.Complete(ctx, llm.Prompt{
		System:    systemPrompt,
		User:      enhancePrompt(req, content),
		MaxTokens: maxTokensFor(req.WordCount),
	})
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(stripFence(reply))
	if out == "" {
		return "", errors.New("empty enhancement")
	}
	return out, nil
}

// ReadingTime is minutes at 200 words per minute, at least one
func ReadingTime(words int) int {
	minutes := (words + wordsPerMinute - 1) / wordsPerMinute
	if minutes < 1 {
		return 1
	}
	return minutes
}

// CountWords counts whitespace separated words
func CountWords(s string) int {
	return len(strings.Fields(s))
}

// markdown output runs roughly two tokens per word, plus room for the JSON
func maxTokensFor(words int) int {
	n := words*2 + 1024
	if n > 16000 {
		n = 16000
	}
	return n
}

func metaDescription(d article) string {
	m := strings.TrimSpace(d.MetaDescription)
	if m == "" {
		m = strings.TrimSpace(d.Excerpt)
	}
	if r := []rune(m); len(r) > 160 {
		m = strings.TrimSpace(string(r[:157])) + "..."
	}
	return m
}
