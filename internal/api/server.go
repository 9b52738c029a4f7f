// Package api serves the JSON API behind the dashboard, the public blog and
// the admin content pipeline.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/pbaille/cfaprep/internal/billing"
	"github.com/pbaille/cfaprep/internal/blog"
	"github.com/pbaille/cfaprep/internal/config"
	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/logger"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

// Store is the read/write surface the handlers use directly
type Store interface {
	Ping(ctx context.Context) error
	CountChunks(ctx context.Context) (int, error)
	ListCategories(ctx context.Context) ([]domain.Category, error)
	ListPublishedPosts(ctx context.Context, categoryID string, limit, offset int) ([]domain.BlogPost, error)
	GetPublishedPostBySlug(ctx context.Context, slug string) (*domain.BlogPost, error)
	PublishPost(ctx context.Context, id string) (*domain.BlogPost, error)
	GetJob(ctx context.Context, id string) (*domain.GenerationJob, error)
	ListJobs(ctx context.Context, f store.JobFilter) ([]domain.GenerationJob, error)
	ListQuestions(ctx context.Context, f store.QuestionFilter) ([]domain.Question, error)
	GetQuestion(ctx context.Context, id string) (*domain.Question, error)
	RecordAttempt(ctx context.Context, a *domain.Attempt) error
	Progress(ctx context.Context, userID string) (*domain.Progress, error)
}

// Entitlements answers subscription questions
type Entitlements interface {
	Entitlement(ctx context.Context, userID string) (*billing.Entitlement, error)
	AuthorizeGeneration(ctx context.Context, userID string, count int) (*billing.Entitlement, error)
}

// QuestionGenerator runs question generation jobs
type QuestionGenerator interface {
	Generate(ctx context.Context, req questions.Request) (*questions.Result, error)
}

// BlogGenerator runs blog generation jobs
type BlogGenerator interface {
	Generate(ctx context.Context, req blog.Request) (*blog.Result, error)
}

// Retriever previews RAG context
type Retriever interface {
	Retrieve(ctx context.Context, req rag.Request) (*rag.Context, error)
}

// Ingester adds study material to the vector index
type Ingester interface {
	Ingest(ctx context.Context, doc rag.Document) (*rag.IngestResult, error)
	Remove(ctx context.Context, documentID string) (int, error)
}

// Deps bundles everything the server routes to
type Deps struct {
	Store        Store
	Entitlements Entitlements
	Questions    QuestionGenerator
	Blog         BlogGenerator
	Retriever    Retriever
	Ingester     Ingester
	Log          logger.Logger
}

// Server handles HTTP requests for the cfaprep API
type Server struct {
	deps       Deps
	settings   config.ServerSettings
	sampleSize int
	log        logger.Logger
	engine     *gin.Engine
}

// New creates a Server and registers its routes. sampleSize caps the
// practice bank for users without the full question bank.
func New(deps Deps, settings config.ServerSettings, sampleSize int) *Server {
	log := deps.Log
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{deps: deps, settings: settings, sampleSize: sampleSize, log: log.With("component", "api")}
	s.engine = s.routes()
	return s
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())

	origins := s.settings.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", userHeader},
		ExposeHeaders: []string{"Content-Length", "Content-Type"},
		MaxAge:        12 * time.Hour,
	}))

	r.GET("/health", s.health)

	public := r.Group("/api/blog")
	public.GET("/posts", s.listPosts)
	public.GET("/posts/:slug", s.getPost)
	public.GET("/categories", s.listCategories)

	user := r.Group("/api", s.requireUser())
	user.GET("/subscription", s.subscription)
	user.GET("/questions", s.listQuestions)
	user.POST("/questions/generate", s.generateQuestions)
	user.POST("/questions/:id/attempts", s.recordAttempt)
	user.GET("/dashboard/progress", s.progress)

	admin := r.Group("/api/admin", s.requireAdmin())
	admin.POST("/blog/generate", s.generateBlog)
	admin.POST("/blog/posts/:id/publish", s.publishPost)
	admin.GET("/jobs", s.listJobs)
	admin.GET("/jobs/:id", s.getJob)
	admin.POST("/questions/generate", s.adminGenerateQuestions)
	admin.POST("/rag/search", s.ragSearch)
	admin.POST("/ingest", s.ingest)
	admin.DELETE("/documents/:id", s.removeDocument)

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.settings.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("starting server", "addr", s.settings.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- fmt.Errorf("server failed to start: %w", err)
		}
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		s.log.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

func (s *Server) health(c *gin.Context) {
	if err := s.deps.Store.Ping(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	chunks, err := s.deps.Store.CountChunks(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "chunks": chunks})
}
