package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pbaille/cfaprep/internal/billing"
	"github.com/pbaille/cfaprep/internal/blog"
	"github.com/pbaille/cfaprep/internal/chunking"
	"github.com/pbaille/cfaprep/internal/config"
	"github.com/pbaille/cfaprep/internal/embedding"
	"github.com/pbaille/cfaprep/internal/fetcher"
	"github.com/pbaille/cfaprep/internal/llm"
	"github.com/pbaille/cfaprep/internal/logger"
	"github.com/pbaille/cfaprep/internal/notify"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

// app holds what every command needs; the API clients are built lazily
// since most commands touch only the store
type app struct {
	cfg   *config.Config
	log   logger.Logger
	store *store.Store
}

func loadApp() (*app, error) {
	return loadAppWithLog(nil)
}

// loadAppWithLog sends logs to w instead of the configured sink; the mcp
// stdio transport owns stdout
func loadAppWithLog(w io.Writer) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	var log logger.Logger
	if w != nil {
		log = logger.NewWriter(w, cfg.Logger.LogLevel)
	} else if log, err = logger.New(&cfg.Logger); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	if dir := filepath.Dir(cfg.Database.Path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	s, err := store.New(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, log: log, store: s}, nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func (a *app) embedder() (embedding.Embedder, error) {
	return embedding.New(a.cfg.Embedding)
}

func (a *app) retriever() (*rag.Retriever, error) {
	e, err := a.embedder()
	if err != nil {
		return nil, err
	}
	return rag.NewRetriever(e, a.store, rag.Request{
		TopK:     a.cfg.RAG.TopK,
		MaxChars: a.cfg.RAG.MaxChars,
		MinScore: a.cfg.RAG.MinScore,
	}), nil
}

func (a *app) ingester() (*rag.Ingester, error) {
	e, err := a.embedder()
	if err != nil {
		return nil, err
	}
	return rag.NewIngester(e, a.store, chunking.Options{
		MaxChars: a.cfg.RAG.ChunkSize,
		Overlap:  a.cfg.RAG.ChunkOverlap,
	}), nil
}

func (a *app) completer() (*llm.Client, error) {
	return llm.New(a.cfg.LLM)
}

func (a *app) questionGenerator(r questions.Retriever) (*questions.Generator, error) {
	c, err := a.completer()
	if err != nil {
		return nil, err
	}
	return questions.NewGenerator(a.store, r, c, a.log), nil
}

func (a *app) blogGenerator(r blog.Retriever) (*blog.Generator, error) {
	c, err := a.completer()
	if err != nil {
		return nil, err
	}
	n := notify.New(a.cfg.Notify, nil)
	return blog.NewGenerator(a.store, r, fetcher.New(nil), c, n, a.log), nil
}

func (a *app) billing() *billing.Service {
	return billing.New(a.store, a.cfg.Billing)
}
