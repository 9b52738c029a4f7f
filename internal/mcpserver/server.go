// Package mcpserver exposes curriculum search and question generation as
// MCP tools so assistants can draw on the same RAG pipeline as the API.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pbaille/cfaprep/internal/logger"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

// Version is reported to MCP clients
const Version = "0.1.0"

// Retriever assembles RAG context
type Retriever interface {
	Retrieve(ctx context.Context, req rag.Request) (*rag.Context, error)
}

// QuestionGenerator runs question generation jobs
type QuestionGenerator interface {
	Generate(ctx context.Context, req questions.Request) (*questions.Result, error)
}

// Curriculum lists loaded topics
type Curriculum interface {
	ListCurriculum(ctx context.Context, level string) ([]store.CurriculumTopic, error)
}

// Tools holds the tool handlers' dependencies
type Tools struct {
	Retriever  Retriever
	Questions  QuestionGenerator
	Curriculum Curriculum
	Log        logger.Logger
}

// New creates an MCP server with every tool registered
func New(t *Tools) *mcp.Server {
	if t.Log == nil {
		t.Log = logger.Nop()
	}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "cfaprep",
		Version: Version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "search_curriculum",
		Description: "Search indexed CFA curriculum material and return the assembled context with its sources",
	}, t.SearchCurriculum)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "generate_questions",
		Description: "Generate and store three-option CFA practice questions for a level and topic",
	}, t.GenerateQuestions)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_topics",
		Description: "List curriculum topics and exam weights, optionally for one level",
	}, t.ListTopics)

	return srv
}

// SearchInput is the search_curriculum argument
type SearchInput struct {
	Query    string `json:"query" jsonschema:"What to search for"`
	Level    string `json:"level,omitempty" jsonschema:"CFA level: I, II or III"`
	Topic    string `json:"topic,omitempty" jsonschema:"Exact curriculum topic name"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"Number of chunks to retrieve (default 5)"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"Character budget for the assembled context (default 6000)"`
}

// GenerateInput is the generate_questions argument
type GenerateInput struct {
	Level      string `json:"level" jsonschema:"CFA level: I, II or III"`
	Topic      string `json:"topic" jsonschema:"Curriculum topic"`
	Subtopic   string `json:"subtopic,omitempty" jsonschema:"Optional subtopic"`
	Difficulty string `json:"difficulty,omitempty" jsonschema:"easy, medium or hard (default medium)"`
	Count      int    `json:"count,omitempty" jsonschema:"Number of questions, 1 to 20 (default 5)"`
	LOS        string `json:"los,omitempty" jsonschema:"Learning outcome statement to target"`
}

// ListTopicsInput is the list_topics argument
type ListTopicsInput struct {
	Level string `json:"level,omitempty" jsonschema:"CFA level: I, II or III"`
}

func (t *Tools) SearchCurriculum(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return toolError("query is required"), nil, nil
	}

	filter := map[string]string{}
	if level := strings.ToUpper(strings.TrimSpace(input.Level)); level != "" {
		filter["level"] = level
	}
	if topic := strings.TrimSpace(input.Topic); topic != "" {
		filter["topic"] = topic
	}

	res, err := t.Retriever.Retrieve(ctx, rag.Request{
		Query:    input.Query,
		Filter:   filter,
		TopK:     input.TopK,
		MaxChars: input.MaxChars,
	})
	if err != nil {
		t.Log.Warn("search_curriculum failed", "error", err)
		return toolError("Search failed: %v", err), nil, nil
	}
	if res.Empty() {
		return toolText("No matching curriculum material."), nil, nil
	}
	return toolJSON(res)
}

func (t *Tools) GenerateQuestions(ctx context.Context, _ *mcp.CallToolRequest, input GenerateInput) (*mcp.CallToolResult, any, error) {
	res, err := t.Questions.Generate(ctx, questions.Request{
		Level:      input.Level,
		Topic:      input.Topic,
		Subtopic:   input.Subtopic,
		Difficulty: input.Difficulty,
		Count:      input.Count,
		LOS:        input.LOS,
		CreatedBy:  "mcp",
	})
	if err != nil {
		t.Log.Warn("generate_questions failed", "error", err)
		return toolError("Generation failed: %v", err), nil, nil
	}
	return toolJSON(res)
}

func (t *Tools) ListTopics(ctx context.Context, _ *mcp.CallToolRequest, input ListTopicsInput) (*mcp.CallToolResult, any, error) {
	topics, err := t.Curriculum.ListCurriculum(ctx, strings.ToUpper(strings.TrimSpace(input.Level)))
	if err != nil {
		return toolError("Failed to list topics: %v", err), nil, nil
	}
	if len(topics) == 0 {
		return toolText("No curriculum loaded."), nil, nil
	}
	return toolJSON(topics)
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}
