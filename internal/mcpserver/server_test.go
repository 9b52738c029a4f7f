package mcpserver

import (
	"context"
	"errors"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/questions"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/pbaille/cfaprep/internal/store"
)

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Retrieve(ctx context.Context, req rag.Request) (*rag.Context, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*rag.Context)
	return r, args.Error(1)
}

type mockQuestions struct {
	mock.Mock
}

func (m *mockQuestions) Generate(ctx context.Context, req questions.Request) (*questions.Result, error) {
	args := m.Called(ctx, req)
	r, _ := args.Get(0).(*questions.Result)
	return r, args.Error(1)
}

type mockCurriculum struct {
	mock.Mock
}

func (m *mockCurriculum) ListCurriculum(ctx context.Context, level string) ([]store.CurriculumTopic, error) {
	args := m.Called(ctx, level)
	topics, _ := args.Get(0).([]store.CurriculumTopic)
	return topics, args.Error(1)
}

func connect(t *testing.T, tools *Tools) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()

	_, err := New(tools).Connect(ctx, serverTransport, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(*mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return tc.Text, result.IsError
}

func TestListsTools(t *testing.T) {
	session := connect(t, &Tools{})
	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"search_curriculum", "generate_questions", "list_topics"}, names)
}

func TestSearchCurriculum(t *testing.T) {
	r := new(mockRetriever)
	r.On("Retrieve", mock.Anything, rag.Request{
		Query:  "yield curve",
		Filter: map[string]string{"level": "II"},
		TopK:   3,
	}).Return(&rag.Context{Text: "[Source: R30]\nThe yield curve...", Sources: []string{"R30"}, ChunkCount: 1, CharCount: 30}, nil)
	r.On("Retrieve", mock.Anything, mock.MatchedBy(func(req rag.Request) bool { return req.Query == "nothing" })).
		Return(&rag.Context{Sources: []string{}}, nil)
	r.On("Retrieve", mock.Anything, mock.MatchedBy(func(req rag.Request) bool { return req.Query == "broken" })).
		Return(nil, errors.New("embeddings down"))

	session := connect(t, &Tools{Retriever: r})

	text, isErr := callTool(t, session, "search_curriculum", map[string]any{"query": "yield curve", "level": "ii", "top_k": 3})
	assert.False(t, isErr)
	assert.Contains(t, text, `"R30"`)
	assert.Contains(t, text, "The yield curve")

	text, isErr = callTool(t, session, "search_curriculum", map[string]any{"query": "nothing"})
	assert.False(t, isErr)
	assert.Equal(t, "No matching curriculum material.", text)

	text, isErr = callTool(t, session, "search_curriculum", map[string]any{"query": "broken"})
	assert.True(t, isErr)
	assert.Contains(t, text, "embeddings down")

	_, isErr = callTool(t, session, "search_curriculum", map[string]any{"query": " "})
	assert.True(t, isErr)
}

func TestGenerateQuestions(t *testing.T) {
	q := new(mockQuestions)
	q.On("Generate", mock.Anything, questions.Request{Level: "I", Topic: "Ethics", Count: 2, CreatedBy: "mcp"}).
		Return(&questions.Result{JobID: "job-1", Questions: []domain.Question{{ID: "q1", Stem: "Which standard..."}}}, nil)
	q.On("Generate", mock.Anything, mock.MatchedBy(func(r questions.Request) bool { return r.Topic == "" })).
		Return(nil, questions.ErrInvalidRequest)

	session := connect(t, &Tools{Questions: q})

	text, isErr := callTool(t, session, "generate_questions", map[string]any{"level": "I", "topic": "Ethics", "count": 2})
	assert.False(t, isErr)
	assert.Contains(t, text, `"job_id": "job-1"`)

	text, isErr = callTool(t, session, "generate_questions", map[string]any{"level": "I", "topic": ""})
	assert.True(t, isErr)
	assert.Contains(t, text, "invalid request")
}

func TestListTopics(t *testing.T) {
	c := new(mockCurriculum)
	c.On("ListCurriculum", mock.Anything, "I").Return([]store.CurriculumTopic{{Level: "I", Name: "Ethics", WeightMin: 15, WeightMax: 20}}, nil)
	c.On("ListCurriculum", mock.Anything, "").Return(nil, nil)

	session := connect(t, &Tools{Curriculum: c})

	text, _ := callTool(t, session, "list_topics", map[string]any{"level": "i"})
	assert.Contains(t, text, `"name": "Ethics"`)

	text, _ = callTool(t, session, "list_topics", map[string]any{})
	assert.Equal(t, "No curriculum loaded.", text)
}
