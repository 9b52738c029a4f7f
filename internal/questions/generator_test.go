package questions

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/llm"
	"github.com/pbaille/cfaprep/internal/logger"
	"github.com/pbaille/cfaprep/internal/rag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreateJob(ctx context.Context, kind string, input any) (*domain.GenerationJob, error) {
	args := m.Called(ctx, kind, input)
	job, _ := args.Get(0).(*domain.GenerationJob)
	return job, args.Error(1)
}

func (m *mockStore) CompleteJob(ctx context.Context, id, resultID string) error {
	return m.Called(ctx, id, resultID).Error(0)
}

func (m *mockStore) FailJob(ctx context.Context, id, message string) error {
	return m.Called(ctx, id, message).Error(0)
}

func (m *mockStore) SaveQuestions(ctx context.Context, questions []domain.Question) error {
	args := m.Called(ctx, questions)
	for i := range questions {
		questions[i].ID = "q" + string(rune('1'+i))
	}
	return args.Error(0)
}

func (m *mockStore) TopicKnown(ctx context.Context, level, topic string) (bool, error) {
	args := m.Called(ctx, level, topic)
	return args.Bool(0), args.Error(1)
}

type mockRetriever struct {
	mock.Mock
}

func (m *mockRetriever) Retrieve(ctx context.Context, req rag.Request) (*rag.Context, error) {
	args := m.Called(ctx, req)
	c, _ := args.Get(0).(*rag.Context)
	return c, args.Error(1)
}

type mockLLM struct {
	mock.Mock
}

func (m *mockLLM) Complete(ctx context.Context, p llm.Prompt) (string, error) {
	args := m.Called(ctx, p)
	return args.String(0), args.Error(1)
}

const twoGoodOneBad = "```json\n" + `[
  {"question": "What does modified duration approximate?",
   "options": {"A": "Percentage price change for a 1% yield change", "B": "Time to maturity", "C": "Coupon rate"},
   "correct_answer": "a", "explanation": "Modified duration approximates percentage price change."},
  {"question": "Convexity is",
   "options": {"A": "Linear", "B": "Second-order", "C": "Irrelevant"},
   "correct_answer": "B", "explanation": "It captures curvature.", "los": "LOS 2b"},
  {"question": "Missing an option",
   "options": {"A": "x", "B": "y"},
   "correct_answer": "A", "explanation": "bad"}
]` + "\n```"

func newGenerator(s *mockStore, r *mockRetriever, l *mockLLM) *Generator {
	return NewGenerator(s, r, l, logger.Nop())
}

func TestGenerateHappyPath(t *testing.T) {
	s, r, l := new(mockStore), new(mockRetriever), new(mockLLM)

	s.On("TopicKnown", mock.Anything, "I", "Fixed Income").Return(true, nil)
	s.On("CreateJob", mock.Anything, domain.JobKindQuestions, mock.Anything).
		Return(&domain.GenerationJob{ID: "job-1"}, nil)
	r.On("Retrieve", mock.Anything, rag.Request{
		Query:  "CFA Level I Fixed Income",
		Filter: map[string]string{"level": "I", "topic": "Fixed Income"},
	}).Return(&rag.Context{Text: "[Source: R45]\nDuration...", Sources: []string{"R45"}, ChunkCount: 1, CharCount: 25}, nil)
	l.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool {
		return p.System == systemPrompt &&
			assert.Contains(t, p.User, "Write 2 medium-difficulty practice questions for CFA Level I") &&
			assert.Contains(t, p.User, "[Source: R45]")
	})).Return(twoGoodOneBad, nil)
	s.On("SaveQuestions", mock.Anything, mock.Anything).Return(nil)
	s.On("CompleteJob", mock.Anything, "job-1", "q1").Return(nil)

	res, err := newGenerator(s, r, l).Generate(context.Background(), Request{
		Level: "i", Topic: " Fixed Income ", Count: 2, CreatedBy: "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "job-1", res.JobID)
	assert.Equal(t, 1, res.Dropped)
	assert.Equal(t, []string{"R45"}, res.Sources)
	require.Len(t, res.Questions, 2)

	q := res.Questions[0]
	assert.Equal(t, "A", q.CorrectAnswer)
	assert.Equal(t, "I", q.Level)
	assert.Equal(t, domain.DifficultyMedium, q.Difficulty)
	assert.Equal(t, "user-1", q.CreatedBy)
	assert.Equal(t, "job-1", q.GenerationJobID)
	assert.Equal(t, "LOS 2b", res.Questions[1].LOS)

	s.AssertExpectations(t)
	r.AssertExpectations(t)
	l.AssertExpectations(t)
}

func TestGenerateTrimsToRequestedCount(t *testing.T) {
	s, r, l := new(mockStore), new(mockRetriever), new(mockLLM)
	s.On("TopicKnown", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(&domain.GenerationJob{ID: "job-2"}, nil)
	r.On("Retrieve", mock.Anything, mock.Anything).Return(&rag.Context{Sources: []string{}}, nil)
	l.On("Complete", mock.Anything, mock.Anything).Return(twoGoodOneBad, nil)
	s.On("SaveQuestions", mock.Anything, mock.MatchedBy(func(qs []domain.Question) bool { return len(qs) == 1 })).Return(nil)
	s.On("CompleteJob", mock.Anything, "job-2", "q1").Return(nil)

	res, err := newGenerator(s, r, l).Generate(context.Background(), Request{Level: "II", Topic: "Fixed Income", Count: 1})
	require.NoError(t, err)
	assert.Len(t, res.Questions, 1)
	assert.Equal(t, 2, res.Dropped)
}

func TestGenerateCompletesJobAfterClientDisconnect(t *testing.T) {
	s, r, l := new(mockStore), new(mockRetriever), new(mockLLM)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s.On("TopicKnown", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(&domain.GenerationJob{ID: "job-3"}, nil)
	r.On("Retrieve", mock.Anything, mock.Anything).Return(&rag.Context{Sources: []string{}}, nil)
	l.On("Complete", mock.Anything, mock.Anything).Return(twoGoodOneBad, nil)
	s.On("SaveQuestions", mock.Anything, mock.Anything).Return(nil).
		Run(func(mock.Arguments) { cancel() })
	s.On("CompleteJob", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil }), "job-3", "q1").
		Return(nil)

	res, err := newGenerator(s, r, l).Generate(ctx, Request{Level: "I", Topic: "Fixed Income", Count: 2})
	require.NoError(t, err)
	assert.Len(t, res.Questions, 2)

	s.AssertExpectations(t)
	s.AssertNotCalled(t, "FailJob", mock.Anything, mock.Anything, mock.Anything)
}

func TestGenerateContinuesWhenRetrievalFails(t *testing.T) {
	s, r, l := new(mockStore), new(mockRetriever), new(mockLLM)
	s.On("TopicKnown", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(&domain.GenerationJob{ID: "job-3"}, nil)
	r.On("Retrieve", mock.Anything, mock.Anything).Return(nil, errors.New("index offline"))
	l.On("Complete", mock.Anything, mock.MatchedBy(func(p llm.Prompt) bool {
		return !strings.Contains(p.User, "curriculum material")
	})).Return(twoGoodOneBad, nil)
	s.On("SaveQuestions", mock.Anything, mock.Anything).Return(nil)
	s.On("CompleteJob", mock.Anything, "job-3", "q1").Return(nil)

	res, err := newGenerator(s, r, l).Generate(context.Background(), Request{Level: "I", Topic: "Fixed Income"})
	require.NoError(t, err)
	assert.Empty(t, res.Sources)
}

func TestGenerateFailsJobWhenNothingValid(t *testing.T) {
	s, r, l := new(mockStore), new(mockRetriever), new(mockLLM)
	s.On("TopicKnown", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(&domain.GenerationJob{ID: "job-4"}, nil)
	r.On("Retrieve", mock.Anything, mock.Anything).Return(&rag.Context{Sources: []string{}}, nil)
	l.On("Complete", mock.Anything, mock.Anything).Return(`[{"question": "", "options": {}}]`, nil)
	s.On("FailJob", mock.Anything, "job-4", ErrNoValidQuestions.Error()).Return(nil)

	_, err := newGenerator(s, r, l).Generate(context.Background(), Request{Level: "III", Topic: "Portfolio Management"})
	assert.ErrorIs(t, err, ErrNoValidQuestions)
	s.AssertNotCalled(t, "SaveQuestions", mock.Anything, mock.Anything)
	s.AssertExpectations(t)
}

func TestGenerateFailsJobOnLLMError(t *testing.T) {
	s, r, l := new(mockStore), new(mockRetriever), new(mockLLM)
	s.On("TopicKnown", mock.Anything, mock.Anything, mock.Anything).Return(true, nil)
	s.On("CreateJob", mock.Anything, mock.Anything, mock.Anything).Return(&domain.GenerationJob{ID: "job-5"}, nil)
	r.On("Retrieve", mock.Anything, mock.Anything).Return(&rag.Context{Sources: []string{}}, nil)
	l.On("Complete", mock.Anything, mock.Anything).Return("", errors.New("overloaded"))
	s.On("FailJob", mock.Anything, "job-5", "llm: overloaded").Return(nil)

	_, err := newGenerator(s, r, l).Generate(context.Background(), Request{Level: "I", Topic: "Ethics"})
	assert.ErrorContains(t, err, "overloaded")
	s.AssertExpectations(t)
}

func TestGenerateRejectsUnknownTopic(t *testing.T) {
	s := new(mockStore)
	s.On("TopicKnown", mock.Anything, "I", "Astrology").Return(false, nil)

	_, err := newGenerator(s, new(mockRetriever), new(mockLLM)).Generate(context.Background(), Request{Level: "I", Topic: "Astrology"})
	assert.ErrorIs(t, err, ErrUnknownTopic)
	s.AssertNotCalled(t, "CreateJob", mock.Anything, mock.Anything, mock.Anything)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		req     Request
		wantErr bool
	}{
		{"defaults", Request{Level: "ii", Topic: "Equity"}, false},
		{"bad level", Request{Level: "IV", Topic: "Equity"}, true},
		{"missing topic", Request{Level: "I"}, true},
		{"bad difficulty", Request{Level: "I", Topic: "Equity", Difficulty: "brutal"}, true},
		{"too many", Request{Level: "I", Topic: "Equity", Count: MaxCount + 1}, true},
		{"negative", Request{Level: "I", Topic: "Equity", Count: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Normalize()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "II", tt.req.Level)
			assert.Equal(t, DefaultCount, tt.req.Count)
			assert.Equal(t, domain.DifficultyMedium, tt.req.Difficulty)
		})
	}
}

func TestParseDraftsWrappedObject(t *testing.T) {
	drafts, err := parseDrafts(`{"questions": [{"question": "q", "options": {"A":"1","B":"2","C":"3"}, "correct_answer": "C", "explanation": "e"}]}`)
	require.NoError(t, err)
	require.Len(t, drafts, 1)
	assert.Equal(t, "C", drafts[0].CorrectAnswer)

	_, err = parseDrafts("I cannot help with that")
	assert.Error(t, err)
}

func TestValidateRejectsDuplicateOptionsAndBadAnswers(t *testing.T) {
	_, ok := validate(draft{Question: "q", Explanation: "e", CorrectAnswer: "A",
		Options: map[string]string{"A": "same", "B": "same", "C": "other"}})
	assert.False(t, ok)

	_, ok = validate(draft{Question: "q", Explanation: "e", CorrectAnswer: "D",
		Options: map[string]string{"A": "1", "B": "2", "C": "3"}})
	assert.False(t, ok)

	q, ok := validate(draft{Question: " q ", Explanation: "e", CorrectAnswer: " c ",
		Options: map[string]string{"a": "1", "b": "2", "c": "3"}})
	assert.True(t, ok)
	assert.Equal(t, "C", q.CorrectAnswer)
	assert.Equal(t, "q", q.Stem)
}

func TestGrade(t *testing.T) {
	q := &domain.Question{CorrectAnswer: "B"}
	assert.True(t, Grade(q, " b"))
	assert.False(t, Grade(q, "A"))
}
