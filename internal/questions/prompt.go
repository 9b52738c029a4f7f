package questions

import (
	"fmt"
	"strings"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/llm"
	"github.com/pbaille/cfaprep/internal/rag"
)

const systemPrompt = `You are an experienced CFA exam item writer. You write original
multiple-choice questions in the style of the CFA Program exams: a clear stem,
exactly three answer options labelled A, B and C, one correct answer, and an
explanation that says why the answer is right and why each distractor is wrong.`

func buildPrompt(req Request, ctx *rag.Context) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write %d %s-difficulty practice questions for CFA Level %s, topic %q",
		req.Count, req.Difficulty, req.Level, req.Topic)
	if req.Subtopic != "" {
		fmt.Fprintf(&sb, ", subtopic %q", req.Subtopic)
	}
	sb.WriteString(".\n")
	if req.LOS != "" {
		fmt.Fprintf(&sb, "Target this learning outcome statement: %s\n", req.LOS)
	}
	sb.WriteString("\n")

	if !ctx.Empty() {
		sb.WriteString("Base the questions on this curriculum material:\n\n")
		sb.WriteString(ctx.Text)
		sb.WriteString("\n\n")
	}

	sb.WriteString(`Return a JSON array with this structure:
[
  {
    "question": "stem text",
    "options": {"A": "...", "B": "...", "C": "..."},
    "correct_answer": "A",
    "explanation": "why A is correct and B, C are not",
    "los": "learning outcome addressed"
  }
]

Rules:
- Exactly three options per question, all plausible
- Numbers in calculation questions must be internally consistent
- Do not copy sentences verbatim from the material
- Vary which letter is correct

Return ONLY the JSON, no other text.`)

	return sb.String()
}

type draft struct {
	Question      string            `json:"question"`
	Options       map[string]string `json:"options"`
	CorrectAnswer string            `json:"correct_answer"`
	Explanation   string            `json:"explanation"`
	LOS           string            `json:"los"`
}

// parseDrafts accepts a bare array or an object wrapping it under "questions"
func parseDrafts(reply string) ([]draft, error) {
	payload := llm.ExtractJSON(reply)
	if strings.HasPrefix(payload, "{") {
		var wrapped struct {
			Questions []draft `json:"questions"`
		}
		if err := llm.DecodeJSON(payload, &wrapped); err != nil {
			return nil, err
		}
		return wrapped.Questions, nil
	}

	var drafts []draft
	if err := llm.DecodeJSON(payload, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

// toQuestions keeps well-formed drafts and counts the rest as dropped
func toQuestions(drafts []draft, req Request, sources []string, jobID string) ([]domain.Question, int) {
	var (
		out     []domain.Question
		dropped int
	)
	for _, d := range drafts {
		q, ok := validate(d)
		if !ok {
			dropped++
			continue
		}
		q.Level = req.Level
		q.Topic = req.Topic
		q.Subtopic = req.Subtopic
		q.Difficulty = req.Difficulty
		if q.LOS == "" {
			q.LOS = req.LOS
		}
		q.Sources = sources
		q.GenerationJobID = jobID
		q.CreatedBy = req.CreatedBy
		out = append(out, q)
	}
	return out, dropped
}

func validate(d draft) (domain.Question, bool) {
	opts := make(map[string]string, len(d.Options))
	for k, v := range d.Options {
		opts[strings.ToUpper(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}

	q := domain.Question{
		Stem:          strings.TrimSpace(d.Question),
		OptionA:       opts["A"],
		OptionB:       opts["B"],
		OptionC:       opts["C"],
		CorrectAnswer: strings.ToUpper(strings.TrimSpace(d.CorrectAnswer)),
		Explanation:   strings.TrimSpace(d.Explanation),
		LOS:           strings.TrimSpace(d.LOS),
	}

	if q.Stem == "" || q.Explanation == "" || len(opts) != 3 {
		return q, false
	}
	if q.OptionA == "" || q.OptionB == "" || q.OptionC == "" {
		return q, false
	}
	if q.OptionA == q.OptionB || q.OptionA == q.OptionC || q.OptionB == q.OptionC {
		return q, false
	}
	if !ValidAnswer(q.CorrectAnswer) {
		return q, false
	}
	return q, true
}

// ValidAnswer reports whether s names one of the three options
func ValidAnswer(s string) bool {
	return s == "A" || s == "B" || s == "C"
}

// Grade reports whether selected is the question's correct answer
func Grade(q *domain.Question, selected string) bool {
	return strings.ToUpper(strings.TrimSpace(selected)) == q.CorrectAnswer
}
