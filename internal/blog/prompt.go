package blog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pbaille/cfaprep/internal/domain"
	"github.com/pbaille/cfaprep/internal/rag"
)

const systemPrompt = `You write SEO-friendly study articles for CFA candidates.
Your writing is accurate, concrete and exam-focused. You use markdown headings,
short paragraphs, worked examples where they help, and never invent curriculum
content that contradicts the CFA Institute readings.`

// article is the JSON shape the drafting prompt asks for
type article struct {
	Title           string       `json:"title"`
	Slug            string       `json:"slug"`
	Excerpt         string       `json:"excerpt"`
	MetaDescription string       `json:"meta_description"`
	Content         string       `json:"content"`
	FAQ             []domain.FAQ `json:"faq"`
}

func (a *article) check() error {
	if strings.TrimSpace(a.Title) == "" {
		return errors.New("draft has no title")
	}
	if strings.TrimSpace(a.Content) == "" {
		return errors.New("draft has no content")
	}
	return nil
}

func (a *article) cleanFAQ() []domain.FAQ {
	var out []domain.FAQ
	for _, f := range a.FAQ {
		q, ans := strings.TrimSpace(f.Question), strings.TrimSpace(f.Answer)
		if q != "" && ans != "" {
			out = append(out, domain.FAQ{Question: q, Answer: ans})
		}
	}
	return out
}

func draftPrompt(req Request, category *domain.Category, ctx *rag.Context, reference string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write a blog article of about %d words on %q for the %q category.\n",
		req.WordCount, req.Topic, category.Name)
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, "Target keywords: %s\n", strings.Join(req.Keywords, ", "))
	}
	if req.Level != "" {
		fmt.Fprintf(&sb, "Audience: CFA Level %s candidates.\n", req.Level)
	}
	sb.WriteString("\n")

	if !ctx.Empty() {
		sb.WriteString("Ground the article in this curriculum material:\n\n")
		sb.WriteString(ctx.Text)
		sb.WriteString("\n\n")
	}
	if reference != "" {
		sb.WriteString("Reference page (use for angle and facts, do not copy):\n\n")
		sb.WriteString(reference)
		sb.WriteString("\n\n")
	}

	sb.WriteString(`Return a JSON object with this structure:
{
  "title": "article title",
  "slug": "url-slug",
  "excerpt": "one or two sentence summary",
  "meta_description": "at most 160 characters",
  "content": "the article in markdown, starting at an H2 heading"`)
	if req.IncludeFAQ {
		sb.WriteString(`,
  "faq": [{"question": "...", "answer": "..."}]`)
	}
	sb.WriteString("\n}\n\n")
	if req.IncludeFAQ {
		sb.WriteString("Include 4 to 6 FAQ entries candidates actually search for.\n")
	}
	sb.WriteString("Return ONLY the JSON, no other text.")

	return sb.String()
}

func enhancePrompt(req Request, content string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Improve this draft article on %q. ", req.Topic)
	sb.WriteString("Tighten the prose, add a worked example or exam tip where one is missing, ")
	sb.WriteString("fix any factual slips and keep the markdown structure.")
	if len(req.Keywords) > 0 {
		fmt.Fprintf(&sb, " Keep these keywords present: %s.", strings.Join(req.Keywords, ", "))
	}
	sb.WriteString("\n\nReturn ONLY the improved markdown.\n\n")
	sb.WriteString(content)
	return sb.String()
}

// stripFence removes a surrounding markdown code fence if the model added one
func stripFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSuffix(strings.TrimSpace(s), "```")
}
