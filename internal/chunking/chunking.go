// Package chunking splits study documents into overlapping pieces small
// enough to embed.
package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Defaults used when Options leaves a field zero
const (
	DefaultMaxChars = 1200
	DefaultOverlap  = 200
)

var headerRegex = regexp.MustCompile(`^(#{1,6})\s+(.+)$`)

// Options bounds chunk size
type Options struct {
	MaxChars int
	Overlap  int
}

// Chunk is one piece of a document
type Chunk struct {
	Section string
	Index   int
	Content string
}

// Section is a markdown heading and the text under it
type Section struct {
	Title   string
	Content string
}

// SplitSections splits markdown content into sections based on headers.
// Text before the first header becomes an untitled section.
func SplitSections(content string) []Section {
	var (
		sections []Section
		title    string
		lines    []string
	)

	flush := func() {
		body := strings.TrimSpace(strings.Join(lines, "\n"))
		if body != "" {
			sections = append(sections, Section{Title: title, Content: body})
		}
		lines = lines[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		if m := headerRegex.FindStringSubmatch(strings.TrimRight(line, " \t\r")); m != nil {
			flush()
			title = strings.TrimSpace(m[2])
			continue
		}
		lines = append(lines, line)
	}
	flush()

	return sections
}

// Split breaks content into chunks of at most MaxChars bytes. Chunks never
// cross a section boundary; inside a section consecutive chunks share about
// Overlap bytes, cut on whitespace where possible.
func Split(content string, opts Options) []Chunk {
	if opts == (Options{}) {
		opts = Options{MaxChars: DefaultMaxChars, Overlap: DefaultOverlap}
	}
	maxChars := opts.MaxChars
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}
	overlap := opts.Overlap
	if overlap < 0 || overlap >= maxChars {
		overlap = 0
	}

	var chunks []Chunk
	for _, sec := range SplitSections(content) {
		text := strings.Join(strings.Fields(sec.Content), " ")
		for _, piece := range window(text, maxChars, overlap) {
			chunks = append(chunks, Chunk{Section: sec.Title, Index: len(chunks), Content: piece})
		}
	}
	return chunks
}

func window(text string, maxChars, overlap int) []string {
	if len(text) <= maxChars {
		return []string{text}
	}

	var pieces []string
	start := 0
	for start < len(text) {
		end := start + maxChars
		if end >= len(text) {
			pieces = append(pieces, strings.TrimSpace(text[start:]))
			break
		}
		// back off to the last space so words stay whole
		if cut := strings.LastIndexByte(text[start:end], ' '); cut > maxChars/2 {
			end = start + cut
		}
		for end > start+1 && !utf8.RuneStart(text[end]) {
			end--
		}
		pieces = append(pieces, strings.TrimSpace(text[start:end]))

		next := end - overlap
		if overlap > 0 {
			if sp := strings.IndexByte(text[next:end], ' '); sp >= 0 {
				next += sp + 1
			}
		}
		if next <= start {
			next = end
		}
		for next < len(text) && !utf8.RuneStart(text[next]) {
			next++
		}
		start = next
	}
	return pieces
}
