package chunking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSections(t *testing.T) {
	doc := "Intro line\n\n# Duration\nMacaulay duration.\n\n## Convexity\nSecond-order effect.\n# Empty\n"

	sections := SplitSections(doc)
	require.Len(t, sections, 3)
	assert.Equal(t, "", sections[0].Title)
	assert.Equal(t, "Intro line", sections[0].Content)
	assert.Equal(t, "Duration", sections[1].Title)
	assert.Equal(t, "Convexity", sections[2].Title)
	assert.Equal(t, "Second-order effect.", sections[2].Content)
}

func TestSplitEmpty(t *testing.T) {
	assert.Empty(t, Split("", Options{}))
	assert.Empty(t, Split("   \n\n  ", Options{}))
}

func TestSplitShortSectionIsOneChunk(t *testing.T) {
	chunks := Split("# A\nalpha beta\n# B\ngamma", Options{})
	require.Len(t, chunks, 2)
	assert.Equal(t, Chunk{Section: "A", Index: 0, Content: "alpha beta"}, chunks[0])
	assert.Equal(t, 1, chunks[1].Index)
}

func TestSplitRespectsMaxCharsAndOverlaps(t *testing.T) {
	words := make([]string, 300)
	for i := range words {
		words[i] = "word" + strings.Repeat("x", i%5)
	}
	text := strings.Join(words, " ")

	chunks := Split(text, Options{MaxChars: 200, Overlap: 40})
	require.Greater(t, len(chunks), 5)

	for i, c := range chunks {
		assert.LessOrEqual(t, len(c.Content), 200)
		assert.False(t, strings.HasPrefix(c.Content, " "))
		assert.Contains(t, text, c.Content)
		if i > 0 {
			prev := chunks[i-1].Content
			assert.Contains(t, prev[len(prev)-40:], c.Content[:10], "chunk %d starts inside the tail of chunk %d", i, i-1)
		}
	}

	// every word survives chunking
	joined := ""
	for _, c := range chunks {
		joined += " " + c.Content
	}
	for _, w := range []string{words[0], words[150], words[299]} {
		assert.Contains(t, joined, w)
	}
}

func TestSplitKeepsUTF8Valid(t *testing.T) {
	text := strings.Repeat("é", 500)
	chunks := Split(text, Options{MaxChars: 101, Overlap: 10})
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.True(t, strings.ToValidUTF8(c.Content, "?") == c.Content)
	}
}
