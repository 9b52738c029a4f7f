package blog

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func renderer() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.DefinitionList,
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
		)
	})
	return markdown
}

// RenderHTML converts post markdown to HTML. Raw HTML in the source is
// dropped since goldmark leaves WithUnsafe off.
func RenderHTML(source string) (string, error) {
	var buf bytes.Buffer
	if err := renderer().Convert([]byte(source), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
