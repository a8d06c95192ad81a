// ABOUTME: Plain-text extraction from markdown message bodies.
// ABOUTME: Produces full text and single-line ellipsized snippets for previews.

package preview

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// md is shared across calls; goldmark is safe for concurrent use.
var md = goldmark.New()

// Text extracts the human-readable text from a markdown document, dropping
// all markup while keeping link labels and code content. Block boundaries
// become newlines.
func Text(markdown string) string {
	source := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			if n.Type() == ast.TypeBlock {
				endBlock(&b)
			}
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
			if v.SoftLineBreak() || v.HardLineBreak() {
				b.WriteByte('\n')
			}
		case *ast.String:
			b.Write(v.Value)
		case *ast.AutoLink:
			b.Write(v.Label(source))
		case *ast.FencedCodeBlock:
			writeLines(&b, v, source)
		case *ast.CodeBlock:
			writeLines(&b, v, source)
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

// Snippet renders a single-line preview of at most maxRunes runes,
// ellipsizing longer text. Non-positive maxRunes means no limit.
func Snippet(markdown string, maxRunes int) string {
	line := strings.Join(strings.Fields(Text(markdown)), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(line) <= maxRunes {
		return line
	}
	if maxRunes == 1 {
		return "…"
	}
	runes := []rune(line)
	return string(runes[:maxRunes-1]) + "…"
}

// endBlock terminates the current block with a newline unless the buffer
// already ends on one.
func endBlock(b *strings.Builder) {
	s := b.String()
	if len(s) > 0 && !strings.HasSuffix(s, "\n") {
		b.WriteByte('\n')
	}
}

// writeLines copies a code block's raw lines. Code content is not markup,
// so it survives extraction verbatim.
func writeLines(b *strings.Builder, n interface{ Lines() *text.Segments }, source []byte) {
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(source))
	}
}
