package pipeline

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// NarrationText reduces a markdown lesson body to the plain text worth
// speaking aloud. Section headings are dropped entirely; all inline markup
// is unwrapped to its text content. Block boundaries become sentence
// pauses so the narration does not run paragraphs together.
func NarrationText(markdown string) string {
	source := []byte(markdown)
	doc := goldmark.DefaultParser().Parse(text.NewReader(source))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if n.Kind() == ast.KindHeading {
			return ast.WalkSkipChildren, nil
		}
		if !entering {
			if isBlockBoundary(n) && b.Len() > 0 {
				b.WriteString("\n")
			}
			return ast.WalkContinue, nil
		}
		if t, ok := n.(*ast.Text); ok {
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteString(" ")
			}
		}
		return ast.WalkContinue, nil
	})

	return strings.TrimSpace(b.String())
}

func isBlockBoundary(n ast.Node) bool {
	switch n.Kind() {
	case ast.KindParagraph, ast.KindListItem, ast.KindBlockquote:
		return true
	}
	return false
}
