package issue

import (
	"bytes"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Flatten renders markdown as terminal text: block structure becomes line
// breaks, list items get a dash, inline markup is dropped.
func Flatten(src []byte) string {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var buf bytes.Buffer
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		switch n := n.(type) {
		case *ast.Text:
			if entering {
				buf.Write(n.Segment.Value(src))
				if n.SoftLineBreak() || n.HardLineBreak() {
					buf.WriteByte('\n')
				}
			}
		case *ast.AutoLink:
			if entering {
				buf.Write(n.Label(src))
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock, *ast.CodeBlock:
			if entering {
				lines := n.Lines()
				for i := 0; i < lines.Len(); i++ {
					seg := lines.At(i)
					buf.Write(seg.Value(src))
				}
				buf.WriteByte('\n')
			}
			return ast.WalkSkipChildren, nil
		case *ast.ThematicBreak:
			if entering {
				buf.WriteString(strings.Repeat("-", 40))
				buf.WriteString("\n\n")
			}
		case *ast.ListItem:
			if entering {
				buf.WriteString("- ")
			} else if !bytes.HasSuffix(buf.Bytes(), []byte("\n")) {
				buf.WriteByte('\n')
			}
		case *ast.List:
			if !entering {
				buf.WriteByte('\n')
			}
		case *ast.Heading, *ast.Paragraph:
			if !entering {
				if _, inItem := n.Parent().(*ast.ListItem); inItem {
					buf.WriteByte('\n')
				} else {
					buf.WriteString("\n\n")
				}
			}
		case *ast.RawHTML, *ast.HTMLBlock:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimRight(buf.String(), "\n") + "\n"
}
