package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnest/internal/doctree"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser extracts doc comments from fenced JavaScript code blocks.
type MarkdownParser struct{}

var codeLanguages = map[string]bool{
	"js":         true,
	"javascript": true,
	"jsx":        true,
	"ts":         true,
	"typescript": true,
}

func (p *MarkdownParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read markdown: %w", err)
	}

	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	tree := &doctree.DocTree{
		Title: titleFromFilename(filename),
	}

	titled := false
	err = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Heading:
			// First level-1 heading names the document.
			if node.Level == 1 && !titled {
				if t := headingText(node, src); t != "" {
					tree.Title = t
					titled = true
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.FencedCodeBlock:
			lang := strings.ToLower(string(node.Language(src)))
			if !codeLanguages[lang] {
				return ast.WalkSkipChildren, nil
			}
			lines := node.Lines()
			if lines.Len() == 0 {
				return ast.WalkSkipChildren, nil
			}
			var code bytes.Buffer
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				code.Write(seg.Value(src))
			}
			first := lines.At(0)
			line := 1 + bytes.Count(src[:first.Start], []byte("\n"))
			tree.Comments = append(tree.Comments, ScanComments(code.String(), filename, line)...)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk markdown: %w", err)
	}

	return tree, nil
}

// headingText gets the text content of a heading's inline children.
func headingText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			buf.Write(t.Segment.Value(src))
			continue
		}
		buf.WriteString(headingText(c, src))
	}
	return strings.TrimSpace(buf.String())
}
