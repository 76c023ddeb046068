package parser

import (
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnest/internal/doctree"
)

// JSParser extracts /** ... */ doc comments from JavaScript-like sources.
type JSParser struct{}

func (p *JSParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read source: %w", err)
	}
	return &doctree.DocTree{
		Title:    titleFromFilename(filename),
		Comments: ScanComments(string(src), filename, 1),
	}, nil
}

// Declaration tags and the canonical tag they map to.
var declTags = map[string]string{
	"param":    "param",
	"cfg":      "cfg",
	"property": "property",
	"prop":     "property",
	"return":   "return",
	"returns":  "return",
}

// Tags that name the documented member itself.
var memberTags = map[string]bool{
	"class":  true,
	"method": true,
	"event":  true,
}

// ScanComments finds every /** ... */ block in src. firstLine is the line
// number of the first line of src, so callers scanning an excerpt (a
// <script> body, a fenced code block) keep line numbers of the whole file.
// Unterminated comments are ignored.
func ScanComments(src, file string, firstLine int) []*doctree.DocComment {
	var comments []*doctree.DocComment
	line := firstLine
	pos := 0
	for {
		i := strings.Index(src[pos:], "/**")
		if i < 0 {
			break
		}
		start := pos + i
		// "/**/" is an empty block comment, not a doc comment.
		if strings.HasPrefix(src[start:], "/**/") {
			line += strings.Count(src[pos:start+4], "\n")
			pos = start + 4
			continue
		}
		j := strings.Index(src[start+3:], "*/")
		if j < 0 {
			break
		}
		end := start + 3 + j

		line += strings.Count(src[pos:start], "\n")
		c := parseComment(src[start+3 : end])
		c.File = file
		c.Line = line

		comments = append(comments, c)
		line += strings.Count(src[start:end+2], "\n")
		pos = end + 2
	}
	return comments
}

func parseComment(body string) *doctree.DocComment {
	c := &doctree.DocComment{}
	var doc strings.Builder
	var cur *doctree.Declaration
	var curDoc strings.Builder
	inTag := false

	flush := func() {
		if cur != nil {
			cur.Doc = joinDoc(cur.Doc, curDoc.String())
			c.Tags = append(c.Tags, cur)
		}
		cur = nil
		curDoc.Reset()
	}

	for _, raw := range strings.Split(body, "\n") {
		text := stripCommentLine(raw)

		if strings.HasPrefix(text, "@") {
			flush()
			inTag = true
			tag, rest := splitTag(text[1:])

			if c.Kind == "" && (memberTags[tag] || tag == "cfg" || tag == "property") {
				c.Kind = tag
			}
			if memberTags[tag] {
				if c.Name == "" {
					c.Name = firstWord(rest)
				}
				inTag = false
				continue
			}
			canonical, ok := declTags[tag]
			if !ok {
				continue
			}
			d := parseDeclaration(canonical, rest)
			if d.Name == "" {
				// "@cfg" on its own documents the member that follows the
				// comment; its text is the comment's own doc.
				if d.Doc != "" {
					doc.WriteString(d.Doc + "\n")
				}
				inTag = false
				continue
			}
			cur = d
			continue
		}

		switch {
		case cur != nil:
			curDoc.WriteString(text + "\n")
		case !inTag:
			doc.WriteString(text + "\n")
		}
	}
	flush()

	c.Doc = strings.TrimSpace(doc.String())
	return c
}

// parseDeclaration parses what follows a declaration tag:
//
//	{Type} name (required) doc
//	{Type} [name=default] doc
func parseDeclaration(tag, rest string) *doctree.Declaration {
	d := &doctree.Declaration{Tag: tag}
	rest = strings.TrimSpace(rest)

	if strings.HasPrefix(rest, "{") {
		if end := matchingClose(rest, '{', '}'); end > 0 {
			d.Type = strings.TrimSpace(rest[1:end])
			rest = strings.TrimSpace(rest[end+1:])
		}
	}

	// "@return {T} return.url doc" documents a property of the return value.
	if tag == "return" {
		d.Name = "return"
		if w := firstWord(rest); w == "return" || strings.HasPrefix(w, "return.") {
			d.Name = w
			rest = strings.TrimSpace(rest[len(w):])
		}
		d.Doc = rest
		return d
	}

	if strings.HasPrefix(rest, "[") {
		if end := matchingClose(rest, '[', ']'); end > 0 {
			inner := strings.TrimSpace(rest[1:end])
			d.Optional = true
			if eq := strings.IndexByte(inner, '='); eq >= 0 {
				d.Default = strings.TrimSpace(inner[eq+1:])
				inner = strings.TrimSpace(inner[:eq])
			}
			d.Name = inner
			rest = strings.TrimSpace(rest[end+1:])
		}
	} else {
		d.Name = firstWord(rest)
		rest = strings.TrimSpace(rest[len(d.Name):])
	}

	switch {
	case strings.HasPrefix(rest, "(required)"):
		d.Required = true
		rest = strings.TrimSpace(rest[len("(required)"):])
	case strings.HasPrefix(rest, "(optional)"):
		d.Optional = true
		rest = strings.TrimSpace(rest[len("(optional)"):])
	}
	if strings.HasPrefix(rest, "- ") {
		rest = strings.TrimSpace(rest[2:])
	}
	d.Doc = rest
	return d
}

// stripCommentLine removes indentation and the leading "*" of a comment line.
func stripCommentLine(line string) string {
	line = strings.TrimRight(line, " \t\r")
	line = strings.TrimLeft(line, " \t")
	if strings.HasPrefix(line, "*") {
		line = line[1:]
		line = strings.TrimPrefix(line, " ")
	}
	return line
}

func splitTag(s string) (tag, rest string) {
	i := strings.IndexAny(s, " \t{")
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

func firstWord(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		return s[:i]
	}
	return s
}

// matchingClose returns the index of the bracket closing s[0], honouring
// nesting, or -1.
func matchingClose(s string, open, close byte) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func joinDoc(first, more string) string {
	first = strings.TrimSpace(first)
	more = strings.TrimSpace(more)
	switch {
	case first == "":
		return more
	case more == "":
		return first
	}
	return first + "\n" + more
}
