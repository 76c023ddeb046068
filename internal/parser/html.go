package parser

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnest/internal/doctree"
	"golang.org/x/net/html"
)

// HTMLParser extracts doc comments from inline <script> elements.
type HTMLParser struct{}

func (p *HTMLParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read html: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	tree := &doctree.DocTree{
		Title: titleFromFilename(filename),
	}

	// Extract title from <title> tag if present.
	if title := findTitle(doc); title != "" {
		tree.Title = title
	}

	// The parser drops positions, so script bodies are located in the raw
	// source to recover line numbers. cursor keeps the search moving forward
	// when two scripts share the same text. The tokenizer turns CR and CRLF
	// into LF in text nodes, so raw must match.
	raw := strings.ReplaceAll(strings.ReplaceAll(string(src), "\r\n", "\n"), "\r", "\n")
	cursor := 0

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "script" {
			if !isJavaScript(n) {
				return
			}
			body := textContent(n)
			if !strings.Contains(body, "/**") {
				return
			}
			line := 1
			if i := strings.Index(raw[cursor:], body); i >= 0 {
				line += strings.Count(raw[:cursor+i], "\n")
				cursor += i + len(body)
			}
			tree.Comments = append(tree.Comments, ScanComments(body, filename, line)...)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return tree, nil
}

func isJavaScript(n *html.Node) bool {
	for _, a := range n.Attr {
		if a.Key != "type" {
			continue
		}
		t := strings.ToLower(strings.TrimSpace(a.Val))
		return t == "" || t == "module" || strings.Contains(t, "javascript") || strings.Contains(t, "ecmascript")
	}
	return true
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return buf.String()
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return strings.TrimSpace(textContent(n))
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}
