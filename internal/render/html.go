package render

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/dgallion1/docnest/internal/doctree"
	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var md = goldmark.New()

func treeHTML(w io.Writer, tree *doctree.DocTree) error {
	title := ""
	var comments []*doctree.DocComment
	if tree != nil {
		title = tree.Title
		comments = tree.Comments
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	root := element(atom.Html)
	doc.AppendChild(root)

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(withText(element(atom.Title), title))
	root.AppendChild(head)

	body := element(atom.Body, attr("class", "docnest"))
	root.AppendChild(body)
	body.AppendChild(withText(element(atom.H1), title))

	for _, c := range comments {
		if c == nil {
			continue
		}
		section := element(atom.Section,
			attr("class", "comment"),
			attr("id", c.File+":"+strconv.Itoa(c.Line)),
		)
		if heading := commentHeading(c); heading != "" {
			section.AppendChild(withText(element(atom.H2), heading))
		}
		section.AppendChild(withText(element(atom.P, attr("class", "location")),
			fmt.Sprintf("%s:%d", c.File, c.Line)))
		if c.Doc != "" {
			docDiv := element(atom.Div, attr("class", "doc"))
			if err := appendMarkdown(docDiv, c.Doc); err != nil {
				return err
			}
			section.AppendChild(docDiv)
		}
		if len(c.Tags) > 0 {
			list, err := declarationList(c.Tags)
			if err != nil {
				return err
			}
			section.AppendChild(list)
		}
		body.AppendChild(section)
	}

	if err := html.Render(w, doc); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

func declarationsHTML(w io.Writer, decls []*doctree.Declaration) error {
	list, err := declarationList(decls)
	if err != nil {
		return err
	}
	if err := html.Render(w, list); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	return nil
}

// declarationList builds <ul class="declarations"> with one <li> per
// declaration and a nested list for its children.
func declarationList(decls []*doctree.Declaration) (*html.Node, error) {
	ul := element(atom.Ul, attr("class", "declarations"))
	for _, d := range decls {
		if d == nil {
			continue
		}
		li := element(atom.Li)
		if d.Tag != "" {
			li.Attr = append(li.Attr, attr("class", d.Tag))
		}
		li.AppendChild(withText(element(atom.Code, attr("class", "name")), d.Name))
		if d.Type != "" {
			li.AppendChild(text(" : "))
			li.AppendChild(withText(element(atom.Span, attr("class", "type")), d.Type))
		}
		if d.Default != "" {
			li.AppendChild(text(" (default: "))
			li.AppendChild(withText(element(atom.Code, attr("class", "default")), d.Default))
			li.AppendChild(text(")"))
		}
		if flags := declFlags(d); flags != "" {
			li.AppendChild(text(" "))
			li.AppendChild(withText(element(atom.Em), flags))
		}
		if d.Doc != "" {
			docDiv := element(atom.Div, attr("class", "doc"))
			if err := appendMarkdown(docDiv, d.Doc); err != nil {
				return nil, err
			}
			li.AppendChild(docDiv)
		}
		if len(d.Children) > 0 {
			sub, err := declarationList(d.Children)
			if err != nil {
				return nil, err
			}
			li.AppendChild(sub)
		}
		ul.AppendChild(li)
	}
	return ul, nil
}

// appendMarkdown converts doc text with goldmark and appends the resulting
// nodes to parent. goldmark omits raw HTML found in the source.
func appendMarkdown(parent *html.Node, src string) error {
	var buf bytes.Buffer
	if err := md.Convert([]byte(src), &buf); err != nil {
		return fmt.Errorf("convert markdown: %w", err)
	}
	nodes, err := html.ParseFragment(&buf, element(atom.Div))
	if err != nil {
		return fmt.Errorf("parse markdown html: %w", err)
	}
	for _, n := range nodes {
		parent.AppendChild(n)
	}
	return nil
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, Data: a.String(), DataAtom: a, Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func withText(n *html.Node, s string) *html.Node {
	if s != "" {
		n.AppendChild(text(s))
	}
	return n
}
