package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnest/internal/doctree"
)

func treeText(w io.Writer, tree *doctree.DocTree) error {
	bw := bufio.NewWriter(w)
	if tree != nil {
		fmt.Fprintln(bw, tree.Title)
		for _, c := range tree.Comments {
			if c == nil {
				continue
			}
			fmt.Fprintln(bw)
			fmt.Fprintf(bw, "%s:%d", c.File, c.Line)
			if heading := commentHeading(c); heading != "" {
				fmt.Fprintf(bw, " %s", heading)
			}
			fmt.Fprintln(bw)
			if c.Doc != "" {
				fmt.Fprintln(bw, indent(c.Doc, "  "))
			}
			if err := declarationsText(bw, c.Tags, 1); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func declarationsText(w io.Writer, decls []*doctree.Declaration, depth int) error {
	pad := strings.Repeat("  ", depth)
	for _, d := range decls {
		if d == nil {
			continue
		}
		line := pad + "- " + d.Name
		if d.Type != "" {
			line += " : " + d.Type
		}
		if d.Default != "" {
			line += " = " + d.Default
		}
		if flags := declFlags(d); flags != "" {
			line += " " + flags
		}
		if d.Doc != "" {
			line += "  " + strings.ReplaceAll(d.Doc, "\n", " ")
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
		if err := declarationsText(w, d.Children, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func commentHeading(c *doctree.DocComment) string {
	switch {
	case c.Kind != "" && c.Name != "":
		return c.Kind + " " + c.Name
	case c.Kind != "":
		return c.Kind
	}
	return c.Name
}

func declFlags(d *doctree.Declaration) string {
	var flags []string
	if d.Optional {
		flags = append(flags, "(optional)")
	}
	if d.Required {
		flags = append(flags, "(required)")
	}
	return strings.Join(flags, " ")
}

func indent(s, pad string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = pad + l
		}
	}
	return strings.Join(lines, "\n")
}
