// Package render turns nested doc trees into JSON, HTML or plain text.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/dgallion1/docnest/internal/doctree"
)

// Format is an output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatHTML Format = "html"
	FormatText Format = "text"
)

// ParseFormat validates a format name. Empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatHTML, FormatText:
		return f, nil
	}
	return "", fmt.Errorf("unknown format %q (want json, html or text)", s)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatText:
		return "text/plain; charset=utf-8"
	}
	return "application/json"
}

// Tree writes a whole doc tree.
func Tree(w io.Writer, tree *doctree.DocTree, f Format) error {
	switch f {
	case FormatHTML:
		return treeHTML(w, tree)
	case FormatText:
		return treeText(w, tree)
	default:
		return writeJSON(w, tree)
	}
}

// Declarations writes a bare declaration list, as produced by nesting one
// list of records.
func Declarations(w io.Writer, decls []*doctree.Declaration, f Format) error {
	switch f {
	case FormatHTML:
		return declarationsHTML(w, decls)
	case FormatText:
		return declarationsText(w, decls, 0)
	default:
		if decls == nil {
			decls = []*doctree.Declaration{}
		}
		return writeJSON(w, decls)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}
