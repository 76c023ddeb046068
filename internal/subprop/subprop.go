// Package subprop rebuilds the nesting that dotted declaration names encode.
//
// Given @param tags from a doc comment named
//
//	foo
//	foo.bar
//	foo.baz
//	zap
//
// Nest produces
//
//	foo
//	  bar
//	  baz
//	zap
package subprop

import (
	"fmt"
	"strings"

	"github.com/dgallion1/docnest/internal/diag"
	"github.com/dgallion1/docnest/internal/doctree"
)

// Nester nests flat declaration lists.
type Nester struct {
	// Sink receives warnings about unresolvable subproperties. Nil discards them.
	Sink diag.Sink

	// WarnMalformedHead reports a malformed_head warning when the first
	// declaration is dotted and the rest of the list is thrown away.
	WarnMalformedHead bool
}

// Nest nests records using a Nester with the given sink.
func Nest(records []*doctree.Declaration, file string, line int, sink diag.Sink) []*doctree.Declaration {
	n := Nester{Sink: sink}
	return n.Nest(records, file, line)
}

// Nest returns the root declarations of records, with every dotted record
// moved under the record whose original name equals its prefix. Names of
// nested records are rewritten to their last segment. Records whose parent
// cannot be found are dropped with a warning attributed to file:line.
//
// If the first record is itself dotted, only that record is returned.
//
// Records are mutated in place; the caller must own them for the duration of
// the call.
func (n Nester) Nest(records []*doctree.Declaration, file string, line int) []*doctree.Declaration {
	if len(records) == 0 {
		return nil
	}

	// The first item can't be namespaced. If it is, ignore the rest.
	if head := records[0]; head != nil && strings.Contains(head.Name, ".") {
		if n.WarnMalformedHead && len(records) > 1 {
			n.warn(diag.CodeMalformedHead,
				fmt.Sprintf("First declaration `%s` is a subproperty, ignoring %d following declarations.", head.Name, len(records)-1),
				file, line)
		}
		return records[:1:1]
	}

	// Index original names before any of them get rewritten.
	index := make(map[string]int, len(records))
	for i, r := range records {
		if r != nil {
			index[r.Name] = i
		}
	}

	var roots []*doctree.Declaration
	for _, r := range records {
		if r == nil {
			continue
		}
		parentKey, leaf, ok := splitLast(r.Name)
		if !ok {
			roots = append(roots, r)
			continue
		}

		r.Name = leaf
		i, found := index[parentKey]
		if !found {
			n.warn(diag.CodeSubproperty,
				fmt.Sprintf("Ignoring subproperty `%s.%s`, no parent found with name '%s'.", parentKey, leaf, parentKey),
				file, line)
			continue
		}
		parent := records[i]
		parent.Children = append(parent.Children, r)
	}
	return roots
}

func (n Nester) warn(code diag.Code, msg, file string, line int) {
	if n.Sink == nil {
		return
	}
	n.Sink.Warn(diag.NewWarning(code, msg, file, line))
}

// splitLast splits "a.b.c" into "a.b" and "c". Both parts must be non-empty
// and the leaf must not contain a dot, so "a." and ".b" don't split.
func splitLast(name string) (parent, leaf string, ok bool) {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return "", "", false
	}
	return name[:i], name[i+1:], true
}
