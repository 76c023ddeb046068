package subprop

import "github.com/dgallion1/docnest/internal/doctree"

// NestTree nests the tags of every comment in tree. Tags are grouped by tag
// kind in order of first appearance, and each group is nested on its own, so
// a @param can't become the parent of a @cfg. Returns the number of
// declarations that survived.
func (n Nester) NestTree(tree *doctree.DocTree) int {
	if tree == nil {
		return 0
	}
	total := 0
	for _, c := range tree.Comments {
		if c == nil || len(c.Tags) == 0 {
			continue
		}
		var nested []*doctree.Declaration
		for _, group := range groupByTag(c.Tags) {
			nested = append(nested, n.Nest(group, c.File, c.Line)...)
		}
		c.Tags = nested
		total += doctree.Count(nested)
	}
	return total
}

func groupByTag(decls []*doctree.Declaration) [][]*doctree.Declaration {
	var order []string
	groups := make(map[string][]*doctree.Declaration)
	for _, d := range decls {
		if d == nil {
			continue
		}
		if _, ok := groups[d.Tag]; !ok {
			order = append(order, d.Tag)
		}
		groups[d.Tag] = append(groups[d.Tag], d)
	}
	out := make([][]*doctree.Declaration, 0, len(order))
	for _, tag := range order {
		out = append(out, groups[tag])
	}
	return out
}
