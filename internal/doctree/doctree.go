package doctree

// DocTree is the root of a parsed source file.
type DocTree struct {
	Title    string        `json:"title"`    // Source title (from metadata or filename)
	Comments []*DocComment `json:"comments"` // Doc comments in source order
}

// DocComment is a single annotated comment block.
type DocComment struct {
	File string         `json:"file"`
	Line int            `json:"line"`           // 1-based line where the comment starts
	Kind string         `json:"kind,omitempty"` // class, method, event, cfg... (empty if unknown)
	Name string         `json:"name,omitempty"` // Member name from @class/@method/@event
	Doc  string         `json:"doc,omitempty"`  // Text before the first tag
	Tags []*Declaration `json:"tags,omitempty"`
}

// Declaration is one declared entity (a param, cfg, property...). Before nesting
// Name may be dotted; afterwards it holds only the leaf segment.
type Declaration struct {
	Name     string         `json:"name"`
	Children []*Declaration `json:"children,omitempty"`

	// Payload below is carried through nesting untouched.
	Tag      string         `json:"tag,omitempty"`
	Type     string         `json:"type,omitempty"`
	Doc      string         `json:"doc,omitempty"`
	Optional bool           `json:"optional,omitempty"`
	Default  string         `json:"default,omitempty"`
	Required bool           `json:"required,omitempty"`
	Meta     map[string]any `json:"meta,omitempty"`
}

// Count returns the number of declarations in the slice, including all
// descendants.
func Count(decls []*Declaration) int {
	n := 0
	for _, d := range decls {
		if d == nil {
			continue
		}
		n += 1 + Count(d.Children)
	}
	return n
}

// Walk visits declarations depth-first in order, passing each one with the
// names of its ancestors.
func Walk(decls []*Declaration, fn func(d *Declaration, path []string)) {
	var walk func(nodes []*Declaration, path []string)
	walk = func(nodes []*Declaration, path []string) {
		for _, d := range nodes {
			if d == nil {
				continue
			}
			fn(d, path)
			if len(d.Children) > 0 {
				next := make([]string, len(path), len(path)+1)
				copy(next, path)
				walk(d.Children, append(next, d.Name))
			}
		}
	}
	walk(decls, nil)
}
