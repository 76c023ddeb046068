package parser

import (
	"errors"
	"testing"
)

func TestForFile(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.js", "*parser.JSParser"},
		{"A.TS", "*parser.JSParser"},
		{"page.html", "*parser.HTMLParser"},
		{"readme.md", "*parser.MarkdownParser"},
		{"recs.json", "*parser.RecordsParser"},
		{"recs.yml", "*parser.RecordsParser"},
	}
	for _, tt := range tests {
		p, err := ForFile(tt.filename)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.filename, err)
		}
		if got := typeName(p); got != tt.want {
			t.Errorf("%s: expected %s, got %s", tt.filename, tt.want, got)
		}
		if !IsSupportedExtension(tt.filename) {
			t.Errorf("%s: expected supported extension", tt.filename)
		}
	}
}

func TestForFile_Unsupported(t *testing.T) {
	_, err := ForFile("report.pdf")
	if !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
	if IsSupportedExtension("report.pdf") {
		t.Error("expected .pdf to be unsupported")
	}
}

func typeName(p Parser) string {
	switch p.(type) {
	case *JSParser:
		return "*parser.JSParser"
	case *HTMLParser:
		return "*parser.HTMLParser"
	case *MarkdownParser:
		return "*parser.MarkdownParser"
	case *RecordsParser:
		return "*parser.RecordsParser"
	}
	return "unknown"
}
