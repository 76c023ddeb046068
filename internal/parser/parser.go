package parser

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docnest/internal/doctree"
)

// ErrUnsupported is returned by ForFile for unknown extensions.
var ErrUnsupported = errors.New("unsupported file extension")

// Parser converts raw source bytes into a DocTree of flat declarations.
type Parser interface {
	Parse(r io.Reader, filename string) (*doctree.DocTree, error)
}

// SupportedExtensions lists file extensions this service can handle.
var SupportedExtensions = map[string]bool{
	".js":       true,
	".mjs":      true,
	".cjs":      true,
	".jsx":      true,
	".ts":       true,
	".html":     true,
	".htm":      true,
	".md":       true,
	".markdown": true,
	".json":     true,
	".yaml":     true,
	".yml":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".js", ".mjs", ".cjs", ".jsx", ".ts":
		return &JSParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".json":
		return &RecordsParser{Format: FormatJSON}, nil
	case ".yaml", ".yml":
		return &RecordsParser{Format: FormatYAML}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

func titleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
