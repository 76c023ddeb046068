package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dgallion1/docnest/internal/doctree"
	"gopkg.in/yaml.v3"
)

// RecordsFormat is the encoding of a records file.
type RecordsFormat string

const (
	FormatJSON RecordsFormat = "json"
	FormatYAML RecordsFormat = "yaml"
)

// Records is a flat declaration list with the location warnings should
// point at. It is accepted either as this envelope or as a bare list.
type Records struct {
	File    string                 `json:"file" yaml:"file"`
	Line    int                    `json:"line" yaml:"line"`
	Records []*doctree.Declaration `json:"records" yaml:"records"`
}

// RecordsParser reads pre-tokenized declaration records.
type RecordsParser struct {
	Format RecordsFormat
}

func (p *RecordsParser) Parse(r io.Reader, filename string) (*doctree.DocTree, error) {
	recs, err := p.Decode(r)
	if err != nil {
		return nil, err
	}
	if recs.File == "" {
		recs.File = filename
	}
	if recs.Line <= 0 {
		recs.Line = 1
	}
	return &doctree.DocTree{
		Title: titleFromFilename(filename),
		Comments: []*doctree.DocComment{{
			File: recs.File,
			Line: recs.Line,
			Tags: recs.Records,
		}},
	}, nil
}

// Decode reads a Records envelope or a bare list of records.
func (p *RecordsParser) Decode(r io.Reader) (*Records, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var recs Records
	switch p.Format {
	case FormatYAML:
		err = decodeYAML(src, &recs)
	default:
		err = decodeJSON(src, &recs)
	}
	if err != nil {
		return nil, err
	}
	return &recs, nil
}

func decodeJSON(src []byte, recs *Records) error {
	trimmed := bytes.TrimSpace(src)
	if len(trimmed) == 0 {
		return nil
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, &recs.Records); err != nil {
			return fmt.Errorf("parse json records: %w", err)
		}
		return nil
	}
	if err := json.Unmarshal(trimmed, recs); err != nil {
		return fmt.Errorf("parse json records: %w", err)
	}
	return nil
}

func decodeYAML(src []byte, recs *Records) error {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return fmt.Errorf("parse yaml records: %w", err)
	}
	if root.Kind == 0 || len(root.Content) == 0 {
		return nil
	}
	doc := root.Content[0]
	var err error
	if doc.Kind == yaml.SequenceNode {
		err = doc.Decode(&recs.Records)
	} else {
		err = doc.Decode(recs)
	}
	if err != nil {
		return fmt.Errorf("parse yaml records: %w", err)
	}
	return nil
}
