package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/docnest/internal/diag"
	"github.com/dgallion1/docnest/internal/parser"
	"github.com/dgallion1/docnest/internal/render"
	"github.com/dgallion1/docnest/internal/subprop"
)

func newNestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "nest [flags] <records.json|records.yaml|->",
		Short: "Nest one list of declaration records",
		Long: `Read a list of declaration records (a JSON or YAML array, or an object with
"file", "line" and "records") and print the nested list. Use "-" to read JSON
from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: runNest,
	}
	cmd.Flags().String("file", "", "source file reported in warnings (overrides the input)")
	cmd.Flags().Int("line", 0, "source line reported in warnings (overrides the input)")
	cmd.Flags().String("format", "", "output format (json|text|html, default from config)")
	cmd.Flags().Bool("warn-malformed-head", false, "warn when a dotted first record discards the rest")
	return cmd
}

func runNest(cmd *cobra.Command, args []string) error {
	opts, err := loadOptions(cmd)
	if err != nil {
		return err
	}
	format, err := formatFlag(cmd, opts)
	if err != nil {
		return err
	}
	warnHead, err := warnHeadFlag(cmd, opts)
	if err != nil {
		return err
	}

	path := args[0]
	recs, err := readRecords(cmd.InOrStdin(), path)
	if err != nil {
		return err
	}

	file, err := cmd.Flags().GetString("file")
	if err != nil {
		return fmt.Errorf("failed to get file flag: %w", err)
	}
	if file != "" {
		recs.File = file
	} else if recs.File == "" {
		recs.File = path
	}
	line, err := cmd.Flags().GetInt("line")
	if err != nil {
		return fmt.Errorf("failed to get line flag: %w", err)
	}
	if line > 0 {
		recs.Line = line
	} else if recs.Line <= 0 {
		recs.Line = 1
	}

	bag := diag.NewBag(opts.cfg.MaxDiagnostics)
	n := subprop.Nester{Sink: bag, WarnMalformedHead: warnHead}
	nested := n.Nest(recs.Records, recs.File, recs.Line)

	if err := render.Declarations(cmd.OutOrStdout(), nested, format); err != nil {
		return err
	}
	if !opts.quiet {
		p := newWarningPrinter(cmd.ErrOrStderr(), opts.color)
		p.Print(bag.Items())
		p.Dropped(recs.File, bag.Dropped())
	}
	return nil
}

func readRecords(stdin io.Reader, path string) (*parser.Records, error) {
	if path == "-" {
		return (&parser.RecordsParser{Format: parser.FormatJSON}).Decode(stdin)
	}

	format := parser.FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
	case ".yaml", ".yml":
		format = parser.FormatYAML
	default:
		return nil, fmt.Errorf("%s: records must be .json, .yaml or .yml", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	recs, err := (&parser.RecordsParser{Format: format}).Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

func formatFlag(cmd *cobra.Command, opts options) (render.Format, error) {
	name, err := cmd.Flags().GetString("format")
	if err != nil {
		return "", fmt.Errorf("failed to get format flag: %w", err)
	}
	if name == "" {
		name = opts.cfg.DefaultFormat
	}
	return render.ParseFormat(name)
}

func warnHeadFlag(cmd *cobra.Command, opts options) (bool, error) {
	if !cmd.Flags().Changed("warn-malformed-head") {
		return opts.cfg.WarnMalformedHead, nil
	}
	v, err := cmd.Flags().GetBool("warn-malformed-head")
	if err != nil {
		return false, fmt.Errorf("failed to get warn-malformed-head flag: %w", err)
	}
	return v, nil
}
