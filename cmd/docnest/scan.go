package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/docnest/internal/diag"
	"github.com/dgallion1/docnest/internal/doctree"
	"github.com/dgallion1/docnest/internal/parser"
	"github.com/dgallion1/docnest/internal/render"
	"github.com/dgallion1/docnest/internal/subprop"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [flags] <file|directory>...",
		Short: "Parse source files and nest their doc-comment declarations",
		Long: `Scan JavaScript, HTML, Markdown, JSON and YAML files for doc comments, nest
the declarations of every comment and print the resulting trees in the order the
files were given. Directories are walked for supported files.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runScan,
	}
	cmd.Flags().String("format", "", "output format (json|text|html, default from config)")
	cmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	cmd.Flags().Bool("warn-malformed-head", false, "warn when a dotted first record discards the rest")
	return cmd
}

// scanResult is one file's outcome. Exactly one of Tree and Err is set.
type scanResult struct {
	Path     string           `json:"path"`
	Tree     *doctree.DocTree `json:"tree,omitempty"`
	Warnings []diag.Warning   `json:"warnings"`
	Error    string           `json:"error,omitempty"`

	Err     error `json:"-"`
	dropped int
}

func runScan(cmd *cobra.Command, args []string) error {
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
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}

	files, err := collectFiles(args)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported files found")
	}

	results, err := scanFiles(cmd.Context(), files, jobs, subprop.Nester{WarnMalformedHead: warnHead}, opts.cfg.MaxDiagnostics)
	if err != nil {
		return err
	}

	if err := writeScanResults(cmd, results, format); err != nil {
		return err
	}

	p := newWarningPrinter(cmd.ErrOrStderr(), opts.color)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: error: %v\n", r.Path, r.Err)
			continue
		}
		if !opts.quiet {
			p.Print(r.Warnings)
			p.Dropped(r.Path, r.dropped)
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(results))
	}
	return nil
}

// collectFiles expands directories into the supported files beneath them.
// Explicit file arguments are kept even when their extension is unknown so
// the user gets an error for them.
func collectFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		err = filepath.WalkDir(arg, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && parser.IsSupportedExtension(path) {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walk %s: %w", arg, err)
		}
	}
	return files, nil
}

// scanFiles parses and nests every file with at most jobs workers. Per-file
// failures are recorded on the result; the returned error is only set when
// ctx is cancelled.
func scanFiles(ctx context.Context, files []string, jobs int, base subprop.Nester, maxDiagnostics int) ([]scanResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Each goroutine owns its own index, so no locking is needed.
	results := make([]scanResult, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(files)))
	for i, path := range files {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = scanFile(path, base, maxDiagnostics)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

func scanFile(path string, base subprop.Nester, maxDiagnostics int) scanResult {
	res := scanResult{Path: path, Warnings: []diag.Warning{}}

	p, err := parser.ForFile(path)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	f, err := os.Open(path)
	if err != nil {
		res.Err = err
		res.Error = err.Error()
		return res
	}
	defer f.Close()

	tree, err := p.Parse(f, path)
	if err != nil {
		res.Err = fmt.Errorf("parse: %w", err)
		res.Error = res.Err.Error()
		return res
	}

	bag := diag.NewBag(maxDiagnostics)
	n := base
	n.Sink = bag
	n.NestTree(tree)
	bag.Sort()

	res.Tree = tree
	res.Warnings = bag.Items()
	res.dropped = bag.Dropped()
	return res
}

func writeScanResults(cmd *cobra.Command, results []scanResult, format render.Format) error {
	out := cmd.OutOrStdout()
	if format == render.FormatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	for _, r := range results {
		if r.Tree == nil {
			continue
		}
		if err := render.Tree(out, r.Tree, format); err != nil {
			return fmt.Errorf("%s: %w", r.Path, err)
		}
	}
	return nil
}
