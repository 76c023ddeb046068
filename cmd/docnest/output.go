package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dgallion1/docnest/internal/config"
	"github.com/dgallion1/docnest/internal/diag"
)

// options are the settings shared by every subcommand once config file,
// environment and flags have been merged.
type options struct {
	cfg   config.Config
	quiet bool
	color bool
}

func loadOptions(cmd *cobra.Command) (options, error) {
	flags := cmd.Root().PersistentFlags()

	path, err := flags.GetString("config")
	if err != nil {
		return options{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	var cfg config.Config
	if path != "" {
		cfg, err = config.LoadFrom(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return options{}, err
	}

	maxDiagnostics, err := flags.GetInt("max-diagnostics")
	if err != nil {
		return options{}, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	if maxDiagnostics > 0 {
		cfg.MaxDiagnostics = maxDiagnostics
	}

	quiet, err := flags.GetBool("quiet")
	if err != nil {
		return options{}, fmt.Errorf("failed to get quiet flag: %w", err)
	}

	colorFlag, err := flags.GetString("color")
	if err != nil {
		return options{}, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := colorEnabled(colorFlag, cmd.ErrOrStderr())
	if err != nil {
		return options{}, err
	}

	return options{cfg: cfg, quiet: quiet, color: useColor}, nil
}

func colorEnabled(mode string, w io.Writer) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		f, ok := w.(*os.File)
		return ok && isTerminal(f), nil
	}
	return false, fmt.Errorf("unknown color value: %s (want auto, on or off)", mode)
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// warningPrinter writes warnings as "file:line: warning[code]: message".
type warningPrinter struct {
	w        io.Writer
	location *color.Color
	label    *color.Color
}

func newWarningPrinter(w io.Writer, useColor bool) *warningPrinter {
	p := &warningPrinter{
		w:        w,
		location: color.New(color.Bold),
		label:    color.New(color.FgYellow, color.Bold),
	}
	for _, c := range []*color.Color{p.location, p.label} {
		if useColor {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}
	return p
}

func (p *warningPrinter) Print(ws []diag.Warning) {
	for _, w := range ws {
		p.location.Fprintf(p.w, "%s:%d:", w.File, w.Line)
		fmt.Fprint(p.w, " ")
		p.label.Fprintf(p.w, "warning[%s]:", w.Code)
		fmt.Fprintf(p.w, " %s\n", w.Message)
	}
}

// Dropped notes how many warnings were cut by the diagnostics limit.
func (p *warningPrinter) Dropped(file string, n int) {
	if n > 0 {
		fmt.Fprintf(p.w, "%s: %d more warnings not shown\n", file, n)
	}
}
