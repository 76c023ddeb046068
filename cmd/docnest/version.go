package main

import (
	"encoding/json"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

type versionPayload struct {
	Tool      string `json:"tool"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version,omitempty"`
	Commit    string `json:"commit,omitempty"`
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show the docnest version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return fmt.Errorf("failed to get format flag: %w", err)
			}
			payload := collectVersion()
			switch strings.ToLower(format) {
			case "pretty":
				fmt.Fprintf(cmd.OutOrStdout(), "docnest %s\n", payload.Version)
				if payload.Commit != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", payload.Commit)
				}
				return nil
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			}
			return fmt.Errorf("unsupported format %q (must be pretty or json)", format)
		},
	}
	cmd.Flags().String("format", "pretty", "output format (pretty|json)")
	return cmd
}

func buildVersion() string {
	return collectVersion().Version
}

func collectVersion() versionPayload {
	p := versionPayload{Tool: "docnest", Version: strings.TrimSpace(version)}
	if info, ok := debug.ReadBuildInfo(); ok {
		p.GoVersion = info.GoVersion
		if p.Version == "" && info.Main.Version != "" && info.Main.Version != "(devel)" {
			p.Version = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" {
				p.Commit = s.Value
			}
		}
	}
	if p.Version == "" {
		p.Version = "dev"
	}
	return p
}
