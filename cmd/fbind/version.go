package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"

	"fbind/internal/backend"
	"fbind/internal/version"
)

// buildReport is what `fbind version` prints. Optional fields stay empty
// unless requested.
type buildReport struct {
	Tool      string   `json:"tool"`
	Version   string   `json:"version"`
	Targets   []string `json:"targets"`
	GoVersion string   `json:"go_version,omitempty"`
	Commit    string   `json:"git_commit,omitempty"`
	Message   string   `json:"git_message,omitempty"`
	Built     string   `json:"build_date,omitempty"`
}

var versionFlags struct {
	format  string
	hash    bool
	message bool
	date    bool
	full    bool
}

func init() {
	f := versionCmd.Flags()
	f.StringVar(&versionFlags.format, "format", "pretty", "output format (pretty|json)")
	f.BoolVar(&versionFlags.hash, "hash", false, "include the git commit")
	f.BoolVar(&versionFlags.message, "message", false, "include the git commit message")
	f.BoolVar(&versionFlags.date, "date", false, "include the build date")
	f.BoolVar(&versionFlags.full, "full", false, "include all build metadata and the Go toolchain")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the fbind version and supported targets",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func runVersion(cmd *cobra.Command, _ []string) error {
	format := strings.ToLower(versionFlags.format)
	if format != "pretty" && format != "json" {
		return fmt.Errorf("unsupported format %q (must be pretty or json)", versionFlags.format)
	}
	r := newBuildReport()
	if format == "json" {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	r.writePretty(cmd.OutOrStdout())
	return nil
}

func newBuildReport() buildReport {
	r := buildReport{
		Tool:    "fbind",
		Version: strings.TrimSpace(version.Version),
		Targets: backend.List(),
	}
	if r.Version == "" {
		r.Version = "dev"
	}
	full := versionFlags.full
	if full {
		r.GoVersion = runtime.Version()
	}
	if versionFlags.hash || full {
		r.Commit = valueOrUnknown(gitCommit())
	}
	if versionFlags.message || full {
		r.Message = valueOrUnknown(strings.TrimSpace(version.GitMessage))
	}
	if versionFlags.date || full {
		r.Built = valueOrUnknown(strings.TrimSpace(version.BuildDate))
	}
	return r
}

// gitCommit prefers the ldflags value and falls back to the VCS stamp the
// go command records in module builds.
func gitCommit() string {
	if c := strings.TrimSpace(version.GitCommit); c != "" {
		return c
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, s := range info.Settings {
		if s.Key == "vcs.revision" {
			return s.Value
		}
	}
	return ""
}

func (r buildReport) writePretty(out io.Writer) {
	v := r.Version
	if v == version.Version {
		v = version.Pretty()
	}
	fmt.Fprintf(out, "fbind %s (targets: %s)\n", v, strings.Join(r.Targets, ", "))
	for _, row := range [][2]string{
		{"go", r.GoVersion},
		{"commit", r.Commit},
		{"message", r.Message},
		{"built", r.Built},
	} {
		if row[1] != "" {
			fmt.Fprintf(out, "  %-8s %s\n", row[0]+":", row[1])
		}
	}
}

func valueOrUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
