package main

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fbind/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "fbind",
	Short: "Generate foreign-function bindings from Futhark library manifests",
	Long: `fbind reads the JSON manifest of a compiled Futhark library and writes
bindings for Rust, OCaml or Go.`,
	SilenceUsage:      true,
	PersistentPreRunE: setupGlobals,
}

func init() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(cleanCmd)
	rootCmd.AddCommand(versionCmd)

	flags := rootCmd.PersistentFlags()
	flags.String("color", "auto", "colorize output (auto|on|off)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.String("log-level", "off", "log level (off|debug|info|warn|error)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|phase|detail)")
	flags.String("trace-format", "text", "trace format (text|ndjson)")
}

func main() {
	err := rootCmd.Execute()
	teardownGlobals()
	if err != nil {
		os.Exit(1)
	}
}

// isTerminal reports whether f is attached to a terminal.
func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}
