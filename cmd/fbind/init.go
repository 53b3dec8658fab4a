package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite an existing fbind.toml")
}

var initCmd = &cobra.Command{
	Use:   "init [dir]",
	Short: "Write a starter fbind.toml",
	Long: `Write a starter fbind.toml into [dir] (the current directory by default).
When the directory holds exactly one .json file it is used as the manifest.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	target := "."
	if len(args) > 0 && args[0] != "" {
		target = args[0]
	}
	target, err := filepath.Abs(target)
	if err != nil {
		return err
	}

	if st, err := os.Stat(target); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %q: %w", target, err)
		}
	} else if !st.IsDir() {
		return fmt.Errorf("%q is not a directory", target)
	}

	path := filepath.Join(target, projectFileName)
	if _, err := os.Stat(path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	manifestRel, err := guessManifest(target)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(starterConfig(manifestRel)), 0o600); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if !quiet(cmd) {
		fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", path)
	}
	return nil
}

// guessManifest returns the only .json file in dir, or a name derived from
// the directory.
func guessManifest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var found []string
	for _, e := range entries {
		if !e.IsDir() && strings.EqualFold(filepath.Ext(e.Name()), ".json") {
			found = append(found, e.Name())
		}
	}
	if len(found) == 1 {
		return found[0], nil
	}
	name := strings.TrimSpace(filepath.Base(dir))
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = "lib"
	}
	return name + ".json", nil
}

func starterConfig(manifestRel string) string {
	base := strings.TrimSuffix(manifestRel, filepath.Ext(manifestRel))
	return fmt.Sprintf(`# fbind project configuration

[manifest]
path = %q

[[target]]
lang = "rust"
output = "bindings/%s"
format = true

[[target]]
lang = "ocaml"
output = "bindings/%s"

[[target]]
lang = "go"
output = "bindings/%s"
package = "futhark"
lib = %q
`, manifestRel, base, base, base, base)
}
