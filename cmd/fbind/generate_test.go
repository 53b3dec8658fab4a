package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
)

func resetGenerateFlags(t *testing.T) {
	t.Helper()
	reset := func() {
		generateLangs = []string{"rust"}
		generatePackage = ""
		generateLib = ""
		generateNoCache = false
		generateFmt = false
		generateStdout = false
	}
	reset()
	t.Cleanup(reset)
}

func newTestCommand() (*cobra.Command, *bytes.Buffer, *bytes.Buffer) {
	cmd := &cobra.Command{}
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	return cmd, &out, &errOut
}

func TestGenerateAllTargetsAndCache(t *testing.T) {
	resetGenerateFlags(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	manifestPath := copyTestdata(t, dir)
	base := filepath.Join(dir, "out", "stats")

	generateLangs = []string{"rust", "ocaml", "go"}
	generateLib = "stats"

	cmd, out, _ := newTestCommand()
	if err := runGenerate(cmd, []string{manifestPath, base}); err != nil {
		t.Fatalf("first run: %v", err)
	}
	for _, suffix := range []string{".rs", ".ml", ".mli", ".go"} {
		data, err := os.ReadFile(base + suffix)
		if err != nil {
			t.Fatalf("missing %s: %v", suffix, err)
		}
		if !bytes.Contains(data, []byte("futhark_entry_stats")) {
			t.Fatalf("%s does not declare futhark_entry_stats", suffix)
		}
	}
	if strings.Contains(out.String(), "(cached)") {
		t.Fatalf("first run reported cached output:\n%s", out.String())
	}

	first, err := os.ReadFile(base + ".go")
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(base + ".go"); err != nil {
		t.Fatal(err)
	}

	cmd, out, _ = newTestCommand()
	if err := runGenerate(cmd, []string{manifestPath, base}); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if got := strings.Count(out.String(), "(cached)"); got != 4 {
		t.Fatalf("cached artifacts = %d, want 4:\n%s", got, out.String())
	}
	second, err := os.ReadFile(base + ".go")
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Fatalf("cached Go artifact differs from the generated one")
	}
}

func TestGenerateNoCacheStdout(t *testing.T) {
	resetGenerateFlags(t)
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	dir := t.TempDir()
	manifestPath := copyTestdata(t, dir)

	generateNoCache = true
	generateStdout = true
	cmd, out, _ := newTestCommand()
	if err := runGenerate(cmd, []string{manifestPath}); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
	if !strings.Contains(out.String(), "futhark_context_new") {
		t.Fatalf("stdout lacks the bindings:\n%s", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "records.rs")); !os.IsNotExist(err) {
		t.Fatalf("--stdout wrote a file: %v", err)
	}
	if entries, _ := os.ReadDir(filepath.Join(cacheHome, "fbind")); len(entries) != 0 {
		t.Fatalf("--no-cache populated the cache")
	}
}

func TestGenerateSkipsCacheWhenFormatterMissing(t *testing.T) {
	resetGenerateFlags(t)
	cacheHome := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cacheHome)
	t.Setenv("PATH", t.TempDir())
	dir := t.TempDir()
	manifestPath := copyTestdata(t, dir)
	base := filepath.Join(dir, "records")

	generateFmt = true
	for run := range 2 {
		cmd, out, _ := newTestCommand()
		if err := runGenerate(cmd, []string{manifestPath, base}); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if strings.Contains(out.String(), "(cached)") {
			t.Fatalf("run %d served unformatted output from the cache:\n%s", run, out.String())
		}
		if _, err := os.Stat(base + ".rs"); err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
	}
	if entries, _ := filepath.Glob(filepath.Join(cacheHome, "fbind", "gen", "*.mp")); len(entries) != 0 {
		t.Fatalf("unformatted output cached: %v", entries)
	}
}

func TestGenerateFromProjectFile(t *testing.T) {
	resetGenerateFlags(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	copyTestdata(t, dir)
	writeFile(t, filepath.Join(dir, projectFileName), `
[manifest]
path = "records.json"

[[target]]
lang = "ocaml"
output = "gen/records"
`)
	t.Chdir(dir)

	cmd, _, _ := newTestCommand()
	if err := runGenerate(cmd, nil); err != nil {
		t.Fatalf("runGenerate: %v", err)
	}
	for _, suffix := range []string{".ml", ".mli"} {
		if _, err := os.Stat(filepath.Join(dir, "gen", "records"+suffix)); err != nil {
			t.Fatalf("missing records%s: %v", suffix, err)
		}
	}
}

func TestGenerateInvalidManifest(t *testing.T) {
	resetGenerateFlags(t)
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.json")
	writeFile(t, path, `{
  "backend": "c",
  "version": "0.25.13",
  "entry_points": {
    "f": {"cfun": "futhark_entry_f", "inputs": [{"name": "x", "type": "missing", "unique": false}], "outputs": []}
  },
  "types": {}
}`)

	cmd, _, errOut := newTestCommand()
	err := runGenerate(cmd, []string{path})
	if err == nil {
		t.Fatalf("expected a validation error")
	}
	if !strings.Contains(errOut.String(), "ERROR M2001") {
		t.Fatalf("diagnostics not printed:\n%s", errOut.String())
	}
	if _, statErr := os.Stat(filepath.Join(dir, "bad.rs")); !os.IsNotExist(statErr) {
		t.Fatalf("invalid manifest produced output")
	}
}

func TestGenerateUnknownLang(t *testing.T) {
	resetGenerateFlags(t)
	generateLangs = []string{"fortran"}
	cmd, _, _ := newTestCommand()
	err := runGenerate(cmd, []string{filepath.Join("testdata", "records.json")})
	if err == nil || !strings.Contains(err.Error(), "fortran") {
		t.Fatalf("err = %v", err)
	}
}
