package bindgen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"

	"fbind/internal/diag"
	"fbind/internal/manifest"
	"fbind/internal/trace"
)

const maxDiagnostics = 256

// Validate checks m and returns every diagnostic, sorted. The error is
// non-nil when any diagnostic is an error; it carries the same list.
func Validate(ctx context.Context, m *manifest.Manifest) ([]diag.Diagnostic, error) {
	span, _ := trace.Start(ctx, trace.ScopePass, "validate")
	defer span.End("")

	bag := diag.NewBag(maxDiagnostics)
	manifest.Validate(m, diag.BagReporter{Bag: bag})
	bag.Dedup()
	bag.Sort()
	items := bag.Items()
	if bag.HasErrors() {
		return items, NewError(PhaseValidate, KindInvalidManifest).
			Detail("%d problem(s) in manifest", countErrors(items)).
			Diagnostics(items).
			Build()
	}
	return items, nil
}

func countErrors(ds []diag.Diagnostic) int {
	n := 0
	for _, d := range ds {
		if d.Severity == diag.SevError {
			n++
		}
	}
	return n
}

// Assemble lays out the artifacts of x and, when opts.Format is set and t
// has an external formatter, formats them.
func Assemble(ctx context.Context, x *Expansion, t Target, opts Options) ([]Artifact, error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, "assemble")
	arts, err := t.Assemble(x, opts)
	span.End("")
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			return nil, be
		}
		return nil, NewError(PhaseAssemble, KindUnsupported).Subject(t.Lang()).Cause(err).Build()
	}

	f, ok := t.(Formatter)
	if !opts.Format || !ok {
		return arts, nil
	}
	span, ctx = trace.Start(ctx, trace.ScopePass, "format")
	defer span.End("")
	for i, a := range arts {
		formatted, err := f.Format(ctx, a)
		if errors.Is(err, exec.ErrNotFound) {
			Logger().Warn("formatter not found, leaving output unformatted",
				zap.String("target", t.Lang()),
				zap.Error(err))
			for j := range arts {
				arts[j].Unformatted = true
			}
			return arts, nil
		}
		if err != nil {
			return nil, NewError(PhaseFormat, KindFormat).
				Subject(t.Lang() + " " + a.Suffix).
				Cause(err).
				Build()
		}
		arts[i] = formatted
	}
	return arts, nil
}

// Result is the outcome of one Generate call.
type Result struct {
	Expansion   *Expansion
	Artifacts   []Artifact
	Diagnostics []diag.Diagnostic // warnings and notes of a valid manifest
}

// Generate validates m, expands it for t and assembles the artifacts.
// Each call uses its own resolver; calls for different targets may run
// concurrently.
func Generate(ctx context.Context, m *manifest.Manifest, t Target, opts Options) (*Result, error) {
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "generate:"+t.Lang())
	defer span.End("")

	diags, err := Validate(ctx, m)
	if err != nil {
		return nil, err
	}
	x, err := Expand(ctx, m, t)
	if err != nil {
		return nil, err
	}
	arts, err := Assemble(ctx, x, t, opts)
	if err != nil {
		return nil, err
	}
	Logger().Debug("generated",
		zap.String("target", t.Lang()),
		zap.Int("artifacts", len(arts)))
	return &Result{Expansion: x, Artifacts: arts, Diagnostics: diags}, nil
}

// ArtifactPath joins base with the artifact suffix: "out/lib" and ".mli"
// give "out/lib.mli".
func ArtifactPath(base string, a Artifact) string { return base + a.Suffix }

// WriteArtifacts writes every artifact next to base, creating the parent
// directory. It returns the written paths.
func WriteArtifacts(base string, arts []Artifact) ([]string, error) {
	if dir := filepath.Dir(base); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, NewError(PhaseWrite, KindIO).Subject(dir).Cause(err).Build()
		}
	}
	paths := make([]string, 0, len(arts))
	for _, a := range arts {
		path := ArtifactPath(base, a)
		if err := os.WriteFile(path, a.Content, 0o600); err != nil {
			return paths, NewError(PhaseWrite, KindIO).Subject(path).Cause(err).Build()
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// RunFormatter pipes src through an external formatter and returns its
// standard output. A missing binary yields an error matching
// exec.ErrNotFound, which Assemble treats as a skipped format step.
func RunFormatter(ctx context.Context, src []byte, name string, args ...string) ([]byte, error) {
	path, err := exec.LookPath(name)
	if err != nil {
		return nil, err
	}
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = bytes.NewReader(src)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", name, err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}
