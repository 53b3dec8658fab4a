package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"fbind/internal/backend"
	"fbind/internal/bindgen"
	"fbind/internal/diag"
	"fbind/internal/gencache"
	"fbind/internal/manifest"
	"fbind/internal/observ"
	"fbind/internal/trace"
	"fbind/internal/version"
)

var (
	generateLangs   []string
	generatePackage string
	generateLib     string
	generateNoCache bool
	generateFmt     bool
	generateStdout  bool
)

func init() {
	generateCmd.Flags().StringSliceVar(&generateLangs, "lang", []string{"rust"}, "target languages (rust, ocaml, go)")
	generateCmd.Flags().StringVar(&generatePackage, "package", "", "package name of Go bindings")
	generateCmd.Flags().StringVar(&generateLib, "lib", "", "native library linked by Go bindings")
	generateCmd.Flags().BoolVar(&generateNoCache, "no-cache", false, "ignore and do not update the generation cache")
	generateCmd.Flags().BoolVar(&generateFmt, "fmt", false, "run the target's formatter (rustfmt, ocamlformat)")
	generateCmd.Flags().BoolVar(&generateStdout, "stdout", false, "print artifacts instead of writing them")
}

var generateCmd = &cobra.Command{
	Use:   "generate [manifest] [output]",
	Short: "Generate bindings for a Futhark library manifest",
	Long: `Generate bindings for a Futhark library manifest.

Without arguments the manifest and targets are read from fbind.toml, searched
upward from the current directory. The output is a path prefix: the target
appends its own suffixes (.rs, .ml and .mli, .go). It defaults to the manifest
path without its extension.`,
	Args: cobra.MaximumNArgs(2),
	RunE: runGenerate,
}

// genJob is one target to generate.
type genJob struct {
	Lang    string
	Output  string
	Package string
	Library string
	Format  bool
}

// genResult is the outcome of one job.
type genResult struct {
	job       genJob
	lang      string
	artifacts []bindgen.Artifact
	cached    bool
}

func runGenerate(cmd *cobra.Command, args []string) error {
	manifestPath, jobs, err := resolveGenerateJobs(cmd, args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	span, ctx := trace.Start(ctx, trace.ScopeDriver, "fbind generate")
	defer span.End("")

	var timer *observ.Timer
	if timingsEnabled(cmd) {
		timer = observ.NewTimer()
		defer func() { fmt.Fprint(cmd.ErrOrStderr(), formatTimings(timer)) }()
	}

	var cache *gencache.Cache
	if !generateNoCache {
		cache, err = gencache.Open("fbind")
		if err != nil {
			bindgen.Logger().Warn("generation cache unavailable", zap.Error(err))
			cache = nil
		}
	}

	results, err := generateAll(ctx, cmd.ErrOrStderr(), manifestPath, jobs, cache, timer)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	return timer.Measure("write", func() error {
		for _, r := range results {
			if generateStdout {
				for _, a := range r.artifacts {
					if _, err := out.Write(a.Content); err != nil {
						return err
					}
				}
				continue
			}
			paths, err := bindgen.WriteArtifacts(r.job.Output, r.artifacts)
			if err != nil {
				return err
			}
			if quiet(cmd) {
				continue
			}
			note := ""
			if r.cached {
				note = " (cached)"
			}
			for _, p := range paths {
				fmt.Fprintf(out, "%-6s %s%s\n", r.lang, p, note)
			}
		}
		return nil
	})
}

// resolveGenerateJobs reads the jobs from the arguments, or from fbind.toml
// when none are given.
func resolveGenerateJobs(cmd *cobra.Command, args []string) (string, []genJob, error) {
	if len(args) == 0 {
		proj, ok, err := loadProjectFile(".")
		if err != nil {
			return "", nil, err
		}
		if !ok {
			return "", nil, errors.New(noProjectTomlMessage)
		}
		jobs := proj.jobs()
		if cmd.Flags().Changed("fmt") {
			for i := range jobs {
				jobs[i].Format = generateFmt
			}
		}
		return proj.manifestPath(), jobs, nil
	}

	manifestPath := args[0]
	output := strings.TrimSuffix(manifestPath, filepath.Ext(manifestPath))
	if len(args) > 1 {
		output = args[1]
	}
	if len(generateLangs) == 0 {
		return "", nil, errors.New("--lang needs at least one target")
	}
	jobs := make([]genJob, 0, len(generateLangs))
	for _, lang := range generateLangs {
		if _, err := backend.Lookup(lang); err != nil {
			return "", nil, err
		}
		jobs = append(jobs, genJob{
			Lang:    lang,
			Output:  output,
			Package: generatePackage,
			Library: generateLib,
			Format:  generateFmt,
		})
	}
	return manifestPath, jobs, nil
}

// generateAll loads the manifest once and generates every job. Jobs whose
// artifacts are cached skip validation and expansion; the rest run
// concurrently, each with its own resolver.
func generateAll(ctx context.Context, errOut io.Writer, manifestPath string, jobs []genJob, cache *gencache.Cache, timer *observ.Timer) ([]genResult, error) {
	var (
		m   *manifest.Manifest
		raw []byte
	)
	err := timer.Measure("load", func() error {
		var err error
		m, raw, err = manifest.LoadFile(manifestPath)
		if err != nil {
			return bindgen.NewError(bindgen.PhaseLoad, bindgen.KindIO).Subject(manifestPath).Cause(err).Build()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]genResult, len(jobs))
	keys := make([]gencache.Digest, len(jobs))
	var warnings []string
	missing := 0
	for i, job := range jobs {
		t, err := backend.Lookup(job.Lang)
		if err != nil {
			return nil, err
		}
		results[i] = genResult{job: job, lang: t.Lang()}
		keys[i] = gencache.Key{
			Manifest: raw,
			Lang:     t.Lang(),
			Package:  job.Package,
			Library:  job.Library,
			Format:   job.Format,
			Version:  version.Version,
		}.Digest()

		var payload gencache.Payload
		hit, err := cache.Get(keys[i], &payload)
		if err != nil {
			bindgen.Logger().Warn("ignoring unreadable cache entry",
				zap.String("key", keys[i].String()),
				zap.Error(err))
		}
		if !hit {
			missing++
			continue
		}
		results[i].cached = true
		results[i].artifacts = fromPayload(payload.Artifacts)
		warnings = payload.Warnings
	}

	if missing == 0 {
		printDiagnosticLines(errOut, warnings)
		return results, nil
	}

	var diags []diag.Diagnostic
	err = timer.Measure("validate", func() error {
		var err error
		diags, err = bindgen.Validate(ctx, m)
		return err
	})
	if err != nil {
		var be *bindgen.Error
		if errors.As(err, &be) {
			printDiagnostics(errOut, be.Diagnostics)
		}
		return nil, err
	}
	printDiagnostics(errOut, diags)
	warnings = diagnosticLines(diags)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range results {
		if results[i].cached {
			continue
		}
		r := &results[i]
		key := keys[i]
		g.Go(func() error {
			t, err := backend.Lookup(r.job.Lang)
			if err != nil {
				return err
			}
			arts, err := generateTarget(gctx, m, t, r.job, timer)
			if err != nil {
				return err
			}
			r.artifacts = arts
			if unformatted(arts) {
				bindgen.Logger().Debug("not caching unformatted output", zap.String("target", t.Lang()))
				return nil
			}
			if err := cache.Put(key, &gencache.Payload{
				Lang:      t.Lang(),
				Version:   version.Version,
				Created:   time.Now().UTC(),
				Artifacts: toPayload(arts),
				Warnings:  warnings,
			}); err != nil {
				bindgen.Logger().Warn("failed to store cache entry", zap.String("target", t.Lang()), zap.Error(err))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// generateTarget expands and assembles one validated manifest.
func generateTarget(ctx context.Context, m *manifest.Manifest, t bindgen.Target, job genJob, timer *observ.Timer) ([]bindgen.Artifact, error) {
	var x *bindgen.Expansion
	err := timer.Measure("expand:"+t.Lang(), func() error {
		var err error
		x, err = bindgen.Expand(ctx, m, t)
		return err
	})
	if err != nil {
		return nil, err
	}
	var arts []bindgen.Artifact
	err = timer.Measure("assemble:"+t.Lang(), func() error {
		var err error
		arts, err = bindgen.Assemble(ctx, x, t, bindgen.Options{
			Package: job.Package,
			Library: job.Library,
			Format:  job.Format,
		})
		return err
	})
	return arts, err
}

// unformatted reports whether a requested format step was skipped, in
// which case the output must not be cached under a formatted key.
func unformatted(arts []bindgen.Artifact) bool {
	for _, a := range arts {
		if a.Unformatted {
			return true
		}
	}
	return false
}

func toPayload(arts []bindgen.Artifact) []gencache.Artifact {
	out := make([]gencache.Artifact, len(arts))
	for i, a := range arts {
		out[i] = gencache.Artifact{Suffix: a.Suffix, Content: a.Content}
	}
	return out
}

func fromPayload(arts []gencache.Artifact) []bindgen.Artifact {
	out := make([]bindgen.Artifact, len(arts))
	for i, a := range arts {
		out[i] = bindgen.Artifact{Suffix: a.Suffix, Content: a.Content}
	}
	return out
}
