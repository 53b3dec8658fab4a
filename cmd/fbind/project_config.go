package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"fbind/internal/backend"
)

const (
	projectFileName      = "fbind.toml"
	noProjectTomlMessage = "no fbind.toml found\nplease specify the manifest explicitly, e.g.:\n  fbind generate path/to/lib.json out/lib"
)

type projectFile struct {
	Path   string
	Root   string
	Config projectConfig
}

type projectConfig struct {
	Manifest manifestConfig `toml:"manifest"`
	Targets  []targetConfig `toml:"target"`
}

type manifestConfig struct {
	Path string `toml:"path"`
}

type targetConfig struct {
	Lang    string `toml:"lang"`
	Output  string `toml:"output"`
	Package string `toml:"package"`
	Lib     string `toml:"lib"`
	Format  bool   `toml:"format"`
}

func findProjectToml(startDir string) (string, bool, error) {
	if startDir == "" {
		startDir = "."
	}
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve start directory: %w", err)
	}
	for {
		candidate := filepath.Join(dir, projectFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true, nil
		} else if !errors.Is(err, os.ErrNotExist) {
			return "", false, fmt.Errorf("failed to stat %q: %w", candidate, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", false, nil
}

func loadProjectFile(startDir string) (*projectFile, bool, error) {
	path, ok, err := findProjectToml(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	cfg, err := loadProjectConfig(path)
	if err != nil {
		return nil, true, err
	}
	return &projectFile{
		Path:   path,
		Root:   filepath.Dir(path),
		Config: cfg,
	}, true, nil
}

func loadProjectConfig(path string) (projectConfig, error) {
	var cfg projectConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return projectConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return projectConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if !meta.IsDefined("manifest", "path") || strings.TrimSpace(cfg.Manifest.Path) == "" {
		return projectConfig{}, fmt.Errorf("%s: missing [manifest].path", path)
	}
	if len(cfg.Targets) == 0 {
		return projectConfig{}, fmt.Errorf("%s: at least one [[target]] is required", path)
	}
	for i, t := range cfg.Targets {
		if strings.TrimSpace(t.Lang) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[target]] #%d: missing lang", path, i+1)
		}
		if _, err := backend.Lookup(t.Lang); err != nil {
			return projectConfig{}, fmt.Errorf("%s: [[target]] #%d: %w", path, i+1, err)
		}
		if strings.TrimSpace(t.Output) == "" {
			return projectConfig{}, fmt.Errorf("%s: [[target]] #%d: missing output", path, i+1)
		}
	}
	return cfg, nil
}

// manifestPath resolves [manifest].path against the directory of fbind.toml.
func (p *projectFile) manifestPath() string {
	return p.resolve(p.Config.Manifest.Path)
}

func (p *projectFile) resolve(rel string) string {
	rel = filepath.FromSlash(strings.TrimSpace(rel))
	if filepath.IsAbs(rel) {
		return rel
	}
	return filepath.Join(p.Root, rel)
}

// jobs turns the [[target]] tables into generation jobs.
func (p *projectFile) jobs() []genJob {
	out := make([]genJob, 0, len(p.Config.Targets))
	for _, t := range p.Config.Targets {
		out = append(out, genJob{
			Lang:    t.Lang,
			Output:  p.resolve(t.Output),
			Package: t.Package,
			Library: t.Lib,
			Format:  t.Format,
		})
	}
	return out
}
