// Package backend maps target language names to binding targets.
package backend

import (
	"fmt"
	"sort"
	"strings"

	"fbind/internal/backend/golang"
	"fbind/internal/backend/ocaml"
	"fbind/internal/backend/rust"
	"fbind/internal/bindgen"
)

var targets = map[string]bindgen.Target{
	"rust":  rust.New(),
	"ocaml": ocaml.New(),
	"go":    golang.New(),
}

var aliases = map[string]string{
	"rs":     "rust",
	"ml":     "ocaml",
	"golang": "go",
}

// Lookup returns the target for lang, accepting common aliases in any case.
func Lookup(lang string) (bindgen.Target, error) {
	key := strings.ToLower(strings.TrimSpace(lang))
	if a, ok := aliases[key]; ok {
		key = a
	}
	if t, ok := targets[key]; ok {
		return t, nil
	}
	return nil, bindgen.NewError(bindgen.PhaseLoad, bindgen.KindUnsupported).
		Subject(lang).
		Detail("unknown target language (have %s)", strings.Join(List(), ", ")).
		Build()
}

// List returns the target names, sorted.
func List() []string {
	out := make([]string, 0, len(targets))
	for name := range targets {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MustLookup is Lookup for names known at compile time.
func MustLookup(lang string) bindgen.Target {
	t, err := Lookup(lang)
	if err != nil {
		panic(fmt.Sprintf("backend: %v", err))
	}
	return t
}
