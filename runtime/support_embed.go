// Package runtimeembed provides the runtime support sources embedded into
// generated bindings.
package runtimeembed

import (
	_ "embed"
	"strings"
)

//go:embed gosupport/support.go
var goSupportSrc string

const supportMarker = "// fbind:support\n"

// GoSupport returns the declarations of package gosupport without its
// package clause and imports, ready to be appended to a generated Go file.
func GoSupport() string {
	_, body, ok := strings.Cut(goSupportSrc, supportMarker)
	if !ok {
		panic("runtimeembed: support marker missing from gosupport/support.go")
	}
	return strings.TrimLeft(body, "\n")
}

// GoSupportImports lists the packages the support declarations use.
var GoSupportImports = []string{"errors", "fmt", "runtime", "sync", "unsafe"}
