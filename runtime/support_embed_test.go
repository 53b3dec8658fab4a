package runtimeembed

import (
	"strings"
	"testing"
)

func TestGoSupportBody(t *testing.T) {
	body := GoSupport()
	if strings.Contains(body, "package gosupport") || strings.Contains(body, "import (") {
		t.Fatalf("support body keeps the package header:\n%.200s", body)
	}
	for _, s := range []string{"ErrNullHandle", "type ShapeError struct", "func newOwner(", "func releaseAll("} {
		if !strings.Contains(body, s) {
			t.Errorf("support body lacks %q", s)
		}
	}
	for _, pkg := range GoSupportImports {
		if !strings.Contains(body, pkg+".") {
			t.Errorf("support body does not use %s", pkg)
		}
	}
}
