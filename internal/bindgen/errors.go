package bindgen

import (
	"fmt"
	"strings"

	"fbind/internal/diag"
)

// Phase names the step of a generation run an error came from.
type Phase string

const (
	PhaseLoad     Phase = "load"
	PhaseValidate Phase = "validate"
	PhaseExpand   Phase = "expand"
	PhaseAssemble Phase = "assemble"
	PhaseFormat   Phase = "format"
	PhaseWrite    Phase = "write"
)

// ErrorKind classifies a generator error.
type ErrorKind string

const (
	KindInvalidManifest ErrorKind = "invalid_manifest"
	KindUnresolvedType  ErrorKind = "unresolved_type"
	KindUnsupported     ErrorKind = "unsupported"
	KindIO              ErrorKind = "io"
	KindFormat          ErrorKind = "format"
)

// Error is a generation-time failure. It never describes a runtime
// failure of generated code.
type Error struct {
	Phase   Phase
	Kind    ErrorKind
	Subject string // manifest path, artifact path or target name
	Detail  string
	Cause   error

	// Diagnostics holds the validator output for KindInvalidManifest.
	Diagnostics []diag.Diagnostic
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))
	if e.Subject != "" {
		b.WriteString(" at ")
		b.WriteString(e.Subject)
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is matches another *Error with the same phase and kind, so callers can
// write errors.Is(err, &bindgen.Error{Phase: bindgen.PhaseWrite, Kind: bindgen.KindIO}).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Phase == t.Phase && e.Kind == t.Kind
}

// ErrorBuilder assembles an Error.
type ErrorBuilder struct {
	err Error
}

// NewError starts an error of the given phase and kind.
func NewError(phase Phase, kind ErrorKind) *ErrorBuilder {
	return &ErrorBuilder{err: Error{Phase: phase, Kind: kind}}
}

func (b *ErrorBuilder) Subject(s string) *ErrorBuilder {
	b.err.Subject = s
	return b
}

func (b *ErrorBuilder) Cause(err error) *ErrorBuilder {
	b.err.Cause = err
	return b
}

func (b *ErrorBuilder) Detail(msg string, args ...any) *ErrorBuilder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

func (b *ErrorBuilder) Diagnostics(ds []diag.Diagnostic) *ErrorBuilder {
	b.err.Diagnostics = ds
	return b
}

func (b *ErrorBuilder) Build() *Error {
	e := b.err
	return &e
}

func unresolved(subject, name string) *Error {
	return NewError(PhaseExpand, KindUnresolvedType).
		Subject(subject).
		Detail("type %q is not registered", name).
		Build()
}
