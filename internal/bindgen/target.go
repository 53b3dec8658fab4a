package bindgen

import (
	"context"

	"fbind/internal/manifest"
)

// Spelling gives a target's foreign spelling of the fixed native types used
// by lifecycle, array and entry declarations.
type Spelling interface {
	Context() string      // struct futhark_context*
	Config() string       // struct futhark_context_config*
	Status() string       // int status code
	Int() string          // int flag or count
	Int64() string        // int64_t offset or dimension
	Void() string         // no return value
	CString() string      // const char* argument
	OwnedCString() string // char* result released with free
	VoidPtr() string      // void* argument to free
	Ptr(t string) string
	ConstPtr(t string) string
}

// Capabilities are optional declaration groups a target supports.
type Capabilities struct {
	RawArrayOps bool // new_raw and values_raw
}

// Fragment is rendered text for the definitions artifact (Impl) and, for
// targets with a separate interface artifact, the matching Iface text.
type Fragment struct {
	Impl  string
	Iface string
}

// Artifact is one generated output, named by its suffix (".rs", ".mli").
type Artifact struct {
	Suffix  string
	Content []byte
	// Unformatted is set when formatting was requested but the
	// formatter binary could not be found.
	Unformatted bool
}

// Options carries per-target settings from the command line or fbind.toml.
type Options struct {
	Package string // Go package name
	Library string // native library linked by cgo
	Format  bool   // run the target's external formatter
}

// Target renders the core's declarations and plans for one host language.
// Implementations must be stateless between calls.
type Target interface {
	Lang() string
	Tables() Tables
	Spelling() Spelling
	Capabilities() Capabilities

	// ArrayNames and OpaqueNames receive the C struct tag of the handle,
	// taken from the manifest ctype or derived from the type.
	ArrayNames(elem manifest.ElemType, rank int, ctag string) Names
	OpaqueNames(name, ctag string) Names

	RenderDecl(d *Decl) string
	RenderArray(p *ArrayPlan) Fragment
	RenderOpaque(p *OpaquePlan) Fragment
	RenderEntry(p *EntryPlan) Fragment

	Assemble(x *Expansion, opts Options) ([]Artifact, error)
}

// Formatter is implemented by targets with an external formatter, run on
// each artifact when Options.Format is set.
type Formatter interface {
	Format(ctx context.Context, a Artifact) (Artifact, error)
}
