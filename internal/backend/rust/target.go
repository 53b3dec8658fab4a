// Package rust renders bindings as a single Rust module built on
// extern "C" declarations.
package rust

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
	"fbind/internal/manifest"
)

// Target is the Rust binding target.
type Target struct{}

// New returns the Rust target.
func New() Target { return Target{} }

func (Target) Lang() string { return "rust" }

var scalars = map[manifest.ElemType]string{
	manifest.I8: "i8", manifest.I16: "i16", manifest.I32: "i32", manifest.I64: "i64",
	manifest.U8: "u8", manifest.U16: "u16", manifest.U32: "u32", manifest.U64: "u64",
	manifest.F32: "f32", manifest.F64: "f64",
}

// Tables maps every element kind to the Rust primitive of the same width on
// both sides of the boundary.
func (Target) Tables() bindgen.Tables {
	return bindgen.Tables{Host: scalars, Foreign: scalars, Bulk: scalars}
}

func (Target) Capabilities() bindgen.Capabilities {
	return bindgen.Capabilities{RawArrayOps: true}
}

type spelling struct{}

func (Target) Spelling() bindgen.Spelling { return spelling{} }

func (spelling) Context() string          { return "*mut futhark_context" }
func (spelling) Config() string           { return "*mut futhark_context_config" }
func (spelling) Status() string           { return "c_int" }
func (spelling) Int() string              { return "c_int" }
func (spelling) Int64() string            { return "i64" }
func (spelling) Void() string             { return "" }
func (spelling) CString() string          { return "*const c_char" }
func (spelling) OwnedCString() string     { return "*mut c_char" }
func (spelling) VoidPtr() string          { return "*mut c_void" }
func (spelling) Ptr(t string) string      { return "*mut " + t }
func (spelling) ConstPtr(t string) string { return "*const " + t }

var keywords = wordSet(`as async await break const continue crate dyn else enum extern false fn for
	if impl in let loop match mod move mut pub ref return self Self static struct super trait true
	type unsafe use where while abstract become box do final macro override priv try typeof unsized
	virtual yield`)

// Names the prelude defines, kept free for wrapper types.
var reservedTypes = wordSet("Context Options Error Result")

// Methods of Context, kept free for entry points.
var contextMethods = wordSet(`new with_options sync clear_caches pause_profiling unpause_profiling
	get_error report drop`)

func wordSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

func (Target) ArrayNames(elem manifest.ElemType, rank int, ctag string) bindgen.Names {
	module := fmt.Sprintf("Array%sD%d", strings.ToUpper(string(elem)), rank)
	return bindgen.Names{
		Host:    module + "<'a>",
		Foreign: "*mut " + ctag,
		Module:  module,
		CTag:    ctag,
	}
}

func (Target) OpaqueNames(name, ctag string) bindgen.Names {
	module := bindgen.Unclash(bindgen.LeadingLetter(bindgen.Pascal(name), "Opaque"), reservedTypes)
	return bindgen.Names{
		Host:    module + "<'a>",
		Foreign: "*mut " + ctag,
		Module:  module,
		CTag:    ctag,
	}
}

// RenderDecl renders one item of an extern "C" block.
func (Target) RenderDecl(d *bindgen.Decl) string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = ident(p.Label) + ": " + p.Type
	}
	ret := ""
	if d.Ret != "" {
		ret = " -> " + d.Ret
	}
	return fmt.Sprintf("    fn %s(%s)%s;\n", d.Name, strings.Join(params, ", "), ret)
}

// ident makes s usable as a Rust binding.
func ident(s string) string {
	return bindgen.Unclash(bindgen.LeadingLetter(bindgen.Ident(s), "v"), keywords)
}

// host returns the type a wrapper signature uses for values of rt.
func host(rt *bindgen.Resolved) string {
	if rt.Handle() {
		return rt.Host
	}
	return rt.Foreign
}

// opaqueStruct declares the zero-sized Rust stand-in for a C struct tag.
func opaqueStruct(w *bindgen.Writer, tag string) {
	w.Line("#[repr(C)]")
	w.Open("pub struct %s {", tag)
	w.Line("_private: [u8; 0],")
	w.Close("}")
}
