// Package golang renders bindings as a single cgo source file. Native
// declarations become C prototypes in the cgo preamble; wrappers are Go
// types that own their handles.
package golang

import (
	"fmt"
	"path"
	"strings"

	"fbind/internal/bindgen"
	"fbind/internal/manifest"
	runtimeembed "fbind/runtime"
)

// Target is the Go target.
type Target struct{}

// New returns the Go target.
func New() Target { return Target{} }

func (Target) Lang() string { return "go" }

// Bulk holds the cgo spelling of each element type.
var tables = bindgen.Tables{
	Host: map[manifest.ElemType]string{
		manifest.I8: "int8", manifest.I16: "int16", manifest.I32: "int32", manifest.I64: "int64",
		manifest.U8: "uint8", manifest.U16: "uint16", manifest.U32: "uint32", manifest.U64: "uint64",
		manifest.F32: "float32", manifest.F64: "float64",
	},
	Foreign: map[manifest.ElemType]string{
		manifest.I8: "int8_t", manifest.I16: "int16_t", manifest.I32: "int32_t", manifest.I64: "int64_t",
		manifest.U8: "uint8_t", manifest.U16: "uint16_t", manifest.U32: "uint32_t", manifest.U64: "uint64_t",
		manifest.F32: "float", manifest.F64: "double",
	},
	Bulk: map[manifest.ElemType]string{
		manifest.I8: "C.int8_t", manifest.I16: "C.int16_t", manifest.I32: "C.int32_t", manifest.I64: "C.int64_t",
		manifest.U8: "C.uint8_t", manifest.U16: "C.uint16_t", manifest.U32: "C.uint32_t", manifest.U64: "C.uint64_t",
		manifest.F32: "C.float", manifest.F64: "C.double",
	},
}

func (Target) Tables() bindgen.Tables { return tables }

func (Target) Capabilities() bindgen.Capabilities {
	return bindgen.Capabilities{RawArrayOps: true}
}

// spelling writes C types for the cgo preamble.
type spelling struct{}

func (Target) Spelling() bindgen.Spelling { return spelling{} }

func (spelling) Context() string          { return "struct futhark_context *" }
func (spelling) Config() string           { return "struct futhark_context_config *" }
func (spelling) Status() string           { return "int" }
func (spelling) Int() string              { return "int" }
func (spelling) Int64() string            { return "int64_t" }
func (spelling) Void() string             { return "void" }
func (spelling) CString() string          { return "const char *" }
func (spelling) OwnedCString() string     { return "char *" }
func (spelling) VoidPtr() string          { return "void *" }
func (spelling) Ptr(t string) string      { return star(t) }
func (spelling) ConstPtr(t string) string { return "const " + star(t) }

func star(t string) string {
	if strings.HasSuffix(t, "*") {
		return t + "*"
	}
	return t + " *"
}

// declarator joins a C type and a name: "double *out", "int rc".
func declarator(typ, name string) string {
	if strings.HasSuffix(typ, "*") {
		return typ + name
	}
	return typ + " " + name
}

var keywords = wordSet(`break case chan const continue default defer else fallthrough for func go goto
	if import interface map package range return select struct switch type var`)

// Identifiers the generated file defines at package level.
var reservedTypes = wordSet("Context Options CodeError ShapeError Releaser")

// Identifiers a parameter must not shadow: the cgo pseudo-package,
// predeclared names and the support helpers called from wrapper bodies.
// Imported package names are added from the support imports.
var locals = wordSet(`C
	any bool byte comparable complex64 complex128 error float32 float64 int int8 int16 int32 int64
	rune string uint uint8 uint16 uint32 uint64 uintptr
	append cap clear close complex copy delete imag len make max min new panic print println real recover
	true false iota nil
	numel checkShape dataPtr newOwner owner releaseAll cBool takeString`)

func init() {
	for k := range keywords {
		locals[k] = true
	}
	for _, imp := range runtimeembed.GoSupportImports {
		locals[path.Base(imp)] = true
	}
}

var contextMethods = wordSet("Release Sync ClearCaches PauseProfiling UnpauseProfiling GetError Report")

func wordSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

func (Target) ArrayNames(elem manifest.ElemType, rank int, ctag string) bindgen.Names {
	module := fmt.Sprintf("Array%sD%d", strings.ToUpper(string(elem)), rank)
	return bindgen.Names{Host: "*" + module, Foreign: "struct " + ctag + " *", Module: module, CTag: ctag}
}

func (Target) OpaqueNames(name, ctag string) bindgen.Names {
	module := bindgen.Unclash(bindgen.LeadingLetter(bindgen.Pascal(name), "Opaque"), reservedTypes)
	return bindgen.Names{Host: "*" + module, Foreign: "struct " + ctag + " *", Module: module, CTag: ctag}
}

// RenderDecl writes a C prototype for the cgo preamble.
func (Target) RenderDecl(d *bindgen.Decl) string {
	params := make([]string, len(d.Params))
	for i, p := range d.Params {
		params[i] = declarator(p.Type, p.Label)
	}
	if len(params) == 0 {
		params = []string{"void"}
	}
	return declarator(d.Ret, d.Name) + "(" + strings.Join(params, ", ") + ");\n"
}

// cgo is the Go spelling of a C type through cgo.
func cgo(rt *bindgen.Resolved) string {
	if rt.Handle() {
		return "*C.struct_" + rt.CTag
	}
	return rt.Bulk
}

// goType is the element or scalar Go type of rt.
func goType(rt *bindgen.Resolved) string { return tables.Host[rt.Elem] }

// zero is the zero value of a wrapped type.
func zero(rt *bindgen.Resolved) string {
	if rt.Handle() {
		return "nil"
	}
	return "0"
}

// local turns a manifest name into an unexported Go identifier.
func local(s string) string {
	p := bindgen.Pascal(s)
	id := strings.ToLower(p[:1]) + p[1:]
	return bindgen.Unclash(bindgen.LeadingLetter(id, "v"), locals)
}

// fromRaw names the function adopting a raw handle of rt.
func fromRaw(rt *bindgen.Resolved) string {
	return strings.ToLower(rt.Module[:1]) + rt.Module[1:] + "FromRaw"
}
