// Package ocaml renders bindings as an OCaml module on top of ctypes and
// ctypes-foreign, with a matching interface file.
package ocaml

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
	"fbind/internal/manifest"
)

// Target is the OCaml binding target.
type Target struct{}

// New returns the OCaml target.
func New() Target { return Target{} }

func (Target) Lang() string { return "ocaml" }

// Unsigned scalars use the integers library types ctypes exposes for them.
var tables = bindgen.Tables{
	Host: map[manifest.ElemType]string{
		manifest.I8: "int", manifest.U8: "Unsigned.UInt8.t", manifest.I16: "int", manifest.U16: "Unsigned.UInt16.t",
		manifest.I32: "int32", manifest.U32: "Unsigned.UInt32.t", manifest.I64: "int64", manifest.U64: "Unsigned.UInt64.t",
		manifest.F32: "float", manifest.F64: "float",
	},
	Foreign: map[manifest.ElemType]string{
		manifest.I8: "int8_t", manifest.U8: "uint8_t", manifest.I16: "int16_t", manifest.U16: "uint16_t",
		manifest.I32: "int32_t", manifest.U32: "uint32_t", manifest.I64: "int64_t", manifest.U64: "uint64_t",
		manifest.F32: "float", manifest.F64: "double",
	},
	Bulk: map[manifest.ElemType]string{
		manifest.I8: "int8_signed", manifest.U8: "int8_unsigned",
		manifest.I16: "int16_signed", manifest.U16: "int16_unsigned",
		manifest.I32: "int32", manifest.U32: "int32", manifest.I64: "int64", manifest.U64: "int64",
		manifest.F32: "float32", manifest.F64: "float64",
	},
}

// elements is the OCaml type of a Bigarray element of each kind. Bigarray
// has no unsigned 32 or 64 bit kinds, so those carry the same bits signed.
var elements = map[manifest.ElemType]string{
	manifest.I8: "int", manifest.U8: "int", manifest.I16: "int", manifest.U16: "int",
	manifest.I32: "int32", manifest.U32: "int32", manifest.I64: "int64", manifest.U64: "int64",
	manifest.F32: "float", manifest.F64: "float",
}

func (Target) Tables() bindgen.Tables { return tables }

// Raw array operations take backend memory, which has no OCaml type.
func (Target) Capabilities() bindgen.Capabilities { return bindgen.Capabilities{} }

type spelling struct{}

func (Target) Spelling() bindgen.Spelling { return spelling{} }

func (spelling) Context() string          { return "context" }
func (spelling) Config() string           { return "context_config" }
func (spelling) Status() string           { return "int" }
func (spelling) Int() string              { return "int" }
func (spelling) Int64() string            { return "int64_t" }
func (spelling) Void() string             { return "void" }
func (spelling) CString() string          { return "string" }
func (spelling) OwnedCString() string     { return "(ptr char)" }
func (spelling) VoidPtr() string          { return "(ptr void)" }
func (spelling) Ptr(t string) string      { return "(ptr " + t + ")" }
func (spelling) ConstPtr(t string) string { return "(ptr " + t + ")" }

var keywords = wordSet(`and as assert asr begin class constraint do done downto else end exception
	external false for fun function functor if in include inherit initializer land lazy let lor lsl
	lsr lxor match method mod module mutable new nonrec object of open or private rec sig struct
	then to true try type val virtual when while with`)

// Module names the prelude defines.
var reservedModules = wordSet("Bindings Context Entry Error Ctypes Foreign Bigarray")

func wordSet(s string) map[string]bool {
	m := make(map[string]bool)
	for _, w := range strings.Fields(s) {
		m[w] = true
	}
	return m
}

func (Target) ArrayNames(elem manifest.ElemType, rank int, ctag string) bindgen.Names {
	value := fmt.Sprintf("array_%s_%dd", elem, rank)
	module := bindgen.FirstUpper(value)
	return bindgen.Names{Host: module + ".t", Foreign: value, Module: module, CTag: ctag}
}

func (Target) OpaqueNames(name, ctag string) bindgen.Names {
	id := bindgen.Ident(name)
	module := bindgen.Unclash(bindgen.LeadingLetter(bindgen.FirstUpper(id), "Opaque_"), reservedModules)
	return bindgen.Names{Host: module + ".t", Foreign: "opaque_" + id, Module: module, CTag: ctag}
}

// value turns s into a lowercase OCaml value name.
func value(s string) string {
	id := bindgen.Ident(s)
	if id[0] >= 'A' && id[0] <= 'Z' {
		id = strings.ToLower(id[:1]) + id[1:]
	}
	return bindgen.Unclash(bindgen.LeadingLetter(id, "v"), keywords)
}

// RenderDecl binds a native function inside the Bindings module.
func (Target) RenderDecl(d *bindgen.Decl) string {
	args := make([]string, len(d.Params))
	for i, p := range d.Params {
		args[i] = p.Type
	}
	if len(args) == 0 {
		args = []string{"void"}
	}
	return fmt.Sprintf("  let %s = Foreign.foreign %q (%s @-> returning %s)\n",
		value(d.Name), d.Name, strings.Join(args, " @-> "), d.Ret)
}

// binding is the qualified OCaml name of a declaration.
func binding(d *bindgen.Decl) string { return "Bindings." + value(d.Name) }

// zero is the zero literal of an OCaml scalar type.
func zero(host string) string {
	switch host {
	case "int32":
		return "0l"
	case "int64":
		return "0L"
	case "float":
		return "0.0"
	default:
		return "0"
	}
}

// genarray is the Bigarray type holding the elements of array rt, e.g.
// "(float, Bigarray.float32_elt, Bigarray.c_layout) Bigarray.Genarray.t".
func genarray(rt *bindgen.Resolved) string {
	return fmt.Sprintf("(%s, Bigarray.%s_elt, Bigarray.c_layout) Bigarray.Genarray.t", elements[rt.Elem], rt.Bulk)
}
