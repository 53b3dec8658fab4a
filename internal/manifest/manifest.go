// Package manifest models the description of a compiled native library:
// its array and opaque types and its entry points.
package manifest

// Backend names the native execution backend the library was compiled for.
type Backend string

const (
	BackendC             Backend = "c"
	BackendMulticore     Backend = "multicore"
	BackendISPC          Backend = "ispc"
	BackendOpenCL        Backend = "opencl"
	BackendCUDA          Backend = "cuda"
	BackendHIP           Backend = "hip"
	BackendPython        Backend = "python"
	BackendPyOpenCL      Backend = "pyopencl"
	BackendWASM          Backend = "wasm"
	BackendWASMMulticore Backend = "wasm_multicore"
)

// Known reports whether b is one of the backends listed above.
func (b Backend) Known() bool {
	switch b {
	case BackendC, BackendMulticore, BackendISPC, BackendOpenCL, BackendCUDA, BackendHIP,
		BackendPython, BackendPyOpenCL, BackendWASM, BackendWASMMulticore:
		return true
	}
	return false
}

// ElemType is a primitive element kind.
type ElemType string

const (
	I8  ElemType = "i8"
	I16 ElemType = "i16"
	I32 ElemType = "i32"
	I64 ElemType = "i64"
	U8  ElemType = "u8"
	U16 ElemType = "u16"
	U32 ElemType = "u32"
	U64 ElemType = "u64"
	F32 ElemType = "f32"
	F64 ElemType = "f64"
)

// ElemTypes lists every primitive element kind in table order.
var ElemTypes = []ElemType{I8, I16, I32, I64, U8, U16, U32, U64, F32, F64}

// ParseElemType returns the element kind named s.
func ParseElemType(s string) (ElemType, bool) {
	for _, e := range ElemTypes {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

func (e ElemType) String() string { return string(e) }

// Type is either *ArrayType or *OpaqueType.
type Type interface {
	isType()
}

// ArrayOps holds the native function names the manifest lists for an array
// type. Empty names are derived from the element type and rank.
type ArrayOps struct {
	New       string `json:"new"`
	NewRaw    string `json:"new_raw"`
	Free      string `json:"free"`
	Shape     string `json:"shape"`
	Values    string `json:"values"`
	ValuesRaw string `json:"values_raw"`
}

// ArrayType is a dense array of Rank dimensions over Elem.
type ArrayType struct {
	Elem  ElemType
	Rank  uint32
	CType string
	Ops   ArrayOps
}

// OpaqueType is a handle released by Free; Record is nil unless the type
// can also be built from and projected into named fields.
type OpaqueType struct {
	CType  string
	Free   string
	Record *Record
}

// Record describes the constructor and field projections of an opaque type.
type Record struct {
	New    string
	Fields []Field
}

// Field is one record field. Type is a type reference: a primitive element
// kind or the name of another manifest type.
type Field struct {
	Name    string
	Type    string
	Project string
}

func (*ArrayType) isType()  {}
func (*OpaqueType) isType() {}

// NamedType pairs a manifest type with its key.
type NamedType struct {
	Name string
	Type Type
}

// Param is one entry point input or output.
type Param struct {
	Name   string
	Type   string
	Unique bool
}

// Entry is a compiled entry point.
type Entry struct {
	CFun    string
	Inputs  []Param
	Outputs []Param
}

// NamedEntry pairs an entry point with its key.
type NamedEntry struct {
	Name  string
	Entry *Entry
}

// Manifest is the whole library description. Types and Entries are in
// iteration order (ascending by name).
type Manifest struct {
	Backend Backend
	Version string
	Types   []NamedType
	Entries []NamedEntry
}

// Type returns the manifest type registered under name.
func (m *Manifest) Type(name string) (Type, bool) {
	if m == nil {
		return nil, false
	}
	for _, nt := range m.Types {
		if nt.Name == name {
			return nt.Type, true
		}
	}
	return nil, false
}
