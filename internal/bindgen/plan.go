package bindgen

import "fbind/internal/manifest"

// Slot is the storage an entry point output needs before the native call.
type Slot uint8

const (
	SlotHandle Slot = iota + 1 // pointer to a native handle
	SlotScalar                 // pointer to a scalar value
)

// Pass is how an input reaches the native call.
type Pass uint8

const (
	PassHandle Pass = iota + 1 // the wrapper's owned handle
	PassValue                  // the scalar itself
)

// Adopt is how an output slot becomes a wrapped value after success.
type Adopt uint8

const (
	AdoptArray  Adopt = iota + 1 // array raw-adopt constructor
	AdoptOpaque                  // opaque raw-adopt constructor
	AdoptRead                    // read the scalar out of the slot
)

// SlotOf returns the output slot for values of r.
func SlotOf(r *Resolved) Slot {
	if r.Handle() {
		return SlotHandle
	}
	return SlotScalar
}

// PassOf returns the input convention for values of r.
func PassOf(r *Resolved) Pass {
	if r.Handle() {
		return PassHandle
	}
	return PassValue
}

// AdoptOf returns the output conversion for values of r.
func AdoptOf(r *Resolved) Adopt {
	switch r.Kind {
	case KindArray:
		return AdoptArray
	case KindOpaque:
		return AdoptOpaque
	default:
		return AdoptRead
	}
}

// ArrayPlan is an expanded array type. NewRaw and ValuesRaw are nil for
// targets without raw array operations.
type ArrayPlan struct {
	Name      string
	Type      *Resolved
	New       *Decl
	NewRaw    *Decl
	Values    *Decl
	ValuesRaw *Decl
	Free      *Decl
	Shape     *Decl
}

// OpaquePlan is an expanded opaque type. Record is nil when the manifest
// lists no fields for it.
type OpaquePlan struct {
	Name   string
	Type   *Resolved
	Free   *Decl
	Record *RecordPlan
}

// RecordPlan holds the constructor and projections of a record, fields in
// manifest order.
type RecordPlan struct {
	New    *Decl
	Fields []*FieldPlan
}

// FieldPlan is one record field.
type FieldPlan struct {
	Index   int
	Name    string
	Type    *Resolved
	Project *Decl
}

// Value is one entry point input or output.
type Value struct {
	Index  int
	Name   string
	Type   *Resolved
	Unique bool
}

// EntryPlan is an expanded entry point.
type EntryPlan struct {
	Name    string
	CFun    *Decl
	Inputs  []*Value
	Outputs []*Value
}

// TypePlan is exactly one of Array or Opaque.
type TypePlan struct {
	Array  *ArrayPlan
	Opaque *OpaquePlan
}

// Name returns the manifest key of the planned type.
func (p TypePlan) Name() string {
	if p.Array != nil {
		return p.Array.Name
	}
	return p.Opaque.Name
}

// Expansion is the whole result of expanding a manifest for one target:
// structured plans plus the fragments rendered from them, both in manifest
// order. Assemble only concatenates.
type Expansion struct {
	Backend manifest.Backend
	Version string
	Knob    Knob

	Lifecycle []*Decl // context and configuration, knob last when present
	Types     []TypePlan
	Entries   []*EntryPlan

	LifecycleDecls []string   // rendered Lifecycle
	TypeDecls      []string   // rendered native declarations per type
	TypeWrappers   []Fragment // per type
	EntryDecls     []string   // rendered native declarations per entry
	EntryWrappers  []Fragment // per entry

	Resolver *Resolver
}

// Decls returns the declarations of p in declaration order.
func (p *ArrayPlan) Decls() []*Decl {
	return nonNil(p.New, p.NewRaw, p.Free, p.Values, p.ValuesRaw, p.Shape)
}

// Decls returns the declarations of p in declaration order.
func (p *OpaquePlan) Decls() []*Decl {
	ds := []*Decl{p.Free}
	if p.Record != nil {
		ds = append(ds, p.Record.New)
		for _, f := range p.Record.Fields {
			ds = append(ds, f.Project)
		}
	}
	return ds
}

func nonNil(ds ...*Decl) []*Decl {
	out := ds[:0:0]
	for _, d := range ds {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}
