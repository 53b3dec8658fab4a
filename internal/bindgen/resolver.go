package bindgen

import (
	"fmt"

	"fbind/internal/manifest"
)

// Table selects one of the three per-target name tables.
type Table uint8

const (
	TableHost    Table = iota // type as written in the wrapped API
	TableForeign              // type as written in native declarations
	TableBulk                 // bulk storage element tag
)

func (t Table) String() string {
	switch t {
	case TableHost:
		return "host"
	case TableForeign:
		return "foreign"
	case TableBulk:
		return "bulk"
	default:
		return fmt.Sprintf("Table(%d)", uint8(t))
	}
}

// Tables is a target's mapping of primitive element kinds.
type Tables struct {
	Host    map[manifest.ElemType]string
	Foreign map[manifest.ElemType]string
	Bulk    map[manifest.ElemType]string
}

// Kind is the classification of a resolved type.
type Kind uint8

const (
	KindScalar Kind = iota + 1
	KindArray
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindArray:
		return "array"
	case KindOpaque:
		return "opaque"
	default:
		return "unknown"
	}
}

// Names are the spellings a target chooses for an array or opaque type.
type Names struct {
	Host    string // wrapper type in the wrapped API
	Foreign string // handle type in native declarations
	Module  string // name the wrapper is defined under
	CTag    string // C struct tag, e.g. futhark_f32_1d
}

// Resolved is what a manifest type reference denotes for one target.
// Record fields and entry parameters hold a pointer to the Resolved of
// their type, never a name to be looked up again.
type Resolved struct {
	Kind Kind
	Name string // manifest key or element kind
	Names

	Elem   manifest.ElemType // scalar kind or array element kind
	Rank   int               // arrays only
	Record bool              // opaque types with fields
	Bulk   string            // bulk tag of Elem
}

// Handle reports whether values of r travel as native handles.
func (r *Resolved) Handle() bool { return r.Kind == KindArray || r.Kind == KindOpaque }

// Resolver maps manifest type references to target spellings. It is built
// for one generation run and filled in manifest order, so a type is visible
// to every reference expanded after it.
type Resolver struct {
	tables [3]map[string]string
	types  map[string]*Resolved
	order  []string
}

// NewResolver seeds a resolver with the primitive element kinds of t.
func NewResolver(t Tables) *Resolver {
	r := &Resolver{types: make(map[string]*Resolved, len(manifest.ElemTypes)*2)}
	for i := range r.tables {
		r.tables[i] = make(map[string]string, len(manifest.ElemTypes))
	}
	for _, e := range manifest.ElemTypes {
		host, foreign, bulk := lookupElem(t.Host, e), lookupElem(t.Foreign, e), lookupElem(t.Bulk, e)
		r.tables[TableHost][string(e)] = host
		r.tables[TableForeign][string(e)] = foreign
		r.tables[TableBulk][string(e)] = bulk
		r.types[string(e)] = &Resolved{
			Kind:  KindScalar,
			Name:  string(e),
			Names: Names{Host: host, Foreign: foreign},
			Elem:  e,
			Bulk:  bulk,
		}
	}
	return r
}

func lookupElem(m map[manifest.ElemType]string, e manifest.ElemType) string {
	if s, ok := m[e]; ok {
		return s
	}
	return string(e)
}

// Resolve returns the spelling of id in table, or id itself when the table
// has no entry.
func (r *Resolver) Resolve(table Table, id string) string {
	if s, ok := r.tables[table][id]; ok {
		return s
	}
	return id
}

// Register binds name to rt. Later registrations under the same name win.
func (r *Resolver) Register(name string, rt *Resolved) {
	if _, ok := r.types[name]; !ok {
		r.order = append(r.order, name)
	}
	r.types[name] = rt
	r.tables[TableHost][name] = rt.Host
	r.tables[TableForeign][name] = rt.Foreign
	if rt.Bulk != "" {
		r.tables[TableBulk][name] = rt.Bulk
	}
}

// Lookup returns the type registered under name. A miss is a generator
// defect: the manifest was not validated or a type was referenced before
// its expansion.
func (r *Resolver) Lookup(subject, name string) (*Resolved, error) {
	if rt, ok := r.types[name]; ok {
		return rt, nil
	}
	return nil, unresolved(subject, name)
}

// Registered lists the non-primitive names in registration order.
func (r *Resolver) Registered() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
