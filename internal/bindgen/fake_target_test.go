package bindgen

import (
	"fmt"
	"strings"

	"fbind/internal/manifest"
)

// cSpelling spells native types the way a C header does.
type cSpelling struct{}

func (cSpelling) Context() string      { return "struct futhark_context *" }
func (cSpelling) Config() string       { return "struct futhark_context_config *" }
func (cSpelling) Status() string       { return "int" }
func (cSpelling) Int() string          { return "int" }
func (cSpelling) Int64() string        { return "int64_t" }
func (cSpelling) Void() string         { return "void" }
func (cSpelling) CString() string      { return "const char *" }
func (cSpelling) OwnedCString() string { return "char *" }
func (cSpelling) VoidPtr() string      { return "void *" }

func (cSpelling) Ptr(t string) string {
	if strings.HasSuffix(t, "*") {
		return t + "*"
	}
	return t + " *"
}

func (s cSpelling) ConstPtr(t string) string { return "const " + s.Ptr(t) }

// fakeTarget renders one line per fragment so tests can compare layouts.
type fakeTarget struct {
	raw bool
}

func (fakeTarget) Lang() string { return "fake" }

func (fakeTarget) Tables() Tables {
	return Tables{
		Host: map[manifest.ElemType]string{
			manifest.F32: "float32", manifest.F64: "float64", manifest.I32: "int32", manifest.I64: "int64",
		},
		Foreign: map[manifest.ElemType]string{
			manifest.F32: "float", manifest.F64: "double", manifest.I32: "int32_t",
			manifest.I64: "int64_t", manifest.U8: "uint8_t",
		},
		Bulk: map[manifest.ElemType]string{manifest.F32: "F32", manifest.F64: "F64"},
	}
}

func (fakeTarget) Spelling() Spelling { return cSpelling{} }

func (t fakeTarget) Capabilities() Capabilities { return Capabilities{RawArrayOps: t.raw} }

func (fakeTarget) ArrayNames(elem manifest.ElemType, rank int, ctag string) Names {
	host := fmt.Sprintf("Array_%s_%dd", elem, rank)
	return Names{Host: host, Foreign: "struct " + ctag + " *", Module: host, CTag: ctag}
}

func (fakeTarget) OpaqueNames(name, ctag string) Names {
	host := "Opaque_" + Ident(name)
	return Names{Host: host, Foreign: "struct " + ctag + " *", Module: host, CTag: ctag}
}

func (fakeTarget) RenderDecl(d *Decl) string {
	ps := make([]string, len(d.Params))
	for i, p := range d.Params {
		ps[i] = p.Type + " " + p.Label
	}
	if len(ps) == 0 {
		ps = []string{"void"}
	}
	return fmt.Sprintf("%s %s(%s);\n", d.Ret, d.Name, strings.Join(ps, ", "))
}

func (fakeTarget) RenderArray(p *ArrayPlan) Fragment {
	return Fragment{Impl: "array " + p.Type.Host + "\n", Iface: "type " + p.Type.Host + "\n"}
}

func (fakeTarget) RenderOpaque(p *OpaquePlan) Fragment {
	line := "opaque " + p.Type.Host
	if p.Record != nil {
		names := make([]string, len(p.Record.Fields))
		for i, f := range p.Record.Fields {
			names[i] = f.Name + ":" + f.Type.Host
		}
		line += " {" + strings.Join(names, ", ") + "}"
	}
	return Fragment{Impl: line + "\n", Iface: "type " + p.Type.Host + "\n"}
}

func (fakeTarget) RenderEntry(p *EntryPlan) Fragment {
	ins := make([]string, len(p.Inputs))
	for i, v := range p.Inputs {
		ins[i] = v.Type.Host
	}
	outs := make([]string, len(p.Outputs))
	for i, v := range p.Outputs {
		outs[i] = v.Type.Host
	}
	ret := "()"
	switch len(outs) {
	case 0:
	case 1:
		ret = outs[0]
	default:
		ret = "(" + strings.Join(outs, ", ") + ")"
	}
	line := fmt.Sprintf("entry %s(%s) -> %s\n", p.Name, strings.Join(ins, ", "), ret)
	return Fragment{Impl: line, Iface: line}
}

func (fakeTarget) Assemble(x *Expansion, _ Options) ([]Artifact, error) {
	var impl, iface strings.Builder
	impl.WriteString("// prologue\n")
	for _, d := range x.LifecycleDecls {
		impl.WriteString(d)
	}
	for i := range x.Types {
		impl.WriteString(x.TypeDecls[i])
		impl.WriteString(x.TypeWrappers[i].Impl)
		iface.WriteString(x.TypeWrappers[i].Iface)
	}
	for i := range x.Entries {
		impl.WriteString(x.EntryDecls[i])
	}
	for _, w := range x.EntryWrappers {
		impl.WriteString(w.Impl)
		iface.WriteString(w.Iface)
	}
	impl.WriteString("// epilogue\n")
	return []Artifact{
		{Suffix: ".txt", Content: []byte(impl.String())},
		{Suffix: ".iface", Content: []byte(iface.String())},
	}, nil
}
