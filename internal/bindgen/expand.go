package bindgen

import (
	"context"
	"fmt"
	"strings"

	"fortio.org/safecast"
	"go.uber.org/zap"

	"fbind/internal/manifest"
	"fbind/internal/trace"
)

// Expand classifies and expands every type and entry point of m for t.
// m is expected to have passed manifest.Validate; references that still
// fail to resolve are reported as KindUnresolvedType.
func Expand(ctx context.Context, m *manifest.Manifest, t Target) (*Expansion, error) {
	span, ctx := trace.Start(ctx, trace.ScopePass, "expand")
	defer span.End("")

	s := t.Spelling()
	x := &expander{
		target: t,
		spell:  s,
		caps:   t.Capabilities(),
		res:    NewResolver(t.Tables()),
		log:    Logger().With(zap.String("target", t.Lang())),
	}
	out := &Expansion{
		Backend:  m.Backend,
		Version:  m.Version,
		Knob:     KnobFor(m.Backend),
		Resolver: x.res,
	}
	out.Lifecycle = LifecycleDecls(s, out.Knob)
	for _, d := range out.Lifecycle {
		out.LifecycleDecls = append(out.LifecycleDecls, t.RenderDecl(d))
	}

	for _, nt := range m.Types {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, _ := trace.Start(ctx, trace.ScopeItem, "type:"+nt.Name)
		plan, err := x.expandType(nt)
		item.End("")
		if err != nil {
			return nil, err
		}
		out.Types = append(out.Types, plan)
		if plan.Array != nil {
			out.TypeDecls = append(out.TypeDecls, x.render(plan.Array.Decls()))
			out.TypeWrappers = append(out.TypeWrappers, t.RenderArray(plan.Array))
		} else {
			out.TypeDecls = append(out.TypeDecls, x.render(plan.Opaque.Decls()))
			out.TypeWrappers = append(out.TypeWrappers, t.RenderOpaque(plan.Opaque))
		}
	}

	for _, ne := range m.Entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		item, _ := trace.Start(ctx, trace.ScopeItem, "entry:"+ne.Name)
		plan, err := x.expandEntry(ne)
		item.End("")
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, plan)
		out.EntryDecls = append(out.EntryDecls, t.RenderDecl(plan.CFun))
		out.EntryWrappers = append(out.EntryWrappers, t.RenderEntry(plan))
	}

	span.WithExtra("types", fmt.Sprint(len(out.Types))).WithExtra("entries", fmt.Sprint(len(out.Entries)))
	return out, nil
}

type expander struct {
	target Target
	spell  Spelling
	caps   Capabilities
	res    *Resolver
	log    *zap.Logger
}

func (x *expander) render(ds []*Decl) string {
	var sb strings.Builder
	for _, d := range ds {
		sb.WriteString(x.target.RenderDecl(d))
	}
	return sb.String()
}

func (x *expander) expandType(nt manifest.NamedType) (TypePlan, error) {
	switch ty := nt.Type.(type) {
	case *manifest.ArrayType:
		p, err := x.expandArray(nt.Name, ty)
		return TypePlan{Array: p}, err
	case *manifest.OpaqueType:
		p, err := x.expandOpaque(nt.Name, ty)
		return TypePlan{Opaque: p}, err
	default:
		return TypePlan{}, NewError(PhaseExpand, KindUnsupported).
			Subject(typeSubject(nt.Name)).
			Detail("unsupported type %T", nt.Type).
			Build()
	}
}

func (x *expander) expandArray(name string, a *manifest.ArrayType) (*ArrayPlan, error) {
	if _, ok := manifest.ParseElemType(string(a.Elem)); !ok {
		return nil, NewError(PhaseExpand, KindInvalidManifest).
			Subject(typeSubject(name)+".elemtype").
			Detail("unknown element type %q", a.Elem).
			Build()
	}
	rank, err := safecast.Conv[int](a.Rank)
	if err != nil {
		return nil, NewError(PhaseExpand, KindUnsupported).
			Subject(typeSubject(name) + ".rank").
			Cause(err).
			Build()
	}

	suffix := fmt.Sprintf("%s_%dd", a.Elem, rank)
	names := x.target.ArrayNames(a.Elem, rank, cTag(a.CType, "futhark_"+suffix))
	rt := &Resolved{
		Kind:  KindArray,
		Name:  name,
		Names: names,
		Elem:  a.Elem,
		Rank:  rank,
		Bulk:  x.res.Resolve(TableBulk, string(a.Elem)),
	}
	x.res.Register(name, rt)

	s := x.spell
	ctx, arr := P("ctx", s.Context()), P("arr", names.Foreign)
	elem := x.res.Resolve(TableForeign, string(a.Elem))
	bytes := x.res.Resolve(TableForeign, string(manifest.U8))
	op := func(given, verb string) string {
		if given != "" {
			return given
		}
		return "futhark_" + verb + "_" + suffix
	}
	withDims := func(ps ...Param) []Param {
		for i := 0; i < rank; i++ {
			ps = append(ps, P(fmt.Sprintf("dim%d", i), s.Int64()))
		}
		return ps
	}

	p := &ArrayPlan{Name: name, Type: rt}
	p.New = Declare(op(a.Ops.New, "new"), names.Foreign, withDims(ctx, P("data", s.ConstPtr(elem)))...)
	p.Free = Declare(op(a.Ops.Free, "free"), s.Status(), ctx, arr)
	p.Values = Declare(op(a.Ops.Values, "values"), s.Status(), ctx, arr, P("data", s.Ptr(elem)))
	p.Shape = Declare(op(a.Ops.Shape, "shape"), s.ConstPtr(s.Int64()), ctx, arr)
	if x.caps.RawArrayOps {
		p.NewRaw = Declare(op(a.Ops.NewRaw, "new_raw"), names.Foreign,
			withDims(ctx, P("data", s.ConstPtr(bytes)), P("offset", s.Int64()))...)
		p.ValuesRaw = Declare(op(a.Ops.ValuesRaw, "values_raw"), s.Ptr(bytes), ctx, arr)
	}

	x.log.Debug("expanded array",
		zap.String("type", name),
		zap.String("elem", string(a.Elem)),
		zap.Int("rank", rank),
		zap.String("wrapper", names.Host))
	return p, nil
}

func (x *expander) expandOpaque(name string, o *manifest.OpaqueType) (*OpaquePlan, error) {
	ident := Ident(name)
	names := x.target.OpaqueNames(name, cTag(o.CType, "futhark_opaque_"+ident))
	rt := &Resolved{
		Kind:   KindOpaque,
		Name:   name,
		Names:  names,
		Record: o.Record != nil,
	}
	x.res.Register(name, rt)

	s := x.spell
	ctx, obj := P("ctx", s.Context()), P("obj", names.Foreign)
	free := o.Free
	if free == "" {
		free = "futhark_free_opaque_" + ident
	}
	p := &OpaquePlan{Name: name, Type: rt, Free: Declare(free, s.Status(), ctx, obj)}

	if o.Record != nil {
		newName := o.Record.New
		if newName == "" {
			newName = "futhark_new_opaque_" + ident
		}
		params := []Param{ctx, P("out", s.Ptr(names.Foreign))}
		rec := &RecordPlan{Fields: make([]*FieldPlan, 0, len(o.Record.Fields))}
		for i, f := range o.Record.Fields {
			subject := fmt.Sprintf("%s.record.fields[%d].type", typeSubject(name), i)
			ft, err := x.res.Lookup(subject, f.Type)
			if err != nil {
				return nil, err
			}
			params = append(params, P(fmt.Sprintf("v%d", i), ft.Foreign))
			project := f.Project
			if project == "" {
				project = "futhark_project_opaque_" + ident + "_" + Ident(f.Name)
			}
			rec.Fields = append(rec.Fields, &FieldPlan{
				Index:   i,
				Name:    f.Name,
				Type:    ft,
				Project: Declare(project, s.Status(), ctx, P("out", s.Ptr(ft.Foreign)), obj),
			})
		}
		rec.New = Declare(newName, s.Status(), params...)
		p.Record = rec
	}

	x.log.Debug("expanded opaque",
		zap.String("type", name),
		zap.Bool("record", p.Record != nil),
		zap.String("wrapper", names.Host))
	return p, nil
}

func (x *expander) expandEntry(ne manifest.NamedEntry) (*EntryPlan, error) {
	e := ne.Entry
	s := x.spell
	p := &EntryPlan{
		Name:    ne.Name,
		Inputs:  make([]*Value, 0, len(e.Inputs)),
		Outputs: make([]*Value, 0, len(e.Outputs)),
	}
	params := make([]Param, 0, 1+len(e.Outputs)+len(e.Inputs))
	params = append(params, P("ctx", s.Context()))

	for i, out := range e.Outputs {
		rt, err := x.res.Lookup(fmt.Sprintf("entry_points[%q].outputs[%d].type", ne.Name, i), out.Type)
		if err != nil {
			return nil, err
		}
		params = append(params, P(fmt.Sprintf("out%d", i), s.Ptr(rt.Foreign)))
		p.Outputs = append(p.Outputs, &Value{Index: i, Name: out.Name, Type: rt, Unique: out.Unique})
	}
	for i, in := range e.Inputs {
		rt, err := x.res.Lookup(fmt.Sprintf("entry_points[%q].inputs[%d].type", ne.Name, i), in.Type)
		if err != nil {
			return nil, err
		}
		params = append(params, P(fmt.Sprintf("in%d", i), rt.Foreign))
		p.Inputs = append(p.Inputs, &Value{Index: i, Name: in.Name, Type: rt, Unique: in.Unique})
	}

	cfun := e.CFun
	if cfun == "" {
		cfun = "futhark_entry_" + Ident(ne.Name)
	}
	p.CFun = Declare(cfun, s.Status(), params...)

	x.log.Debug("expanded entry",
		zap.String("entry", ne.Name),
		zap.Int("inputs", len(p.Inputs)),
		zap.Int("outputs", len(p.Outputs)))
	return p, nil
}

// cTag extracts "futhark_f32_1d" from a ctype such as
// "struct futhark_f32_1d *", falling back to def.
func cTag(ctype, def string) string {
	tag := strings.TrimSpace(ctype)
	tag = strings.TrimPrefix(tag, "const ")
	tag = strings.TrimPrefix(tag, "struct ")
	tag = strings.TrimSpace(strings.TrimRight(tag, "* "))
	if tag == "" || strings.ContainsAny(tag, " \t*") {
		return def
	}
	return tag
}

func typeSubject(name string) string { return fmt.Sprintf("types[%q]", name) }
