package ocaml

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
)

// RenderEntry renders an entry point as a function of the Entry module
// taking the context first.
func (Target) RenderEntry(p *bindgen.EntryPlan) bindgen.Fragment {
	fn := value(p.Name)

	taken := map[string]bool{"ctx": true}
	for _, out := range p.Outputs {
		taken[fmt.Sprintf("out%d", out.Index)] = true
		taken[fmt.Sprintf("v%d", out.Index)] = true
	}
	params := []string{"ctx"}
	types := []string{"Context.t"}
	args := []string{"(Context.ptr ctx)"}
	for _, out := range p.Outputs {
		args = append(args, fmt.Sprintf("out%d", out.Index))
	}
	for _, in := range p.Inputs {
		label := in.Name
		if label == "" {
			label = fmt.Sprintf("in%d", in.Index)
		}
		id := bindgen.Unclash(value(label), taken)
		taken[id] = true
		params = append(params, id)
		types = append(types, in.Type.Host)
		args = append(args, passArg(id, in.Type))
	}

	rets := make([]string, len(p.Outputs))
	results := make([]string, len(p.Outputs))
	for i, out := range p.Outputs {
		rets[i] = out.Type.Host
		if bindgen.AdoptOf(out.Type) == bindgen.AdoptRead {
			results[i] = fmt.Sprintf("!@out%d", out.Index)
		} else {
			results[i] = fmt.Sprintf("v%d", out.Index)
		}
	}

	ml := bindgen.NewWriter("  ")
	ml.Depth(1)
	ml.Open("let %s %s =", fn, strings.Join(params, " "))
	for _, out := range p.Outputs {
		ml.Line("let out%d = %s in", out.Index, slot(out.Type))
	}
	ml.Line("check (%s %s);", binding(p.CFun), strings.Join(args, " "))
	for _, out := range p.Outputs {
		if bindgen.AdoptOf(out.Type) != bindgen.AdoptRead {
			ml.Line("let v%d = %s.of_raw ctx !@out%d in", out.Index, out.Type.Module, out.Index)
		}
	}
	ml.Line("Context.auto_sync ctx;")
	ml.Line("%s", tuple(results))

	mli := bindgen.NewWriter("  ")
	mli.Depth(1)
	mli.Line("val %s : %s -> %s", fn, strings.Join(types, " -> "), product(rets))
	mli.Line("(** Calls [%s]. *)", p.CFun.Name)
	return bindgen.Fragment{Impl: ml.String(), Iface: mli.String()}
}

// tuple builds the result expression; one item stays bare, none is unit.
func tuple(items []string) string {
	switch len(items) {
	case 0:
		return "()"
	case 1:
		return items[0]
	default:
		return "(" + strings.Join(items, ", ") + ")"
	}
}

// product is the type of a tuple built by tuple.
func product(types []string) string {
	if len(types) == 0 {
		return "unit"
	}
	return strings.Join(types, " * ")
}
