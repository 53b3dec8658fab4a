package rust

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
)

// RenderEntry renders an entry point as a method of Context.
func (Target) RenderEntry(p *bindgen.EntryPlan) bindgen.Fragment {
	method := bindgen.Unclash(ident(p.Name), contextMethods)

	taken := map[string]bool{"rc": true}
	params := []string{"&'a self"}
	args := []string{"self.context"}
	for _, out := range p.Outputs {
		args = append(args, fmt.Sprintf("&mut out%d", out.Index))
		taken[fmt.Sprintf("out%d", out.Index)] = true
		taken[fmt.Sprintf("v%d", out.Index)] = true
	}
	inArgs := make([]string, 0, len(p.Inputs))
	for _, in := range p.Inputs {
		label := in.Name
		if label == "" {
			label = fmt.Sprintf("in%d", in.Index)
		}
		id := bindgen.Unclash(ident(label), taken)
		taken[id] = true
		switch bindgen.PassOf(in.Type) {
		case bindgen.PassHandle:
			params = append(params, fmt.Sprintf("%s: &%s", id, in.Type.Host))
			inArgs = append(inArgs, id+".ptr")
		case bindgen.PassValue:
			params = append(params, fmt.Sprintf("%s: %s", id, in.Type.Foreign))
			inArgs = append(inArgs, id)
		}
	}
	args = append(args, inArgs...)

	rets := make([]string, len(p.Outputs))
	results := make([]string, len(p.Outputs))
	for i, out := range p.Outputs {
		rets[i] = host(out.Type)
		if bindgen.AdoptOf(out.Type) == bindgen.AdoptRead {
			results[i] = fmt.Sprintf("out%d", i)
		} else {
			results[i] = fmt.Sprintf("v%d?", i)
		}
	}

	w := bindgen.NewWriter("    ")
	w.Depth(1)
	w.Line("/// Calls %s.", p.CFun.Name)
	w.Open("pub fn %s<'a>(%s) -> Result<%s, Error> {", method, strings.Join(params, ", "), tuple(rets))
	for _, out := range p.Outputs {
		switch bindgen.SlotOf(out.Type) {
		case bindgen.SlotHandle:
			w.Line("let mut out%d: %s = std::ptr::null_mut();", out.Index, out.Type.Foreign)
		case bindgen.SlotScalar:
			w.Line("let mut out%d = %s::default();", out.Index, out.Type.Foreign)
		}
	}
	w.Line("check(unsafe { %s(%s) })?;", p.CFun.Name, strings.Join(args, ", "))
	for _, out := range p.Outputs {
		if bindgen.AdoptOf(out.Type) != bindgen.AdoptRead {
			w.Line("let v%d = unsafe { %s::from_raw(self, out%d) };", out.Index, out.Type.Module, out.Index)
		}
	}
	w.Line("self.sync()?;")
	w.Line("Ok(%s)", tuple(results))
	w.Close("}")
	return bindgen.Fragment{Impl: w.String()}
}

// tuple joins items as a Rust tuple; one item stays bare, none is unit.
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
