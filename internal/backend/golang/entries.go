package golang

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
)

// RenderEntry renders an entry point as a method of *Context returning
// its outputs followed by an error.
func (Target) RenderEntry(p *bindgen.EntryPlan) bindgen.Fragment {
	method := bindgen.Unclash(bindgen.LeadingLetter(bindgen.Pascal(p.Name), "Entry"), contextMethods)

	taken := map[string]bool{"c": true, "cctx": true, "err": true}
	for _, out := range p.Outputs {
		for _, f := range []string{"out%d", "v%d", "err%d"} {
			taken[fmt.Sprintf(f, out.Index)] = true
		}
	}
	for _, in := range p.Inputs {
		taken[fmt.Sprintf("in%d", in.Index)] = true
	}

	params := make([]string, 0, len(p.Inputs))
	args := []string{"cctx"}
	for _, out := range p.Outputs {
		args = append(args, fmt.Sprintf("&out%d", out.Index))
	}
	type conversion struct{ local, param string }
	var convs []conversion
	for _, in := range p.Inputs {
		label := in.Name
		if label == "" {
			label = fmt.Sprintf("in%d", in.Index)
		}
		id := bindgen.Unclash(local(label), taken)
		taken[id] = true
		params = append(params, id+" "+in.Type.Host)
		if bindgen.PassOf(in.Type) == bindgen.PassHandle {
			l := fmt.Sprintf("in%d", in.Index)
			convs = append(convs, conversion{l, id})
			args = append(args, l)
		} else {
			args = append(args, fmt.Sprintf("%s(%s)", cgo(in.Type), id))
		}
	}

	rets := make([]string, 0, len(p.Outputs)+1)
	zeros := make([]string, 0, len(p.Outputs))
	results := make([]string, 0, len(p.Outputs)+1)
	var adopted, errs []string
	for _, out := range p.Outputs {
		rets = append(rets, out.Type.Host)
		zeros = append(zeros, zero(out.Type))
		if bindgen.AdoptOf(out.Type) == bindgen.AdoptRead {
			results = append(results, fmt.Sprintf("%s(out%d)", out.Type.Host, out.Index))
		} else {
			results = append(results, fmt.Sprintf("v%d", out.Index))
			adopted = append(adopted, fmt.Sprintf("v%d", out.Index))
			errs = append(errs, fmt.Sprintf("err%d", out.Index))
		}
	}
	rets = append(rets, "error")
	results = append(results, "nil")
	sig := rets[0]
	if len(rets) > 1 {
		sig = "(" + strings.Join(rets, ", ") + ")"
	}

	w := bindgen.NewWriter("\t")
	w.Line("// %s calls %s.", method, p.CFun.Name)
	w.Open("func (c *Context) %s(%s) %s {", method, strings.Join(params, ", "), sig)
	w.Line("cctx, err := c.ptr()")
	w.Open("if err != nil {")
	w.Line("return %s", returns(zeros))
	w.Close("}")
	for _, cv := range convs {
		w.Line("%s, err := %s.handle()", cv.local, cv.param)
		w.Open("if err != nil {")
		w.Line("return %s", returns(zeros))
		w.Close("}")
	}
	if len(p.Outputs) > 0 {
		w.Open("var (")
		for _, out := range p.Outputs {
			w.Line("out%d %s", out.Index, cgo(out.Type))
		}
		w.Close(")")
	}
	returnOnErr(w, fmt.Sprintf("c.check(%q, C.%s(%s))", p.CFun.Name, p.CFun.Name, strings.Join(args, ", ")), zeros...)
	for _, out := range p.Outputs {
		if bindgen.AdoptOf(out.Type) != bindgen.AdoptRead {
			w.Line("v%d, err%d := %s(c, out%d)", out.Index, out.Index, fromRaw(out.Type), out.Index)
		}
	}
	if len(adopted) > 0 {
		w.Open("if err := errors.Join(%s, c.Sync()); err != nil {", strings.Join(errs, ", "))
		w.Line("_ = releaseAll(%s)", strings.Join(adopted, ", "))
		w.Line("return %s", returns(zeros))
		w.Close("}")
	} else {
		returnOnErr(w, "c.Sync()", zeros...)
	}
	w.Line("return %s", strings.Join(results, ", "))
	w.Close("}")
	return bindgen.Fragment{Impl: w.String()}
}
