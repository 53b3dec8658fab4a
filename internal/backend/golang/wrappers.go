package golang

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
)

func (Target) RenderArray(p *bindgen.ArrayPlan) bindgen.Fragment {
	rt := p.Type
	m, handle, elem := rt.Module, cgo(rt), goType(rt)

	dims := make([]string, rt.Rank)
	cdims := make([]string, rt.Rank)
	for i := range dims {
		dims[i] = fmt.Sprintf("dim%d", i)
		cdims[i] = fmt.Sprintf(", C.int64_t(dim%d)", i)
	}
	dimParams := ""
	if rt.Rank > 0 {
		dimParams = ", " + strings.Join(dims, ", ") + " int64"
	}
	shape := "[]int64{" + strings.Join(dims, ", ") + "}"

	w := bindgen.NewWriter("\t")
	w.Line("// %s is a rank %d array of %s owned by a Context.", m, rt.Rank, elem)
	w.Open("type %s struct {", m)
	w.Line("ctx   *Context")
	w.Line("own   *owner")
	w.Line("shape []int64")
	w.Close("}")
	w.Line("")

	w.Line("// New%s copies data, in row-major order, into a new array.", m)
	w.Open("func New%s(ctx *Context, data []%s%s) (*%s, error) {", m, elem, dimParams, m)
	w.Line("shape := %s", shape)
	returnOnErr(w, "checkShape(shape, len(data))", "nil")
	ctxPtr(w, "ctx", "nil")
	w.Line("h := C.%s(c, (*%s)(dataPtr(data))%s)", p.New.Name, rt.Bulk, strings.Join(cdims, ""))
	w.Line("return adopt%s(ctx, h, shape)", m)
	w.Close("}")
	w.Line("")

	dimArgs := ""
	if rt.Rank > 0 {
		dimArgs = ", " + strings.Join(dims, ", ")
	}
	w.Line("// Zeros%s returns a new zero-filled array of the given dimensions.", m)
	w.Open("func Zeros%s(ctx *Context%s) (*%s, error) {", m, dimParams, m)
	w.Line("shape := %s", shape)
	w.Line("n, ok := numel(shape)")
	w.Open("if !ok {")
	w.Line("return nil, &ShapeError{Shape: shape}")
	w.Close("}")
	w.Line("return New%s(ctx, make([]%s, n)%s)", m, elem, dimArgs)
	w.Close("}")

	if p.NewRaw != nil {
		w.Line("")
		w.Line("// NewRaw%s wraps backend memory at data plus offset bytes.", m)
		w.Open("func NewRaw%s(ctx *Context, data unsafe.Pointer, offset int64%s) (*%s, error) {", m, dimParams, m)
		ctxPtr(w, "ctx", "nil")
		w.Line("h := C.%s(c, (*C.uint8_t)(data), C.int64_t(offset)%s)", p.NewRaw.Name, strings.Join(cdims, ""))
		w.Line("return adopt%s(ctx, h, %s)", m, shape)
		w.Close("}")
	}
	w.Line("")

	w.Open("func adopt%s(ctx *Context, h %s, shape []int64) (*%s, error) {", m, handle, m)
	w.Line("own, err := newOwner(%q, unsafe.Pointer(h), %s)", p.Free.Name, releaser(p.Free.Name, handle))
	w.Open("if err != nil {")
	w.Line("return nil, err")
	w.Close("}")
	w.Line("return &%s{ctx: ctx, own: own, shape: shape}, nil", m)
	w.Close("}")
	w.Line("")

	w.Open("func %s(ctx *Context, h %s) (*%s, error) {", fromRaw(rt), handle, m)
	if rt.Rank > 0 {
		w.Open("if h == nil {")
		w.Line("return nil, ErrNullHandle")
		w.Close("}")
		ctxPtr(w, "ctx", "nil")
		w.Line("dims := unsafe.Slice((*int64)(unsafe.Pointer(C.%s(c, h))), %d)", p.Shape.Name, rt.Rank)
		w.Line("return adopt%s(ctx, h, append([]int64(nil), dims...))", m)
	} else {
		w.Line("return adopt%s(ctx, h, []int64{})", m)
	}
	w.Close("}")
	w.Line("")

	handleMethod(w, "a", m, handle)
	w.Line("")
	w.Line("// Shape returns the dimensions of a.")
	w.Line("func (a *%s) Shape() []int64 { return append([]int64(nil), a.shape...) }", m)
	w.Line("")

	w.Line("// Values copies the elements of a into out, which must match its shape.")
	w.Open("func (a *%s) Values(out []%s) error {", m, elem)
	returnOnErr(w, "checkShape(a.shape, len(out))")
	handleAndCtx(w, "a")
	returnOnErr(w, fmt.Sprintf("a.ctx.check(%q, C.%s(c, h, (*%s)(dataPtr(out))))", p.Values.Name, p.Values.Name, rt.Bulk))
	w.Line("return a.ctx.Sync()")
	w.Close("}")
	w.Line("")

	w.Line("// Slice returns the elements of a in row-major order.")
	w.Open("func (a *%s) Slice() ([]%s, error) {", m, elem)
	w.Line("n, _ := numel(a.shape)")
	w.Line("out := make([]%s, n)", elem)
	returnOnErr(w, "a.Values(out)", "nil")
	w.Line("return out, nil")
	w.Close("}")

	if p.ValuesRaw != nil {
		w.Line("")
		w.Line("// ValuesRaw returns the backend memory holding a.")
		w.Open("func (a *%s) ValuesRaw() (unsafe.Pointer, error) {", m)
		handleAndCtx(w, "a", "nil")
		w.Line("return unsafe.Pointer(C.%s(c, h)), nil", p.ValuesRaw.Name)
		w.Close("}")
	}
	w.Line("")
	releaseMethod(w, "a", m)
	return bindgen.Fragment{Impl: w.String()}
}

func (Target) RenderOpaque(p *bindgen.OpaquePlan) bindgen.Fragment {
	rt := p.Type
	m, handle := rt.Module, cgo(rt)

	w := bindgen.NewWriter("\t")
	w.Line("// %s is an opaque %s value owned by a Context.", m, rt.Name)
	w.Open("type %s struct {", m)
	w.Line("ctx *Context")
	w.Line("own *owner")
	w.Close("}")
	w.Line("")

	w.Open("func %s(ctx *Context, h %s) (*%s, error) {", fromRaw(rt), handle, m)
	w.Line("own, err := newOwner(%q, unsafe.Pointer(h), %s)", p.Free.Name, releaser(p.Free.Name, handle))
	w.Open("if err != nil {")
	w.Line("return nil, err")
	w.Close("}")
	w.Line("return &%s{ctx: ctx, own: own}, nil", m)
	w.Close("}")
	w.Line("")
	handleMethod(w, "o", m, handle)

	if rec := p.Record; rec != nil {
		taken := map[string]bool{"ctx": true, "c": true, "err": true, "out": true}
		for _, f := range rec.Fields {
			taken[fmt.Sprintf("in%d", f.Index)] = true
		}
		params := []string{"ctx *Context"}
		args := []string{"c", "&out"}
		var conv []string
		for _, f := range rec.Fields {
			id := bindgen.Unclash(local(f.Name), taken)
			taken[id] = true
			params = append(params, id+" "+f.Type.Host)
			if bindgen.PassOf(f.Type) == bindgen.PassHandle {
				in := fmt.Sprintf("in%d", f.Index)
				conv = append(conv, fmt.Sprintf("%s, err := %s.handle()", in, id))
				args = append(args, in)
			} else {
				args = append(args, fmt.Sprintf("%s(%s)", cgo(f.Type), id))
			}
		}
		w.Line("")
		w.Line("// New%s builds a %s from its fields.", m, rt.Name)
		w.Open("func New%s(%s) (*%s, error) {", m, strings.Join(params, ", "), m)
		ctxPtr(w, "ctx", "nil")
		for _, c := range conv {
			w.Line("%s", c)
			w.Open("if err != nil {")
			w.Line("return nil, err")
			w.Close("}")
		}
		w.Line("var out %s", handle)
		returnOnErr(w, fmt.Sprintf("ctx.check(%q, C.%s(%s))", rec.New.Name, rec.New.Name, strings.Join(args, ", ")), "nil")
		w.Line("return %s(ctx, out)", fromRaw(rt))
		w.Close("}")

		methods := map[string]bool{"Release": true}
		for _, f := range rec.Fields {
			name := bindgen.Unclash(bindgen.LeadingLetter(bindgen.Pascal(f.Name), "Field"), methods)
			methods[name] = true
			z := zero(f.Type)
			w.Line("")
			w.Line("// %s reads field %s.", name, f.Name)
			w.Open("func (o *%s) %s() (%s, error) {", m, name, f.Type.Host)
			handleAndCtx(w, "o", z)
			w.Line("var out %s", cgo(f.Type))
			returnOnErr(w, fmt.Sprintf("o.ctx.check(%q, C.%s(c, &out, h))", f.Project.Name, f.Project.Name), z)
			if bindgen.AdoptOf(f.Type) == bindgen.AdoptRead {
				returnOnErr(w, "o.ctx.Sync()", z)
				w.Line("return %s(out), nil", f.Type.Host)
			} else {
				w.Line("return %s(o.ctx, out)", fromRaw(f.Type))
			}
			w.Close("}")
		}
	}
	w.Line("")
	releaseMethod(w, "o", m)
	return bindgen.Fragment{Impl: w.String()}
}

// returns lists zeros followed by err.
func returns(zeros []string) string {
	return strings.Join(append(zeros[:len(zeros):len(zeros)], "err"), ", ")
}

// returnOnErr writes an if-err-return for call, returning zeros before the error.
func returnOnErr(w *bindgen.Writer, call string, zeros ...string) {
	w.Open("if err := %s; err != nil {", call)
	w.Line("return %s", returns(zeros))
	w.Close("}")
}

// ctxPtr binds c to the native context of the Go expression ctx.
func ctxPtr(w *bindgen.Writer, ctx string, zeros ...string) {
	w.Line("c, err := %s.ptr()", ctx)
	w.Open("if err != nil {")
	w.Line("return %s", returns(zeros))
	w.Close("}")
}

// handleAndCtx binds h and c for a method on receiver recv.
func handleAndCtx(w *bindgen.Writer, recv string, zeros ...string) {
	ret := returns(zeros)
	w.Line("h, err := %s.handle()", recv)
	w.Open("if err != nil {")
	w.Line("return %s", ret)
	w.Close("}")
	w.Line("c, err := %s.ctx.ptr()", recv)
	w.Open("if err != nil {")
	w.Line("return %s", ret)
	w.Close("}")
}

func releaser(free, handle string) string {
	return fmt.Sprintf("ctx.releaser(func(c *C.struct_futhark_context, p unsafe.Pointer) C.int {\n\treturn C.%s(c, (%s)(p))\n})", free, handle)
}

func handleMethod(w *bindgen.Writer, recv, m, handle string) {
	w.Open("func (%s *%s) handle() (%s, error) {", recv, m, handle)
	w.Open("if %s == nil {", recv)
	w.Line("return nil, ErrNullHandle")
	w.Close("}")
	w.Line("p, err := %s.own.get()", recv)
	w.Line("return (%s)(p), err", handle)
	w.Close("}")
}

func releaseMethod(w *bindgen.Writer, recv, m string) {
	w.Line("// Release frees the native value. Later calls do nothing.")
	w.Open("func (%s *%s) Release() error {", recv, m)
	w.Open("if %s == nil {", recv)
	w.Line("return nil")
	w.Close("}")
	w.Line("return %s.own.release()", recv)
	w.Close("}")
}
