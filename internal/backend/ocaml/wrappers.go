package ocaml

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
)

func (Target) RenderArray(p *bindgen.ArrayPlan) bindgen.Fragment {
	rt := p.Type
	ba := genarray(rt)
	dims := make([]string, rt.Rank)
	for i := range dims {
		dims[i] = fmt.Sprintf(" (Int64.of_int shape.(%d))", i)
	}

	ml := bindgen.NewWriter("  ")
	ml.Open("module %s = struct", rt.Module)
	ml.Line("type t = { handle : unit ptr; ctx : Context.t; shape : int array; mutable freed : bool }")
	ml.Line("")
	ml.Line("let kind = Bigarray.%s", rt.Bulk)
	ml.Line("")
	ml.Open("let ptr t =")
	ml.Line("if t.freed then raise (Error NullPtr);")
	ml.Line("t.handle")
	ml.Close("")
	ml.Open("let free t =")
	ml.Open("if not t.freed && not (Context.released t.ctx) then begin")
	ml.Line("t.freed <- true;")
	ml.Line("ignore (%s (Context.ptr t.ctx) t.handle)", binding(p.Free))
	ml.Close("end")
	ml.Close("")
	ml.Open("let adopt ctx handle shape =")
	ml.Line("let t = { handle; ctx; shape; freed = false } in")
	ml.Line("Gc.finalise free t;")
	ml.Line("t")
	ml.Close("")
	ml.Open("let of_raw ctx handle =")
	ml.Line("if is_null handle then raise (Error NullPtr);")
	if rt.Rank > 0 {
		ml.Line("let dims = %s (Context.ptr ctx) handle in", binding(p.Shape))
		ml.Line("adopt ctx handle (Array.init %d (fun i -> Int64.to_int !@(dims +@ i)))", rt.Rank)
	} else {
		ml.Line("adopt ctx handle [||]")
	}
	ml.Close("")
	ml.Open("let v ctx ba =")
	ml.Line("let shape = Bigarray.Genarray.dims ba in")
	ml.Line("if Array.length shape <> %d then raise (Error InvalidShape);", rt.Rank)
	ml.Line("let handle = %s (Context.ptr ctx) (data %s ba)%s in", binding(p.New), tables.Foreign[rt.Elem], strings.Join(dims, ""))
	ml.Line("if is_null handle then raise (Error NullPtr);")
	ml.Line("adopt ctx handle shape")
	ml.Close("")
	ml.Open("let of_array ctx dims data =")
	ml.Line("if numel dims <> Array.length data then raise (Error InvalidShape);")
	ml.Line("let flat = Bigarray.genarray_of_array1 (Bigarray.Array1.of_array kind Bigarray.c_layout data) in")
	ml.Line("v ctx (Bigarray.reshape flat dims)")
	ml.Close("")
	ml.Line("let create ctx dims = of_array ctx dims (Array.make (numel dims) %s)", zero(elements[rt.Elem]))
	ml.Line("")
	ml.Line("let shape t = Array.copy t.shape")
	ml.Line("")
	ml.Open("let values t ba =")
	ml.Line("if Bigarray.Genarray.dims ba <> t.shape then raise (Error InvalidShape);")
	ml.Line("check (%s (Context.ptr t.ctx) (ptr t) (data %s ba));", binding(p.Values), tables.Foreign[rt.Elem])
	ml.Line("Context.auto_sync t.ctx")
	ml.Close("")
	ml.Open("let get t =")
	ml.Line("let ba = Bigarray.Genarray.create kind Bigarray.c_layout t.shape in")
	ml.Line("values t ba;")
	ml.Line("ba")
	ml.Depth(0)
	ml.Line("end")

	mli := bindgen.NewWriter("  ")
	mli.Open("module %s : sig", rt.Module)
	mli.Line("type t")
	mli.Line("")
	mli.Line("val v : Context.t -> %s -> t", ba)
	mli.Line("(** Copies a bigarray of rank %d into a new array. *)", rt.Rank)
	mli.Line("")
	mli.Line("val of_array : Context.t -> int array -> %s array -> t", elements[rt.Elem])
	mli.Line("(** [of_array ctx dims data] raises [Error InvalidShape] unless [data] has")
	mli.Line("    exactly the product of [dims] elements. *)")
	mli.Line("")
	mli.Line("val create : Context.t -> int array -> t")
	mli.Line("val shape : t -> int array")
	mli.Line("val values : t -> %s -> unit", ba)
	mli.Line("val get : t -> %s", ba)
	mli.Line("val of_raw : Context.t -> unit Ctypes.ptr -> t")
	mli.Line("val free : t -> unit")
	mli.Close("end")

	return bindgen.Fragment{Impl: ml.String(), Iface: mli.String()}
}

func (Target) RenderOpaque(p *bindgen.OpaquePlan) bindgen.Fragment {
	rt := p.Type

	ml := bindgen.NewWriter("  ")
	ml.Open("module %s = struct", rt.Module)
	ml.Line("type t = { handle : unit ptr; ctx : Context.t; mutable freed : bool }")
	ml.Line("")
	ml.Open("let ptr t =")
	ml.Line("if t.freed then raise (Error NullPtr);")
	ml.Line("t.handle")
	ml.Close("")
	ml.Open("let free t =")
	ml.Open("if not t.freed && not (Context.released t.ctx) then begin")
	ml.Line("t.freed <- true;")
	ml.Line("ignore (%s (Context.ptr t.ctx) t.handle)", binding(p.Free))
	ml.Close("end")
	ml.Close("")
	ml.Open("let of_raw ctx handle =")
	ml.Line("if is_null handle then raise (Error NullPtr);")
	ml.Line("let t = { handle; ctx; freed = false } in")
	ml.Line("Gc.finalise free t;")
	ml.Line("t")

	mli := bindgen.NewWriter("  ")
	mli.Open("module %s : sig", rt.Module)
	mli.Line("type t")
	mli.Line("")
	mli.Line("val of_raw : Context.t -> unit Ctypes.ptr -> t")
	mli.Line("val free : t -> unit")

	if rec := p.Record; rec != nil {
		params := []string{"ctx"}
		args := []string{"(Context.ptr ctx)", "out"}
		types := []string{"Context.t"}
		for i, f := range rec.Fields {
			field := fmt.Sprintf("field%d", i)
			params = append(params, field)
			args = append(args, passArg(field, f.Type))
			types = append(types, f.Type.Host)
		}
		ml.Close("")
		ml.Open("let v %s =", strings.Join(params, " "))
		ml.Line("let out = allocate (ptr void) null in")
		ml.Line("check (%s %s);", binding(rec.New), strings.Join(args, " "))
		ml.Line("of_raw ctx !@out")

		mli.Line("val v : %s -> t", strings.Join(types, " -> "))
		for _, f := range rec.Fields {
			getter := "get_" + bindgen.Ident(f.Name)
			ml.Close("")
			ml.Open("let %s t =", getter)
			ml.Line("let out = %s in", slot(f.Type))
			ml.Line("check (%s (Context.ptr t.ctx) out (ptr t));", binding(f.Project))
			ml.Line("%s", adopt("t.ctx", "!@out", f.Type))
			mli.Line("val %s : t -> %s", getter, f.Type.Host)
		}
	}
	ml.Depth(0)
	ml.Line("end")
	mli.Close("end")
	return bindgen.Fragment{Impl: ml.String(), Iface: mli.String()}
}

// passArg converts a wrapped OCaml value to its native argument.
func passArg(name string, rt *bindgen.Resolved) string {
	if bindgen.PassOf(rt) == bindgen.PassHandle {
		return fmt.Sprintf("(%s.ptr %s)", rt.Module, name)
	}
	return name
}

// slot allocates storage for one native output.
func slot(rt *bindgen.Resolved) string {
	if bindgen.SlotOf(rt) == bindgen.SlotHandle {
		return "allocate (ptr void) null"
	}
	return fmt.Sprintf("allocate_n %s ~count:1", rt.Foreign)
}

// adopt turns a filled slot into the wrapped value.
func adopt(ctx, deref string, rt *bindgen.Resolved) string {
	switch bindgen.AdoptOf(rt) {
	case bindgen.AdoptArray, bindgen.AdoptOpaque:
		return fmt.Sprintf("%s.of_raw %s %s", rt.Module, ctx, deref)
	default:
		return fmt.Sprintf("Context.auto_sync %s; %s", ctx, deref)
	}
}
