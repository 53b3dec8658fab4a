package rust

import (
	"fmt"
	"strings"

	"fbind/internal/bindgen"
)

func (Target) RenderArray(p *bindgen.ArrayPlan) bindgen.Fragment {
	rt := p.Type
	name, elem, rank := rt.Module, scalars[rt.Elem], rt.Rank
	dims := make([]string, rank)
	for i := range dims {
		dims[i] = fmt.Sprintf(", dims[%d]", i)
	}
	dimArgs := strings.Join(dims, "")

	w := bindgen.NewWriter("    ")
	opaqueStruct(w, rt.CTag)
	w.Line("")
	w.Line("/// A %d-dimensional array of %s owned by a Context.", rank, elem)
	w.Open("pub struct %s<'a> {", name)
	w.Line("ptr: %s,", rt.Foreign)
	w.Line("shape: [i64; %d],", rank)
	w.Line("ctx: &'a Context,")
	w.Close("}")
	w.Line("")
	w.Open("impl<'a> %s<'a> {", name)

	w.Line("/// Allocates a zero-filled array.")
	w.Open("pub fn new(ctx: &'a Context, dims: [i64; %d]) -> Result<Self, Error> {", rank)
	w.Line("let data = vec![%s::default(); shape_len(&dims)?];", elem)
	w.Line("Self::from_slice(ctx, dims, &data)")
	w.Close("}")
	w.Line("")

	w.Line("/// Copies data into a new array; data.len() must equal the product of dims.")
	w.Open("pub fn from_slice(ctx: &'a Context, dims: [i64; %d], data: &[%s]) -> Result<Self, Error> {", rank, elem)
	w.Open("if data.len() != shape_len(&dims)? {")
	w.Line("return Err(Error::InvalidShape);")
	w.Close("}")
	w.Line("let ptr = unsafe { %s(ctx.context, data.as_ptr()%s) };", p.New.Name, dimArgs)
	w.Open("if ptr.is_null() {")
	w.Line("return Err(Error::NullPtr);")
	w.Close("}")
	w.Line("Ok(%s { ptr, shape: dims, ctx })", name)
	w.Close("}")
	w.Line("")

	if p.NewRaw != nil {
		w.Line("/// Wraps backend memory at offset without copying.")
		w.Line("///")
		w.Line("/// # Safety")
		w.Line("/// data must be memory of the context's backend holding at least the product of dims elements.")
		w.Open("pub unsafe fn from_raw_data(ctx: &'a Context, data: *const u8, offset: i64, dims: [i64; %d]) -> Result<Self, Error> {", rank)
		w.Line("let ptr = %s(ctx.context, data, offset%s);", p.NewRaw.Name, dimArgs)
		w.Open("if ptr.is_null() {")
		w.Line("return Err(Error::NullPtr);")
		w.Close("}")
		w.Line("Ok(%s { ptr, shape: dims, ctx })", name)
		w.Close("}")
		w.Line("")
	}

	w.Line("/// Takes ownership of a handle returned by the library.")
	w.Line("///")
	w.Line("/// # Safety")
	w.Line("/// ptr must be a live handle of ctx that nothing else frees.")
	w.Open("pub unsafe fn from_raw(ctx: &'a Context, ptr: %s) -> Result<Self, Error> {", rt.Foreign)
	w.Open("if ptr.is_null() {")
	w.Line("return Err(Error::NullPtr);")
	w.Close("}")
	if rank > 0 {
		w.Line("let mut shape = [0i64; %d];", rank)
		w.Line("std::ptr::copy_nonoverlapping(%s(ctx.context, ptr), shape.as_mut_ptr(), %d);", p.Shape.Name, rank)
	} else {
		w.Line("let shape = [0i64; 0];")
	}
	w.Line("Ok(%s { ptr, shape, ctx })", name)
	w.Close("}")
	w.Line("")

	w.Open("pub fn shape(&self) -> &[i64] {")
	w.Line("&self.shape")
	w.Close("}")
	w.Line("")

	w.Line("/// Copies the array into out; out.len() must equal the product of the shape.")
	w.Open("pub fn values(&self, out: &mut [%s]) -> Result<(), Error> {", elem)
	w.Open("if out.len() != shape_len(&self.shape)? {")
	w.Line("return Err(Error::InvalidShape);")
	w.Close("}")
	w.Line("check(unsafe { %s(self.ctx.context, self.ptr, out.as_mut_ptr()) })?;", p.Values.Name)
	w.Line("self.ctx.sync()")
	w.Close("}")
	w.Line("")

	w.Open("pub fn to_vec(&self) -> Result<Vec<%s>, Error> {", elem)
	w.Line("let mut out = vec![%s::default(); shape_len(&self.shape)?];", elem)
	w.Line("self.values(&mut out)?;")
	w.Line("Ok(out)")
	w.Close("}")
	w.Line("")

	if p.ValuesRaw != nil {
		w.Line("/// Backend memory of the array.")
		w.Line("///")
		w.Line("/// # Safety")
		w.Line("/// The pointer is only valid while self is alive.")
		w.Open("pub unsafe fn values_raw(&self) -> *mut u8 {")
		w.Line("%s(self.ctx.context, self.ptr)", p.ValuesRaw.Name)
		w.Close("}")
		w.Line("")
	}

	w.Open("pub fn as_raw(&self) -> %s {", rt.Foreign)
	w.Line("self.ptr")
	w.Close("}")
	w.Close("}")
	w.Line("")
	renderDrop(w, name, p.Free.Name)
	return bindgen.Fragment{Impl: w.String()}
}

func (Target) RenderOpaque(p *bindgen.OpaquePlan) bindgen.Fragment {
	rt := p.Type
	name := rt.Module

	w := bindgen.NewWriter("    ")
	opaqueStruct(w, rt.CTag)
	w.Line("")
	w.Open("pub struct %s<'a> {", name)
	w.Line("ptr: %s,", rt.Foreign)
	w.Line("ctx: &'a Context,")
	w.Close("}")
	w.Line("")
	w.Open("impl<'a> %s<'a> {", name)

	if p.Record != nil {
		renderRecordNew(w, name, p.Record)
	}

	w.Line("/// Takes ownership of a handle returned by the library.")
	w.Line("///")
	w.Line("/// # Safety")
	w.Line("/// ptr must be a live handle of ctx that nothing else frees.")
	w.Open("pub unsafe fn from_raw(ctx: &'a Context, ptr: %s) -> Result<Self, Error> {", rt.Foreign)
	w.Open("if ptr.is_null() {")
	w.Line("return Err(Error::NullPtr);")
	w.Close("}")
	w.Line("Ok(%s { ptr, ctx })", name)
	w.Close("}")
	w.Line("")

	w.Open("pub fn as_raw(&self) -> %s {", rt.Foreign)
	w.Line("self.ptr")
	w.Close("}")

	if p.Record != nil {
		for _, f := range p.Record.Fields {
			w.Line("")
			renderProjection(w, f)
		}
	}
	w.Close("}")
	w.Line("")
	renderDrop(w, name, p.Free.Name)
	return bindgen.Fragment{Impl: w.String()}
}

func renderRecordNew(w *bindgen.Writer, name string, rec *bindgen.RecordPlan) {
	taken := map[string]bool{"ctx": true, "out": true, "rc": true}
	params := []string{"ctx: &'a Context"}
	args := []string{"ctx.context", "&mut out"}
	for _, f := range rec.Fields {
		id := bindgen.Unclash(ident(f.Name), taken)
		taken[id] = true
		if f.Type.Handle() {
			params = append(params, fmt.Sprintf("%s: &%s", id, f.Type.Host))
			args = append(args, id+".ptr")
		} else {
			params = append(params, fmt.Sprintf("%s: %s", id, f.Type.Foreign))
			args = append(args, id)
		}
	}
	w.Open("pub fn new(%s) -> Result<Self, Error> {", strings.Join(params, ", "))
	w.Line("let mut out = std::ptr::null_mut();")
	w.Line("check(unsafe { %s(%s) })?;", rec.New.Name, strings.Join(args, ", "))
	w.Line("unsafe { Self::from_raw(ctx, out) }")
	w.Close("}")
	w.Line("")
}

func renderProjection(w *bindgen.Writer, f *bindgen.FieldPlan) {
	ft := f.Type
	w.Open("pub fn get_%s(&self) -> Result<%s, Error> {", bindgen.Ident(f.Name), host(ft))
	if ft.Handle() {
		w.Line("let mut out: %s = std::ptr::null_mut();", ft.Foreign)
	} else {
		w.Line("let mut out = %s::default();", ft.Foreign)
	}
	w.Line("check(unsafe { %s(self.ctx.context, &mut out, self.ptr) })?;", f.Project.Name)
	switch bindgen.AdoptOf(ft) {
	case bindgen.AdoptArray, bindgen.AdoptOpaque:
		w.Line("unsafe { %s::from_raw(self.ctx, out) }", ft.Module)
	case bindgen.AdoptRead:
		w.Line("self.ctx.sync()?;")
		w.Line("Ok(out)")
	}
	w.Close("}")
}

func renderDrop(w *bindgen.Writer, name, free string) {
	w.Open("impl Drop for %s<'_> {", name)
	w.Open("fn drop(&mut self) {")
	w.Line("unsafe { %s(self.ctx.context, self.ptr); }", free)
	w.Close("}")
	w.Close("}")
}
