package bindgen

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"fbind/internal/manifest"
)

const recordsManifest = `{
  "backend": "cuda",
  "types": {
    "[]f64":   {"kind": "array", "ctype": "struct futhark_f64_1d *", "elemtype": "f64", "rank": 1},
    "[][]f64": {"kind": "array", "ctype": "struct futhark_f64_2d *", "elemtype": "f64", "rank": 2},
    "state":   {"kind": "opaque", "ctype": "struct futhark_opaque_state *", "ops": {"free": "futhark_free_opaque_state"}},
    "summary": {
      "kind": "opaque",
      "ctype": "struct futhark_opaque_summary *",
      "ops": {"free": "futhark_free_opaque_summary"},
      "record": {
        "new": "futhark_new_opaque_summary",
        "fields": [
          {"name": "values", "type": "[]f64", "project": "futhark_project_opaque_summary_values"},
          {"name": "count", "type": "i32", "project": "futhark_project_opaque_summary_count"},
          {"name": "inner", "type": "state", "project": "futhark_project_opaque_summary_inner"}
        ]
      }
    }
  },
  "entry_points": {
    "mean":  {"cfun": "futhark_entry_mean", "inputs": [{"name": "s", "type": "summary"}], "outputs": [{"type": "f64"}]},
    "reset": {"cfun": "futhark_entry_reset", "inputs": [{"name": "s", "type": "state", "unique": true}], "outputs": []},
    "stats": {
      "cfun": "futhark_entry_stats",
      "inputs": [{"name": "xs", "type": "[][]f64"}, {"name": "n", "type": "i64"}],
      "outputs": [{"type": "[]f64"}, {"type": "f64"}, {"type": "summary"}]
    }
  }
}`

func parse(t *testing.T, src string) *manifest.Manifest {
	t.Helper()
	m, err := manifest.Parse([]byte(src))
	if err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	return m
}

func expand(t *testing.T, m *manifest.Manifest, target Target) *Expansion {
	t.Helper()
	x, err := Expand(context.Background(), m, target)
	if err != nil {
		t.Fatalf("expand: %v", err)
	}
	return x
}

func countLabels(d *Decl, prefix string) int {
	n := 0
	for _, p := range d.Params {
		if strings.HasPrefix(p.Label, prefix) {
			n++
		}
	}
	return n
}

func TestArrayDimensionParams(t *testing.T) {
	m := parse(t, `{"backend": "c", "types": {
		"scalar_box": {"kind": "array", "elemtype": "f32", "rank": 0},
		"[]f32":      {"kind": "array", "elemtype": "f32", "rank": 1},
		"[][][]i64":  {"kind": "array", "elemtype": "i64", "rank": 3}
	}}`)
	x := expand(t, m, fakeTarget{raw: true})

	for _, tp := range x.Types {
		p := tp.Array
		rank := p.Type.Rank
		if got := countLabels(p.New, "dim"); got != rank {
			t.Errorf("%s: new has %d dims, want %d", p.Name, got, rank)
		}
		if got := countLabels(p.NewRaw, "dim"); got != rank {
			t.Errorf("%s: new_raw has %d dims, want %d", p.Name, got, rank)
		}
		if len(p.New.Params) != 2+rank || len(p.NewRaw.Params) != 3+rank {
			t.Errorf("%s: unexpected parameter counts %d/%d", p.Name, len(p.New.Params), len(p.NewRaw.Params))
		}
		if p.Shape.Ret != "const int64_t *" {
			t.Errorf("%s: shape returns %q", p.Name, p.Shape.Ret)
		}
		if p.New.Ret != p.Type.Foreign || p.Free.Ret != "int" {
			t.Errorf("%s: bad return types %q %q", p.Name, p.New.Ret, p.Free.Ret)
		}
	}

	got := x.Types[2].Array
	if got.Name != "scalar_box" || got.New.Name != "futhark_new_f32_0d" {
		t.Fatalf("zero-rank array expanded as %s/%s", got.Name, got.New.Name)
	}
	if got.Type.CTag != "futhark_f32_0d" {
		t.Fatalf("derived ctag = %q", got.Type.CTag)
	}
}

func TestArrayOpsFromManifest(t *testing.T) {
	m := parse(t, `{"types": {"[]u8": {"kind": "array", "elemtype": "u8", "rank": 1,
		"ctype": "struct my_u8_1d *", "ops": {"new": "my_new", "free": "my_free"}}}}`)
	p := expand(t, m, fakeTarget{}).Types[0].Array

	if p.New.Name != "my_new" || p.Free.Name != "my_free" {
		t.Fatalf("manifest op names ignored: %s %s", p.New.Name, p.Free.Name)
	}
	if p.Values.Name != "futhark_values_u8_1d" || p.Shape.Name != "futhark_shape_u8_1d" {
		t.Fatalf("derived op names wrong: %s %s", p.Values.Name, p.Shape.Name)
	}
	if p.NewRaw != nil || p.ValuesRaw != nil {
		t.Fatalf("raw ops emitted for a target without them")
	}
	if p.Type.CTag != "my_u8_1d" || p.Type.Foreign != "struct my_u8_1d *" {
		t.Fatalf("ctype not honoured: %+v", p.Type.Names)
	}
	if len(p.Decls()) != 4 {
		t.Fatalf("got %d declarations, want 4", len(p.Decls()))
	}
}

func TestRecordFieldOrder(t *testing.T) {
	const tmpl = `{"types": {
		"[]f32": {"kind": "array", "elemtype": "f32", "rank": 1},
		"pair": {"kind": "opaque", "ops": {"free": "free_pair"}, "record": {"new": "new_pair", "fields": [FIELDS]}}
	}}`
	a := `{"name": "xs", "type": "[]f32", "project": "project_xs"}`
	b := `{"name": "n", "type": "i32", "project": "project_n"}`

	check := func(fields string, wantNames, wantTypes []string) {
		t.Helper()
		m := parse(t, strings.Replace(tmpl, "FIELDS", fields, 1))
		p := expand(t, m, fakeTarget{}).Types[1].Opaque
		if p.Record == nil || len(p.Record.Fields) != len(wantNames) {
			t.Fatalf("record not expanded: %+v", p.Record)
		}
		var projects, ctorTypes []string
		for _, f := range p.Record.Fields {
			projects = append(projects, f.Project.Name)
			if f.Project.Params[1].Type != (cSpelling{}).Ptr(f.Type.Foreign) {
				t.Errorf("projection %s writes %q, field type is %q", f.Name, f.Project.Params[1].Type, f.Type.Foreign)
			}
		}
		for _, prm := range p.Record.New.Params[2:] {
			ctorTypes = append(ctorTypes, prm.Type)
		}
		if !reflect.DeepEqual(projects, wantNames) {
			t.Errorf("projections = %v, want %v", projects, wantNames)
		}
		if !reflect.DeepEqual(ctorTypes, wantTypes) {
			t.Errorf("constructor params = %v, want %v", ctorTypes, wantTypes)
		}
	}

	check(a+","+b, []string{"project_xs", "project_n"}, []string{"struct futhark_f32_1d *", "int32_t"})
	check(b+","+a, []string{"project_n", "project_xs"}, []string{"int32_t", "struct futhark_f32_1d *"})
}

func TestRecordFieldsReferenceResolvedTypes(t *testing.T) {
	x := expand(t, parse(t, recordsManifest), fakeTarget{})
	summary := x.Types[3].Opaque
	if summary.Name != "summary" || summary.Record == nil {
		t.Fatalf("unexpected plan order: %q", summary.Name)
	}
	values := summary.Record.Fields[0].Type
	arr := x.Types[1].Array.Type
	if values != arr {
		t.Fatalf("field type is not the registered array: %p vs %p", values, arr)
	}
	if summary.Record.Fields[2].Type != x.Types[2].Opaque.Type {
		t.Fatalf("field type is not the registered opaque")
	}
	if summary.Record.Fields[1].Type.Kind != KindScalar {
		t.Fatalf("scalar field resolved as %v", summary.Record.Fields[1].Type.Kind)
	}
}

func TestOpaqueWithoutRecord(t *testing.T) {
	x := expand(t, parse(t, recordsManifest), fakeTarget{})
	state := x.Types[2].Opaque
	if state.Record != nil {
		t.Fatalf("state must not have a record")
	}
	ds := state.Decls()
	if len(ds) != 1 || ds[0].Name != "futhark_free_opaque_state" {
		t.Fatalf("declarations = %+v", ds)
	}
	if strings.Contains(x.TypeWrappers[2].Impl, "{") {
		t.Fatalf("wrapper lists fields: %q", x.TypeWrappers[2].Impl)
	}
}

func TestEntryDeclarationShape(t *testing.T) {
	m := parse(t, recordsManifest)
	x := expand(t, m, fakeTarget{})

	for i, p := range x.Entries {
		e := m.Entries[i].Entry
		if got, want := len(p.CFun.Params), 1+len(e.Outputs)+len(e.Inputs); got != want {
			t.Errorf("%s: %d params, want %d", p.Name, got, want)
		}
		if p.CFun.Params[0].Type != "struct futhark_context *" || p.CFun.Ret != "int" {
			t.Errorf("%s: bad context or status: %+v", p.Name, p.CFun)
		}
		for j := range e.Outputs {
			prm := p.CFun.Params[1+j]
			if prm.Type != (cSpelling{}).Ptr(p.Outputs[j].Type.Foreign) {
				t.Errorf("%s: output %d passed as %q", p.Name, j, prm.Type)
			}
		}
		for j := range e.Inputs {
			prm := p.CFun.Params[1+len(e.Outputs)+j]
			if prm.Type != p.Inputs[j].Type.Foreign {
				t.Errorf("%s: input %d passed as %q", p.Name, j, prm.Type)
			}
		}
		if len(p.Outputs) != len(e.Outputs) {
			t.Errorf("%s: %d outputs planned", p.Name, len(p.Outputs))
		}
	}

	if got := x.EntryWrappers[0].Impl; got != "entry mean(Opaque_summary) -> float64\n" {
		t.Errorf("single output must be unwrapped: %q", got)
	}
	if got := x.EntryWrappers[1].Impl; got != "entry reset(Opaque_state) -> ()\n" {
		t.Errorf("zero outputs must return unit: %q", got)
	}
	if got := x.EntryWrappers[2].Impl; got != "entry stats(Array_f64_2d, int64) -> (Array_f64_1d, float64, Opaque_summary)\n" {
		t.Errorf("stats wrapper = %q", got)
	}
}

func TestMarshalConventions(t *testing.T) {
	x := expand(t, parse(t, recordsManifest), fakeTarget{})
	stats := x.Entries[2]

	want := []struct {
		slot  Slot
		adopt Adopt
	}{{SlotHandle, AdoptArray}, {SlotScalar, AdoptRead}, {SlotHandle, AdoptOpaque}}
	for i, v := range stats.Outputs {
		if SlotOf(v.Type) != want[i].slot || AdoptOf(v.Type) != want[i].adopt {
			t.Errorf("output %d: slot %v adopt %v", i, SlotOf(v.Type), AdoptOf(v.Type))
		}
	}
	if PassOf(stats.Inputs[0].Type) != PassHandle || PassOf(stats.Inputs[1].Type) != PassValue {
		t.Errorf("input conventions wrong")
	}
	if !x.Entries[1].Inputs[0].Unique {
		t.Errorf("unique flag lost")
	}
}

func TestUnresolvedReference(t *testing.T) {
	m := parse(t, `{"entry_points": {"f": {"cfun": "f", "inputs": [{"type": "ghost"}], "outputs": []}}}`)
	_, err := Expand(context.Background(), m, fakeTarget{})
	if !errors.Is(err, &Error{Phase: PhaseExpand, Kind: KindUnresolvedType}) {
		t.Fatalf("got %v, want unresolved type error", err)
	}
	var be *Error
	if !errors.As(err, &be) || be.Subject != `entry_points["f"].inputs[0].type` {
		t.Fatalf("subject = %+v", be)
	}
}

func TestKnobFor(t *testing.T) {
	cases := map[manifest.Backend]Knob{
		manifest.BackendMulticore: KnobThreads,
		manifest.BackendISPC:      KnobThreads,
		manifest.BackendCUDA:      KnobDevice,
		manifest.BackendOpenCL:    KnobDevice,
		manifest.BackendHIP:       KnobDevice,
		manifest.BackendC:         KnobNone,
		manifest.BackendPython:    KnobNone,
		"quantum":                 KnobNone,
	}
	for b, want := range cases {
		if got := KnobFor(b); got != want {
			t.Errorf("KnobFor(%q) = %v, want %v", b, got, want)
		}
	}
}

func TestKnobSwitchOnlyChangesLifecycle(t *testing.T) {
	device := expand(t, parse(t, recordsManifest), fakeTarget{raw: true})
	threads := expand(t, parse(t, strings.Replace(recordsManifest, `"cuda"`, `"multicore"`, 1)), fakeTarget{raw: true})

	if !reflect.DeepEqual(device.TypeDecls, threads.TypeDecls) ||
		!reflect.DeepEqual(device.TypeWrappers, threads.TypeWrappers) ||
		!reflect.DeepEqual(device.EntryDecls, threads.EntryDecls) ||
		!reflect.DeepEqual(device.EntryWrappers, threads.EntryWrappers) {
		t.Fatalf("type or entry output depends on the backend")
	}

	n := len(device.LifecycleDecls)
	if n != len(threads.LifecycleDecls) {
		t.Fatalf("lifecycle lengths differ")
	}
	if !reflect.DeepEqual(device.LifecycleDecls[:n-1], threads.LifecycleDecls[:n-1]) {
		t.Fatalf("shared lifecycle declarations differ")
	}
	if !strings.Contains(device.LifecycleDecls[n-1], "set_device(") ||
		!strings.Contains(threads.LifecycleDecls[n-1], "set_num_threads(") {
		t.Fatalf("knobs: %q / %q", device.LifecycleDecls[n-1], threads.LifecycleDecls[n-1])
	}

	plain := expand(t, parse(t, strings.Replace(recordsManifest, `"cuda"`, `"c"`, 1)), fakeTarget{raw: true})
	if len(plain.LifecycleDecls) != n-1 {
		t.Fatalf("backend without knob still declares one")
	}
}

func TestLifecycleDeclsRenderEmptyParams(t *testing.T) {
	ds := LifecycleDecls(cSpelling{}, KnobNone)
	if ds[0].Name != "futhark_context_config_new" || len(ds[0].Params) != 0 {
		t.Fatalf("first lifecycle decl = %+v", ds[0])
	}
	if got := (fakeTarget{}).RenderDecl(ds[0]); got != "struct futhark_context_config * futhark_context_config_new(void);\n" {
		t.Fatalf("rendered %q", got)
	}
	if ds[len(ds)-1].Name != "free" {
		t.Fatalf("last lifecycle decl = %s", ds[len(ds)-1].Name)
	}
}
