package rust

import (
	"context"
	"strings"
	"testing"

	"fbind/internal/bindgen"
	"fbind/internal/manifest"
)

func generate(t *testing.T, m *manifest.Manifest) string {
	t.Helper()
	res, err := bindgen.Generate(context.Background(), m, New(), bindgen.Options{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(res.Artifacts) != 1 || res.Artifacts[0].Suffix != ".rs" {
		t.Fatalf("artifacts = %+v", res.Artifacts)
	}
	return string(res.Artifacts[0].Content)
}

func load(t *testing.T, path string) *manifest.Manifest {
	t.Helper()
	m, _, err := manifest.LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return m
}

func section(t *testing.T, src, from, to string) string {
	t.Helper()
	i := strings.Index(src, from)
	if i < 0 {
		t.Fatalf("missing %q", from)
	}
	j := strings.Index(src[i:], to)
	if j < 0 {
		t.Fatalf("missing %q after %q", to, from)
	}
	return src[i : i+j]
}

func TestRecordsManifest(t *testing.T) {
	out := generate(t, load(t, "../../manifest/testdata/records.json"))

	want := []string{
		"pub struct ArrayF64D1<'a> {",
		"pub struct futhark_f64_2d {",
		"    fn futhark_new_f64_1d(ctx: *mut futhark_context, data: *const f64, dim0: i64) -> *mut futhark_f64_1d;",
		"    fn futhark_new_raw_f64_2d(ctx: *mut futhark_context, data: *const u8, offset: i64, dim0: i64, dim1: i64) -> *mut futhark_f64_2d;",
		"    fn futhark_shape_f64_2d(ctx: *mut futhark_context, arr: *mut futhark_f64_2d) -> *const i64;",
		"    fn futhark_entry_stats(ctx: *mut futhark_context, out0: *mut *mut futhark_f64_1d, out1: *mut f64, out2: *mut *mut futhark_opaque_summary, in0: *mut futhark_f64_2d, in1: i64) -> c_int;",
		"    fn futhark_context_config_set_device(cfg: *mut futhark_context_config, device: *const c_char);",
		"pub fn stats<'a>(&'a self, xs: &ArrayF64D2<'a>, n: i64) -> Result<(ArrayF64D1<'a>, f64, Summary<'a>), Error> {",
		"pub fn mean<'a>(&'a self, s: &Summary<'a>) -> Result<f64, Error> {",
		"pub fn reset<'a>(&'a self, s: &State<'a>) -> Result<(), Error> {",
		"pub fn new(ctx: &'a Context, values: &ArrayF64D1<'a>, count: i32, inner: &State<'a>) -> Result<Self, Error> {",
		"check(unsafe { futhark_new_opaque_summary(ctx.context, &mut out, values.ptr, count, inner.ptr) })?;",
		"pub fn get_values(&self) -> Result<ArrayF64D1<'a>, Error> {",
		"pub fn get_count(&self) -> Result<i32, Error> {",
		"let v0 = unsafe { ArrayF64D1::from_raw(self, out0) };",
		"Ok((v0?, out1, v2?))",
		"pub device: Option<CString>,",
		"futhark_context_config_set_device(config, device.as_ptr());",
	}
	for _, s := range want {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q", s)
		}
	}
	if strings.Contains(out, "num_threads") {
		t.Errorf("device backend must not expose a thread knob")
	}
	if strings.Count(out, "{") != strings.Count(out, "}") {
		t.Errorf("unbalanced braces")
	}
}

func TestOpaqueWithoutRecord(t *testing.T) {
	out := generate(t, load(t, "../../manifest/testdata/records.json"))
	state := section(t, out, "impl<'a> State<'a> {", "impl Drop for State<'_>")
	if strings.Contains(state, "pub fn new(") || strings.Contains(state, "pub fn get_") {
		t.Fatalf("state wrapper has a constructor or accessors:\n%s", state)
	}
	if !strings.Contains(state, "pub unsafe fn from_raw(ctx: &'a Context, ptr: *mut futhark_opaque_state)") {
		t.Fatalf("state wrapper lacks raw adopt:\n%s", state)
	}
	if !strings.Contains(out, "unsafe { futhark_free_opaque_state(self.ctx.context, self.ptr); }") {
		t.Fatalf("state is never released")
	}
}

func TestThreadKnobAndZeroRank(t *testing.T) {
	m, err := manifest.Parse([]byte(`{"backend": "multicore",
		"types": {"box": {"kind": "array", "elemtype": "i32", "rank": 0}},
		"entry_points": {"type": {"cfun": "futhark_entry_type",
			"inputs": [{"name": "type", "type": "box"}], "outputs": [{"type": "box"}]}}}`))
	if err != nil {
		t.Fatal(err)
	}
	out := generate(t, m)

	for _, s := range []string{
		"pub num_threads: Option<u32>,",
		"futhark_context_config_set_num_threads(config, n as c_int);",
		"let shape = [0i64; 0];",
		"let ptr = unsafe { futhark_new_i32_0d(ctx.context, data.as_ptr()) };",
		"pub fn type_<'a>(&'a self, type_: &ArrayI32D0<'a>) -> Result<ArrayI32D0<'a>, Error> {",
	} {
		if !strings.Contains(out, s) {
			t.Errorf("output lacks %q", s)
		}
	}
	if strings.Contains(out, "pub device") {
		t.Errorf("thread backend must not expose a device knob")
	}
}

func TestNames(t *testing.T) {
	n := New().ArrayNames(manifest.U8, 3, "futhark_u8_3d")
	if n.Module != "ArrayU8D3" || n.Host != "ArrayU8D3<'a>" || n.Foreign != "*mut futhark_u8_3d" {
		t.Fatalf("array names = %+v", n)
	}
	if got := New().OpaqueNames("context", "futhark_opaque_context").Module; got != "Context_" {
		t.Fatalf("opaque named context = %q", got)
	}
	if got := New().OpaqueNames("3d_point", "futhark_opaque_3d_point").Module; !strings.HasPrefix(got, "Opaque3") || !strings.HasSuffix(got, "Point") {
		t.Fatalf("opaque with leading digit = %q", got)
	}
}
