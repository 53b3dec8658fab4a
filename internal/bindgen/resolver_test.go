package bindgen

import (
	"errors"
	"reflect"
	"testing"

	"fbind/internal/manifest"
)

func TestResolverSeedsPrimitives(t *testing.T) {
	r := NewResolver(fakeTarget{}.Tables())

	if got := r.Resolve(TableForeign, "f32"); got != "float" {
		t.Errorf("foreign f32 = %q", got)
	}
	if got := r.Resolve(TableHost, "u16"); got != "u16" {
		t.Errorf("missing table entry must fall back to the name, got %q", got)
	}
	if got := r.Resolve(TableBulk, "nonsense"); got != "nonsense" {
		t.Errorf("unknown id = %q", got)
	}
	rt, err := r.Lookup("x", "f64")
	if err != nil || rt.Kind != KindScalar || rt.Host != "float64" || rt.Bulk != "F64" {
		t.Fatalf("f64 = %+v, %v", rt, err)
	}
}

func TestResolverRegister(t *testing.T) {
	r := NewResolver(Tables{})
	if _, err := r.Lookup(`types["b"]`, "[]f32"); !errors.Is(err, &Error{Phase: PhaseExpand, Kind: KindUnresolvedType}) {
		t.Fatalf("lookup before register: %v", err)
	}

	arr := &Resolved{Kind: KindArray, Name: "[]f32", Names: Names{Host: "ArrayF32D1", Foreign: "*mut futhark_f32_1d"}, Elem: manifest.F32, Rank: 1}
	r.Register("[]f32", arr)
	r.Register("state", &Resolved{Kind: KindOpaque, Name: "state", Names: Names{Host: "State", Foreign: "*mut futhark_opaque_state"}})

	got, err := r.Lookup("x", "[]f32")
	if err != nil || got != arr {
		t.Fatalf("lookup after register: %v %v", got, err)
	}
	if r.Resolve(TableHost, "[]f32") != "ArrayF32D1" || r.Resolve(TableForeign, "state") != "*mut futhark_opaque_state" {
		t.Fatalf("tables not updated")
	}
	if !reflect.DeepEqual(r.Registered(), []string{"[]f32", "state"}) {
		t.Fatalf("registered = %v", r.Registered())
	}
}

func TestNames(t *testing.T) {
	cases := []struct {
		fn       func(string) string
		in, want string
	}{
		{Ident, "[]f32", "f32"},
		{Ident, "my-type.x", "my_type_x"},
		{Ident, "__", "x"},
		{Pascal, "my_entry", "MyEntry"},
		{Pascal, "sum", "Sum"},
		{FirstUpper, "array_f32_1d", "Array_f32_1d"},
		{FirstUpper, "", ""},
	}
	for _, c := range cases {
		if got := c.fn(c.in); got != c.want {
			t.Errorf("f(%q) = %q, want %q", c.in, got, c.want)
		}
	}
	if got := Unclash("type", map[string]bool{"type": true, "type_": true}); got != "type__" {
		t.Errorf("Unclash = %q", got)
	}
	if got := LeadingLetter("1d", "T"); got != "T1d" {
		t.Errorf("LeadingLetter = %q", got)
	}
}
