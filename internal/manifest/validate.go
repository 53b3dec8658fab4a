package manifest

import (
	"fmt"

	"fbind/internal/diag"
)

// Validate reports every violation of the manifest invariants to r and
// returns true when no error-severity diagnostic was produced.
//
// Type references are checked in iteration order: a record field may only
// name a primitive or a type that precedes the record, because bindings are
// expanded in a single ordered pass.
func Validate(m *Manifest, r diag.Reporter) bool {
	v := validator{
		r:        r,
		declared: make(map[string]int, len(m.Types)),
		arrays:   make(map[arrayShape]string),
	}
	for i, nt := range m.Types {
		v.declared[nt.Name] = i
	}

	if !m.Backend.Known() {
		diag.ReportInfo(r, diag.ManUnknownBackend, "backend",
			fmt.Sprintf("backend %q is not recognized; no configuration knob will be generated", m.Backend)).Emit()
	}

	for i, nt := range m.Types {
		v.checkType(i, nt)
	}
	for _, ne := range m.Entries {
		v.checkEntry(ne)
	}
	if len(m.Entries) == 0 {
		diag.ReportInfo(r, diag.ManNoEntries, "entry_points", "manifest declares no entry points").Emit()
	}
	return !v.failed
}

type validator struct {
	r        diag.Reporter
	declared map[string]int
	arrays   map[arrayShape]string
	failed   bool
}

// arrayShape identifies the wrapper and native functions of an array type.
// Every target derives them from element type and rank alone.
type arrayShape struct {
	elem ElemType
	rank uint32
}

func (v *validator) errorf(code diag.Code, subject, format string, args ...any) *diag.ReportBuilder {
	v.failed = true
	return diag.ReportError(v.r, code, subject, fmt.Sprintf(format, args...))
}

func (v *validator) checkType(idx int, nt NamedType) {
	subject := fmt.Sprintf("types[%q]", nt.Name)
	if nt.Name == "" {
		v.errorf(diag.ManEmptyName, subject, "type name is empty").Emit()
	}
	if _, ok := ParseElemType(nt.Name); ok {
		v.errorf(diag.ManShadowsPrimitive, subject, "type %q has the name of a primitive element type", nt.Name).Emit()
	}

	switch t := nt.Type.(type) {
	case *ArrayType:
		if _, ok := ParseElemType(string(t.Elem)); !ok {
			v.errorf(diag.ManBadElemType, subject+".elemtype", "unsupported element type %q", t.Elem).
				WithNote(subject, "supported: i8 i16 i32 i64 u8 u16 u32 u64 f32 f64").
				Emit()
		}
		key := arrayShape{elem: t.Elem, rank: t.Rank}
		if prev, dup := v.arrays[key]; dup {
			v.errorf(diag.ManDuplicateArray, subject, "array types %q and %q are both rank %d arrays of %s", prev, nt.Name, t.Rank, t.Elem).
				WithNote(fmt.Sprintf("types[%q]", prev), "first declared here").
				Emit()
		} else {
			v.arrays[key] = nt.Name
		}
	case *OpaqueType:
		if t.Free == "" {
			v.errorf(diag.ManMissingFunction, subject+".ops.free", "opaque type has no free function").Emit()
		}
		if t.Record == nil {
			return
		}
		v.checkRecord(idx, subject+".record", t.Record)
	}
}

func (v *validator) checkRecord(idx int, subject string, rec *Record) {
	if rec.New == "" {
		v.errorf(diag.ManMissingFunction, subject+".new", "record has no constructor function").Emit()
	}
	if len(rec.Fields) == 0 {
		diag.ReportWarning(v.r, diag.ManEmptyRecord, subject, "record declares no fields").Emit()
	}
	seen := make(map[string]int, len(rec.Fields))
	for i, f := range rec.Fields {
		fs := fmt.Sprintf("%s.fields[%d]", subject, i)
		if f.Name == "" {
			v.errorf(diag.ManEmptyName, fs, "field name is empty").Emit()
		} else if prev, dup := seen[f.Name]; dup {
			v.errorf(diag.ManDuplicateField, fs, "field %q repeats fields[%d]", f.Name, prev).Emit()
		} else {
			seen[f.Name] = i
		}
		if f.Project == "" {
			v.errorf(diag.ManMissingFunction, fs+".project", "field %q has no projection function", f.Name).Emit()
		}
		v.checkRef(fs+".type", f.Type, idx)
	}
}

func (v *validator) checkEntry(ne NamedEntry) {
	subject := fmt.Sprintf("entry_points[%q]", ne.Name)
	if ne.Name == "" {
		v.errorf(diag.ManEmptyName, subject, "entry point name is empty").Emit()
	}
	if ne.Entry.CFun == "" {
		v.errorf(diag.ManMissingFunction, subject+".cfun", "entry point has no C function").Emit()
	}
	for i, p := range ne.Entry.Inputs {
		v.checkRef(fmt.Sprintf("%s.inputs[%d].type", subject, i), p.Type, len(v.declared))
	}
	for i, p := range ne.Entry.Outputs {
		v.checkRef(fmt.Sprintf("%s.outputs[%d].type", subject, i), p.Type, len(v.declared))
	}
}

// checkRef verifies that ref names a primitive or a type declared before position limit.
func (v *validator) checkRef(subject, ref string, limit int) {
	if _, ok := ParseElemType(ref); ok {
		return
	}
	pos, ok := v.declared[ref]
	if !ok {
		v.errorf(diag.ManUnresolvedTypeRef, subject, "unresolved type reference %q", ref).Emit()
		return
	}
	if pos >= limit {
		v.errorf(diag.ManForwardTypeRef, subject, "type %q is declared after its first use", ref).
			WithNote(fmt.Sprintf("types[%q]", ref), "declared here").
			Emit()
	}
}
