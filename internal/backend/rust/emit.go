package rust

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"fbind/internal/bindgen"
)

//go:embed prelude.rs.tmpl
var preludeSrc string

var prelude = template.Must(template.New("prelude.rs").Parse(preludeSrc))

type preludeData struct {
	Backend string
	Knob    string
}

// Assemble lays out a single .rs artifact: prelude, lifecycle declarations,
// then per type its declarations and wrapper, then the entry points as
// methods of Context.
func (Target) Assemble(x *bindgen.Expansion, _ bindgen.Options) ([]bindgen.Artifact, error) {
	var buf bytes.Buffer
	data := preludeData{Backend: string(x.Backend), Knob: x.Knob.String()}
	if data.Backend == "" {
		data.Backend = "unspecified"
	}
	if err := prelude.Execute(&buf, data); err != nil {
		return nil, err
	}

	w := bindgen.NewWriter("    ")
	w.Line("")
	externBlock(w, x.LifecycleDecls...)
	for i := range x.Types {
		w.Line("")
		externBlock(w, x.TypeDecls[i])
		w.Line("")
		w.Raw(x.TypeWrappers[i].Impl)
	}
	if len(x.Entries) > 0 {
		w.Line("")
		externBlock(w, x.EntryDecls...)
		w.Line("")
		w.Line("impl Context {")
		for i, e := range x.EntryWrappers {
			if i > 0 {
				w.Line("")
			}
			w.Raw(e.Impl)
		}
		w.Line("}")
	}
	buf.WriteString(w.String())
	return []bindgen.Artifact{{Suffix: ".rs", Content: buf.Bytes()}}, nil
}

func externBlock(w *bindgen.Writer, decls ...string) {
	w.Line("#[allow(unused)]")
	w.Line(`extern "C" {`)
	for _, d := range decls {
		w.Raw(d)
	}
	w.Line("}")
}

// Format runs rustfmt over the artifact.
func (Target) Format(ctx context.Context, a bindgen.Artifact) (bindgen.Artifact, error) {
	out, err := bindgen.RunFormatter(ctx, a.Content, "rustfmt", "--edition", "2021", "--emit", "stdout")
	if err != nil {
		return a, err
	}
	a.Content = out
	return a, nil
}
