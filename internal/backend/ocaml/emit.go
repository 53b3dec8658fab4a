package ocaml

import (
	"bytes"
	"context"
	_ "embed"
	"text/template"

	"fbind/internal/bindgen"
)

var (
	//go:embed prelude.ml.tmpl
	implSrc string
	//go:embed prelude.mli.tmpl
	ifaceSrc string
)

var (
	implPrelude  = template.Must(template.New("prelude.ml").Parse(implSrc))
	ifacePrelude = template.Must(template.New("prelude.mli").Parse(ifaceSrc))
)

type preludeData struct {
	Backend string
	Knob    string
}

// Assemble lays out the .ml and .mli artifacts. All native declarations go
// into one Bindings module ahead of the context; wrapper modules follow in
// manifest order and entry points close the file as the Entry module.
func (Target) Assemble(x *bindgen.Expansion, _ bindgen.Options) ([]bindgen.Artifact, error) {
	data := preludeData{Backend: string(x.Backend), Knob: x.Knob.String()}
	if data.Backend == "" {
		data.Backend = "unspecified"
	}

	var ml bytes.Buffer
	if err := implPrelude.ExecuteTemplate(&ml, "head", data); err != nil {
		return nil, err
	}
	w := bindgen.NewWriter("  ")
	for _, d := range x.LifecycleDecls {
		w.Raw(d)
	}
	for i, tp := range x.Types {
		rt := typeOf(tp)
		w.Line("")
		w.Line("  let %s = typedef (ptr void) %q", rt.Foreign, "struct "+rt.CTag)
		w.Raw(x.TypeDecls[i])
	}
	if len(x.EntryDecls) > 0 {
		w.Line("")
		for _, d := range x.EntryDecls {
			w.Raw(d)
		}
	}
	w.Line("end")
	w.Line("")
	ml.WriteString(w.String())
	if err := implPrelude.ExecuteTemplate(&ml, "context", data); err != nil {
		return nil, err
	}

	var mli bytes.Buffer
	if err := ifacePrelude.Execute(&mli, data); err != nil {
		return nil, err
	}

	for i := range x.Types {
		ml.WriteString("\n")
		ml.WriteString(x.TypeWrappers[i].Impl)
		mli.WriteString("\n")
		mli.WriteString(x.TypeWrappers[i].Iface)
	}

	if len(x.EntryWrappers) > 0 {
		ml.WriteString("\nmodule Entry = struct\n")
		mli.WriteString("\nmodule Entry : sig\n")
		for i, e := range x.EntryWrappers {
			if i > 0 {
				ml.WriteString("\n")
				mli.WriteString("\n")
			}
			ml.WriteString(e.Impl)
			mli.WriteString(e.Iface)
		}
		ml.WriteString("end\n")
		mli.WriteString("end\n")
	}

	return []bindgen.Artifact{
		{Suffix: ".ml", Content: ml.Bytes()},
		{Suffix: ".mli", Content: mli.Bytes()},
	}, nil
}

func typeOf(tp bindgen.TypePlan) *bindgen.Resolved {
	if tp.Array != nil {
		return tp.Array.Type
	}
	return tp.Opaque.Type
}

// Format runs ocamlformat over the artifact.
func (Target) Format(ctx context.Context, a bindgen.Artifact) (bindgen.Artifact, error) {
	kind := "--impl"
	if a.Suffix == ".mli" {
		kind = "--intf"
	}
	out, err := bindgen.RunFormatter(ctx, a.Content, "ocamlformat", "--enable-outside-detected-project", kind, "-")
	if err != nil {
		return a, err
	}
	a.Content = out
	return a, nil
}
