package golang

import (
	"bytes"
	_ "embed"
	"fmt"
	"go/format"
	"go/token"
	"text/template"

	"fbind/internal/bindgen"
	runtimeembed "fbind/runtime"
)

//go:embed prelude.go.tmpl
var preludeSrc string

var prelude = template.Must(template.New("prelude.go").Parse(preludeSrc))

// DefaultPackage names the generated package when no option sets one.
const DefaultPackage = "futhark"

type preludeData struct {
	Backend string
	Knob    string
	Package string
	Library string
	Imports []string
}

// Assemble lays out a single .go artifact: the cgo preamble with struct tags
// and every prototype, the runtime support, the Context, the wrappers in
// manifest order and the entry points as Context methods. The result is
// gofmt-formatted; a formatting failure is an assembly error.
func (Target) Assemble(x *bindgen.Expansion, opts bindgen.Options) ([]bindgen.Artifact, error) {
	data := preludeData{
		Backend: string(x.Backend),
		Knob:    x.Knob.String(),
		Package: opts.Package,
		Library: opts.Library,
		Imports: runtimeembed.GoSupportImports,
	}
	if data.Backend == "" {
		data.Backend = "unspecified"
	}
	if data.Package == "" {
		data.Package = DefaultPackage
	}
	if !token.IsIdentifier(data.Package) {
		return nil, fmt.Errorf("invalid Go package name %q", data.Package)
	}

	var buf bytes.Buffer
	if err := prelude.ExecuteTemplate(&buf, "head", data); err != nil {
		return nil, err
	}
	for _, tp := range x.Types {
		fmt.Fprintf(&buf, "struct %s;\n", typeOf(tp).CTag)
	}
	buf.WriteString("\n")
	for _, d := range x.LifecycleDecls {
		buf.WriteString(d)
	}
	for _, d := range x.TypeDecls {
		buf.WriteString(d)
	}
	for _, d := range x.EntryDecls {
		buf.WriteString(d)
	}
	if err := prelude.ExecuteTemplate(&buf, "imports", data); err != nil {
		return nil, err
	}
	buf.WriteString("\n")
	buf.WriteString(runtimeembed.GoSupport())
	buf.WriteString("\n")
	if err := prelude.ExecuteTemplate(&buf, "context", data); err != nil {
		return nil, err
	}
	for _, f := range x.TypeWrappers {
		buf.WriteString("\n")
		buf.WriteString(f.Impl)
	}
	for _, f := range x.EntryWrappers {
		buf.WriteString("\n")
		buf.WriteString(f.Impl)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format generated Go: %w", err)
	}
	return []bindgen.Artifact{{Suffix: ".go", Content: src}}, nil
}

func typeOf(tp bindgen.TypePlan) *bindgen.Resolved {
	if tp.Array != nil {
		return tp.Array.Type
	}
	return tp.Opaque.Type
}
