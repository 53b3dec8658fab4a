package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"fbind/internal/backend"
	"fbind/internal/bindgen"
	"fbind/internal/manifest"
)

var inspectLang string

func init() {
	inspectCmd.Flags().StringVar(&inspectLang, "lang", "rust", "target whose wrapper names are shown")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest>",
	Short: "Show the types and entry points of a manifest",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

const defaultTableWidth = 100

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7"))
	titleStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

func runInspect(cmd *cobra.Command, args []string) error {
	t, err := backend.Lookup(inspectLang)
	if err != nil {
		return err
	}
	m, _, err := manifest.LoadFile(args[0])
	if err != nil {
		return bindgen.NewError(bindgen.PhaseLoad, bindgen.KindIO).Subject(args[0]).Cause(err).Build()
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	diags, err := bindgen.Validate(ctx, m)
	if err != nil {
		var be *bindgen.Error
		if errors.As(err, &be) {
			printDiagnostics(cmd.ErrOrStderr(), be.Diagnostics)
		}
		return err
	}
	printDiagnostics(cmd.ErrOrStderr(), diags)

	x, err := bindgen.Expand(ctx, m, t)
	if err != nil {
		return err
	}
	renderInspect(cmd.OutOrStdout(), x, t.Lang(), terminalWidth())
	return nil
}

func terminalWidth() int {
	if !isTerminal(os.Stdout) {
		return defaultTableWidth
	}
	w, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || w <= 0 {
		return defaultTableWidth
	}
	return w
}

func renderInspect(out io.Writer, x *bindgen.Expansion, lang string, width int) {
	backendName := string(x.Backend)
	if backendName == "" {
		backendName = "unknown"
	}
	fmt.Fprintf(out, "backend %s, version %s, %s names\n\n", backendName, valueOrUnknown(x.Version), lang)

	typeRows := make([][]string, 0, len(x.Types))
	for _, tp := range x.Types {
		typeRows = append(typeRows, typeRow(tp))
	}
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("types (%d)", len(typeRows))))
	fmt.Fprint(out, renderTable([]string{"NAME", "KIND", "LAYOUT", "WRAPPER", "C TAG"}, typeRows, width))

	entryRows := make([][]string, 0, len(x.Entries))
	for _, ep := range x.Entries {
		entryRows = append(entryRows, []string{
			ep.Name,
			ep.CFun.Name,
			valueList(ep.Inputs),
			valueList(ep.Outputs),
		})
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("entry points (%d)", len(entryRows))))
	fmt.Fprint(out, renderTable([]string{"NAME", "C FUNCTION", "INPUTS", "OUTPUTS"}, entryRows, width))
}

func typeRow(tp bindgen.TypePlan) []string {
	if a := tp.Array; a != nil {
		return []string{a.Name, "array", fmt.Sprintf("[%d]%s", a.Type.Rank, a.Type.Elem), a.Type.Host, a.Type.CTag}
	}
	o := tp.Opaque
	if o.Record == nil {
		return []string{o.Name, "opaque", "-", o.Type.Host, o.Type.CTag}
	}
	fields := make([]string, len(o.Record.Fields))
	for i, f := range o.Record.Fields {
		fields[i] = f.Name + ": " + f.Type.Name
	}
	return []string{o.Name, "record", "{" + strings.Join(fields, ", ") + "}", o.Type.Host, o.Type.CTag}
}

func valueList(vs []*bindgen.Value) string {
	if len(vs) == 0 {
		return "-"
	}
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.Type.Name
		if v.Unique {
			parts[i] = "*" + parts[i]
		}
	}
	return strings.Join(parts, ", ")
}

// renderTable lays rows out in columns that fit width, truncating the
// widest columns first.
func renderTable(headers []string, rows [][]string, width int) string {
	if len(rows) == 0 {
		return "  (none)\n"
	}
	widths := columnWidths(headers, rows, width)

	var b strings.Builder
	cells := make([]string, len(headers))
	for i, h := range headers {
		cells[i] = runewidth.FillRight(truncate(h, widths[i]), widths[i])
	}
	b.WriteString("  ")
	b.WriteString(headerStyle.Render(strings.TrimRight(strings.Join(cells, "  "), " ")))
	b.WriteByte('\n')
	for _, row := range rows {
		for i := range headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			cells[i] = runewidth.FillRight(truncate(cell, widths[i]), widths[i])
		}
		b.WriteString("  ")
		b.WriteString(strings.TrimRight(strings.Join(cells, "  "), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

const minColumnWidth = 6

func columnWidths(headers []string, rows [][]string, width int) []int {
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for i := range headers {
			if i < len(row) {
				widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
			}
		}
	}

	// two spaces of indent plus two between columns
	budget := width - 2 - 2*(len(headers)-1)
	for sum(widths) > budget {
		widest := 0
		for i, w := range widths {
			if w > widths[widest] {
				widest = i
			}
		}
		if widths[widest] <= minColumnWidth {
			break
		}
		widths[widest]--
	}
	return widths
}

func sum(xs []int) int {
	n := 0
	for _, x := range xs {
		n += x
	}
	return n
}

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
