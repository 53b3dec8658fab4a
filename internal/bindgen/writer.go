package bindgen

import (
	"fmt"
	"strings"
)

// Writer accumulates generated source, one indented line at a time.
type Writer struct {
	buf   strings.Builder
	unit  string
	depth int
}

// NewWriter returns a Writer indenting by unit per level.
func NewWriter(unit string) *Writer { return &Writer{unit: unit} }

// Line writes one line. Without args format is written verbatim; an empty
// line carries no indentation.
func (w *Writer) Line(format string, args ...any) {
	if format == "" && len(args) == 0 {
		w.buf.WriteByte('\n')
		return
	}
	for i := 0; i < w.depth; i++ {
		w.buf.WriteString(w.unit)
	}
	if len(args) == 0 {
		w.buf.WriteString(format)
	} else {
		fmt.Fprintf(&w.buf, format, args...)
	}
	w.buf.WriteByte('\n')
}

// Open writes a line and indents what follows.
func (w *Writer) Open(format string, args ...any) {
	w.Line(format, args...)
	w.depth++
}

// Close dedents and writes a line.
func (w *Writer) Close(format string, args ...any) {
	if w.depth > 0 {
		w.depth--
	}
	w.Line(format, args...)
}

// Raw appends s unchanged.
func (w *Writer) Raw(s string) { w.buf.WriteString(s) }

func (w *Writer) String() string { return w.buf.String() }

// Depth sets the current indentation level.
func (w *Writer) Depth(n int) { w.depth = n }
