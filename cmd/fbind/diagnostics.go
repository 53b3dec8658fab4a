package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"fbind/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.Faint)
)

// diagnosticLines renders ds one line per diagnostic or note, the form
// stored in cache entries.
func diagnosticLines(ds []diag.Diagnostic) []string {
	text := diag.FormatShort(ds, true)
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

func printDiagnostics(w io.Writer, ds []diag.Diagnostic) {
	printDiagnosticLines(w, diagnosticLines(ds))
}

// printDiagnosticLines colours the severity word at the start of each line.
func printDiagnosticLines(w io.Writer, lines []string) {
	for _, line := range lines {
		sev, rest, ok := strings.Cut(line, " ")
		if !ok {
			fmt.Fprintln(w, line)
			continue
		}
		fmt.Fprintf(w, "%s %s\n", severityColor(sev).Sprint(sev), rest)
	}
}

func severityColor(sev string) *color.Color {
	switch sev {
	case diag.SevError.String():
		return errorColor
	case diag.SevWarning.String():
		return warningColor
	case diag.SevInfo.String():
		return infoColor
	default:
		return noteColor
	}
}
