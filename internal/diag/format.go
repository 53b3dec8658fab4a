package diag

import (
	"fmt"
	"strings"
)

// FormatShort renders diagnostics one per line in the order given:
//
//	ERROR M2001 types["foo"].record.fields[0]: unresolved type reference "bar"
//
// Notes follow their diagnostic as `note` lines when includeNotes is set.
func FormatShort(diags []Diagnostic, includeNotes bool) string {
	if len(diags) == 0 {
		return ""
	}
	var b strings.Builder
	for i, d := range diags {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeLine(&b, d.Severity.String(), d.Code.ID(), d.Subject, d.Message)
		if !includeNotes {
			continue
		}
		for _, n := range d.Notes {
			b.WriteByte('\n')
			writeLine(&b, "note", d.Code.ID(), n.Subject, n.Msg)
		}
	}
	return b.String()
}

func writeLine(b *strings.Builder, sev, code, subject, msg string) {
	if subject == "" {
		fmt.Fprintf(b, "%s %s %s", sev, code, sanitizeMessage(msg))
		return
	}
	fmt.Fprintf(b, "%s %s %s: %s", sev, code, subject, sanitizeMessage(msg))
}

func sanitizeMessage(msg string) string {
	msg = strings.ReplaceAll(msg, "\r\n", " ")
	msg = strings.ReplaceAll(msg, "\n", " ")
	return strings.TrimSpace(msg)
}
