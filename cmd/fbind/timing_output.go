package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"fbind/internal/observ"
)

var slowPhaseColor = color.New(color.FgYellow)

// slowPhaseMS marks phases worth a second look.
const slowPhaseMS = 100.0

// formatTimings renders the timer's phases, highlighting slow ones.
func formatTimings(timer *observ.Timer) string {
	report := timer.Report()
	if len(report.Phases) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString("timings:\n")
	for _, p := range report.Phases {
		line := fmt.Sprintf("  %-24s %7.2f ms", p.Name, p.DurationMS)
		if p.Note != "" {
			line += "  // " + p.Note
		}
		if p.DurationMS >= slowPhaseMS {
			line = slowPhaseColor.Sprint(line)
		}
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "  %-24s %7.2f ms\n", "total", report.TotalMS)
	return sb.String()
}
