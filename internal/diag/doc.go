// Package diag defines the diagnostic model used by manifest validation.
//
// Diagnostic is the central record:
//
//   - Severity – tri-level enum (Info, Warning, Error) defined in severity.go.
//   - Code – compact numeric identifier (see codes.go) with stable string form.
//   - Message – human oriented text; keep it short and actionable.
//   - Subject – path of the offending manifest element.
//   - Notes – optional secondary subjects/messages.
//
// Producers report through a Reporter (usually BagReporter) and the CLI renders
// the collected Bag with FormatShort.
package diag
