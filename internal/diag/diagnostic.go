package diag

// Note attaches secondary context to a diagnostic.
type Note struct {
	Subject string
	Msg     string
}

// Diagnostic is a single finding about a manifest. Subject is a path into the
// manifest document, e.g. `types["foo"].record.fields[1]`.
type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Subject  string
	Notes    []Note
}
