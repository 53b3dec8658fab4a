package bindgen

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ident turns a manifest name into an identifier made of ASCII letters,
// digits and underscores. Runs of other characters become one underscore;
// leading and trailing underscores are dropped. An empty result is "x".
func Ident(s string) string {
	var b strings.Builder
	pending := false
	for _, r := range s {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	if b.Len() == 0 {
		return "x"
	}
	return b.String()
}

// FirstUpper upper-cases the first letter of s and leaves the rest alone.
func FirstUpper(s string) string {
	if s == "" {
		return s
	}
	// The caser is stateful and cheap to build; one per call keeps
	// concurrent targets independent.
	return cases.Title(language.Und, cases.NoLower).String(s[:1]) + s[1:]
}

// Pascal joins the underscore-separated words of Ident(s), each title-cased.
func Pascal(s string) string {
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, w := range strings.Split(Ident(s), "_") {
		b.WriteString(caser.String(w))
	}
	return b.String()
}

// Unclash appends an underscore to name while it is in reserved.
func Unclash(name string, reserved map[string]bool) string {
	for reserved[name] {
		name += "_"
	}
	return name
}

// LeadingLetter prefixes s with prefix unless it starts with a letter.
func LeadingLetter(s, prefix string) string {
	if s != "" && unicode.IsLetter(rune(s[0])) {
		return s
	}
	return prefix + s
}
