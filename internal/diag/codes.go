package diag

import (
	"fmt"
)

type Code uint16

const (
	UnknownCode Code = 0

	// informational / warnings
	ManInfo           Code = 1000
	ManUnknownBackend Code = 1001
	ManEmptyRecord    Code = 1002
	ManNoEntries      Code = 1003

	// errors
	ManError             Code = 2000
	ManUnresolvedTypeRef Code = 2001
	ManForwardTypeRef    Code = 2002
	ManBadElemType       Code = 2003
	ManMissingFunction   Code = 2004
	ManDuplicateField    Code = 2006
	ManEmptyName         Code = 2007
	ManShadowsPrimitive  Code = 2008
	ManDuplicateArray    Code = 2009

	IOLoadFileError Code = 4001
)

var (
	codeDescription = map[Code]string{
		UnknownCode:          "Unknown error",
		ManInfo:              "Manifest information",
		ManUnknownBackend:    "Unrecognized backend",
		ManEmptyRecord:       "Record declares no fields",
		ManNoEntries:         "Manifest declares no entry points",
		ManError:             "Manifest error",
		ManUnresolvedTypeRef: "Unresolved type reference",
		ManForwardTypeRef:    "Type referenced before its declaration",
		ManBadElemType:       "Unsupported array element type",
		ManMissingFunction:   "Missing native function name",
		ManDuplicateField:    "Duplicate record field",
		ManEmptyName:         "Empty name",
		ManShadowsPrimitive:  "Type name shadows a primitive element type",
		ManDuplicateArray:    "Array types share element type and rank",
		IOLoadFileError:      "I/O load file error",
	}
)

func (c Code) ID() string {
	switch ic := int(c); {
	case ic >= 1000 && ic < 3000:
		return fmt.Sprintf("M%04d", ic)
	case ic >= 4000 && ic < 5000:
		return fmt.Sprintf("IO%04d", ic)
	}
	return "E0000"
}

func (c Code) Title() string {
	desc, ok := codeDescription[c]
	if !ok {
		return codeDescription[Code(0)]
	}
	return desc
}

func (c Code) String() string {
	return fmt.Sprintf("[%s]: %s", c.ID(), c.Title())
}
