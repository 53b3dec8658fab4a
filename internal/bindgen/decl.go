package bindgen

// Param is one parameter of a native declaration.
type Param struct {
	Label string
	Type  string
}

// Decl is a native function declaration with target spellings filled in.
// Targets render it; they never build one.
type Decl struct {
	Name   string
	Params []Param
	Ret    string
}

// Declare builds a declaration. A nil params slice is an empty list.
func Declare(name string, ret string, params ...Param) *Decl {
	if params == nil {
		params = []Param{}
	}
	return &Decl{Name: name, Params: params, Ret: ret}
}

// P is shorthand for a Param.
func P(label, typ string) Param { return Param{Label: label, Type: typ} }
