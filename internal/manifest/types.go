package manifest

import (
	"github.com/roach88/tplcheck/internal/check"
	"github.com/roach88/tplcheck/internal/param"
)

// Template is one template invocation: its name, its arguments, and the
// layer groups that must agree on a layer count.
type Template struct {
	Name   string
	Args   []Arg
	Layers []LayerGroup

	// Source is the file the template was compiled from, if any.
	Source string
}

// Arg is a single named argument with the rules it must satisfy.
type Arg struct {
	Name  string
	Value param.Value
	Rules Rules
}

// Rules lists the checks for one argument. Zero values disable a check.
type Rules struct {
	Types      []param.Kind
	Options    []param.Value
	NoSymbolic bool
	Wires      bool
	Shape      *ShapeRule

	// Message is attached to any failure of this argument.
	Message string
}

// ShapeRule is a target shape and the bound applied to its last dimension.
type ShapeRule struct {
	Dims  check.Shape
	Bound check.Bound
}

// LayerGroup names arguments that together form one layered weight block.
type LayerGroup struct {
	Name string
	Args []string
}

// Arg returns the argument with the given name.
func (t *Template) Arg(name string) (Arg, bool) {
	for _, a := range t.Args {
		if a.Name == name {
			return a, true
		}
	}
	return Arg{}, false
}
