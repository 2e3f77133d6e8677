package manifest

import (
	stderrors "errors"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tplcheck/internal/check"
	"github.com/roach88/tplcheck/internal/param"
)

// CompileError reports a malformed manifest.
// Pos is set for CUE sources, Line for YAML sources.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
	Line    int
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	if e.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", e.Line, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// argKeys are the fields an argument entry may carry.
var argKeys = map[string]bool{
	"value":       true,
	"types":       true,
	"options":     true,
	"no_symbolic": true,
	"wires":       true,
	"shape":       true,
	"bound":       true,
	"message":     true,
}

// rawRules is the decoded, not yet interpreted form of an argument's rules.
// It is shared by the CUE and YAML front ends.
type rawRules struct {
	Types      []string
	Options    []param.Value
	NoSymbolic bool
	Wires      bool
	Shape      []int
	HasShape   bool
	Bound      string
	Message    string
}

// CompileCUE parses a CUE value into a Template. The value should be the
// template struct itself; its label is the template name:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`template: Embedding: { args: { ... } }`)
//	tpl, err := CompileCUE(v.LookupPath(cue.ParsePath("template.Embedding")))
func CompileCUE(v cue.Value) (*Template, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	t := &Template{}
	if sels := v.Path().Selectors(); len(sels) > 0 {
		t.Name = sels[len(sels)-1].Unquoted()
	}

	argsVal := v.LookupPath(cue.ParsePath("args"))
	if !argsVal.Exists() {
		return nil, &CompileError{Field: "args", Message: "args is required", Pos: v.Pos()}
	}
	iter, err := argsVal.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}
	for iter.Next() {
		arg, err := compileCUEArg(iter.Selector().Unquoted(), iter.Value())
		if err != nil {
			return nil, err
		}
		t.Args = append(t.Args, arg)
	}

	layersVal := v.LookupPath(cue.ParsePath("layers"))
	if layersVal.Exists() {
		liter, err := layersVal.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for liter.Next() {
			var names []string
			if err := liter.Value().Decode(&names); err != nil {
				return nil, &CompileError{
					Field:   "layers." + liter.Selector().Unquoted(),
					Message: "must be a list of argument names",
					Pos:     liter.Value().Pos(),
				}
			}
			t.Layers = append(t.Layers, LayerGroup{Name: liter.Selector().Unquoted(), Args: names})
		}
	}

	if err := finish(t); err != nil {
		var ce *CompileError
		if stderrors.As(err, &ce) && !ce.Pos.IsValid() {
			ce.Pos = v.Pos()
		}
		return nil, err
	}
	return t, nil
}

func compileCUEArg(name string, v cue.Value) (Arg, error) {
	field := "args." + name

	fields, err := v.Fields()
	if err != nil {
		return Arg{}, &CompileError{Field: field, Message: "argument must be a struct", Pos: v.Pos()}
	}
	for fields.Next() {
		key := fields.Selector().Unquoted()
		if !argKeys[key] {
			return Arg{}, &CompileError{
				Field:   field + "." + key,
				Message: fmt.Sprintf("unknown argument field %q", key),
				Pos:     fields.Value().Pos(),
			}
		}
	}

	valueVal := v.LookupPath(cue.ParsePath("value"))
	if !valueVal.Exists() {
		return Arg{}, &CompileError{Field: field + ".value", Message: "value is required", Pos: v.Pos()}
	}
	value, err := param.FromCUE(valueVal)
	if err != nil {
		return Arg{}, &CompileError{Field: field + ".value", Message: err.Error(), Pos: valueVal.Pos()}
	}

	raw := rawRules{}
	decodes := []struct {
		key    string
		target any
	}{
		{"types", &raw.Types},
		{"no_symbolic", &raw.NoSymbolic},
		{"wires", &raw.Wires},
		{"bound", &raw.Bound},
		{"message", &raw.Message},
	}
	for _, d := range decodes {
		fv := v.LookupPath(cue.MakePath(cue.Str(d.key)))
		if !fv.Exists() {
			continue
		}
		if err := fv.Decode(d.target); err != nil {
			return Arg{}, &CompileError{Field: field + "." + d.key, Message: err.Error(), Pos: fv.Pos()}
		}
	}

	if shapeVal := v.LookupPath(cue.ParsePath("shape")); shapeVal.Exists() {
		raw.HasShape = true
		raw.Shape = []int{}
		if err := shapeVal.Decode(&raw.Shape); err != nil {
			return Arg{}, &CompileError{Field: field + ".shape", Message: "must be a list of integers", Pos: shapeVal.Pos()}
		}
	}

	if optsVal := v.LookupPath(cue.ParsePath("options")); optsVal.Exists() {
		opts, err := param.FromCUE(optsVal)
		if err != nil {
			return Arg{}, &CompileError{Field: field + ".options", Message: err.Error(), Pos: optsVal.Pos()}
		}
		seq, ok := opts.(param.Seq)
		if !ok {
			return Arg{}, &CompileError{Field: field + ".options", Message: "must be a list", Pos: optsVal.Pos()}
		}
		raw.Options = seq
	}

	rules, err := buildRules(field, raw)
	if err != nil {
		var ce *CompileError
		if stderrors.As(err, &ce) {
			ce.Pos = v.Pos()
		}
		return Arg{}, err
	}
	return Arg{Name: name, Value: value, Rules: rules}, nil
}

// buildRules interprets raw rules. Errors are *CompileError without position.
func buildRules(field string, raw rawRules) (Rules, error) {
	rules := Rules{
		Options:    raw.Options,
		NoSymbolic: raw.NoSymbolic,
		Wires:      raw.Wires,
		Message:    raw.Message,
	}

	for _, name := range raw.Types {
		k, err := param.ParseKind(name)
		if err != nil {
			return Rules{}, &CompileError{Field: field + ".types", Message: err.Error()}
		}
		rules.Types = append(rules.Types, k)
	}

	bound, err := check.ParseBound(raw.Bound)
	if err != nil {
		return Rules{}, &CompileError{Field: field + ".bound", Message: err.Error()}
	}

	if raw.HasShape {
		for i, d := range raw.Shape {
			if d < 0 {
				return Rules{}, &CompileError{
					Field:   field + ".shape",
					Message: fmt.Sprintf("dimension %d is negative: %d", i, d),
				}
			}
		}
		if bound != check.BoundNone && len(raw.Shape) == 0 {
			return Rules{}, &CompileError{Field: field + ".bound", Message: "a bound needs a shape with at least one dimension"}
		}
		rules.Shape = &ShapeRule{Dims: append(check.Shape{}, raw.Shape...), Bound: bound}
	} else if raw.Bound != "" {
		return Rules{}, &CompileError{Field: field + ".bound", Message: "bound given without shape"}
	}

	return rules, nil
}

// finish checks template-level consistency shared by every front end.
func finish(t *Template) error {
	if t.Name == "" {
		return &CompileError{Field: "name", Message: "template name is required"}
	}
	if len(t.Args) == 0 {
		return &CompileError{Field: "args", Message: "at least one argument is required"}
	}

	seen := make(map[string]bool, len(t.Args))
	for _, a := range t.Args {
		if a.Name == "" {
			return &CompileError{Field: "args", Message: "argument name is required"}
		}
		if seen[a.Name] {
			return &CompileError{Field: "args." + a.Name, Message: fmt.Sprintf("duplicate argument %q", a.Name)}
		}
		seen[a.Name] = true
	}

	for _, g := range t.Layers {
		if len(g.Args) == 0 {
			return &CompileError{Field: "layers." + g.Name, Message: "layer group lists no arguments"}
		}
		for _, name := range g.Args {
			if !seen[name] {
				return &CompileError{
					Field:   "layers." + g.Name,
					Message: fmt.Sprintf("unknown argument %q", name),
				}
			}
		}
	}
	return nil
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	if positions := errors.Positions(first); len(positions) > 0 {
		return &CompileError{
			Field:   "cue",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}
	return err
}
