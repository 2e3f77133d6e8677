package manifest

import (
	"errors"
	"io"
	"log/slog"

	"github.com/roach88/tplcheck/internal/check"
	"github.com/roach88/tplcheck/internal/param"
)

// Validator runs the checks a Template declares.
// It holds no per-run state and is safe for concurrent use.
type Validator struct {
	logger *slog.Logger
}

// NewValidator creates a Validator. A nil logger discards output.
func NewValidator(logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{logger: logger}
}

// Validate checks every argument and layer group of t.
//
// Per argument, rules run in the order types, options, no_symbolic, wires,
// shape, and the first failure is recorded. Every argument is checked
// regardless of earlier failures.
func (v *Validator) Validate(t *Template) *Report {
	report := &Report{
		Template: t.Name,
		Source:   t.Source,
		Args:     make([]ArgResult, 0, len(t.Args)),
	}

	fields := make(map[string]param.Value, len(t.Args))
	for _, a := range t.Args {
		fields[a.Name] = a.Value
	}
	fp, err := param.FingerprintFields(fields)
	if err != nil {
		v.logger.Warn("cannot fingerprint arguments", "template", t.Name, "error", err)
	}
	report.Fingerprint = fp

	for _, a := range t.Args {
		res := v.validateArg(a)
		if res.OK {
			v.logger.Debug("argument valid", "template", t.Name, "arg", a.Name, "shape", res.Shape)
		} else {
			v.logger.Debug("argument invalid", "template", t.Name, "arg", a.Name, "code", res.Code, "error", res.Error)
		}
		report.Args = append(report.Args, res)
	}

	for _, g := range t.Layers {
		res := v.validateLayers(t, g)
		v.logger.Debug("layer group checked", "template", t.Name, "group", g.Name, "ok", res.OK, "layers", res.Layers)
		report.Layers = append(report.Layers, res)
	}

	return report
}

func (v *Validator) validateArg(a Arg) ArgResult {
	res := ArgResult{
		Name:  a.Name,
		Shape: check.ShapeOf(a.Value).String(),
	}

	wires, numWires, err := runRules(a)
	if err != nil {
		res.fail(check.WithMessage(err, a.Rules.Message))
		return res
	}

	res.OK = true
	if a.Rules.Wires {
		res.Wires = wires
		res.NumWires = numWires
	}
	return res
}

// runRules applies a's rules in order and returns the first failure.
func runRules(a Arg) (check.Wires, int, error) {
	r := a.Rules
	names := []string{a.Name}

	if len(r.Types) > 0 {
		if err := check.CheckType(a.Value, r.Types, r.Message); err != nil {
			return nil, 0, err
		}
	}
	if len(r.Options) > 0 {
		if err := check.CheckOption(a.Value, r.Options); err != nil {
			return nil, 0, err
		}
	}
	if r.NoSymbolic {
		if err := check.CheckNoSymbolic(a.Value, names, r.Message); err != nil {
			return nil, 0, err
		}
	}

	var wires check.Wires
	var numWires int
	if r.Wires {
		var err error
		wires, numWires, err = check.CheckWires(a.Value)
		if err != nil {
			return nil, 0, err
		}
	}

	if r.Shape != nil {
		if err := check.CheckShape(a.Value, r.Shape.Dims, r.Shape.Bound, r.Message); err != nil {
			return nil, 0, err
		}
	}
	return wires, numWires, nil
}

func (v *Validator) validateLayers(t *Template, g LayerGroup) LayerResult {
	res := LayerResult{Name: g.Name, Args: g.Args}

	block := make(param.Seq, 0, len(g.Args))
	for _, name := range g.Args {
		a, ok := t.Arg(name)
		if !ok {
			res.Code = check.CodeInconsistentLayers
			res.Error = "unknown argument " + name
			return res
		}
		block = append(block, a.Value)
	}

	layers, err := check.CheckLayers(block)
	if err != nil {
		res.fail(err)
		return res
	}
	res.OK = true
	res.Layers = layers
	return res
}

// Validate runs a Validator without logging.
func Validate(t *Template) *Report {
	return NewValidator(nil).Validate(t)
}

func (r *ArgResult) fail(err error) {
	r.OK = false
	r.Error = err.Error()
	var ve *check.ValidationError
	if errors.As(err, &ve) {
		r.Code = ve.Code
	}
}

func (r *LayerResult) fail(err error) {
	r.OK = false
	r.Error = err.Error()
	var ve *check.ValidationError
	if errors.As(err, &ve) {
		r.Code = ve.Code
	}
}
