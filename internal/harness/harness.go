package harness

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"

	"github.com/roach88/tplcheck/internal/check"
	"github.com/roach88/tplcheck/internal/param"
)

// Harness runs suites. It holds no per-run state.
type Harness struct {
	logger *slog.Logger
}

// New creates a Harness. A nil logger discards output.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a suite without logging.
func Run(suite *Suite) (*Result, error) {
	return New(nil).Run(suite)
}

// Run executes every case of suite and returns the result.
//
// Execution flow per case:
//  1. Decode the value and parameters
//  2. Run the check twice
//  3. Compare both outcomes, then assert the expectation
//
// An error is returned only when a case cannot be set up (undecodable value,
// unknown kind or bound); expectation failures are recorded in the Result.
func (h *Harness) Run(suite *Suite) (*Result, error) {
	result := NewResult(suite.Name)

	for i := range suite.Cases {
		c := &suite.Cases[i]
		run, err := compileCase(c)
		if err != nil {
			return nil, fmt.Errorf("suite %s: case %q: %w", suite.Name, c.Name, err)
		}

		first := run()
		second := run()

		cr := CaseResult{Name: c.Name, Check: c.Check, Got: first.String()}
		for _, e := range assertOutcome(c, first) {
			cr.Errors = append(cr.Errors, e.Error())
		}
		if !first.same(second) {
			cr.Errors = append(cr.Errors, (&AssertionError{
				Field:    "idempotence",
				Expected: first.String(),
				Actual:   second.String(),
			}).Error())
		}
		cr.Pass = len(cr.Errors) == 0

		h.logger.Debug("case finished", "suite", suite.Name, "case", c.Name, "check", c.Check, "pass", cr.Pass)
		result.Add(cr)
	}

	return result, nil
}

// outcome is what a single check invocation returned.
type outcome struct {
	check  string
	shape  check.Shape
	wires  check.Wires
	count  int
	layers int
	err    error
}

func (o outcome) String() string {
	if o.err != nil {
		return o.err.Error()
	}
	switch o.check {
	case CheckShapeOf, CheckStrictShapeOf, CheckUnflatten:
		return "shape=" + o.shape.String()
	case CheckFlatten:
		return fmt.Sprintf("size=%d", o.count)
	case CheckWires:
		return fmt.Sprintf("wires=%s n=%d", formatInts(o.wires), o.count)
	case CheckLayers:
		return fmt.Sprintf("layers=%d", o.layers)
	default:
		return "ok"
	}
}

func (o outcome) same(p outcome) bool {
	if (o.err == nil) != (p.err == nil) {
		return false
	}
	if o.err != nil && o.err.Error() != p.err.Error() {
		return false
	}
	return o.shape.Equal(p.shape) &&
		reflect.DeepEqual(o.wires, p.wires) &&
		o.count == p.count &&
		o.layers == p.layers
}

// compileCase decodes a case's value and parameters and returns a closure
// that runs its check.
func compileCase(c *Case) (func() outcome, error) {
	var raw any
	if err := c.Value.Decode(&raw); err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}
	v, err := param.FromDecoded(raw)
	if err != nil {
		return nil, fmt.Errorf("value: %w", err)
	}

	switch c.Check {
	case CheckShapeOf:
		return func() outcome {
			return outcome{check: c.Check, shape: check.ShapeOf(v)}
		}, nil

	case CheckStrictShapeOf:
		return func() outcome {
			s, err := check.StrictShapeOf(v)
			return outcome{check: c.Check, shape: s, err: err}
		}, nil

	case CheckShape:
		bound, err := check.ParseBound(c.Bound)
		if err != nil {
			return nil, err
		}
		target := append(check.Shape{}, (*c.Shape)...)
		return func() outcome {
			return outcome{check: c.Check, err: check.CheckShape(v, target, bound, c.Message)}
		}, nil

	case CheckShapes:
		seq, ok := v.(param.Seq)
		if !ok {
			return nil, fmt.Errorf("value must be a list for shapes")
		}
		targets := make([]check.Shape, len(c.Shapes))
		for i, s := range c.Shapes {
			targets[i] = append(check.Shape{}, s...)
		}
		bounds := make([]check.Bound, len(targets))
		if len(c.Bounds) > 0 {
			bounds = make([]check.Bound, len(c.Bounds))
			for i, b := range c.Bounds {
				if bounds[i], err = check.ParseBound(b); err != nil {
					return nil, fmt.Errorf("bounds[%d]: %w", i, err)
				}
			}
		}
		values := []param.Value(seq)
		return func() outcome {
			return outcome{check: c.Check, err: check.CheckShapes(values, targets, bounds, c.Message)}
		}, nil

	case CheckWires:
		return func() outcome {
			w, n, err := check.CheckWires(v)
			return outcome{check: c.Check, wires: w, count: n, err: err}
		}, nil

	case CheckLayers:
		return func() outcome {
			n, err := check.CheckLayers(v)
			return outcome{check: c.Check, layers: n, err: err}
		}, nil

	case CheckNoSymbolic:
		return func() outcome {
			return outcome{check: c.Check, err: check.CheckNoSymbolic(v, c.Names, c.Message)}
		}, nil

	case CheckOptions:
		options := make([]param.Value, len(c.Options))
		for i, o := range c.Options {
			if options[i], err = param.FromDecoded(o); err != nil {
				return nil, fmt.Errorf("options[%d]: %w", i, err)
			}
		}
		return func() outcome {
			return outcome{check: c.Check, err: check.WithMessage(check.CheckOption(v, options), c.Message)}
		}, nil

	case CheckType:
		kinds := make([]param.Kind, len(c.Types))
		for i, name := range c.Types {
			if kinds[i], err = param.ParseKind(name); err != nil {
				return nil, fmt.Errorf("types[%d]: %w", i, err)
			}
		}
		return func() outcome {
			return outcome{check: c.Check, err: check.CheckType(v, kinds, c.Message)}
		}, nil

	case CheckFlatten:
		return func() outcome {
			return outcome{check: c.Check, count: len(param.Flatten(v))}
		}, nil

	case CheckUnflatten:
		seq, ok := v.(param.Seq)
		if !ok {
			return nil, fmt.Errorf("value must be a list for unflatten")
		}
		var rawModel any
		if err := c.Model.Decode(&rawModel); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		model, err := param.FromDecoded(rawModel)
		if err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
		flat := []param.Value(seq)
		return func() outcome {
			out, err := param.Unflatten(flat, model)
			if err != nil {
				return outcome{check: c.Check, err: err}
			}
			return outcome{check: c.Check, shape: check.ShapeOf(out)}
		}, nil

	default:
		return nil, fmt.Errorf("unknown check %q", c.Check)
	}
}
