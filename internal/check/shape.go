package check

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tplcheck/internal/param"
)

// Shape lists the nesting dimensions of a value, outermost first.
// A scalar has the empty shape.
type Shape []int

// String renders the shape in tuple notation: (), (3,), (2, 3).
func (s Shape) String() string {
	if len(s) == 1 {
		return "(" + strconv.Itoa(s[0]) + ",)"
	}
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Equal reports whether both shapes have the same rank and dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Bound selects how the last dimension is compared in CheckShape.
type Bound int

const (
	// BoundNone requires the whole shape to match exactly.
	BoundNone Bound = iota
	// BoundMin treats the last target dimension as a lower bound.
	BoundMin
	// BoundMax treats the last target dimension as an upper bound.
	BoundMax
)

// String returns "none", "min" or "max".
func (b Bound) String() string {
	switch b {
	case BoundMin:
		return "min"
	case BoundMax:
		return "max"
	default:
		return "none"
	}
}

// ParseBound parses "", "none", "min" or "max".
func ParseBound(s string) (Bound, error) {
	switch s {
	case "", "none":
		return BoundNone, nil
	case "min":
		return BoundMin, nil
	case "max":
		return BoundMax, nil
	default:
		return BoundNone, fmt.Errorf("unknown bound %q: must be one of none, min, max", s)
	}
}

// ShapeOf infers the shape of v from its outer length and its first element.
// It never fails: irregular nesting is not detected here, the shape implied
// by the first element at each level is reported. Empty sequences have
// shape (0,).
func ShapeOf(v param.Value) Shape {
	if arr, ok := v.(*param.Array); ok {
		return append(Shape(nil), arr.Dims...)
	}

	shape := Shape{}
	for {
		seq, ok := param.AsSequence(v)
		if !ok {
			return shape
		}
		shape = append(shape, seq.Len())
		if seq.Len() == 0 {
			return shape
		}
		v = seq.At(0)
	}
}

// StrictShapeOf is ShapeOf for uniformly nested values. It fails with
// ErrShapeMismatch when elements of a sequence have differing shapes.
func StrictShapeOf(v param.Value) (Shape, error) {
	return strictShapeOf(v, "")
}

func strictShapeOf(v param.Value, path string) (Shape, error) {
	if arr, ok := v.(*param.Array); ok {
		return append(Shape(nil), arr.Dims...), nil
	}

	seq, ok := param.AsSequence(v)
	if !ok {
		return Shape{}, nil
	}
	if seq.Len() == 0 {
		return Shape{0}, nil
	}

	var inner Shape
	for i := 0; i < seq.Len(); i++ {
		elemPath := fmt.Sprintf("%s[%d]", path, i)
		s, err := strictShapeOf(seq.At(i), elemPath)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			inner = s
			continue
		}
		if !s.Equal(inner) {
			return nil, newError(ErrShapeMismatch, "",
				"irregular nesting at %s: element shape %s differs from %s", elemPath, s, inner)
		}
	}

	return append(Shape{seq.Len()}, inner...), nil
}

// CheckShape verifies that v has the target shape.
//
// With BoundNone the shapes must be equal. With BoundMin or BoundMax the
// ranks must match, every dimension but the last must be equal, and the last
// dimension of v must be at least (min) or at most (max) the last target
// dimension. Rank-0 shapes compare exactly under any bound.
//
// msg, when non-empty, appears verbatim in the returned error.
func CheckShape(v param.Value, target Shape, bound Bound, msg string) error {
	actual, err := StrictShapeOf(v)
	if err != nil {
		return WithMessage(err, msg)
	}

	if bound == BoundNone || len(target) == 0 {
		if !actual.Equal(target) {
			return newError(ErrShapeMismatch, msg, "got shape %s, want %s", actual, target)
		}
		return nil
	}

	if len(actual) != len(target) {
		return newError(ErrShapeMismatch, msg,
			"got shape %s, want rank %d (%s bound on %s)", actual, len(target), bound, target)
	}

	last := len(target) - 1
	for i := 0; i < last; i++ {
		if actual[i] != target[i] {
			return newError(ErrShapeMismatch, msg,
				"got shape %s, want dimension %d to be %d", actual, i, target[i])
		}
	}

	switch bound {
	case BoundMax:
		if actual[last] > target[last] {
			return newError(ErrShapeMismatch, msg,
				"got shape %s, want last dimension at most %d", actual, target[last])
		}
	case BoundMin:
		if actual[last] < target[last] {
			return newError(ErrShapeMismatch, msg,
				"got shape %s, want last dimension at least %d", actual, target[last])
		}
	}
	return nil
}

// CheckShapes applies CheckShape positionally and returns the first failure.
// values, targets and bounds must have equal lengths.
func CheckShapes(values []param.Value, targets []Shape, bounds []Bound, msg string) error {
	if len(values) != len(targets) || len(values) != len(bounds) {
		return newError(ErrShapeMismatch, msg,
			"got %d values, %d target shapes and %d bounds", len(values), len(targets), len(bounds))
	}

	for i := range values {
		if err := CheckShape(values[i], targets[i], bounds[i], msg); err != nil {
			var ve *ValidationError
			if errors.As(err, &ve) {
				ve.Detail = fmt.Sprintf("input %d: %s", i, ve.Detail)
			}
			return err
		}
	}
	return nil
}
