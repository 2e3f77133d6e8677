package check

import (
	"github.com/roach88/tplcheck/internal/param"
)

// Wires is a normalized, ordered list of non-negative resource indices.
type Wires []int

// CheckWires normalizes a wire specification.
//
// A non-negative Int is shorthand for a single wire. A Seq of non-negative
// Ints is returned unchanged. Anything else fails with ErrInvalidWires; no
// coercion is attempted, so "1", 1.0 and true are all rejected.
func CheckWires(v param.Value) (Wires, int, error) {
	switch val := v.(type) {
	case param.Int:
		if val < 0 {
			return nil, 0, newError(ErrInvalidWires, "", "wire index %d is negative", int64(val))
		}
		if !fitsInt(val) {
			return nil, 0, newError(ErrInvalidWires, "", "wire index %d is out of range", int64(val))
		}
		return Wires{int(val)}, 1, nil

	case param.Seq:
		wires := make(Wires, len(val))
		for i, elem := range val {
			n, ok := elem.(param.Int)
			if !ok {
				return nil, 0, newError(ErrInvalidWires, "",
					"wire %d must be a non-negative int, got %s", i, param.KindOf(elem))
			}
			if n < 0 {
				return nil, 0, newError(ErrInvalidWires, "", "wire %d is negative: %d", i, int64(n))
			}
			if !fitsInt(n) {
				return nil, 0, newError(ErrInvalidWires, "", "wire %d is out of range: %d", i, int64(n))
			}
			wires[i] = int(n)
		}
		return wires, len(wires), nil

	default:
		return nil, 0, newError(ErrInvalidWires, "",
			"wires must be an int or a list of ints, got %s", param.KindOf(v))
	}
}

// fitsInt reports whether n survives conversion to int on this platform.
func fitsInt(n param.Int) bool {
	return int64(int(n)) == int64(n)
}
