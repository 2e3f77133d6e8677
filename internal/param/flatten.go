package param

import (
	"errors"
	"fmt"
)

// Unflatten errors.
var (
	ErrUnsupportedModel = errors.New("unsupported type in the model")
	ErrTooManyElements  = errors.New("flattened values have more elements than the model")
	ErrTooFewElements   = errors.New("flattened values have fewer elements than the model")
)

// Flatten returns the leaves of v in depth-first order. Sequences, including
// Arrays, are expanded; every other Value is a leaf.
func Flatten(v Value) []Value {
	var out []Value
	if arr, ok := v.(*Array); ok {
		out = make([]Value, 0, len(arr.Data))
	}
	return appendLeaves(out, v)
}

func appendLeaves(out []Value, v Value) []Value {
	if arr, ok := v.(*Array); ok {
		for _, f := range arr.Data {
			out = append(out, Float(f))
		}
		return out
	}
	seq, ok := AsSequence(v)
	if !ok {
		return append(out, v)
	}
	for i := 0; i < seq.Len(); i++ {
		out = appendLeaves(out, seq.At(i))
	}
	return out
}

// Unflatten rebuilds the nesting of model from flat, consuming flat in
// depth-first order. It is the inverse of Flatten:
// Unflatten(Flatten(v), v) equals v.
//
// Scalars, strings and symbols in model take one element each; Seqs are
// rebuilt element by element; Arrays take as many numeric elements as they
// hold. Null and Callable have no flat form and fail with
// ErrUnsupportedModel. flat must be consumed exactly.
func Unflatten(flat []Value, model Value) (Value, error) {
	v, rest, err := unflatten(flat, model, "")
	if err != nil {
		return nil, err
	}
	if len(rest) > 0 {
		return nil, fmt.Errorf("%w: %d left over", ErrTooManyElements, len(rest))
	}
	return v, nil
}

func unflatten(flat []Value, model Value, path string) (Value, []Value, error) {
	at := path
	if at == "" {
		at = "model"
	}

	switch m := model.(type) {
	case Bool, Int, Float, String, *Symbol:
		if len(flat) == 0 {
			return nil, nil, fmt.Errorf("%w at %s", ErrTooFewElements, at)
		}
		return flat[0], flat[1:], nil

	case *Array:
		n := len(m.Data)
		if len(flat) < n {
			return nil, nil, fmt.Errorf("%w at %s: need %d, have %d", ErrTooFewElements, at, n, len(flat))
		}
		data := make([]float64, n)
		for i, elem := range flat[:n] {
			switch x := elem.(type) {
			case Float:
				data[i] = float64(x)
			case Int:
				data[i] = float64(x)
			default:
				return nil, nil, fmt.Errorf("array element %d at %s must be a number, got %s", i, at, KindOf(elem))
			}
		}
		arr, err := NewArray(m.Dims, data)
		if err != nil {
			return nil, nil, err
		}
		return arr, flat[n:], nil

	case Seq:
		out := make(Seq, len(m))
		for i, elem := range m {
			var err error
			out[i], flat, err = unflatten(flat, elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, nil, err
			}
		}
		return out, flat, nil

	default:
		return nil, nil, fmt.Errorf("%w: %s at %s", ErrUnsupportedModel, KindOf(model), at)
	}
}
