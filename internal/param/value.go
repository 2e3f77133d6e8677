package param

import (
	"fmt"
	"math"
)

// Value is a sealed interface representing a template argument.
// Only Null, Bool, Int, Float, String, Seq, Array, Symbol, and Callable implement it.
type Value interface {
	paramValue() // Sealed - only these types implement it
}

// Sequence is the capability shared by list-like values.
// Seq and Array implement it; every other Value is a scalar.
type Sequence interface {
	Value
	Len() int
	At(i int) Value
}

// Symbolic marks a placeholder whose concrete value is not yet bound.
type Symbolic interface {
	Value
	IsSymbolic() bool
}

// Null represents an absent value.
type Null struct{}

func (Null) paramValue() {}

// Bool represents a boolean value.
type Bool bool

func (Bool) paramValue() {}

// Int represents an integer value.
type Int int64

func (Int) paramValue() {}

// Float represents a floating point value.
type Float float64

func (Float) paramValue() {}

// String represents a string value.
type String string

func (String) paramValue() {}

// Seq represents an ordered list of values. Elements may be of mixed kinds
// and need not share a shape.
type Seq []Value

func (Seq) paramValue() {}

// Len returns the number of elements.
func (s Seq) Len() int { return len(s) }

// At returns the i-th element.
func (s Seq) At(i int) Value { return s[i] }

// Array is a dense, row-major numeric array. It behaves like a nested Seq of
// Floats with a guaranteed uniform shape.
type Array struct {
	Dims []int
	Data []float64
}

func (*Array) paramValue() {}

// NewArray creates an Array, checking that data fills dims exactly.
func NewArray(dims []int, data []float64) (*Array, error) {
	if len(dims) == 0 {
		return nil, fmt.Errorf("array must have at least one dimension")
	}
	// extent is the product of the non-zero dims. Bounding it keeps size
	// from wrapping and keeps Len and At within reach of data.
	size, extent := 1, 1
	for i, d := range dims {
		if d < 0 {
			return nil, fmt.Errorf("array dimension %d is negative: %d", i, d)
		}
		if d == 0 {
			size = 0
			continue
		}
		if extent > math.MaxInt/d {
			return nil, fmt.Errorf("array dims %v overflow", dims)
		}
		extent *= d
		size *= d
	}
	if size != len(data) {
		return nil, fmt.Errorf("array dims %v need %d elements, got %d", dims, size, len(data))
	}
	return &Array{Dims: append([]int(nil), dims...), Data: append([]float64(nil), data...)}, nil
}

// Len returns the length of the leading dimension, or 0 for an Array
// without dims.
func (a *Array) Len() int {
	if len(a.Dims) == 0 {
		return 0
	}
	return a.Dims[0]
}

// At returns the i-th slice along the leading dimension. A one-dimensional
// array yields Float elements; higher ranks yield sub-arrays.
func (a *Array) At(i int) Value {
	if len(a.Dims) == 1 {
		return Float(a.Data[i])
	}
	stride := len(a.Data) / a.Dims[0]
	return &Array{
		Dims: a.Dims[1:],
		Data: a.Data[i*stride : (i+1)*stride],
	}
}

// Symbol is a symbolic placeholder for a trainable or deferred parameter.
// Bound holds the current value when one is known; it is never inspected by
// the validation core.
type Symbol struct {
	Name  string
	Bound Value
}

func (*Symbol) paramValue() {}

// IsSymbolic implements Symbolic.
func (*Symbol) IsSymbolic() bool { return true }

// NewSymbol creates a Symbol.
func NewSymbol(name string, bound Value) *Symbol {
	return &Symbol{Name: name, Bound: bound}
}

// Callable is an opaque marker for a function-valued argument.
type Callable struct {
	Name string
}

func (Callable) paramValue() {}

// AsSequence reports whether v is a Sequence.
func AsSequence(v Value) (Sequence, bool) {
	s, ok := v.(Sequence)
	return s, ok
}

// IsSymbolic reports whether v is a symbolic placeholder.
func IsSymbolic(v Value) bool {
	s, ok := v.(Symbolic)
	return ok && s.IsSymbolic()
}

// Equal reports structural equality. Int and Float compare numerically;
// Symbols compare by name.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case Null:
		_, ok := b.(Null)
		return ok
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case Int:
		switch bv := b.(type) {
		case Int:
			return av == bv
		case Float:
			return float64(av) == float64(bv)
		}
		return false
	case Float:
		switch bv := b.(type) {
		case Float:
			return av == bv
		case Int:
			return float64(av) == float64(bv)
		}
		return false
	case *Symbol:
		bv, ok := b.(*Symbol)
		return ok && av.Name == bv.Name
	case Callable:
		bv, ok := b.(Callable)
		return ok && av.Name == bv.Name
	case Seq, *Array:
		as := a.(Sequence)
		bs, ok := AsSequence(b)
		if !ok || as.Len() != bs.Len() {
			return false
		}
		for i := 0; i < as.Len(); i++ {
			if !Equal(as.At(i), bs.At(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// FromGo converts a native Go value into a Value.
// Supported: nil, bool, signed and unsigned integers, float32/float64,
// string, []float64, []int, []string, []any, and Values themselves.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case nil:
		return Null{}, nil
	case Value:
		return val, nil
	case bool:
		return Bool(val), nil
	case int:
		return Int(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case uint8:
		return Int(val), nil
	case uint16:
		return Int(val), nil
	case uint32:
		return Int(val), nil
	case uint:
		if uint64(val) > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return Int(val), nil
	case uint64:
		if val > math.MaxInt64 {
			return nil, fmt.Errorf("integer out of range: %d", val)
		}
		return Int(val), nil
	case float32:
		return Float(val), nil
	case float64:
		return Float(val), nil
	case string:
		return String(val), nil
	case []float64:
		seq := make(Seq, len(val))
		for i, f := range val {
			seq[i] = Float(f)
		}
		return seq, nil
	case []int:
		seq := make(Seq, len(val))
		for i, n := range val {
			seq[i] = Int(n)
		}
		return seq, nil
	case []string:
		seq := make(Seq, len(val))
		for i, s := range val {
			seq[i] = String(s)
		}
		return seq, nil
	case []any:
		seq := make(Seq, len(val))
		for i, elem := range val {
			pv, err := FromGo(elem)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			seq[i] = pv
		}
		return seq, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}

// MustFromGo is FromGo for literals in tests and examples. It panics on error.
func MustFromGo(v any) Value {
	pv, err := FromGo(v)
	if err != nil {
		panic(err)
	}
	return pv
}
