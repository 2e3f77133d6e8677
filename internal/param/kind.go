package param

import "fmt"

// Kind classifies a Value at runtime.
type Kind int

const (
	// KindNull is also the "no alternate type" sentinel in type lists.
	KindNull Kind = iota
	KindBool
	KindInt
	KindFloat
	KindString
	KindSeq
	KindArray
	KindSymbol
	KindCallable
)

var kindNames = map[Kind]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindInt:      "int",
	KindFloat:    "float",
	KindString:   "string",
	KindSeq:      "list",
	KindArray:    "array",
	KindSymbol:   "variable",
	KindCallable: "callable",
}

// String returns the kind name used in manifests and error messages.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a kind name. "none" is accepted as an alias for null.
func ParseKind(s string) (Kind, error) {
	if s == "none" {
		return KindNull, nil
	}
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown kind %q", s)
}

// KindOf returns the runtime classification of v.
func KindOf(v Value) Kind {
	switch v.(type) {
	case Bool:
		return KindBool
	case Int:
		return KindInt
	case Float:
		return KindFloat
	case String:
		return KindString
	case Seq:
		return KindSeq
	case *Array:
		return KindArray
	case *Symbol:
		return KindSymbol
	case Callable:
		return KindCallable
	default:
		return KindNull
	}
}
