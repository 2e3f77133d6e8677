package check

import (
	"fmt"

	"github.com/roach88/tplcheck/internal/param"
)

// CheckNoSymbolic fails if v, or any element at any depth, is a symbolic
// placeholder. names identifies the argument(s) being checked; msg, when
// non-empty, appears verbatim in the error.
func CheckNoSymbolic(v param.Value, names []string, msg string) error {
	path, found := findSymbolic(v, "")
	if !found {
		return nil
	}

	at := "value"
	if path != "" {
		at = "element " + path
	}
	err := newError(ErrSymbolicValue, msg, "%s is a variable; a concrete value is required", at)
	err.Args = append([]string(nil), names...)
	return err
}

// findSymbolic returns the index path of the first symbolic element, depth first.
func findSymbolic(v param.Value, path string) (string, bool) {
	if param.IsSymbolic(v) {
		return path, true
	}
	if _, ok := v.(*param.Array); ok {
		// Arrays hold only floats.
		return "", false
	}

	seq, ok := param.AsSequence(v)
	if !ok {
		return "", false
	}
	for i := 0; i < seq.Len(); i++ {
		if p, found := findSymbolic(seq.At(i), fmt.Sprintf("%s[%d]", path, i)); found {
			return p, true
		}
	}
	return "", false
}
