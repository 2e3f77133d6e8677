package check

import (
	"strings"

	"github.com/roach88/tplcheck/internal/param"
)

// CheckOption fails unless v equals one of options.
func CheckOption(v param.Value, options []param.Value) error {
	for _, opt := range options {
		if param.Equal(v, opt) {
			return nil
		}
	}
	return newError(ErrNotInOptions, "", "got %s, want one of %s", describe(v), describeAll(options))
}

// CheckType fails unless the kind of v is one of allowed. param.KindNull in
// allowed stands for "no alternate type" and only matches null values.
// msg, when non-empty, appears verbatim in the error.
func CheckType(v param.Value, allowed []param.Kind, msg string) error {
	kind := param.KindOf(v)
	for _, k := range allowed {
		if k == kind {
			return nil
		}
	}

	names := make([]string, len(allowed))
	for i, k := range allowed {
		names[i] = k.String()
	}
	return newError(ErrTypeMismatch, msg, "got %s, want one of [%s]", kind, strings.Join(names, ", "))
}

// describe renders a value for error details. Canonical JSON is used when
// possible so strings are quoted.
func describe(v param.Value) string {
	out, err := param.MarshalCanonical(v)
	if err != nil {
		return param.KindOf(v).String()
	}
	return string(out)
}

func describeAll(vs []param.Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = describe(v)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
