package harness

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/roach88/tplcheck/internal/check"
)

// AssertionError is one failed expectation of a case.
type AssertionError struct {
	Field    string // Expectation that failed: error, contains, shape, wires, count, layers, idempotence
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Field, e.Expected, e.Actual)
}

// assertOutcome checks o against c.Expect and returns every failed expectation.
func assertOutcome(c *Case, o outcome) []error {
	var errs []error
	exp := c.Expect

	code := ""
	var ve *check.ValidationError
	if errors.As(o.err, &ve) {
		code = ve.Code
	}

	switch {
	case exp.Error == "" && o.err != nil:
		errs = append(errs, &AssertionError{Field: "error", Expected: "success", Actual: o.err.Error()})
	case exp.Error != "" && o.err == nil:
		errs = append(errs, &AssertionError{Field: "error", Expected: exp.Error, Actual: "success"})
	case exp.Error != "" && exp.Error != ErrorAny && code != exp.Error:
		errs = append(errs, &AssertionError{Field: "error", Expected: exp.Error, Actual: o.err.Error()})
	}

	if exp.Contains != "" {
		switch {
		case o.err == nil:
			errs = append(errs, &AssertionError{Field: "contains", Expected: strconv.Quote(exp.Contains), Actual: "success"})
		case !strings.Contains(o.err.Error(), exp.Contains):
			errs = append(errs, &AssertionError{Field: "contains", Expected: strconv.Quote(exp.Contains), Actual: strconv.Quote(o.err.Error())})
		}
	}

	// Result expectations only apply to successful checks.
	if o.err != nil {
		return errs
	}

	if exp.Shape != nil {
		want := check.Shape(*exp.Shape)
		if !o.shape.Equal(want) {
			errs = append(errs, &AssertionError{Field: "shape", Expected: want.String(), Actual: o.shape.String()})
		}
	}
	if exp.Wires != nil && !equalInts(o.wires, *exp.Wires) {
		errs = append(errs, &AssertionError{Field: "wires", Expected: formatInts(*exp.Wires), Actual: formatInts(o.wires)})
	}
	if exp.Count != nil && o.count != *exp.Count {
		errs = append(errs, &AssertionError{Field: "count", Expected: strconv.Itoa(*exp.Count), Actual: strconv.Itoa(o.count)})
	}
	if exp.Layers != nil && o.layers != *exp.Layers {
		errs = append(errs, &AssertionError{Field: "layers", Expected: strconv.Itoa(*exp.Layers), Actual: strconv.Itoa(o.layers)})
	}
	return errs
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func formatInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
