// Package check validates template arguments before template construction.
//
// Every function is pure: it reads only its arguments, keeps no state, and
// is safe to call concurrently. Failures are returned as *ValidationError,
// whose Unwrap yields a sentinel (ErrShapeMismatch, ErrInvalidWires, ...)
// for errors.Is matching. Caller-supplied messages always appear verbatim in
// the rendered error.
//
// List-level checks are built from the single-value ones: CheckShapes from
// CheckShape, and CheckShape from StrictShapeOf.
//
// Nothing here coerces or repairs input. A check either accepts a value as
// is or rejects it.
package check
