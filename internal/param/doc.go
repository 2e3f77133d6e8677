// Package param provides the value model for template arguments.
//
// Raw arguments arrive untyped (decoded JSON, YAML, CUE, or native Go values)
// and are converted once at the boundary into the sealed Value union. All
// other internal packages import param; param imports nothing internal.
//
// Two capabilities drive the validation core:
//   - Sequence: anything with a length and ordered element access (Seq, Array)
//   - Symbolic: opaque placeholders for deferred/trainable values (Symbol)
//
// Everything that is not a Sequence is a scalar.
package param
