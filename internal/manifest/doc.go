// Package manifest describes template invocations declaratively and runs the
// argument checks they declare.
//
// A manifest names a template, lists its arguments with their concrete
// values, and attaches rules to each argument (types, options, no_symbolic,
// wires, shape) plus optional layer groups. Manifests are written in CUE
// (under a top-level "template" struct) or YAML (a "templates" list); both
// compile to the same Template.
//
// Validate runs each argument's rules in a fixed order and stops at the
// first failure for that argument. Other arguments are still checked, so a
// Report lists every failing argument at once.
package manifest
