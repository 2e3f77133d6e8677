// Package harness runs conformance suites against the check functions.
//
// A suite is a YAML file of cases. Each case names one check, the value to
// check, the check's parameters, and the expected outcome.
//
// # Suite Format
//
//	name: check_wires
//	description: "Wire specifications are normalized or rejected"
//	cases:
//	  - name: single int
//	    check: wires
//	    value: 0
//	    expect: { wires: [0], count: 1 }
//	  - name: negative
//	    check: wires
//	    value: [-1]
//	    expect: { error: V102 }
//
// Values use the manifest marker conventions: {$var: name} is a symbolic
// placeholder, {$fn: name} a callable, {$array: [dims], data: [...]} a dense
// array.
//
// # Checks
//
//   - shape_of: ShapeOf; expect.shape
//   - strict_shape_of: StrictShapeOf; expect.shape or expect.error
//   - shape: CheckShape with shape, bound, message
//   - shapes: CheckShapes over the value list with shapes, bounds, message
//   - wires: CheckWires; expect.wires and expect.count
//   - layers: CheckLayers; expect.layers
//   - no_symbolic: CheckNoSymbolic with names, message
//   - options: CheckOption with options, message
//   - type: CheckType with types, message
//   - flatten: param.Flatten; expect.count is the number of leaves
//   - unflatten: param.Unflatten of the value list into model; expect.shape
//
// An expect block without error means the check must succeed. error: any
// accepts any failure, for checks that do not return validation codes. expect.contains
// must appear verbatim in the rendered error.
//
// # Idempotence
//
// Every case runs twice; both runs must produce the same outcome.
package harness
