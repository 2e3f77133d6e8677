package check

import (
	"github.com/roach88/tplcheck/internal/param"
)

// CheckLayers returns the number of layers encoded by a block of weights.
//
// A flat sequence of scalars is a single layer. A sequence of sequences is a
// list of per-layer weight blocks: every block must have the same leading
// dimension, and that dimension is the layer count. Scalars, empty input,
// blocks with zero layers, and a mix of flat and nested elements fail with
// ErrInconsistentLayers.
func CheckLayers(v param.Value) (int, error) {
	seq, ok := param.AsSequence(v)
	if !ok {
		return 0, newError(ErrInconsistentLayers, "", "expected a list of weights, got %s", param.KindOf(v))
	}
	if seq.Len() == 0 {
		return 0, newError(ErrInconsistentLayers, "", "no weights given")
	}

	nested := 0
	for i := 0; i < seq.Len(); i++ {
		if _, ok := param.AsSequence(seq.At(i)); ok {
			nested++
		}
	}

	switch {
	case nested == 0:
		return 1, nil
	case nested != seq.Len():
		return 0, newError(ErrInconsistentLayers, "",
			"mixed nesting: %d of %d elements are lists", nested, seq.Len())
	}

	layers := -1
	for i := 0; i < seq.Len(); i++ {
		inner, _ := param.AsSequence(seq.At(i))
		if layers == -1 {
			layers = inner.Len()
			continue
		}
		if inner.Len() != layers {
			return 0, newError(ErrInconsistentLayers, "",
				"weight %d has %d layers, weight 0 has %d", i, inner.Len(), layers)
		}
	}

	if layers == 0 {
		return 0, newError(ErrInconsistentLayers, "", "weights have zero layers")
	}
	return layers, nil
}
