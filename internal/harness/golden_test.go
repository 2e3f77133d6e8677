package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with: go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_Wires(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/wires.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, suite)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}

func TestRunWithGolden_Layers(t *testing.T) {
	suite, err := LoadSuite("testdata/suites/layers.yaml")
	require.NoError(t, err)

	result, err := RunWithGolden(t, suite)
	require.NoError(t, err)
	assert.True(t, result.Pass)
}
