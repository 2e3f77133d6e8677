package harness

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/neilotoole/slogt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, content string) *Suite {
	t.Helper()
	suite, err := ParseSuite([]byte(content))
	require.NoError(t, err)
	return suite
}

func TestRun_AllSuitesPass(t *testing.T) {
	suites, err := LoadSuites("testdata/suites")
	require.NoError(t, err)

	for _, suite := range suites {
		t.Run(suite.Name, func(t *testing.T) {
			result, err := New(slogt.New(t)).Run(suite)
			require.NoError(t, err)

			for _, c := range result.Cases {
				assert.True(t, c.Pass, "%s: %v", c.Name, c.Errors)
			}
			assert.True(t, result.Pass)
		})
	}
}

func TestRun_RecordsFailedExpectations(t *testing.T) {
	suite := mustParse(t, `
name: failing
cases:
  - name: wrong_count
    check: wires
    value: [0, 1]
    expect: {wires: [0, 1], count: 3}
  - name: expected_error
    check: layers
    value: [1, 2]
    expect: {error: V103}
  - name: unexpected_error
    check: wires
    value: -4
    expect: {}
  - name: wrong_code
    check: type
    value: "x"
    types: [int]
    expect: {error: V105, contains: "want one of [float]"}
  - name: passes
    check: shape_of
    value: [1, 2]
    expect: {shape: [2]}
`)

	result, err := Run(suite)
	require.NoError(t, err)
	assert.False(t, result.Pass)

	passed, failed := result.Counts()
	assert.Equal(t, 1, passed)
	assert.Equal(t, 4, failed)

	assert.Equal(t, []string{"count: expected 3, got 2"}, result.Cases[0].Errors)
	assert.Equal(t, []string{"error: expected V103, got success"}, result.Cases[1].Errors)
	assert.Equal(t, "layers=1", result.Cases[1].Got)
	assert.Equal(t, []string{"error: expected success, got V102: invalid wires: wire index -4 is negative"}, result.Cases[2].Errors)

	require.Len(t, result.Cases[3].Errors, 2)
	assert.Contains(t, result.Cases[3].Errors[0], "error: expected V105, got V106")
	assert.Contains(t, result.Cases[3].Errors[1], `contains: expected "want one of [float]"`)

	assert.True(t, result.Cases[4].Pass)
	assert.Empty(t, result.Cases[4].Errors)
}

func TestRun_ShapeExpectation(t *testing.T) {
	suite := mustParse(t, `
name: shapes
cases:
  - name: wrong
    check: strict_shape_of
    value: [[1], [2]]
    expect: {shape: [1, 2]}
`)

	result, err := Run(suite)
	require.NoError(t, err)
	assert.Equal(t, "shape=(2, 1)", result.Cases[0].Got)
	assert.Equal(t, []string{"shape: expected (1, 2), got (2, 1)"}, result.Cases[0].Errors)
}

func TestRun_FlattenChecks(t *testing.T) {
	suite := mustParse(t, `
name: flat
cases:
  - name: size
    check: flatten
    value: [[1, 2], [3]]
    expect: {count: 3}
  - name: rebuilt
    check: unflatten
    value: [1, 2, 3, 4]
    model: [[0, 0], [0, 0]]
    expect: {shape: [2, 2]}
  - name: any_error
    check: unflatten
    value: [1, 2, 3]
    model: [0, 0]
    expect: {error: any}
  - name: code_mismatch
    check: unflatten
    value: [1, 2, 3]
    model: [0, 0]
    expect: {error: V101}
`)

	result, err := Run(suite)
	require.NoError(t, err)
	require.Len(t, result.Cases, 4)

	assert.True(t, result.Cases[0].Pass, result.Cases[0].Errors)
	assert.Equal(t, "size=3", result.Cases[0].Got)
	assert.True(t, result.Cases[1].Pass, result.Cases[1].Errors)
	assert.Equal(t, "shape=(2, 2)", result.Cases[1].Got)
	assert.True(t, result.Cases[2].Pass, result.Cases[2].Errors)
	assert.False(t, result.Cases[3].Pass)
	assert.False(t, result.Pass)
}

func TestRun_SetupErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "bad bound",
			content: "name: s\ncases:\n  - {name: a, check: shape, value: 1, shape: [], bound: most}\n",
			want:    `unknown bound "most"`,
		},
		{
			name:    "bad kind",
			content: "name: s\ncases:\n  - {name: a, check: type, value: 1, types: [number]}\n",
			want:    `types[0]: unknown kind "number"`,
		},
		{
			name:    "object value",
			content: "name: s\ncases:\n  - {name: a, check: wires, value: {a: 1}}\n",
			want:    "objects are not values",
		},
		{
			name:    "shapes on scalar",
			content: "name: s\ncases:\n  - {name: a, check: shapes, value: 1, shapes: [[]]}\n",
			want:    "value must be a list for shapes",
		},
		{
			name:    "unflatten scalar",
			content: "name: s\ncases:\n  - {name: a, check: unflatten, value: 1, model: [0]}\n",
			want:    "value must be a list for unflatten",
		},
		{
			name:    "unflatten bad model",
			content: "name: s\ncases:\n  - {name: a, check: unflatten, value: [1], model: {a: 1}}\n",
			want:    "model: objects are not values",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Run(mustParse(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), `case "a"`)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHarness_LogsCases(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	suite := mustParse(t, "name: s\ncases:\n  - {name: a, check: wires, value: 1, expect: {count: 1}}\n")
	_, err := New(logger).Run(suite)
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "case finished")
	assert.Contains(t, buf.String(), "case=a")
	assert.Contains(t, buf.String(), "pass=true")
}

func TestResult_WriteText(t *testing.T) {
	result := NewResult("demo")
	result.Add(CaseResult{Name: "ok", Check: CheckLayers, Pass: true, Got: "layers=2"})
	result.Add(CaseResult{Name: "bad", Check: CheckWires, Got: "wires=[1] n=1", Errors: []string{"count: expected 2, got 1"}})

	var buf bytes.Buffer
	require.NoError(t, result.WriteText(&buf))

	want := "suite demo: 1 passed, 1 failed\n" +
		"  PASS layers/ok: layers=2\n" +
		"  FAIL wires/bad: wires=[1] n=1\n" +
		"       count: expected 2, got 1\n"
	assert.Equal(t, want, buf.String())
	assert.False(t, result.Pass)
}

func TestAssertionError(t *testing.T) {
	err := &AssertionError{Field: "layers", Expected: "2", Actual: "3"}
	assert.Equal(t, "layers: expected 2, got 3", err.Error())
}
