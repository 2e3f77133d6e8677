package manifest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/neilotoole/slogt"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tplcheck/internal/check"
	"github.com/roach88/tplcheck/internal/param"
)

func compileCUEString(t *testing.T, src, name string) (*Template, error) {
	t.Helper()
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	require.NoError(t, v.Err())
	return CompileCUE(v.LookupPath(cue.ParsePath("template." + name)))
}

func TestCompileCUE(t *testing.T) {
	tpl, err := compileCUEString(t, `
template: BasicEntangler: {
	args: {
		weights: {
			value: [[0.1, 0.2], [0.3, 0.4]]
			shape: [2, 1]
			bound: "min"
			message: "one rotation per wire"
		}
		wires: { value: 3, wires: true }
		rotation: { value: "X", options: ["X", "Y", "Z"], types: ["string"] }
		features: { value: [1, 2], no_symbolic: true }
	}
	layers: block: ["weights"]
}
`, "BasicEntangler")
	require.NoError(t, err)

	assert.Equal(t, "BasicEntangler", tpl.Name)
	require.Len(t, tpl.Args, 4)
	assert.Equal(t, []string{"weights", "wires", "rotation", "features"},
		[]string{tpl.Args[0].Name, tpl.Args[1].Name, tpl.Args[2].Name, tpl.Args[3].Name})

	weights := tpl.Args[0]
	require.NotNil(t, weights.Rules.Shape)
	assert.Equal(t, check.Shape{2, 1}, weights.Rules.Shape.Dims)
	assert.Equal(t, check.BoundMin, weights.Rules.Shape.Bound)
	assert.Equal(t, "one rotation per wire", weights.Rules.Message)

	assert.True(t, tpl.Args[1].Rules.Wires)
	assert.Equal(t, param.Int(3), tpl.Args[1].Value)

	rotation := tpl.Args[2]
	assert.Equal(t, []param.Kind{param.KindString}, rotation.Rules.Types)
	assert.Equal(t, []param.Value{param.String("X"), param.String("Y"), param.String("Z")}, rotation.Rules.Options)

	assert.True(t, tpl.Args[3].Rules.NoSymbolic)
	assert.Equal(t, []LayerGroup{{Name: "block", Args: []string{"weights"}}}, tpl.Layers)
}

func TestCompileCUEScalarShape(t *testing.T) {
	tpl, err := compileCUEString(t, `
template: T: args: scale: { value: 0.5, shape: [] }
`, "T")
	require.NoError(t, err)
	require.NotNil(t, tpl.Args[0].Rules.Shape)
	assert.Equal(t, check.Shape{}, tpl.Args[0].Rules.Shape.Dims)
}

func TestCompileCUEErrors(t *testing.T) {
	tests := []struct {
		name  string
		src   string
		field string
	}{
		{"missing args", `template: T: {}`, "args"},
		{"missing value", `template: T: args: w: { shape: [1] }`, "args.w.value"},
		{"unknown field", `template: T: args: w: { value: 1, shpe: [1] }`, "args.w.shpe"},
		{"unknown kind", `template: T: args: w: { value: 1, types: ["tuple"] }`, "args.w.types"},
		{"unknown bound", `template: T: args: w: { value: [1], shape: [1], bound: "exact" }`, "args.w.bound"},
		{"bound without shape", `template: T: args: w: { value: [1], bound: "max" }`, "args.w.bound"},
		{"bound on scalar shape", `template: T: args: w: { value: 1, shape: [], bound: "max" }`, "args.w.bound"},
		{"negative dim", `template: T: args: w: { value: [1], shape: [-1] }`, "args.w.shape"},
		{"plain object value", `template: T: args: w: { value: { a: 1 } }`, "args.w.value"},
		{"unknown layer arg", `template: T: { args: w: { value: [1] }, layers: block: ["v"] }`, "layers.block"},
		{"empty layer group", `template: T: { args: w: { value: [1] }, layers: block: [] }`, "layers.block"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compileCUEString(t, tt.src, "T")
			require.Error(t, err)

			var ce *CompileError
			require.True(t, errors.As(err, &ce), "got %T: %v", err, err)
			assert.Equal(t, tt.field, ce.Field)
		})
	}
}

func TestDecodeYAML(t *testing.T) {
	templates, err := DecodeYAML([]byte(`
templates:
  - name: AngleEmbedding
    args:
      - name: features
        value: [0.1, 0.2]
        shape: [2]
        bound: max
      - name: wires
        value: 0
        wires: true
  - name: Scalar
    args:
      - name: x
        value: 1
        shape: []
`))
	require.NoError(t, err)
	require.Len(t, templates, 2)

	emb := templates[0]
	assert.Equal(t, "AngleEmbedding", emb.Name)
	require.Len(t, emb.Args, 2)
	assert.Equal(t, param.Seq{param.Float(0.1), param.Float(0.2)}, emb.Args[0].Value)
	assert.Equal(t, check.BoundMax, emb.Args[0].Rules.Shape.Bound)
	assert.Equal(t, param.Int(0), emb.Args[1].Value)

	require.NotNil(t, templates[1].Args[0].Rules.Shape)
	assert.Empty(t, templates[1].Args[0].Rules.Shape.Dims)
}

func TestDecodeYAMLErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"no templates", `templates: []`},
		{"unknown key", "templates:\n  - name: T\n    argz: []\n"},
		{"missing value", "templates:\n  - name: T\n    args:\n      - name: w\n"},
		{"missing name", "templates:\n  - args:\n      - name: w\n        value: 1\n"},
		{"duplicate arg", "templates:\n  - name: T\n    args:\n      - {name: w, value: 1}\n      - {name: w, value: 2}\n"},
		{"bad option", "templates:\n  - name: T\n    args:\n      - {name: w, value: 1, options: [{a: 1}]}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeYAML([]byte(tt.input))
			require.Error(t, err)
			var ce *CompileError
			assert.True(t, errors.As(err, &ce), "got %T: %v", err, err)
		})
	}
}

func TestValidateValid(t *testing.T) {
	tpl := &Template{
		Name: "T",
		Args: []Arg{
			{Name: "weights", Value: param.MustFromGo([]any{[]any{0.1, 0.2}, []any{0.3, 0.4}}),
				Rules: Rules{Shape: &ShapeRule{Dims: check.Shape{2, 2}}, NoSymbolic: true}},
			{Name: "wires", Value: param.Int(2), Rules: Rules{Wires: true}},
		},
		Layers: []LayerGroup{{Name: "block", Args: []string{"weights"}}},
	}

	report := NewValidator(slogt.New(t)).Validate(tpl)
	assert.True(t, report.Valid())
	assert.Equal(t, 0, report.Failures())
	assert.Len(t, report.Fingerprint, 64)

	require.Len(t, report.Args, 2)
	assert.Equal(t, "(2, 2)", report.Args[0].Shape)
	assert.Nil(t, report.Args[0].Wires)
	assert.Equal(t, []int{2}, report.Args[1].Wires)
	assert.Equal(t, 1, report.Args[1].NumWires)

	require.Len(t, report.Layers, 1)
	assert.Equal(t, 2, report.Layers[0].Layers)
}

func TestValidateFirstRuleFailureWins(t *testing.T) {
	// Both the type rule and the shape rule fail; the type rule runs first.
	tpl := &Template{
		Name: "T",
		Args: []Arg{
			{Name: "w", Value: param.String("abc"), Rules: Rules{
				Types:   []param.Kind{param.KindSeq},
				Shape:   &ShapeRule{Dims: check.Shape{3}},
				Message: "XXX",
			}},
			{Name: "ok", Value: param.Int(1)},
		},
	}

	report := Validate(tpl)
	assert.False(t, report.Valid())
	assert.Equal(t, 1, report.Failures())
	assert.Equal(t, check.CodeTypeMismatch, report.Args[0].Code)
	assert.Contains(t, report.Args[0].Error, "XXX")
	assert.True(t, report.Args[1].OK)
}

func TestValidateMessageOnUnmessagedChecks(t *testing.T) {
	tpl := &Template{
		Name: "T",
		Args: []Arg{
			{Name: "wires", Value: param.Int(-1), Rules: Rules{Wires: true, Message: "wires of the ansatz"}},
			{Name: "mode", Value: param.String("q"), Rules: Rules{
				Options: []param.Value{param.String("a")},
				Message: "mode of the ansatz",
			}},
		},
	}

	report := Validate(tpl)
	assert.Equal(t, check.CodeInvalidWires, report.Args[0].Code)
	assert.Contains(t, report.Args[0].Error, "wires of the ansatz")
	assert.Equal(t, check.CodeNotInOptions, report.Args[1].Code)
	assert.Contains(t, report.Args[1].Error, "mode of the ansatz")
}

func TestValidateNoSymbolic(t *testing.T) {
	tpl := &Template{
		Name: "T",
		Args: []Arg{
			{Name: "features", Value: param.Seq{param.Float(1), param.NewSymbol("x", nil)},
				Rules: Rules{NoSymbolic: true}},
		},
	}

	report := Validate(tpl)
	assert.Equal(t, check.CodeSymbolicValue, report.Args[0].Code)
	assert.Contains(t, report.Args[0].Error, "features")
}

func TestValidateFingerprintSkipsNonFinite(t *testing.T) {
	tpl := &Template{
		Name: "T",
		Args: []Arg{{Name: "x", Value: param.Float(nan())}},
	}

	report := Validate(tpl)
	assert.Empty(t, report.Fingerprint)
	assert.True(t, report.Valid())
}

func nan() float64 {
	zero := 0.0
	return zero / zero
}

func TestLoadFile(t *testing.T) {
	templates, err := LoadFile(filepath.Join("testdata", "manifests", "entangling.cue"))
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "StronglyEntanglingLayers", templates[0].Name)
	assert.Equal(t, filepath.Join("testdata", "manifests", "entangling.cue"), templates[0].Source)
}

func TestLoadDir(t *testing.T) {
	result, errs := Load(filepath.Join("testdata", "manifests"), LoadModeCollectAll)
	require.Empty(t, errs)
	assert.Equal(t, 2, result.FileCount)
	require.Len(t, result.Templates, 2)

	// Lexical file order: embedding.yaml, entangling.cue
	assert.Equal(t, "AngleEmbedding", result.Templates[0].Name)
	assert.Equal(t, "StronglyEntanglingLayers", result.Templates[1].Name)
}

func TestLoadErrors(t *testing.T) {
	_, errs := Load("/nonexistent/manifests", LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNotFound)

	empty := t.TempDir()
	_, errs = Load(empty, LoadModeFailFast)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0].Error(), ErrCodeNoFiles)
}

func TestLoadCollectAllKeepsGoodTemplates(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte("templates: []\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.cue"), []byte(`template: T: args: w: { value: 1 }`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.cue"), []byte(`template: {`), 0644))

	result, errs := Load(dir, LoadModeCollectAll)
	require.Len(t, errs, 2)
	require.Len(t, result.Templates, 1)
	assert.Equal(t, "T", result.Templates[0].Name)

	var le *LoadError
	require.True(t, errors.As(errs[0], &le))
	assert.Equal(t, ErrCodeCompile, le.Code)
	require.True(t, errors.As(errs[1], &le))
	assert.Equal(t, ErrCodeLoadFailed, le.Code)

	_, errs = Load(dir, LoadModeFailFast)
	assert.Len(t, errs, 1)
}

func TestReportGolden(t *testing.T) {
	tests := []struct {
		golden string
		file   string
	}{
		{"entangling_layers_valid", "entangling.cue"},
		{"angle_embedding_invalid", "embedding.yaml"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)

	for _, tt := range tests {
		t.Run(tt.golden, func(t *testing.T) {
			templates, err := LoadFile(filepath.Join("testdata", "manifests", tt.file))
			require.NoError(t, err)
			require.Len(t, templates, 1)

			var buf bytes.Buffer
			require.NoError(t, Validate(templates[0]).WriteText(&buf))
			g.Assert(t, tt.golden, buf.Bytes())
		})
	}
}
