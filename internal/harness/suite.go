package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"facette.io/natsort"
	"gopkg.in/yaml.v3"
)

// Suite is a named list of conformance cases.
type Suite struct {
	// Name identifies the suite and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the suite covers.
	Description string `yaml:"description"`

	// Cases run in order.
	Cases []Case `yaml:"cases"`
}

// Case is one invocation of a check with its expected outcome.
type Case struct {
	Name  string    `yaml:"name"`
	Check string    `yaml:"check"`
	Value yaml.Node `yaml:"value"`

	// Parameters; which ones apply depends on Check.
	Shape   *[]int   `yaml:"shape,omitempty"`
	Bound   string   `yaml:"bound,omitempty"`
	Shapes  [][]int  `yaml:"shapes,omitempty"`
	Bounds  []string `yaml:"bounds,omitempty"`
	Names   []string `yaml:"names,omitempty"`
	Options []any    `yaml:"options,omitempty"`
	Types   []string `yaml:"types,omitempty"`
	Message string   `yaml:"message,omitempty"`

	// Model is the nesting that unflatten rebuilds the value into.
	Model yaml.Node `yaml:"model,omitempty"`

	Expect Expect `yaml:"expect"`
}

// Expect is the outcome a case must produce.
type Expect struct {
	// Error is the expected validation code (V101-V106), or ErrorAny for
	// checks that fail with a plain error. Empty means success.
	Error string `yaml:"error,omitempty"`

	// Contains must appear verbatim in the rendered error.
	Contains string `yaml:"contains,omitempty"`

	Shape  *[]int `yaml:"shape,omitempty"`
	Wires  *[]int `yaml:"wires,omitempty"`
	Count  *int   `yaml:"count,omitempty"`
	Layers *int   `yaml:"layers,omitempty"`
}

// Check names.
const (
	CheckShapeOf       = "shape_of"
	CheckStrictShapeOf = "strict_shape_of"
	CheckShape         = "shape"
	CheckShapes        = "shapes"
	CheckWires         = "wires"
	CheckLayers        = "layers"
	CheckNoSymbolic    = "no_symbolic"
	CheckOptions       = "options"
	CheckType          = "type"
	CheckFlatten       = "flatten"
	CheckUnflatten     = "unflatten"
)

// ErrorAny as Expect.Error accepts any error.
const ErrorAny = "any"

// LoadSuite reads and parses a suite YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadSuite(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read suite file: %w", err)
	}
	return ParseSuite(data)
}

// ParseSuite parses suite YAML.
func ParseSuite(data []byte) (*Suite, error) {
	var suite Suite
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&suite); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateSuite(&suite); err != nil {
		return nil, fmt.Errorf("invalid suite: %w", err)
	}
	return &suite, nil
}

// LoadSuites loads a single suite file or every .yaml/.yml suite in a
// directory, in natural order (suite2 before suite10).
func LoadSuites(path string) ([]*Suite, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		s, err := LoadSuite(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		return []*Suite{s}, nil
	}

	var files []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(path, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	natsort.Sort(files)
	if len(files) == 0 {
		return nil, fmt.Errorf("no suite files found in %s", path)
	}

	suites := make([]*Suite, 0, len(files))
	for _, f := range files {
		s, err := LoadSuite(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f, err)
		}
		suites = append(suites, s)
	}
	return suites, nil
}

// validateSuite checks that required fields are present and valid.
func validateSuite(s *Suite) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if len(s.Cases) == 0 {
		return fmt.Errorf("cases list is required and must be non-empty")
	}

	seen := make(map[string]bool, len(s.Cases))
	for i := range s.Cases {
		if err := validateCase(i, &s.Cases[i]); err != nil {
			return err
		}
		if seen[s.Cases[i].Name] {
			return fmt.Errorf("cases[%d]: duplicate case name %q", i, s.Cases[i].Name)
		}
		seen[s.Cases[i].Name] = true
	}
	return nil
}

// validateCase validates a single case based on its check.
func validateCase(index int, c *Case) error {
	if c.Name == "" {
		return fmt.Errorf("cases[%d]: name is required", index)
	}
	if c.Value.Kind == 0 {
		return fmt.Errorf("cases[%d]: value is required", index)
	}

	switch c.Check {
	case CheckShapeOf:
		if c.Expect.Shape == nil {
			return fmt.Errorf("cases[%d]: expect.shape is required for shape_of", index)
		}
	case CheckShape:
		if c.Shape == nil {
			return fmt.Errorf("cases[%d]: shape is required for shape", index)
		}
	case CheckShapes:
		if c.Shapes == nil {
			return fmt.Errorf("cases[%d]: shapes is required for shapes", index)
		}
	case CheckOptions:
		if len(c.Options) == 0 {
			return fmt.Errorf("cases[%d]: options is required for options", index)
		}
	case CheckType:
		if len(c.Types) == 0 {
			return fmt.Errorf("cases[%d]: types is required for type", index)
		}
	case CheckUnflatten:
		if c.Model.Kind == 0 {
			return fmt.Errorf("cases[%d]: model is required for unflatten", index)
		}
	case CheckStrictShapeOf, CheckWires, CheckLayers, CheckNoSymbolic, CheckFlatten:
	case "":
		return fmt.Errorf("cases[%d]: check is required", index)
	default:
		return fmt.Errorf("cases[%d]: unknown check %q", index, c.Check)
	}
	return nil
}
