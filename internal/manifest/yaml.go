package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/roach88/tplcheck/internal/param"
)

// yamlFile is the top-level layout of a YAML manifest.
type yamlFile struct {
	Templates []yamlTemplate `yaml:"templates"`
}

type yamlTemplate struct {
	Name   string      `yaml:"name"`
	Args   []yamlArg   `yaml:"args"`
	Layers []yamlLayer `yaml:"layers,omitempty"`
}

type yamlArg struct {
	Name       string    `yaml:"name"`
	Value      yaml.Node `yaml:"value"`
	Types      []string  `yaml:"types,omitempty"`
	Options    []any     `yaml:"options,omitempty"`
	NoSymbolic bool      `yaml:"no_symbolic,omitempty"`
	Wires      bool      `yaml:"wires,omitempty"`
	Shape      *[]int    `yaml:"shape,omitempty"`
	Bound      string    `yaml:"bound,omitempty"`
	Message    string    `yaml:"message,omitempty"`
}

type yamlLayer struct {
	Name string   `yaml:"name"`
	Args []string `yaml:"args"`
}

// DecodeYAML parses a YAML manifest holding a "templates" list.
// Unknown keys are rejected.
func DecodeYAML(data []byte) ([]*Template, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var file yamlFile
	if err := dec.Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, &CompileError{Field: "templates", Message: "empty manifest"}
		}
		return nil, &CompileError{Field: "yaml", Message: err.Error()}
	}
	if len(file.Templates) == 0 {
		return nil, &CompileError{Field: "templates", Message: "no templates defined"}
	}

	templates := make([]*Template, 0, len(file.Templates))
	for i, yt := range file.Templates {
		t, err := compileYAMLTemplate(yt)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				ce.Field = fmt.Sprintf("templates[%d].%s", i, ce.Field)
			}
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, nil
}

func compileYAMLTemplate(yt yamlTemplate) (*Template, error) {
	t := &Template{Name: yt.Name}

	for _, ya := range yt.Args {
		field := "args." + ya.Name
		if ya.Value.Kind == 0 {
			return nil, &CompileError{Field: field + ".value", Message: "value is required"}
		}

		var raw any
		if err := ya.Value.Decode(&raw); err != nil {
			return nil, &CompileError{Field: field + ".value", Message: err.Error(), Line: ya.Value.Line}
		}
		value, err := param.FromDecoded(raw)
		if err != nil {
			return nil, &CompileError{Field: field + ".value", Message: err.Error(), Line: ya.Value.Line}
		}

		rr := rawRules{
			Types:      ya.Types,
			NoSymbolic: ya.NoSymbolic,
			Wires:      ya.Wires,
			Bound:      ya.Bound,
			Message:    ya.Message,
		}
		if ya.Shape != nil {
			rr.HasShape = true
			rr.Shape = *ya.Shape
		}
		for i, opt := range ya.Options {
			ov, err := param.FromDecoded(opt)
			if err != nil {
				return nil, &CompileError{Field: fmt.Sprintf("%s.options[%d]", field, i), Message: err.Error()}
			}
			rr.Options = append(rr.Options, ov)
		}

		rules, err := buildRules(field, rr)
		if err != nil {
			var ce *CompileError
			if errors.As(err, &ce) {
				ce.Line = ya.Value.Line
			}
			return nil, err
		}
		t.Args = append(t.Args, Arg{Name: ya.Name, Value: value, Rules: rules})
	}

	for _, yl := range yt.Layers {
		t.Layers = append(t.Layers, LayerGroup{Name: yl.Name, Args: yl.Args})
	}

	if err := finish(t); err != nil {
		return nil, err
	}
	return t, nil
}
