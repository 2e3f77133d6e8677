package manifest

import (
	"fmt"
	"io"
	"strings"
)

// Report is the outcome of validating one Template.
type Report struct {
	Template    string        `json:"template"`
	Source      string        `json:"source,omitempty"`
	Fingerprint string        `json:"fingerprint,omitempty"`
	Args        []ArgResult   `json:"args"`
	Layers      []LayerResult `json:"layers,omitempty"`
}

// ArgResult is the outcome for one argument.
type ArgResult struct {
	Name     string `json:"name"`
	OK       bool   `json:"ok"`
	Shape    string `json:"shape"`
	Wires    []int  `json:"wires,omitempty"`
	NumWires int    `json:"num_wires,omitempty"`
	Code     string `json:"code,omitempty"`
	Error    string `json:"error,omitempty"`
}

// LayerResult is the outcome for one layer group.
type LayerResult struct {
	Name   string   `json:"name"`
	Args   []string `json:"args"`
	OK     bool     `json:"ok"`
	Layers int      `json:"layers,omitempty"`
	Code   string   `json:"code,omitempty"`
	Error  string   `json:"error,omitempty"`
}

// Valid reports whether every argument and layer group passed.
func (r *Report) Valid() bool {
	return r.Failures() == 0
}

// Failures counts failing arguments and layer groups.
func (r *Report) Failures() int {
	n := 0
	for _, a := range r.Args {
		if !a.OK {
			n++
		}
	}
	for _, l := range r.Layers {
		if !l.OK {
			n++
		}
	}
	return n
}

// WriteText renders the report for humans. Output is deterministic.
func (r *Report) WriteText(w io.Writer) error {
	var b strings.Builder

	if r.Valid() {
		fmt.Fprintf(&b, "template %s: valid\n", r.Template)
	} else {
		fmt.Fprintf(&b, "template %s: invalid (%d failed)\n", r.Template, r.Failures())
	}

	for _, a := range r.Args {
		if a.OK {
			fmt.Fprintf(&b, "  ok   %s shape=%s", a.Name, a.Shape)
			if a.Wires != nil {
				fmt.Fprintf(&b, " wires=%s n=%d", joinInts(a.Wires), a.NumWires)
			}
			b.WriteByte('\n')
			continue
		}
		fmt.Fprintf(&b, "  FAIL %s shape=%s: %s\n", a.Name, a.Shape, a.Error)
	}

	for _, l := range r.Layers {
		if l.OK {
			fmt.Fprintf(&b, "  ok   layers %s [%s] layers=%d\n", l.Name, strings.Join(l.Args, ", "), l.Layers)
			continue
		}
		fmt.Fprintf(&b, "  FAIL layers %s [%s]: %s\n", l.Name, strings.Join(l.Args, ", "), l.Error)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
