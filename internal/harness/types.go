package harness

import (
	"fmt"
	"io"
	"strings"
)

// Result is the outcome of running a suite.
type Result struct {
	// Suite is the suite name.
	Suite string `json:"suite"`

	// Pass indicates every case passed.
	Pass bool `json:"pass"`

	// Cases holds one result per case, in suite order.
	Cases []CaseResult `json:"cases"`
}

// CaseResult is the outcome of one case.
type CaseResult struct {
	Name  string `json:"name"`
	Check string `json:"check"`
	Pass  bool   `json:"pass"`

	// Got describes what the check returned: its result or its rendered error.
	Got string `json:"got"`

	// Errors lists failed expectations. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(suite string) *Result {
	return &Result{
		Suite: suite,
		Pass:  true,
		Cases: []CaseResult{},
	}
}

// Add appends a case result and marks the suite failed if the case failed.
func (r *Result) Add(cr CaseResult) {
	if !cr.Pass {
		r.Pass = false
	}
	r.Cases = append(r.Cases, cr)
}

// Counts returns the number of passed and failed cases.
func (r *Result) Counts() (passed, failed int) {
	for _, c := range r.Cases {
		if c.Pass {
			passed++
		} else {
			failed++
		}
	}
	return passed, failed
}

// WriteText renders the result for humans. Output is deterministic.
func (r *Result) WriteText(w io.Writer) error {
	var b strings.Builder

	passed, failed := r.Counts()
	fmt.Fprintf(&b, "suite %s: %d passed, %d failed\n", r.Suite, passed, failed)
	for _, c := range r.Cases {
		status := "PASS"
		if !c.Pass {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %s %s/%s: %s\n", status, c.Check, c.Name, c.Got)
		for _, e := range c.Errors {
			fmt.Fprintf(&b, "       %s\n", e)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
