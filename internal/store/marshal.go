package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/roach88/tplcheck/internal/manifest"
)

// marshalReport converts a report to JSON TEXT for storage.
// HTML escaping is disabled so error text is stored as rendered.
func marshalReport(r *manifest.Report) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("marshal report: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}

// UnmarshalReport parses the stored report of a run.
func (r Run) UnmarshalReport() (*manifest.Report, error) {
	var rep manifest.Report
	if err := json.Unmarshal(r.Report, &rep); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &rep, nil
}
