package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tplcheck/internal/check"
)

// ShapeOptions holds flags for the shape command.
type ShapeOptions struct {
	*RootOptions
	ValueOptions
	Want  string
	Bound string
}

// ShapeResult is the JSON payload of the shape command.
type ShapeResult struct {
	Shape   check.Shape  `json:"shape"`
	Regular bool         `json:"regular"`
	Want    *check.Shape `json:"want,omitempty"`
	Bound   string       `json:"bound,omitempty"`
}

// NewShapeCommand creates the shape command.
func NewShapeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShapeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "shape <value>",
		Short: "Print the shape of a value and optionally check it",
		Long: `Print the nested shape of a JSON (or YAML) value.

The shape is inferred from each level's first element. A value whose
elements disagree in shape is reported as irregular and fails.

With --want, the value must have that shape; --bound min|max relaxes the
last dimension to a lower or upper bound.`,
		Example: `  tplcheck shape '[[0.1, 0.2], [0.3, 0.4]]'
  tplcheck shape --want 2 --bound max '[0.1, 0.2, 0.3]'
  tplcheck shape --want '' 0.5`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShape(opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	cmd.Flags().StringVar(&opts.Want, "want", "", "expected shape, comma separated; empty for a scalar")
	cmd.Flags().StringVar(&opts.Bound, "bound", "", "treat the last wanted dimension as a bound (min|max)")

	return cmd
}

func runShape(opts *ShapeOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	bound, err := check.ParseBound(opts.Bound)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadInput, err.Error())
	}
	wantSet := cmd.Flags().Changed("want")
	if bound != check.BoundNone && !wantSet {
		return outputCommandError(formatter, ErrCodeBadInput, "--bound requires --want")
	}

	var want check.Shape
	if wantSet {
		want, err = parseShape(opts.Want)
		if err != nil {
			return outputCommandError(formatter, ErrCodeBadInput, err.Error())
		}
	}

	v, err := opts.decode(arg)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadInput, err.Error())
	}

	result := ShapeResult{Shape: check.ShapeOf(v), Regular: true}
	if wantSet {
		result.Want = &want
		result.Bound = bound.String()
	}

	if _, err := check.StrictShapeOf(v); err != nil {
		result.Regular = false
		return shapeFailure(formatter, result, err)
	}
	if wantSet {
		if err := check.CheckShape(v, want, bound, ""); err != nil {
			return shapeFailure(formatter, result, err)
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "shape=%s\n", result.Shape)
	return nil
}

func shapeFailure(formatter *OutputFormatter, result ShapeResult, err error) error {
	if formatter.Format != "json" {
		fmt.Fprintf(formatter.Writer, "shape=%s\n", result.Shape)
	}
	return formatter.ValidationFailure(result, err)
}

// parseShape parses "2,3", "(2, 3)" or "" (scalar).
func parseShape(s string) (check.Shape, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	shape := check.Shape{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		d, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid shape %q: %w", s, err)
		}
		if d < 0 {
			return nil, fmt.Errorf("invalid shape %q: dimension %d is negative", s, d)
		}
		shape = append(shape, d)
	}
	return shape, nil
}
