package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tplcheck/internal/check"
)

// WiresResult is the JSON payload of the wires command.
type WiresResult struct {
	Wires    []int `json:"wires"`
	NumWires int   `json:"num_wires"`
}

// NewWiresCommand creates the wires command.
func NewWiresCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValueOptions{}

	cmd := &cobra.Command{
		Use:   "wires <value>",
		Short: "Normalize a wire specification",
		Long: `Normalize a wire specification to an ordered list of wire indices.

A single non-negative integer is one wire; a list of non-negative integers
is kept as given. Anything else fails.`,
		Example: `  tplcheck wires 3
  tplcheck wires '[0, 2, 1]'`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWires(rootOpts, opts, args[0], cmd)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

func runWires(rootOpts *RootOptions, opts *ValueOptions, arg string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)

	v, err := opts.decode(arg)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadInput, err.Error())
	}

	wires, n, err := check.CheckWires(v)
	if err != nil {
		return formatter.ValidationFailure(nil, err)
	}

	result := WiresResult{Wires: []int(wires), NumWires: n}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "wires=%s n=%d\n", formatInts(result.Wires), n)
	return nil
}

func formatInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
