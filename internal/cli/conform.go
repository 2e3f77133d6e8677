package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/tplcheck/internal/harness"
)

// ConformResult is the JSON payload of the conform command.
type ConformResult struct {
	Pass   bool              `json:"pass"`
	Passed int               `json:"passed"`
	Failed int               `json:"failed"`
	Suites []*harness.Result `json:"suites"`
}

// NewConformCommand creates the conform command.
func NewConformCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "conform <suite-path>",
		Short: "Run conformance suites against the checks",
		Long: `Run YAML conformance suites against the validation checks.

A suite lists cases, each naming a check, a value, the check's parameters
and the expected outcome. Every case runs twice and must produce the same
outcome both times. Accepts a single suite file or a directory of suites.`,
		Example: `  tplcheck conform ./suites
  tplcheck conform ./suites/wires.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConform(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runConform(rootOpts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(rootOpts, cmd)
	logger := newLogger(rootOpts, formatter.GetErrWriter())

	suites, err := harness.LoadSuites(path)
	if err != nil {
		return outputCommandError(formatter, ErrCodeBadInput, err.Error())
	}

	h := harness.New(logger)
	result := ConformResult{Pass: true, Suites: make([]*harness.Result, 0, len(suites))}
	for _, suite := range suites {
		r, err := h.Run(suite)
		if err != nil {
			return outputCommandError(formatter, ErrCodeBadInput, err.Error())
		}
		passed, failed := r.Counts()
		result.Passed += passed
		result.Failed += failed
		result.Pass = result.Pass && r.Pass
		result.Suites = append(result.Suites, r)
	}

	message := fmt.Sprintf("%d of %d cases failed", result.Failed, result.Passed+result.Failed)

	if formatter.Format == "json" {
		if result.Pass {
			return formatter.Success(result)
		}
		if err := formatter.Failure(result, ErrCodeConform, message); err != nil {
			return err
		}
		return NewExitError(ExitFailure, message)
	}

	for _, r := range result.Suites {
		if err := r.WriteText(formatter.Writer); err != nil {
			return err
		}
	}
	if !result.Pass {
		fmt.Fprintln(formatter.Writer, message)
		return NewExitError(ExitFailure, message)
	}
	fmt.Fprintf(formatter.Writer, "all %d cases passed\n", result.Passed)
	return nil
}
