package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/tplcheck/internal/manifest"
	"github.com/roach88/tplcheck/internal/store"
)

// CheckOptions holds flags for the check command.
type CheckOptions struct {
	*RootOptions
	KeepGoing bool
	Template  string

	// IDs generates run IDs when recording history. Defaults to UUIDv7.
	IDs store.IDGenerator
}

// CheckResult is the JSON payload of the check command.
type CheckResult struct {
	Valid   bool               `json:"valid"`
	Files   int                `json:"files"`
	Reports []*manifest.Report `json:"reports"`
	Runs    []string           `json:"runs,omitempty"`
}

// NewCheckCommand creates the check command.
func NewCheckCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CheckOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "check <manifest-path>",
		Short: "Validate template arguments declared in manifests",
		Long: `Load CUE or YAML manifests from a file or directory and validate every
template's arguments against their declared rules.

Exit status is 0 when every template is valid, 1 when any argument or layer
group fails, and 2 when manifests cannot be loaded.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.KeepGoing, "keep-going", "k", false, "validate every loadable manifest instead of stopping at the first load error")
	cmd.Flags().StringVarP(&opts.Template, "template", "t", "", "only validate the named template")

	return cmd
}

func runCheck(opts *CheckOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	mode := manifest.LoadModeFailFast
	if opts.KeepGoing {
		mode = manifest.LoadModeCollectAll
	}

	loadResult, loadErrors := manifest.Load(path, mode)
	if len(loadErrors) > 0 && (loadResult == nil || !opts.KeepGoing || len(loadResult.Templates) == 0) {
		return outputLoadError(formatter, loadErrors[0])
	}
	for _, err := range loadErrors {
		logger.Warn("skipping manifest", "error", err)
	}

	formatter.VerboseLog("Found %d manifest file(s) in %s", loadResult.FileCount, path)

	templates := loadResult.Templates
	if opts.Template != "" {
		templates = filterTemplates(templates, opts.Template)
		if len(templates) == 0 {
			return outputCommandError(formatter, manifest.ErrCodeGeneric,
				fmt.Sprintf("template %q not found in %s", opts.Template, path))
		}
	}

	validator := manifest.NewValidator(logger)
	result := CheckResult{Valid: true, Files: loadResult.FileCount}
	for _, t := range templates {
		report := validator.Validate(t)
		if !report.Valid() {
			result.Valid = false
		}
		result.Reports = append(result.Reports, report)
	}

	if opts.Database != "" {
		ids, err := recordReports(cmd, opts, result.Reports)
		if err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
		result.Runs = ids
		logger.Debug("recorded runs", "db", opts.Database, "count", len(ids))
	}

	if err := outputCheck(formatter, result); err != nil {
		return err
	}

	// Templates that failed to load still make the command fail.
	if len(loadErrors) > 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("%d manifest(s) failed to load", len(loadErrors)))
	}
	if !result.Valid {
		return NewExitError(ExitFailure, fmt.Sprintf("%d template(s) invalid", countInvalid(result.Reports)))
	}
	return nil
}

func recordReports(cmd *cobra.Command, opts *CheckOptions, reports []*manifest.Report) ([]string, error) {
	s, err := store.Open(opts.Database)
	if err != nil {
		return nil, err
	}
	defer s.Close()

	gen := opts.IDs
	if gen == nil {
		gen = store.UUIDv7Generator{}
	}
	runs, err := s.RecordReports(cmd.Context(), gen, reports)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(runs))
	for i, r := range runs {
		ids[i] = r.ID
	}
	return ids, nil
}

func filterTemplates(templates []*manifest.Template, name string) []*manifest.Template {
	var out []*manifest.Template
	for _, t := range templates {
		if t.Name == name {
			out = append(out, t)
		}
	}
	return out
}

func countInvalid(reports []*manifest.Report) int {
	n := 0
	for _, r := range reports {
		if !r.Valid() {
			n++
		}
	}
	return n
}

func outputCheck(formatter *OutputFormatter, result CheckResult) error {
	if formatter.Format == "json" {
		if result.Valid {
			return formatter.Success(result)
		}
		code, msg := firstFailure(result.Reports)
		return formatter.Failure(result, code, msg)
	}

	for i, r := range result.Reports {
		if i > 0 {
			fmt.Fprintln(formatter.Writer)
		}
		if err := r.WriteText(formatter.Writer); err != nil {
			return err
		}
	}
	if len(result.Runs) > 0 {
		fmt.Fprintf(formatter.Writer, "\nrecorded %d run(s): %s\n", len(result.Runs), strings.Join(result.Runs, ", "))
	}
	return nil
}

// firstFailure returns the code and error text of the first failing
// argument or layer group across reports.
func firstFailure(reports []*manifest.Report) (string, string) {
	for _, r := range reports {
		for _, a := range r.Args {
			if !a.OK {
				return a.Code, fmt.Sprintf("%s.%s: %s", r.Template, a.Name, a.Error)
			}
		}
		for _, l := range r.Layers {
			if !l.OK {
				return l.Code, fmt.Sprintf("%s.layers.%s: %s", r.Template, l.Name, l.Error)
			}
		}
	}
	return "", ""
}

func outputLoadError(formatter *OutputFormatter, err error) error {
	var loadErr *manifest.LoadError
	if errors.As(err, &loadErr) {
		msg := loadErr.Message
		switch {
		case loadErr.Pos.IsValid():
			msg = fmt.Sprintf("%s:%d:%d: %s", loadErr.Pos.Filename(), loadErr.Pos.Line(), loadErr.Pos.Column(), msg)
		case loadErr.File != "":
			msg = loadErr.File + ": " + msg
		}
		return outputCommandError(formatter, loadErr.Code, msg)
	}
	return outputCommandError(formatter, manifest.ErrCodeGeneric, err.Error())
}

// outputCommandError reports a command-level error (exit code 2).
func outputCommandError(formatter *OutputFormatter, code, message string) error {
	_ = formatter.Error(code, message, nil)
	return NewExitError(ExitCommandError, fmt.Sprintf("%s: %s", code, message))
}
