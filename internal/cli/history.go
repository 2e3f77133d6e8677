package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/tplcheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Fingerprint string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [template]",
		Short: "List recorded validation runs",
		Long: `List validation runs recorded by "tplcheck check --db".

Runs are listed in recording order. With a template name, only that
template's runs are shown. With --fingerprint, only the latest run for
those exact argument values is shown.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			template := ""
			if len(args) == 1 {
				template = args[0]
			}
			return runHistory(opts, template, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Fingerprint, "fingerprint", "", "show the latest run with this argument fingerprint")

	return cmd
}

func runHistory(opts *HistoryOptions, template string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Database == "" {
		return outputCommandError(formatter, ErrCodeDatabase, "--db is required")
	}
	if _, err := os.Stat(opts.Database); os.IsNotExist(err) {
		return outputCommandError(formatter, ErrCodeDatabase, fmt.Sprintf("database not found: %s", opts.Database))
	}

	s, err := store.Open(opts.Database)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	defer s.Close()

	var runs []store.Run
	if opts.Fingerprint != "" {
		run, ok, err := s.LatestByFingerprint(cmd.Context(), opts.Fingerprint)
		if err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
		runs = []store.Run{}
		if ok && (template == "" || run.Template == template) {
			runs = append(runs, run)
		}
	} else {
		runs, err = s.ReadRuns(cmd.Context(), template)
		if err != nil {
			return outputCommandError(formatter, ErrCodeDatabase, err.Error())
		}
	}

	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	if len(runs) == 0 {
		fmt.Fprintln(formatter.Writer, "no runs recorded")
		return nil
	}
	for _, r := range runs {
		status := "valid"
		if !r.Valid {
			status = fmt.Sprintf("invalid (%d failed)", r.Failures)
		}
		fmt.Fprintf(formatter.Writer, "%d  %s  %s  %s  %s\n", r.Seq, r.ID, shortFingerprint(r.Fingerprint), r.Template, status)
	}
	if opts.Fingerprint != "" {
		return nil
	}

	count, err := s.Count(cmd.Context(), template)
	if err != nil {
		return outputCommandError(formatter, ErrCodeDatabase, err.Error())
	}
	fmt.Fprintf(formatter.Writer, "\n%d run(s) of %d template(s), %d invalid\n", count.Runs, count.Templates, count.Invalid)
	return nil
}

func shortFingerprint(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	if fp == "" {
		return "-"
	}
	return fp
}
