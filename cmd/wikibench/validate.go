package main

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/spachava753/wikibench/internal/config"
	"github.com/spachava753/wikibench/internal/models"
	"github.com/spachava753/wikibench/internal/scoring"
	"github.com/spachava753/wikibench/internal/validate"
)

func newValidateCmd() *cobra.Command {
	fetch := config.DefaultRunConfig().Fetch
	var (
		startURL   string
		targetPage string
		strict     bool
		failExit   bool
	)
	cmd := &cobra.Command{
		Use:   "validate <start-page> <page>...",
		Short: "Check a path hop by hop against live Wikipedia links",
		Example: `  wikibench validate Bradawl Woodworking "United States" Hollywood "Kevin Bacon"
  wikibench validate --strict Bradawl Woodworking "Kevin Bacon"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newWikiClient(fetch, nil)
			if err != nil {
				return err
			}
			v := validate.New(client,
				validate.WithSampleSize(fetch.SampleSize),
				validate.WithLogger(slog.Default()),
			)

			start := models.Page{Title: args[0], URL: startURL}
			path := args[1:]
			verdict := v.Validate(cmd.Context(), start, path)

			outcome := scoring.Classify(path, targetPage, models.ModeToolUse, &verdict)
			score, _ := scoring.NewScorer().Score(path, outcome)

			out := cmd.OutOrStdout()
			printVerdict(out, start, path, verdict, score)

			valid := verdict.Valid
			if strict {
				exact := client.IsValidPath(cmd.Context(), args)
				fmt.Fprintf(out, "\nStrict check (exact titles): %s\n", validLabel(exact))
				valid = valid && exact
			}
			if failExit && !valid {
				return errors.New("path is invalid")
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&startURL, "start-url", "", "URL of the start page (derived from the title if empty)")
	f.StringVar(&targetPage, "target-page", config.DefaultTargetPage, "target page, used for the score")
	f.BoolVar(&strict, "strict", false, "also run the exact-title bulk check")
	f.BoolVar(&failExit, "fail", false, "exit non-zero when the path is invalid")
	f.StringVar(&fetch.BaseURL, "base-url", fetch.BaseURL, "wiki site root")
	f.Float64Var(&fetch.TimeoutSec, "timeout", fetch.TimeoutSec, "per-request timeout in seconds")
	f.Float64Var(&fetch.RequestsPerSecond, "requests-per-second", fetch.RequestsPerSecond, "request rate (0 disables the limiter)")
	f.IntVar(&fetch.SampleSize, "sample-size", fetch.SampleSize, "links listed for a missing hop")
	return cmd
}
