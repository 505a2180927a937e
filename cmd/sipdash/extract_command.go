package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/classifier"
	"github.com/lisaguthrie/sipdashboard/internal/pipeline"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var workers int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract goals for every school in the unit index",
		Long: "Reads each school's page range from its bucket's page-grid dump, assembles up to three goals,\n" +
			"normalizes focus groups and strategy summaries through the cache and classifier, and writes\n" +
			"schools.json, goals.txt, the normalization cache, and goals.db to the output directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if offline {
				cfg.Classifier.AllowNetwork = false
			}
			if workers > 0 {
				cfg.Extraction.Workers = workers
			}
			logger, err := ctx.runLogger()
			if err != nil {
				return err
			}

			set, err := classifier.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			summary, err := pipeline.New(cfg, set, logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, summary)
			}
			printRunSummary(cmd.OutOrStdout(), summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Never call the classifier; use cached values or defaults")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "Schools processed in parallel (default from config)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output the run summary as JSON")
	return cmd
}

func printRunSummary(out io.Writer, s pipeline.Summary) {
	extracted := s.Extracted()
	failed := s.Failed()
	partial := s.Partial()

	fmt.Fprintf(out, "Run %s finished in %s\n", s.RunID, s.Duration.Round(10*time.Millisecond))
	fmt.Fprintf(out, "Classifier online: %s\n", yesNo(s.Online))
	fmt.Fprintf(out, "Normalization: %d cache hits, %d classifier calls, %d failures", s.Stats.Hits, s.Stats.Calls, s.Stats.Failures)
	if s.Seeded > 0 {
		fmt.Fprintf(out, " (%d entries seeded from previous output)", s.Seeded)
	}
	fmt.Fprintln(out)

	fmt.Fprintf(out, "Successfully extracted %d school(s):\n", len(extracted))
	for _, name := range extracted {
		fmt.Fprintf(out, "  - %s\n", name)
	}
	if len(partial) > 0 {
		fmt.Fprintf(out, "Extracted with warnings (%d):\n", len(partial))
		for _, u := range s.Units {
			if u.Status == pipeline.StatusPartial {
				fmt.Fprintf(out, "  - %s: %s\n", u.Unit, strings.Join(u.Warnings, "; "))
			}
		}
	}
	if len(failed) > 0 {
		fmt.Fprintf(out, "Failed to extract %d school(s):\n", len(failed))
		for _, u := range s.Units {
			if u.Status == pipeline.StatusFailed {
				fmt.Fprintf(out, "  - %s: %s\n", u.Unit, u.Error)
			}
		}
	}

	fmt.Fprintln(out, "Outputs:")
	for _, a := range []struct {
		label    string
		path     string
		bytes    int
		unchanged bool
	}{
		{"schools", s.Report.Schools.Path, s.Report.Schools.Bytes, s.Report.Schools.Unchanged},
		{"flattened", s.Report.Flattened.Path, s.Report.Flattened.Bytes, s.Report.Flattened.Unchanged},
	} {
		state := "written"
		if a.unchanged {
			state = "unchanged"
		}
		fmt.Fprintf(out, "  %-10s %s (%d bytes, %s)\n", a.label, a.path, a.bytes, state)
	}
	if c := s.Report.Cache; c != nil {
		fmt.Fprintf(out, "  %-10s %s (%d bytes)\n", "cache", c.Path, c.Bytes)
	}
	fmt.Fprintf(out, "  %-10s %d goals stored\n", "goal store", s.Stored)
}
