package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/goalstore"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var filter goalstore.Filter
	var limit int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search [query...]",
		Short: "Search stored goals by text and filters",
		Long: "Ranks goals in goals.db against the query words. Without a query every goal matching\n" +
			"the filters is listed in extraction order.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.Paths.OutputDir, goalstore.FileName)
			if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("no goal store at %s; run `sipdash extract` first", path)
			}
			store, err := goalstore.Open(cmd.Context(), path)
			if err != nil {
				return err
			}
			defer store.Close()

			query := strings.TrimSpace(strings.Join(args, " "))
			var hits []goalstore.Hit
			if query == "" {
				records, err := store.Goals(cmd.Context(), filter)
				if err != nil {
					return err
				}
				for _, r := range records {
					hits = append(hits, goalstore.Hit{Record: r})
				}
				if limit > 0 && len(hits) > limit {
					hits = hits[:limit]
				}
			} else {
				hits, err = store.Search(cmd.Context(), query, filter, limit)
				if err != nil {
					return err
				}
			}

			if asJSON {
				if hits == nil {
					hits = []goalstore.Hit{}
				}
				return writeJSON(cmd, hits)
			}
			out := cmd.OutOrStdout()
			if len(hits) == 0 {
				fmt.Fprintln(out, "No matching goals")
				return nil
			}
			fmt.Fprintln(out, renderHits(hits, query != ""))
			return nil
		},
	}

	cmd.Flags().StringVar(&filter.Area, "area", "", "Goal area (Math, ELA, SEL, ...)")
	cmd.Flags().StringVar(&filter.Level, "level", "", "School level or bucket (elementary, middle, high)")
	cmd.Flags().StringVar(&filter.FocusGrades, "grades", "", "Focus grades substring")
	cmd.Flags().StringVar(&filter.StudentGroup, "group", "", "Focus student group substring")
	cmd.Flags().StringVar(&filter.School, "school", "", "School name substring")
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum results (0 for all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}

func renderHits(hits []goalstore.Hit, scored bool) string {
	columns := []column{
		{header: "ID"},
		{header: "School"},
		{header: "Area"},
		{header: "Grades"},
		{header: "Group"},
		{header: "Outcome", maxWidth: 48},
	}
	if scored {
		columns = append(columns, column{header: "Score", align: alignRight})
	}
	rows := make([][]string, 0, len(hits))
	for _, h := range hits {
		row := []string{h.ID, h.School, h.Area, h.FocusGrades, h.FocusStudentGroup, h.Outcome}
		if scored {
			row = append(row, strconv.FormatFloat(h.Score, 'f', 3, 64))
		}
		rows = append(rows, row)
	}
	return renderTable(columns, rows)
}
