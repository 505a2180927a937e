package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/normalize"
	"github.com/lisaguthrie/sipdashboard/internal/output"
	"github.com/lisaguthrie/sipdashboard/internal/textutil"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the normalization cache",
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheStatsCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func openCache(ctx *commandContext) (*normalize.Cache, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	return normalize.NewCache(cfg.OutputPath(normalize.SnapshotName), nil), nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	var school string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List cached focus groups and summaries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			entries := cache.List()
			if school = strings.TrimSpace(school); school != "" {
				kept := entries[:0]
				for _, e := range entries {
					if strings.Contains(strings.ToLower(e.Unit), strings.ToLower(school)) {
						kept = append(kept, e)
					}
				}
				entries = kept
			}
			if asJSON {
				return writeJSON(cmd, entries)
			}
			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "Normalization cache is empty")
				return nil
			}
			rows := make([][]string, 0, len(entries))
			for _, e := range entries {
				rows = append(rows, []string{e.Unit, string(e.Kind), cachedValue(e), string(e.Source), cachedAt(e)})
			}
			fmt.Fprintln(out, renderTable([]column{
				{header: "School"},
				{header: "Kind"},
				{header: "Value", maxWidth: 60},
				{header: "Source"},
				{header: "Cached"},
			}, rows))
			return nil
		},
	}

	cmd.Flags().StringVar(&school, "school", "", "Only entries for schools containing this text")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output entries as JSON")
	return cmd
}

func cachedValue(e normalize.Entry) string {
	if e.Kind == normalize.KindFocus && e.Focus != nil {
		return e.Focus.FocusGrades + " / " + e.Focus.FocusStudentGroup
	}
	return textutil.Truncate(e.Summary, 120)
}

func cachedAt(e normalize.Entry) string {
	if e.CachedAt.IsZero() {
		return "unknown"
	}
	return e.CachedAt.Local().Format("2006-01-02 15:04")
}

func newCacheStatsCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show normalization cache counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			stats := cache.Stats()
			if asJSON {
				return writeJSON(cmd, stats)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Snapshot: %s\n", cache.Path())
			fmt.Fprintf(out, "Entries:  %d (%d focus, %d summary)\n", stats.Total, stats.Focus, stats.Summary)
			sources := make([]string, 0, len(stats.BySource))
			for source := range stats.BySource {
				sources = append(sources, string(source))
			}
			sort.Strings(sources)
			for _, source := range sources {
				fmt.Fprintf(out, "  %-16s %d\n", source+":", stats.BySource[normalize.Source(source)])
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output counts as JSON")
	return cmd
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every cached classification",
		Long: "Empties the normalization cache. The next online extract classifies every goal again;\n" +
			"the previous schools.json is not used as a seed once the empty snapshot exists.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			lock, err := output.AcquireLock(cfg.Paths.OutputDir)
			if err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}
			defer lock.Release()

			cache, err := openCache(ctx)
			if err != nil {
				return err
			}
			before := cache.Count()
			if err := cache.Clear(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d cached entries\n", before)
			return nil
		},
	}
}
