package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/config"
	"github.com/lisaguthrie/sipdashboard/internal/fileutil"
	"github.com/lisaguthrie/sipdashboard/internal/preflight"
	"github.com/lisaguthrie/sipdashboard/internal/unitindex"
)

func newIndexCommand(ctx *commandContext) *cobra.Command {
	indexCmd := &cobra.Command{
		Use:   "index",
		Short: "Build and validate the unit index",
	}

	indexCmd.AddCommand(newIndexParseCommand(ctx))
	indexCmd.AddCommand(newIndexCheckCommand(ctx))

	return indexCmd
}

func newIndexParseCommand(ctx *commandContext) *cobra.Command {
	var outPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:   "parse <table-of-contents.txt>",
		Short: "Convert a text table of contents into the JSON unit index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			src, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open table of contents: %w", err)
			}
			defer src.Close()

			idx, err := unitindex.ParseText(src)
			if err != nil {
				return err
			}
			if idx.Len() == 0 {
				return fmt.Errorf("%s lists no schools under an \"Appendix: <Level> School\" header", args[0])
			}

			target := strings.TrimSpace(outPath)
			if target == "" {
				target = cfg.Paths.IndexFile
			} else if target, err = config.ExpandPath(target); err != nil {
				return fmt.Errorf("resolve output path: %w", err)
			}
			if !overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("unit index already exists at %s (use --overwrite to replace it)", target)
				}
			}

			data, err := json.MarshalIndent(idx, "", "  ")
			if err != nil {
				return fmt.Errorf("encode unit index: %w", err)
			}
			if err := fileutil.WriteFileAtomic(target, append(data, '\n'), 0o644); err != nil {
				return fmt.Errorf("write unit index: %w", err)
			}

			counts := make([]string, 0, len(unitindex.Buckets))
			for _, bucket := range unitindex.Buckets {
				counts = append(counts, fmt.Sprintf("%d %s", len(idx.Bucket(bucket)), bucket))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d schools (%s) to %s\n", idx.Len(), strings.Join(counts, ", "), target)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Destination for the JSON index (default paths.index_file)")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing index")
	return cmd
}

func newIndexCheckCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate index page ranges against the configured PDFs and grids",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := checkIndex(cfg)
			failed := preflight.Failed(results)
			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				for _, line := range renderResults("Unit index", results, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("unit index check failed (%d problem(s))", len(failed))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}

func checkIndex(cfg *config.Config) []preflight.Result {
	result, idx := preflight.CheckIndex(cfg.Paths.IndexFile)
	results := []preflight.Result{result}
	if idx == nil {
		return results
	}
	for _, e := range idx.Entries {
		if err := e.Validate(); err != nil {
			results = append(results, preflight.Result{Name: "Entry", Detail: err.Error()})
		}
	}
	for _, bucket := range config.Buckets {
		entries := idx.Bucket(bucket)
		if len(entries) == 0 {
			continue
		}
		if path, ok := cfg.PDFPath(bucket); ok {
			results = append(results, preflight.CheckPDFRanges(bucket, path, entries))
		}
		if path, ok := cfg.GridPath(bucket); ok {
			results = append(results, preflight.CheckGrid(bucket, path, entries))
		}
	}
	return results
}
