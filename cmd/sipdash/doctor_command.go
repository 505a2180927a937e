package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/preflight"
)

func newDoctorCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check inputs, output directories, and classifier access",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			failed := preflight.Failed(results)

			if asJSON {
				if err := writeJSON(cmd, results); err != nil {
					return err
				}
			} else {
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Config: %s\n", ctx.configPath)
				for _, line := range renderResults("Preflight", results, shouldColorize(out)) {
					fmt.Fprintln(out, line)
				}
			}
			if len(failed) > 0 {
				names := make([]string, 0, len(failed))
				for _, r := range failed {
					names = append(names, r.Name)
				}
				return fmt.Errorf("%d check(s) failed: %s", len(failed), strings.Join(names, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output results as JSON")
	return cmd
}
