package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/goals"
	"github.com/lisaguthrie/sipdashboard/internal/output"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show [school]",
		Short: "Print extracted goals from the last run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path := cfg.OutputPath(output.SchoolsName)
			schools, err := output.ReadSchools(path)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("no extracted goals at %s; run `sipdash extract` first", path)
				}
				return err
			}
			if len(args) == 1 {
				schools, err = selectSchool(schools, args[0])
				if err != nil {
					return err
				}
			}
			if asJSON {
				return writeJSON(cmd, schools)
			}
			if len(schools) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No schools extracted")
				return nil
			}
			_, err = cmd.OutOrStdout().Write(output.Flatten(schools))
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output school records as JSON")
	return cmd
}

// selectSchool matches name case-insensitively, first exactly and then as a
// unique substring.
func selectSchool(schools []goals.School, name string) ([]goals.School, error) {
	name = strings.Join(strings.Fields(name), " ")
	for _, s := range schools {
		if strings.EqualFold(s.Name, name) {
			return []goals.School{s}, nil
		}
	}
	var matches []goals.School
	lower := strings.ToLower(name)
	for _, s := range schools {
		if strings.Contains(strings.ToLower(s.Name), lower) {
			matches = append(matches, s)
		}
	}
	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("no extracted school matches %q", name)
	case 1:
		return matches, nil
	default:
		names := make([]string, 0, len(matches))
		for _, s := range matches {
			names = append(names, s.Name)
		}
		return nil, fmt.Errorf("%q matches %d schools: %s", name, len(matches), strings.Join(names, ", "))
	}
}
