package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/lisaguthrie/sipdashboard/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the sipdash configuration",
	}
	configCmd.AddCommand(
		newConfigInitCommand(),
		newConfigValidateCommand(ctx),
		newConfigShowCommand(ctx),
	)
	return configCmd
}

func newConfigInitCommand() *cobra.Command {
	var targetPath string
	var overwrite bool

	cmd := &cobra.Command{
		Use:         "init",
		Short:       "Write a sample configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			target, err := configTarget(targetPath)
			if err != nil {
				return err
			}
			if !overwrite {
				switch _, err := os.Stat(target); {
				case err == nil:
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				case !errors.Is(err, fs.ErrNotExist):
					return fmt.Errorf("check config path: %w", err)
				}
			}
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("create config directory: %w", err)
			}
			if err := config.CreateSample(target); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote sample configuration to %s\n", target)
			fmt.Fprintln(out, "Next: point [documents.grids] at the page-grid dumps, then export ANTHROPIC_API_KEY or run `sipdash extract --offline`.")
			return nil
		},
	}
	cmd.Flags().StringVarP(&targetPath, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing configuration file")
	return cmd
}

// configTarget resolves the init destination, defaulting to the user config
// location.
func configTarget(flag string) (string, error) {
	if flag = strings.TrimSpace(flag); flag == "" {
		path, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return path, nil
	}
	path, err := config.ExpandPath(flag)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	return path, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load the configuration and report what a run would use",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			printConfigSummary(cmd.OutOrStdout(), ctx.configPath, cfg)
			return nil
		},
	}
}

func printConfigSummary(out io.Writer, path string, cfg *config.Config) {
	fmt.Fprintf(out, "Config path: %s\n", path)
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintln(out, "Config file did not exist; defaults were used")
	}
	fmt.Fprintf(out, "Unit index:  %s\n", cfg.Paths.IndexFile)
	fmt.Fprintf(out, "Output dir:  %s\n", cfg.Paths.OutputDir)
	for _, bucket := range config.Buckets {
		if grid := cfg.Documents.Grids[bucket]; grid != "" {
			fmt.Fprintf(out, "Grid (%s): %s\n", bucket, grid)
		}
	}
	if ready, reason := cfg.NetworkReady(); ready {
		fmt.Fprintf(out, "Classifier:  %s (%s)\n", cfg.Classifier.Provider, cfg.Classifier.Model)
	} else {
		fmt.Fprintf(out, "Classifier offline: %s\n", reason)
	}
	fmt.Fprintln(out, "Configuration valid")
}

func newConfigShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with the API key redacted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			redacted := *cfg
			if redacted.Classifier.APIKey != "" {
				redacted.Classifier.APIKey = "(set)"
			}
			data, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
