// Package cmd wires the command-line interface.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"botsift/internal/config"
	"botsift/internal/fetch"
	"botsift/internal/observability"
	"botsift/internal/pipeline"
)

var (
	configPath string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "botsift",
	Short: "Sample and assemble bot-platform conversation transcripts",
	Long: `botsift retrieves conversation sessions from a bot platform, samples a
representative subset by expanding a search time window, and assembles
sanitized transcripts ready for downstream analysis.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		observability.SetVerbose(verbose)
	},
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "botsift: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

// loadConfig reads and validates the configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildPipeline selects the session source per configuration.
func buildPipeline(cfg *config.Config) (*pipeline.Pipeline, error) {
	switch cfg.Source {
	case config.SourceSynthetic:
		return pipeline.New(fetch.NewSyntheticSource()), nil
	default:
		source, err := fetch.NewRemoteSource(cfg.Platform, cfg.Fetch.BatchConcurrency)
		if err != nil {
			return nil, err
		}
		return pipeline.New(source), nil
	}
}

// parseAnchor accepts a date or a date-with-time in business-local form.
func parseAnchor(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid anchor %q (want 2006-01-02 or 2006-01-02T15:04)", s)
}
