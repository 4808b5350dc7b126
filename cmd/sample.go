package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var (
	sampleAnchor string
	sampleCount  int
)

var sampleCmd = &cobra.Command{
	Use:   "sample",
	Short: "Sample sessions and print their assembled transcripts as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		anchor, err := parseAnchor(sampleAnchor)
		if err != nil {
			return err
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		report, err := p.SampleSessions(cmd.Context(), anchor, sampleCount)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

func init() {
	sampleCmd.Flags().StringVar(&sampleAnchor, "anchor", "", "business-local start instant (2006-01-02 or 2006-01-02T15:04)")
	sampleCmd.Flags().IntVar(&sampleCount, "count", 100, "number of sessions to sample")
	_ = sampleCmd.MarkFlagRequired("anchor")
	rootCmd.AddCommand(sampleCmd)
}
