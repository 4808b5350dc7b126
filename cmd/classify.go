package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"botsift/internal/classify"
	"botsift/internal/config"
	"botsift/internal/observability"
)

var (
	classifyAnchor string
	classifyCount  int
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Sample sessions and run each transcript through the LLM classifier",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Classify.APIKey == "" {
			return &config.ConfigurationError{Reason: "classify.apiKey (or OPENAI_API_KEY) is required for classification"}
		}

		anchor, err := parseAnchor(classifyAnchor)
		if err != nil {
			return err
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		report, err := p.SampleSessions(cmd.Context(), anchor, classifyCount)
		if err != nil {
			return err
		}

		classifier := classify.NewOpenAIClassifier(cfg.Classify.APIKey, cfg.Classify.Model)

		outcomes := make([]classify.Outcome, 0, len(report.Transcripts))
		for _, swt := range report.Transcripts {
			outcome, err := classifier.Classify(cmd.Context(), swt)
			if err != nil {
				observability.Logger().Warn("classification failed",
					"session_id", swt.SessionID, "error", err.Error())
				continue
			}
			outcomes = append(outcomes, outcome)
		}

		if len(outcomes) == 0 {
			return fmt.Errorf("no transcripts could be classified")
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(outcomes)
	},
}

func init() {
	classifyCmd.Flags().StringVar(&classifyAnchor, "anchor", "", "business-local start instant (2006-01-02 or 2006-01-02T15:04)")
	classifyCmd.Flags().IntVar(&classifyCount, "count", 100, "number of sessions to sample")
	_ = classifyCmd.MarkFlagRequired("anchor")
	rootCmd.AddCommand(classifyCmd)
}
