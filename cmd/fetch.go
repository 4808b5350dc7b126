package cmd

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var fetchIDs []string

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch transcripts for an explicit list of session IDs",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		p, err := buildPipeline(cfg)
		if err != nil {
			return err
		}

		transcripts, err := p.FetchTranscriptsFor(cmd.Context(), fetchIDs)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(transcripts)
	},
}

func init() {
	fetchCmd.Flags().StringSliceVar(&fetchIDs, "ids", nil, "session IDs to fetch")
	_ = fetchCmd.MarkFlagRequired("ids")
	rootCmd.AddCommand(fetchCmd)
}
