package main

import (
	"github.com/jonathan/resume-screener/internal/observability"
	"github.com/spf13/cobra"
)

var statsJSON bool

var statsCommand = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the saved analyses of the current identity",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		stats := a.coord.Stats(cmd.Context())
		if statsJSON {
			return writeJSON(cmd, stats)
		}
		observability.NewPrinter(cmd.OutOrStdout()).PrintStats(stats)
		return nil
	},
}

func init() {
	statsCommand.Flags().BoolVar(&statsJSON, "json", false, "Print JSON instead of text")
	rootCmd.AddCommand(statsCommand)
}
