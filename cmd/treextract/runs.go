package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/treextract/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded extraction runs",
	Long: `Runs prints the extraction history recorded with --record (or with
runlog.enabled set in the config file), newest first, including the
output files each run produced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		store, err := runlog.Open(runLogConfig())
		if err != nil {
			return err
		}
		defer store.Close()

		return store.List(os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}
