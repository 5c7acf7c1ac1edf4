package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdiddy/treextract/internal/treeio"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List the supported input format identifiers",
	Run: func(cmd *cobra.Command, args []string) {
		for _, id := range treeio.Formats() {
			fmt.Println(id)
		}
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
