package cmd

import (
	"github.com/spf13/cobra"

	"scraper-llm/internal/scraper"
	"scraper-llm/internal/ui"
)

var guideCmd = &cobra.Command{
	Use:   "guide",
	Short: "Show the conversation commands, examples and workflow",
	// no config needed
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		help := scraper.Help()
		if ok, err := writeStructured(cmd.OutOrStdout(), help); ok {
			return err
		}
		ui.NewDisplayTo(cmd.OutOrStdout(), 0).PrintHelp(help)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(guideCmd)
}
