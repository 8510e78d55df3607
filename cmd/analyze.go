package cmd

import (
	"github.com/spf13/cobra"

	"scraper-llm/internal/ui"
)

var analyzeSession string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <url>",
	Short: "Classify a website and suggest what can be extracted",
	Long: `Fetch a page, reduce it to a digest and ask the oracle what kind of site it is,
which data it holds and how to extract it. The analysis starts (or continues)
a conversation session.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			res := a.svc.AnalyzeWebsite(cmd.Context(), analyzeSession, args[0])
			if ok, err := writeStructured(cmd.OutOrStdout(), res); ok {
				if err != nil {
					return err
				}
				return res.Err
			}
			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			d.PrintAnalysis(res)
			if res.Success {
				d.PrintInfo("Session: " + res.SessionID)
			}
			return res.Err
		})
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&analyzeSession, "session", "s", "", "Session id to continue (new session when empty)")
}
