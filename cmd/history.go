package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"scraper-llm/internal/export"
	"scraper-llm/internal/ui"
)

var (
	historySession string
	historyFormat  string
	historyOut     string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show or export the conversation of a session",
	Long: `Print the conversation of a session, or export it as JSON, YAML, Markdown or
HTML. Sessions live in memory, so this needs --journal to read a conversation
recorded by an earlier invocation.`,
	Example: `  scraper-llm --journal ~/.scraper-llm.db history -s <id>
  scraper-llm --journal ~/.scraper-llm.db history -s <id> --format markdown --out session.md`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if historySession == "" {
			return errors.New("--session is required")
		}
		return withApp(func(a *app) error {
			if a.journal == nil {
				a.logger.Warn("no journal configured, history only covers this process")
			}
			s := a.svc.Sessions().GetOrCreate(historySession)
			snap := s.Snapshot()

			if historyFormat == "" && historyOut == "" {
				ui.NewDisplayTo(cmd.OutOrStdout(), 0).PrintHistory(snap.Messages)
				return nil
			}
			exp, err := export.ForFormat(historyFormat)
			if err != nil {
				return err
			}
			if historyOut == "" {
				return exp.Export(cmd.OutOrStdout(), &snap)
			}
			if err := export.WriteFile(historyOut, exp, &snap); err != nil {
				return err
			}
			a.logger.Info("session exported", "session", historySession, "path", historyOut)
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().StringVarP(&historySession, "session", "s", "", "Session id")
	historyCmd.Flags().StringVarP(&historyFormat, "format", "f", "", "Export format (json, yaml, markdown, html)")
	historyCmd.Flags().StringVar(&historyOut, "out", "", "Write the export to this file")
}
