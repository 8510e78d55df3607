package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scraper-llm/internal/ui"
)

var chatSession string

var chatCmd = &cobra.Command{
	Use:   "chat <message...>",
	Short: "Ask the oracle a question within a session",
	Long: `Send a message to the oracle with the session's conversation history. The
answer is streamed when the backend supports it. Use --journal to keep the
conversation across invocations.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := strings.Join(args, " ")
		return withApp(func(a *app) error {
			sessionID := chatSession
			if sessionID == "" {
				sessionID = a.svc.NewSession()
			}

			if structuredOutput() {
				answer, err := a.svc.Chat(cmd.Context(), sessionID, message)
				if err != nil {
					return err
				}
				_, err = writeStructured(cmd.OutOrStdout(), map[string]string{
					"session_id": sessionID,
					"response":   answer,
				})
				return err
			}

			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			d.StartAssistantResponse()
			if _, err := a.svc.ChatStream(cmd.Context(), sessionID, message, d.WriteAnswer); err != nil {
				return err
			}
			d.EndAssistantResponse()
			d.PrintInfo(fmt.Sprintf("Session: %s", sessionID))
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVarP(&chatSession, "session", "s", "", "Session id to continue (new session when empty)")
}
