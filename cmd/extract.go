package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"scraper-llm/internal/export"
	"scraper-llm/internal/ui"
)

var (
	extractURL     string
	extractSession string
	extractParquet string
)

var extractCmd = &cobra.Command{
	Use:   "extract [requirements...]",
	Short: "Extract structured items from the analyzed website",
	Long: `Extract items (title, price, image and more) from the website of a session.
With --url the site is analyzed first, so a single invocation is enough.
Without requirements all relevant items are extracted.`,
	Example: `  scraper-llm extract --url https://shop.example "product names and prices"
  scraper-llm extract --url https://shop.example --parquet items.parquet`,
	RunE: func(cmd *cobra.Command, args []string) error {
		requirements := strings.Join(args, " ")
		return withApp(func(a *app) error {
			ctx := cmd.Context()
			sessionID := extractSession
			if extractURL != "" {
				analysis := a.svc.AnalyzeWebsite(ctx, sessionID, extractURL)
				if !analysis.Success {
					ui.NewDisplayTo(cmd.ErrOrStderr(), 0).PrintAnalysis(analysis)
					return analysis.Err
				}
				sessionID = analysis.SessionID
			}

			res := a.svc.ExtractData(ctx, sessionID, requirements)
			if res.Success && extractParquet != "" {
				if err := export.SaveItemsParquet(extractParquet, res.Data.Items); err != nil {
					return err
				}
			}
			if ok, err := writeStructured(cmd.OutOrStdout(), res); ok {
				if err != nil {
					return err
				}
				return res.Err
			}

			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			d.PrintExtraction(res)
			if res.Success && extractParquet != "" {
				d.PrintSuccess("Items written to " + extractParquet)
			}
			return res.Err
		})
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVarP(&extractURL, "url", "u", "", "Analyze this URL before extracting")
	extractCmd.Flags().StringVarP(&extractSession, "session", "s", "", "Session id holding the analyzed website")
	extractCmd.Flags().StringVar(&extractParquet, "parquet", "", "Also write the items to a Parquet file")
}
