package cmd

import (
	"github.com/spf13/cobra"

	"scraper-llm/internal/export"
	"scraper-llm/internal/ui"
)

var scrapeParquet string

var scrapeCmd = &cobra.Command{
	Use:   "scrape <url>",
	Short: "One-shot extraction of titles, prices and images",
	Long: `Fetch a page over plain HTTP, strip it to its visible markup and extract every
item with a title, price and image. No session is created.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			payload, err := a.svc.Scrape(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if scrapeParquet != "" {
				if err := export.SaveItemsParquet(scrapeParquet, payload.Items); err != nil {
					return err
				}
			}
			if ok, err := writeStructured(cmd.OutOrStdout(), payload); ok {
				return err
			}
			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			d.PrintItems(payload.Items)
			if scrapeParquet != "" {
				d.PrintSuccess("Items written to " + scrapeParquet)
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)
	scrapeCmd.Flags().StringVar(&scrapeParquet, "parquet", "", "Also write the items to a Parquet file")
}
