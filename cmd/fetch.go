package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scraper-llm/internal/scraper"
	"scraper-llm/internal/ui"
)

var (
	fetchJS           bool
	fetchRaw          bool
	fetchRequirements string
)

var fetchCmd = &cobra.Command{
	Use:   "fetch <url>",
	Short: "Fetch and extract a page without calling the oracle",
	Long: `Run the fetch engines and the content extractor on a page and report what was
found. With --raw the fetched HTML is printed as-is.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := scraper.ValidateURL(args[0]); err != nil {
			return err
		}
		return withApp(func(a *app) error {
			ctx := cmd.Context()
			if fetchRaw {
				res, err := a.fetcher.Fetch(ctx, args[0], fetchJS)
				if err != nil {
					return err
				}
				a.logger.Info("fetched", "url", args[0], "method", res.Method, "bytes", len(res.HTML))
				_, err = fmt.Fprintln(cmd.OutOrStdout(), res.HTML)
				return err
			}

			page, err := a.svc.SmartScrape(ctx, args[0], fetchRequirements)
			if err != nil {
				return err
			}
			if ok, err := writeStructured(cmd.OutOrStdout(), page); ok {
				return err
			}
			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			d.PrintPage(page, page.Quality)
			for _, extra := range page.ExtraPages {
				d.PrintActivity(fmt.Sprintf("Also scraped %s (%s)", extra.URL, extra.Title))
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().BoolVar(&fetchJS, "js", false, "Prefer JavaScript-rendering engines (with --raw)")
	fetchCmd.Flags().BoolVar(&fetchRaw, "raw", false, "Print the fetched HTML instead of a summary")
	fetchCmd.Flags().StringVarP(&fetchRequirements, "requirements", "r", "", "Follow same-site links matching these requirements")
}
