package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"scraper-llm/internal/evaluate"
	"scraper-llm/internal/ui"
)

var (
	evalRequirements string
	evalExpected     int
)

// evaluation is the combined report printed by the evaluate command
type evaluation struct {
	URL        string                     `json:"url" yaml:"url"`
	Scrape     evaluate.ScrapeReport      `json:"scrape" yaml:"scrape"`
	Extraction *evaluate.ExtractionReport `json:"extraction,omitempty" yaml:"extraction,omitempty"`
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <url>",
	Short: "Score scrape and extraction quality for a website",
	Long: `Scrape a website and score the gathered content. With --requirements or
--expected the site is also analyzed and extracted, and the items are scored
against the expected count.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			ctx := cmd.Context()
			page, err := a.svc.SmartScrape(ctx, args[0], evalRequirements)
			if err != nil {
				return err
			}
			report := evaluation{URL: page.URL, Scrape: page.Quality}

			if evalRequirements != "" || evalExpected > 0 {
				analysis := a.svc.AnalyzeWebsite(ctx, "", args[0])
				if !analysis.Success {
					return analysis.Err
				}
				res := a.svc.ExtractData(ctx, analysis.SessionID, evalRequirements)
				if !res.Success {
					return res.Err
				}
				er := evaluate.ExtractionQuality(res.Data.Items, evalExpected)
				report.Extraction = &er
			}

			if ok, err := writeStructured(cmd.OutOrStdout(), report); ok {
				return err
			}
			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			d.PrintPage(page, report.Scrape)
			if er := report.Extraction; er != nil {
				d.PrintInfo(fmt.Sprintf("Extracted %d item(s), accuracy %.0f%%, performance %.1f (%s)",
					er.ItemsExtracted, er.Accuracy*100, er.PerformanceScore, er.Level))
				for _, issue := range er.Issues {
					d.PrintWarning(issue)
				}
				for _, rec := range er.Recommendations {
					d.PrintActivity(rec)
				}
			}
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVarP(&evalRequirements, "requirements", "r", "", "Extraction requirements to evaluate")
	evaluateCmd.Flags().IntVar(&evalExpected, "expected", 0, "Expected number of items")
}
