package cmd

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"scraper-llm/internal/ui"
)

// modelLister is implemented by backends that can report installed models
type modelLister interface {
	HealthCheck(ctx context.Context) error
	ListModels(ctx context.Context) ([]string, error)
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the oracle backend and list the available fetch engines",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(a *app) error {
			d := ui.NewDisplayTo(cmd.OutOrStdout(), 0)
			engines := make([]string, 0)
			for _, m := range a.fetcher.Available() {
				engines = append(engines, string(m))
			}
			d.PrintInfo("Fetch engines: " + strings.Join(engines, ", "))
			return checkModel(cmd.Context(), a, d)
		})
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}

// checkModel verifies that the configured model is served by the backend
func checkModel(ctx context.Context, a *app, d *ui.Display) error {
	lister, ok := a.oracle.(modelLister)
	if !ok {
		d.PrintInfo(fmt.Sprintf("Oracle: %s model %s (not verified for this backend)", a.cfg.OracleBackend, a.cfg.OracleModel))
		return nil
	}
	if err := lister.HealthCheck(ctx); err != nil {
		d.PrintError(err)
		d.PrintInfo("Make sure Ollama is running: ollama serve")
		return err
	}
	models, err := lister.ListModels(ctx)
	if err != nil {
		return fmt.Errorf("failed to list models: %w", err)
	}
	if slices.Contains(models, a.cfg.OracleModel) {
		d.PrintSuccess("Oracle: " + a.cfg.OracleModel)
		return nil
	}

	d.PrintError(fmt.Errorf("model '%s' not found", a.cfg.OracleModel))
	d.PrintInfo("Available models:")
	for _, m := range models {
		d.PrintActivity(m)
	}
	d.PrintInfo(fmt.Sprintf("Pull the model with: ollama pull %s", a.cfg.OracleModel))
	return fmt.Errorf("model not found")
}
