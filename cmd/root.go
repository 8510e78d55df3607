package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"scraper-llm/internal/config"
	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/logging"
)

var (
	verbose    bool
	configPath string
	backend    string
	model      string
	oracleURL  string
	noBrowser  bool
	journal    string
	outFormat  string
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	cfg *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scraper-llm",
	Short: "Conversational, LLM-driven web scraping",
	Long: `Analyze websites, extract structured data and chat about the results.

Pages are fetched through a chain of engines (headless browser, browser
automation, render service, plain HTTP), reduced to clean content and handed
to a language model that answers with structured JSON.

Quick Start:
  scraper-llm analyze https://example.com          # Classify a site
  scraper-llm extract --url https://shop.example   # Analyze then extract items
  scraper-llm repl                                 # Interactive conversation
  scraper-llm mcp                                  # Serve tools over stdio`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if hint := apperrors.Hint(err); hint != err.Error() {
			fmt.Fprintf(os.Stderr, "Hint: %s\n", hint)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", "", "Oracle backend (openai or ollama)")
	rootCmd.PersistentFlags().StringVarP(&model, "model", "m", "", "Oracle model name")
	rootCmd.PersistentFlags().StringVar(&oracleURL, "oracle-url", "", "Oracle API base URL")
	rootCmd.PersistentFlags().BoolVar(&noBrowser, "no-browser", false, "Disable headless browser engines")
	rootCmd.PersistentFlags().StringVar(&journal, "journal", "", "SQLite file that persists conversation history")
	rootCmd.PersistentFlags().StringVarP(&outFormat, "output", "o", "text", "Output format (text, json, yaml)")

	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}

// loadConfig layers .env, the config file, the environment and flags, in that order
func loadConfig(cmd *cobra.Command) error {
	config.GetEnv = os.Getenv
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, c)
	if err := c.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logging.SetVerbose(c.Verbose)
	cfg = c
	return nil
}

func applyFlags(cmd *cobra.Command, c *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("backend") {
		c.OracleBackend = backend
	}
	if flags.Changed("model") {
		c.OracleModel = model
	}
	if flags.Changed("oracle-url") {
		c.OracleURL = oracleURL
	}
	if flags.Changed("journal") {
		c.JournalPath = journal
	}
	if noBrowser {
		c.EnableBrowser = false
		c.EnableAutomation = false
	}
	if verbose {
		c.Verbose = true
	}
}
