package oracle

import (
	"fmt"

	"github.com/charmbracelet/log"

	"scraper-llm/internal/config"
)

// FromConfig builds the oracle backend selected by cfg
func FromConfig(cfg *config.Config, logger *log.Logger) (Oracle, error) {
	switch cfg.OracleBackend {
	case "openai":
		return NewOpenAI(cfg.OracleURL, cfg.OracleAPIKey, cfg.OracleModel, cfg.OracleTimeout, logger), nil
	case "ollama":
		return NewOllama(cfg.OracleURL, cfg.OracleModel, cfg.OracleTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.OracleBackend)
	}
}
