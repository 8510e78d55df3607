package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"scraper-llm/internal/config"
	"scraper-llm/internal/extractor"
	"scraper-llm/internal/fetcher"
	"scraper-llm/internal/imagepipe"
	"scraper-llm/internal/logging"
	"scraper-llm/internal/oracle"
	"scraper-llm/internal/scraper"
	"scraper-llm/internal/session"
)

// app is the fully wired service graph behind every command
type app struct {
	cfg     *config.Config
	logger  *log.Logger
	fetcher *fetcher.Orchestrator
	oracle  oracle.Oracle
	svc     *scraper.Service
	journal *session.SQLiteJournal
}

func newApp(c *config.Config) (*app, error) {
	logger := logging.Named("app")

	o, err := oracle.FromConfig(c, logging.Named("oracle"))
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     c,
		logger:  logger,
		fetcher: fetcher.FromConfig(c, logging.Named("fetch")),
		oracle:  o,
	}

	sessOpts := session.Options{
		Trim: session.TrimPolicy{
			Threshold:  c.HistoryThreshold,
			Budget:     float64(c.TokenBudget),
			KeepRecent: c.KeepRecent,
			Cost:       session.WordCost,
		},
		Eviction: session.PolicyByName(c.Eviction, c.SessionTTL, c.MaxSessions),
		Logger:   logging.Named("session"),
	}
	if c.JournalPath != "" {
		j, err := session.OpenJournal(c.JournalPath)
		if err != nil {
			a.fetcher.Close()
			return nil, fmt.Errorf("failed to open journal: %w", err)
		}
		a.journal = j
		sessOpts.Journal = j
	}

	deps := scraper.Deps{
		Fetcher:   a.fetcher,
		Extractor: extractor.New(extractor.WithLogger(logging.Named("extract"))),
		Oracle:    o,
		Sessions:  session.NewManager(sessOpts),
		Logger:    logging.Named("scraper"),
	}
	if c.ImageDir != "" {
		deps.Images = imagepipe.New(imagepipe.Options{
			Dir:       c.ImageDir,
			URLPrefix: c.ImageURLPrefix,
			Pause:     c.ImagePause,
			MaxSize:   c.MaxImageSize,
			Timeout:   c.HTTPTimeout,
			UserAgent: c.UserAgent,
			Logger:    logging.Named("images"),
		})
	}
	if c.RespectRobots {
		deps.Robots = fetcher.NewRobotsPolicy(c.UserAgent, c.HTTPTimeout, logging.Named("robots"))
	}

	opts := scraper.DefaultOptions()
	opts.MaxTokens = c.MaxTokens
	opts.MaxExtraPages = c.MaxExtraPages
	opts.ExtraPageDelay = c.ExtraPageDelay
	a.svc = scraper.New(deps, opts)

	logger.Debug("service ready", "backend", c.OracleBackend, "model", c.OracleModel, "engines", a.fetcher.Available())
	return a, nil
}

// Close releases browsers and the journal
func (a *app) Close() error {
	err := a.fetcher.Close()
	if a.journal != nil {
		if jerr := a.journal.Close(); jerr != nil && err == nil {
			err = jerr
		}
	}
	return err
}

// withApp builds the app from the loaded config and closes it after fn
func withApp(fn func(a *app) error) error {
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(a)
}

func structuredOutput() bool {
	f := strings.ToLower(outFormat)
	return f != "" && f != "text"
}

// writeStructured prints v as JSON or YAML. It reports false for the text format.
func writeStructured(w io.Writer, v any) (bool, error) {
	switch strings.ToLower(outFormat) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return true, enc.Encode(v)
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return true, enc.Encode(v)
	case "", "text":
		return false, nil
	default:
		return true, fmt.Errorf("unknown output format %q", outFormat)
	}
}
