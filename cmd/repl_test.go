package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scraper-llm/internal/extractor"
	"scraper-llm/internal/fetcher"
	"scraper-llm/internal/logging"
	"scraper-llm/internal/models"
	"scraper-llm/internal/oracle"
	"scraper-llm/internal/scraper"
	"scraper-llm/internal/session"
	"scraper-llm/internal/ui"
)

const shopHTML = `<html><head><title>Shoe shop</title></head><body><main>` +
	`<h1>Shoes</h1><p>Our full collection of running and walking shoes, updated every week.</p>` +
	`</main></body></html>`

type pageFetcher map[string]string

func (f pageFetcher) Fetch(_ context.Context, url string, _ bool) (*fetcher.FetchResult, error) {
	html, ok := f[url]
	if !ok {
		return nil, errors.New("not found")
	}
	return &fetcher.FetchResult{HTML: html, Method: fetcher.MethodHTTP, Success: true}, nil
}

type schemaOracle struct{}

func (schemaOracle) Complete(_ context.Context, req oracle.Request) (*oracle.Response, error) {
	var v any
	switch {
	case req.Schema == nil:
		return &oracle.Response{Text: "Happy to help."}, nil
	case req.Schema.Name == "website_analysis":
		v = models.Analysis{WebsiteType: "ecommerce", Description: "A shoe shop", ContentQuality: "low", TechnicalComplexity: "simple"}
	default:
		v = map[string]any{"items": []map[string]string{{"title": "Red shoe", "price": "$10"}}}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &oracle.Response{Text: string(raw), Structured: raw}, nil
}

func newTestREPL(input string) (*repl, *bytes.Buffer) {
	logger := logging.Discard()
	opts := scraper.DefaultOptions()
	opts.ExtraPageDelay = 0
	svc := scraper.New(scraper.Deps{
		Fetcher:   pageFetcher{"https://shop.example": shopHTML},
		Extractor: extractor.New(extractor.WithLogger(logger)),
		Oracle:    schemaOracle{},
		Sessions:  session.NewManager(session.Options{Logger: logger}),
		Logger:    logger,
	}, opts)

	var out bytes.Buffer
	r := newREPL(svc, ui.NewDisplayTo(&out, 80), ui.NewInputReader(strings.NewReader(input)), "test-model")
	return r, &out
}

func TestREPLConversation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	r, out := newTestREPL(strings.Join([]string{
		"help",
		"analyze https://shop.example",
		"extract all shoes with prices",
		"what do you think of it?",
		"history",
		"export json " + path,
		"exit",
		"chat never reached",
	}, "\n"))

	require.NoError(t, r.run(context.Background()))

	text := out.String()
	assert.Contains(t, text, "test-model")
	assert.Contains(t, text, "Workflow")
	assert.Contains(t, text, "Analysis of https://shop.example")
	assert.Contains(t, text, "Red shoe")
	assert.Contains(t, text, "Happy to help.")
	assert.Contains(t, text, "Session exported to "+path)
	assert.NotContains(t, text, "never reached")

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var exported session.Session
	require.NoError(t, json.Unmarshal(data, &exported))
	assert.Equal(t, r.sessionID, exported.ID)
	assert.Equal(t, "https://shop.example", exported.CurrentURL)
	// system, analyze pair, extract pair, chat pair
	assert.Len(t, exported.Messages, 7)
}

func TestREPLExtractWithoutSite(t *testing.T) {
	r, out := newTestREPL("extract all prices\n")
	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, out.String(), "Please analyze a website first")
	assert.False(t, r.hasSite())
}

func TestREPLNewSession(t *testing.T) {
	r, out := newTestREPL("new\n")
	r.sessionID = "first"
	require.NoError(t, r.run(context.Background()))
	assert.NotEqual(t, "first", r.sessionID)
	assert.Contains(t, out.String(), "Started session "+r.sessionID)
}

func TestREPLUnknownExportFormat(t *testing.T) {
	r, out := newTestREPL("export pdf\n")
	require.NoError(t, r.run(context.Background()))
	assert.Contains(t, out.String(), "unknown export format")
}
