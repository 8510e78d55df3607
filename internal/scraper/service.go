package scraper

import (
	"context"
	"time"

	"github.com/charmbracelet/log"

	"scraper-llm/internal/extractor"
	"scraper-llm/internal/fetcher"
	"scraper-llm/internal/logging"
	"scraper-llm/internal/oracle"
	"scraper-llm/internal/session"
)

// Fetcher retrieves the HTML of a page through the strategy chain
type Fetcher interface {
	Fetch(ctx context.Context, url string, preferJS bool) (*fetcher.FetchResult, error)
}

// ContentExtractor turns HTML into normalized content
type ContentExtractor interface {
	Extract(pageURL, rawHTML string) *extractor.Content
	ExtractGeneric(pageURL, rawHTML string) *extractor.Content
}

// ImageDownloader stores a remote image locally and returns its local reference
type ImageDownloader interface {
	Download(ctx context.Context, absoluteURL string) string
}

// RobotsChecker reports whether a URL may be crawled
type RobotsChecker interface {
	Allowed(ctx context.Context, url string) bool
}

// Options tunes the service
type Options struct {
	// MaxMainText caps the main text placed in a digest, in characters
	MaxMainText int
	// MaxTokens is the token budget for extraction prompts
	MaxTokens int
	// MaxExtraPages caps requirement-driven follow-up pages
	MaxExtraPages  int
	ExtraPageDelay time.Duration
	Temperature    float64
}

// DefaultOptions returns the standard limits
func DefaultOptions() Options {
	return Options{
		MaxMainText:    3000,
		MaxTokens:      11000,
		MaxExtraPages:  3,
		ExtraPageDelay: 1500 * time.Millisecond,
		Temperature:    0.1,
	}
}

// Deps are the collaborators of a Service. Images and Robots are optional.
type Deps struct {
	Fetcher   Fetcher
	Extractor ContentExtractor
	Oracle    oracle.Oracle
	Images    ImageDownloader
	Robots    RobotsChecker
	Sessions  *session.Manager
	Logger    *log.Logger
}

// Service composes fetching, extraction and the oracle into the
// analyze / extract / chat conversation.
type Service struct {
	fetcher   Fetcher
	extractor ContentExtractor
	oracle    oracle.Oracle
	images    ImageDownloader
	robots    RobotsChecker
	sessions  *session.Manager
	logger    *log.Logger
	opts      Options
	sleep     func(ctx context.Context, d time.Duration)
}

// New creates a Service
func New(deps Deps, opts Options) *Service {
	if deps.Logger == nil {
		deps.Logger = logging.Named("scraper")
	}
	if deps.Sessions == nil {
		deps.Sessions = session.NewManager(session.Options{Logger: deps.Logger})
	}
	if opts.MaxMainText <= 0 {
		opts.MaxMainText = 3000
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 11000
	}
	return &Service{
		fetcher:   deps.Fetcher,
		extractor: deps.Extractor,
		oracle:    deps.Oracle,
		images:    deps.Images,
		robots:    deps.Robots,
		sessions:  deps.Sessions,
		logger:    deps.Logger,
		opts:      opts,
		sleep:     sleepContext,
	}
}

// Sessions exposes the session manager
func (s *Service) Sessions() *session.Manager {
	return s.sessions
}

// NewSession starts an empty conversation and returns its id
func (s *Service) NewSession() string {
	return s.sessions.GetOrCreate("").ID
}

// SessionIDs lists the live sessions
func (s *Service) SessionIDs() []string {
	return s.sessions.IDs()
}

// DeleteSession forgets a session and reports whether it was live
func (s *Service) DeleteSession(sessionID string) bool {
	return s.sessions.Delete(sessionID)
}

// History returns the ordered messages of a session
func (s *Service) History(sessionID string) []session.Message {
	return s.sessions.History(sessionID)
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
