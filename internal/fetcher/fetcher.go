package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/logging"
)

// Method names the strategy that produced a page
type Method string

const (
	MethodBrowser    Method = "browser"
	MethodAutomation Method = "automation"
	MethodRender     Method = "render"
	MethodHTTP       Method = "http"
)

// FetchResult is the accepted HTML of a page and how it was obtained
type FetchResult struct {
	HTML    string `json:"html"`
	Method  Method `json:"method"`
	Success bool   `json:"success"`
}

// Strategy retrieves the HTML of one URL. Strategies holding external
// resources may also implement io.Closer.
type Strategy interface {
	Name() Method
	Fetch(ctx context.Context, url string) (string, error)
}

// AcceptancePolicy decides whether a strategy's HTML is good enough
type AcceptancePolicy func(html string) bool

// MinLength accepts HTML that is non-empty and longer than n characters
func MinLength(n int) AcceptancePolicy {
	return func(html string) bool {
		return html != "" && len(html) > n
	}
}

// Options configures an Orchestrator. Nil strategies are unavailable.
type Options struct {
	Browser        Strategy
	Automation     Strategy
	Render         Strategy
	HTTP           Strategy
	JSHeavyDomains []string
	Accept         AcceptancePolicy
	Logger         *log.Logger
}

// Orchestrator tries strategies in order until one yields acceptable HTML
type Orchestrator struct {
	browser    Strategy
	automation Strategy
	render     Strategy
	http       Strategy
	jsHeavy    []string
	accept     AcceptancePolicy
	logger     *log.Logger
}

// New creates an orchestrator
func New(opts Options) *Orchestrator {
	if opts.Accept == nil {
		opts.Accept = MinLength(1000)
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("fetcher")
	}
	return &Orchestrator{
		browser:    opts.Browser,
		automation: opts.Automation,
		render:     opts.Render,
		http:       opts.HTTP,
		jsHeavy:    opts.JSHeavyDomains,
		accept:     opts.Accept,
		logger:     opts.Logger,
	}
}

// IsJSHeavy reports whether rawURL belongs to a site known to need JS rendering
func (o *Orchestrator) IsJSHeavy(rawURL string) bool {
	return matchesDomain(rawURL, o.jsHeavy)
}

func matchesDomain(rawURL string, domains []string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, d := range domains {
		d = strings.ToLower(d)
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

// Plan returns the strategies to try for rawURL, in order. With preferJS the
// JS-capable engines come first; plain HTTP is always last. Known JS-heavy
// sites put the automation engine in front regardless of preferJS.
func (o *Orchestrator) Plan(rawURL string, preferJS bool) []Strategy {
	var plan []Strategy
	if preferJS {
		for _, s := range []Strategy{o.browser, o.automation, o.render} {
			if s != nil {
				plan = append(plan, s)
			}
		}
	}
	if o.http != nil {
		plan = append(plan, o.http)
	}

	if o.automation != nil && o.IsJSHeavy(rawURL) {
		promoted := []Strategy{o.automation}
		for _, s := range plan {
			if s.Name() != o.automation.Name() {
				promoted = append(promoted, s)
			}
		}
		plan = promoted
	}
	return plan
}

// Fetch runs the plan for rawURL and returns the first accepted result
func (o *Orchestrator) Fetch(ctx context.Context, rawURL string, preferJS bool) (*FetchResult, error) {
	plan := o.Plan(rawURL, preferJS)
	if len(plan) == 0 {
		return nil, apperrors.NewFetchFailure(rawURL, errors.New("no fetch strategies available"))
	}

	var (
		failures []error
		tried    []Method
	)
	for _, s := range plan {
		if err := ctx.Err(); err != nil {
			failures = append(failures, err)
			break
		}
		tried = append(tried, s.Name())
		html, err := s.Fetch(ctx, rawURL)
		if err != nil {
			o.logger.Debug("strategy failed", "strategy", s.Name(), "url", rawURL, "err", err)
			failures = append(failures, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		if !o.accept(html) {
			o.logger.Debug("strategy result rejected", "strategy", s.Name(), "url", rawURL, "length", len(html))
			failures = append(failures, fmt.Errorf("%s: content rejected (%d bytes)", s.Name(), len(html)))
			continue
		}
		o.logger.Debug("strategy succeeded", "strategy", s.Name(), "url", rawURL, "length", len(html))
		return &FetchResult{HTML: html, Method: s.Name(), Success: true}, nil
	}

	o.logger.Warn("all fetching methods failed", "url", rawURL, "attempts", len(failures))
	fe := apperrors.NewFetchFailure(rawURL, errors.Join(failures...))
	fe.Details["methods"] = tried
	return nil, fe
}

// Attempted lists the strategies a failed Fetch ran before giving up
func Attempted(err error) []Method {
	var se *apperrors.ScraperError
	if !errors.As(err, &se) {
		return nil
	}
	methods, _ := se.Details["methods"].([]Method)
	return methods
}

// Available lists the methods this orchestrator can use
func (o *Orchestrator) Available() []Method {
	var methods []Method
	for _, s := range []Strategy{o.browser, o.automation, o.render, o.http} {
		if s != nil {
			methods = append(methods, s.Name())
		}
	}
	return methods
}

// Close releases strategies that hold resources
func (o *Orchestrator) Close() error {
	var errs []error
	for _, s := range []Strategy{o.browser, o.automation, o.render, o.http} {
		if c, ok := s.(io.Closer); ok && c != nil {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
