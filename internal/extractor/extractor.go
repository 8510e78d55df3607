package extractor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/charmbracelet/log"

	"scraper-llm/internal/logging"
)

// Extractor turns raw HTML into normalized Content. It never fails:
// technique and parser errors are absorbed and recorded as warnings.
type Extractor struct {
	techniques     []Technique
	parsers        []StructuredParser
	generic        Technique
	genericParsers []StructuredParser
	logger         *log.Logger
}

// Option configures an Extractor
type Option func(*Extractor)

// WithTechniques replaces the advanced main-text chain
func WithTechniques(techniques ...Technique) Option {
	return func(e *Extractor) { e.techniques = techniques }
}

// WithParsers replaces the advanced structured-data parsers
func WithParsers(parsers ...StructuredParser) Option {
	return func(e *Extractor) { e.parsers = parsers }
}

// WithLogger sets the logger
func WithLogger(logger *log.Logger) Option {
	return func(e *Extractor) { e.logger = logger }
}

// New creates an extractor with the default registries
func New(opts ...Option) *Extractor {
	e := &Extractor{
		techniques:     DefaultTechniques(),
		parsers:        DefaultParsers(),
		generic:        SelectorTechnique{},
		genericParsers: GenericParsers(),
		logger:         logging.Named("extractor"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract runs the advanced path: the full technique chain plus microdata,
// OpenGraph, Twitter card and JSON-LD parsing.
func (e *Extractor) Extract(pageURL, rawHTML string) *Content {
	return e.run(pageURL, rawHTML, MethodAdvanced, e.techniques, e.parsers)
}

// ExtractGeneric runs the basic path: selector heuristic text plus headings and lists.
func (e *Extractor) ExtractGeneric(pageURL, rawHTML string) *Content {
	return e.run(pageURL, rawHTML, MethodGeneric, []Technique{e.generic}, e.genericParsers)
}

func (e *Extractor) run(pageURL, rawHTML, method string, techniques []Technique, parsers []StructuredParser) *Content {
	c := newContent(pageURL, method)
	doc := newDocument(pageURL, rawHTML)
	gdoc := doc.Query()

	c.Title = cleanText(gdoc.Find("title").First().Text())
	c.Description = strings.TrimSpace(gdoc.Find(`meta[name="description"]`).First().AttrOr("content", ""))
	c.Metadata = extractMetadata(gdoc)
	c.Images = extractImages(gdoc, doc.URL)
	c.Links = extractLinks(gdoc, doc.URL)

	for _, t := range techniques {
		res, err := runTechnique(t, doc)
		if err != nil {
			e.logger.Debug("technique failed", "technique", t.Name(), "err", err)
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s: %v", t.Name(), err))
			continue
		}
		if res == nil {
			continue
		}
		if res.Article != nil && c.Article == nil {
			c.Article = res.Article
		}
		if strings.TrimSpace(res.Text) != "" {
			c.MainText = res.Text
			c.Technique = t.Name()
			break
		}
	}

	for _, p := range parsers {
		records, err := runParser(p, gdoc, doc.URL)
		if err != nil {
			e.logger.Debug("structured parser failed", "parser", p.Name(), "err", err)
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s: %v", p.Name(), err))
		}
		if len(records) > 0 {
			c.StructuredData[p.Name()] = records
		}
	}
	return c
}

func extractMetadata(doc *goquery.Document) map[string]string {
	meta := map[string]string{}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key := s.AttrOr("name", "")
		if key == "" {
			key = s.AttrOr("property", "")
		}
		content, ok := s.Attr("content")
		if key == "" || !ok {
			return
		}
		meta[key] = strings.TrimSpace(content)
	})
	return meta
}

func runTechnique(t Technique, doc *Document) (res *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return t.Extract(doc)
}

func runParser(p StructuredParser, doc *goquery.Document, base *url.URL) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return p.Parse(doc, base)
}
