package scraper

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"scraper-llm/internal/evaluate"
	"scraper-llm/internal/extractor"
	"scraper-llm/internal/fetcher"
	"scraper-llm/internal/imagepipe"
)

const extraPageTextLimit = 1500

var skipLinkWords = []string{"contact", "about", "privacy", "terms", "login", "signup"}

var stopWords = map[string]bool{
	"with": true, "from": true, "that": true, "this": true, "these": true, "those": true,
	"them": true, "they": true, "their": true, "there": true, "what": true, "which": true,
	"have": true, "will": true, "would": true, "could": true, "should": true, "about": true,
	"into": true, "each": true, "every": true, "some": true, "also": true, "just": true,
	"like": true, "list": true, "please": true, "extract": true, "want": true, "need": true,
	"give": true, "find": true, "show": true, "only": true, "more": true, "than": true,
	"data": true, "information": true, "page": true, "pages": true, "website": true, "site": true,
}

// ExtraPage is a follow-up page scraped because its link matched the requirements
type ExtraPage struct {
	URL   string `json:"url"`
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Page is the result of a smart scrape
type Page struct {
	URL        string                `json:"url"`
	Content    *extractor.Content    `json:"content"`
	Method     fetcher.Method        `json:"method"`
	Quality    evaluate.ScrapeReport `json:"quality"`
	ExtraPages []ExtraPage           `json:"extra_pages,omitempty"`
	Digest     string                `json:"-"`
}

// SmartScrape fetches and extracts a page, preferring JavaScript rendering and
// the full technique chain, then falling back to a plain fetch with the
// generic extractor. When requirements are given, matching same-site links
// are scraped as extra pages.
func (s *Service) SmartScrape(ctx context.Context, pageURL, requirements string) (*Page, error) {
	logger := s.logger.With("url", pageURL)

	var (
		rawHTML string
		content *extractor.Content
		method  fetcher.Method
	)
	res, err := s.fetcher.Fetch(ctx, pageURL, true)
	if err == nil {
		rawHTML, method = res.HTML, res.Method
		content = s.extractor.Extract(pageURL, rawHTML)
		if isEmpty(content) {
			logger.Debug("advanced extraction empty, using generic extractor")
			content = s.extractor.ExtractGeneric(pageURL, rawHTML)
		}
	} else {
		// the plain fetch would only repeat strategies that already failed
		if slices.Contains(fetcher.Attempted(err), fetcher.MethodHTTP) {
			return nil, err
		}
		logger.Warn("advanced scrape failed, falling back to plain fetch", "err", err)
		res, err = s.fetcher.Fetch(ctx, pageURL, false)
		if err != nil {
			return nil, err
		}
		rawHTML, method = res.HTML, res.Method
		content = s.extractor.ExtractGeneric(pageURL, rawHTML)
	}

	page := &Page{URL: pageURL, Content: content, Method: method}
	if requirements != "" && s.opts.MaxExtraPages > 0 {
		page.ExtraPages = s.scrapeExtraPages(ctx, pageURL, rawHTML, requirements)
	}
	page.Quality = evaluate.ScrapeQuality(content, 1+len(page.ExtraPages))
	page.Digest = BuildDigest(page, s.opts.MaxMainText)

	logger.Info("scraped page", "method", method, "technique", content.Technique,
		"extra_pages", len(page.ExtraPages), "quality", page.Quality.ContentQuality)
	return page, nil
}

func isEmpty(c *extractor.Content) bool {
	return c == nil || (strings.TrimSpace(c.MainText) == "" && c.Title == "")
}

// RequirementKeywords returns the lowercased words of at least four letters
// in requirements, without stop words, in first-seen order.
func RequirementKeywords(requirements string) []string {
	var keywords []string
	seen := map[string]bool{}
	for _, word := range strings.FieldsFunc(strings.ToLower(requirements), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	}) {
		if len([]rune(word)) < 4 || stopWords[word] || seen[word] {
			continue
		}
		seen[word] = true
		keywords = append(keywords, word)
	}
	return keywords
}

type candidateLink struct {
	href string
	text string
}

// candidateLinks finds same-site links whose text matches a keyword
func candidateLinks(pageURL, rawHTML string, keywords []string, limit int) []candidateLink {
	if len(keywords) == 0 || limit <= 0 {
		return nil
	}
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil
	}

	var out []candidateLink
	seen := map[string]bool{pageURL: true}
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, _ := a.Attr("href")
		text := strings.ToLower(strings.Join(strings.Fields(a.Text()), " "))
		if len(text) <= 3 || containsAny(text, skipLinkWords) || !containsAny(text, keywords) {
			return true
		}
		abs := imagepipe.Resolve(pageURL, href)
		u, err := url.Parse(abs)
		if err != nil || !strings.EqualFold(u.Hostname(), base.Hostname()) {
			return true
		}
		u.Fragment = ""
		abs = u.String()
		if seen[abs] {
			return true
		}
		seen[abs] = true
		out = append(out, candidateLink{href: abs, text: text})
		return len(out) < limit
	})
	return out
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// scrapeExtraPages fetches requirement-matching links one at a time with a
// polite pause between requests. Failures are skipped.
func (s *Service) scrapeExtraPages(ctx context.Context, pageURL, rawHTML, requirements string) []ExtraPage {
	links := candidateLinks(pageURL, rawHTML, RequirementKeywords(requirements), s.opts.MaxExtraPages)
	var pages []ExtraPage
	attempted := 0
	for _, link := range links {
		if ctx.Err() != nil {
			break
		}
		if s.robots != nil && !s.robots.Allowed(ctx, link.href) {
			s.logger.Debug("robots.txt disallows extra page", "url", link.href)
			continue
		}
		if attempted > 0 {
			s.sleep(ctx, s.opts.ExtraPageDelay)
		}
		attempted++
		res, err := s.fetcher.Fetch(ctx, link.href, false)
		if err != nil {
			s.logger.Debug("extra page failed", "url", link.href, "err", err)
			continue
		}
		content := s.extractor.ExtractGeneric(link.href, res.HTML)
		if strings.TrimSpace(content.MainText) == "" {
			continue
		}
		pages = append(pages, ExtraPage{
			URL:   link.href,
			Title: link.text,
			Text:  extractor.Truncate(content.MainText, extraPageTextLimit),
		})
	}
	return pages
}

// BuildDigest renders a page as the bounded text summary sent to the oracle
func BuildDigest(page *Page, maxMainText int) string {
	c := page.Content
	var b strings.Builder

	fmt.Fprintf(&b, "URL: %s\n", page.URL)
	fmt.Fprintf(&b, "Title: %s\n", c.Title)
	fmt.Fprintf(&b, "Description: %s\n", c.Description)
	fmt.Fprintf(&b, "Extraction method: %s\n", c.ExtractionMethod)
	if page.Quality.ContentQuality != "" {
		fmt.Fprintf(&b, "Content quality: %s\n", page.Quality.ContentQuality)
	}

	b.WriteString("\nMAIN CONTENT:\n")
	b.WriteString(extractor.Truncate(c.MainText, maxMainText))
	b.WriteString("\n")

	if len(c.StructuredData) > 0 {
		b.WriteString("\nSTRUCTURED DATA:\n")
		for _, key := range firstKeys(c.StructuredData, 5) {
			fmt.Fprintf(&b, "- %s: %d record(s)", key, len(c.StructuredData[key]))
			if len(c.StructuredData[key]) > 0 {
				fmt.Fprintf(&b, " %s", extractor.Truncate(fmt.Sprint(c.StructuredData[key][0]), 200))
			}
			b.WriteString("\n")
		}
	}

	if len(c.Metadata) > 0 {
		b.WriteString("\nMETADATA:\n")
		for _, key := range firstKeys(c.Metadata, 10) {
			fmt.Fprintf(&b, "- %s: %s\n", key, extractor.Truncate(c.Metadata[key], 200))
		}
	}

	if len(c.Images) > 0 {
		b.WriteString("\nIMAGES:\n")
		for _, img := range c.Images[:min(5, len(c.Images))] {
			fmt.Fprintf(&b, "- %s (alt: %s)\n", img.Src, img.Alt)
		}
	}

	if len(c.Links) > 0 {
		b.WriteString("\nLINKS:\n")
		for _, link := range c.Links[:min(10, len(c.Links))] {
			fmt.Fprintf(&b, "- [%s] %s -> %s\n", link.Type, link.Text, link.Href)
		}
	}

	if len(page.ExtraPages) > 0 {
		b.WriteString("\nADDITIONAL PAGES:\n")
		for _, extra := range page.ExtraPages {
			fmt.Fprintf(&b, "=== %s (%s) ===\n%s\n\n", extra.Title, extra.URL, extra.Text)
		}
	}
	return b.String()
}

func firstKeys[V any](m map[string]V, n int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > n {
		keys = keys[:n]
	}
	return keys
}
