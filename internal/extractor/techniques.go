package extractor

import (
	"fmt"
	"math"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

// Document is the raw page handed to each technique.
// Query parses a fresh tree so techniques are free to mutate it.
type Document struct {
	URL *url.URL
	Raw string
}

func newDocument(pageURL, raw string) *Document {
	u, err := url.Parse(pageURL)
	if err != nil || u == nil {
		u = &url.URL{}
	}
	return &Document{URL: u, Raw: raw}
}

// Query parses the raw HTML into a goquery document; it never returns nil
func (d *Document) Query() *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.Raw))
	if err != nil {
		return goquery.NewDocumentFromNode(&html.Node{Type: html.DocumentNode})
	}
	return doc
}

// Result is the outcome of one main-text technique
type Result struct {
	Text    string
	Article *ArticleInfo
}

// Technique recovers the main text of a page
type Technique interface {
	Name() string
	Extract(doc *Document) (*Result, error)
}

// ArticleTechnique uses readability scoring to isolate an article body
type ArticleTechnique struct{}

func (ArticleTechnique) Name() string { return "article" }

func (ArticleTechnique) Extract(doc *Document) (*Result, error) {
	article, err := readability.FromReader(strings.NewReader(doc.Raw), doc.URL)
	if err != nil {
		return nil, fmt.Errorf("readability: %w", err)
	}

	info := &ArticleInfo{
		TopImage: article.Image,
		SiteName: article.SiteName,
		Excerpt:  article.Excerpt,
	}
	if byline := strings.TrimSpace(article.Byline); byline != "" {
		for _, author := range strings.Split(byline, ",") {
			if author = strings.TrimSpace(author); author != "" {
				info.Authors = append(info.Authors, author)
			}
		}
	}
	if article.PublishedTime != nil {
		info.PublishDate = article.PublishedTime.Format(time.RFC3339)
	}
	return &Result{Text: collapseLines(article.TextContent), Article: info}, nil
}

// minDensityScore is the lowest container score accepted as main content
const minDensityScore = 3.0

// DensityTechnique scores containers by the paragraphs they hold and
// strips the winner down to plain text with a strict sanitizer.
type DensityTechnique struct {
	policy *bluemonday.Policy
}

func NewDensityTechnique() *DensityTechnique {
	return &DensityTechnique{policy: bluemonday.StrictPolicy()}
}

func (*DensityTechnique) Name() string { return "density" }

func (t *DensityTechnique) Extract(doc *Document) (*Result, error) {
	gdoc := doc.Query()
	gdoc.Find("script, style, noscript, nav, header, footer, aside, form").Remove()

	scores := make(map[*html.Node]float64)
	var order []*html.Node
	add := func(n *html.Node, score float64) {
		if _, seen := scores[n]; !seen {
			order = append(order, n)
		}
		scores[n] += score
	}

	gdoc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := cleanText(p.Text())
		length := utf8.RuneCountInString(text)
		if length < 25 {
			return
		}
		score := 1 + float64(strings.Count(text, ",")) + math.Min(float64(length)/100, 3)
		parent := p.Parent()
		if parent.Length() == 0 {
			return
		}
		add(parent.Get(0), score)
		if grand := parent.Parent(); grand.Length() > 0 {
			add(grand.Get(0), score/2)
		}
	})

	var best *html.Node
	bestScore := 0.0
	for _, n := range order {
		if scores[n] > bestScore {
			best, bestScore = n, scores[n]
		}
	}
	if best == nil || bestScore < minDensityScore {
		return &Result{}, nil
	}

	sel := gdoc.FindNodes(best)
	sel.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, tr, blockquote").AppendHtml("\n")
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		return nil, fmt.Errorf("render candidate: %w", err)
	}
	text := html.UnescapeString(t.policy.Sanitize(markup))
	return &Result{Text: collapseLines(text)}, nil
}

// contentSelectors are tried in order by the selector technique
var contentSelectors = []string{
	"main", "article", ".content", ".main-content", ".post-content",
	".entry-content", "#content", "#main", ".container", ".wrapper",
}

// SelectorTechnique concatenates the text of common content containers,
// falling back to the whole document when none qualify.
type SelectorTechnique struct{}

func (SelectorTechnique) Name() string { return "selectors" }

func (SelectorTechnique) Extract(doc *Document) (*Result, error) {
	gdoc := doc.Query()
	gdoc.Find("script, style, nav, header, footer, aside").Remove()

	var b strings.Builder
	for _, selector := range contentSelectors {
		gdoc.Find(selector).Each(func(_ int, s *goquery.Selection) {
			text := strings.TrimSpace(s.Text())
			if utf8.RuneCountInString(text) > 50 {
				b.WriteString(text)
				b.WriteString("\n\n")
			}
		})
	}

	text := b.String()
	if strings.TrimSpace(text) == "" && len(gdoc.Nodes) > 0 {
		text = nodeText(gdoc.Nodes[0])
	}
	return &Result{Text: collapseLines(text)}, nil
}

// DefaultTechniques returns the advanced chain: article, density, selectors
func DefaultTechniques() []Technique {
	return []Technique{ArticleTechnique{}, NewDensityTechnique(), SelectorTechnique{}}
}
