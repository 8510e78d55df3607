package extractor

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link types, in classification priority order
const (
	LinkContact = "contact"
	LinkProduct = "product"
	LinkArticle = "article"
	LinkAuth    = "auth"
	LinkGeneral = "general"
)

var linkCategories = []struct {
	kind     string
	keywords []string
}{
	{LinkContact, []string{"contact", "about", "team"}},
	{LinkProduct, []string{"product", "item", "buy", "shop"}},
	{LinkArticle, []string{"article", "post", "blog", "news"}},
	{LinkAuth, []string{"login", "signup", "register"}},
}

// ClassifyLink assigns a link type from keywords in its URL and text; the first matching category wins
func ClassifyLink(href, text string) string {
	haystack := strings.ToLower(href + " " + text)
	for _, category := range linkCategories {
		for _, kw := range category.keywords {
			if strings.Contains(haystack, kw) {
				return category.kind
			}
		}
	}
	return LinkGeneral
}

// resolveURL makes ref absolute against base. Unparseable refs are returned as-is.
func resolveURL(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}

// extractImages returns up to maxImages images in document order
func extractImages(doc *goquery.Document, base *url.URL) []Image {
	images := []Image{}
	doc.Find("img").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			return true
		}
		images = append(images, Image{
			Src:       resolveURL(base, src),
			Alt:       strings.TrimSpace(s.AttrOr("alt", "")),
			ParentTag: goquery.NodeName(s.Parent()),
		})
		return len(images) < maxImages
	})
	return images
}

// extractLinks returns up to maxLinks classified links in document order
func extractLinks(doc *goquery.Document, base *url.URL) []Link {
	links := []Link{}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href := strings.TrimSpace(s.AttrOr("href", ""))
		text := cleanText(s.Text())
		if href == "" || text == "" {
			return true
		}
		abs := resolveURL(base, href)
		links = append(links, Link{
			Href: abs,
			Text: text,
			Type: ClassifyLink(abs, text),
		})
		return len(links) < maxLinks
	})
	return links
}
