package extractor

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHeadings  = 10
	maxLists     = 5
	maxListItems = 10
)

// StructuredParser pulls one kind of structured data out of a page
type StructuredParser interface {
	Name() string
	Parse(doc *goquery.Document, base *url.URL) ([]Record, error)
}

// DefaultParsers returns the parsers used by the advanced path
func DefaultParsers() []StructuredParser {
	return []StructuredParser{MicrodataParser{}, OpenGraphParser{}, TwitterParser{}, JSONLDParser{}}
}

// GenericParsers returns the parsers used by the generic path
func GenericParsers() []StructuredParser {
	return []StructuredParser{OpenGraphParser{}, TwitterParser{}, JSONLDParser{}, HeadingsParser{}, ListsParser{}}
}

// metaPrefixRecord collects meta tags whose property or name starts with prefix into one record
func metaPrefixRecord(doc *goquery.Document, prefix string) []Record {
	rec := Record{}
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok || !strings.HasPrefix(key, prefix) {
			key, ok = s.Attr("name")
		}
		if !ok || !strings.HasPrefix(key, prefix) {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		rec[strings.TrimPrefix(key, prefix)] = strings.TrimSpace(content)
	})
	if len(rec) == 0 {
		return nil
	}
	return []Record{rec}
}

// OpenGraphParser reads og:* meta properties
type OpenGraphParser struct{}

func (OpenGraphParser) Name() string { return "opengraph" }

func (OpenGraphParser) Parse(doc *goquery.Document, _ *url.URL) ([]Record, error) {
	return metaPrefixRecord(doc, "og:"), nil
}

// TwitterParser reads twitter:* card meta tags
type TwitterParser struct{}

func (TwitterParser) Name() string { return "twitter" }

func (TwitterParser) Parse(doc *goquery.Document, _ *url.URL) ([]Record, error) {
	return metaPrefixRecord(doc, "twitter:"), nil
}

// JSONLDParser decodes application/ld+json blocks. Malformed blocks are skipped.
type JSONLDParser struct{}

func (JSONLDParser) Name() string { return "json_ld" }

func (JSONLDParser) Parse(doc *goquery.Document, _ *url.URL) ([]Record, error) {
	var (
		records []Record
		skipped int
	)
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(s.Text())), &v); err != nil {
			skipped++
			return
		}
		switch data := v.(type) {
		case map[string]any:
			records = append(records, Record(data))
		case []any:
			for _, entry := range data {
				if obj, ok := entry.(map[string]any); ok {
					records = append(records, Record(obj))
				}
			}
		}
	})
	if skipped > 0 {
		return records, fmt.Errorf("skipped %d malformed json-ld block(s)", skipped)
	}
	return records, nil
}

// MicrodataParser walks itemscope/itemprop annotations
type MicrodataParser struct{}

func (MicrodataParser) Name() string { return "microdata" }

func (MicrodataParser) Parse(doc *goquery.Document, base *url.URL) ([]Record, error) {
	var records []Record
	doc.Find("[itemscope]").
		FilterFunction(func(_ int, s *goquery.Selection) bool {
			return s.ParentsFiltered("[itemscope]").Length() == 0
		}).
		Each(func(_ int, s *goquery.Selection) {
			records = append(records, microdataItem(s, base))
		})
	return records, nil
}

func microdataItem(scope *goquery.Selection, base *url.URL) Record {
	rec := Record{}
	if itemType, ok := scope.Attr("itemtype"); ok && itemType != "" {
		rec["@type"] = itemType
	}
	owner := scope.Get(0)
	scope.Find("[itemprop]").Each(func(_ int, prop *goquery.Selection) {
		if prop.ParentsFiltered("[itemscope]").First().Get(0) != owner {
			return
		}
		var value any
		if _, nested := prop.Attr("itemscope"); nested {
			value = microdataItem(prop, base)
		} else {
			value = microdataValue(prop, base)
		}
		for _, name := range strings.Fields(prop.AttrOr("itemprop", "")) {
			addProperty(rec, name, value)
		}
	})
	return rec
}

func microdataValue(s *goquery.Selection, base *url.URL) string {
	switch goquery.NodeName(s) {
	case "meta":
		return s.AttrOr("content", "")
	case "a", "link", "area":
		return resolveURL(base, s.AttrOr("href", ""))
	case "img", "audio", "video", "source", "iframe", "embed", "track":
		return resolveURL(base, s.AttrOr("src", ""))
	case "object":
		return resolveURL(base, s.AttrOr("data", ""))
	case "time":
		if dt, ok := s.Attr("datetime"); ok {
			return dt
		}
	case "data", "meter":
		if v, ok := s.Attr("value"); ok {
			return v
		}
	}
	return cleanText(s.Text())
}

func addProperty(rec Record, name string, value any) {
	existing, ok := rec[name]
	if !ok {
		rec[name] = value
		return
	}
	if list, isList := existing.([]any); isList {
		rec[name] = append(list, value)
		return
	}
	rec[name] = []any{existing, value}
}

// HeadingsParser lists the first headings of a page in document order
type HeadingsParser struct{}

func (HeadingsParser) Name() string { return "headings" }

func (HeadingsParser) Parse(doc *goquery.Document, _ *url.URL) ([]Record, error) {
	var records []Record
	doc.Find("h1, h2, h3, h4, h5, h6").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := cleanText(s.Text()); text != "" {
			records = append(records, Record{"level": goquery.NodeName(s), "text": text})
		}
		return len(records) < maxHeadings
	})
	return records, nil
}

// ListsParser captures the first lists of a page and their first items
type ListsParser struct{}

func (ListsParser) Name() string { return "lists" }

func (ListsParser) Parse(doc *goquery.Document, _ *url.URL) ([]Record, error) {
	var records []Record
	doc.Find("ul, ol").EachWithBreak(func(_ int, list *goquery.Selection) bool {
		var items []string
		list.ChildrenFiltered("li").EachWithBreak(func(_ int, li *goquery.Selection) bool {
			if text := cleanText(li.Text()); text != "" {
				items = append(items, text)
			}
			return len(items) < maxListItems
		})
		if len(items) > 0 {
			records = append(records, Record{"type": goquery.NodeName(list), "items": items})
		}
		return len(records) < maxLists
	})
	return records, nil
}
