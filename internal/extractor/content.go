package extractor

const (
	// MethodAdvanced marks content produced by the full technique chain
	MethodAdvanced = "advanced"
	// MethodGeneric marks content produced by the basic selector heuristic
	MethodGeneric = "generic"

	maxImages = 20
	maxLinks  = 30
)

// Record is one structured-data entry, e.g. a JSON-LD object or an OpenGraph property set
type Record map[string]any

// Image is an image reference found on a page
type Image struct {
	Src       string `json:"src" yaml:"src"`
	Alt       string `json:"alt" yaml:"alt"`
	ParentTag string `json:"parent_tag" yaml:"parent_tag"`
}

// Link is a classified anchor found on a page
type Link struct {
	Href string `json:"href" yaml:"href"`
	Text string `json:"text" yaml:"text"`
	Type string `json:"type" yaml:"type"`
}

// ArticleInfo carries article metadata recovered by the article technique
type ArticleInfo struct {
	Authors     []string `json:"authors,omitempty" yaml:"authors,omitempty"`
	PublishDate string   `json:"publish_date,omitempty" yaml:"publish_date,omitempty"`
	TopImage    string   `json:"top_image,omitempty" yaml:"top_image,omitempty"`
	SiteName    string   `json:"site_name,omitempty" yaml:"site_name,omitempty"`
	Excerpt     string   `json:"excerpt,omitempty" yaml:"excerpt,omitempty"`
}

// Content is the normalized result of extracting a page
type Content struct {
	URL              string              `json:"url" yaml:"url"`
	Title            string              `json:"title" yaml:"title"`
	Description      string              `json:"description" yaml:"description"`
	MainText         string              `json:"main_text" yaml:"main_text"`
	StructuredData   map[string][]Record `json:"structured_data" yaml:"structured_data"`
	Images           []Image             `json:"images" yaml:"images"`
	Links            []Link              `json:"links" yaml:"links"`
	Metadata         map[string]string   `json:"metadata" yaml:"metadata"`
	Article          *ArticleInfo        `json:"article,omitempty" yaml:"article,omitempty"`
	ExtractionMethod string              `json:"extraction_method" yaml:"extraction_method"`
	Technique        string              `json:"technique,omitempty" yaml:"technique,omitempty"`
	Warnings         []string            `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

func newContent(pageURL, method string) *Content {
	return &Content{
		URL:              pageURL,
		StructuredData:   map[string][]Record{},
		Images:           []Image{},
		Links:            []Link{},
		Metadata:         map[string]string{},
		ExtractionMethod: method,
	}
}
