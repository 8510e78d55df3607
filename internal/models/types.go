package models

// Analysis is the structured classification of a website returned by the oracle
type Analysis struct {
	WebsiteType          string   `json:"website_type" yaml:"website_type" jsonschema:"title=Website type,enum=ecommerce,enum=blog,enum=news,enum=portfolio,enum=corporate,enum=social_media,enum=other"`
	Description          string   `json:"description" yaml:"description" jsonschema:"title=Description,description=A short summary of what the website is about."`
	AvailableData        []string `json:"available_data" yaml:"available_data" jsonschema:"title=Available data,description=Kinds of data present on the page."`
	SuggestedExtractions []string `json:"suggested_extractions" yaml:"suggested_extractions" jsonschema:"title=Suggested extractions,description=Extraction requests the user could make next."`
	ContentQuality       string   `json:"content_quality" yaml:"content_quality" jsonschema:"title=Content quality,enum=high,enum=medium,enum=low"`
	TechnicalComplexity  string   `json:"technical_complexity" yaml:"technical_complexity" jsonschema:"title=Technical complexity,enum=simple,enum=moderate,enum=complex"`
}

// Item is a single extracted record
type Item struct {
	Title        string `json:"title" yaml:"title"`
	Price        string `json:"price,omitempty" yaml:"price,omitempty"`
	Img          string `json:"img,omitempty" yaml:"img,omitempty"`
	ImgLocal     string `json:"img_local,omitempty" yaml:"img_local,omitempty"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	URL          string `json:"url,omitempty" yaml:"url,omitempty"`
	Category     string `json:"category,omitempty" yaml:"category,omitempty"`
	Rating       string `json:"rating,omitempty" yaml:"rating,omitempty"`
	Availability string `json:"availability,omitempty" yaml:"availability,omitempty"`
}

// ExtractionMeta summarises an extraction
type ExtractionMeta struct {
	TotalItems       int    `json:"total_items" yaml:"total_items"`
	WebsiteType      string `json:"website_type" yaml:"website_type"`
	ExtractionMethod string `json:"extraction_method" yaml:"extraction_method"`
	ContentQuality   string `json:"content_quality" yaml:"content_quality"`
}

// ExtractionPayload is the final result of an extraction request
type ExtractionPayload struct {
	Items    []Item         `json:"items" yaml:"items"`
	Metadata ExtractionMeta `json:"metadata" yaml:"metadata"`
}
