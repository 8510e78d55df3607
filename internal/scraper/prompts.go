package scraper

import (
	"fmt"
	"slices"
	"strings"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/models"
	"scraper-llm/internal/oracle"
)

var (
	websiteTypes     = []string{"ecommerce", "blog", "news", "portfolio", "corporate", "social_media", "other"}
	qualityLevels    = []string{"high", "medium", "low"}
	complexityLevels = []string{"simple", "moderate", "complex"}
)

// validateAnalysis enforces the analysis schema on backends that only
// approximate it (ollama, fenced text answers)
func validateAnalysis(a *models.Analysis) error {
	var problems []string
	if !slices.Contains(websiteTypes, a.WebsiteType) {
		problems = append(problems, fmt.Sprintf("website_type %q", a.WebsiteType))
	}
	if !slices.Contains(qualityLevels, a.ContentQuality) {
		problems = append(problems, fmt.Sprintf("content_quality %q", a.ContentQuality))
	}
	if !slices.Contains(complexityLevels, a.TechnicalComplexity) {
		problems = append(problems, fmt.Sprintf("technical_complexity %q", a.TechnicalComplexity))
	}
	if strings.TrimSpace(a.Description) == "" {
		problems = append(problems, "empty description")
	}
	if len(problems) > 0 {
		return apperrors.NewAIFailure("analysis violates schema: "+strings.Join(problems, ", "), nil)
	}
	return nil
}

// extractedItem is the item shape the oracle is asked for. The local image
// reference is derived afterwards and is not part of the contract.
type extractedItem struct {
	Title        string `json:"title" jsonschema:"description=Name or headline of the item."`
	Price        string `json:"price,omitempty" jsonschema:"description=Price including currency symbol."`
	Img          string `json:"img,omitempty" jsonschema:"description=Image URL as found on the page."`
	Description  string `json:"description,omitempty"`
	URL          string `json:"url,omitempty" jsonschema:"description=Link to the item's own page."`
	Category     string `json:"category,omitempty"`
	Rating       string `json:"rating,omitempty"`
	Availability string `json:"availability,omitempty"`
}

type extractionResult struct {
	Items    []extractedItem       `json:"items"`
	Metadata models.ExtractionMeta `json:"metadata"`
}

func (r extractionResult) payload() *models.ExtractionPayload {
	items := make([]models.Item, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, models.Item{
			Title:        it.Title,
			Price:        it.Price,
			Img:          it.Img,
			Description:  it.Description,
			URL:          it.URL,
			Category:     it.Category,
			Rating:       it.Rating,
			Availability: it.Availability,
		})
	}
	return &models.ExtractionPayload{Items: items, Metadata: r.Metadata}
}

var (
	analysisSchema   = oracle.NewSchema[models.Analysis]("website_analysis", "Classification of a website and the data it offers", true)
	extractionSchema = oracle.NewSchema[extractionResult]("data_extraction", "Items extracted from a website", false)
)

func analysisPrompt(digest string) string {
	return fmt.Sprintf(`Analyze the following website content.
Classify the site, describe it briefly, list the kinds of data available on it,
and suggest extraction requests the user could make next.

%s`, digest)
}

func extractionPrompt(requirements, digest string) string {
	if requirements == "" {
		requirements = "all relevant items (title, price, image)"
	}
	return fmt.Sprintf(`Extract data from the following website content.

Requirements: %s

Return every matching item. Every item needs a title. Copy prices, image URLs and
links exactly as they appear; leave a field out when it is not present.

%s`, requirements, digest)
}

func legacyPrompt(html string) string {
	return "Here is the HTML of a web page. Return the relevant items (title, price, image) in the declared JSON format.\n\n" + html
}

func analysisSummary(a *models.Analysis) string {
	return fmt.Sprintf("This looks like a %s website: %s\nContent quality: %s, technical complexity: %s.",
		a.WebsiteType, a.Description, a.ContentQuality, a.TechnicalComplexity)
}

// HelpInfo lists the available commands with examples
type HelpInfo struct {
	Commands map[string]string `json:"commands" yaml:"commands"`
	Examples []string          `json:"examples" yaml:"examples"`
	Workflow []string          `json:"workflow" yaml:"workflow"`
}

// Help describes how to drive a scraping conversation
func Help() HelpInfo {
	return HelpInfo{
		Commands: map[string]string{
			"analyze <url>":          "Analyze a website and learn which data it offers",
			"extract <requirements>": "Extract data from the analyzed website",
			"chat <message>":         "Ask a question about the site or the results",
			"history":                "Show the conversation so far",
			"new":                    "Start a new session",
			"help":                   "Show this help",
		},
		Examples: []string{
			"analyze https://books.toscrape.com",
			"extract all book titles with prices and ratings",
			"extract product names, prices and images",
			"chat which fields can I get from this site?",
		},
		Workflow: []string{
			"Analyze a site with 'analyze <url>'",
			"Read which kinds of data are available",
			"Extract with 'extract <requirements>'",
			"Ask follow-up questions with 'chat <message>'",
		},
	}
}
