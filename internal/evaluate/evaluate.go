// Package evaluate scores how much a scrape recovered and how well an
// extraction matched what was asked for.
package evaluate

import (
	"math"
	"strings"

	"scraper-llm/internal/extractor"
	"scraper-llm/internal/models"
)

// Content quality labels
const (
	QualityHigh   = "high"
	QualityMedium = "medium"
	QualityLow    = "low"
)

// ScrapeReport summarizes one scraped page
type ScrapeReport struct {
	ContentLength       int     `json:"content_length" yaml:"content_length"`
	ContentQuality      string  `json:"content_quality" yaml:"content_quality"`
	StructuredDataCount int     `json:"structured_data_count" yaml:"structured_data_count"`
	ImagesFound         int     `json:"images_found" yaml:"images_found"`
	LinksFound          int     `json:"links_found" yaml:"links_found"`
	PagesScraped        int     `json:"pages_scraped" yaml:"pages_scraped"`
	QualityScore        float64 `json:"quality_score" yaml:"quality_score"`
}

// ExtractionReport summarizes one extraction against an expected item count
type ExtractionReport struct {
	Success          bool     `json:"success" yaml:"success"`
	ItemsExtracted   int      `json:"items_extracted" yaml:"items_extracted"`
	Accuracy         float64  `json:"extraction_accuracy" yaml:"extraction_accuracy"`
	QualityScore     float64  `json:"quality_score" yaml:"quality_score"`
	PerformanceScore float64  `json:"performance_score" yaml:"performance_score"`
	Level            string   `json:"level" yaml:"level"`
	Issues           []string `json:"issues" yaml:"issues"`
	Recommendations  []string `json:"recommendations,omitempty" yaml:"recommendations,omitempty"`
}

// ContentQuality labels a main text by its length
func ContentQuality(length int) string {
	switch {
	case length < 1000:
		return QualityLow
	case length < 5000:
		return QualityMedium
	default:
		return QualityHigh
	}
}

// ScrapeQuality scores extracted content. pages counts the main page plus
// any extra pages fetched alongside it; values below one count as one.
func ScrapeQuality(content *extractor.Content, pages int) ScrapeReport {
	if pages < 1 {
		pages = 1
	}
	report := ScrapeReport{PagesScraped: pages}
	if content == nil {
		report.ContentQuality = QualityLow
		report.QualityScore = math.Min(float64(pages)*2, 10)
		return report
	}

	report.ContentLength = len(content.MainText)
	report.ContentQuality = ContentQuality(report.ContentLength)
	for _, records := range content.StructuredData {
		report.StructuredDataCount += len(records)
	}
	report.ImagesFound = len(content.Images)
	report.LinksFound = len(content.Links)

	report.QualityScore = math.Min(float64(report.ContentLength)/1000, 10) +
		math.Min(float64(report.StructuredDataCount)*2, 10) +
		math.Min(float64(report.ImagesFound)*0.5, 5) +
		math.Min(float64(report.LinksFound)*0.1, 5) +
		math.Min(float64(pages)*2, 10)
	return report
}

// ExtractionQuality checks extracted items. expected <= 0 means the item
// count is unknown and accuracy is reported as zero.
func ExtractionQuality(items []models.Item, expected int) ExtractionReport {
	report := ExtractionReport{
		Success:        len(items) > 0,
		ItemsExtracted: len(items),
		Issues:         []string{},
	}
	if expected > 0 {
		report.Accuracy = math.Min(float64(len(items))/float64(expected), 1)
	}

	if len(items) == 0 {
		report.Issues = append(report.Issues, "No items extracted")
		report.Recommendations = append(report.Recommendations, "Check if the website has the requested content")
	}
	if expected > 0 && report.Accuracy < 0.5 {
		report.Issues = append(report.Issues, "Low extraction accuracy")
		report.Recommendations = append(report.Recommendations, "Refine the requirements or fetch with JavaScript rendering")
	}
	for _, item := range items {
		if strings.TrimSpace(item.Title) == "" {
			report.Issues = append(report.Issues, "Items missing titles")
			break
		}
	}
	titles := make(map[string]bool, len(items))
	for _, item := range items {
		titles[item.Title] = true
	}
	if len(items) > 0 && len(titles) < len(items) {
		report.Issues = append(report.Issues, "Duplicate items detected")
		report.Recommendations = append(report.Recommendations, "Tighten the requirements so each item is listed once")
	}

	report.QualityScore = math.Min(float64(len(items))*2, 10)
	if len(report.Issues) == 0 {
		report.QualityScore += 5
	}
	report.PerformanceScore = report.Accuracy*100 + report.QualityScore*2
	report.Level = Level(report.PerformanceScore)
	return report
}

// Level buckets a performance score
func Level(score float64) string {
	switch {
	case score >= 80:
		return "Excellent"
	case score >= 60:
		return "Good"
	case score >= 40:
		return "Fair"
	default:
		return "Poor"
	}
}
