// Package export renders conversation sessions and extracted items to files.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"gopkg.in/yaml.v3"

	"scraper-llm/internal/models"
	"scraper-llm/internal/session"
)

// Exporter writes a session in one format
type Exporter interface {
	Export(w io.Writer, s *session.Session) error
	Extension() string
}

// Formats lists the supported format names
func Formats() []string {
	return []string{"json", "yaml", "markdown", "html"}
}

// ForFormat returns the exporter for name
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(name) {
	case "json", "":
		return JSON{}, nil
	case "yaml", "yml":
		return YAML{}, nil
	case "markdown", "md":
		return Markdown{}, nil
	case "html":
		return HTML{}, nil
	default:
		return nil, fmt.Errorf("unknown export format %q (supported: %s)", name, strings.Join(Formats(), ", "))
	}
}

// JSON writes the session as indented JSON
type JSON struct{}

func (JSON) Extension() string { return ".json" }

func (JSON) Export(w io.Writer, s *session.Session) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// YAML writes the session as YAML
type YAML struct{}

func (YAML) Extension() string { return ".yaml" }

func (YAML) Export(w io.Writer, s *session.Session) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}

// Markdown writes a readable transcript with the latest analysis and items
type Markdown struct{}

func (Markdown) Extension() string { return ".md" }

func (Markdown) Export(w io.Writer, s *session.Session) error {
	_, err := io.WriteString(w, RenderMarkdown(s))
	return err
}

// HTML writes the Markdown transcript converted to a standalone HTML page
type HTML struct{}

func (HTML) Extension() string { return ".html" }

func (HTML) Export(w io.Writer, s *session.Session) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(RenderMarkdown(s)), &body); err != nil {
		return fmt.Errorf("failed to render html: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Session %s</title>\n</head>\n<body>\n%s</body>\n</html>\n",
		s.ID, body.String())
	return err
}

// RenderMarkdown renders s as a Markdown document
func RenderMarkdown(s *session.Session) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Session %s\n\n", s.ID)
	fmt.Fprintf(&b, "- Started: %s\n", s.StartedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Updated: %s\n", s.UpdatedAt.Format(time.RFC3339))
	if s.CurrentURL != "" {
		fmt.Fprintf(&b, "- Website: %s\n", s.CurrentURL)
	}

	if a := s.LastAnalysis; a != nil {
		b.WriteString("\n## Analysis\n\n")
		fmt.Fprintf(&b, "- Type: %s\n", a.WebsiteType)
		fmt.Fprintf(&b, "- Description: %s\n", a.Description)
		fmt.Fprintf(&b, "- Content quality: %s\n", a.ContentQuality)
		fmt.Fprintf(&b, "- Technical complexity: %s\n", a.TechnicalComplexity)
		if len(a.AvailableData) > 0 {
			fmt.Fprintf(&b, "- Available data: %s\n", strings.Join(a.AvailableData, ", "))
		}
		if len(a.SuggestedExtractions) > 0 {
			fmt.Fprintf(&b, "- Suggested extractions: %s\n", strings.Join(a.SuggestedExtractions, "; "))
		}
	}

	if e := s.LastExtraction; e != nil {
		fmt.Fprintf(&b, "\n## Extracted items (%d)\n\n", len(e.Items))
		b.WriteString(ItemsTable(e.Items))
	}

	b.WriteString("\n## Conversation\n")
	for _, msg := range s.Messages {
		if msg.Role == session.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "\n### %s (%s)\n\n%s\n", msg.Role, msg.Timestamp.Format("2006-01-02 15:04:05"), msg.Content)
	}
	return b.String()
}

// ItemsTable renders items as a Markdown table with only the populated columns
func ItemsTable(items []models.Item) string {
	if len(items) == 0 {
		return "_No items._\n"
	}
	type column struct {
		name string
		get  func(models.Item) string
	}
	all := []column{
		{"Title", func(i models.Item) string { return i.Title }},
		{"Price", func(i models.Item) string { return i.Price }},
		{"Category", func(i models.Item) string { return i.Category }},
		{"Rating", func(i models.Item) string { return i.Rating }},
		{"Availability", func(i models.Item) string { return i.Availability }},
		{"URL", func(i models.Item) string { return i.URL }},
		{"Image", func(i models.Item) string {
			if i.ImgLocal != "" {
				return i.ImgLocal
			}
			return i.Img
		}},
	}
	var cols []column
	for _, c := range all {
		for _, item := range items {
			if c.get(item) != "" {
				cols = append(cols, c)
				break
			}
		}
	}

	var b strings.Builder
	b.WriteString("|")
	for _, c := range cols {
		b.WriteString(" " + c.name + " |")
	}
	b.WriteString("\n|")
	for range cols {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, item := range items {
		b.WriteString("|")
		for _, c := range cols {
			b.WriteString(" " + escapeCell(c.get(item)) + " |")
		}
		b.WriteString("\n")
	}
	return b.String()
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.Join(strings.Fields(s), " ")
}

// WriteFile exports s to path through a temporary file and an atomic rename
func WriteFile(path string, exp Exporter, s *session.Session) error {
	var buf bytes.Buffer
	if err := exp.Export(&buf, s); err != nil {
		return fmt.Errorf("failed to export session: %w", err)
	}
	return writeAtomic(path, buf.Bytes())
}

func writeAtomic(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create export directory: %w", err)
		}
	}
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
