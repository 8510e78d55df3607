// Package ui renders the interactive scraping conversation in a terminal.
package ui

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/evaluate"
	"scraper-llm/internal/models"
	"scraper-llm/internal/scraper"
	"scraper-llm/internal/session"
)

var (
	bannerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39")).
			Padding(0, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	promptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))
)

// Display renders the conversation, analyses and extracted items
type Display struct {
	out            io.Writer
	width          int
	responseBuffer strings.Builder
	startTime      time.Time
	wordCount      int
	renderer       *glamour.TermRenderer
}

// NewDisplay creates a display writing to stdout, sized to the terminal
func NewDisplay() *Display {
	return NewDisplayTo(os.Stdout, terminalWidth())
}

// NewDisplayTo creates a display writing to out with the given width
func NewDisplayTo(out io.Writer, width int) *Display {
	if width <= 20 {
		width = 80
	}
	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-10),
	)
	return &Display{out: out, width: width, renderer: renderer}
}

// ClearScreen clears the terminal
func (d *Display) ClearScreen() {
	fmt.Fprint(d.out, "\033[2J\033[H")
}

// PrintWelcome displays the banner, model and session
func (d *Display) PrintWelcome(model, sessionID string) {
	fmt.Fprintln(d.out, bannerStyle.Render("scraper-llm · conversational web scraping"))
	fmt.Fprintf(d.out, "\n%s %s\n", labelStyle.Render("Model:"), model)
	fmt.Fprintf(d.out, "%s %s\n", labelStyle.Render("Session:"), sessionID)
	fmt.Fprintf(d.out, "%s analyze <url> | extract <requirements> | chat <message> | history | export <format> [file] | new | help | exit\n",
		labelStyle.Render("Commands:"))
	fmt.Fprintln(d.out)
}

// PrintSeparator prints a visual separator
func (d *Display) PrintSeparator() {
	fmt.Fprintln(d.out, dimStyle.Render(strings.Repeat("─", min(d.width, 80))))
}

// PrintPrompt displays the input prompt
func (d *Display) PrintPrompt() {
	fmt.Fprintf(d.out, "\n%s ", promptStyle.Render("❯"))
}

// PrintUserMessage displays a user message with timestamp
func (d *Display) PrintUserMessage(content string, timestamp time.Time) {
	fmt.Fprintln(d.out, dimStyle.Render("┌─ You · "+timestamp.Format("15:04:05")))
	fmt.Fprintf(d.out, "%s %s\n", dimStyle.Render("│"), content)
	fmt.Fprintln(d.out, dimStyle.Render("└"))
}

// StartAssistantResponse initializes response tracking
func (d *Display) StartAssistantResponse() {
	d.startTime = time.Now()
	d.wordCount = 0
	d.responseBuffer.Reset()
	fmt.Fprintln(d.out, dimStyle.Render("┌─ Assistant · "+d.startTime.Format("15:04:05")))
	fmt.Fprintf(d.out, "%s ", dimStyle.Render("│"))
}

// WriteAnswer streams answer text as it arrives
func (d *Display) WriteAnswer(text string) {
	d.responseBuffer.WriteString(text)
	d.wordCount += len(strings.Fields(text))
	fmt.Fprint(d.out, text)
}

// EndAssistantResponse renders the buffered answer as markdown and shows timing
func (d *Display) EndAssistantResponse() {
	duration := time.Since(d.startTime)
	fmt.Fprintln(d.out)

	if d.responseBuffer.Len() > 0 && d.renderer != nil {
		if rendered, err := d.renderer.Render(d.responseBuffer.String()); err == nil {
			fmt.Fprintln(d.out)
			for _, line := range strings.Split(strings.TrimRight(rendered, "\n"), "\n") {
				fmt.Fprintf(d.out, "%s %s\n", dimStyle.Render("│"), line)
			}
		}
	}
	fmt.Fprintln(d.out, dimStyle.Render(fmt.Sprintf("│ %s · ~%d words", FormatDuration(duration), d.wordCount)))
	fmt.Fprintln(d.out, dimStyle.Render("└"))
}

// PrintActivity shows progress of a long operation
func (d *Display) PrintActivity(message string) {
	fmt.Fprintln(d.out, infoStyle.Faint(true).Render("… "+message))
}

// PrintInfo displays info message
func (d *Display) PrintInfo(msg string) {
	fmt.Fprintln(d.out, infoStyle.Render("ℹ "+msg))
}

// PrintWarning displays warning message
func (d *Display) PrintWarning(msg string) {
	fmt.Fprintln(d.out, warningStyle.Render("⚠ "+msg))
}

// PrintError displays error message
func (d *Display) PrintError(err error) {
	fmt.Fprintln(d.out, errorStyle.Render(fmt.Sprintf("✗ Error: %v", err)))
	d.hint(err)
}

// hint prints the remediation attached to err, if any
func (d *Display) hint(err error) {
	if h := apperrors.Hint(err); h != "" && h != err.Error() {
		fmt.Fprintln(d.out, infoStyle.Render("  Hint: "+h))
	}
}

// PrintSuccess displays success message
func (d *Display) PrintSuccess(msg string) {
	fmt.Fprintln(d.out, successStyle.Render("✓ "+msg))
}

// PrintGoodbye displays goodbye message
func (d *Display) PrintGoodbye() {
	fmt.Fprintln(d.out, "\n"+headerStyle.Render("Thank you for using scraper-llm!"))
}

// PrintAnalysis shows an analysis result
func (d *Display) PrintAnalysis(res *scraper.AnalysisResult) {
	if !res.Success {
		d.PrintWarning(res.AIResponse)
		if res.Error != "" {
			fmt.Fprintln(d.out, dimStyle.Render("  "+res.Error))
		}
		if res.Err != nil {
			d.hint(res.Err)
		}
		return
	}
	a := res.Analysis
	fmt.Fprintln(d.out, headerStyle.Render("Analysis of "+res.URL))
	d.field("Type", a.WebsiteType)
	d.field("Description", a.Description)
	d.field("Content quality", a.ContentQuality)
	d.field("Complexity", a.TechnicalComplexity)
	d.field("Fetched with", string(res.Method))
	d.list("Available data", a.AvailableData)
	d.list("Try", a.SuggestedExtractions)
}

// PrintExtraction shows extracted items as an aligned table
func (d *Display) PrintExtraction(res *scraper.ExtractionResult) {
	if !res.Success {
		d.PrintWarning(res.AIResponse)
		if res.Error != "" {
			fmt.Fprintln(d.out, dimStyle.Render("  "+res.Error))
		}
		if res.Err != nil {
			d.hint(res.Err)
		}
		return
	}
	fmt.Fprintln(d.out, headerStyle.Render(res.AIResponse))
	d.PrintItems(res.Data.Items)
}

// PrintItems writes items as tab-aligned rows
func (d *Display) PrintItems(items []models.Item) {
	if len(items) == 0 {
		d.PrintInfo("No items found")
		return
	}
	w := tabwriter.NewWriter(d.out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "#\tTitle\tPrice\tImage\t")
	for i, it := range items {
		img := it.ImgLocal
		if img == "" {
			img = it.Img
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", i+1, truncate(it.Title, 50), it.Price, truncate(img, 40))
	}
	_ = w.Flush()
}

// PrintHistory shows all non-system messages of a session
func (d *Display) PrintHistory(messages []session.Message) {
	shown := 0
	d.PrintSeparator()
	fmt.Fprintln(d.out, headerStyle.Render("Conversation History"))
	d.PrintSeparator()
	for _, msg := range messages {
		if msg.Role == session.RoleSystem {
			continue
		}
		who := "Assistant"
		if msg.Role == session.RoleUser {
			who = "You"
		}
		fmt.Fprintf(d.out, "\n%s\n%s\n", labelStyle.Render(fmt.Sprintf("[%s] %s:", msg.Timestamp.Format("15:04:05"), who)), msg.Content)
		shown++
	}
	if shown == 0 {
		d.PrintInfo("No conversation history yet")
	}
	d.PrintSeparator()
}

// PrintHelp shows commands, examples and the workflow
func (d *Display) PrintHelp(help scraper.HelpInfo) {
	fmt.Fprintln(d.out, headerStyle.Render("Commands"))
	names := make([]string, 0, len(help.Commands))
	for name := range help.Commands {
		names = append(names, name)
	}
	sort.Strings(names)
	w := tabwriter.NewWriter(d.out, 0, 0, 3, ' ', 0)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\t%s\n", name, help.Commands[name])
	}
	_ = w.Flush()
	d.list("Examples", help.Examples)
	d.list("Workflow", help.Workflow)
}

// PrintPage shows an AI-free scrape summary
func (d *Display) PrintPage(page *scraper.Page, report evaluate.ScrapeReport) {
	c := page.Content
	fmt.Fprintln(d.out, headerStyle.Render(page.URL))
	d.field("Title", c.Title)
	d.field("Description", c.Description)
	d.field("Fetched with", string(page.Method))
	d.field("Extraction", c.ExtractionMethod+" "+c.Technique)
	d.field("Quality", fmt.Sprintf("%s (score %.1f)", report.ContentQuality, report.QualityScore))
	d.field("Content", fmt.Sprintf("%d chars, %d structured records, %d images, %d links",
		report.ContentLength, report.StructuredDataCount, report.ImagesFound, report.LinksFound))
	for _, warn := range c.Warnings {
		d.PrintWarning(warn)
	}
}

func (d *Display) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(d.out, "  %s %s\n", labelStyle.Render(label+":"), value)
}

func (d *Display) list(label string, values []string) {
	if len(values) == 0 {
		return
	}
	fmt.Fprintf(d.out, "  %s\n", labelStyle.Render(label+":"))
	for _, v := range values {
		fmt.Fprintf(d.out, "    • %s\n", v)
	}
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// FormatDuration renders d as milliseconds below a second, else seconds
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil {
		return 80
	}
	return width
}

// IsInteractive reports whether stdin is a terminal
func IsInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}
