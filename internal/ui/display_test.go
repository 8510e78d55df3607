package ui

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/models"
	"scraper-llm/internal/scraper"
	"scraper-llm/internal/session"
)

func newTestDisplay() (*Display, *bytes.Buffer) {
	var buf bytes.Buffer
	return NewDisplayTo(&buf, 100), &buf
}

func TestPrintItems(t *testing.T) {
	d, buf := newTestDisplay()
	d.PrintItems([]models.Item{
		{Title: "Red shoe", Price: "$10", Img: "https://x.test/a.jpg", ImgLocal: "/images/a.jpg"},
		{Title: strings.Repeat("long ", 20), Price: "$12"},
	})

	out := buf.String()
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "/images/a.jpg")
	assert.NotContains(t, out, "https://x.test/a.jpg")
	assert.Contains(t, out, "...")
}

func TestPrintAnalysis(t *testing.T) {
	d, buf := newTestDisplay()
	d.PrintAnalysis(&scraper.AnalysisResult{
		Success: true,
		URL:     "https://blog.test",
		Analysis: &models.Analysis{
			WebsiteType:   "blog",
			Description:   "Posts about Go",
			AvailableData: []string{"articles"},
		},
	})
	out := buf.String()
	assert.Contains(t, out, "https://blog.test")
	assert.Contains(t, out, "blog")
	assert.Contains(t, out, "• articles")

	buf.Reset()
	d.PrintAnalysis(&scraper.AnalysisResult{AIResponse: "I couldn't retrieve it.", Error: "FETCH_FAILURE: all fetching methods failed"})
	assert.Contains(t, buf.String(), "I couldn't retrieve it.")
	assert.Contains(t, buf.String(), "FETCH_FAILURE")
}

func TestPrintHistorySkipsSystem(t *testing.T) {
	d, buf := newTestDisplay()
	ts := time.Date(2025, 1, 1, 9, 30, 0, 0, time.UTC)
	d.PrintHistory([]session.Message{
		{Role: session.RoleSystem, Content: "secret system prompt", Timestamp: ts},
		{Role: session.RoleUser, Content: "hello", Timestamp: ts},
		{Role: session.RoleAssistant, Content: "hi!", Timestamp: ts},
	})
	out := buf.String()
	assert.NotContains(t, out, "secret system prompt")
	assert.Contains(t, out, "[09:30:00] You:")
	assert.Contains(t, out, "hi!")

	buf.Reset()
	d.PrintHistory(nil)
	assert.Contains(t, buf.String(), "No conversation history yet")
}

func TestStreamedAnswer(t *testing.T) {
	d, buf := newTestDisplay()
	d.StartAssistantResponse()
	d.WriteAnswer("Hello ")
	d.WriteAnswer("**world**")
	d.EndAssistantResponse()

	out := buf.String()
	assert.Contains(t, out, "Hello **world**")
	assert.Contains(t, out, "~2 words")
}

func TestMessages(t *testing.T) {
	d, buf := newTestDisplay()
	d.PrintError(errors.New("boom"))
	d.PrintSuccess("done")
	d.PrintHelp(scraper.Help())
	out := buf.String()
	assert.Contains(t, out, "Error: boom")
	assert.Contains(t, out, "done")
	assert.Contains(t, out, "analyze <url>")
	assert.NotContains(t, out, "Hint:")
}

func TestPrintErrorShowsHint(t *testing.T) {
	d, buf := newTestDisplay()
	d.PrintError(fmt.Errorf("extract: %w", apperrors.NewSessionPrecondition("no website analyzed", "Analyze a website first")))
	assert.Contains(t, buf.String(), "Hint: Analyze a website first")

	buf.Reset()
	err := apperrors.NewFetchFailure("https://down.test", errors.New("refused"))
	d.PrintAnalysis(&scraper.AnalysisResult{URL: "https://down.test", Err: err, Error: err.Error(), AIResponse: "I couldn't retrieve the page."})
	out := buf.String()
	assert.Contains(t, out, "I couldn't retrieve the page.")
	assert.Contains(t, out, "Hint: The page could not be retrieved.")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
}

func TestInputReader(t *testing.T) {
	r := NewInputReader(strings.NewReader("  analyze https://x.test \n\nquit\n"))

	line, err := r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "analyze https://x.test", line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Empty(t, line)

	line, err = r.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "quit", line)

	_, err = r.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
}
