package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/extractor"
	"scraper-llm/internal/scraper"
	"scraper-llm/internal/session"
)

// Scraper is the conversation service exposed over MCP
type Scraper interface {
	AnalyzeWebsite(ctx context.Context, sessionID, url string) *scraper.AnalysisResult
	ExtractData(ctx context.Context, sessionID, requirements string) *scraper.ExtractionResult
	Chat(ctx context.Context, sessionID, message string) (string, error)
	History(sessionID string) []session.Message
	NewSession() string
	SessionIDs() []string
	DeleteSession(sessionID string) bool
	SmartScrape(ctx context.Context, url, requirements string) (*scraper.Page, error)
}

// Handlers holds dependencies for MCP tool handlers
type Handlers struct {
	svc Scraper
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc Scraper) *Handlers {
	return &Handlers{svc: svc}
}

// AnalyzeRequest represents the arguments for analyze
type AnalyzeRequest struct {
	URL       string `json:"url"`
	SessionID string `json:"session_id,omitempty"`
}

// ExtractRequest represents the arguments for extract
type ExtractRequest struct {
	SessionID    string `json:"session_id"`
	Requirements string `json:"requirements,omitempty"`
}

// ChatRequest represents the arguments for chat
type ChatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

// HistoryRequest represents the arguments for history
type HistoryRequest struct {
	SessionID string `json:"session_id"`
}

// DeleteSessionRequest represents the arguments for delete_session
type DeleteSessionRequest struct {
	SessionID string `json:"session_id"`
}

// FetchRequest represents the arguments for fetch
type FetchRequest struct {
	URL     string `json:"url"`
	MaxText int    `json:"max_text,omitempty"`
}

// FetchOutput is the AI-free view of a scraped page
type FetchOutput struct {
	URL              string            `json:"url"`
	Method           string            `json:"method"`
	Title            string            `json:"title"`
	Description      string            `json:"description"`
	MainText         string            `json:"main_text"`
	ExtractionMethod string            `json:"extraction_method"`
	ContentQuality   string            `json:"content_quality"`
	StructuredData   map[string]int    `json:"structured_data"`
	Images           []extractor.Image `json:"images"`
	Links            []extractor.Link  `json:"links"`
	Warnings         []string          `json:"warnings,omitempty"`
}

// HandleAnalyze handles the analyze tool call
func (h *Handlers) HandleAnalyze(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AnalyzeRequest](req)
	if err != nil {
		return errorResult(apperrors.NewInvalidRequest(err.Error()), ""), nil
	}
	if strings.TrimSpace(input.URL) == "" {
		return errorResult(apperrors.NewInvalidRequest("url is required"), ""), nil
	}

	res := h.svc.AnalyzeWebsite(ctx, input.SessionID, input.URL)
	if !res.Success {
		return errorResult(res.Err, res.AIResponse), nil
	}
	return successResult(res)
}

// HandleExtract handles the extract tool call
func (h *Handlers) HandleExtract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExtractRequest](req)
	if err != nil {
		return errorResult(apperrors.NewInvalidRequest(err.Error()), ""), nil
	}
	if input.SessionID == "" {
		return errorResult(apperrors.NewInvalidRequest("session_id is required"), ""), nil
	}

	res := h.svc.ExtractData(ctx, input.SessionID, input.Requirements)
	if !res.Success {
		return errorResult(res.Err, res.AIResponse), nil
	}
	return successResult(res)
}

// HandleChat handles the chat tool call
func (h *Handlers) HandleChat(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ChatRequest](req)
	if err != nil {
		return errorResult(apperrors.NewInvalidRequest(err.Error()), ""), nil
	}
	if input.SessionID == "" {
		return errorResult(apperrors.NewInvalidRequest("session_id is required"), ""), nil
	}

	answer, err := h.svc.Chat(ctx, input.SessionID, input.Message)
	if err != nil {
		return errorResult(err, ""), nil
	}
	return successResult(map[string]string{"response": answer, "session_id": input.SessionID})
}

// HandleHistory handles the history tool call
func (h *Handlers) HandleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[HistoryRequest](req)
	if err != nil {
		return errorResult(apperrors.NewInvalidRequest(err.Error()), ""), nil
	}
	if input.SessionID == "" {
		return errorResult(apperrors.NewInvalidRequest("session_id is required"), ""), nil
	}
	return successResult(map[string]any{
		"session_id": input.SessionID,
		"history":    h.svc.History(input.SessionID),
	})
}

// HandleFetch handles the fetch tool call
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(apperrors.NewInvalidRequest(err.Error()), ""), nil
	}
	if err := scraper.ValidateURL(input.URL); err != nil {
		return errorResult(err, ""), nil
	}
	if input.MaxText <= 0 {
		input.MaxText = 3000
	}

	page, err := h.svc.SmartScrape(ctx, input.URL, "")
	if err != nil {
		return errorResult(err, ""), nil
	}
	c := page.Content
	out := FetchOutput{
		URL:              page.URL,
		Method:           string(page.Method),
		Title:            c.Title,
		Description:      c.Description,
		MainText:         extractor.Truncate(c.MainText, input.MaxText),
		ExtractionMethod: c.ExtractionMethod,
		ContentQuality:   page.Quality.ContentQuality,
		StructuredData:   make(map[string]int, len(c.StructuredData)),
		Images:           c.Images,
		Links:            c.Links,
		Warnings:         c.Warnings,
	}
	for key, records := range c.StructuredData {
		out.StructuredData[key] = len(records)
	}
	return successResult(out)
}

// HandleNewSession handles the new_session tool call
func (h *Handlers) HandleNewSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return successResult(map[string]string{
		"session_id": h.svc.NewSession(),
		"message":    "New session created. Start with scraper_analyze.",
	})
}

// HandleSessions handles the sessions tool call
func (h *Handlers) HandleSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := h.svc.SessionIDs()
	return successResult(map[string]any{"sessions": ids, "count": len(ids)})
}

// HandleDeleteSession handles the delete_session tool call
func (h *Handlers) HandleDeleteSession(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteSessionRequest](req)
	if err != nil {
		return errorResult(apperrors.NewInvalidRequest(err.Error()), ""), nil
	}
	if input.SessionID == "" {
		return errorResult(apperrors.NewInvalidRequest("session_id is required"), ""), nil
	}
	return successResult(map[string]any{
		"session_id": input.SessionID,
		"deleted":    h.svc.DeleteSession(input.SessionID),
	})
}

// errorResult creates an MCP error result from any error. Internal error
// details are not exposed.
func errorResult(err error, explanation string) *mcp.CallToolResult {
	errorObj := map[string]any{
		"code":    apperrors.ErrInternal,
		"message": "an internal error occurred",
	}
	var scErr *apperrors.ScraperError
	if errors.As(err, &scErr) {
		errorObj["code"] = scErr.Code
		errorObj["message"] = scErr.Message
		if scErr.Hint != "" {
			errorObj["hint"] = scErr.Hint
		}
		if scErr.Code != apperrors.ErrInternal && len(scErr.Details) > 0 {
			errorObj["details"] = scErr.Details
		}
	}
	payload := map[string]any{"success": false, "error": errorObj}
	if explanation != "" {
		payload["ai_response"] = explanation
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}

func sortedKeys(m map[string]toolEntry) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
