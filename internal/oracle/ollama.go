package oracle

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	apperrors "scraper-llm/internal/errors"
)

// ollamaChatRequest represents a chat request to Ollama
type ollamaChatRequest struct {
	Model    string         `json:"model"`
	Messages []Message      `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   any            `json:"format,omitempty"`
	Options  *ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
}

// ollamaChatResponse represents a response chunk from Ollama
type ollamaChatResponse struct {
	Model   string `json:"model"`
	Message struct {
		Role     string `json:"role"`
		Content  string `json:"content"`
		Thinking string `json:"thinking"`
	} `json:"message"`
	Done bool `json:"done"`
}

// Ollama handles communication with a local Ollama server
type Ollama struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *log.Logger
}

// NewOllama creates a new Ollama oracle
func NewOllama(baseURL, model string, timeout time.Duration, logger *log.Logger) *Ollama {
	return &Ollama{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Ollama) newChatRequest(req Request, stream bool) ollamaChatRequest {
	chat := ollamaChatRequest{
		Model:    c.model,
		Messages: req.Messages,
		Stream:   stream,
		Options:  &ollamaOptions{Temperature: req.Temperature},
	}
	if req.Schema != nil {
		chat.Format = req.Schema.Value
	}
	return chat
}

// post sends a chat request and returns the open response body
func (c *Ollama) post(ctx context.Context, chat ollamaChatRequest) (io.ReadCloser, error) {
	jsonData, err := json.Marshal(chat)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/api/chat", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("Ollama returned status %d: %s", resp.StatusCode, string(body))
	}
	return resp.Body, nil
}

// Complete sends a non-streaming chat request and returns the complete response
func (c *Ollama) Complete(ctx context.Context, req Request) (*Response, error) {
	body, err := c.post(ctx, c.newChatRequest(req, false))
	if err != nil {
		c.logger.Error("ollama chat failed", "model", c.model, "err", err)
		return nil, apperrors.NewAIFailure("ollama chat failed", err)
	}
	defer body.Close()

	var chatResp ollamaChatResponse
	if err := json.NewDecoder(body).Decode(&chatResp); err != nil {
		return nil, apperrors.NewAIFailure("failed to parse ollama response", err)
	}

	content := chatResp.Message.Content
	resp := &Response{Text: content}
	if req.Schema != nil {
		if payload := StripFences(content); json.Valid([]byte(payload)) {
			resp.Structured = json.RawMessage(payload)
		}
	}
	return resp, nil
}

// Stream sends a chat request and streams the response through onChunk
func (c *Ollama) Stream(ctx context.Context, req Request, onChunk func(string)) (string, error) {
	body, err := c.post(ctx, c.newChatRequest(req, true))
	if err != nil {
		return "", apperrors.NewAIFailure("ollama chat failed", err)
	}
	defer body.Close()

	full, err := streamResponse(body, onChunk)
	if err != nil {
		return full, apperrors.NewAIFailure("failed to stream ollama response", err)
	}
	return full, nil
}

// streamResponse reads the streaming response line by line
func streamResponse(body io.Reader, onChunk func(string)) (string, error) {
	scanner := bufio.NewScanner(body)
	var fullResponse strings.Builder

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var chunk ollamaChatResponse
		if err := json.Unmarshal(line, &chunk); err != nil {
			// Skip malformed lines
			continue
		}

		if content := chunk.Message.Content; content != "" {
			fullResponse.WriteString(content)
			if onChunk != nil {
				onChunk(content)
			}
		}
		if chunk.Done {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return fullResponse.String(), fmt.Errorf("scanner error: %w", err)
	}
	return fullResponse.String(), nil
}

// HealthCheck verifies that Ollama is accessible
func (c *Ollama) HealthCheck(ctx context.Context) error {
	_, err := c.ListModels(ctx)
	return err
}

// ListModels returns the list of available models
func (c *Ollama) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := fmt.Sprintf("%s/api/tags", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Ollama is unreachable at %s: %w (is Ollama running?)", c.baseURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Ollama returned status %d", resp.StatusCode)
	}

	var result struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	models := make([]string, len(result.Models))
	for i, m := range result.Models {
		models[i] = m.Name
	}
	return models, nil
}
