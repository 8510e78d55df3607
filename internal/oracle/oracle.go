package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"

	apperrors "scraper-llm/internal/errors"
)

// Message is one role/content turn sent to the oracle
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Schema declares the structure an answer must follow
type Schema struct {
	Name        string
	Description string
	Value       any
	Strict      bool
}

// Request is a single oracle completion request
type Request struct {
	Messages    []Message
	Schema      *Schema
	Temperature float64
}

// Response carries the free-text answer and, when a schema was declared,
// the structured payload.
type Response struct {
	Text       string
	Structured json.RawMessage
}

// Oracle answers prompts, optionally constrained to a declared schema
type Oracle interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Streamer is implemented by oracles that can stream free-text answers
type Streamer interface {
	Stream(ctx context.Context, req Request, onChunk func(string)) (string, error)
}

// NewSchema reflects T into a JSON schema
func NewSchema[T any](name, description string, strict bool) *Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return &Schema{
		Name:        name,
		Description: description,
		Value:       reflector.Reflect(v),
		Strict:      strict,
	}
}

// Decode unmarshals the structured payload of resp into T. A missing or
// malformed payload is an AI failure.
func Decode[T any](resp *Response) (T, error) {
	var out T
	if resp == nil {
		return out, apperrors.NewAIFailure("oracle returned no response", nil)
	}
	raw := bytes.TrimSpace(resp.Structured)
	if len(raw) == 0 {
		raw = []byte(StripFences(resp.Text))
	}
	if len(raw) == 0 {
		return out, apperrors.NewAIFailure("oracle returned no structured payload", nil)
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, apperrors.NewAIFailure("oracle returned a malformed structured payload", err)
	}
	return out, nil
}

// StripFences extracts JSON from an answer that may be wrapped in markdown
// code fences or surrounded by prose.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		text = strings.TrimSuffix(text, "```")
		text = strings.TrimSpace(text)
	}
	if text == "" || text[0] == '{' || text[0] == '[' {
		return text
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return text
}
