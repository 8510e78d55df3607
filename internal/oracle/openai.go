package oracle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	apperrors "scraper-llm/internal/errors"
)

// OpenAI talks to any OpenAI-compatible chat completions endpoint
type OpenAI struct {
	client openai.Client
	model  string
	logger *log.Logger
}

// NewOpenAI creates an OpenAI-compatible oracle. An empty baseURL uses the public API.
func NewOpenAI(baseURL, apiKey, model string, timeout time.Duration, logger *log.Logger) *OpenAI {
	if apiKey == "" {
		// Local OpenAI-compatible servers (llama.cpp, vLLM) don't require a real key
		apiKey = "dummy"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithRequestTimeout(timeout),
		option.WithMaxRetries(2),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
		logger: logger,
	}
}

// Complete sends req as a chat completion, with a JSON schema response format when declared
func (o *OpenAI) Complete(ctx context.Context, req Request) (*Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:    toOpenAIMessages(req.Messages),
		Model:       shared.ChatModel(o.model),
		Temperature: openai.Float(req.Temperature),
	}
	if req.Schema != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        req.Schema.Name,
					Description: openai.String(req.Schema.Description),
					Schema:      req.Schema.Value,
					Strict:      openai.Bool(req.Schema.Strict),
				},
			},
		}
	}

	completion, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		o.logger.Error("chat completion failed", "model", o.model, "err", err)
		return nil, apperrors.NewAIFailure("chat completion failed", err)
	}
	if len(completion.Choices) == 0 {
		return nil, apperrors.NewAIFailure("chat completion returned no choices", nil)
	}

	content := completion.Choices[0].Message.Content
	resp := &Response{Text: content}
	if req.Schema != nil {
		if payload := StripFences(content); json.Valid([]byte(payload)) {
			resp.Structured = json.RawMessage(payload)
		}
	}
	return resp, nil
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case "system":
			out = append(out, openai.SystemMessage(m.Content))
		case "assistant":
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
