package oracle

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/logging"
	"scraper-llm/internal/models"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n[1,2]\n```", `[1,2]`},
		{"prose around", "Sure! Here it is: {\"a\":1} hope that helps", `{"a":1}`},
		{"empty", "   ", ""},
		{"no json", "no braces here", "no braces here"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripFences(tt.in))
		})
	}
}

func TestDecode(t *testing.T) {
	t.Run("structured payload wins", func(t *testing.T) {
		got, err := Decode[models.Analysis](&Response{
			Text:       "ignored",
			Structured: json.RawMessage(`{"website_type":"blog","content_quality":"high"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "blog", got.WebsiteType)
	})

	t.Run("falls back to fenced text", func(t *testing.T) {
		got, err := Decode[models.Analysis](&Response{Text: "```json\n{\"website_type\":\"news\"}\n```"})
		require.NoError(t, err)
		assert.Equal(t, "news", got.WebsiteType)
	})

	t.Run("missing payload", func(t *testing.T) {
		_, err := Decode[models.Analysis](&Response{})
		assert.True(t, apperrors.Is(err, apperrors.ErrAIFailure))
		_, err = Decode[models.Analysis](nil)
		assert.True(t, apperrors.Is(err, apperrors.ErrAIFailure))
	})

	t.Run("malformed payload", func(t *testing.T) {
		_, err := Decode[models.Analysis](&Response{Text: "{not json"})
		assert.True(t, apperrors.Is(err, apperrors.ErrAIFailure))
	})
}

func TestNewSchema(t *testing.T) {
	s := NewSchema[models.Analysis]("website_analysis", "Website analysis", true)
	assert.Equal(t, "website_analysis", s.Name)
	assert.True(t, s.Strict)

	raw, err := json.Marshal(s.Value)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `"website_type"`)
	assert.Contains(t, text, `"social_media"`)
	assert.Contains(t, text, `"technical_complexity"`)
	assert.Contains(t, text, `"additionalProperties":false`)
}

func chatCompletionJSON(content string) string {
	encoded, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"test-model",
"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":%s}}]}`, encoded)
}

func TestOpenAIComplete(t *testing.T) {
	var captured map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatCompletionJSON(`{"website_type":"ecommerce","description":"shop"}`)))
	}))
	defer srv.Close()

	o := NewOpenAI(srv.URL+"/v1/", "", "test-model", 5*time.Second, logging.Discard())
	resp, err := o.Complete(context.Background(), Request{
		Messages: []Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "analyze"}},
		Schema:   NewSchema[models.Analysis]("website_analysis", "analysis", true),
	})
	require.NoError(t, err)

	got, err := Decode[models.Analysis](resp)
	require.NoError(t, err)
	assert.Equal(t, "ecommerce", got.WebsiteType)

	assert.Equal(t, "test-model", captured["model"])
	format, ok := captured["response_format"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "json_schema", format["type"])
	messages, ok := captured["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestOpenAICompleteError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"bad model","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	o := NewOpenAI(srv.URL+"/v1/", "sk-test", "nope", 5*time.Second, logging.Discard())
	_, err := o.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	assert.True(t, apperrors.Is(err, apperrors.ErrAIFailure))
}

func TestOllamaComplete(t *testing.T) {
	var captured ollamaChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/chat":
			require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
			w.Write([]byte(`{"model":"llama3","message":{"role":"assistant","content":"{\"items\":[]}"},"done":true}`))
		case "/api/tags":
			w.Write([]byte(`{"models":[{"name":"llama3"},{"name":"qwen2"}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	o := NewOllama(srv.URL+"/", "llama3", 5*time.Second, logging.Discard())
	resp, err := o.Complete(context.Background(), Request{
		Messages: []Message{{Role: "user", Content: "extract"}},
		Schema:   NewSchema[models.ExtractionPayload]("extraction", "items", false),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[]}`, string(resp.Structured))
	assert.Equal(t, "llama3", captured.Model)
	assert.False(t, captured.Stream)
	assert.NotNil(t, captured.Format)

	modelsList, err := o.ListModels(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"llama3", "qwen2"}, modelsList)
	assert.NoError(t, o.HealthCheck(context.Background()))
}

func TestOllamaStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"message":{"content":"Hel"},"done":false}
not json
{"message":{"content":"lo"},"done":false}
{"message":{"content":""},"done":true}
`))
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "llama3", 5*time.Second, logging.Discard())
	var chunks []string
	full, err := o.Stream(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}}, func(c string) {
		chunks = append(chunks, c)
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello", full)
	assert.Equal(t, []string{"Hel", "lo"}, chunks)
}

func TestOllamaErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	o := NewOllama(srv.URL, "missing", 5*time.Second, logging.Discard())
	_, err := o.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Content: "hi"}}})
	assert.True(t, apperrors.Is(err, apperrors.ErrAIFailure))
	assert.Contains(t, err.Error(), "model not found")
}
