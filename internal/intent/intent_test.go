package intent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scraper-llm/internal/oracle"
)

func TestRouteCommands(t *testing.T) {
	r := NewRouter()
	tests := []struct {
		input    string
		kind     Kind
		argument string
	}{
		{"analyze https://example.com", KindAnalyze, "https://example.com"},
		{"/extract all prices", KindExtract, "all prices"},
		{"Chat hello there", KindChat, "hello there"},
		{"help", KindHelp, ""},
		{"history", KindHistory, ""},
		{"new", KindNew, ""},
		{"export md out.md", KindExport, "md out.md"},
		{"quit", KindExit, ""},
		{"   ", KindNone, ""},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := r.Route(tt.input, false)
			assert.Equal(t, tt.kind, got.Kind)
			assert.Equal(t, tt.argument, got.Argument)
		})
	}
}

func TestRouteFreeText(t *testing.T) {
	r := NewRouter()
	tests := []struct {
		name    string
		input   string
		hasSite bool
		kind    Kind
	}{
		{"url means analyze", "have a look at www.books.test please", false, KindAnalyze},
		{"extraction request", "get all the product names and prices", true, KindExtract},
		{"extraction without site", "get all the product names and prices", false, KindChat},
		{"question", "what is this site about?", true, KindChat},
		{"question about fields", "which fields have prices?", true, KindChat},
		{"small talk", "thanks!", true, KindChat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.kind, r.Route(tt.input, tt.hasSite).Kind)
		})
	}
}

func TestFindURL(t *testing.T) {
	assert.Equal(t, "https://example.com/a?b=1", FindURL("see https://example.com/a?b=1."))
	assert.Equal(t, "https://www.books.test", FindURL("www.books.test"))
	assert.Empty(t, FindURL("no links here"))
}

func TestAmbiguous(t *testing.T) {
	assert.False(t, Intent{Kind: KindExtract, Confidence: 100, Reason: "command"}.Ambiguous())
	assert.True(t, Intent{Kind: KindChat, Confidence: 30}.Ambiguous())
	assert.True(t, Intent{Kind: KindExtract, Confidence: 50}.Ambiguous())
	assert.False(t, Intent{Kind: KindExtract, Confidence: 70}.Ambiguous())
	assert.False(t, Intent{Kind: KindChat, Confidence: -30}.Ambiguous())
}

type fakeOracle struct {
	resp *oracle.Response
	err  error
	reqs []oracle.Request
}

func (f *fakeOracle) Complete(_ context.Context, req oracle.Request) (*oracle.Response, error) {
	f.reqs = append(f.reqs, req)
	return f.resp, f.err
}

func TestClassifierRefine(t *testing.T) {
	ambiguous := Intent{Kind: KindChat, Argument: "the prices", Confidence: 10}

	o := &fakeOracle{resp: &oracle.Response{Text: "```json\n{\"intent\":\"extract\",\"requirements\":\"all prices\",\"reason\":\"asks for prices\"}\n```"}}
	got := NewClassifier(o).Refine(context.Background(), ambiguous, true)
	assert.Equal(t, KindExtract, got.Kind)
	assert.Equal(t, "all prices", got.Argument)
	require.Len(t, o.reqs, 1)
	assert.Equal(t, decisionSchema, o.reqs[0].Schema)

	// no site, not consulted
	o = &fakeOracle{}
	assert.Equal(t, ambiguous, NewClassifier(o).Refine(context.Background(), ambiguous, false))
	assert.Empty(t, o.reqs)

	// oracle failure keeps the keyword decision
	o = &fakeOracle{err: errors.New("down")}
	assert.Equal(t, ambiguous, NewClassifier(o).Refine(context.Background(), ambiguous, true))

	var nilClassifier *Classifier
	assert.Equal(t, ambiguous, nilClassifier.Refine(context.Background(), ambiguous, true))
}
