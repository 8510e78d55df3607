// Package intent routes interactive input to analyze, extract or chat.
package intent

import (
	"context"
	"fmt"

	"scraper-llm/internal/oracle"
)

// Decision is the oracle's routing answer
type Decision struct {
	Intent       string `json:"intent" jsonschema:"enum=extract,enum=chat"`
	Requirements string `json:"requirements" jsonschema:"description=What to extract when intent is extract; empty otherwise."`
	Reason       string `json:"reason"`
}

var decisionSchema = oracle.NewSchema[Decision]("route_decision", "Whether a message asks for data extraction", true)

// Classifier asks the oracle to settle ambiguous routing decisions
type Classifier struct {
	oracle oracle.Oracle
}

// NewClassifier creates an oracle-backed classifier
func NewClassifier(o oracle.Oracle) *Classifier {
	return &Classifier{oracle: o}
}

// Classify decides between extraction and conversation for message
func (c *Classifier) Classify(ctx context.Context, message string) (Decision, error) {
	prompt := fmt.Sprintf(`You route messages in a web scraping assistant. The user has already analyzed a website.

User message: %q

Decide whether the message asks to extract data from the website (intent "extract")
or is a question or remark to answer conversationally (intent "chat").
For "extract", restate the requested data as concise requirements.
Keep reason under 10 words.`, message)

	resp, err := c.oracle.Complete(ctx, oracle.Request{
		Messages: []oracle.Message{{Role: "user", Content: prompt}},
		Schema:   decisionSchema,
	})
	if err != nil {
		return Decision{}, fmt.Errorf("routing call failed: %w", err)
	}
	return oracle.Decode[Decision](resp)
}

// Refine settles an ambiguous intent with the classifier, keeping the
// keyword decision when the oracle fails.
func (c *Classifier) Refine(ctx context.Context, in Intent, hasSite bool) Intent {
	if c == nil || !hasSite || !in.Ambiguous() {
		return in
	}
	d, err := c.Classify(ctx, in.Argument)
	if err != nil {
		return in
	}
	switch d.Intent {
	case string(KindExtract):
		req := d.Requirements
		if req == "" {
			req = in.Argument
		}
		return Intent{Kind: KindExtract, Argument: req, Confidence: in.Confidence, Reason: "classifier: " + d.Reason}
	case string(KindChat):
		return Intent{Kind: KindChat, Argument: in.Argument, Confidence: in.Confidence, Reason: "classifier: " + d.Reason}
	}
	return in
}
