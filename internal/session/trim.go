package session

import "strings"

// CostFunc estimates the token cost of a piece of text
type CostFunc func(text string) float64

// WordCost approximates tokens as whitespace-separated words times 1.3
func WordCost(text string) float64 {
	return float64(len(strings.Fields(text))) * 1.3
}

// TrimPolicy bounds the conversation kept for the oracle
type TrimPolicy struct {
	// Threshold is the message count above which trimming is considered
	Threshold int
	// Budget is the estimated token cost that triggers trimming
	Budget float64
	// KeepRecent is how many non-system messages survive a trim
	KeepRecent int
	Cost       CostFunc
}

// DefaultTrimPolicy returns the standard 20 message / 12000 token / keep 18 policy
func DefaultTrimPolicy() TrimPolicy {
	return TrimPolicy{Threshold: 20, Budget: 12000, KeepRecent: 18, Cost: WordCost}
}

// Apply returns msgs, trimmed when both the count threshold and the token budget are exceeded.
// System messages are always retained; only the most recent KeepRecent others survive.
func (p TrimPolicy) Apply(msgs []Message) []Message {
	if len(msgs) <= p.Threshold {
		return msgs
	}
	cost := p.Cost
	if cost == nil {
		cost = WordCost
	}

	var total float64
	nonSystem := 0
	for _, m := range msgs {
		total += cost(m.Content)
		if m.Role != RoleSystem {
			nonSystem++
		}
	}
	if total <= p.Budget {
		return msgs
	}

	skip := nonSystem - p.KeepRecent
	trimmed := make([]Message, 0, len(msgs)-max(skip, 0))
	for _, m := range msgs {
		if m.Role != RoleSystem && skip > 0 {
			skip--
			continue
		}
		trimmed = append(trimmed, m)
	}
	return trimmed
}
