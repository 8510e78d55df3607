package intent

import (
	"regexp"
	"strings"
)

// Kind is what the user wants the REPL to do
type Kind string

const (
	KindNone    Kind = ""
	KindAnalyze Kind = "analyze"
	KindExtract Kind = "extract"
	KindChat    Kind = "chat"
	KindHelp    Kind = "help"
	KindHistory Kind = "history"
	KindNew     Kind = "new"
	KindExport  Kind = "export"
	KindExit    Kind = "exit"
)

// Intent is the routing decision for one line of input
type Intent struct {
	Kind       Kind
	Argument   string
	Confidence int
	Reason     string
}

// extractThreshold is the score above which free text is treated as an extraction request
const extractThreshold = 40

var urlPattern = regexp.MustCompile(`(?i)\b(https?://[^\s<>"']+|www\.[^\s<>"']+\.[a-z]{2,}[^\s<>"']*)`)

var commands = map[string]Kind{
	"analyze": KindAnalyze,
	"analyse": KindAnalyze,
	"extract": KindExtract,
	"chat":    KindChat,
	"ask":     KindChat,
	"help":    KindHelp,
	"history": KindHistory,
	"new":     KindNew,
	"export":  KindExport,
	"exit":    KindExit,
	"quit":    KindExit,
}

// Router turns REPL input into an Intent. Explicit commands win; otherwise
// a URL means analyze and keyword scoring separates extraction requests from
// conversation.
type Router struct {
	extractionWords []string
	fieldWords      []string
	questionWords   []string
}

// NewRouter creates a new input router
func NewRouter() *Router {
	return &Router{
		extractionWords: []string{
			"extract", "scrape", "get all", "get me", "list all", "list the",
			"find all", "collect", "pull out", "grab", "give me all", "every",
		},
		fieldWords: []string{
			"price", "prices", "title", "titles", "name", "names", "image", "images",
			"rating", "ratings", "product", "products", "article", "articles",
			"author", "authors", "link", "links", "date", "dates", "review", "reviews",
		},
		questionWords: []string{
			"what is", "what are", "why", "how does", "how do", "explain",
			"can you tell", "do you think", "which fields", "is it",
		},
	}
}

// Route classifies input. hasSite reports whether the session already has an
// analyzed website, without which extraction is impossible.
func (r *Router) Route(input string, hasSite bool) Intent {
	input = strings.TrimSpace(input)
	if input == "" {
		return Intent{Kind: KindNone, Reason: "empty input"}
	}

	word, rest, _ := strings.Cut(input, " ")
	if kind, ok := commands[strings.ToLower(strings.TrimPrefix(word, "/"))]; ok {
		return Intent{Kind: kind, Argument: strings.TrimSpace(rest), Confidence: 100, Reason: "command"}
	}

	if u := FindURL(input); u != "" {
		return Intent{Kind: KindAnalyze, Argument: u, Confidence: 90, Reason: "contains url"}
	}

	lower := strings.ToLower(input)
	score := 0
	reasons := []string{}

	if countMatches(lower, r.extractionWords) > 0 {
		score += 40
		reasons = append(reasons, "extraction verb")
	}
	if n := countMatches(lower, r.fieldWords); n > 0 {
		score += min(10*n, 30)
		reasons = append(reasons, "data fields")
	}
	if countMatches(lower, r.questionWords) > 0 || strings.HasSuffix(lower, "?") {
		score -= 30
		reasons = append(reasons, "question")
	}

	reason := strings.Join(reasons, ", ")
	if reason == "" {
		reason = "general message"
	}
	if score > extractThreshold {
		if !hasSite {
			return Intent{Kind: KindChat, Argument: input, Confidence: score, Reason: reason + ", no analyzed site"}
		}
		return Intent{Kind: KindExtract, Argument: input, Confidence: score, Reason: reason}
	}
	return Intent{Kind: KindChat, Argument: input, Confidence: score, Reason: reason}
}

// Ambiguous reports whether a free-text decision is close enough to the
// threshold to be worth a second opinion.
func (i Intent) Ambiguous() bool {
	if i.Reason == "command" || i.Kind == KindAnalyze || i.Kind == KindNone {
		return false
	}
	return i.Confidence > 0 && i.Confidence <= extractThreshold+20
}

// FindURL returns the first URL in s, with a scheme added to bare www. hosts
func FindURL(s string) string {
	m := urlPattern.FindString(s)
	if m == "" {
		return ""
	}
	m = strings.TrimRight(m, ".,;:!?)")
	if strings.HasPrefix(strings.ToLower(m), "www.") {
		m = "https://" + m
	}
	return m
}

// countMatches counts how many patterns match in the query
func countMatches(query string, patterns []string) int {
	count := 0
	for _, pattern := range patterns {
		if strings.Contains(query, pattern) {
			count++
		}
	}
	return count
}
