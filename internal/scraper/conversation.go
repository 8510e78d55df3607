package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"

	apperrors "scraper-llm/internal/errors"
	"scraper-llm/internal/extractor"
	"scraper-llm/internal/fetcher"
	"scraper-llm/internal/models"
	"scraper-llm/internal/oracle"
	"scraper-llm/internal/session"
)

const maxItemsEcho = 2000

// AnalysisResult is the outcome of AnalyzeWebsite
type AnalysisResult struct {
	Success    bool             `json:"success" yaml:"success"`
	Analysis   *models.Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	AIResponse string           `json:"ai_response" yaml:"ai_response"`
	SessionID  string           `json:"session_id" yaml:"session_id"`
	URL        string           `json:"url" yaml:"url"`
	Method     fetcher.Method   `json:"method,omitempty" yaml:"method,omitempty"`
	Error      string           `json:"error,omitempty" yaml:"error,omitempty"`
	Err        error            `json:"-" yaml:"-"`
}

// ExtractionResult is the outcome of ExtractData
type ExtractionResult struct {
	Success    bool                      `json:"success" yaml:"success"`
	Data       *models.ExtractionPayload `json:"data,omitempty" yaml:"data,omitempty"`
	AIResponse string                    `json:"ai_response" yaml:"ai_response"`
	SessionID  string                    `json:"session_id" yaml:"session_id"`
	URL        string                    `json:"url,omitempty" yaml:"url,omitempty"`
	Error      string                    `json:"error,omitempty" yaml:"error,omitempty"`
	Err        error                     `json:"-" yaml:"-"`
}

// ValidateURL accepts absolute http and https URLs
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewInvalidRequest(fmt.Sprintf("invalid url %q: expected an absolute http(s) URL", raw))
	}
	return nil
}

// AnalyzeWebsite scrapes pageURL and asks the oracle to classify it. On
// success the analysis becomes the session's current analysis; on failure
// the session is left untouched.
func (s *Service) AnalyzeWebsite(ctx context.Context, sessionID, pageURL string) *AnalysisResult {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	result := &AnalysisResult{SessionID: sessionID, URL: pageURL}
	logger := s.logger.With("session", sessionID, "url", pageURL)

	if err := ValidateURL(pageURL); err != nil {
		return result.fail(err, "That doesn't look like a web address I can open. Use a full URL such as https://example.com.")
	}

	page, err := s.SmartScrape(ctx, pageURL, "")
	if err != nil {
		logger.Error("analysis scrape failed", "err", err)
		return result.fail(err, fmt.Sprintf("I couldn't retrieve %s. The site may be down, blocking automated access, or require a login.", pageURL))
	}
	result.Method = page.Method

	messages := append(toOracleMessages(s.sessions.Preview(sessionID)), oracle.Message{
		Role:    string(session.RoleUser),
		Content: analysisPrompt(page.Digest),
	})
	resp, err := s.oracle.Complete(ctx, oracle.Request{
		Messages:    messages,
		Schema:      analysisSchema,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		logger.Error("analysis oracle call failed", "err", err)
		return result.fail(apperrors.NewAIFailure("analysis request failed", err), "I fetched the page but the AI service did not answer. Please try again.")
	}
	analysis, err := oracle.Decode[models.Analysis](resp)
	if err == nil {
		err = validateAnalysis(&analysis)
	}
	if err != nil {
		logger.Error("analysis payload invalid", "err", err)
		return result.fail(err, "The AI service answered in an unexpected format. Please try again.")
	}

	// the session only comes into existence once the analysis succeeded
	sess := s.sessions.GetOrCreate(sessionID)
	summary := analysisSummary(&analysis)
	encoded, _ := json.MarshalIndent(analysis, "", "  ")
	s.sessions.SetAnalysis(sess, pageURL, &analysis)
	s.sessions.Append(sess, session.RoleUser, "Analyze this website: "+pageURL)
	s.sessions.Append(sess, session.RoleAssistant, summary+"\n\n"+string(encoded))

	logger.Info("website analyzed", "type", analysis.WebsiteType, "method", page.Method)
	result.Success = true
	result.Analysis = &analysis
	result.AIResponse = summary
	return result
}

func (r *AnalysisResult) fail(err error, explanation string) *AnalysisResult {
	r.Err = err
	r.Error = err.Error()
	r.AIResponse = explanation
	return r
}

// ExtractData extracts items matching requirements from the session's
// current URL. A session without a prior analysis fails without fetching.
func (s *Service) ExtractData(ctx context.Context, sessionID, requirements string) *ExtractionResult {
	result := &ExtractionResult{SessionID: sessionID}
	sess, ok := s.sessions.Get(sessionID)
	if !ok || sess.CurrentURL == "" {
		err := apperrors.NewSessionPrecondition("no website has been analyzed in this session",
			"Analyze a website first with 'analyze <url>', then ask for the data you need.")
		return result.fail(err, "Please analyze a website first with 'analyze <url>', then tell me what to extract.")
	}
	pageURL := sess.CurrentURL
	result.URL = pageURL
	logger := s.logger.With("session", sess.ID, "url", pageURL)

	page, err := s.SmartScrape(ctx, pageURL, requirements)
	if err != nil {
		logger.Error("extraction scrape failed", "err", err)
		return result.fail(err, fmt.Sprintf("I couldn't retrieve %s again for extraction. Please try later.", pageURL))
	}

	digest := TruncateToBudget(page.Digest, s.opts.MaxTokens)
	messages := append(toOracleMessages(s.sessions.MessagesForAPI(sess)), oracle.Message{
		Role:    string(session.RoleUser),
		Content: extractionPrompt(requirements, digest),
	})
	resp, err := s.oracle.Complete(ctx, oracle.Request{
		Messages:    messages,
		Schema:      extractionSchema,
		Temperature: s.opts.Temperature,
	})
	if err != nil {
		logger.Error("extraction oracle call failed", "err", err)
		return result.fail(apperrors.NewAIFailure("extraction request failed", err), "I scraped the page but the AI service did not answer. Please try again.")
	}
	payload, err := decodeExtraction(resp)
	if err != nil {
		logger.Error("extraction payload invalid", "err", err)
		return result.fail(err, "The AI service answered in an unexpected format. Please try again.")
	}

	payload.Items = s.finalizeItems(ctx, pageURL, payload.Items)
	payload.Metadata.TotalItems = len(payload.Items)
	if payload.Metadata.ExtractionMethod == "" {
		payload.Metadata.ExtractionMethod = page.Content.ExtractionMethod
	}
	if payload.Metadata.ContentQuality == "" {
		payload.Metadata.ContentQuality = page.Quality.ContentQuality
	}
	if payload.Metadata.WebsiteType == "" && sess.LastAnalysis != nil {
		payload.Metadata.WebsiteType = sess.LastAnalysis.WebsiteType
	}

	summary := fmt.Sprintf("Extracted %d item(s) from %s.", len(payload.Items), pageURL)
	encoded, _ := json.MarshalIndent(payload.Items, "", "  ")
	s.sessions.SetExtraction(sess, payload)
	request := "Extract data"
	if requirements != "" {
		request += ": " + requirements
	}
	s.sessions.Append(sess, session.RoleUser, request)
	s.sessions.Append(sess, session.RoleAssistant, summary+"\n\n"+extractor.Truncate(string(encoded), maxItemsEcho))

	logger.Info("data extracted", "items", len(payload.Items), "extra_pages", len(page.ExtraPages))
	result.Success = true
	result.Data = payload
	result.AIResponse = summary
	return result
}

func (r *ExtractionResult) fail(err error, explanation string) *ExtractionResult {
	r.Err = err
	r.Error = err.Error()
	r.AIResponse = explanation
	return r
}

func decodeExtraction(resp *oracle.Response) (*models.ExtractionPayload, error) {
	res, err := oracle.Decode[extractionResult](resp)
	if err != nil {
		return nil, err
	}
	if res.Items == nil {
		return nil, apperrors.NewAIFailure("oracle did not return items", nil)
	}
	return res.payload(), nil
}

// Chat sends message with the session's history and records both turns once
// the oracle answers.
func (s *Service) Chat(ctx context.Context, sessionID, message string) (string, error) {
	return s.chat(ctx, sessionID, message, nil)
}

// ChatStream is Chat with incremental delivery of the answer. Oracles that
// cannot stream deliver the whole answer as a single chunk.
func (s *Service) ChatStream(ctx context.Context, sessionID, message string, onChunk func(string)) (string, error) {
	return s.chat(ctx, sessionID, message, onChunk)
}

func (s *Service) chat(ctx context.Context, sessionID, message string, onChunk func(string)) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", apperrors.NewInvalidRequest("message is empty")
	}
	sess := s.sessions.GetOrCreate(sessionID)
	req := oracle.Request{
		Messages: append(toOracleMessages(s.sessions.MessagesForAPI(sess)), oracle.Message{
			Role:    string(session.RoleUser),
			Content: message,
		}),
		Temperature: 0.7,
	}

	var (
		answer string
		err    error
	)
	streamer, canStream := s.oracle.(oracle.Streamer)
	switch {
	case onChunk != nil && canStream:
		answer, err = streamer.Stream(ctx, req, onChunk)
	default:
		var resp *oracle.Response
		resp, err = s.oracle.Complete(ctx, req)
		if err == nil {
			answer = resp.Text
			if onChunk != nil {
				onChunk(answer)
			}
		}
	}
	if err != nil {
		return "", apperrors.NewAIFailure("chat request failed", err)
	}

	s.sessions.Append(sess, session.RoleUser, message)
	s.sessions.Append(sess, session.RoleAssistant, answer)
	return answer, nil
}

// Scrape is the single-shot extraction: a plain fetch, cleaned HTML sent to
// the oracle, then image resolution and deduplication. No session is used.
func (s *Service) Scrape(ctx context.Context, pageURL string) (*models.ExtractionPayload, error) {
	if err := ValidateURL(pageURL); err != nil {
		return nil, err
	}
	res, err := s.fetcher.Fetch(ctx, pageURL, false)
	if err != nil {
		return nil, err
	}
	prompt := TruncateToBudget(legacyPrompt(extractor.CleanHTML(res.HTML)), s.opts.MaxTokens)
	resp, err := s.oracle.Complete(ctx, oracle.Request{
		Messages: []oracle.Message{{Role: string(session.RoleUser), Content: prompt}},
		Schema:   extractionSchema,
	})
	if err != nil {
		return nil, apperrors.NewAIFailure("extraction request failed", err)
	}
	payload, err := decodeExtraction(resp)
	if err != nil {
		return nil, err
	}
	payload.Items = s.finalizeItems(ctx, pageURL, payload.Items)
	payload.Metadata.TotalItems = len(payload.Items)
	if payload.Metadata.ExtractionMethod == "" {
		payload.Metadata.ExtractionMethod = string(res.Method)
	}
	return payload, nil
}

func toOracleMessages(msgs []session.APIMessage) []oracle.Message {
	out := make([]oracle.Message, 0, len(msgs)+1)
	for _, m := range msgs {
		out = append(out, oracle.Message{Role: m.Role, Content: m.Content})
	}
	return out
}
