package session

import (
	"time"

	"scraper-llm/internal/models"
)

// Role identifies the speaker of a message
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation
type Message struct {
	Role      Role      `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// APIMessage is the role/content pair handed to the oracle
type APIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session represents a single conversation session.
// A session is owned by its caller; the manager does not serialize
// concurrent operations on the same session.
type Session struct {
	ID             string                    `json:"id" yaml:"id"`
	Messages       []Message                 `json:"messages" yaml:"messages"`
	CurrentURL     string                    `json:"current_url,omitempty" yaml:"current_url,omitempty"`
	LastAnalysis   *models.Analysis          `json:"last_analysis,omitempty" yaml:"last_analysis,omitempty"`
	LastExtraction *models.ExtractionPayload `json:"last_extraction,omitempty" yaml:"last_extraction,omitempty"`
	StartedAt      time.Time                 `json:"started_at" yaml:"started_at"`
	UpdatedAt      time.Time                 `json:"updated_at" yaml:"updated_at"`

	lastAccess time.Time
}

// Snapshot returns a deep-enough copy of s that is safe to hand to exporters
func (s *Session) Snapshot() Session {
	cp := *s
	cp.Messages = append([]Message(nil), s.Messages...)
	return cp
}
