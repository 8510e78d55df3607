package session

import (
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"scraper-llm/internal/logging"
	"scraper-llm/internal/models"
)

// DefaultSystemPrompt seeds every new session
const DefaultSystemPrompt = `You are a web scraping assistant. You help users understand websites and extract structured data from them.
When given page content, identify what kind of site it is and which data can be extracted.
When asked to extract data, return accurate records taken only from the supplied content.
Answer follow-up questions using the conversation so far, including any analysis or extraction results.`

// Options configures a Manager
type Options struct {
	SystemPrompt string
	Trim         TrimPolicy
	Eviction     EvictionPolicy
	Journal      Journal
	Logger       *log.Logger
}

// Manager keeps conversation sessions in memory, keyed by id
type Manager struct {
	mu           sync.RWMutex
	sessions     map[string]*Session
	systemPrompt string
	trim         TrimPolicy
	eviction     EvictionPolicy
	journal      Journal
	logger       *log.Logger
	now          func() time.Time
}

// NewManager creates a new session manager
func NewManager(opts Options) *Manager {
	if opts.SystemPrompt == "" {
		opts.SystemPrompt = DefaultSystemPrompt
	}
	if opts.Trim.Threshold == 0 {
		opts.Trim = DefaultTrimPolicy()
	}
	if opts.Eviction == nil {
		opts.Eviction = NoEviction{}
	}
	if opts.Logger == nil {
		opts.Logger = logging.Named("session")
	}
	return &Manager{
		sessions:     make(map[string]*Session),
		systemPrompt: opts.SystemPrompt,
		trim:         opts.Trim,
		eviction:     opts.Eviction,
		journal:      opts.Journal,
		logger:       opts.Logger,
		now:          time.Now,
	}
}

// GetOrCreate returns the session for id, creating it when absent.
// An empty id always creates a fresh session with a generated id.
func (m *Manager) GetOrCreate(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if s, ok := m.sessions[id]; ok && id != "" {
		s.lastAccess = now
		m.evictLocked(now)
		return s
	}
	if id == "" {
		id = uuid.New().String()
	}

	s := &Session{
		ID:         id,
		StartedAt:  now,
		UpdatedAt:  now,
		lastAccess: now,
	}
	if restored := m.restore(id); len(restored) > 0 {
		s.Messages = m.trim.Apply(restored)
		m.logger.Debug("restored session from journal", "session", id, "messages", len(restored))
	} else {
		s.Messages = []Message{{Role: RoleSystem, Content: m.systemPrompt, Timestamp: now}}
		m.record(id, s.Messages[0])
	}
	m.sessions[id] = s
	m.evictLocked(now)
	return s
}

// Get returns an existing session without creating one
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if ok {
		s.lastAccess = m.now()
	}
	return s, ok
}

// Append adds a message to s and applies the trim policy
func (m *Manager) Append(s *Session, role Role, content string) {
	msg := Message{Role: role, Content: content, Timestamp: m.now()}
	s.Messages = append(s.Messages, msg)
	s.UpdatedAt = msg.Timestamp
	before := len(s.Messages)
	s.Messages = m.trim.Apply(s.Messages)
	if dropped := before - len(s.Messages); dropped > 0 {
		m.logger.Debug("trimmed conversation", "session", s.ID, "dropped", dropped)
	}
	m.record(s.ID, msg)
}

// MessagesForAPI returns the role/content pairs of s in order
func (m *Manager) MessagesForAPI(s *Session) []APIMessage {
	out := make([]APIMessage, 0, len(s.Messages))
	for _, msg := range s.Messages {
		out = append(out, APIMessage{Role: string(msg.Role), Content: msg.Content})
	}
	return out
}

// History returns a copy of the messages for id, or an empty slice if unknown
func (m *Manager) History(id string) []Message {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return []Message{}
	}
	return append([]Message(nil), s.Messages...)
}

// SetAnalysis records the latest analysis and the URL it was made for
func (m *Manager) SetAnalysis(s *Session, url string, analysis *models.Analysis) {
	s.CurrentURL = url
	s.LastAnalysis = analysis
	s.UpdatedAt = m.now()
}

// SetExtraction records the latest extraction result
func (m *Manager) SetExtraction(s *Session, payload *models.ExtractionPayload) {
	s.LastExtraction = payload
	s.UpdatedAt = m.now()
}

// Preview returns the oracle messages the session id holds, or would hold
// once created, without creating or journaling it.
func (m *Manager) Preview(id string) []APIMessage {
	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			return m.MessagesForAPI(s)
		}
	}
	msgs := m.trim.Apply(m.restore(id))
	if len(msgs) == 0 {
		msgs = []Message{{Role: RoleSystem, Content: m.systemPrompt}}
	}
	return m.MessagesForAPI(&Session{Messages: msgs})
}

// Delete drops a session from memory and reports whether it existed.
// Journaled messages are kept, so the id can be resumed later.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	return ok
}

// Len returns the number of live sessions
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// IDs lists live session ids in sorted order
func (m *Manager) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// evictLocked must be called with the lock held
func (m *Manager) evictLocked(now time.Time) {
	for _, id := range m.eviction.Evict(m.sessions, now) {
		delete(m.sessions, id)
		m.logger.Debug("evicted session", "session", id)
	}
}

func (m *Manager) restore(id string) []Message {
	if m.journal == nil {
		return nil
	}
	msgs, err := m.journal.Load(id)
	if err != nil {
		m.logger.Warn("failed to load session journal", "session", id, "err", err)
		return nil
	}
	return msgs
}

func (m *Manager) record(id string, msg Message) {
	if m.journal == nil {
		return
	}
	if err := m.journal.Record(id, msg); err != nil {
		m.logger.Warn("failed to journal message", "session", id, "err", err)
	}
}
