package session

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scraper-llm/internal/logging"
	"scraper-llm/internal/models"
)

func words(n int, word string) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func newTestManager(opts Options) *Manager {
	opts.Logger = logging.Discard()
	return NewManager(opts)
}

func TestWordCost(t *testing.T) {
	assert.InDelta(t, 0.0, WordCost(""), 0.001)
	assert.InDelta(t, 2.6, WordCost("hello   world"), 0.001)
	assert.InDelta(t, 130.0, WordCost(words(100, "x")), 0.001)
}

func TestTrimPolicyApply(t *testing.T) {
	policy := DefaultTrimPolicy()

	t.Run("system plus 25 over budget keeps system and last 18", func(t *testing.T) {
		msgs := []Message{{Role: RoleSystem, Content: "sys"}}
		for i := 0; i < 25; i++ {
			msgs = append(msgs, Message{Role: RoleUser, Content: fmt.Sprintf("m%d %s", i, words(400, "w"))})
		}

		out := policy.Apply(msgs)

		require.Len(t, out, 19)
		assert.Equal(t, RoleSystem, out[0].Role)
		assert.True(t, strings.HasPrefix(out[1].Content, "m7 "))
		assert.True(t, strings.HasPrefix(out[18].Content, "m24 "))
	})

	t.Run("under budget is untouched", func(t *testing.T) {
		msgs := []Message{{Role: RoleSystem, Content: "sys"}}
		for i := 0; i < 30; i++ {
			msgs = append(msgs, Message{Role: RoleUser, Content: "short"})
		}
		assert.Len(t, policy.Apply(msgs), 31)
	})

	t.Run("at threshold is untouched even when expensive", func(t *testing.T) {
		var msgs []Message
		for i := 0; i < 20; i++ {
			msgs = append(msgs, Message{Role: RoleUser, Content: words(2000, "w")})
		}
		assert.Len(t, policy.Apply(msgs), 20)
	})

	t.Run("custom cost function", func(t *testing.T) {
		p := TrimPolicy{Threshold: 2, Budget: 2, KeepRecent: 1, Cost: func(string) float64 { return 1 }}
		msgs := []Message{
			{Role: RoleSystem, Content: "a"},
			{Role: RoleUser, Content: "b"},
			{Role: RoleAssistant, Content: "c"},
		}
		out := p.Apply(msgs)
		require.Len(t, out, 2)
		assert.Equal(t, "c", out[1].Content)
	})
}

func TestManagerGetOrCreate(t *testing.T) {
	m := newTestManager(Options{})

	s := m.GetOrCreate("")
	require.NotEmpty(t, s.ID)
	require.Len(t, s.Messages, 1)
	assert.Equal(t, RoleSystem, s.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, s.Messages[0].Content)

	again := m.GetOrCreate(s.ID)
	assert.Same(t, s, again)

	named := m.GetOrCreate("abc")
	assert.Equal(t, "abc", named.ID)
	assert.Equal(t, 2, m.Len())
}

func TestManagerAppendTrimsOnBudget(t *testing.T) {
	m := newTestManager(Options{})
	s := m.GetOrCreate("s1")

	for i := 0; i < 24; i++ {
		m.Append(s, RoleUser, fmt.Sprintf("m%d %s", i, words(1000, "w")))
	}

	require.Len(t, s.Messages, 19)
	assert.Equal(t, RoleSystem, s.Messages[0].Role)
	assert.True(t, strings.HasPrefix(s.Messages[1].Content, "m6 "))
	assert.True(t, strings.HasPrefix(s.Messages[18].Content, "m23 "))
}

func TestManagerHistoryAndState(t *testing.T) {
	m := newTestManager(Options{SystemPrompt: "be brief"})
	s := m.GetOrCreate("s1")
	m.Append(s, RoleUser, "hello")
	m.Append(s, RoleAssistant, "hi")

	hist := m.History("s1")
	require.Len(t, hist, 3)
	assert.Equal(t, "be brief", hist[0].Content)
	assert.Equal(t, RoleAssistant, hist[2].Role)
	assert.Empty(t, m.History("unknown"))

	api := m.MessagesForAPI(s)
	assert.Equal(t, APIMessage{Role: "user", Content: "hello"}, api[1])

	m.SetAnalysis(s, "https://example.com", &models.Analysis{WebsiteType: "blog"})
	m.SetExtraction(s, &models.ExtractionPayload{Metadata: models.ExtractionMeta{TotalItems: 2}})
	got, ok := m.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "https://example.com", got.CurrentURL)
	assert.Equal(t, "blog", got.LastAnalysis.WebsiteType)
	assert.Equal(t, 2, got.LastExtraction.Metadata.TotalItems)

	m.GetOrCreate("a0")
	assert.Equal(t, []string{"a0", "s1"}, m.IDs())

	assert.True(t, m.Delete("s1"))
	assert.False(t, m.Delete("s1"))
	_, ok = m.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, []string{"a0"}, m.IDs())
}

func TestEvictionPolicies(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("ttl", func(t *testing.T) {
		m := newTestManager(Options{Eviction: TTL{MaxIdle: time.Hour}})
		clock := base
		m.now = func() time.Time { return clock }

		m.GetOrCreate("old")
		clock = base.Add(2 * time.Hour)
		m.GetOrCreate("new")

		_, ok := m.Get("old")
		assert.False(t, ok)
		assert.Equal(t, 1, m.Len())
	})

	t.Run("lru", func(t *testing.T) {
		m := newTestManager(Options{Eviction: LRU{Max: 2}})
		clock := base
		m.now = func() time.Time { clock = clock.Add(time.Second); return clock }

		m.GetOrCreate("a")
		m.GetOrCreate("b")
		m.GetOrCreate("a")
		m.GetOrCreate("c")

		assert.Equal(t, 2, m.Len())
		_, ok := m.Get("b")
		assert.False(t, ok)
	})

	t.Run("by name", func(t *testing.T) {
		assert.IsType(t, NoEviction{}, PolicyByName("none", time.Hour, 10))
		assert.IsType(t, TTL{}, PolicyByName("ttl", time.Hour, 10))
		assert.IsType(t, LRU{}, PolicyByName("lru", time.Hour, 10))
	})
}

func TestSQLiteJournalRestore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "sessions.db")
	journal, err := OpenJournal(path)
	require.NoError(t, err)
	defer journal.Close()

	m := newTestManager(Options{Journal: journal})
	s := m.GetOrCreate("persisted")
	m.Append(s, RoleUser, "what is on this page?")
	m.Append(s, RoleAssistant, "a product listing")

	restarted := newTestManager(Options{Journal: journal})
	restored := restarted.GetOrCreate("persisted")

	require.Len(t, restored.Messages, 3)
	assert.Equal(t, RoleSystem, restored.Messages[0].Role)
	assert.Equal(t, "what is on this page?", restored.Messages[1].Content)
	assert.Equal(t, "a product listing", restored.Messages[2].Content)

	fresh, err := journal.Load("never-seen")
	require.NoError(t, err)
	assert.Empty(t, fresh)
}

func TestManagerPreview(t *testing.T) {
	m := newTestManager(Options{SystemPrompt: "be helpful"})

	preview := m.Preview("draft")
	assert.Equal(t, []APIMessage{{Role: "system", Content: "be helpful"}}, preview)
	assert.Equal(t, 0, m.Len())

	s := m.GetOrCreate("draft")
	m.Append(s, RoleUser, "hi")
	assert.Equal(t, m.MessagesForAPI(s), m.Preview("draft"))
	assert.Equal(t, 1, m.Len())
}
