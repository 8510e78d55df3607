package session

import (
	"crypto/rand"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Journal persists session messages so a session can be restored after a restart
type Journal interface {
	Record(sessionID string, msg Message) error
	Load(sessionID string) ([]Message, error)
	Close() error
}

// SQLiteJournal is an append-only message log backed by SQLite
type SQLiteJournal struct {
	db *sql.DB
}

// OpenJournal opens (creating if needed) the journal database at path
func OpenJournal(path string) (*SQLiteJournal, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	// Pragmas in the DSN apply to every pooled connection
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS messages (
			seq        INTEGER PRIMARY KEY AUTOINCREMENT,
			id         TEXT NOT NULL UNIQUE,
			session_id TEXT NOT NULL,
			role       TEXT NOT NULL,
			content    TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate journal: %w", err)
	}
	return &SQLiteJournal{db: db}, nil
}

// Record appends msg to the log for sessionID
func (j *SQLiteJournal) Record(sessionID string, msg Message) error {
	ts := msg.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	id, err := ulid.New(ulid.Timestamp(ts), ulid.Monotonic(rand.Reader, 0))
	if err != nil {
		return fmt.Errorf("failed to generate message id: %w", err)
	}
	_, err = j.db.Exec(
		`INSERT INTO messages (id, session_id, role, content, created_at) VALUES (?, ?, ?, ?, ?)`,
		id.String(), sessionID, string(msg.Role), msg.Content, ts.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record message: %w", err)
	}
	return nil
}

// Load returns every journaled message for sessionID, oldest first
func (j *SQLiteJournal) Load(sessionID string) ([]Message, error) {
	rows, err := j.db.Query(
		`SELECT role, content, created_at FROM messages WHERE session_id = ? ORDER BY seq`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query journal: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var (
			role    string
			content string
			created int64
		)
		if err := rows.Scan(&role, &content, &created); err != nil {
			return nil, fmt.Errorf("failed to scan journal row: %w", err)
		}
		msgs = append(msgs, Message{Role: Role(role), Content: content, Timestamp: time.Unix(0, created)})
	}
	return msgs, rows.Err()
}

// Close closes the underlying database
func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
