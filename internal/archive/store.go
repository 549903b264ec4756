// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package archive

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	ErrSessionNotFound = errors.New("archived session not found")
)

// =============================================================================
// TYPES
// =============================================================================

// SessionMeta describes one archived session for listing.
type SessionMeta struct {
	ID            string
	CreatedAt     time.Time
	ClosedAt      time.Time // Zero while the session was never closed
	DocumentNames []string
	MessageCount  int
	Preview       string // First user message, truncated
}

// ArchivedSession is a fully loaded archived conversation.
type ArchivedSession struct {
	SessionMeta
	Messages []model.Message
}

// =============================================================================
// STORE
// =============================================================================

// Store is the SQLite-backed conversation archive.
//
// SQLite supports one writer at a time, so the connection pool is capped
// at a single connection.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the archive database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if _, err := db.Exec(InitMetadata); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize metadata: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// WRITE OPERATIONS
// =============================================================================

// SaveSession records or updates an archived session: its metadata and the
// full message list. Existing messages for the session are replaced so the
// archive always mirrors the final conversation state.
func (s *Store) SaveSession(sessionID string, createdAt time.Time, docs []model.Document, messages []model.Message) error {
	names := make([]string, 0, len(docs))
	for _, d := range docs {
		names = append(names, d.Filename)
	}
	namesJSON, err := json.Marshal(names)
	if err != nil {
		return fmt.Errorf("failed to encode document names: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO sessions (id, created_at, closed_at, document_names)
		VALUES (?, ?, NULL, ?)
		ON CONFLICT(id) DO UPDATE SET document_names = excluded.document_names
	`, sessionID, createdAt.Unix(), string(namesJSON))
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	if _, err := tx.Exec("DELETE FROM messages WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("failed to clear old messages: %w", err)
	}

	for i, msg := range messages {
		var refs any
		if len(msg.References) > 0 {
			refsJSON, err := json.Marshal(msg.References)
			if err != nil {
				return fmt.Errorf("failed to encode references: %w", err)
			}
			refs = string(refsJSON)
		}
		_, err := tx.Exec(`
			INSERT INTO messages (id, session_id, seq, role, content, refs, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, msg.ID, sessionID, i, string(msg.Role), msg.Content, refs, msg.Timestamp.Unix())
		if err != nil {
			return fmt.Errorf("failed to save message: %w", err)
		}
	}

	return tx.Commit()
}

// MarkClosed records when a session was closed on the server.
func (s *Store) MarkClosed(sessionID string, closedAt time.Time) error {
	res, err := s.db.Exec("UPDATE sessions SET closed_at = ? WHERE id = ?", closedAt.Unix(), sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes an archived session and its messages.
func (s *Store) Delete(sessionID string) error {
	res, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", sessionID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Clear removes every archived session.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM sessions")
	return err
}

// =============================================================================
// READ OPERATIONS
// =============================================================================

// List returns all archived sessions, most recent first.
func (s *Store) List() ([]SessionMeta, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.created_at, s.closed_at, s.document_names,
		       COUNT(m.id),
		       COALESCE((SELECT content FROM messages
		                 WHERE session_id = s.id AND role = 'user'
		                 ORDER BY seq LIMIT 1), '')
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []SessionMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Search returns sessions where any message contains the query,
// case-insensitive. An empty query lists everything.
func (s *Store) Search(query string) ([]SessionMeta, error) {
	if query == "" {
		return s.List()
	}

	rows, err := s.db.Query(`
		SELECT s.id, s.created_at, s.closed_at, s.document_names,
		       COUNT(m.id),
		       COALESCE((SELECT content FROM messages
		                 WHERE session_id = s.id AND role = 'user'
		                 ORDER BY seq LIMIT 1), '')
		FROM sessions s
		LEFT JOIN messages m ON m.session_id = s.id
		WHERE s.id IN (SELECT DISTINCT session_id FROM messages
		               WHERE content LIKE '%' || ? || '%' COLLATE NOCASE)
		GROUP BY s.id
		ORDER BY s.created_at DESC
	`, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var metas []SessionMeta
	for rows.Next() {
		meta, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		metas = append(metas, meta)
	}
	return metas, rows.Err()
}

// Load retrieves a full archived session by ID.
func (s *Store) Load(sessionID string) (*ArchivedSession, error) {
	row := s.db.QueryRow(`
		SELECT id, created_at, closed_at, document_names
		FROM sessions WHERE id = ?
	`, sessionID)

	var (
		meta      SessionMeta
		createdAt int64
		closedAt  sql.NullInt64
		namesJSON string
	)
	if err := row.Scan(&meta.ID, &createdAt, &closedAt, &namesJSON); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	meta.CreatedAt = time.Unix(createdAt, 0)
	if closedAt.Valid {
		meta.ClosedAt = time.Unix(closedAt.Int64, 0)
	}
	if err := json.Unmarshal([]byte(namesJSON), &meta.DocumentNames); err != nil {
		return nil, fmt.Errorf("corrupt document names for %s: %w", sessionID, err)
	}

	rows, err := s.db.Query(`
		SELECT id, role, content, refs, created_at
		FROM messages WHERE session_id = ? ORDER BY seq
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []model.Message
	for rows.Next() {
		var (
			msg     model.Message
			role    string
			refs    sql.NullString
			created int64
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &refs, &created); err != nil {
			return nil, err
		}
		msg.Role = model.Role(role)
		msg.Timestamp = time.Unix(created, 0)
		if refs.Valid {
			if err := json.Unmarshal([]byte(refs.String), &msg.References); err != nil {
				return nil, fmt.Errorf("corrupt references for message %s: %w", msg.ID, err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	meta.MessageCount = len(messages)
	for _, m := range messages {
		if m.Role == model.RoleUser {
			meta.Preview = m.Content
			break
		}
	}

	return &ArchivedSession{SessionMeta: meta, Messages: messages}, nil
}

// scanMeta scans one row of the list/search queries.
func scanMeta(rows *sql.Rows) (SessionMeta, error) {
	var (
		meta      SessionMeta
		createdAt int64
		closedAt  sql.NullInt64
		namesJSON string
	)
	if err := rows.Scan(&meta.ID, &createdAt, &closedAt, &namesJSON, &meta.MessageCount, &meta.Preview); err != nil {
		return SessionMeta{}, err
	}
	meta.CreatedAt = time.Unix(createdAt, 0)
	if closedAt.Valid {
		meta.ClosedAt = time.Unix(closedAt.Int64, 0)
	}
	if err := json.Unmarshal([]byte(namesJSON), &meta.DocumentNames); err != nil {
		return SessionMeta{}, fmt.Errorf("corrupt document names for %s: %w", meta.ID, err)
	}
	return meta, nil
}
