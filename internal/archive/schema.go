// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package archive provides a local SQLite archive of past conversations.
package archive

const (
	// SchemaVersion tracks the database schema version for migrations
	SchemaVersion = 1
)

// SQLite schema for the conversation archive
const Schema = `
-- Metadata table for schema version
CREATE TABLE IF NOT EXISTS metadata (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
) WITHOUT ROWID;

-- Sessions table: one row per archived server session
CREATE TABLE IF NOT EXISTS sessions (
    id TEXT PRIMARY KEY,              -- server session ID
    created_at INTEGER NOT NULL,      -- Unix timestamp
    closed_at INTEGER,                -- Unix timestamp, NULL while open
    document_names TEXT NOT NULL      -- JSON array of filenames
);

CREATE INDEX IF NOT EXISTS idx_sessions_created ON sessions(created_at);

-- Messages table: conversation turns in send order
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,              -- client message ID
    session_id TEXT NOT NULL,
    seq INTEGER NOT NULL,             -- position within the session
    role TEXT NOT NULL,               -- user, assistant, system
    content TEXT NOT NULL,
    refs TEXT,                        -- JSON array of references, NULL when none
    created_at INTEGER NOT NULL,      -- Unix timestamp
    FOREIGN KEY(session_id) REFERENCES sessions(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, seq);
`

// InitMetadata initializes the metadata table with default values
const InitMetadata = `
INSERT OR IGNORE INTO metadata (key, value) VALUES ('schema_version', '1');
INSERT OR IGNORE INTO metadata (key, value) VALUES ('created_at', strftime('%s', 'now'));
`
