// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// Package-level errors.
var (
	// ErrNoSession is returned when an operation needs an active session.
	ErrNoSession = errors.New("no active session")

	// ErrSessionActive is returned by Start when a session already exists.
	ErrSessionActive = errors.New("session already active")

	// ErrNoFiles is returned by Upload when the file list is empty.
	ErrNoFiles = errors.New("no files to upload")
)

// DefaultPollInterval is how often upload jobs are polled for progress.
const DefaultPollInterval = 2000 * time.Millisecond

// =============================================================================
// CONFIGURATION
// =============================================================================

// Config holds configuration for the session manager.
type Config struct {
	// PollInterval is the delay between upload job status polls.
	PollInterval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		PollInterval: DefaultPollInterval,
	}
}

// UpdateFunc is invoked after every state change: session start/close,
// document additions, and each poll cycle that changed a document. The err
// argument is non-nil when a background poll failed; the document list is
// left as last observed in that case.
type UpdateFunc func(docs []model.Document, err error)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Manager tracks the active backend session and its documents.
//
// All methods are safe for concurrent use. Background polling goroutines
// are tied to the manager lifetime: Close cancels them and waits for them
// to exit before closing the server session.
type Manager struct {
	mu sync.Mutex

	client *api.Client

	sessionID string
	createdAt time.Time
	documents []model.Document

	pollInterval time.Duration
	onUpdate     UpdateFunc

	// pollCtx parents every poll loop; Close cancels it.
	pollCtx    context.Context
	pollCancel context.CancelFunc
	pollWG     sync.WaitGroup
}

// NewManager creates a session manager over the given API client.
func NewManager(client *api.Client, cfg Config) *Manager {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		client:       client,
		pollInterval: cfg.PollInterval,
		pollCtx:      ctx,
		pollCancel:   cancel,
	}
}

// SetUpdateCallback registers the function called on state changes.
// The callback runs outside the manager lock and receives a snapshot copy.
func (m *Manager) SetUpdateCallback(fn UpdateFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onUpdate = fn
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Start creates a new server session. Fails if one is already active.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.sessionID != "" {
		m.mu.Unlock()
		return ErrSessionActive
	}
	m.mu.Unlock()

	sess, err := m.client.CreateSession(ctx)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.sessionID = sess.SessionID
	m.createdAt = time.Now()
	m.documents = nil
	m.mu.Unlock()

	m.notify(nil)
	return nil
}

// Resume attaches the manager to an existing server session, verifying it
// is still alive. Used when reconnecting to a session created elsewhere.
func (m *Manager) Resume(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	if m.sessionID != "" {
		m.mu.Unlock()
		return ErrSessionActive
	}
	m.mu.Unlock()

	status, err := m.client.SessionStatus(ctx, sessionID)
	if err != nil {
		return err
	}

	m.mu.Lock()
	m.sessionID = status.SessionID
	m.createdAt = time.Now()
	m.documents = nil
	m.mu.Unlock()

	m.notify(nil)
	return nil
}

// Close stops all background polling and closes the server session.
// Safe to call without an active session; safe to call more than once.
func (m *Manager) Close(ctx context.Context) error {
	m.pollCancel()
	m.pollWG.Wait()

	m.mu.Lock()
	sessionID := m.sessionID
	m.sessionID = ""
	m.documents = nil
	m.mu.Unlock()

	if sessionID == "" {
		return nil
	}
	_, err := m.client.CloseSession(ctx, sessionID)
	return err
}

// SessionID returns the active session ID, or "" when no session exists.
func (m *Manager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Active reports whether a server session is currently open.
func (m *Manager) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID != ""
}

// StartTime returns when the current session was started locally.
func (m *Manager) StartTime() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createdAt
}

// =============================================================================
// DOCUMENTS
// =============================================================================

// Documents returns a snapshot copy of the current document list.
func (m *Manager) Documents() []model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()
	docs := make([]model.Document, len(m.documents))
	copy(docs, m.documents)
	return docs
}

// ReadyCount returns how many documents have completed processing.
func (m *Manager) ReadyCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, d := range m.documents {
		if d.Status == model.StatusCompleted {
			n++
		}
	}
	return n
}

// Upload uploads the given files to the active session.
//
// The files appear in the document list immediately (status pending, with
// temporary client IDs), are reconciled by filename against the upload
// response (status processing, server IDs), and then the upload job is
// polled in the background until it reaches a terminal state. Upload
// returns as soon as the batch is accepted.
func (m *Manager) Upload(ctx context.Context, paths []string) ([]model.Document, error) {
	if len(paths) == 0 {
		return nil, ErrNoFiles
	}

	m.mu.Lock()
	sessionID := m.sessionID
	m.mu.Unlock()
	if sessionID == "" {
		return nil, ErrNoSession
	}

	files := make([]api.UploadFile, 0, len(paths))
	var closers []interface{ Close() error }
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()
	for _, path := range paths {
		f, closer, err := api.OpenUploadFile(path)
		if err != nil {
			return nil, err
		}
		closers = append(closers, closer)
		files = append(files, f)
	}

	// Optimistic: the files show up as pending before the upload finishes.
	pending := make([]model.Document, 0, len(files))
	for _, f := range files {
		pending = append(pending, model.NewPendingDocument(f.Filename, f.Size))
	}
	m.mu.Lock()
	m.documents = append(m.documents, pending...)
	m.mu.Unlock()
	m.notify(nil)

	upload, err := m.client.UploadDocuments(ctx, sessionID, files)
	if err != nil {
		// The upload never happened; drop the optimistic entries.
		m.removeDocuments(pending)
		m.notify(err)
		return nil, err
	}

	reconciled := m.reconcile(upload.Documents)
	m.notify(nil)

	m.pollWG.Add(1)
	go m.pollJob(upload.JobID)

	return reconciled, nil
}

// reconcile matches optimistic pending documents to the upload response by
// filename, assigning server IDs and the server-reported status.
func (m *Manager) reconcile(statuses []api.DocumentStatus) []model.Document {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ds := range statuses {
		for i := range m.documents {
			doc := &m.documents[i]
			if doc.IsReconciled() || doc.Filename != ds.Filename {
				continue
			}
			doc.ID = ds.DocumentID
			status, _ := model.ParseDocStatus(ds.Status)
			doc.Status = status
			doc.Error = ds.Error
			doc.Pages = ds.Pages
			break
		}
	}

	result := make([]model.Document, 0, len(statuses))
	for _, ds := range statuses {
		for _, d := range m.documents {
			if d.ID == ds.DocumentID {
				result = append(result, d)
				break
			}
		}
	}
	return result
}

// removeDocuments deletes the given documents from the list by ID.
func (m *Manager) removeDocuments(docs []model.Document) {
	ids := make(map[string]bool, len(docs))
	for _, d := range docs {
		ids[d.ID] = true
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.documents[:0]
	for _, d := range m.documents {
		if !ids[d.ID] {
			kept = append(kept, d)
		}
	}
	m.documents = kept
}

// =============================================================================
// JOB POLLING
// =============================================================================

// pollJob polls an upload job until it reaches a terminal state, merging
// per-document statuses into the list on every cycle. The loop stops on
// manager close, on a terminal job status, or on the first poll error.
func (m *Manager) pollJob(jobID string) {
	defer m.pollWG.Done()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.pollCtx.Done():
			return
		case <-ticker.C:
		}

		job, err := m.client.JobStatus(m.pollCtx, jobID)
		if err != nil {
			if m.pollCtx.Err() != nil {
				return
			}
			m.notify(err)
			return
		}

		m.merge(job.Documents)
		m.notify(nil)

		if job.IsTerminal() {
			return
		}
	}
}

// merge applies per-document statuses from a job poll, matching on the
// server document ID. Documents the job does not mention are untouched.
func (m *Manager) merge(statuses []api.DocumentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ds := range statuses {
		for i := range m.documents {
			doc := &m.documents[i]
			if doc.ID != ds.DocumentID {
				continue
			}
			status, _ := model.ParseDocStatus(ds.Status)
			doc.Status = status
			doc.Error = ds.Error
			if ds.Pages > 0 {
				doc.Pages = ds.Pages
			}
			break
		}
	}
}

// notify invokes the update callback outside the lock with a snapshot.
func (m *Manager) notify(err error) {
	m.mu.Lock()
	fn := m.onUpdate
	docs := make([]model.Document, len(m.documents))
	copy(docs, m.documents)
	m.mu.Unlock()

	if fn != nil {
		fn(docs, err)
	}
}
