// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// fakeBackend is a minimal in-memory stand-in for the PDF chat server.
type fakeBackend struct {
	mu sync.Mutex

	sessionID string
	closed    bool

	uploadDocs []api.DocumentStatus // Returned by the upload endpoint
	jobPolls   []api.JobStatus      // Returned by successive status polls
	pollCount  int
	pollErr    int // HTTP status to return from polls instead, when non-zero
}

func (f *fakeBackend) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/api/session/create", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"session_id": f.sessionID, "status": "active", "expires_in_hours": 24,
		})
	})
	mux.HandleFunc("/api/session/close/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]any{"session_id": f.sessionID, "message": "closed"})
	})
	mux.HandleFunc("/api/session/status/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/session/status/")
		if id != f.sessionID {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Session not found"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"session_id": id, "status": "active"})
	})
	mux.HandleFunc("/api/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			t.Errorf("bad multipart body: %v", err)
		}
		json.NewEncoder(w).Encode(api.UploadResponse{
			JobID:     "job-1",
			SessionID: f.sessionID,
			Documents: f.uploadDocs,
		})
	})
	mux.HandleFunc("/api/documents/status/", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		if f.pollErr != 0 {
			w.WriteHeader(f.pollErr)
			json.NewEncoder(w).Encode(map[string]string{"detail": "Job not found"})
			return
		}
		i := f.pollCount
		if i >= len(f.jobPolls) {
			i = len(f.jobPolls) - 1
		}
		f.pollCount++
		json.NewEncoder(w).Encode(f.jobPolls[i])
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// writePDF drops a fake PDF file into dir and returns its path.
func writePDF(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("%PDF-1.4 test"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestManager(t *testing.T, backend *fakeBackend) *Manager {
	t.Helper()
	server := backend.server(t)
	return NewManager(api.NewClient(server.URL), Config{PollInterval: 20 * time.Millisecond})
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestStartCreatesSession(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	if mgr.Active() {
		t.Error("manager active before Start")
	}
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if mgr.SessionID() != "sess-abc" {
		t.Errorf("SessionID = %q", mgr.SessionID())
	}
	if !mgr.Active() {
		t.Error("manager not active after Start")
	}
}

func TestStartTwiceFails(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := mgr.Start(context.Background()); !errors.Is(err, ErrSessionActive) {
		t.Errorf("second Start = %v, want ErrSessionActive", err)
	}
}

func TestResume(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	if err := mgr.Resume(context.Background(), "sess-abc"); err != nil {
		t.Fatalf("Resume: %v", err)
	}
	if mgr.SessionID() != "sess-abc" {
		t.Errorf("SessionID = %q", mgr.SessionID())
	}
}

func TestResumeUnknownSession(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	err := mgr.Resume(context.Background(), "sess-gone")
	if !errors.Is(err, api.ErrNotFound) {
		t.Errorf("Resume = %v, want ErrNotFound", err)
	}
	if mgr.Active() {
		t.Error("manager active after failed resume")
	}
}

func TestCloseEndsSession(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := mgr.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if mgr.Active() {
		t.Error("manager still active after Close")
	}
	backend.mu.Lock()
	closed := backend.closed
	backend.mu.Unlock()
	if !closed {
		t.Error("server session was not closed")
	}

	// A second close is a no-op.
	if err := mgr.Close(context.Background()); err != nil {
		t.Errorf("second Close: %v", err)
	}
}

// =============================================================================
// UPLOAD AND RECONCILIATION
// =============================================================================

func TestUploadWithoutSession(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	path := writePDF(t, t.TempDir(), "a.pdf")
	if _, err := mgr.Upload(context.Background(), []string{path}); !errors.Is(err, ErrNoSession) {
		t.Errorf("Upload = %v, want ErrNoSession", err)
	}
}

func TestUploadNoFiles(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)

	if _, err := mgr.Upload(context.Background(), nil); !errors.Is(err, ErrNoFiles) {
		t.Errorf("Upload = %v, want ErrNoFiles", err)
	}
}

func TestUploadReconcilesByFilename(t *testing.T) {
	backend := &fakeBackend{
		sessionID: "sess-abc",
		uploadDocs: []api.DocumentStatus{
			{DocumentID: "doc-1", Filename: "a.pdf", Status: "processing"},
			{DocumentID: "doc-2", Filename: "b.pdf", Status: "processing"},
		},
		jobPolls: []api.JobStatus{
			{JobID: "job-1", Status: "completed", Documents: []api.DocumentStatus{
				{DocumentID: "doc-1", Filename: "a.pdf", Status: "completed", Pages: 3},
				{DocumentID: "doc-2", Filename: "b.pdf", Status: "completed", Pages: 7},
			}},
		},
	}
	mgr := newTestManager(t, backend)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dir := t.TempDir()
	paths := []string{writePDF(t, dir, "a.pdf"), writePDF(t, dir, "b.pdf")}

	docs, err := mgr.Upload(context.Background(), paths)
	if err != nil {
		t.Fatalf("Upload: %v", err)
	}
	if len(docs) != 2 {
		t.Fatalf("got %d documents, want 2", len(docs))
	}
	for _, d := range docs {
		if !d.IsReconciled() {
			t.Errorf("document %s still has a temporary ID %s", d.Filename, d.ID)
		}
		if d.Status != model.StatusProcessing {
			t.Errorf("document %s status = %s, want processing", d.Filename, d.Status)
		}
	}

	// Polling should drive both documents to completed.
	deadline := time.After(2 * time.Second)
	for {
		done := true
		for _, d := range mgr.Documents() {
			if !d.Status.IsTerminal() {
				done = false
			}
		}
		if done {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("documents never reached terminal state: %+v", mgr.Documents())
		case <-time.After(10 * time.Millisecond):
		}
	}

	for _, d := range mgr.Documents() {
		if d.Status != model.StatusCompleted {
			t.Errorf("document %s = %s, want completed", d.Filename, d.Status)
		}
		if d.Pages == 0 {
			t.Errorf("document %s pages not merged", d.Filename)
		}
	}
}

func TestPollingStopsAtTerminalStatus(t *testing.T) {
	backend := &fakeBackend{
		sessionID: "sess-abc",
		uploadDocs: []api.DocumentStatus{
			{DocumentID: "doc-1", Filename: "a.pdf", Status: "processing"},
		},
		jobPolls: []api.JobStatus{
			{JobID: "job-1", Status: "processing", Documents: []api.DocumentStatus{
				{DocumentID: "doc-1", Filename: "a.pdf", Status: "processing"},
			}},
			{JobID: "job-1", Status: "completed", Documents: []api.DocumentStatus{
				{DocumentID: "doc-1", Filename: "a.pdf", Status: "completed", Pages: 3},
			}},
		},
	}
	mgr := newTestManager(t, backend)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	path := writePDF(t, t.TempDir(), "a.pdf")
	if _, err := mgr.Upload(context.Background(), []string{path}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		docs := mgr.Documents()
		if len(docs) == 1 && docs[0].Status == model.StatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatalf("document never completed: %+v", docs)
		case <-time.After(10 * time.Millisecond):
		}
	}

	// Once the job reports a terminal status, the status endpoint must
	// receive no further requests.
	backend.mu.Lock()
	polls := backend.pollCount
	backend.mu.Unlock()

	time.Sleep(200 * time.Millisecond) // ten poll intervals

	backend.mu.Lock()
	later := backend.pollCount
	backend.mu.Unlock()
	if later != polls {
		t.Errorf("status polled %d more times after the terminal response", later-polls)
	}
}

func TestUploadFailureDropsOptimisticDocs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/session/create", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"session_id": "sess-abc"})
	})
	mux.HandleFunc("/api/documents/upload", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Only PDF files are supported"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	mgr := NewManager(api.NewClient(server.URL), DefaultConfig())
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	path := writePDF(t, t.TempDir(), "a.pdf")
	_, err := mgr.Upload(context.Background(), []string{path})
	if !errors.Is(err, api.ErrBadRequest) {
		t.Fatalf("Upload = %v, want ErrBadRequest", err)
	}
	if docs := mgr.Documents(); len(docs) != 0 {
		t.Errorf("optimistic documents not removed after failed upload: %+v", docs)
	}
}

func TestPollErrorSurfacesAndStops(t *testing.T) {
	backend := &fakeBackend{
		sessionID: "sess-abc",
		uploadDocs: []api.DocumentStatus{
			{DocumentID: "doc-1", Filename: "a.pdf", Status: "processing"},
		},
		pollErr: http.StatusNotFound,
	}
	mgr := newTestManager(t, backend)

	errCh := make(chan error, 8)
	mgr.SetUpdateCallback(func(docs []model.Document, err error) {
		if err != nil {
			errCh <- err
		}
	})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	path := writePDF(t, t.TempDir(), "a.pdf")
	if _, err := mgr.Upload(context.Background(), []string{path}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	select {
	case err := <-errCh:
		if !errors.Is(err, api.ErrNotFound) {
			t.Errorf("poll error = %v, want ErrNotFound", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("poll error never surfaced through the update callback")
	}

	// The document stays as last observed.
	docs := mgr.Documents()
	if len(docs) != 1 || docs[0].Status != model.StatusProcessing {
		t.Errorf("documents = %+v, want the processing doc untouched", docs)
	}
}

func TestCloseCancelsPolling(t *testing.T) {
	backend := &fakeBackend{
		sessionID: "sess-abc",
		uploadDocs: []api.DocumentStatus{
			{DocumentID: "doc-1", Filename: "a.pdf", Status: "processing"},
		},
		// The job never terminates; only Close can stop the loop.
		jobPolls: []api.JobStatus{
			{JobID: "job-1", Status: "processing", Documents: []api.DocumentStatus{
				{DocumentID: "doc-1", Filename: "a.pdf", Status: "processing"},
			}},
		},
	}
	mgr := newTestManager(t, backend)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	path := writePDF(t, t.TempDir(), "a.pdf")
	if _, err := mgr.Upload(context.Background(), []string{path}); err != nil {
		t.Fatalf("Upload: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- mgr.Close(context.Background()) }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Close: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Close blocked on a non-terminal poll loop")
	}
}

func TestDocumentsReturnsCopies(t *testing.T) {
	backend := &fakeBackend{sessionID: "sess-abc"}
	mgr := newTestManager(t, backend)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	mgr.mu.Lock()
	mgr.documents = []model.Document{{ID: "doc-1", Filename: "a.pdf", Status: model.StatusCompleted}}
	mgr.mu.Unlock()

	snapshot := mgr.Documents()
	snapshot[0].Status = model.StatusFailed

	if got := mgr.Documents()[0].Status; got != model.StatusCompleted {
		t.Errorf("mutating the snapshot leaked into manager state: %s", got)
	}
}

// =============================================================================
// DROP DIRECTORY WATCHER
// =============================================================================

func TestWatcherUploadsDroppedPDF(t *testing.T) {
	backend := &fakeBackend{
		sessionID: "sess-abc",
		uploadDocs: []api.DocumentStatus{
			{DocumentID: "doc-1", Filename: "dropped.pdf", Status: "processing"},
		},
		jobPolls: []api.JobStatus{
			{JobID: "job-1", Status: "completed", Documents: []api.DocumentStatus{
				{DocumentID: "doc-1", Filename: "dropped.pdf", Status: "completed"},
			}},
		},
	}
	mgr := newTestManager(t, backend)
	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	dir := t.TempDir()
	watcher, err := NewWatcher(mgr, dir, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	if err := watcher.Watch(); err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer watcher.Close()

	writePDF(t, dir, "dropped.pdf")
	writePDF(t, dir, "notes.txt") // Ignored: not a PDF

	deadline := time.After(3 * time.Second)
	for {
		docs := mgr.Documents()
		if len(docs) == 1 && docs[0].Filename == "dropped.pdf" {
			break
		}
		if len(docs) > 1 {
			t.Fatalf("non-PDF file was uploaded: %+v", docs)
		}
		select {
		case <-deadline:
			t.Fatalf("dropped PDF never uploaded; documents = %+v", docs)
		case <-time.After(20 * time.Millisecond):
		}
	}
}

func TestIsPDF(t *testing.T) {
	cases := map[string]bool{
		"a.pdf":      true,
		"A.PDF":      true,
		"report.Pdf": true,
		"a.txt":      false,
		"pdf":        false,
		"a.pdf.tmp":  false,
	}
	for path, want := range cases {
		if got := isPDF(path); got != want {
			t.Errorf("isPDF(%q) = %v, want %v", path, got, want)
		}
	}
}
