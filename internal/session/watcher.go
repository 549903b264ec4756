// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long a dropped file must stay quiet before it is
// uploaded. Copies into the drop directory arrive as a Create followed by
// a burst of Writes; uploading early would send a truncated file.
const DefaultDebounce = 500 * time.Millisecond

// =============================================================================
// DROP DIRECTORY WATCHER
// =============================================================================

// Watcher uploads PDF files dropped into a directory.
//
// Each new or modified *.pdf in the watched directory is debounced and
// then uploaded to the manager's active session.
type Watcher struct {
	mgr      *Manager
	dir      string
	watcher  *fsnotify.Watcher
	debounce time.Duration

	mu      sync.Mutex
	pending map[string]time.Time // File path -> last change time

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// onError receives upload failures; the watcher keeps running.
	onError func(path string, err error)
}

// NewWatcher creates a watcher over dir that uploads through mgr.
// A debounce of 0 uses DefaultDebounce.
func NewWatcher(mgr *Manager, dir string, debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		mgr:      mgr,
		dir:      dir,
		watcher:  fsw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// SetErrorCallback registers the function called when an upload fails.
func (w *Watcher) SetErrorCallback(fn func(path string, err error)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onError = fn
}

// Watch starts watching the drop directory.
func (w *Watcher) Watch() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.wg.Add(2)
	go w.processEvents()
	go w.processPending()

	return nil
}

// Close stops watching and waits for in-flight processing to finish.
func (w *Watcher) Close() error {
	w.cancel()
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

// processEvents feeds file system events into the debounce map.
func (w *Watcher) processEvents() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !isPDF(event.Name) {
				continue
			}
			w.mu.Lock()
			w.pending[event.Name] = time.Now()
			w.mu.Unlock()

		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal; the next event may still arrive.
		}
	}
}

// processPending uploads files whose last change is older than the
// debounce window.
func (w *Watcher) processPending() {
	defer w.wg.Done()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return

		case <-ticker.C:
			now := time.Now()

			w.mu.Lock()
			var ready []string
			for path, changed := range w.pending {
				if now.Sub(changed) >= w.debounce {
					ready = append(ready, path)
					delete(w.pending, path)
				}
			}
			onError := w.onError
			w.mu.Unlock()

			for _, path := range ready {
				if _, err := w.mgr.Upload(w.ctx, []string{path}); err != nil {
					if onError != nil {
						onError(path, err)
					}
				}
			}
		}
	}
}

// isPDF reports whether the path names a PDF by extension.
func isPDF(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".pdf")
}
