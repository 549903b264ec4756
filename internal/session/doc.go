// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session owns the client-side session lifecycle and document list.
//
// A Manager wraps the backend API: it creates and closes the server session,
// uploads document batches, and polls upload jobs until every document
// reaches a terminal state. Documents are tracked optimistically: a file
// appears in the list (status pending) as soon as it is selected, gets its
// server-assigned ID when the upload response arrives, and is updated in
// place as polling reports progress.
//
// # Key Types
//
//   - Manager: mutex-guarded session and document state
//   - Watcher: fsnotify-based drop directory for automatic uploads
//
// # Usage
//
// Create a manager, start a session, upload files:
//
//	mgr := session.NewManager(client, session.DefaultConfig())
//	if err := mgr.Start(ctx); err != nil { ... }
//	defer mgr.Close(ctx)
//
//	docs, err := mgr.Upload(ctx, []string{"report.pdf"})
//
// Upload returns once the batch is accepted; processing progress arrives
// through the update callback as the job is polled in the background.
package session
