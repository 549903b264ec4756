// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package api provides the HTTP client for the PDF chat backend.
//
// The backend exposes a small REST surface for sessions, document upload
// with asynchronous processing, and retrieval-augmented chat, plus an
// SSE-style streaming variant of the chat endpoint. This package wraps
// that surface with typed requests and responses.
//
// # Endpoints
//
//	POST   /api/session/create
//	DELETE /api/session/close/{id}
//	GET    /api/session/status/{id}
//	POST   /api/documents/upload          (multipart)
//	GET    /api/documents/status/{job_id}
//	GET    /api/documents/list/{id}
//	POST   /api/chat/message
//	POST   /api/chat/message/stream       (data: <json> frames, data: [DONE])
//	GET    /api/chat/history/{id}?limit=N
//	DELETE /api/chat/history/{id}
//
// # Error Handling
//
// Non-success responses become *APIError with the status code and the
// server's "detail" field when the body parses as JSON, or a generic
// status message otherwise. Network failures are wrapped with %w so
// callers can use errors.Is/errors.As. No retries happen at this layer;
// retry policy, if any, belongs to the callers.
package api
