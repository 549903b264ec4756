// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error variables for common backend errors.
var (
	// ErrNotFound indicates the session, job or document does not exist
	// (or the session has expired server-side).
	ErrNotFound = errors.New("not found")

	// ErrBadRequest indicates the server rejected the request payload,
	// e.g. too many files per session or a non-PDF upload.
	ErrBadRequest = errors.New("bad request")

	// ErrMalformedResponse indicates the server answered with a success
	// status but a body that does not match the documented schema.
	ErrMalformedResponse = errors.New("malformed response")
)

// APIError represents a non-success response from the backend.
type APIError struct {
	// Status is the HTTP status code.
	Status int

	// Detail is the server-provided error description, extracted from the
	// JSON body's "detail" field when present, else a generic status
	// message.
	Detail string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Detail
}

// Is maps well-known status codes onto the package sentinel errors so
// callers can write errors.Is(err, api.ErrNotFound).
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrBadRequest:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// apiErrorResponse is the FastAPI-style error body shape.
type apiErrorResponse struct {
	Detail string `json:"detail"`
}

// handleErrorResponse converts a non-success HTTP response body into a
// typed error. The detail message comes from a best-effort JSON parse of
// the body; a body that is absent or malformed yields a generic
// status-code message instead.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		return &APIError{Status: statusCode, Detail: apiErr.Detail}
	}
	return &APIError{Status: statusCode, Detail: fmt.Sprintf("HTTP %d", statusCode)}
}
