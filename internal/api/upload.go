// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// UploadFile is one file in an upload batch. Content is read fully when
// the request body is built; Size is informational.
type UploadFile struct {
	Filename string
	Content  io.Reader
	Size     int64
}

// OpenUploadFile opens a file on disk as an UploadFile.
// The caller owns the returned closer.
func OpenUploadFile(path string) (UploadFile, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return UploadFile{}, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return UploadFile{}, nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return UploadFile{
		Filename: filepath.Base(path),
		Content:  f,
		Size:     info.Size(),
	}, f, nil
}

// UploadDocuments uploads a batch of PDF files to a session.
//
// The request is multipart/form-data with a session_id field and one
// "files" part per document. The content type (with its boundary) comes
// from the multipart writer; it is never set by hand.
//
// The returned job ID is polled via JobStatus until processing reaches a
// terminal state.
func (c *Client) UploadDocuments(ctx context.Context, sessionID string, files []UploadFile) (*UploadResponse, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no files to upload", ErrBadRequest)
	}

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	if err := writer.WriteField("session_id", sessionID); err != nil {
		return nil, fmt.Errorf("failed to write session_id field: %w", err)
	}

	for _, file := range files {
		part, err := writer.CreateFormFile("files", file.Filename)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file for %s: %w", file.Filename, err)
		}
		if _, err := io.Copy(part, file.Content); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file.Filename, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("api", "documents", "upload"), &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("User-Agent", c.userAgent)

	logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var upload UploadResponse
	if err := decodeJSON(body, &upload); err != nil {
		return nil, err
	}
	if upload.JobID == "" {
		return nil, fmt.Errorf("%w: missing job_id", ErrMalformedResponse)
	}
	return &upload, nil
}
