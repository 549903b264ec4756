// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// =============================================================================
// STREAMING TYPES
// =============================================================================

// doneSentinel is the literal frame payload that ends a stream.
const doneSentinel = "[DONE]"

// StreamChunk is one parsed frame from the streaming chat endpoint.
//
// The backend emits two chunk kinds: incremental answer text
// ({"type":"text","content":"..."}) and a single trailing references
// chunk ({"type":"references","content":[...]}).
type StreamChunk struct {
	Type    string          `json:"type"`
	Content json.RawMessage `json:"content"`
}

// IsText reports whether the chunk carries answer text.
func (c *StreamChunk) IsText() bool {
	return c.Type == "text"
}

// Text returns the chunk's answer text, or "" for non-text chunks and
// content that is not a JSON string.
func (c *StreamChunk) Text() string {
	if !c.IsText() {
		return ""
	}
	var s string
	if err := json.Unmarshal(c.Content, &s); err != nil {
		return ""
	}
	return s
}

// References returns the chunk's reference list, or nil for non-reference
// chunks and content that does not parse.
func (c *StreamChunk) References() []model.Reference {
	if c.Type != "references" {
		return nil
	}
	var refs []model.Reference
	if err := json.Unmarshal(c.Content, &refs); err != nil {
		return nil
	}
	return refs
}

// StreamCallback is invoked for each parsed chunk, in wire order.
type StreamCallback func(chunk StreamChunk)

// StreamEvent is one element of the channel-based streaming sequence.
// Exactly one terminal event is delivered: either Err is non-nil, or
// Done is true.
type StreamEvent struct {
	Chunk StreamChunk
	Done  bool
	Err   error
}

// StreamError wraps an error that occurred mid-stream, preserving the
// answer text already received before the failure.
type StreamError struct {
	Partial string // Text received before the error
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses "data: <payload>" frames from a byte stream.
//
// bufio assembles complete lines from arbitrary read boundaries, so a
// multi-byte UTF-8 character split across network reads is never torn.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReader(r),
	}
}

// ReadFrame reads the next data frame payload from the stream.
// Lines without the "data:" prefix (blank separators, comments, other
// SSE fields) are skipped. Returns io.EOF when the stream ends.
func (s *SSEReader) ReadFrame() ([]byte, error) {
	for {
		line, err := s.reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF && len(bytes.TrimSpace(line)) > 0 {
				// A final unterminated line still counts as a frame.
				if data, ok := frameData(line); ok {
					return data, nil
				}
			}
			return nil, err
		}

		if data, ok := frameData(line); ok {
			return data, nil
		}
	}
}

// frameData extracts the payload from a "data:" line.
func frameData(line []byte) ([]byte, bool) {
	line = bytes.TrimRight(line, "\r\n")
	if len(line) == 0 {
		return nil, false
	}
	if data, ok := bytes.CutPrefix(line, []byte("data: ")); ok {
		return data, true
	}
	if data, ok := bytes.CutPrefix(line, []byte("data:")); ok {
		return bytes.TrimSpace(data), true
	}
	return nil, false
}

// =============================================================================
// STREAMING CHAT
// =============================================================================

// StreamMessage sends a chat message and consumes the streamed answer,
// invoking callback for each parsed chunk in wire order.
//
// The stream ends on the [DONE] sentinel; end-of-stream without a
// sentinel is also treated as normal completion. A frame whose payload
// fails to parse as JSON is dropped without error: the backend can split
// a frame across transport chunks, and a fragment is indistinguishable
// from a corrupt frame. Transport failures (connect error, non-success
// initial response, mid-stream read error) are returned exactly once.
func (c *Client) StreamMessage(ctx context.Context, sessionID, message string, callback StreamCallback) error {
	resp, err := c.openStream(ctx, sessionID, message)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return processStream(ctx, resp.Body, callback)
}

// StreamEvents sends a chat message and returns the streamed answer as a
// lazily produced sequence of events on a channel. The channel delivers
// chunks in wire order and is closed after exactly one terminal event
// (Done or Err). The sequence is finite and not restartable.
func (c *Client) StreamEvents(ctx context.Context, sessionID, message string) <-chan StreamEvent {
	events := make(chan StreamEvent)

	go func() {
		defer close(events)

		err := c.StreamMessage(ctx, sessionID, message, func(chunk StreamChunk) {
			select {
			case events <- StreamEvent{Chunk: chunk}:
			case <-ctx.Done():
			}
		})

		terminal := StreamEvent{Done: true}
		if err != nil {
			terminal = StreamEvent{Err: err}
		}
		select {
		case events <- terminal:
		case <-ctx.Done():
			// Receiver is gone; drop the terminal event.
		}
	}()

	return events
}

// openStream issues the streaming request and verifies the initial
// response status before any frame is read.
func (c *Client) openStream(ctx context.Context, sessionID, message string) (*http.Response, error) {
	reqBody := chatRequest{SessionID: sessionID, Message: message}
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.endpoint("api", "chat", "message", "stream"), bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
		resp.Body.Close()
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	return resp, nil
}

// processStream reads frames until the sentinel, EOF, or context
// cancellation. Malformed frames are skipped, never fatal.
func processStream(ctx context.Context, body io.Reader, callback StreamCallback) error {
	reader := NewSSEReader(body)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		data, err := reader.ReadFrame()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		if string(data) == doneSentinel {
			return nil
		}

		var chunk StreamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			// Skip malformed frames
			continue
		}

		callback(chunk)
	}
}

// =============================================================================
// STREAM ACCUMULATOR
// =============================================================================

// StreamAccumulator collects streamed chunks into a final answer.
type StreamAccumulator struct {
	// strings.Builder avoids quadratic allocations while streaming
	text strings.Builder
	refs []model.Reference
}

// Add processes one chunk.
func (a *StreamAccumulator) Add(chunk StreamChunk) {
	if chunk.IsText() {
		a.text.WriteString(chunk.Text())
		return
	}
	if refs := chunk.References(); refs != nil {
		a.refs = refs
	}
}

// Text returns the accumulated answer text.
func (a *StreamAccumulator) Text() string {
	return a.text.String()
}

// References returns the references delivered at the end of the stream.
func (a *StreamAccumulator) References() []model.Reference {
	return a.refs
}

// Message builds the final assistant message from the accumulated stream.
func (a *StreamAccumulator) Message() model.Message {
	return model.NewAssistantMessage(a.text.String(), a.refs)
}
