// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// streamServer returns a test server that writes the given raw bytes as
// the streaming response body.
func streamServer(t *testing.T, raw string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/message/stream" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, raw)
	}))
}

func collectChunks(t *testing.T, client *Client, sessionID, message string) ([]StreamChunk, error) {
	t.Helper()
	var chunks []StreamChunk
	err := client.StreamMessage(context.Background(), sessionID, message, func(chunk StreamChunk) {
		chunks = append(chunks, chunk)
	})
	return chunks, err
}

// =============================================================================
// FRAME PARSING
// =============================================================================

func TestStreamChunksInOrder(t *testing.T) {
	raw := "data: {\"type\":\"text\",\"content\":\"Hello\"}\n" +
		"data: {\"type\":\"text\",\"content\":\", world\"}\n" +
		"data: {\"type\":\"references\",\"content\":[{\"document_name\":\"paper.pdf\",\"page_number\":3}]}\n" +
		"data: [DONE]\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	chunks, err := collectChunks(t, client, "sess-1", "hi")
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}

	if len(chunks) != 3 {
		t.Fatalf("got %d chunks, want 3", len(chunks))
	}
	if chunks[0].Text() != "Hello" || chunks[1].Text() != ", world" {
		t.Errorf("text chunks = %q, %q", chunks[0].Text(), chunks[1].Text())
	}
	refs := chunks[2].References()
	if len(refs) != 1 || refs[0].DocumentName != "paper.pdf" || refs[0].PageNumber != 3 {
		t.Errorf("references = %+v", refs)
	}
}

func TestStreamStopsAtSentinel(t *testing.T) {
	// Frames after [DONE] must never reach the callback.
	raw := "data: {\"type\":\"text\",\"content\":\"a\"}\n" +
		"data: [DONE]\n" +
		"data: {\"type\":\"text\",\"content\":\"after\"}\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	chunks, err := collectChunks(t, client, "sess-1", "hi")
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text() != "a" {
		t.Errorf("chunks = %+v, want just the pre-sentinel chunk", chunks)
	}
}

func TestStreamMalformedFrameSkipped(t *testing.T) {
	raw := "data: {\"type\":\"text\",\"content\":\"ok\"}\n" +
		"data: {\"type\":\"text\",\"cont\n" + // fragmented frame
		"data: {\"type\":\"text\",\"content\":\"still ok\"}\n" +
		"data: [DONE]\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	chunks, err := collectChunks(t, client, "sess-1", "hi")
	if err != nil {
		t.Fatalf("malformed frame must not be fatal: %v", err)
	}
	if len(chunks) != 2 {
		t.Fatalf("got %d chunks, want 2 (malformed skipped)", len(chunks))
	}
	if chunks[0].Text() != "ok" || chunks[1].Text() != "still ok" {
		t.Errorf("chunks = %q, %q", chunks[0].Text(), chunks[1].Text())
	}
}

func TestStreamEOFWithoutSentinelCompletes(t *testing.T) {
	raw := "data: {\"type\":\"text\",\"content\":\"partial\"}\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	chunks, err := collectChunks(t, client, "sess-1", "hi")
	if err != nil {
		t.Fatalf("EOF without sentinel should complete normally: %v", err)
	}
	if len(chunks) != 1 {
		t.Errorf("got %d chunks, want 1", len(chunks))
	}
}

func TestStreamSkipsNonDataLines(t *testing.T) {
	raw := ": comment\n" +
		"\n" +
		"event: message\n" +
		"data: {\"type\":\"text\",\"content\":\"x\"}\n" +
		"\n" +
		"data: [DONE]\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	chunks, err := collectChunks(t, client, "sess-1", "hi")
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text() != "x" {
		t.Errorf("chunks = %+v", chunks)
	}
}

func TestStreamMultibyteContent(t *testing.T) {
	raw := "data: {\"type\":\"text\",\"content\":\"日本語のテキスト\"}\n" +
		"data: [DONE]\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	chunks, err := collectChunks(t, client, "sess-1", "hi")
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}
	if len(chunks) != 1 || chunks[0].Text() != "日本語のテキスト" {
		t.Errorf("multibyte content corrupted: %q", chunks[0].Text())
	}
}

// =============================================================================
// ERROR PATHS
// =============================================================================

func TestStreamNonOKResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"detail": "No documents uploaded"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	calls := 0
	err := client.StreamMessage(context.Background(), "sess-1", "hi", func(chunk StreamChunk) {
		calls++
	})
	if err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 0 {
		t.Errorf("callback invoked %d times after failed open", calls)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Detail != "No documents uploaded" {
		t.Errorf("err = %v, want APIError with server detail", err)
	}
}

func TestStreamContextCancellation(t *testing.T) {
	blocked := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"type\":\"text\",\"content\":\"a\"}\n")
		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}
		<-blocked
	}))
	defer server.Close()
	defer close(blocked)

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(server.URL)

	done := make(chan error, 1)
	go func() {
		done <- client.StreamMessage(ctx, "sess-1", "hi", func(chunk StreamChunk) {
			cancel()
		})
	}()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("stream did not stop after cancellation")
	}
}

// =============================================================================
// CHANNEL SEQUENCE
// =============================================================================

func TestStreamEvents(t *testing.T) {
	raw := "data: {\"type\":\"text\",\"content\":\"one\"}\n" +
		"data: {\"type\":\"text\",\"content\":\"two\"}\n" +
		"data: [DONE]\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	var texts []string
	var terminal StreamEvent
	terminalCount := 0

	for event := range client.StreamEvents(context.Background(), "sess-1", "hi") {
		if event.Done || event.Err != nil {
			terminal = event
			terminalCount++
			continue
		}
		texts = append(texts, event.Chunk.Text())
	}

	if strings.Join(texts, "|") != "one|two" {
		t.Errorf("texts = %v", texts)
	}
	if terminalCount != 1 || !terminal.Done || terminal.Err != nil {
		t.Errorf("terminal = %+v (count %d), want single Done event", terminal, terminalCount)
	}
}

func TestStreamEventsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		io.WriteString(w, `{"detail": "Session gone"}`)
	}))
	defer server.Close()

	client := NewClient(server.URL)
	var events []StreamEvent
	for event := range client.StreamEvents(context.Background(), "sess-1", "hi") {
		events = append(events, event)
	}

	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 terminal error", len(events))
	}
	if events[0].Err == nil || !errors.Is(events[0].Err, ErrNotFound) {
		t.Errorf("terminal event = %+v", events[0])
	}
}

// =============================================================================
// ACCUMULATOR
// =============================================================================

func TestStreamAccumulator(t *testing.T) {
	raw := "data: {\"type\":\"text\",\"content\":\"The answer\"}\n" +
		"data: {\"type\":\"text\",\"content\":\" is 42.\"}\n" +
		"data: {\"type\":\"references\",\"content\":[{\"document_name\":\"guide.pdf\",\"page_number\":7}]}\n" +
		"data: [DONE]\n"
	server := streamServer(t, raw)
	defer server.Close()

	client := NewClient(server.URL)
	var acc StreamAccumulator
	err := client.StreamMessage(context.Background(), "sess-1", "hi", acc.Add)
	if err != nil {
		t.Fatalf("StreamMessage: %v", err)
	}

	if acc.Text() != "The answer is 42." {
		t.Errorf("accumulated = %q", acc.Text())
	}
	msg := acc.Message()
	if msg.Content != "The answer is 42." || len(msg.References) != 1 {
		t.Errorf("message = %+v", msg)
	}
	if msg.References[0].DocumentName != "guide.pdf" {
		t.Errorf("reference = %+v", msg.References[0])
	}
}

// SSEReader handles frames arriving without a trailing newline at EOF.
func TestSSEReaderUnterminatedFinalLine(t *testing.T) {
	reader := NewSSEReader(strings.NewReader("data: [DONE]"))
	data, err := reader.ReadFrame()
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if string(data) != "[DONE]" {
		t.Errorf("frame = %q", data)
	}
	if _, err := reader.ReadFrame(); err != io.EOF {
		t.Errorf("expected EOF, got %v", err)
	}
}
