// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat orchestrates a conversation against the backend: message
// history, send gating, and assembly of streamed answers.
package chat

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/jeranaias/pdfchat-tui/internal/api"
	"github.com/jeranaias/pdfchat-tui/internal/model"
)

// Package-level errors.
var (
	// ErrEmptyMessage is returned when the message is blank or whitespace.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrNoSession is returned when no session is attached.
	ErrNoSession = errors.New("no active session")

	// ErrBusy is returned while a previous send is still in flight.
	ErrBusy = errors.New("a message is already in flight")
)

// =============================================================================
// CONVERSATION
// =============================================================================

// Conversation holds the append-only message history for one session and
// serializes sends: at most one message is in flight at a time.
//
// All methods are safe for concurrent use.
type Conversation struct {
	mu sync.Mutex

	client    *api.Client
	sessionID string

	messages []model.Message
	inFlight bool

	// lastErr is the most recent send failure, cleared by the next
	// successful send.
	lastErr error
}

// NewConversation creates a conversation bound to a session.
// The session ID may be empty and attached later via SetSession.
func NewConversation(client *api.Client, sessionID string) *Conversation {
	return &Conversation{
		client:    client,
		sessionID: sessionID,
	}
}

// SetSession attaches the conversation to a session and clears history.
func (c *Conversation) SetSession(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessionID = sessionID
	c.messages = nil
	c.lastErr = nil
}

// SessionID returns the attached session ID.
func (c *Conversation) SessionID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionID
}

// =============================================================================
// HISTORY
// =============================================================================

// History returns a snapshot copy of the message history, oldest first.
func (c *Conversation) History() []model.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	msgs := make([]model.Message, len(c.messages))
	copy(msgs, c.messages)
	return msgs
}

// Len returns the number of messages in the local history.
func (c *Conversation) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.messages)
}

// LastError returns the most recent send failure, or nil.
func (c *Conversation) LastError() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// InFlight reports whether a send is currently in progress.
func (c *Conversation) InFlight() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inFlight
}

// Clear clears the server-side history and then the local one.
// Documents in the session are unaffected.
func (c *Conversation) Clear(ctx context.Context) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return ErrNoSession
	}

	if err := c.client.ClearHistory(ctx, sessionID); err != nil {
		return err
	}

	c.mu.Lock()
	c.messages = nil
	c.lastErr = nil
	c.mu.Unlock()
	return nil
}

// LoadHistory replaces the local history with the server's record, up to
// limit messages (0 for the server default). Used when resuming a session.
func (c *Conversation) LoadHistory(ctx context.Context, limit int) error {
	c.mu.Lock()
	sessionID := c.sessionID
	c.mu.Unlock()
	if sessionID == "" {
		return ErrNoSession
	}

	history, err := c.client.History(ctx, sessionID, limit)
	if err != nil {
		return err
	}

	msgs := make([]model.Message, 0, len(history.Messages))
	for _, hm := range history.Messages {
		switch model.Role(hm.Role) {
		case model.RoleUser:
			msgs = append(msgs, model.NewUserMessage(hm.Content))
		case model.RoleAssistant:
			msgs = append(msgs, model.NewAssistantMessage(hm.Content, hm.References))
		default:
			msgs = append(msgs, model.NewSystemMessage(hm.Content))
		}
	}

	c.mu.Lock()
	c.messages = msgs
	c.mu.Unlock()
	return nil
}

// =============================================================================
// SENDING
// =============================================================================

// begin validates and claims the in-flight slot, appending the user
// message optimistically. The returned message is the appended user turn.
func (c *Conversation) begin(message string) (model.Message, string, error) {
	if strings.TrimSpace(message) == "" {
		return model.Message{}, "", ErrEmptyMessage
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID == "" {
		return model.Message{}, "", ErrNoSession
	}
	if c.inFlight {
		return model.Message{}, "", ErrBusy
	}

	c.inFlight = true
	user := model.NewUserMessage(message)
	c.messages = append(c.messages, user)
	return user, c.sessionID, nil
}

// finish releases the in-flight slot and records the outcome.
func (c *Conversation) finish(assistant *model.Message, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inFlight = false
	c.lastErr = err
	if err == nil && assistant != nil {
		c.messages = append(c.messages, *assistant)
	}
}

// Send sends a message and waits for the complete answer.
//
// The user message is appended to history before the request; on success
// the assistant answer (with references) follows it. On failure the user
// message stays in history and the error is recorded as LastError. The
// in-flight flag is cleared on every path.
func (c *Conversation) Send(ctx context.Context, message string) (model.Message, error) {
	_, sessionID, err := c.begin(message)
	if err != nil {
		return model.Message{}, err
	}

	var assistant *model.Message
	defer func() { c.finish(assistant, err) }()

	answer, err := c.client.SendMessage(ctx, sessionID, message)
	if err != nil {
		return model.Message{}, err
	}

	msg := model.NewAssistantMessage(answer.Answer, answer.References)
	assistant = &msg
	return msg, nil
}

// SendStream sends a message and streams the answer, invoking onChunk for
// each frame in wire order. The final assistant message is assembled from
// the streamed text and the trailing references chunk, then appended to
// history. Gating and error handling match Send.
func (c *Conversation) SendStream(ctx context.Context, message string, onChunk api.StreamCallback) (model.Message, error) {
	_, sessionID, err := c.begin(message)
	if err != nil {
		return model.Message{}, err
	}

	var assistant *model.Message
	defer func() { c.finish(assistant, err) }()

	var acc api.StreamAccumulator
	err = c.client.StreamMessage(ctx, sessionID, message, func(chunk api.StreamChunk) {
		acc.Add(chunk)
		if onChunk != nil {
			onChunk(chunk)
		}
	})
	if err != nil {
		if acc.Text() != "" {
			err = &api.StreamError{Partial: acc.Text(), Err: err}
		}
		return model.Message{}, err
	}

	msg := acc.Message()
	assistant = &msg
	return msg, nil
}
