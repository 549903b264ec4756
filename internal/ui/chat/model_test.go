// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/pdfchat-tui/internal/model"
	"github.com/jeranaias/pdfchat-tui/internal/ui/components"
	"github.com/jeranaias/pdfchat-tui/internal/ui/styles"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := New(styles.NewTheme(), "http://localhost:8000", "test")
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = updated.(Model)
	updated, _ = m.Update(SessionStartedMsg{SessionID: "sess-1"})
	return updated.(Model)
}

// collectMsgs runs a command tree and gathers every produced message.
func collectMsgs(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collectMsgs(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func typeAndSubmit(m Model, text string) (Model, []tea.Msg) {
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), collectMsgs(cmd)
}

func findStreamRequest(msgs []tea.Msg) (StreamRequestMsg, bool) {
	for _, msg := range msgs {
		if req, ok := msg.(StreamRequestMsg); ok {
			return req, true
		}
	}
	return StreamRequestMsg{}, false
}

func TestSubmitEmitsStreamRequest(t *testing.T) {
	m, msgs := typeAndSubmit(newTestModel(t), "what is chapter 2 about?")

	req, ok := findStreamRequest(msgs)
	if !ok {
		t.Fatal("no StreamRequestMsg emitted")
	}
	if req.Content != "what is chapter 2 about?" {
		t.Errorf("request content = %q", req.Content)
	}
	if len(m.Messages()) != 1 || m.Messages()[0].Role != model.RoleUser {
		t.Errorf("expected optimistic user message, got %v", m.Messages())
	}
	if m.input.Value() != "" {
		t.Error("input not cleared after submit")
	}
}

func TestBlankSubmitIgnored(t *testing.T) {
	m, msgs := typeAndSubmit(newTestModel(t), "   ")
	if _, ok := findStreamRequest(msgs); ok {
		t.Error("blank input produced a stream request")
	}
	if len(m.Messages()) != 0 {
		t.Error("blank input appended a message")
	}
}

func TestSubmitWhileStreamingIgnored(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(StreamStartMsg{})
	m = updated.(Model)

	m, msgs := typeAndSubmit(m, "second question")
	if _, ok := findStreamRequest(msgs); ok {
		t.Error("submit during streaming produced a stream request")
	}
	if len(m.Messages()) != 0 {
		t.Error("submit during streaming appended a message")
	}
}

func TestStreamTokensAccumulate(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(StreamStartMsg{})
	m = updated.(Model)
	if m.State() != StateStreaming {
		t.Fatalf("state = %v, want streaming", m.State())
	}

	for _, tok := range []string{"The answer", " is", " 42."} {
		updated, _ = m.Update(StreamTokenMsg{Token: tok})
		m = updated.(Model)
	}
	if m.streamBuf != "The answer is 42." {
		t.Errorf("stream buffer = %q", m.streamBuf)
	}

	final := model.NewAssistantMessage("The answer is 42.", []model.Reference{
		{DocumentName: "report.pdf", PageNumber: 7},
	})
	updated, _ = m.Update(StreamCompleteMsg{Message: final})
	m = updated.(Model)

	if m.State() != StateReady {
		t.Errorf("state after complete = %v", m.State())
	}
	if m.streamBuf != "" {
		t.Error("stream buffer not cleared after completion")
	}
	if len(m.Messages()) != 1 || m.Messages()[0].Content != "The answer is 42." {
		t.Errorf("messages after complete = %v", m.Messages())
	}
}

// TestStreamSurvivesModelCopies drives the stream strictly through the
// tea.Model interface, the way the runtime does: every Update returns a
// fresh copy of the model value, and the view is rendered between tokens.
// Accumulation must keep working across those copies.
func TestStreamSurvivesModelCopies(t *testing.T) {
	var tm tea.Model = newTestModel(t)

	tm, _ = tm.Update(StreamStartMsg{})
	for _, tok := range []string{"Chapter 2", " covers", " revenue."} {
		tm, _ = tm.Update(StreamTokenMsg{Token: tok})
		tm.View() // renders the partial answer from the copied value
	}

	m := tm.(Model)
	if m.streamBuf != "Chapter 2 covers revenue." {
		t.Errorf("stream buffer after interface copies = %q", m.streamBuf)
	}
	if !strings.Contains(tm.View(), "Chapter 2 covers revenue.") {
		t.Error("in-progress answer missing from the rendered view")
	}
}

func TestStreamErrorShowsBannerAndKeepsPartial(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(StreamStartMsg{})
	m = updated.(Model)

	updated, _ = m.Update(StreamErrorMsg{
		Err:     errors.New("connection reset"),
		Partial: "half an answer",
	})
	m = updated.(Model)

	if !m.errBanner.IsVisible() {
		t.Fatal("error banner not shown")
	}
	if len(m.Messages()) != 1 || m.Messages()[0].Content != "half an answer" {
		t.Errorf("partial answer not preserved: %v", m.Messages())
	}

	// Escape dismisses the banner.
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	if m.errBanner.IsVisible() {
		t.Error("banner still visible after esc")
	}
}

func TestDocsUpdatedRefreshesStatus(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(DocsUpdatedMsg{Docs: []model.Document{
		{ID: "doc_1", Filename: "a.pdf", Status: model.StatusCompleted},
		{ID: "doc_2", Filename: "b.pdf", Status: model.StatusProcessing},
	}})
	m = updated.(Model)

	if m.statusBar.DocsReady != 1 || m.statusBar.DocsTotal != 2 {
		t.Errorf("doc counts = %d/%d", m.statusBar.DocsReady, m.statusBar.DocsTotal)
	}
	if m.statusBar.Status != components.StatusUploading {
		t.Errorf("status = %v, want uploading while processing", m.statusBar.Status)
	}

	updated, _ = m.Update(DocsUpdatedMsg{Docs: []model.Document{
		{ID: "doc_1", Filename: "a.pdf", Status: model.StatusCompleted},
		{ID: "doc_2", Filename: "b.pdf", Status: model.StatusCompleted},
	}})
	m = updated.(Model)
	if m.statusBar.Status != components.StatusReady {
		t.Errorf("status = %v, want ready once all terminal", m.statusBar.Status)
	}
}

func TestSlashCommands(t *testing.T) {
	m := newTestModel(t)

	m, msgs := typeAndSubmit(m, "/upload report.pdf notes.pdf")
	found := false
	for _, msg := range msgs {
		if up, ok := msg.(UploadRequestMsg); ok {
			found = true
			if len(up.Paths) != 2 || up.Paths[0] != "report.pdf" {
				t.Errorf("upload paths = %v", up.Paths)
			}
		}
	}
	if !found {
		t.Error("/upload did not emit UploadRequestMsg")
	}

	if m.showDocs {
		t.Fatal("docs panel unexpectedly visible")
	}
	m, _ = typeAndSubmit(m, "/docs")
	if !m.showDocs {
		t.Error("/docs did not toggle the panel")
	}

	m, msgs = typeAndSubmit(m, "/clear")
	cleared := false
	for _, msg := range msgs {
		if _, ok := msg.(ClearRequestMsg); ok {
			cleared = true
		}
	}
	if !cleared {
		t.Error("/clear did not emit ClearRequestMsg")
	}

	m, _ = typeAndSubmit(m, "/bogus")
	last := m.Messages()[len(m.Messages())-1]
	if last.Role != model.RoleSystem || !strings.Contains(last.Content, "unknown command") {
		t.Errorf("unexpected response to unknown command: %v", last)
	}
}

func TestFormatReference(t *testing.T) {
	tests := []struct {
		ref  model.Reference
		want string
	}{
		{model.Reference{DocumentName: "report.pdf", PageNumber: 3, Section: "Intro"}, "report.pdf, p.3 (Intro)"},
		{model.Reference{DocumentName: "report.pdf"}, "report.pdf"},
		{model.Reference{DocumentID: "doc_9", PageNumber: 1}, "doc_9, p.1"},
	}
	for _, tt := range tests {
		if got := formatReference(tt.ref); got != tt.want {
			t.Errorf("formatReference(%+v) = %q, want %q", tt.ref, got, tt.want)
		}
	}
}

func TestViewContainsTranscript(t *testing.T) {
	m := newTestModel(t)
	updated, _ := m.Update(HistoryLoadedMsg{Messages: []model.Message{
		model.NewUserMessage("what is this document?"),
		model.NewAssistantMessage("A quarterly report.", nil),
	}})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "what is this document?") {
		t.Errorf("view missing user message:\n%s", view)
	}
	if !strings.Contains(view, "pdfchat") {
		t.Error("view missing header")
	}
}
