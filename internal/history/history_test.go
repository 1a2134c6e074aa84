package history

import (
	"testing"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/llm"
)

func turns() []conversation.Turn {
	return []conversation.Turn{
		{Origin: conversation.Counterpart, Text: "your account is blocked"},
		{Origin: conversation.Agent, Text: "which account?"},
		{Origin: conversation.Counterpart, Text: "share otp"},
		{Origin: conversation.Agent, Text: "what is your employee id?"},
	}
}

func TestWindowRoles(t *testing.T) {
	msgs := Window(turns(), 0)
	if len(msgs) != 4 {
		t.Fatalf("want 4 messages, got %d", len(msgs))
	}
	if msgs[0].Role != llm.RoleUser || msgs[0].Content != "your account is blocked" {
		t.Fatalf("unexpected msgs[0]: %+v", msgs[0])
	}
	if msgs[1].Role != llm.RoleAssistant {
		t.Fatalf("agent turn must map to assistant, got %q", msgs[1].Role)
	}
}

func TestWindowTail(t *testing.T) {
	msgs := Window(turns(), 2)
	if len(msgs) != 2 {
		t.Fatalf("want 2 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "share otp" {
		t.Fatalf("window must keep the most recent turns, got %+v", msgs)
	}
	if got := Window(nil, 8); len(got) != 0 {
		t.Fatalf("empty history must give empty window, got %+v", got)
	}
}

func TestTranscript(t *testing.T) {
	got := Transcript(turns(), 2)
	want := "SCAMMER: share otp\nME: what is your employee id?"
	if got != want {
		t.Fatalf("transcript mismatch:\n got %q\nwant %q", got, want)
	}
}
