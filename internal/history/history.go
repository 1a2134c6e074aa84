// Package history turns a recorded conversation into the context window
// handed to a text generator.
package history

import (
	"strings"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/llm"
)

// Tail returns the last n turns; n <= 0 means all of them.
func Tail(turns []conversation.Turn, n int) []conversation.Turn {
	if n <= 0 || len(turns) <= n {
		return turns
	}
	return turns[len(turns)-n:]
}

// Window maps the last n turns to chat messages. The counterpart speaks as
// the "user" role and the persona as "assistant", which is how chat models
// expect the side they play to be labelled.
func Window(turns []conversation.Turn, n int) []llm.Message {
	tail := Tail(turns, n)
	out := make([]llm.Message, 0, len(tail))
	for _, t := range tail {
		role := llm.RoleUser
		if t.Origin == conversation.Agent {
			role = llm.RoleAssistant
		}
		out = append(out, llm.Message{Role: role, Content: t.Text})
	}
	return out
}

// Transcript renders the last n turns as "SCAMMER: ..." / "ME: ..." lines.
func Transcript(turns []conversation.Turn, n int) string {
	var b strings.Builder
	for _, t := range Tail(turns, n) {
		if t.FromCounterpart() {
			b.WriteString("SCAMMER: ")
		} else {
			b.WriteString("ME: ")
		}
		b.WriteString(t.Text)
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
