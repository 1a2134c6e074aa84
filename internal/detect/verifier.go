package detect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/history"
	"scam-honeypot/internal/llm"
)

const verifierContextTurns = 5

const verifierPrompt = `You are an expert scam detection AI. Analyze the conversation context and the latest message.

Conversation context:
%s

Latest message:
%s

Is this a scam attempt? Consider urgency or pressure, requests for OTP, PIN, CVV or account details,
impersonation of a bank, RBI, government or police, promises of prizes, refunds or cashback,
threats of suspension, arrest or legal action, suspicious links or unusual payment requests.

Respond ONLY as: YES|<brief reason> or NO|<brief reason>`

var errMalformedVerdict = errors.New("malformed verdict")

// LLMVerifier asks a text generator for a YES/NO verdict.
type LLMVerifier struct {
	client llm.Client
}

var _ Verifier = (*LLMVerifier)(nil)

func NewLLMVerifier(client llm.Client) *LLMVerifier {
	return &LLMVerifier{client: client}
}

func (v *LLMVerifier) Verify(ctx context.Context, text string, turns []conversation.Turn) (Verdict, error) {
	if v.client == nil {
		return Verdict{}, llm.ErrUnavailable
	}
	prompt := fmt.Sprintf(verifierPrompt, history.Transcript(turns, verifierContextTurns), text)

	resp, err := v.client.Generate(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}})
	if err != nil {
		return Verdict{}, fmt.Errorf("verify: %w", err)
	}
	return ParseVerdict(resp.Content)
}

// ParseVerdict reads a "YES|reason" or "NO|reason" answer.
func ParseVerdict(answer string) (Verdict, error) {
	answer = strings.TrimSpace(answer)
	head, reason, found := strings.Cut(answer, "|")
	head = strings.ToUpper(strings.TrimSpace(head))
	if !found {
		reason = answer
	}
	switch {
	case strings.HasPrefix(head, "YES"):
		return Verdict{Scam: true, Reason: strings.TrimSpace(reason)}, nil
	case strings.HasPrefix(head, "NO"):
		return Verdict{Scam: false, Reason: strings.TrimSpace(reason)}, nil
	default:
		return Verdict{}, fmt.Errorf("%w: %q", errMalformedVerdict, truncate(answer, 40))
	}
}
