package detect

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/llm"
)

type fakeVerifier struct {
	verdict Verdict
	err     error
	calls   int
	block   bool
}

func (f *fakeVerifier) Verify(ctx context.Context, _ string, _ []conversation.Turn) (Verdict, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return Verdict{}, ctx.Err()
	}
	return f.verdict, f.err
}

func TestClassify_UrgentOTPBankMessage(t *testing.T) {
	res := New().Classify(context.Background(),
		"URGENT: Your account has been compromised, share your OTP immediately to bank@sbi-verify", nil)

	assert.True(t, res.IsScam)
	assert.Subset(t, res.Keywords, []string{"urgent", "otp", "account", "compromised"})
	assert.Contains(t, res.RedFlags, UrgencyPressure)
	assert.Contains(t, res.RedFlags, OTPRequest)
	assert.Equal(t, BankFraud, res.ScamType)
	assert.True(t, res.RuleBased())
}

func TestClassify_CashbackHandle(t *testing.T) {
	res := New().Classify(context.Background(),
		"Congratulations! You won Rs 5000 cashback, send Rs 99 to claim.prize@fakeupi", nil)

	assert.True(t, res.IsScam)
	assert.Contains(t, res.RedFlags, UnrealisticReward)
	assert.Contains(t, res.Patterns, PatternHandle)
	assert.NotContains(t, res.Patterns, PatternEmail)
	assert.Equal(t, LotteryFraud, res.ScamType)
}

func TestClassify_CleanMessage(t *testing.T) {
	res := New().Classify(context.Background(), "Hello, how are you today?", nil)
	assert.False(t, res.IsScam)
	assert.Empty(t, res.Keywords)
	assert.Empty(t, res.Patterns)
	assert.Empty(t, res.RedFlags)
	assert.Empty(t, res.ScamType)
}

func TestClassify_EachSubDecisionIsEnough(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"two keywords", "please confirm the deadline"},
		{"pattern only", "ping 9876543210"},
		{"red flag only", "transfer it back"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, New().Classify(context.Background(), tt.text, nil).IsScam)
		})
	}
	assert.False(t, New().Classify(context.Background(), "please confirm", nil).IsScam, "single keyword")
}

func TestClassify_VerifierOnlyWhenRulesNegative(t *testing.T) {
	v := &fakeVerifier{verdict: Verdict{Scam: true, Reason: "asks for a fee"}}
	c := New(WithVerifier(v, time.Second))

	res := c.Classify(context.Background(), "URGENT otp now", nil)
	assert.True(t, res.IsScam)
	assert.Zero(t, v.calls)
	assert.Empty(t, res.External)

	res = c.Classify(context.Background(), "Hello, how are you today?", nil)
	assert.Equal(t, 1, v.calls)
	assert.True(t, res.IsScam)
	assert.Equal(t, "llm: asks for a fee", res.External)
	assert.Empty(t, res.Keywords, "external reasons never enter the vocabulary set")
	assert.Equal(t, GenericFraud, res.ScamType)
	assert.False(t, res.RuleBased())
}

func TestClassify_VerifierReasonTruncated(t *testing.T) {
	v := &fakeVerifier{verdict: Verdict{Scam: true, Reason: strings.Repeat("x", 200)}}
	res := New(WithVerifier(v, time.Second)).Classify(context.Background(), "hi there", nil)
	assert.Equal(t, "llm: "+strings.Repeat("x", 80), res.External)
}

func TestClassify_VerifierFailureDegrades(t *testing.T) {
	for name, v := range map[string]*fakeVerifier{
		"error":   {err: errors.New("quota")},
		"timeout": {block: true},
		"no":      {verdict: Verdict{Scam: false, Reason: "friendly"}},
	} {
		t.Run(name, func(t *testing.T) {
			res := New(WithVerifier(v, 10*time.Millisecond)).Classify(context.Background(), "hi there", nil)
			assert.False(t, res.IsScam)
			assert.Empty(t, res.External)
			assert.Equal(t, 1, v.calls)
		})
	}
}

func TestClassify_TypeUsesWholeConversation(t *testing.T) {
	history := []conversation.Turn{
		{Origin: conversation.Counterpart, Text: "Your parcel is held at customs"},
		{Origin: conversation.Agent, Text: "Which parcel?"},
	}
	res := New().Classify(context.Background(), "Pay the declaration fee urgently", history)
	require.True(t, res.IsScam)
	assert.Equal(t, CustomsFraud, res.ScamType)
}

func TestScoreType(t *testing.T) {
	assert.Equal(t, GenericFraud, ScoreType(""))
	assert.Equal(t, GenericFraud, ScoreType("nothing to see"))
	assert.Equal(t, BankFraud, ScoreType("otp upi"), "tie goes to the earlier type")
	assert.Equal(t, JobFraud, ScoreType("work from home part time hiring"))
	assert.Len(t, Types(), 8)
}

func TestMatchRedFlags_Independent(t *testing.T) {
	flags := MatchRedFlags("URGENT! RBI officer here. Share OTP and PIN, pay the processing fee at https://x.io or face arrest. You won a prize!")
	assert.ElementsMatch(t, []RedFlag{
		UrgencyPressure, OTPRequest, MoneyTransferRequest, ThreatLegalAction,
		SuspiciousLink, SensitiveInfoRequest, AuthorityImpersonation, UnrealisticReward,
	}, flags)
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		in      string
		want    Verdict
		wantErr bool
	}{
		{"YES|fake bank", Verdict{Scam: true, Reason: "fake bank"}, false},
		{" yes | pressure ", Verdict{Scam: true, Reason: "pressure"}, false},
		{"NO|just a greeting", Verdict{Scam: false, Reason: "just a greeting"}, false},
		{"YES", Verdict{Scam: true, Reason: "YES"}, false},
		{"maybe", Verdict{}, true},
	}
	for _, tt := range tests {
		got, err := ParseVerdict(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

type scriptedLLM struct {
	reply    string
	err      error
	messages []llm.Message
}

func (s *scriptedLLM) Generate(_ context.Context, messages []llm.Message) (llm.Response, error) {
	s.messages = messages
	return llm.Response{Content: s.reply}, s.err
}

func TestLLMVerifier(t *testing.T) {
	client := &scriptedLLM{reply: "YES|requests an upfront fee"}
	v := NewLLMVerifier(client)

	var history []conversation.Turn
	for i := 0; i < 7; i++ {
		history = append(history, conversation.Turn{Origin: conversation.Counterpart, Text: "turn-" + string(rune('a'+i))})
	}
	got, err := v.Verify(context.Background(), "pay 500 first", history)
	require.NoError(t, err)
	assert.Equal(t, Verdict{Scam: true, Reason: "requests an upfront fee"}, got)

	require.Len(t, client.messages, 1)
	prompt := client.messages[0].Content
	assert.Contains(t, prompt, "pay 500 first")
	assert.Contains(t, prompt, "turn-g")
	assert.NotContains(t, prompt, "turn-b", "only the last five turns are sent")

	_, err = NewLLMVerifier(&scriptedLLM{err: errors.New("down")}).Verify(context.Background(), "x", nil)
	assert.Error(t, err)
	_, err = NewLLMVerifier(nil).Verify(context.Background(), "x", nil)
	assert.ErrorIs(t, err, llm.ErrUnavailable)
}
