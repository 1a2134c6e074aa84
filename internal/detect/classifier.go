// Package detect decides whether a message is part of a scam, which kind
// of scam it is and which manipulation tactics it uses.
package detect

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/extract"
)

// Pattern names reported in Result.Patterns.
const (
	PatternAccountNumber = "bank_account_number"
	PatternHandle        = "upi_id"
	PatternLink          = "url"
	PatternPhone         = "phone_number"
	PatternEmail         = "email_address"
)

const externalReasonLimit = 80

// Result is the verdict for one inbound message.
type Result struct {
	IsScam   bool
	Keywords []string
	Patterns []string
	RedFlags []RedFlag
	// ScamType is empty unless IsScam is set.
	ScamType Type
	// External holds the provenance-tagged reason given by the external
	// verifier, e.g. "llm: asks for a fee". Empty when the verifier was not
	// consulted or said no.
	External string
}

// RuleBased reports whether the rule checks alone flagged the message.
func (r Result) RuleBased() bool { return r.IsScam && r.External == "" }

// Verdict is what an external verifier returns.
type Verdict struct {
	Scam   bool
	Reason string
}

// Verifier is a second opinion used only for messages the rules consider
// clean.
type Verifier interface {
	Verify(ctx context.Context, text string, history []conversation.Turn) (Verdict, error)
}

type Classifier struct {
	verifier Verifier
	timeout  time.Duration
	logger   *zap.Logger
}

type Option func(*Classifier)

// WithVerifier installs an external verifier. A nil verifier leaves the
// classifier purely rule based.
func WithVerifier(v Verifier, timeout time.Duration) Option {
	return func(c *Classifier) {
		c.verifier = v
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

func New(opts ...Option) *Classifier {
	c := &Classifier{timeout: 8 * time.Second, logger: zap.NewNop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// HasVerifier reports whether an external verifier is installed.
func (c *Classifier) HasVerifier() bool { return c.verifier != nil }

// Classify runs the keyword, pattern and red-flag checks on text. The
// message is a scam if any of them fires. History only feeds the scam-type
// scoring and the external verifier.
func (c *Classifier) Classify(ctx context.Context, text string, history []conversation.Turn) Result {
	res := Result{
		Keywords: MatchKeywords(text),
		Patterns: MatchPatterns(text),
		RedFlags: MatchRedFlags(text),
	}
	res.IsScam = len(res.Keywords) >= 2 || len(res.Patterns) > 0 || len(res.RedFlags) > 0

	if !res.IsScam && c.verifier != nil {
		if v, ok := c.consult(ctx, text, history); ok && v.Scam {
			res.IsScam = true
			res.External = "llm: " + truncate(strings.TrimSpace(v.Reason), externalReasonLimit)
		}
	}

	if res.IsScam {
		res.ScamType = ScoreType(conversation.Text(history, text))
	}
	return res
}

func (c *Classifier) consult(ctx context.Context, text string, history []conversation.Turn) (Verdict, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	v, err := c.verifier.Verify(ctx, text, history)
	if err != nil {
		c.logger.Debug("external verifier unavailable", zap.Error(err))
		return Verdict{}, false
	}
	return v, true
}

// MatchKeywords returns the vocabulary terms present in text, in
// vocabulary order.
func MatchKeywords(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	seen := make(map[string]bool)
	for _, kw := range scamTerms {
		if !seen[kw] && strings.Contains(lower, kw) {
			seen[kw] = true
			out = append(out, kw)
		}
	}
	return out
}

// MatchPatterns reports which structured indicators occur in text.
func MatchPatterns(text string) []string {
	var out []string
	if extract.DigitRun.MatchString(text) {
		out = append(out, PatternAccountNumber)
	}
	if len(extract.Handles(text)) > 0 {
		out = append(out, PatternHandle)
	}
	if len(extract.Links(text)) > 0 {
		out = append(out, PatternLink)
	}
	if len(extract.Phones(text)) > 0 {
		out = append(out, PatternPhone)
	}
	if len(extract.Emails(text)) > 0 {
		out = append(out, PatternEmail)
	}
	return out
}

// MatchRedFlags evaluates every red-flag rule independently.
func MatchRedFlags(text string) []RedFlag {
	lower := strings.ToLower(text)
	var out []RedFlag
	for _, r := range flagRules {
		if r.fires(lower, text) {
			out = append(out, r.flag)
		}
	}
	return out
}

// ScoreType counts, per category, how many of its terms occur in the
// lower-cased conversation text and returns the best category. It never
// returns an empty type.
func ScoreType(lower string) Type {
	best, bestScore := GenericFraud, 0
	for _, tt := range typeTaxonomy {
		score := 0
		for _, term := range tt.terms {
			if strings.Contains(lower, term) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = tt.typ, score
		}
	}
	return best
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
