// Package strategy picks the honeypot persona's next reply.
//
// The deterministic template path is self-sufficient. A text generator, if
// one is configured, is tried first and its output is used only when it is
// non-empty; either way the final reply is checked for an identity question.
package strategy

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/history"
	"scam-honeypot/internal/llm"
)

// Band is the persona behaviour for a range of turn indices.
type Band string

const (
	Confused    Band = "confused"
	Cooperative Band = "cooperative_questions"
	Stalling    Band = "stalling_with_elicitation"
	DeepProbing Band = "deep_probing"
)

// BandFor maps the number of prior turns to a band.
func BandFor(turn int) Band {
	switch {
	case turn <= 1:
		return Confused
	case turn <= 3:
		return Cooperative
	case turn <= 5:
		return Stalling
	default:
		return DeepProbing
	}
}

// Source says which path produced a reply.
type Source string

const (
	FromTemplate  Source = "template"
	FromGenerator Source = "generator"
)

// Request carries what the strategist may condition on.
type Request struct {
	Message  string
	Turn     int
	Scam     bool
	ScamType detect.Type
	RedFlags []detect.RedFlag
	// History holds the turns before Message.
	History []conversation.Turn
}

type Reply struct {
	Text   string
	Band   Band
	Source Source
}

// Picker returns an index in [0, n).
type Picker func(n int) int

const defaultWindow = 8

type Strategist struct {
	gen     llm.Client
	persona string
	window  int
	timeout time.Duration
	logger  *zap.Logger

	mu   sync.Mutex
	pick Picker
}

type Option func(*Strategist)

// WithGenerator enables text generation. A nil client keeps the
// strategist on templates.
func WithGenerator(c llm.Client, timeout time.Duration) Option {
	return func(s *Strategist) {
		s.gen = c
		if timeout > 0 {
			s.timeout = timeout
		}
	}
}

// WithPersona replaces the default persona prompt.
func WithPersona(prompt string) Option {
	return func(s *Strategist) {
		if strings.TrimSpace(prompt) != "" {
			s.persona = prompt
		}
	}
}

func WithPicker(p Picker) Option {
	return func(s *Strategist) {
		if p != nil {
			s.pick = p
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Strategist) {
		if l != nil {
			s.logger = l
		}
	}
}

func New(opts ...Option) *Strategist {
	s := &Strategist{
		persona: DefaultPersona,
		window:  defaultWindow,
		timeout: 8 * time.Second,
		logger:  zap.NewNop(),
		pick:    rand.IntN,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Available reports whether a text generator is configured.
func (s *Strategist) Available() bool { return s.gen != nil }

// Reply produces the next persona message. It never fails.
func (s *Strategist) Reply(ctx context.Context, req Request) Reply {
	band := BandFor(req.Turn)
	if !req.Scam {
		return Reply{Text: neutralGreeting, Band: band, Source: FromTemplate}
	}
	if s.gen != nil {
		text, err := s.generate(ctx, req, band)
		if err == nil {
			return Reply{Text: s.ensureElicitation(text), Band: band, Source: FromGenerator}
		}
		s.logger.Debug("generator fallback to templates", zap.Error(err), zap.String("band", string(band)))
	}
	return Reply{Text: s.Template(req), Band: band, Source: FromTemplate}
}

// Template builds a reply from the canned pools.
func (s *Strategist) Template(req Request) string {
	if !req.Scam {
		return neutralGreeting
	}
	lower := strings.ToLower(req.Message)
	has := func(cues []string) bool {
		for _, c := range cues {
			if strings.Contains(lower, c) {
				return true
			}
		}
		return false
	}

	var parts []string
	switch BandFor(req.Turn) {
	case Confused:
		parts = append(parts, s.choose(confusedLines), s.choose(elicitationLines))
	case Cooperative:
		parts = append(parts, s.choose(cooperativeLines))
		switch {
		case has(linkCues):
			parts = append(parts, s.choose(linkSkepticLines))
		case has(contactCues):
			parts = append(parts, s.choose(phoneProbeLines))
		default:
			parts = append(parts, s.typedProbe(req.ScamType))
		}
	case Stalling:
		parts = append(parts, s.choose(stallingLines))
		if has(urgencyCues) {
			parts = append(parts, s.choose(redFlagLines))
		} else {
			parts = append(parts, s.choose(elicitationLines))
		}
	default:
		switch {
		case has(secretCues):
			parts = append(parts, s.choose(redFlagLines), identityDemand)
		case has(linkCues):
			parts = append(parts, s.choose(linkSkepticLines), s.choose(elicitationLines))
		case has(moneyCues):
			parts = append(parts, moneyPushback, s.choose(phoneProbeLines))
		default:
			parts = append(parts, s.choose(cooperativeLines), s.typedProbe(req.ScamType))
		}
	}
	return s.ensureElicitation(strings.Join(parts, " "))
}

func (s *Strategist) typedProbe(t detect.Type) string {
	if pool, ok := typeProbeLines[t]; ok {
		return s.choose(pool)
	}
	return s.choose(elicitationLines)
}

func (s *Strategist) choose(pool []string) string {
	s.mu.Lock()
	i := s.pick(len(pool))
	s.mu.Unlock()
	if i < 0 || i >= len(pool) {
		i = 0
	}
	return pool[i]
}

// ensureElicitation appends an identity question to any reply that asks
// something without asking who the counterpart is.
func (s *Strategist) ensureElicitation(text string) string {
	text = strings.TrimSpace(text)
	if !AsksQuestion(text) || Elicits(text) {
		return text
	}
	return text + " " + s.choose(identityFollowUps)
}

var identityFollowUps = []string{
	"Also, what is your employee ID?",
	"And what is your callback number, in case the line drops?",
	"Also, may I know your name and your supervisor's name?",
	"What is the reference number for this, so I can note it down?",
}

func (s *Strategist) generate(ctx context.Context, req Request, band Band) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msgs := []llm.Message{{Role: llm.RoleSystem, Content: s.systemPrompt(req, band)}}
	msgs = append(msgs, history.Window(req.History, s.window)...)
	msgs = append(msgs, llm.Message{Role: llm.RoleUser, Content: req.Message})

	resp, err := s.gen.Generate(ctx, msgs)
	if err != nil {
		return "", err
	}
	text := strings.TrimSpace(resp.Content)
	if text == "" {
		return "", llm.ErrUnavailable
	}
	return text, nil
}

func (s *Strategist) systemPrompt(req Request, band Band) string {
	var b strings.Builder
	b.WriteString(s.persona)
	fmt.Fprintf(&b, "\n\nSTRATEGY FOR THIS TURN: %s", directives[band])
	if req.ScamType != "" {
		fmt.Fprintf(&b, "\nThis appears to be a %s scam.", req.ScamType)
	}
	if len(req.RedFlags) > 0 {
		flags := make([]string, len(req.RedFlags))
		for i, f := range req.RedFlags {
			flags[i] = string(f)
		}
		fmt.Fprintf(&b, "\nRed flags in their message: %s", strings.Join(flags, ", "))
	}
	return b.String()
}

// AsksQuestion reports whether text contains a question mark.
func AsksQuestion(text string) bool { return strings.Contains(text, "?") }

// Elicits reports whether text asks for identity-verifying details.
func Elicits(text string) bool {
	lower := strings.ToLower(text)
	for _, p := range elicitationPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
