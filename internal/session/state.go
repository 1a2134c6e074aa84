package session

import (
	"fmt"
	"slices"
	"time"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/extract"
)

// ReportState tracks the one-shot final report.
type ReportState int

const (
	ReportNone ReportState = iota
	ReportPending
	ReportSent
)

func (r ReportState) String() string {
	switch r {
	case ReportPending:
		return "pending"
	case ReportSent:
		return "sent"
	default:
		return "none"
	}
}

func (r ReportState) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ReportState) UnmarshalText(b []byte) error {
	switch string(b) {
	case "none", "":
		*r = ReportNone
	case "pending":
		*r = ReportPending
	case "sent":
		*r = ReportSent
	default:
		return fmt.Errorf("unknown report state %q", b)
	}
	return nil
}

// State is everything known about one conversation. Handlers mutate it
// only through Store.Do; everything else sees copies.
type State struct {
	ID            string
	Turns         []conversation.Turn
	Intelligence  extract.Intelligence
	ScamConfirmed bool
	// RuleHits counts turns the rule checks flagged on their own.
	RuleHits int
	ScamType detect.Type
	RedFlags []detect.RedFlag
	Keywords []string
	// External collects provenance-tagged verdicts from the external
	// verifier, kept apart from Keywords.
	External            []string
	QuestionsAsked      int
	ElicitationAttempts int
	Report              ReportState
	ReportAttempts      int
	CreatedAt           time.Time
	UpdatedAt           time.Time
	ReportedAt          time.Time
}

// Append records a turn.
func (s *State) Append(t conversation.Turn) {
	s.Turns = append(s.Turns, t)
}

// MergeIntelligence unions in into the accumulated indicators.
func (s *State) MergeIntelligence(in extract.Intelligence) {
	s.Intelligence = extract.Merge(s.Intelligence, in)
}

// ConfirmScam marks the conversation as a scam. The flag never goes back
// to false, and the first non-empty scam type sticks.
func (s *State) ConfirmScam(t detect.Type) {
	s.ScamConfirmed = true
	if s.ScamType == "" && t != "" {
		s.ScamType = t
	}
}

// AddRuleHit records a turn flagged by the rule checks.
func (s *State) AddRuleHit() { s.RuleHits++ }

// AddRedFlags unions flags in, keeping first-seen order.
func (s *State) AddRedFlags(flags ...detect.RedFlag) {
	for _, f := range flags {
		if !slices.Contains(s.RedFlags, f) {
			s.RedFlags = append(s.RedFlags, f)
		}
	}
}

// AddKeywords unions matched vocabulary terms in, keeping first-seen order.
func (s *State) AddKeywords(kws ...string) {
	for _, k := range kws {
		if k != "" && !slices.Contains(s.Keywords, k) {
			s.Keywords = append(s.Keywords, k)
		}
	}
}

func (s *State) AddExternal(reason string) {
	if reason != "" && !slices.Contains(s.External, reason) {
		s.External = append(s.External, reason)
	}
}

// RecordReply updates the counters for an outgoing persona reply.
func (s *State) RecordReply(asked, elicited bool) {
	if asked {
		s.QuestionsAsked++
	}
	if elicited {
		s.ElicitationAttempts++
	}
}

// CounterpartTurns counts turns written by the counterpart.
func (s *State) CounterpartTurns() int {
	n := 0
	for _, t := range s.Turns {
		if t.FromCounterpart() {
			n++
		}
	}
	return n
}

// Elapsed is the time between creation and now.
func (s *State) Elapsed(now time.Time) time.Duration {
	if s.CreatedAt.IsZero() || now.Before(s.CreatedAt) {
		return 0
	}
	return now.Sub(s.CreatedAt)
}

// Phase names the lifecycle stage of the conversation.
func (s *State) Phase() string {
	switch {
	case s.Report == ReportSent:
		return "report-sent"
	case s.Report == ReportPending:
		return "report-pending"
	case s.ScamConfirmed:
		return "scam-confirmed"
	case len(s.Turns) > 0:
		return "engaged"
	default:
		return "new"
	}
}

func (s *State) clone() State {
	c := *s
	c.Turns = slices.Clone(s.Turns)
	c.Intelligence = s.Intelligence.Clone()
	c.RedFlags = slices.Clone(s.RedFlags)
	c.Keywords = slices.Clone(s.Keywords)
	c.External = slices.Clone(s.External)
	return c
}
