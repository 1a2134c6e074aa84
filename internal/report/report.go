// Package report builds the final intelligence report of a conversation and
// delivers it exactly once.
package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/extract"
	"scam-honeypot/internal/session"
)

// Report is the payload posted to the evaluation endpoint.
type Report struct {
	SessionID                 string               `json:"sessionId"`
	ScamDetected              bool                 `json:"scamDetected"`
	TotalMessagesExchanged    int                  `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64                `json:"engagementDurationSeconds"`
	ExtractedIntelligence     extract.Intelligence `json:"extractedIntelligence"`
	AgentNotes                string               `json:"agentNotes"`
	ScamType                  detect.Type          `json:"scamType,omitempty"`
	ConfidenceLevel           float64              `json:"confidenceLevel"`
}

const (
	notesListLimit = 5
	maxConfidence  = 0.99
)

// Build derives the report from a state snapshot. Intelligence is
// re-extracted from every recorded counterpart turn and unioned with what
// was accumulated turn by turn.
func Build(st session.State, now time.Time) Report {
	intel := extract.Merge(st.Intelligence, extract.FromTurns(st.Turns))
	return Report{
		SessionID:                 st.ID,
		ScamDetected:              st.ScamConfirmed,
		TotalMessagesExchanged:    len(st.Turns),
		EngagementDurationSeconds: int64(st.Elapsed(now) / time.Second),
		ExtractedIntelligence:     intel,
		AgentNotes:                Notes(st),
		ScamType:                  st.ScamType,
		ConfidenceLevel:           Confidence(st, intel),
	}
}

// Notes renders the free-text summary, e.g.
// "[BANK_FRAUD] Engaged scammer over 6 messages. Keywords: otp, urgent. Red flags: otp_request."
func Notes(st session.State) string {
	var b strings.Builder
	if st.ScamType != "" {
		fmt.Fprintf(&b, "[%s] ", strings.ToUpper(string(st.ScamType)))
	}
	if st.ScamConfirmed {
		fmt.Fprintf(&b, "Engaged scammer over %d messages", len(st.Turns))
	} else {
		fmt.Fprintf(&b, "No scam confirmed after %d messages", len(st.Turns))
	}
	fmt.Fprintf(&b, ", asked %d questions (%d identity probes).", st.QuestionsAsked, st.ElicitationAttempts)
	if len(st.Keywords) > 0 {
		fmt.Fprintf(&b, " Keywords: %s.", strings.Join(first(st.Keywords, notesListLimit), ", "))
	}
	if len(st.External) > 0 {
		fmt.Fprintf(&b, " Verifier: %s.", st.External[0])
	}
	if len(st.RedFlags) > 0 {
		flags := make([]string, len(st.RedFlags))
		for i, f := range st.RedFlags {
			flags[i] = string(f)
		}
		fmt.Fprintf(&b, " Red flags: %s.", strings.Join(first(flags, notesListLimit), ", "))
	}
	return b.String()
}

// Confidence scores the evidence behind the verdict: 0.5 for a scam the
// rules flagged (0.3 when only the external verifier did), plus 0.05 per
// red flag and per non-empty intelligence category, capped at 0.99.
func Confidence(st session.State, intel extract.Intelligence) float64 {
	if !st.ScamConfirmed {
		return 0
	}
	c := 0.3
	if st.RuleHits > 0 {
		c = 0.5
	}
	c += 0.05 * float64(len(st.RedFlags)+intel.Categories())
	// two decimals keep the payload stable across float noise
	return math.Min(maxConfidence, math.Round(c*100)/100)
}

func first(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
