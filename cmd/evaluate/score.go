package main

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"

	"scam-honeypot/internal/honeypot"
	"scam-honeypot/internal/report"
)

// Observation is what a run produced for one scenario.
type Observation struct {
	Final report.Report
	View  honeypot.View
}

// Scorecard follows the hackathon rubric: 100 points per scenario.
type Scorecard struct {
	Detection    float64
	Extraction   float64
	Conversation float64
	Engagement   float64
	Structure    float64
	Details      []string
}

func (s Scorecard) Total() float64 {
	return s.Detection + s.Extraction + s.Conversation + s.Engagement + s.Structure
}

func score(sc Scenario, obs Observation) Scorecard {
	var card Scorecard
	fo := obs.Final

	if fo.ScamDetected {
		card.Detection = 20
	}

	extracted := intelFields(fo)
	total, matched := 0, 0
	fields := make([]string, 0, len(sc.Planted))
	for f := range sc.Planted {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	for _, f := range fields {
		planted := sc.Planted[f]
		total += len(planted)
		var hits []string
		for _, p := range planted {
			if matches(p, extracted[f]) {
				hits = append(hits, p)
			}
		}
		matched += len(hits)
		card.Details = append(card.Details, fmt.Sprintf("%s: %d/%d matched %v", f, len(hits), len(planted), hits))
	}
	if total > 0 {
		card.Extraction = round1(math.Min(30, float64(matched)*30/float64(total)))
	}

	v := obs.View
	card.Conversation = step(v.ConversationLength, 8, 8, 6, 6, 4, 3) +
		step(v.QuestionsAsked, 5, 4, 3, 2, 1, 1) +
		step(v.QuestionsAsked, 3, 3, 2, 2, 1, 1) +
		step(len(v.RedFlagsFound), 5, 8, 3, 5, 1, 2) +
		math.Min(7, round1(float64(v.ElicitationAttempts)*1.5))
	card.Details = append(card.Details, fmt.Sprintf("conversation: turns=%d questions=%d red_flags=%d elicitation=%d",
		v.ConversationLength, v.QuestionsAsked, len(v.RedFlagsFound), v.ElicitationAttempts))

	d, msgs := v.EngagementDurationSeconds, v.TotalMessagesExchanged
	eng := 0.0
	for _, c := range []struct {
		hit bool
		pts float64
	}{{d > 0, 1}, {d > 60, 2}, {d > 180, 1}, {msgs > 0, 2}, {msgs >= 5, 3}, {msgs >= 10, 1}} {
		if c.hit {
			eng += c.pts
		}
	}
	card.Engagement = math.Min(10, eng)
	card.Details = append(card.Details, fmt.Sprintf("engagement: duration=%ds msgs=%d", d, msgs))

	st := 2.0 // scamDetected is always encoded
	if fo.SessionID != "" {
		st += 2
	} else {
		st--
	}
	if len(extracted) > 0 {
		st += 2
	}
	if fo.TotalMessagesExchanged > 0 && fo.EngagementDurationSeconds > 0 {
		st++
	}
	if fo.AgentNotes != "" {
		st++
	}
	if fo.ScamType != "" {
		st++
	}
	if fo.ConfidenceLevel > 0 {
		st++
	}
	card.Structure = math.Max(0, st)
	return card
}

// step awards the points of the first threshold n reaches. Thresholds are
// given as (min, points) pairs, highest first.
func step(n int, pairs ...int) float64 {
	for i := 0; i+1 < len(pairs); i += 2 {
		if n >= pairs[i] {
			return float64(pairs[i+1])
		}
	}
	return 0
}

func intelFields(r report.Report) map[string][]string {
	raw, err := json.Marshal(r.ExtractedIntelligence)
	if err != nil {
		return nil
	}
	var out map[string][]string
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.ReplaceAll(s, "-", "")
	s = strings.ReplaceAll(s, "+91", "")
	return strings.TrimSpace(s)
}

func matches(planted string, got []string) bool {
	p := normalize(planted)
	for _, g := range got {
		e := normalize(g)
		if e == "" {
			continue
		}
		if strings.Contains(e, p) || strings.Contains(p, e) {
			return true
		}
	}
	return false
}

func round1(f float64) float64 { return math.Round(f*10) / 10 }
