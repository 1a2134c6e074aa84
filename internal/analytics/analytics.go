// Package analytics summarises the transcript into daily engagement stats.
package analytics

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"scam-honeypot/internal/storage"
)

// DailyStats is the engagement summary of one UTC day.
type DailyStats struct {
	Date          string                  `json:"date"`
	TotalTurns    int                     `json:"total_turns"`
	Sessions      int                     `json:"sessions"`
	ScamSessions  int                     `json:"scam_sessions"`
	FallbackTurns int                     `json:"fallback_turns"`
	ByScamType    map[string]int          `json:"by_scam_type"`
	BySource      map[string]int          `json:"by_source"`
	RedFlags      map[string]int          `json:"red_flags"`
	SessionStats  map[string]SessionStats `json:"session_stats"`
}

// SessionStats is the per-conversation part of DailyStats.
type SessionStats struct {
	SessionID string `json:"session_id"`
	Turns     int    `json:"turns"`
	Scam      bool   `json:"scam"`
	ScamType  string `json:"scam_type,omitempty"`
}

// AnalyzeDailyLogs aggregates the events that fall on the day of
// targetDate.
func AnalyzeDailyLogs(events []storage.Event, targetDate time.Time) *DailyStats {
	startOfDay := time.Date(targetDate.Year(), targetDate.Month(), targetDate.Day(), 0, 0, 0, 0, targetDate.Location())
	endOfDay := startOfDay.Add(24 * time.Hour)

	stats := &DailyStats{
		Date:         startOfDay.Format("2006-01-02"),
		ByScamType:   make(map[string]int),
		BySource:     make(map[string]int),
		RedFlags:     make(map[string]int),
		SessionStats: make(map[string]SessionStats),
	}

	for _, event := range events {
		if event.Timestamp.Before(startOfDay) || !event.Timestamp.Before(endOfDay) {
			continue
		}
		// events without a counterpart message are bookkeeping
		if event.Message == "" || event.SessionID == "" {
			continue
		}
		stats.TotalTurns++
		if event.Source != "" {
			stats.BySource[event.Source]++
		}
		if event.Source == "fallback" {
			stats.FallbackTurns++
		}
		for _, f := range event.RedFlags {
			stats.RedFlags[f]++
		}

		ss, ok := stats.SessionStats[event.SessionID]
		if !ok {
			ss = SessionStats{SessionID: event.SessionID}
		}
		ss.Turns++
		if event.ScamDetected {
			ss.Scam = true
		}
		if ss.ScamType == "" && event.ScamType != "" {
			ss.ScamType = event.ScamType
		}
		stats.SessionStats[event.SessionID] = ss
	}

	stats.Sessions = len(stats.SessionStats)
	for _, ss := range stats.SessionStats {
		if !ss.Scam {
			continue
		}
		stats.ScamSessions++
		typ := ss.ScamType
		if typ == "" {
			typ = "unknown"
		}
		stats.ByScamType[typ]++
	}
	return stats
}

// GenerateReportSummary renders the stats as plain text for the log or a
// chat message.
func (ds *DailyStats) GenerateReportSummary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Honeypot activity for %s:\n\n", ds.Date)
	fmt.Fprintf(&b, "- Turns processed: %d\n", ds.TotalTurns)
	fmt.Fprintf(&b, "- Conversations: %d (%d confirmed scams)\n", ds.Sessions, ds.ScamSessions)
	if ds.FallbackTurns > 0 {
		fmt.Fprintf(&b, "- Fallback replies: %d\n", ds.FallbackTurns)
	}
	writeCounts(&b, "Scam types", ds.ByScamType)
	writeCounts(&b, "Red flags", ds.RedFlags)
	writeCounts(&b, "Reply sources", ds.BySource)
	return b.String()
}

func writeCounts(b *strings.Builder, title string, counts map[string]int) {
	if len(counts) == 0 {
		return
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	// most frequent first, then by name
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, k := range keys {
		fmt.Fprintf(b, "- %s: %d\n", k, counts[k])
	}
}

// ToJSON serialises the stats for detailed inspection.
func (ds *DailyStats) ToJSON() (string, error) {
	data, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
