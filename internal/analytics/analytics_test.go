package analytics

import (
	"strings"
	"testing"
	"time"

	"scam-honeypot/internal/storage"
)

func TestAnalyzeDailyLogs(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	events := []storage.Event{
		{
			Timestamp: testDate.Add(2 * time.Hour),
			SessionID: "a",
			Message:   "Hello",
			Reply:     "Hello, how can I help you today? May I know your name?",
			Source:    "template",
		},
		{
			Timestamp:    testDate.Add(3 * time.Hour),
			SessionID:    "a",
			Message:      "Your account is blocked, share OTP",
			Reply:        "Which branch are you calling from?",
			ScamDetected: true,
			ScamType:     "bank_fraud",
			RedFlags:     []string{"otp_request"},
			Source:       "generator",
		},
		{
			Timestamp:    testDate.Add(6 * time.Hour),
			SessionID:    "b",
			Message:      "Pay to claim.prize@fakeupi",
			Reply:        "Sorry, I'm having some trouble. Can you please repeat that?",
			ScamDetected: true,
			RedFlags:     []string{"unrealistic_reward", "otp_request"},
			Source:       "fallback",
		},
		{
			Timestamp: testDate.Add(7 * time.Hour),
			SessionID: "c",
			Message:   "hi there",
			Source:    "template",
		},
		// next day
		{
			Timestamp: testDate.AddDate(0, 0, 1),
			SessionID: "d",
			Message:   "tomorrow",
		},
		// bookkeeping without a message
		{
			Timestamp: testDate.Add(8 * time.Hour),
			SessionID: "a",
		},
	}

	stats := AnalyzeDailyLogs(events, testDate.Add(13*time.Hour))

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalTurns != 4 {
		t.Errorf("Expected 4 turns, got %d", stats.TotalTurns)
	}
	if stats.Sessions != 3 {
		t.Errorf("Expected 3 sessions, got %d", stats.Sessions)
	}
	if stats.ScamSessions != 2 {
		t.Errorf("Expected 2 scam sessions, got %d", stats.ScamSessions)
	}
	if stats.FallbackTurns != 1 {
		t.Errorf("Expected 1 fallback turn, got %d", stats.FallbackTurns)
	}
	if stats.ByScamType["bank_fraud"] != 1 || stats.ByScamType["unknown"] != 1 {
		t.Errorf("Unexpected scam types: %v", stats.ByScamType)
	}
	if stats.RedFlags["otp_request"] != 2 || stats.RedFlags["unrealistic_reward"] != 1 {
		t.Errorf("Unexpected red flags: %v", stats.RedFlags)
	}
	if stats.BySource["template"] != 2 {
		t.Errorf("Unexpected sources: %v", stats.BySource)
	}

	a, ok := stats.SessionStats["a"]
	if !ok {
		t.Fatal("Expected stats for session a")
	}
	if a.Turns != 2 || !a.Scam || a.ScamType != "bank_fraud" {
		t.Errorf("Unexpected session a stats: %+v", a)
	}
}

func TestAnalyzeDailyLogsEmptyData(t *testing.T) {
	testDate := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	stats := AnalyzeDailyLogs(nil, testDate)

	if stats.Date != "2024-01-15" {
		t.Errorf("Expected date '2024-01-15', got '%s'", stats.Date)
	}
	if stats.TotalTurns != 0 || stats.Sessions != 0 || stats.ScamSessions != 0 {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}

func TestGenerateReportSummary(t *testing.T) {
	stats := &DailyStats{
		Date:          "2024-01-15",
		TotalTurns:    5,
		Sessions:      2,
		ScamSessions:  1,
		FallbackTurns: 1,
		ByScamType:    map[string]int{"upi_fraud": 1},
		RedFlags:      map[string]int{"otp_request": 3, "urgency_pressure": 3, "suspicious_link": 1},
	}

	summary := stats.GenerateReportSummary()

	expectedStrings := []string{
		"2024-01-15",
		"Turns processed: 5",
		"Conversations: 2 (1 confirmed scams)",
		"Fallback replies: 1",
		"upi_fraud: 1",
		"otp_request: 3",
	}
	for _, expected := range expectedStrings {
		if !strings.Contains(summary, expected) {
			t.Errorf("Expected summary to contain '%s'. Summary: %s", expected, summary)
		}
	}

	// ties are broken by name, rarer flags come last
	otp := strings.Index(summary, "otp_request")
	urgency := strings.Index(summary, "urgency_pressure")
	link := strings.Index(summary, "suspicious_link")
	if !(otp < urgency && urgency < link) {
		t.Errorf("Unexpected ordering in summary: %s", summary)
	}
	if strings.Contains(summary, "Reply sources") {
		t.Errorf("Empty sections should be omitted: %s", summary)
	}
}

func TestToJSON(t *testing.T) {
	stats := &DailyStats{
		Date:       "2024-01-15",
		TotalTurns: 1,
		ByScamType: map[string]int{"phishing": 1},
		SessionStats: map[string]SessionStats{
			"s-1": {SessionID: "s-1", Turns: 1, Scam: true, ScamType: "phishing"},
		},
	}

	jsonStr, err := stats.ToJSON()
	if err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
	for _, want := range []string{"2024-01-15", `"phishing": 1`, `"session_id": "s-1"`} {
		if !strings.Contains(jsonStr, want) {
			t.Errorf("Expected JSON to contain %s, got: %s", want, jsonStr)
		}
	}
}
