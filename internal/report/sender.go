package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Sender delivers a report. A nil error means the receiver accepted it.
type Sender interface {
	Send(ctx context.Context, r Report) error
}

// HTTPSender posts reports as JSON.
type HTTPSender struct {
	URL  string
	HTTP *http.Client
}

var _ Sender = (*HTTPSender)(nil)

func NewHTTPSender(url string, timeout time.Duration) *HTTPSender {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPSender{URL: url, HTTP: &http.Client{Timeout: timeout}}
}

func (s *HTTPSender) Send(ctx context.Context, r Report) error {
	if s.URL == "" {
		return fmt.Errorf("missing callback url")
	}
	client := s.HTTP
	if client == nil {
		client = http.DefaultClient
	}

	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("callback request: %w", err)
	}
	defer res.Body.Close()

	switch res.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted:
		_, _ = io.Copy(io.Discard, res.Body)
		return nil
	}
	snippet, _ := io.ReadAll(io.LimitReader(res.Body, 200))
	return fmt.Errorf("callback HTTP %d: %s", res.StatusCode, bytes.TrimSpace(snippet))
}

// LogSender writes reports to the log and always succeeds. It stands in
// when no callback URL is configured.
type LogSender struct {
	Logger *zap.Logger
}

var _ Sender = LogSender{}

func (s LogSender) Send(_ context.Context, r Report) error {
	if s.Logger == nil {
		return nil
	}
	s.Logger.Info("final report",
		zap.String("session_id", r.SessionID),
		zap.Bool("scam_detected", r.ScamDetected),
		zap.String("scam_type", string(r.ScamType)),
		zap.Int("messages", r.TotalMessagesExchanged),
		zap.Float64("confidence", r.ConfidenceLevel),
		zap.Any("intelligence", r.ExtractedIntelligence),
		zap.String("notes", r.AgentNotes),
	)
	return nil
}
