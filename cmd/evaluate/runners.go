package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/honeypot"
	"scam-honeypot/internal/report"
	"scam-honeypot/internal/session"
	"scam-honeypot/internal/strategy"
)

// simClock is advanced by hand so engagement durations do not depend on
// how fast the engine is.
type simClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *simClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *simClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

type localRunner struct {
	gap time.Duration
}

func newLocalRunner(gap time.Duration) *localRunner { return &localRunner{gap: gap} }

func (r *localRunner) run(ctx context.Context, sc Scenario, onReply func(int, string)) (Observation, error) {
	clk := &simClock{t: time.Now()}
	store := session.NewStore(session.WithClock(clk.Now))
	d := report.NewDispatcher(store, report.LogSender{Logger: zap.NewNop()}, report.WithClock(clk.Now))
	defer func() { _ = d.Close(context.Background()) }()
	engine := honeypot.New(store, detect.New(), strategy.New(), d, honeypot.WithClock(clk.Now))

	var history []conversation.Turn
	for i, text := range sc.Turns {
		msg := conversation.Turn{Origin: conversation.Counterpart, Text: text, Timestamp: conversation.At(clk.Now())}
		res, err := engine.Process(ctx, honeypot.Inbound{
			SessionID: sc.SessionID,
			Message:   msg,
			History:   history,
			Metadata:  &honeypot.Metadata{Channel: "SMS", Language: "English", Locale: "IN"},
		})
		if err != nil {
			return Observation{}, err
		}
		onReply(i, res.Reply)
		clk.Advance(r.gap / 2)
		history = append(history, msg, conversation.Turn{Origin: conversation.Agent, Text: res.Reply, Timestamp: conversation.At(clk.Now())})
		clk.Advance(r.gap / 2)
	}

	final, err := engine.ForceReport(ctx, sc.SessionID)
	if err != nil && !errors.Is(err, honeypot.ErrAlreadySent) && !errors.Is(err, honeypot.ErrInFlight) {
		return Observation{}, err
	}
	view, _ := engine.SessionView(sc.SessionID)
	return Observation{Final: final, View: view}, nil
}

type remoteRunner struct {
	base   string
	key    string
	client *http.Client
}

func newRemoteRunner(base, key string) *remoteRunner {
	return &remoteRunner{base: base, key: key, client: &http.Client{Timeout: 30 * time.Second}}
}

func (r *remoteRunner) health(ctx context.Context) error {
	return r.call(ctx, http.MethodGet, "/health", nil, nil)
}

func (r *remoteRunner) run(ctx context.Context, sc Scenario, onReply func(int, string)) (Observation, error) {
	var history []conversation.Turn
	for i, text := range sc.Turns {
		msg := conversation.Turn{Origin: conversation.Counterpart, Text: text, Timestamp: conversation.At(time.Now())}
		in := honeypot.Inbound{
			SessionID: sc.SessionID,
			Message:   msg,
			History:   nonNilTurns(history),
			Metadata:  &honeypot.Metadata{Channel: "SMS", Language: "English", Locale: "IN"},
		}
		var resp struct {
			Reply string `json:"reply"`
		}
		if err := r.call(ctx, http.MethodPost, "/api/honeypot", in, &resp); err != nil {
			return Observation{}, fmt.Errorf("turn %d: %w", i+1, err)
		}
		onReply(i, resp.Reply)
		history = append(history, msg, conversation.Turn{Origin: conversation.Agent, Text: resp.Reply, Timestamp: conversation.At(time.Now())})
	}

	var final struct {
		FinalOutput report.Report `json:"finalOutput"`
	}
	if err := r.call(ctx, http.MethodPost, "/api/final?session_id="+url.QueryEscape(sc.SessionID), nil, &final); err != nil {
		return Observation{}, fmt.Errorf("final: %w", err)
	}
	var view honeypot.View
	if err := r.call(ctx, http.MethodGet, "/api/session/"+url.PathEscape(sc.SessionID), nil, &view); err != nil {
		return Observation{}, fmt.Errorf("session: %w", err)
	}
	return Observation{Final: final.FinalOutput, View: view}, nil
}

func (r *remoteRunner) call(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, r.base+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.key != "" {
		req.Header.Set("x-api-key", r.key)
	}
	res, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(res.Body, 200))
		return fmt.Errorf("HTTP %d: %s", res.StatusCode, bytes.TrimSpace(snippet))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(res.Body).Decode(out)
}

func nonNilTurns(t []conversation.Turn) []conversation.Turn {
	if t == nil {
		return []conversation.Turn{}
	}
	return t
}
