// Package honeypot runs one inbound turn end to end: classification,
// extraction, reply selection, state update and report dispatch.
package honeypot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/extract"
	"scam-honeypot/internal/report"
	"scam-honeypot/internal/session"
	"scam-honeypot/internal/storage"
	"scam-honeypot/internal/strategy"
)

// FallbackReply is sent when a turn cannot be processed.
const FallbackReply = "Sorry, I'm having some trouble. Can you please repeat that?"

var ErrInvalidInput = errors.New("invalid input")

// Errors ForceReport may return besides delivery failures.
var (
	ErrNotFound    = session.ErrNotFound
	ErrAlreadySent = report.ErrAlreadySent
	ErrInFlight    = report.ErrInFlight
)

// Metadata describes where a conversation comes from.
type Metadata struct {
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Locale   string `json:"locale,omitempty"`
}

// Inbound is one counterpart message with the history the caller holds.
type Inbound struct {
	SessionID string              `json:"sessionId"`
	Message   conversation.Turn   `json:"message"`
	History   []conversation.Turn `json:"conversationHistory"`
	Metadata  *Metadata           `json:"metadata,omitempty"`
}

// Validate checks the fields the engine depends on.
func (in *Inbound) Validate() error {
	if strings.TrimSpace(in.SessionID) == "" {
		return fmt.Errorf("%w: sessionId is required", ErrInvalidInput)
	}
	if strings.TrimSpace(in.Message.Text) == "" {
		return fmt.Errorf("%w: message.text is required", ErrInvalidInput)
	}
	if in.Message.Origin != "" && !in.Message.Origin.Valid() {
		return fmt.Errorf("%w: unknown sender %q", ErrInvalidInput, in.Message.Origin)
	}
	for i, t := range in.History {
		if !t.Origin.Valid() {
			return fmt.Errorf("%w: conversationHistory[%d]: unknown sender %q", ErrInvalidInput, i, t.Origin)
		}
	}
	return nil
}

// Result is what the counterpart gets back for one turn.
type Result struct {
	Reply        string
	ScamDetected bool
	ScamType     detect.Type
	// RedFlags are the tactics seen in this message only.
	RedFlags     []detect.RedFlag
	Band         strategy.Band
	Source       string
	ReportQueued bool
}

// Observer receives per-turn measurements.
type Observer interface {
	ObserveTurn(scam bool, source string, took time.Duration)
	ObserveClassification(method string)
	SetActiveSessions(n int)
}

type Engine struct {
	store      *session.Store
	classifier *detect.Classifier
	strategist *strategy.Strategist
	dispatcher *report.Dispatcher
	recorder   storage.Recorder
	observer   Observer
	logger     *zap.Logger
	now        func() time.Time
}

type Option func(*Engine)

func WithRecorder(r storage.Recorder) Option {
	return func(e *Engine) {
		if r != nil {
			e.recorder = r
		}
	}
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

func New(store *session.Store, c *detect.Classifier, s *strategy.Strategist, d *report.Dispatcher, opts ...Option) *Engine {
	e := &Engine{
		store:      store,
		classifier: c,
		strategist: s,
		dispatcher: d,
		recorder:   storage.Nop{},
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

const sourceFallback = "fallback"

// Process handles one inbound turn. Only invalid input is reported as an
// error; any other failure degrades to FallbackReply.
func (e *Engine) Process(ctx context.Context, in Inbound) (res Result, err error) {
	if err := in.Validate(); err != nil {
		return Result{}, err
	}
	start := e.now()
	log := e.logger.With(zap.String("session_id", in.SessionID))

	defer func() {
		if r := recover(); r != nil {
			log.Error("turn failed, sending fallback reply", zap.Any("panic", r), zap.Stack("stack"))
			scam := false
			if st, ok := e.store.Get(in.SessionID); ok {
				scam = st.ScamConfirmed
			}
			res, err = Result{Reply: FallbackReply, ScamDetected: scam, Source: sourceFallback}, nil
		}
		e.record(in, res)
		if e.observer != nil {
			e.observer.ObserveTurn(res.ScamDetected, res.Source, e.now().Sub(start))
			e.observer.SetActiveSessions(e.store.Len())
		}
	}()

	msg := in.Message
	if msg.Origin == "" {
		msg.Origin = conversation.Counterpart
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = conversation.At(start)
	}

	snap := e.store.Do(in.SessionID, func(st *session.State) {
		prior := in.History
		if len(prior) == 0 {
			prior = st.Turns
		}

		verdict := e.classifier.Classify(ctx, msg.Text, prior)
		e.observeClassification(verdict)
		if verdict.IsScam {
			st.ConfirmScam(verdict.ScamType)
			st.AddRedFlags(verdict.RedFlags...)
			st.AddKeywords(verdict.Keywords...)
			if verdict.RuleBased() {
				st.AddRuleHit()
			} else {
				st.AddExternal(verdict.External)
			}
		}
		if msg.FromCounterpart() {
			st.MergeIntelligence(extract.Extract(msg.Text))
		}
		st.Append(msg)

		reply := e.strategist.Reply(ctx, strategy.Request{
			Message:  msg.Text,
			Turn:     len(prior),
			Scam:     st.ScamConfirmed,
			ScamType: st.ScamType,
			RedFlags: verdict.RedFlags,
			History:  prior,
		})
		// counters measure engagement with a confirmed scammer only
		if st.ScamConfirmed {
			st.RecordReply(strategy.AsksQuestion(reply.Text), strategy.Elicits(reply.Text))
		}
		st.Append(conversation.Turn{
			Origin:    conversation.Agent,
			Text:      reply.Text,
			Timestamp: conversation.At(e.now()),
		})

		res = Result{
			Reply:        reply.Text,
			ScamDetected: st.ScamConfirmed,
			ScamType:     st.ScamType,
			RedFlags:     verdict.RedFlags,
			Band:         reply.Band,
			Source:       string(reply.Source),
		}
	})

	if snap.ScamConfirmed && e.dispatcher != nil {
		_, res.ReportQueued = e.dispatcher.Offer(in.SessionID)
	}
	log.Debug("turn processed",
		zap.Bool("scam", res.ScamDetected),
		zap.String("scam_type", string(res.ScamType)),
		zap.String("band", string(res.Band)),
		zap.String("source", res.Source),
		zap.Int("turns", len(snap.Turns)),
		zap.Bool("report_queued", res.ReportQueued),
	)
	return res, nil
}

func (e *Engine) observeClassification(r detect.Result) {
	if e.observer == nil {
		return
	}
	switch {
	case r.RuleBased():
		e.observer.ObserveClassification("rules")
	case r.IsScam:
		e.observer.ObserveClassification("verifier")
	default:
		e.observer.ObserveClassification("clean")
	}
}

func (e *Engine) record(in Inbound, res Result) {
	ev := storage.Event{
		Timestamp:    e.now(),
		SessionID:    in.SessionID,
		Message:      in.Message.Text,
		Reply:        res.Reply,
		ScamDetected: res.ScamDetected,
		ScamType:     string(res.ScamType),
		Source:       res.Source,
	}
	if in.Metadata != nil {
		ev.Channel = in.Metadata.Channel
	}
	for _, f := range res.RedFlags {
		ev.RedFlags = append(ev.RedFlags, string(f))
	}
	if err := e.recorder.AppendInteraction(ev); err != nil {
		e.logger.Warn("transcript append failed", zap.Error(err), zap.String("session_id", in.SessionID))
	}
}

// ForceReport builds and delivers the final report for id now. An
// already-sent report yields report.ErrAlreadySent together with a fresh
// copy of what was reported.
func (e *Engine) ForceReport(ctx context.Context, id string) (report.Report, error) {
	if strings.TrimSpace(id) == "" {
		return report.Report{}, fmt.Errorf("%w: session_id is required", ErrInvalidInput)
	}
	st, ok := e.store.Get(id)
	if !ok {
		return report.Report{}, session.ErrNotFound
	}
	if e.dispatcher == nil {
		return report.Build(st, e.now()), errors.New("report delivery disabled")
	}
	out, err := e.dispatcher.Flush(ctx, id)
	if err != nil {
		if errors.Is(err, report.ErrAlreadySent) || errors.Is(err, report.ErrInFlight) {
			st, _ = e.store.Get(id)
			return report.Build(st, e.now()), err
		}
		if out.Report.SessionID == "" {
			out.Report = report.Build(st, e.now())
		}
		return out.Report, err
	}
	return out.Report, nil
}

// View is the debug projection of a conversation.
type View struct {
	SessionID                 string               `json:"sessionId"`
	Phase                     string               `json:"phase"`
	ScamDetected              bool                 `json:"scamDetected"`
	ScamType                  detect.Type          `json:"scamType,omitempty"`
	TotalMessagesExchanged    int                  `json:"totalMessagesExchanged"`
	EngagementDurationSeconds int64                `json:"engagementDurationSeconds"`
	CallbackSent              bool                 `json:"callbackSent"`
	ReportState               session.ReportState  `json:"reportState"`
	QuestionsAsked            int                  `json:"questionsAsked"`
	ElicitationAttempts       int                  `json:"elicitationAttempts"`
	RedFlagsFound             []detect.RedFlag     `json:"redFlagsFound"`
	Keywords                  []string             `json:"keywords"`
	ExtractedIntelligence     extract.Intelligence `json:"extractedIntelligence"`
	AgentNotes                string               `json:"agentNotes"`
	ConversationLength        int                  `json:"conversationLength"`
}

// SessionView returns the debug view of id.
func (e *Engine) SessionView(id string) (View, bool) {
	if id == "" {
		return View{}, false
	}
	st, ok := e.store.Get(id)
	if !ok {
		return View{}, false
	}
	now := e.now()
	return View{
		SessionID:                 st.ID,
		Phase:                     st.Phase(),
		ScamDetected:              st.ScamConfirmed,
		ScamType:                  st.ScamType,
		TotalMessagesExchanged:    len(st.Turns),
		EngagementDurationSeconds: int64(st.Elapsed(now) / time.Second),
		CallbackSent:              st.Report == session.ReportSent,
		ReportState:               st.Report,
		QuestionsAsked:            st.QuestionsAsked,
		ElicitationAttempts:       st.ElicitationAttempts,
		RedFlagsFound:             nonNil(st.RedFlags),
		Keywords:                  nonNil(st.Keywords),
		ExtractedIntelligence:     st.Intelligence,
		AgentNotes:                report.Notes(st),
		ConversationLength:        len(st.Turns),
	}, true
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ActiveSessions is the number of conversations in memory.
func (e *Engine) ActiveSessions() int { return e.store.Len() }

// Sweep drops conversations idle for longer than idle.
func (e *Engine) Sweep(idle time.Duration) int {
	n := e.store.Sweep(idle)
	if e.observer != nil {
		e.observer.SetActiveSessions(e.store.Len())
	}
	return n
}

// LLMEnabled reports whether replies may come from a text generator.
func (e *Engine) LLMEnabled() bool { return e.strategist.Available() }

// VerifierEnabled reports whether an external verifier backs the rules.
func (e *Engine) VerifierEnabled() bool { return e.classifier.HasVerifier() }
