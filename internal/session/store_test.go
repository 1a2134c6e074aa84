package session

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/conversation"
	"scam-honeypot/internal/detect"
	"scam-honeypot/internal/extract"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func turn(text string) conversation.Turn {
	return conversation.Turn{Origin: conversation.Counterpart, Text: text}
}

func TestDo_CreatesAndCopies(t *testing.T) {
	s := NewStore()
	snap := s.Do("a", func(st *State) { st.Append(turn("hi")) })
	require.Len(t, snap.Turns, 1)
	assert.Equal(t, "a", snap.ID)

	snap.Turns[0].Text = "mutated"
	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Equal(t, "hi", got.Turns[0].Text)

	_, ok = s.Get("missing")
	assert.False(t, ok)
	assert.Equal(t, 1, s.Len())
}

func TestDo_EmptyIDPanics(t *testing.T) {
	assert.Panics(t, func() { NewStore().Do("", func(*State) {}) })
}

func TestState_Monotonic(t *testing.T) {
	s := NewStore()
	s.Do("a", func(st *State) {
		st.ConfirmScam(detect.BankFraud)
		st.AddRedFlags(detect.UrgencyPressure, detect.OTPRequest)
		st.MergeIntelligence(extract.Intelligence{UPIIDs: []string{"x@ybl"}})
	})
	snap := s.Do("a", func(st *State) {
		st.ConfirmScam(detect.UPIFraud)
		st.AddRedFlags(detect.UrgencyPressure, detect.ThreatLegalAction)
		st.MergeIntelligence(extract.Intelligence{PhoneNumbers: []string{"+919876543210"}})
	})

	assert.True(t, snap.ScamConfirmed)
	assert.Equal(t, detect.BankFraud, snap.ScamType, "first type sticks")
	assert.Equal(t, []detect.RedFlag{detect.UrgencyPressure, detect.OTPRequest, detect.ThreatLegalAction}, snap.RedFlags)
	assert.Equal(t, []string{"x@ybl"}, snap.Intelligence.UPIIDs)
	assert.Equal(t, []string{"+919876543210"}, snap.Intelligence.PhoneNumbers)
}

func TestState_CountersAndPhase(t *testing.T) {
	var st State
	assert.Equal(t, "new", st.Phase())
	st.Append(turn("hello"))
	st.Append(conversation.Turn{Origin: conversation.Agent, Text: "who is this?"})
	assert.Equal(t, "engaged", st.Phase())
	assert.Equal(t, 1, st.CounterpartTurns())

	st.RecordReply(true, true)
	st.RecordReply(true, false)
	st.RecordReply(false, false)
	assert.Equal(t, 2, st.QuestionsAsked)
	assert.Equal(t, 1, st.ElicitationAttempts)

	st.ConfirmScam("")
	assert.Equal(t, "scam-confirmed", st.Phase())
	assert.Empty(t, st.ScamType)
}

func TestClaim_Lifecycle(t *testing.T) {
	s := NewStore()
	_, err := s.Claim("a", 3, false)
	assert.ErrorIs(t, err, ErrNotFound)

	s.Do("a", func(st *State) {
		st.Append(turn("1"))
		st.Append(turn("2"))
	})
	_, err = s.Claim("a", 3, false)
	assert.ErrorIs(t, err, ErrNotEligible, "not a scam yet")

	s.Do("a", func(st *State) { st.ConfirmScam(detect.Phishing) })
	_, err = s.Claim("a", 3, false)
	assert.ErrorIs(t, err, ErrNotEligible, "too few turns")

	s.Do("a", func(st *State) { st.Append(turn("3")) })
	snap, err := s.Claim("a", 3, false)
	require.NoError(t, err)
	assert.Equal(t, ReportPending, snap.Report)
	assert.Len(t, snap.Turns, 3)

	_, err = s.Claim("a", 3, false)
	assert.ErrorIs(t, err, ErrInFlight)

	s.Complete("a", false)
	got, _ := s.Get("a")
	assert.Equal(t, ReportNone, got.Report, "failure resets the claim")

	_, err = s.Claim("a", 3, false)
	require.NoError(t, err)
	s.Complete("a", true)
	got, _ = s.Get("a")
	assert.Equal(t, ReportSent, got.Report)
	assert.Equal(t, 2, got.ReportAttempts)
	assert.False(t, got.ReportedAt.IsZero())

	_, err = s.Claim("a", 0, true)
	assert.ErrorIs(t, err, ErrAlreadySent, "force never resends")

	s.Complete("a", false)
	got, _ = s.Get("a")
	assert.Equal(t, ReportSent, got.Report, "complete without a claim is ignored")
}

func TestClaim_ForceSkipsEligibility(t *testing.T) {
	s := NewStore()
	s.Do("a", func(st *State) { st.Append(turn("hello")) })
	_, err := s.Claim("a", 3, true)
	assert.NoError(t, err)
}

func TestClaim_ConcurrentAtMostOnce(t *testing.T) {
	s := NewStore()
	s.Do("a", func(st *State) {
		for i := 0; i < 5; i++ {
			st.Append(turn("x"))
		}
		st.ConfirmScam(detect.BankFraud)
	})

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := s.Claim("a", 3, i%2 == 0); err == nil {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestDo_ConcurrentTurnsLoseNothing(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Do("a", func(st *State) { st.Append(turn("x")) })
		}()
	}
	wg.Wait()
	got, _ := s.Get("a")
	assert.Len(t, got.Turns, 100)
}

func TestSweep(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(WithClock(c.now))

	s.Do("old", func(st *State) { st.Append(turn("x")) })
	s.Do("pending", func(st *State) { st.ConfirmScam(detect.BankFraud) })
	_, err := s.Claim("pending", 0, false)
	require.NoError(t, err)

	c.advance(2 * time.Hour)
	s.Do("fresh", func(st *State) { st.Append(turn("y")) })

	assert.Equal(t, 0, s.Sweep(0))
	assert.Equal(t, 1, s.Sweep(time.Hour))
	_, ok := s.Get("old")
	assert.False(t, ok)
	_, ok = s.Get("pending")
	assert.True(t, ok, "in-flight reports are kept")
	assert.Equal(t, 2, s.Len())

	// a swept id starts over
	snap := s.Do("old", func(st *State) {})
	assert.Empty(t, snap.Turns)
}

func TestState_Elapsed(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st := State{CreatedAt: start}
	assert.Equal(t, 90*time.Second, st.Elapsed(start.Add(90*time.Second)))
	assert.Zero(t, st.Elapsed(start.Add(-time.Second)))
	assert.Zero(t, (&State{}).Elapsed(start))
}

func TestSweep_SentReportStaysSent(t *testing.T) {
	c := &clock{t: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(WithClock(c.now))

	s.Do("x", func(st *State) {
		st.Append(turn("your account is blocked"))
		st.Append(turn("share the otp"))
		st.ConfirmScam(detect.BankFraud)
	})
	_, err := s.Claim("x", 2, false)
	require.NoError(t, err)
	s.Complete("x", true)

	c.advance(2 * time.Hour)
	require.Equal(t, 1, s.Sweep(time.Hour))
	assert.Equal(t, 0, s.Len())

	_, err = s.Claim("x", 0, true)
	assert.ErrorIs(t, err, ErrAlreadySent, "swept id is still reported")

	snap := s.Do("x", func(st *State) {
		st.Append(turn("hello again, pay now"))
		st.Append(turn("send to pay.help@oksbi"))
		st.ConfirmScam(detect.BankFraud)
	})
	assert.Equal(t, ReportSent, snap.Report)
	assert.False(t, snap.ReportedAt.IsZero())

	_, err = s.Claim("x", 2, false)
	assert.ErrorIs(t, err, ErrAlreadySent)

	c.advance(2 * time.Hour)
	require.Equal(t, 1, s.Sweep(time.Hour))
	_, err = s.Claim("x", 0, true)
	assert.ErrorIs(t, err, ErrAlreadySent, "swept twice")
}
