// Package session keeps per-conversation state for the lifetime of the
// process.
package session

import (
	"errors"
	"sync"
	"time"
)

var (
	ErrNotFound    = errors.New("session not found")
	ErrNotEligible = errors.New("session not eligible for report")
	ErrInFlight    = errors.New("report already in flight")
	ErrAlreadySent = errors.New("report already sent")
)

type entry struct {
	mu      sync.Mutex
	state   State
	removed bool
}

// Store maps conversation ids to state. Each conversation has its own
// lock, so turns of one conversation are applied one at a time while
// distinct conversations proceed in parallel.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	// sent remembers swept conversations whose report was delivered, so a
	// returning id never gets a second report.
	sent map[string]time.Time
	now  func() time.Time
}

type Option func(*Store)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{entries: make(map[string]*entry), sent: make(map[string]time.Time), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

func mustID(id string) {
	if id == "" {
		panic("session: empty conversation id")
	}
}

// lock returns the locked entry for id, creating it when missing. The
// caller must unlock it.
func (s *Store) lock(id string, create bool) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[id]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil
			}
			now := s.now()
			e = &entry{state: State{ID: id, CreatedAt: now, UpdatedAt: now}}
			if at, ok := s.sent[id]; ok {
				e.state.Report = ReportSent
				e.state.ReportedAt = at
				delete(s.sent, id)
			}
			s.entries[id] = e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if !e.removed {
			return e
		}
		// swept between lookup and lock
		e.mu.Unlock()
	}
}

// Do runs fn with exclusive access to the state of id, creating the state
// on first use, and returns a copy of the state after fn.
func (s *Store) Do(id string, fn func(*State)) State {
	mustID(id)
	e := s.lock(id, true)
	defer e.mu.Unlock()
	fn(&e.state)
	e.state.UpdatedAt = s.now()
	return e.state.clone()
}

// Get returns a copy of the state of id.
func (s *Store) Get(id string) (State, bool) {
	mustID(id)
	e := s.lock(id, false)
	if e == nil {
		return State{}, false
	}
	defer e.mu.Unlock()
	return e.state.clone(), true
}

// Len is the number of live conversations.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Claim checks report eligibility and moves the report to pending in one
// step. Eligible means scam-confirmed with at least minTurns turns and no
// report yet; force skips the scam and turn checks. On success the
// returned copy is the state the report is built from.
func (s *Store) Claim(id string, minTurns int, force bool) (State, error) {
	mustID(id)
	e := s.lock(id, false)
	if e == nil {
		s.mu.Lock()
		_, sent := s.sent[id]
		s.mu.Unlock()
		if sent {
			return State{}, ErrAlreadySent
		}
		return State{}, ErrNotFound
	}
	defer e.mu.Unlock()

	st := &e.state
	switch st.Report {
	case ReportSent:
		return State{}, ErrAlreadySent
	case ReportPending:
		return State{}, ErrInFlight
	}
	if !force && (!st.ScamConfirmed || len(st.Turns) < minTurns) {
		return State{}, ErrNotEligible
	}
	st.Report = ReportPending
	st.ReportAttempts++
	return st.clone(), nil
}

// Complete settles a pending claim: sent on success, back to none on
// failure so a later turn can claim again.
func (s *Store) Complete(id string, ok bool) {
	mustID(id)
	e := s.lock(id, false)
	if e == nil {
		return
	}
	defer e.mu.Unlock()
	if e.state.Report != ReportPending {
		return
	}
	if ok {
		e.state.Report = ReportSent
		e.state.ReportedAt = s.now()
		return
	}
	e.state.Report = ReportNone
}

// Sweep drops conversations idle for longer than idle. Conversations with
// a report in flight are kept; delivered ones leave only their id behind.
// It returns the number removed.
func (s *Store) Sweep(idle time.Duration) int {
	if idle <= 0 {
		return 0
	}
	cutoff := s.now().Add(-idle)
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if e.state.UpdatedAt.Before(cutoff) && e.state.Report != ReportPending {
			e.removed = true
			delete(s.entries, id)
			if e.state.Report == ReportSent {
				s.sent[id] = e.state.ReportedAt
			}
			removed++
		}
		e.mu.Unlock()
	}
	return removed
}
