package conversation

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Origin tells who authored a turn. The wire values follow the upstream
// evaluation API, where the counterpart is "scammer" and the honeypot
// persona is "user".
type Origin string

const (
	Counterpart Origin = "scammer"
	Agent       Origin = "user"
)

func (o Origin) Valid() bool {
	return o == Counterpart || o == Agent
}

// Turn is one message of a conversation. Turns are never mutated after they
// are recorded.
type Turn struct {
	Origin    Origin    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp Timestamp `json:"timestamp"`
}

// FromCounterpart reports whether the turn was written by the scammer side.
func (t Turn) FromCounterpart() bool { return t.Origin == Counterpart }

// Timestamp accepts both epoch milliseconds and RFC3339 strings on input
// and always encodes as epoch milliseconds.
type Timestamp struct {
	time.Time
}

func At(t time.Time) Timestamp { return Timestamp{Time: t} }

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("0"), nil
	}
	return []byte(strconv.FormatInt(ts.UnixMilli(), 10)), nil
}

func (ts *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == "" || s == `""` {
		ts.Time = time.Time{}
		return nil
	}
	if s[0] == '"' {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(str, 10, 64); err == nil {
			ts.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return fmt.Errorf("parse timestamp %q: %w", str, err)
		}
		ts.Time = t.UTC()
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("parse timestamp %s: %w", s, err)
	}
	ts.Time = time.UnixMilli(int64(f)).UTC()
	return nil
}

// Text joins the text of turns with single spaces, lower-cased. It is the
// haystack used by substring matchers that look at a whole conversation.
func Text(turns []Turn, extra ...string) string {
	var b strings.Builder
	for _, s := range extra {
		b.WriteString(strings.ToLower(s))
		b.WriteByte(' ')
	}
	for _, t := range turns {
		b.WriteString(strings.ToLower(t.Text))
		b.WriteByte(' ')
	}
	return b.String()
}
