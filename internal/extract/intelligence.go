package extract

import (
	"encoding/json"
	"sort"
)

// Intelligence is the set of indicators collected from counterpart text.
// Every field is a sorted set without duplicates; nil means empty.
type Intelligence struct {
	PhoneNumbers       []string `json:"phoneNumbers"`
	BankAccounts       []string `json:"bankAccounts"`
	UPIIDs             []string `json:"upiIds"`
	PhishingLinks      []string `json:"phishingLinks"`
	EmailAddresses     []string `json:"emailAddresses"`
	CaseIDs            []string `json:"caseIds"`
	PolicyNumbers      []string `json:"policyNumbers"`
	OrderNumbers       []string `json:"orderNumbers"`
	SuspiciousKeywords []string `json:"suspiciousKeywords"`
}

// fields lists the categories in declaration order. Merge and the
// accessors below iterate over it so that a new category only needs a
// struct field and an entry here.
func (in *Intelligence) fields() []*[]string {
	return []*[]string{
		&in.PhoneNumbers,
		&in.BankAccounts,
		&in.UPIIDs,
		&in.PhishingLinks,
		&in.EmailAddresses,
		&in.CaseIDs,
		&in.PolicyNumbers,
		&in.OrderNumbers,
		&in.SuspiciousKeywords,
	}
}

// Merge returns the per-category union of a and b. Neither argument is
// modified. The operation is associative, commutative and idempotent.
func Merge(a, b Intelligence) Intelligence {
	var out Intelligence
	af, bf, of := a.fields(), b.fields(), out.fields()
	for i := range of {
		*of[i] = union(*af[i], *bf[i])
	}
	return out
}

// IsEmpty reports whether no category holds a value.
func (in Intelligence) IsEmpty() bool {
	for _, f := range in.fields() {
		if len(*f) > 0 {
			return false
		}
	}
	return true
}

// Categories counts the categories that hold at least one value, ignoring
// keywords.
func (in Intelligence) Categories() int {
	n := 0
	for _, f := range in.fields()[:8] {
		if len(*f) > 0 {
			n++
		}
	}
	return n
}

// Clone returns a deep copy.
func (in Intelligence) Clone() Intelligence {
	return Merge(in, Intelligence{})
}

// MarshalJSON encodes empty categories as [] rather than null.
func (in Intelligence) MarshalJSON() ([]byte, error) {
	type plain Intelligence
	out := plain(in)
	for _, f := range (*Intelligence)(&out).fields() {
		if *f == nil {
			*f = []string{}
		}
	}
	return json.Marshal(out)
}

func union(a, b []string) []string {
	if len(a) == 0 && len(b) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(a)+len(b))
	out := make([]string, 0, len(a)+len(b))
	for _, list := range [][]string{a, b} {
		for _, v := range list {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// set is a string set that yields its members sorted.
type set map[string]struct{}

func (s set) add(v string) {
	if v != "" {
		s[v] = struct{}{}
	}
}

func (s set) sorted() []string {
	if len(s) == 0 {
		return nil
	}
	out := make([]string, 0, len(s))
	for v := range s {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
