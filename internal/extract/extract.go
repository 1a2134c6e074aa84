// Package extract pulls contact and payment indicators out of free text.
//
// Every extractor is independent: it looks at the raw text and returns the
// normalised members of its own category. The only cross-category rules
// are the ones that keep a value out of the wrong set (a dotted domain is
// never a payment handle, a phone is never an account number).
package extract

import (
	"regexp"
	"strings"

	"scam-honeypot/internal/conversation"
)

var (
	// DigitRun matches any standalone run of 9 to 18 digits.
	DigitRun = regexp.MustCompile(`\b\d{9,18}\b`)

	phoneRe = regexp.MustCompile(`(?:(\+91|0091)[\s\-]?|\b)([6-9]\d{9})\b`)

	atTokenRe = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(?:\.[A-Za-z0-9\-]+)*`)
	handleNS  = regexp.MustCompile(`^[a-z][a-z0-9\-]*$`)

	schemeLinkRe = regexp.MustCompile("(?i)\\bhttps?://[^\\s<>\"{}|\\\\^`\\[\\]]+")
	wwwLinkRe    = regexp.MustCompile("(?i)\\bwww\\.[^\\s<>\"{}|\\\\^`\\[\\]]+")
	shortLinkRe  = regexp.MustCompile(`(?i)\b(?:bit\.ly|tinyurl\.com|goo\.gl|t\.co|rb\.gy|cutt\.ly|is\.gd|short\.io)/[A-Za-z0-9_\-]+`)

	labeledRefRe = regexp.MustCompile(`(?i)\b(reference|complaint|ticket|case|ref|policy|pol|order|transaction|txn|trx)\b` +
		`(?:\s*(?:reference|ref|id|no|number|num|code)\b)?(?:\s+(?:is|was))?(?:\s*[:#.]+\s*|\s+)` +
		`([a-z0-9][a-z0-9\-/]{3,18}[a-z0-9])\b`)
	bareRefRe = regexp.MustCompile(`\b([A-Z]{2,6})[-/]\d{4,10}\b`)
)

const linkTrailer = ".,;:!?)]}'\""

// Extract runs every extractor over text.
func Extract(text string) Intelligence {
	cases, policies, orders := References(text)
	return Intelligence{
		PhoneNumbers:       Phones(text),
		BankAccounts:       BankAccounts(text),
		UPIIDs:             Handles(text),
		PhishingLinks:      Links(text),
		EmailAddresses:     Emails(text),
		CaseIDs:            cases,
		PolicyNumbers:      policies,
		OrderNumbers:       orders,
		SuspiciousKeywords: Keywords(text),
	}
}

// FromTurns merges the extraction of every counterpart turn. Agent turns
// are skipped so the persona's own questions never count as evidence.
func FromTurns(turns []conversation.Turn) Intelligence {
	var out Intelligence
	for _, t := range turns {
		if !t.FromCounterpart() {
			continue
		}
		out = Merge(out, Extract(t.Text))
	}
	return out
}

type span struct{ start, end int }

func (s span) overlaps(o span) bool { return s.start < o.end && o.start < s.end }

func phoneMatches(text string) ([]string, []span) {
	var (
		values []string
		spans  []span
	)
	for _, m := range phoneRe.FindAllStringSubmatchIndex(text, -1) {
		number := text[m[4]:m[5]]
		if m[2] >= 0 {
			number = "+91" + number
		}
		values = append(values, number)
		spans = append(spans, span{m[0], m[1]})
	}
	return values, spans
}

// Phones returns Indian mobile numbers. A +91 or 0091 prefix is kept in
// the canonical "+91" form; separators between prefix and number are
// dropped.
func Phones(text string) []string {
	values, _ := phoneMatches(text)
	s := set{}
	for _, v := range values {
		s.add(v)
	}
	return s.sorted()
}

// BankAccounts returns 9 to 18 digit runs that are not part of a phone
// number. A 10-digit run is an account only when its first digit is 0-5,
// since 6-9 is the mobile range.
func BankAccounts(text string) []string {
	_, phones := phoneMatches(text)
	s := set{}
outer:
	for _, m := range DigitRun.FindAllStringIndex(text, -1) {
		run := span{m[0], m[1]}
		for _, p := range phones {
			if run.overlaps(p) {
				continue outer
			}
		}
		digits := text[m[0]:m[1]]
		if len(digits) == 10 && digits[0] >= '6' {
			continue
		}
		s.add(digits)
	}
	return s.sorted()
}

type atToken struct {
	local, domain string
}

func atTokens(text string) []atToken {
	var out []atToken
	for _, tok := range atTokenRe.FindAllString(text, -1) {
		local, domain, ok := strings.Cut(tok, "@")
		if !ok {
			continue
		}
		local = strings.TrimLeft(local, "._%+-")
		domain = strings.Trim(domain, ".-")
		if local == "" || domain == "" {
			continue
		}
		out = append(out, atToken{local: strings.ToLower(local), domain: strings.ToLower(domain)})
	}
	return out
}

// Handles returns payment handles such as "name@ybl". The namespace after
// the @ must be a single dotless label of letters, digits and hyphens
// starting with a letter, so nothing with a domain suffix is ever reported
// here.
func Handles(text string) []string {
	s := set{}
	for _, t := range atTokens(text) {
		if strings.Contains(t.domain, ".") || !handleNS.MatchString(t.domain) {
			continue
		}
		s.add(t.local + "@" + t.domain)
	}
	return s.sorted()
}

// Emails returns addresses whose domain contains a dot. Addresses are
// lower-cased.
func Emails(text string) []string {
	s := set{}
	for _, t := range atTokens(text) {
		if !strings.Contains(t.domain, ".") {
			continue
		}
		s.add(t.local + "@" + t.domain)
	}
	return s.sorted()
}

// Links returns scheme links, bare www links and known shortener links.
// A www or shortener match that sits inside a scheme link, or directly
// after an @, is not reported again.
func Links(text string) []string {
	s := set{}
	var taken []span
	for _, m := range schemeLinkRe.FindAllStringIndex(text, -1) {
		s.add(strings.TrimRight(text[m[0]:m[1]], linkTrailer))
		taken = append(taken, span{m[0], m[1]})
	}
	for _, re := range []*regexp.Regexp{wwwLinkRe, shortLinkRe} {
	next:
		for _, m := range re.FindAllStringIndex(text, -1) {
			if m[0] > 0 && text[m[0]-1] == '@' {
				continue
			}
			sp := span{m[0], m[1]}
			for _, t := range taken {
				if sp.overlaps(t) {
					continue next
				}
			}
			s.add(strings.TrimRight(text[m[0]:m[1]], linkTrailer))
			taken = append(taken, sp)
		}
	}
	return s.sorted()
}

type refKind int

const (
	refCase refKind = iota
	refPolicy
	refOrder
)

func labelKind(label string) refKind {
	switch strings.ToLower(label) {
	case "policy", "pol":
		return refPolicy
	case "order", "transaction", "txn", "trx":
		return refOrder
	default:
		return refCase
	}
}

func prefixKind(prefix string) refKind {
	switch prefix {
	case "POL", "POLICY":
		return refPolicy
	case "ORD", "ORDER", "TXN", "TRX":
		return refOrder
	default:
		return refCase
	}
}

// References returns case, policy and order codes, upper-cased. A code
// either follows a label such as "case no." or "policy number is", or has
// the bare LETTERS-DIGITS shape; bare codes are routed by their prefix.
// Labelled codes must contain at least one digit.
func References(text string) (cases, policies, orders []string) {
	buckets := [3]set{{}, {}, {}}
	for _, m := range labeledRefRe.FindAllStringSubmatch(text, -1) {
		code := strings.ToUpper(m[2])
		if !strings.ContainsAny(code, "0123456789") {
			continue
		}
		buckets[labelKind(m[1])].add(code)
	}
	for _, m := range bareRefRe.FindAllStringSubmatch(text, -1) {
		buckets[prefixKind(m[1])].add(m[0])
	}
	return buckets[refCase].sorted(), buckets[refPolicy].sorted(), buckets[refOrder].sorted()
}
