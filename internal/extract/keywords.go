package extract

import "strings"

// suspiciousTerms is the annotation vocabulary stored with the collected
// indicators. It overlaps with the classifier vocabulary but is tuned for
// reporting: short, high-signal terms only.
var suspiciousTerms = []string{
	"otp", "pin", "cvv", "atm", "debit card", "credit card",
	"account number", "bank account", "upi", "transaction",
	"payment", "refund", "cashback", "reward", "prize", "won",
	"urgent", "immediately", "expire", "deadline", "last chance",
	"verify", "verification", "confirm", "suspended", "blocked",
	"rbi", "reserve bank", "income tax", "police", "government",
	"legal action", "arrest", "warrant", "penalty", "fine",
	"congratulations", "lottery", "selected customer",
	"kyc", "aadhar", "aadhaar", "pan card",
}

// Keywords returns the annotation terms found in text as plain substrings.
func Keywords(text string) []string {
	lower := strings.ToLower(text)
	s := set{}
	for _, kw := range suspiciousTerms {
		if strings.Contains(lower, kw) {
			s.add(kw)
		}
	}
	return s.sorted()
}
