package detect

import (
	"regexp"
	"strings"
)

// scamTerms is the keyword vocabulary. Two distinct hits mark a message
// as a scam. Matching is a plain case-insensitive substring test.
var scamTerms = []string{
	// urgency
	"urgent", "immediately", "asap", "right now", "today only", "limited time",
	"expire", "expires", "expired", "deadline", "last chance", "act fast",
	"hurry", "don't delay", "no time",

	// account and verification
	"account", "compromised", "verify", "verification", "confirm", "suspended",
	"blocked", "locked", "deactivated", "disabled", "frozen", "restricted",
	"update kyc", "kyc", "re-verify",

	// financial
	"upi", "bank account", "credit card", "debit card", "atm", "pin",
	"cvv", "otp", "one time password", "transaction", "payment",
	"refund", "cashback", "reward", "prize", "won", "winner",
	"send money", "transfer funds", "pay now", "deposit",

	// authority
	"rbi", "reserve bank", "income tax", "tax department", "police",
	"government", "official notice", "ministry", "customs", "irs",
	"sebi", "trai", "irda", "nabard",

	// action requests
	"click here", "click the link", "update now", "verify now", "call us",
	"contact immediately", "submit now",

	// threats
	"legal action", "arrest", "warrant", "penalty", "fine",
	"court", "fraud case", "complaint filed", "case registered",
	"prosecution", "jail",

	// classic phrasing
	"congratulations", "you have won", "claim now", "free gift",
	"selected customer", "lucky draw", "lottery", "lucky winner",

	// phishing
	"visit website", "login now", "account will be closed",
	"your account is at risk",
}

// Type is a scam category.
type Type string

const (
	BankFraud      Type = "bank_fraud"
	UPIFraud       Type = "upi_fraud"
	Phishing       Type = "phishing"
	LotteryFraud   Type = "lottery_fraud"
	TaxFraud       Type = "tax_fraud"
	CustomsFraud   Type = "customs_fraud"
	InsuranceFraud Type = "insurance_fraud"
	JobFraud       Type = "job_fraud"
	GenericFraud   Type = "generic_fraud"
)

type typeTerms struct {
	typ   Type
	terms []string
}

// typeTaxonomy is ordered; ties go to the earlier entry.
var typeTaxonomy = []typeTerms{
	{BankFraud, []string{
		"sbi", "hdfc", "icici", "axis bank", "bank account", "otp",
		"account compromised", "account blocked", "bank fraud dept",
		"account suspended", "fraud department",
	}},
	{UPIFraud, []string{
		"upi", "google pay", "phonepe", "paytm", "cashback",
		"upi id", "verification upi", "pending payment", "payment failed",
	}},
	{Phishing, []string{
		"click the link", "click here", "visit", "http://", "https://",
		"login", "update your details", "verify your account via link",
	}},
	{LotteryFraud, []string{
		"congratulations", "won", "prize", "lottery", "lucky draw",
		"lucky winner", "claim your reward",
	}},
	{TaxFraud, []string{"income tax", "tax refund", "tax department", "itr", "tds"}},
	{CustomsFraud, []string{"customs", "parcel", "package", "delivery", "declaration fee"}},
	{InsuranceFraud, []string{"policy", "insurance", "premium", "claim", "lic", "irda"}},
	{JobFraud, []string{
		"job offer", "work from home", "part time", "earn money",
		"hiring", "recruitment",
	}},
}

// Types returns the closed taxonomy in tie-break order, without the
// generic fallback.
func Types() []Type {
	out := make([]Type, len(typeTaxonomy))
	for i, tt := range typeTaxonomy {
		out[i] = tt.typ
	}
	return out
}

// RedFlag is a manipulation tactic seen in a message.
type RedFlag string

const (
	UrgencyPressure        RedFlag = "urgency_pressure"
	OTPRequest             RedFlag = "otp_request"
	MoneyTransferRequest   RedFlag = "money_transfer_request"
	ThreatLegalAction      RedFlag = "threat_legal_action"
	SuspiciousLink         RedFlag = "suspicious_link"
	SensitiveInfoRequest   RedFlag = "sensitive_info_request"
	AuthorityImpersonation RedFlag = "authority_impersonation"
	UnrealisticReward      RedFlag = "unrealistic_reward"
)

var linkFlagRe = regexp.MustCompile(`(?i)https?://\S+|www\.\S+`)

type flagRule struct {
	flag  RedFlag
	terms []string
	re    *regexp.Regexp
}

func (r flagRule) fires(lower, raw string) bool {
	if r.re != nil && r.re.MatchString(raw) {
		return true
	}
	return containsAny(lower, r.terms)
}

var flagRules = []flagRule{
	{flag: UrgencyPressure, terms: []string{"urgent", "immediately", "asap", "hurry", "act fast", "right now", "within 24 hours"}},
	{flag: OTPRequest, terms: []string{"otp", "one time password", "verification code"}},
	{flag: MoneyTransferRequest, terms: []string{"send money", "transfer", "pay now", "deposit", "processing fee"}},
	{flag: ThreatLegalAction, terms: []string{"arrest", "warrant", "legal action", "court", "jail"}},
	{flag: SuspiciousLink, re: linkFlagRe},
	{flag: SensitiveInfoRequest, terms: []string{"pin", "cvv", "password", "account number", "card number"}},
	{flag: AuthorityImpersonation, terms: []string{"rbi", "income tax", "police", "government", "bank official"}},
	{flag: UnrealisticReward, terms: []string{"won", "prize", "lottery", "congratulations", "cashback", "refund"}},
}

func containsAny(lower string, terms []string) bool {
	for _, t := range terms {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}
