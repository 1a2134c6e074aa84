package extract

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scam-honeypot/internal/conversation"
)

func TestHandles_VersusEmails(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		handles []string
		emails  []string
	}{
		{
			name:    "payment handle",
			text:    "Congratulations! You won Rs 5000 cashback, send Rs 99 to claim.prize@fakeupi",
			handles: []string{"claim.prize@fakeupi"},
		},
		{
			name:   "dotted domain is always email",
			text:   "pay to alice@ybl.com right now",
			emails: []string{"alice@ybl.com"},
		},
		{
			name:   "email lower-cased and trailing dot dropped",
			text:   "Mail me at Support.Desk@SBI-Help.co.in.",
			emails: []string{"support.desk@sbi-help.co.in"},
		},
		{
			name:    "both in one message",
			text:    "UPI: Ravi.Kumar@OKSBI, email ravi@gmail.com",
			handles: []string{"ravi.kumar@oksbi"},
			emails:  []string{"ravi@gmail.com"},
		},
		{
			name:   "numeric tld is still email",
			text:   "ping me at root@10.0.0.1 or a@b.c1",
			emails: []string{"a@b.c1", "root@10.0.0.1"},
		},
		{
			name:    "hyphenated namespace is a handle",
			text:    "pay to scam@sbi-verify today",
			handles: []string{"scam@sbi-verify"},
		},
		{
			name: "namespace must start with a letter",
			text: "send it to bank@9pay",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.handles, Handles(tt.text))
			assert.Equal(t, tt.emails, Emails(tt.text))
		})
	}
}

func TestDottedDomainNeverHandle(t *testing.T) {
	inputs := []string{
		"x@paytm.in", "scam@ybl.co", "a.b@upi.example.org", "me@oksbi.bank",
		"weird@fakeupi.xyz!", "UPPER@PHONEPE.COM",
	}
	for _, in := range inputs {
		assert.Empty(t, Handles(in), in)
		assert.Len(t, Emails(in), 1, in)
	}
}

func TestPhonesAndAccounts(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		phones   []string
		accounts []string
	}{
		{
			name:   "prefixed and bare phones",
			text:   "Call +91-9876543210 or 0091 8765432109 or 7654321098 now",
			phones: []string{"+918765432109", "+919876543210", "7654321098"},
		},
		{
			name:   "country code glued to number",
			text:   "whatsapp +919876543210",
			phones: []string{"+919876543210"},
		},
		{
			name:     "accounts of several lengths",
			text:     "account 1234567890 and 123456789012 and 12345678",
			accounts: []string{"1234567890", "123456789012"},
		},
		{
			name:     "phone and account side by side",
			text:     "Transfer to A/C 50100234567891 and call 9123456789",
			phones:   []string{"9123456789"},
			accounts: []string{"50100234567891"},
		},
		{
			name: "no digits",
			text: "Hello, how are you today?",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.phones, Phones(tt.text))
			assert.Equal(t, tt.accounts, BankAccounts(tt.text))
		})
	}
}

func TestTenDigitMobileNeverAccount(t *testing.T) {
	for _, n := range []string{"6000000000", "7123456789", "8888888888", "9999999999"} {
		text := "my number is " + n + "."
		assert.Equal(t, []string{n}, Phones(text), n)
		assert.Empty(t, BankAccounts(text), n)
	}
	// 0-5 leading digit: account, not phone
	assert.Empty(t, Phones("ref 5123456789"))
	assert.Equal(t, []string{"5123456789"}, BankAccounts("ref 5123456789"))
}

func TestLinks(t *testing.T) {
	got := Links("Visit https://sbi-verify.com/login?id=1, or www.fake-bank.in. Short: bit.ly/abc123!")
	assert.Equal(t, []string{"bit.ly/abc123", "https://sbi-verify.com/login?id=1", "www.fake-bank.in"}, got)

	assert.Equal(t, []string{"http://www.evil.com/x"}, Links("open http://www.evil.com/x"))
	assert.Equal(t, []string{"https://bit.ly/xyz"}, Links("(https://bit.ly/xyz)"))
	assert.Empty(t, Links("write to help@www.example.com"))
	assert.Empty(t, Links("no links here"))
}

func TestReferences(t *testing.T) {
	text := "Your case reference is CASE-654321 and policy number is POL-GOLD-999, " +
		"order ID ORD-IPHONE-001. Employee ID SBI-12345."
	cases, policies, orders := References(text)
	assert.Equal(t, []string{"CASE-654321", "SBI-12345"}, cases)
	assert.Equal(t, []string{"POL-GOLD-999"}, policies)
	assert.Equal(t, []string{"ORD-IPHONE-001"}, orders)

	t.Run("bare codes routed by prefix", func(t *testing.T) {
		cases, policies, orders := References("TXN-20250101 and POL-123456 and HDFC/9876")
		assert.Equal(t, []string{"HDFC/9876"}, cases)
		assert.Equal(t, []string{"POL-123456"}, policies)
		assert.Equal(t, []string{"TXN-20250101"}, orders)
	})

	t.Run("label needs a code with digits", func(t *testing.T) {
		cases, _, _ := References("the case closed and ticket #ab12345 opened")
		assert.Equal(t, []string{"AB12345"}, cases)
	})
}

func TestKeywords(t *testing.T) {
	assert.Equal(t, []string{"otp", "urgent"}, Keywords("URGENT: share OTP"))
	assert.Empty(t, Keywords("Hello, how are you today?"))
}

func TestExtract_Empty(t *testing.T) {
	got := Extract("Hello, how are you today?")
	assert.True(t, got.IsEmpty())
	assert.Equal(t, Intelligence{}, got)
}

func TestFromTurns_SkipsAgent(t *testing.T) {
	turns := []conversation.Turn{
		{Origin: conversation.Counterpart, Text: "call 9876543210"},
		{Origin: conversation.Agent, Text: "is your email boss@bank.com?"},
		{Origin: conversation.Counterpart, Text: "pay fraud@ybl"},
	}
	got := FromTurns(turns)
	assert.Equal(t, []string{"9876543210"}, got.PhoneNumbers)
	assert.Equal(t, []string{"fraud@ybl"}, got.UPIIDs)
	assert.Empty(t, got.EmailAddresses)
}

func mergeFixtures() []Intelligence {
	return []Intelligence{
		{},
		Extract("call 9876543210, pay a@ybl"),
		Extract("call +919876543210 or 9876543210, visit www.x.in"),
		{PhoneNumbers: []string{"9876543210"}, CaseIDs: []string{"CASE-11111"}},
		Extract("policy POL-778899 urgent otp"),
	}
}

func TestMerge_Properties(t *testing.T) {
	fx := mergeFixtures()
	for i, a := range fx {
		for j, b := range fx {
			ab := Merge(a, b)
			assert.Equal(t, ab, Merge(b, a), "commutative %d,%d", i, j)
			assert.Equal(t, ab, Merge(a, ab), "idempotent %d,%d", i, j)
			for k, c := range fx {
				assert.Equal(t, Merge(ab, c), Merge(a, Merge(b, c)), "associative %d,%d,%d", i, j, k)
			}
		}
	}
}

func TestMerge_DoesNotAlias(t *testing.T) {
	a := Intelligence{PhoneNumbers: []string{"9876543210"}}
	m := Merge(a, Intelligence{})
	m.PhoneNumbers[0] = "changed"
	assert.Equal(t, "9876543210", a.PhoneNumbers[0])
}

func TestIntelligence_JSON(t *testing.T) {
	b, err := json.Marshal(Intelligence{UPIIDs: []string{"a@ybl"}})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"phoneNumbers": [], "bankAccounts": [], "upiIds": ["a@ybl"], "phishingLinks": [],
		"emailAddresses": [], "caseIds": [], "policyNumbers": [], "orderNumbers": [],
		"suspiciousKeywords": []
	}`, string(b))
	assert.Equal(t, 1, Intelligence{UPIIDs: []string{"a@ybl"}, SuspiciousKeywords: []string{"otp"}}.Categories())
}
