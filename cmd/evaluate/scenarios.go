package main

// Scenario is one scripted scam conversation together with the
// identifiers planted in it.
type Scenario struct {
	Name      string
	Type      string
	Weight    int
	SessionID string
	Turns     []string
	// Planted maps an extractedIntelligence field to the values a perfect
	// run recovers.
	Planted map[string][]string
}

var scenarios = []Scenario{
	{
		Name:      "Bank Fraud Detection",
		Type:      "bank_fraud",
		Weight:    35,
		SessionID: "eval-bank-001",
		Turns: []string{
			"URGENT: Your SBI account has been compromised. Call us immediately or your account will be blocked in 2 hours!",
			"I'm calling from SBI Fraud Department. My employee ID is SBI-12345. What is your account number so I can verify?",
			"Yes sir, I found the issue. Your account number 1234567890123456 has been flagged. You need to share the OTP sent to your phone RIGHT NOW.",
			"For security, transfer Rs 5000 to this verified SBI account: 9876543210987654. This is just a verification hold.",
			"Sir please hurry! You can contact me back at +91-9876543210 if you need. But we must complete this now.",
			"Also, please send money via UPI to scammer.fraud@fakebank for the verification fee. Just Rs 999, it will be refunded.",
			"Sir, this is your last chance. The RBI has issued order RBI-002345 against your account. Act NOW.",
			"Fine. Here is my supervisor's number too: 9123456789. He will confirm the freeze if you call. Please cooperate.",
		},
		Planted: map[string][]string{
			"phoneNumbers": {"+919876543210", "9123456789"},
			"bankAccounts": {"1234567890123456", "9876543210987654"},
			"upiIds":       {"scammer.fraud@fakebank"},
			"caseIds":      {"SBI-12345", "RBI-002345"},
		},
	},
	{
		Name:      "UPI Fraud Multi-turn",
		Type:      "upi_fraud",
		Weight:    35,
		SessionID: "eval-upi-001",
		Turns: []string{
			"Congratulations! You've won Rs 50,000 cashback from PhonePe Lucky Draw! You are selected customer number 1047.",
			"To receive your prize, just send a small verification amount of Rs 99 to cashback.scam@fakeupi",
			"Our support agent is reachable at +91-8765432109. Please call to process your reward.",
			"For quick processing send to backup UPI also: winner.prize@upi, this ensures same-day credit.",
			"Your order ID is ORD-789456 which is tied to this lucky draw. Provide your UPI PIN to link your reward.",
			"We also need your registered email to send the certificate: claim.prize@winner-lottery.com, this is our official domain.",
			"Time is running out! Your winning entry expires in 30 mins. Your case reference is CASE-654321.",
			"Our official website: http://phonep3-cashback.lucky-prize.com/claim?user=1047 just login and claim!",
		},
		Planted: map[string][]string{
			"upiIds":         {"cashback.scam@fakeupi", "winner.prize@upi"},
			"phoneNumbers":   {"+918765432109"},
			"emailAddresses": {"claim.prize@winner-lottery.com"},
			"orderNumbers":   {"ORD-789456"},
			"caseIds":        {"CASE-654321"},
			"phishingLinks":  {"http://phonep3-cashback.lucky-prize.com/claim?user=1047"},
		},
	},
	{
		Name:      "Phishing Link Detection",
		Type:      "phishing",
		Weight:    30,
		SessionID: "eval-phishing-001",
		Turns: []string{
			"SPECIAL OFFER: Get iPhone 15 Pro at just Rs.999! Limited stock. Click now: http://amaz0n-deals.fake-site.com/claim?id=12345",
			"You can also email us for assistance: offers@fake-amazon-deals.com or support@amaz0n-help.net",
			"Call our customer care: +91-9988776655 to confirm your order. Use order ID ORD-IPHONE-001 when calling.",
			"For extra discount use policy code POL-GOLD-999 at checkout on our site.",
			"If the first link doesn't work try: http://bit.ly/fakeAmazon123 same offer!",
			"Your personal shopper helpline: 8877665544. Please call between 9am-9pm.",
			"To track your parcel visit http://tracking.amaz0n-fake.in/status?order=12345 and enter your details.",
			"Final reminder, offer ends today! Contact: scam.seller@gmail.com or visit our page.",
		},
		Planted: map[string][]string{
			"phishingLinks": {
				"http://amaz0n-deals.fake-site.com/claim?id=12345",
				"http://bit.ly/fakeAmazon123",
				"http://tracking.amaz0n-fake.in/status?order=12345",
			},
			"emailAddresses": {"offers@fake-amazon-deals.com", "support@amaz0n-help.net", "scam.seller@gmail.com"},
			"phoneNumbers":   {"+919988776655", "8877665544"},
			"orderNumbers":   {"ORD-IPHONE-001"},
			"policyNumbers":  {"POL-GOLD-999"},
		},
	},
}
