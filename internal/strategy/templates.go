package strategy

import "scam-honeypot/internal/detect"

var confusedLines = []string{
	"Oh dear, I'm quite confused. Could you explain that again more clearly?",
	"Wait wait wait, I didn't understand that. Can you say it differently?",
	"Sorry beta, I'm not good with all this. What exactly do you need?",
	"Hmm, I'm not following. Can you slow down a bit and explain step by step?",
	"I'm getting worried now. What exactly has happened to my account?",
	"Arre yaar, I'm an old man, these things confuse me terribly. Explain again?",
}

var cooperativeLines = []string{
	"Okay, okay, I want to fix this. Please tell me exactly what to do.",
	"I see, this sounds serious. What information do you need from me?",
	"Alright, I trust you. What are the next steps I should follow?",
	"Yes yes, I want to cooperate. How can I help resolve this?",
	"I'm trying my best. What should I do now?",
}

var stallingLines = []string{
	"Let me see... where did I keep that passbook? Can you hold on a moment?",
	"Just give me a minute, I need to find my phone. It's somewhere here...",
	"I'm trying to remember. My memory isn't what it used to be. What was that again?",
	"Hold on, my spectacles are missing. Can you repeat that slowly?",
	"I'm checking right now. The phone is loading so slow these days...",
}

var elicitationLines = []string{
	"Can you give me your employee ID so I can verify you are genuine?",
	"Which branch are you calling from? What is the branch address?",
	"Can you share your official phone number so I can call you back?",
	"What is the exact department name so I can cross-check?",
	"Can you give me your supervisor's name and number? I want to verify.",
	"Is there an official website I can check your details on?",
	"What is the case number for this matter?",
	"Can you send an official email to confirm before I share anything?",
}

var phoneProbeLines = []string{
	"You want me to call you back? What is your official number?",
	"Before I do anything, please give me your direct phone number.",
	"What callback number should I use if I get disconnected?",
}

var linkSkepticLines = []string{
	"That link is not opening on my phone. Can you please send it again?",
	"I'm not sure I should click that. Is there an official website I can type in myself?",
	"My internet is slow. What happens when I click that link?",
	"I clicked it but nothing happened. What exactly should appear on the screen?",
}

var redFlagLines = []string{
	"Why is this so urgent? Legitimate banks usually send a proper notice.",
	"Real officers don't usually ask for OTP over a call. Are you sure this is proper?",
	"I've heard about scams like this. How can I be sure you are genuine?",
	"My son told me never to share OTP with anyone. Why do you need it?",
	"Why are you asking for money? Real banks never ask customers to pay fees.",
	"This seems unusual. Can I come to the branch directly instead?",
}

const (
	identityDemand  = "Before I do anything, please confirm: what is your full name, employee ID, and official phone number?"
	moneyPushback   = "Wait, you want me to send money? Real officials never ask for fees upfront!"
	neutralGreeting = "Hello, how can I help you today? May I know your name?"
)

var typeProbeLines = map[detect.Type][]string{
	detect.BankFraud: {
		"Which specific branch is this call from? Can you give the branch address?",
		"Is my account still showing in my mobile banking? Let me check...",
		"Should I visit the branch personally to resolve this?",
		"Can I speak with your supervisor, the branch manager, to confirm this?",
	},
	detect.UPIFraud: {
		"I don't know my UPI ID. How do I find it?",
		"I use Google Pay, is that the same as UPI?",
		"What happens if I send a test amount of 1 rupee first?",
		"Why do you need my UPI PIN? I thought you said you would send money TO me?",
	},
	detect.Phishing: {
		"That website address looks strange. It doesn't look like the real bank site.",
		"I'm scared to click unknown links. Can you dictate the contents to me?",
		"My grandson says never click links from unknown callers. Why is this safe?",
		"Hmm, what is my login ID for that site exactly?",
	},
	detect.LotteryFraud: {
		"I don't remember entering any lottery. Which lottery was this exactly?",
		"Why do I need to pay any fee if I have won? That sounds wrong.",
		"Can you send the official winning certificate by post first?",
		"What is the lottery company's registered address?",
	},
	detect.TaxFraud: {
		"My CA files my returns. Which tax office is this from, and what is the reference number?",
		"A tax refund? Can you send the notice to my email so my son can read it?",
	},
	detect.CustomsFraud: {
		"I am not expecting any parcel. Who is the sender, and what is the case number?",
		"Which customs office is holding it? What is the department name?",
	},
	detect.InsuranceFraud: {
		"Which policy is this about? My policy papers are in the almirah.",
		"Can I call the insurance office myself? What is the official number?",
	},
	detect.JobFraud: {
		"Which company is hiring? Do you have an official website?",
		"Why must I pay to join a job? Can you give me your supervisor's name?",
	},
}

// elicitationPhrases is the closed list of identity-eliciting phrases. A
// reply containing any of them counts as an elicitation attempt.
var elicitationPhrases = []string{
	"employee id", "phone number", "official number", "your name",
	"branch address", "supervisor", "case number", "reference number",
	"official website", "callback number", "email", "department name",
}

var (
	linkCues    = []string{"link", "click", "url", "website", "http"}
	contactCues = []string{"phone", "number", "call", "contact"}
	urgencyCues = []string{"urgent", "quickly", "fast", "immediately", "asap"}
	secretCues  = []string{"otp", "pin", "cvv", "password"}
	moneyCues   = []string{"send money", "transfer", "deposit", "fee"}
)
