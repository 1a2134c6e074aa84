package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v6"
)

type Config struct {
	// HTTP
	Host           string        `env:"HOST" envDefault:"0.0.0.0"`
	Port           int           `env:"PORT" envDefault:"8000"`
	APIKey         string        `env:"HONEYPOT_API_KEY"`
	ExtraAPIKeys   []string      `env:"HONEYPOT_EXTRA_API_KEYS" envSeparator:","`
	APIKeysFile    string        `env:"HONEYPOT_API_KEYS_FILE"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"25s"`

	// LLM settings
	LLMProvider      string        `env:"LLM_PROVIDER" envDefault:"none"`
	OpenAIAPIKey     string        `env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string        `env:"OPENAI_BASE_URL"`
	OpenAIModel      string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	YandexOAuthToken string        `env:"YANDEX_OAUTH_TOKEN"`
	YandexFolderID   string        `env:"YANDEX_FOLDER_ID"`
	GeminiAPIKey     string        `env:"GEMINI_API_KEY"`
	GeminiModel      string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`
	LLMTimeout       time.Duration `env:"LLM_TIMEOUT" envDefault:"8s"`
	LLMRatePerSec    float64       `env:"LLM_RATE_PER_SEC" envDefault:"2"`
	LLMBurst         int           `env:"LLM_BURST" envDefault:"4"`
	LLMVerifyScams   bool          `env:"LLM_VERIFY_SCAMS" envDefault:"true"`

	// OpenRouter (optional)
	OpenRouterReferrer string `env:"OPENROUTER_REFERRER"`
	OpenRouterTitle    string `env:"OPENROUTER_TITLE"`

	// Prompts
	PersonaPromptPath string `env:"PERSONA_PROMPT_PATH"`

	// Final report delivery
	CallbackURL     string        `env:"CALLBACK_URL" envDefault:"https://hackathon.guvi.in/api/updateHoneyPotFinalResult"`
	CallbackTimeout time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"15s"`
	ReportMinTurns  int           `env:"REPORT_MIN_TURNS" envDefault:"2"`
	DispatchWorkers int           `env:"DISPATCH_WORKERS" envDefault:"2"`
	DispatchQueue   int           `env:"DISPATCH_QUEUE" envDefault:"64"`

	// Storage and jobs
	TranscriptPath string        `env:"TRANSCRIPT_PATH" envDefault:"logs/transcript.jsonl"`
	StatsCron      string        `env:"STATS_CRON" envDefault:"0 21 * * *"`
	SessionIdleTTL time.Duration `env:"SESSION_IDLE_TTL" envDefault:"0s"`

	// Optional Telegram channel
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN"`
	// Chat allowed to run /final <chat id>; 0 disables the command
	TelegramOperatorChatID int64 `env:"TELEGRAM_OPERATOR_CHAT_ID"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

func New() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to parse config: %v", err)
	}
	return cfg
}

// Load parses the environment and validates the result.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.LLMProvider {
	case "none", "", "openai", "yandex", "gemini":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT out of range: %d", c.Port)
	}
	if c.LLMTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT must be positive")
	}
	if c.CallbackTimeout <= 0 {
		return fmt.Errorf("CALLBACK_TIMEOUT must be positive")
	}
	if c.DispatchWorkers < 1 {
		return fmt.Errorf("DISPATCH_WORKERS must be at least 1")
	}
	if c.DispatchQueue < 1 {
		return fmt.Errorf("DISPATCH_QUEUE must be at least 1")
	}
	if c.ReportMinTurns < 1 {
		return fmt.Errorf("REPORT_MIN_TURNS must be at least 1")
	}
	if c.SessionIdleTTL < 0 {
		return fmt.Errorf("SESSION_IDLE_TTL must not be negative")
	}
	return nil
}

// APIKeys returns every accepted x-api-key value.
func (c *Config) APIKeys() []string {
	var out []string
	if c.APIKey != "" {
		out = append(out, c.APIKey)
	}
	for _, k := range c.ExtraAPIKeys {
		if k != "" {
			out = append(out, k)
		}
	}
	return out
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
