// Package config provides environment configuration for the API server.
package config

import (
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all configuration for the application.
type Config struct {
	// Server settings
	ServerPort         string        `env:"PORT" envDefault:"8080"`
	ServerReadTimeout  time.Duration `env:"SERVER_READ_TIMEOUT" envDefault:"30s"`
	ServerWriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" envDefault:"120s"`

	// Provider settings. ProviderOrder is the failover priority; providers
	// without credentials are skipped by the dispatcher.
	ProviderOrder   []string      `env:"PROVIDER_ORDER" envSeparator:"," envDefault:"groq,openai,anthropic"`
	GroqAPIKey      string        `env:"GROQ_API_KEY"`
	GroqBaseURL     string        `env:"GROQ_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	GroqModel       string        `env:"GROQ_MODEL" envDefault:"llama-3.3-70b-versatile"`
	OpenAIAPIKey    string        `env:"OPENAI_API_KEY"`
	OpenAIModel     string        `env:"OPENAI_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey string        `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string        `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-20241022"`
	ProviderTimeout time.Duration `env:"PROVIDER_TIMEOUT" envDefault:"20s"`

	// Session settings
	SessionTTL           time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	SessionSweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`
	SessionMaxTurns      int           `env:"SESSION_MAX_TURNS" envDefault:"40"`

	// Webhook settings. An empty secret disables signature verification.
	WebhookSecret string `env:"WEBHOOK_SECRET"`

	// Knowledge base collaborator. Empty base URL selects the in-memory store.
	KnowledgeBaseURL     string        `env:"KNOWLEDGE_BASE_URL"`
	KnowledgeBaseTimeout time.Duration `env:"KNOWLEDGE_BASE_TIMEOUT" envDefault:"10s"`

	// NATS event publishing. Empty URL disables publishing.
	NATSURL   string `env:"NATS_URL"`
	NATSToken string `env:"NATS_TOKEN"`

	// Optional JWT bearer auth for the chat API. Empty secret disables auth.
	JWTSecret string `env:"JWT_SECRET"`

	// Rate limiting
	RateLimitRequests int           `env:"RATE_LIMIT_REQUESTS" envDefault:"60"`
	RateLimitWindow   time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`

	// Logging
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Tracing
	TracingEnabled  bool   `env:"TRACING_ENABLED" envDefault:"false"`
	TracingEndpoint string `env:"TRACING_ENDPOINT" envDefault:"localhost:4318"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
