package config

import (
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config carries the process-level settings. Backend-specific knobs
// (audit store, transcript archive) stay with their packages' NewFromEnv
// constructors; this covers everything the CLI wires by hand.
type Config struct {
	Addr    string
	LLM     LLMConfig
	Confirm ConfirmConfig

	NATSURL        string
	AllowedOrigins []string
}

type LLMConfig struct {
	Provider string // gemini | openai | fake | off
	Model    string
	APIKey   string
	Endpoint string
	Timeout  time.Duration
}

type ConfirmConfig struct {
	TTL           time.Duration
	SweepInterval time.Duration
	Retention     time.Duration
}

const DefaultSweepInterval = 30 * time.Second

func Load() (*Config, error) {
	_ = godotenv.Load()

	addr := firstNonEmpty(strings.TrimSpace(os.Getenv("OPSGATE_ADDR")), ":8080")
	if !strings.HasPrefix(addr, ":") && !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &Config{
		Addr:           addr,
		LLM:            loadLLMConfig(),
		Confirm:        loadConfirmConfig(),
		NATSURL:        strings.TrimSpace(os.Getenv("NATS_URL")),
		AllowedOrigins: splitList(os.Getenv("CORS_ALLOWED_ORIGINS")),
	}, nil
}

func loadLLMConfig() LLMConfig {
	apiKey := firstNonEmpty(
		strings.TrimSpace(os.Getenv("LLM_API_KEY")),
		strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
	)
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		// No explicit provider: use gemini when a key is around,
		// otherwise run on rules alone.
		if apiKey != "" {
			provider = "gemini"
		} else {
			provider = "off"
		}
	}
	return LLMConfig{
		Provider: provider,
		Model:    strings.TrimSpace(os.Getenv("LLM_MODEL")),
		APIKey:   apiKey,
		Endpoint: strings.TrimSpace(os.Getenv("LLM_ENDPOINT")),
		Timeout:  envDuration("LLM_TIMEOUT", 0),
	}
}

func loadConfirmConfig() ConfirmConfig {
	return ConfirmConfig{
		TTL:           envDuration("CONFIRM_TTL", 0),
		SweepInterval: envDuration("CONFIRM_SWEEP_INTERVAL", DefaultSweepInterval),
		Retention:     envDuration("CONFIRM_RETENTION", 0),
	}
}

// envDuration parses key as a time.Duration, falling back to def when the
// variable is unset or malformed.
func envDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
