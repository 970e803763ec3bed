package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which LLM provider to use.
	// Values: "anthropic", "openai", "gemini", "openrouter", "mock"
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds a single Generate call including retries.
	Timeout time.Duration
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey  string
	Model   string // Default: "claude-haiku"
	BaseURL string // Optional. Used by tests to point at a local server.
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Any OpenAI-compatible gateway.
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-3-flash-preview"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGemini,
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-3-flash-preview",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from PLACEPREP_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	setFromEnv(&cfg.Provider, "PLACEPREP_LLM_PROVIDER")

	setFromEnv(&cfg.Anthropic.APIKey, "PLACEPREP_ANTHROPIC_API_KEY")
	setFromEnv(&cfg.Anthropic.Model, "PLACEPREP_ANTHROPIC_MODEL")

	setFromEnv(&cfg.OpenAI.APIKey, "PLACEPREP_OPENAI_API_KEY")
	setFromEnv(&cfg.OpenAI.Model, "PLACEPREP_OPENAI_MODEL")
	setFromEnv(&cfg.OpenAI.BaseURL, "PLACEPREP_OPENAI_BASE_URL")

	setFromEnv(&cfg.Gemini.APIKey, "PLACEPREP_GEMINI_API_KEY")
	setFromEnv(&cfg.Gemini.Model, "PLACEPREP_GEMINI_MODEL")

	setFromEnv(&cfg.OpenRouter.APIKey, "PLACEPREP_OPENROUTER_API_KEY")
	setFromEnv(&cfg.OpenRouter.Model, "PLACEPREP_OPENROUTER_MODEL")
	setFromEnv(&cfg.OpenRouter.BaseURL, "PLACEPREP_OPENROUTER_BASE_URL")

	if t := os.Getenv("PLACEPREP_LLM_TIMEOUT"); t != "" {
		if d, err := time.ParseDuration(t); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

func setFromEnv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// DiscoverConfig checks the standard vendor API key variables in priority
// order (Gemini, OpenAI, Anthropic, OpenRouter) and returns a Config for
// the first provider whose key is found. Returns (Config{}, false) if none
// is set.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// ResolveConfig returns the PLACEPREP_* configuration when its provider is
// usable, and otherwise falls back to DiscoverConfig.
func ResolveConfig() (Config, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err == nil {
		return cfg, nil
	} else if os.Getenv("PLACEPREP_LLM_PROVIDER") != "" {
		return Config{}, err
	}
	if found, ok := DiscoverConfig(); ok {
		return found, nil
	}
	return Config{}, fmt.Errorf("no LLM provider configured: set PLACEPREP_LLM_PROVIDER or a provider API key")
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("PLACEPREP_ANTHROPIC_API_KEY is required for the anthropic provider")
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("PLACEPREP_OPENAI_API_KEY is required for the openai provider")
		}
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("PLACEPREP_GEMINI_API_KEY is required for the gemini provider")
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("PLACEPREP_OPENROUTER_API_KEY is required for the openrouter provider")
		}
	case ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}
