package llm

import (
	"context"
	"fmt"
	"time"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with retry and logging middleware. A nil
// sink disables event logging.
func NewProvider(ctx context.Context, cfg Config, sink EventSink) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// caller → timeout → retry → logging → base
	p := base
	if sink != nil {
		p = WithLogging(p, cfg.Provider, sink)
	}
	if cfg.Retry.MaxAttempts > 0 && cfg.Provider != ProviderMock {
		p = WithRetry(p, cfg.Retry)
	}
	if cfg.Timeout > 0 {
		p = WithTimeout(p, cfg.Timeout)
	}
	return p, nil
}

// NewProviderFromEnv resolves configuration from the environment and
// builds the provider.
func NewProviderFromEnv(ctx context.Context, sink EventSink) (Provider, error) {
	cfg, err := ResolveConfig()
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, sink)
}

// timeoutProvider bounds each Generate call, retries included.
type timeoutProvider struct {
	inner   Provider
	timeout time.Duration
}

// WithTimeout wraps a Provider so every call is cancelled after d.
func WithTimeout(p Provider, d time.Duration) Provider {
	return &timeoutProvider{inner: p, timeout: d}
}

func (t *timeoutProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, req)
}

func (t *timeoutProvider) ModelID() string {
	return t.inner.ModelID()
}
