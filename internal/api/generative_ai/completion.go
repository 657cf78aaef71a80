package generativeAI

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-travel-concierge/config"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

const (
	ProviderNvidia = "nvidia"
	ProviderGemini = "gemini"

	DefaultCompletionTimeout = 30 * time.Second
	DefaultAudioTimeout      = 60 * time.Second
)

// CompletionRequest is one chat-completion call. Model and Temperature
// override the provider defaults when set.
type CompletionRequest struct {
	System      string
	Messages    []types.ChatMessage
	Model       string
	Temperature *float32
	MaxTokens   int
}

// CompletionProvider is an opaque chat-completion backend. Errors wrap
// types.ErrProviderUnavailable; callers do not retry.
type CompletionProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// AudioProvider turns speech into text and back.
type AudioProvider interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// NewCompletionProvider picks the backend named by cfg.Provider.
func NewCompletionProvider(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (CompletionProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderNvidia:
		return NewNvidiaClient(cfg, logger), nil
	case ProviderGemini:
		return NewGeminiClient(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// ProviderRole maps transcript roles onto the roles chat APIs accept.
func ProviderRole(role types.MessageRole) types.MessageRole {
	switch types.MessageRole(strings.ToLower(strings.TrimSpace(string(role)))) {
	case types.RoleBot, types.RoleAssistant:
		return types.RoleAssistant
	case types.RoleSystem:
		return types.RoleSystem
	default:
		return types.RoleUser
	}
}

func newLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

func providerError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, types.ErrProviderUnavailable, err)
}
