package generativeAI

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-travel-concierge/app/httpclient"
	"github.com/FACorreiaa/go-travel-concierge/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-concierge/config"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

const DefaultGeminiModel = "gemini-2.0-flash"

var _ CompletionProvider = (*GeminiClient)(nil)

// GeminiClient serves completions from the Gemini API.
type GeminiClient struct {
	logger      *slog.Logger
	client      *genai.Client
	limiter     *rate.Limiter
	model       string
	temperature float32
	maxTokens   int32
}

func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*GeminiClient, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, errors.New("GOOGLE_GEMINI_API_KEY is not set")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	cc := &genai.ClientConfig{
		APIKey:     cfg.GeminiAPIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: httpclient.New(timeout),
	}
	if cfg.GeminiBaseURL != "" {
		cc.HTTPOptions.BaseURL = cfg.GeminiBaseURL
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	model := cfg.GeminiModel
	if model == "" {
		model = DefaultGeminiModel
	}
	return &GeminiClient{
		logger:      logger,
		client:      client,
		limiter:     newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (g *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	// Model names from the NVIDIA catalogue mean nothing to Gemini.
	if model == "" || strings.Contains(model, "/") {
		model = g.model
	}
	ctx, span := otel.Tracer("GeminiClient").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	if err := g.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return "", providerError("rate limiter", err)
	}

	cfg := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(g.temperature),
		MaxOutputTokens: g.maxTokens,
	}
	if req.Temperature != nil {
		cfg.Temperature = genai.Ptr(*req.Temperature)
	}
	if req.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, model, geminiContents(req.Messages), cfg)
	elapsed := time.Since(start)
	metrics.Get().CompletionDurationSeconds.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", ProviderGemini),
		attribute.Bool("success", err == nil),
	))
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini completion failed", slog.String("method", "Complete"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", providerError("gemini completion", err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		span.SetStatus(codes.Error, "empty completion")
		return "", providerError("gemini completion", errors.New("empty completion"))
	}
	span.SetStatus(codes.Ok, "")
	return text, nil
}

// geminiContents converts the transcript. Gemini has no system turns inside
// the conversation, so those are sent as user turns.
func geminiContents(messages []types.ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		role := genai.Role(genai.RoleUser)
		if ProviderRole(m.Role) == types.RoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, role))
	}
	return contents
}
