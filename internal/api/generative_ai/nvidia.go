package generativeAI

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-travel-concierge/app/httpclient"
	"github.com/FACorreiaa/go-travel-concierge/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-concierge/config"
)

const (
	DefaultNvidiaBaseURL = "https://integrate.api.nvidia.com/v1"
	DefaultNvidiaModel   = "meta/llama3-70b-instruct"
)

var _ CompletionProvider = (*NvidiaClient)(nil)

// NvidiaClient talks to NVIDIA's OpenAI-compatible chat completions API.
type NvidiaClient struct {
	logger      *slog.Logger
	client      *openai.Client
	limiter     *rate.Limiter
	model       string
	temperature float32
	maxTokens   int
}

func NewNvidiaClient(cfg config.LLMConfig, logger *slog.Logger) *NvidiaClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultNvidiaBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultCompletionTimeout
	}
	model := cfg.ChatModel
	if model == "" {
		model = DefaultNvidiaModel
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	oc.BaseURL = baseURL
	oc.HTTPClient = httpclient.New(timeout)

	return &NvidiaClient{
		logger:      logger,
		client:      openai.NewClientWithConfig(oc),
		limiter:     newLimiter(cfg.RequestsPerSecond, cfg.Burst),
		model:       model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}
}

func (c *NvidiaClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	model := req.Model
	if model == "" {
		model = c.model
	}
	ctx, span := otel.Tracer("NvidiaClient").Start(ctx, "Complete", trace.WithAttributes(
		attribute.String("llm.model", model),
		attribute.Int("llm.messages", len(req.Messages)),
	))
	defer span.End()

	l := c.logger.With(slog.String("method", "Complete"), slog.String("model", model))

	if err := c.limiter.Wait(ctx); err != nil {
		span.RecordError(err)
		return "", providerError("rate limiter", err)
	}

	temperature := c.temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}
	maxTokens := c.maxTokens
	if req.MaxTokens > 0 {
		maxTokens = req.MaxTokens
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: string(ProviderRole(m.Role)), Content: m.Content})
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
	})
	elapsed := time.Since(start)
	metrics.Get().CompletionDurationSeconds.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("provider", ProviderNvidia),
		attribute.Bool("success", err == nil),
	))
	if err != nil {
		l.ErrorContext(ctx, "Chat completion failed", slog.Any("error", err), slog.Duration("latency", elapsed))
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", providerError("nvidia completion", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		err := errors.New("empty completion")
		span.SetStatus(codes.Error, err.Error())
		return "", providerError("nvidia completion", err)
	}

	l.DebugContext(ctx, "Chat completion received",
		slog.Duration("latency", elapsed),
		slog.Int("total_tokens", resp.Usage.TotalTokens),
	)
	span.SetAttributes(attribute.Int("llm.total_tokens", resp.Usage.TotalTokens))
	span.SetStatus(codes.Ok, "")
	return resp.Choices[0].Message.Content, nil
}
