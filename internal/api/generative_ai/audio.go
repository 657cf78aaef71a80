package generativeAI

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/app/httpclient"
	"github.com/FACorreiaa/go-travel-concierge/config"
)

const (
	DefaultSTTModel = "nvidia/parakeet-rnnt-1.1b"
	DefaultTTSModel = "nvidia/fastpitch-hifi-gan"
	DefaultTTSVoice = "en-US-JennyNeural"

	transcriptionLanguage = "en"
)

var _ AudioProvider = (*NvidiaAudioClient)(nil)

// NvidiaAudioClient calls the speech endpoints, which take JSON bodies with
// base64 audio rather than the multipart uploads of the OpenAI audio API.
type NvidiaAudioClient struct {
	logger   *slog.Logger
	client   *http.Client
	baseURL  string
	apiKey   string
	sttModel string
	ttsModel string
	ttsVoice string
}

func NewNvidiaAudioClient(cfg config.LLMConfig, logger *slog.Logger) *NvidiaAudioClient {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultNvidiaBaseURL
	}
	timeout := cfg.AudioTimeout
	if timeout <= 0 {
		timeout = DefaultAudioTimeout
	}
	return &NvidiaAudioClient{
		logger:   logger,
		client:   httpclient.New(timeout),
		baseURL:  baseURL,
		apiKey:   cfg.APIKey,
		sttModel: orDefault(cfg.STTModel, DefaultSTTModel),
		ttsModel: orDefault(cfg.TTSModel, DefaultTTSModel),
		ttsVoice: orDefault(cfg.TTSVoice, DefaultTTSVoice),
	}
}

type transcriptionRequest struct {
	Model    string `json:"model"`
	Audio    string `json:"audio"`
	Language string `json:"language"`
}

type transcriptionResponse struct {
	Text *string `json:"text"`
}

func (a *NvidiaAudioClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	ctx, span := otel.Tracer("NvidiaAudioClient").Start(ctx, "Transcribe", trace.WithAttributes(
		attribute.String("llm.model", a.sttModel),
		attribute.Int("audio.bytes", len(audio)),
	))
	defer span.End()

	resp, err := a.post(ctx, "/audio/transcriptions", transcriptionRequest{
		Model:    a.sttModel,
		Audio:    base64.StdEncoding.EncodeToString(audio),
		Language: transcriptionLanguage,
	})
	if err != nil {
		return "", a.fail(ctx, span, "Transcribe", err)
	}
	defer resp.Body.Close()

	var body transcriptionResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, httpclient.MaxBodyBytes)).Decode(&body); err != nil {
		return "", a.fail(ctx, span, "Transcribe", fmt.Errorf("decode transcription: %w", err))
	}
	if body.Text == nil {
		return "", a.fail(ctx, span, "Transcribe", errors.New("transcription response has no text"))
	}
	span.SetStatus(codes.Ok, "")
	return *body.Text, nil
}

type speechRequest struct {
	Model string `json:"model"`
	Text  string `json:"text"`
	Voice string `json:"voice"`
}

type speechResponse struct {
	AudioContent string `json:"audioContent"`
}

// Synthesize returns WAV bytes. The endpoint answers either with raw audio
// or with JSON carrying base64 audioContent.
func (a *NvidiaAudioClient) Synthesize(ctx context.Context, text string) ([]byte, error) {
	ctx, span := otel.Tracer("NvidiaAudioClient").Start(ctx, "Synthesize", trace.WithAttributes(
		attribute.String("llm.model", a.ttsModel),
		attribute.Int("tts.chars", len(text)),
	))
	defer span.End()

	resp, err := a.post(ctx, "/audio/speech", speechRequest{Model: a.ttsModel, Text: text, Voice: a.ttsVoice})
	if err != nil {
		return nil, a.fail(ctx, span, "Synthesize", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, httpclient.MaxBodyBytes))
	if err != nil {
		return nil, a.fail(ctx, span, "Synthesize", fmt.Errorf("read speech: %w", err))
	}
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "audio/") {
		span.SetStatus(codes.Ok, "")
		return raw, nil
	}

	var body speechResponse
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, a.fail(ctx, span, "Synthesize", fmt.Errorf("decode speech: %w", err))
	}
	if body.AudioContent == "" {
		return nil, a.fail(ctx, span, "Synthesize", errors.New("speech response has no audioContent"))
	}
	audio, err := base64.StdEncoding.DecodeString(body.AudioContent)
	if err != nil {
		return nil, a.fail(ctx, span, "Synthesize", fmt.Errorf("decode audioContent: %w", err))
	}
	span.SetStatus(codes.Ok, "")
	return audio, nil
}

func (a *NvidiaAudioClient) post(ctx context.Context, path string, payload any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.apiKey)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	if err := httpclient.CheckStatus(resp); err != nil {
		resp.Body.Close()
		return nil, err
	}
	return resp, nil
}

func (a *NvidiaAudioClient) fail(ctx context.Context, span trace.Span, method string, err error) error {
	a.logger.ErrorContext(ctx, "Audio provider call failed", slog.String("method", method), slog.Any("error", err))
	span.RecordError(err)
	span.SetStatus(codes.Error, "audio call failed")
	return providerError("nvidia audio", err)
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
