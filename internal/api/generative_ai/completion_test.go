package generativeAI

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-concierge/config"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestProviderRole(t *testing.T) {
	tests := []struct {
		in   types.MessageRole
		want types.MessageRole
	}{
		{types.RoleBot, types.RoleAssistant},
		{"BOT", types.RoleAssistant},
		{types.RoleAssistant, types.RoleAssistant},
		{types.RoleSystem, types.RoleSystem},
		{types.RoleUser, types.RoleUser},
		{"guest", types.RoleUser},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ProviderRole(tt.in), "role %q", tt.in)
	}
}

func TestNewCompletionProvider(t *testing.T) {
	p, err := NewCompletionProvider(context.Background(), config.LLMConfig{Provider: ""}, discard)
	require.NoError(t, err)
	assert.IsType(t, &NvidiaClient{}, p)

	_, err = NewCompletionProvider(context.Background(), config.LLMConfig{Provider: "gemini"}, discard)
	assert.ErrorContains(t, err, "GOOGLE_GEMINI_API_KEY")

	_, err = NewCompletionProvider(context.Background(), config.LLMConfig{Provider: "llamafile"}, discard)
	assert.ErrorContains(t, err, "unknown llm provider")
}

type chatCompletionBody struct {
	Model       string  `json:"model"`
	Temperature float32 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
	Messages    []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
}

func newNvidiaTestClient(t *testing.T, h http.HandlerFunc) *NvidiaClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewNvidiaClient(config.LLMConfig{
		BaseURL:     srv.URL + "/v1",
		APIKey:      "nvapi-test",
		ChatModel:   "meta/llama3-70b-instruct",
		Temperature: 0.5,
		MaxTokens:   1024,
		Timeout:     2 * time.Second,
	}, discard)
}

func TestNvidiaComplete(t *testing.T) {
	var got chatCompletionBody
	var gotPath, gotAuth string
	client := newNvidiaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Namaste! [BOOKING_STATE: {\"type\":\"taxi\"}]"},"finish_reason":"stop"}],"usage":{"prompt_tokens":10,"completion_tokens":5,"total_tokens":15}}`))
	})

	reply, err := client.Complete(context.Background(), CompletionRequest{
		System: "You are a concierge.",
		Messages: []types.ChatMessage{
			{Role: types.RoleUser, Content: "Hi"},
			{Role: types.RoleBot, Content: "Hello!"},
			{Role: types.RoleUser, Content: "Book a taxi"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, `Namaste! [BOOKING_STATE: {"type":"taxi"}]`, reply)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer nvapi-test", gotAuth)
	assert.Equal(t, "meta/llama3-70b-instruct", got.Model)
	assert.InDelta(t, 0.5, got.Temperature, 1e-6)
	assert.Equal(t, 1024, got.MaxTokens)
	require.Len(t, got.Messages, 4)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "You are a concierge.", got.Messages[0].Content)
	assert.Equal(t, "assistant", got.Messages[2].Role, "bot turns are sent as assistant")
}

func TestNvidiaCompleteOverrides(t *testing.T) {
	var got chatCompletionBody
	client := newNvidiaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Bonjour"}}]}`))
	})

	temp := float32(0.15)
	reply, err := client.Complete(context.Background(), CompletionRequest{
		System:      "You are a professional translator.",
		Messages:    []types.ChatMessage{{Role: types.RoleUser, Content: "Hello"}},
		Model:       "mistralai/mistral-large-3-675b-instruct-2512",
		Temperature: &temp,
		MaxTokens:   2048,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bonjour", reply)
	assert.Equal(t, "mistralai/mistral-large-3-675b-instruct-2512", got.Model)
	assert.InDelta(t, 0.15, got.Temperature, 1e-6)
	assert.Equal(t, 2048, got.MaxTokens)
}

func TestNvidiaCompleteFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "upstream error", status: http.StatusInternalServerError, body: `{"error":{"message":"boom","type":"server_error"}}`},
		{name: "unauthorised", status: http.StatusUnauthorized, body: `{"error":{"message":"bad key"}}`},
		{name: "no choices", status: http.StatusOK, body: `{"choices":[]}`},
		{name: "blank content", status: http.StatusOK, body: `{"choices":[{"message":{"role":"assistant","content":"  "}}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newNvidiaTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})
			_, err := client.Complete(context.Background(), CompletionRequest{
				Messages: []types.ChatMessage{{Role: types.RoleUser, Content: "Hi"}},
			})
			require.Error(t, err)
			assert.ErrorIs(t, err, types.ErrProviderUnavailable)
		})
	}
}

func TestGeminiComplete(t *testing.T) {
	var gotPath, gotKey string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-goog-api-key")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[{"text":"Try the Charminar at dusk."}]}}]}`))
	}))
	defer srv.Close()

	client, err := NewGeminiClient(context.Background(), config.LLMConfig{
		GeminiAPIKey:  "gm-test",
		GeminiBaseURL: srv.URL,
		Temperature:   0.5,
		MaxTokens:     512,
	}, discard)
	require.NoError(t, err)

	reply, err := client.Complete(context.Background(), CompletionRequest{
		System: "You are a concierge.",
		Messages: []types.ChatMessage{
			{Role: types.RoleUser, Content: "Hi"},
			{Role: types.RoleBot, Content: "Hello!"},
		},
		Model: "meta/llama3-70b-instruct",
	})
	require.NoError(t, err)
	assert.Equal(t, "Try the Charminar at dusk.", reply)
	assert.Equal(t, "/v1beta/models/gemini-2.0-flash:generateContent", gotPath)
	assert.Equal(t, "gm-test", gotKey)

	contents, ok := got["contents"].([]any)
	require.True(t, ok)
	require.Len(t, contents, 2)
	assert.Equal(t, "model", contents[1].(map[string]any)["role"])
	assert.Contains(t, got, "systemInstruction")
}
