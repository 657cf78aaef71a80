package llmChat

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

	"github.com/FACorreiaa/go-travel-concierge/app/observability/metrics"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/booking"
	generativeAI "github.com/FACorreiaa/go-travel-concierge/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/images"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/tags"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	// ProcessMessage runs one concierge turn and returns the reply with its
	// tags rewritten for the client.
	ProcessMessage(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error)
	// Reset drops the session's open booking negotiations.
	Reset(ctx context.Context, session types.Session) error
	Translate(ctx context.Context, req types.TranslationRequest) (*types.TranslationResponse, error)
	Transcribe(ctx context.Context, audio []byte) (*types.TranscriptionResponse, error)
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// PromptContext supplies grounding data for the system prompt.
type PromptContext interface {
	PromptContext() string
}

type Options struct {
	PublicBaseURL    string
	TranslationModel string
	// EagerImages resolves recommendation images before replying instead of
	// handing out proxy URLs.
	EagerImages bool
}

type ServiceImpl struct {
	logger     *slog.Logger
	completion generativeAI.CompletionProvider
	audio      generativeAI.AudioProvider
	bookings   booking.Service
	images     images.Service
	places     PromptContext
	repo       Repository
	opts       Options
	now        func() time.Time
}

func NewServiceImpl(
	completion generativeAI.CompletionProvider,
	audio generativeAI.AudioProvider,
	bookings booking.Service,
	imageService images.Service,
	places PromptContext,
	repo Repository,
	opts Options,
	logger *slog.Logger,
) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		completion: completion,
		audio:      audio,
		bookings:   bookings,
		images:     imageService,
		places:     places,
		repo:       repo,
		opts:       opts,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (s *ServiceImpl) ProcessMessage(ctx context.Context, req types.ChatRequest) (*types.ChatResponse, error) {
	session := req.Session()
	ctx, span := otel.Tracer("ChatService").Start(ctx, "ProcessMessage", trace.WithAttributes(
		attribute.String("session.tenant_id", session.TenantID),
		attribute.Int("chat.messages", len(req.Messages)),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "ProcessMessage"), slog.String("session", session.Key()))

	if strings.TrimSpace(session.TenantID) == "" {
		return nil, fmt.Errorf("hotel_id is required: %w", types.ErrInvalidInput)
	}

	if s.repo != nil {
		if err := s.repo.TouchSession(ctx, session); err != nil {
			l.WarnContext(ctx, "Could not record chat session", slog.Any("error", err))
		}
	}

	bookingContext, err := s.bookings.ActiveContext(ctx, session)
	if err != nil {
		l.WarnContext(ctx, "Could not load active booking", slog.Any("error", err))
		bookingContext = ""
	}

	datasetContext := ""
	if s.places != nil {
		datasetContext = s.places.PromptContext()
	}
	userLocation := ""
	if req.UserLocation != nil {
		userLocation = *req.UserLocation
	}

	reply, err := s.completion.Complete(ctx, generativeAI.CompletionRequest{
		System:   SystemPrompt(datasetContext, bookingContext, userLocation),
		Messages: req.Messages,
	})
	if err != nil {
		l.ErrorContext(ctx, "Completion failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		s.countTurn(ctx, "completion_error")
		return nil, fmt.Errorf("failed to get response from AI model: %w", err)
	}

	reply = s.applyTags(ctx, l, session, reply)
	s.logTurn(ctx, l, session, req.Messages, reply)
	s.countTurn(ctx, "ok")
	span.SetStatus(codes.Ok, "")
	return &types.ChatResponse{Response: reply}, nil
}

// applyTags honours the first recommendations and booking markers of the
// reply. Failures here are logged; the reply is always returned.
func (s *ServiceImpl) applyTags(ctx context.Context, l *slog.Logger, session types.Session, reply string) string {
	results := tags.ExtractAll(reply)

	var recommendations *tags.Result
	for i := range results {
		r := results[i]
		if r.Status == tags.ParseError {
			l.WarnContext(ctx, "Ignoring malformed tag", slog.String("kind", string(r.Kind)), slog.Any("error", r.Err))
			metrics.Get().TagParseFailuresTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", string(r.Kind))))
			continue
		}
		switch r.Kind {
		case tags.KindRecommendations:
			recommendations = &results[i]
		case tags.KindBookingState:
			payload, _ := r.BookingState()
			state, err := s.bookings.ApplyTag(ctx, session, payload)
			if err != nil {
				l.ErrorContext(ctx, "Failed to persist booking state", slog.Any("error", err))
				continue
			}
			l.InfoContext(ctx, "Booking state updated",
				slog.String("booking_id", state.ID.String()),
				slog.String("step", string(state.CurrentStep)))
		case tags.KindItineraryPlan:
			if plan, ok := r.Itinerary(); ok {
				l.InfoContext(ctx, "Itinerary planned",
					slog.String("destination", plan.Destination),
					slog.Int("days", plan.Days))
			}
		}
	}

	if recommendations == nil {
		return reply
	}
	cards, _ := recommendations.Recommendations()
	images.AssignSlots(s.opts.PublicBaseURL, cards)
	if s.opts.EagerImages && s.images != nil {
		if err := s.images.ResolveBatch(ctx, cards); err != nil {
			l.WarnContext(ctx, "Eager image resolution failed, keeping proxy URLs", slog.Any("error", err))
		}
	}
	rewritten, err := tags.Replace(reply, *recommendations, cards)
	if err != nil {
		l.ErrorContext(ctx, "Failed to rewrite recommendations", slog.Any("error", err))
		return reply
	}
	return rewritten
}

func (s *ServiceImpl) logTurn(ctx context.Context, l *slog.Logger, session types.Session, messages []types.ChatMessage, reply string) {
	if s.repo == nil {
		return
	}
	now := s.now()
	var entries []types.ConversationEntry
	if last, ok := lastUserMessage(messages); ok {
		entries = append(entries, types.ConversationEntry{Session: session, Role: types.RoleUser, Message: last, Timestamp: now})
	}
	entries = append(entries, types.ConversationEntry{Session: session, Role: types.RoleBot, Message: reply, Timestamp: now})
	if err := s.repo.AppendMessages(ctx, entries); err != nil {
		l.WarnContext(ctx, "Could not record conversation", slog.Any("error", err))
	}
}

func lastUserMessage(messages []types.ChatMessage) (string, bool) {
	for i := len(messages) - 1; i >= 0; i-- {
		if generativeAI.ProviderRole(messages[i].Role) == types.RoleUser {
			return messages[i].Content, true
		}
	}
	return "", false
}

func (s *ServiceImpl) countTurn(ctx context.Context, outcome string) {
	metrics.Get().ChatTurnsTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (s *ServiceImpl) Reset(ctx context.Context, session types.Session) error {
	if strings.TrimSpace(session.TenantID) == "" {
		return fmt.Errorf("hotel_id is required: %w", types.ErrInvalidInput)
	}
	return s.bookings.Reset(ctx, session)
}

func (s *ServiceImpl) Translate(ctx context.Context, req types.TranslationRequest) (*types.TranslationResponse, error) {
	ctx, span := otel.Tracer("ChatService").Start(ctx, "Translate", trace.WithAttributes(
		attribute.String("translation.target", req.TargetLanguage),
	))
	defer span.End()

	if strings.TrimSpace(req.Text) == "" || strings.TrimSpace(req.TargetLanguage) == "" {
		return nil, fmt.Errorf("text and target_language are required: %w", types.ErrInvalidInput)
	}

	temperature := translationTemperature
	out, err := s.completion.Complete(ctx, generativeAI.CompletionRequest{
		System:      translatorPrompt(req.TargetLanguage),
		Messages:    []types.ChatMessage{{Role: types.RoleUser, Content: req.Text}},
		Model:       s.opts.TranslationModel,
		Temperature: &temperature,
		MaxTokens:   translationMaxTokens,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "translation failed")
		return nil, fmt.Errorf("failed to get translation from AI model: %w", err)
	}
	return &types.TranslationResponse{TranslatedText: out}, nil
}

func (s *ServiceImpl) Transcribe(ctx context.Context, audio []byte) (*types.TranscriptionResponse, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio file is empty: %w", types.ErrInvalidInput)
	}
	if s.audio == nil {
		return nil, fmt.Errorf("speech-to-text: %w", types.ErrProviderUnavailable)
	}
	text, err := s.audio.Transcribe(ctx, audio)
	if err != nil {
		return nil, fmt.Errorf("failed to transcribe audio via AI model: %w", err)
	}
	return &types.TranscriptionResponse{Text: text}, nil
}

func (s *ServiceImpl) Synthesize(ctx context.Context, text string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text is required: %w", types.ErrInvalidInput)
	}
	if s.audio == nil {
		return nil, fmt.Errorf("text-to-speech: %w", types.ErrProviderUnavailable)
	}
	audio, err := s.audio.Synthesize(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech via AI model: %w", err)
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("failed to synthesize speech: %w", errors.Join(types.ErrProviderUnavailable, errors.New("empty audio")))
	}
	return audio, nil
}
