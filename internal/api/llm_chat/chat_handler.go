package llmChat

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/api"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

// maxAudioBytes bounds speech-to-text uploads.
const maxAudioBytes = 25 << 20

var _ Handler = (*HandlerImpl)(nil)

type Handler interface {
	SendMessage(w http.ResponseWriter, r *http.Request)
	ResetChat(w http.ResponseWriter, r *http.Request)
	Translate(w http.ResponseWriter, r *http.Request)
	SpeechToText(w http.ResponseWriter, r *http.Request)
	TextToSpeech(w http.ResponseWriter, r *http.Request)
}

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// SendMessage handles POST /chat/message.
func (h *HandlerImpl) SendMessage(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SendMessage", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/message"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SendMessage"))

	var req types.ChatRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		span.SetStatus(codes.Error, "Invalid request body")
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.HotelID == "" {
		span.SetStatus(codes.Error, "Missing hotel_id")
		api.ErrorResponse(w, r, http.StatusBadRequest, "hotel_id is required")
		return
	}
	if len(req.Messages) == 0 {
		span.SetStatus(codes.Error, "No messages")
		api.ErrorResponse(w, r, http.StatusBadRequest, "messages must not be empty")
		return
	}
	span.SetAttributes(attribute.String("app.hotel.id", req.HotelID))

	resp, err := h.service.ProcessMessage(ctx, req)
	if err != nil {
		l.ErrorContext(ctx, "Chat turn failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ServiceErrorResponse(w, r, err, "Failed to get response from AI model")
		return
	}

	span.SetStatus(codes.Ok, "Reply generated")
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// ResetChat handles POST /chat/reset.
func (h *HandlerImpl) ResetChat(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "ResetChat", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/reset"),
	))
	defer span.End()

	var req types.ResetRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.HotelID == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "hotel_id is required")
		return
	}

	if err := h.service.Reset(ctx, req.Session()); err != nil {
		h.logger.ErrorContext(ctx, "Reset failed", slog.String("handler", "ResetChat"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ServiceErrorResponse(w, r, err, "Failed to reset chat context")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
		"status":  "success",
		"message": "Chat context reset successfully",
	})
}

// Translate handles POST /chat/translate.
func (h *HandlerImpl) Translate(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "Translate", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/translate"),
	))
	defer span.End()

	var req types.TranslationRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	resp, err := h.service.Translate(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "Translation failed", slog.String("handler", "Translate"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ServiceErrorResponse(w, r, err, "Failed to get translation from AI model")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// SpeechToText handles POST /chat/audio/speech-to-text with a multipart "file" field.
func (h *HandlerImpl) SpeechToText(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "SpeechToText", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/audio/speech-to-text"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "SpeechToText"))

	r.Body = http.MaxBytesReader(w, r.Body, maxAudioBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		l.WarnContext(ctx, "Missing audio upload", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, "multipart field 'file' is required")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, "could not read audio upload")
		return
	}
	span.SetAttributes(
		attribute.String("app.audio.filename", header.Filename),
		attribute.Int("app.audio.bytes", len(audio)),
	)

	resp, err := h.service.Transcribe(ctx, audio)
	if err != nil {
		l.ErrorContext(ctx, "Transcription failed", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ServiceErrorResponse(w, r, err, "Failed to transcribe audio via AI model")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, resp)
}

// TextToSpeech handles POST /chat/audio/text-to-speech and answers with WAV bytes.
func (h *HandlerImpl) TextToSpeech(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("ChatHandler").Start(r.Context(), "TextToSpeech", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/chat/audio/text-to-speech"),
	))
	defer span.End()

	var req types.TTSRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	audio, err := h.service.Synthesize(ctx, req.Text)
	if err != nil {
		h.logger.ErrorContext(ctx, "Speech synthesis failed", slog.String("handler", "TextToSpeech"), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "Service error")
		api.ServiceErrorResponse(w, r, err, "Failed to synthesize speech via AI model")
		return
	}

	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(audio)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(audio); err != nil {
		h.logger.WarnContext(ctx, "Failed to write audio response", slog.Any("error", err))
	}
}
