package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	appMiddleware "github.com/FACorreiaa/go-travel-concierge/app/middleware"
	"github.com/FACorreiaa/go-travel-concierge/internal/api"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/booking"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/images"
	llmChat "github.com/FACorreiaa/go-travel-concierge/internal/api/llm_chat"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/zones"
)

// Config contains dependencies needed for the router setup
type Config struct {
	ChatHandler    llmChat.Handler
	ImagesHandler  *images.HandlerImpl
	BookingHandler *booking.HandlerImpl
	ZonesHandler   *zones.HandlerImpl

	Environment    string
	AllowedOrigins []string
	// RequestsPerSecond throttles /api/v1 per client IP; zero disables it.
	RequestsPerSecond float64
	Burst             int
	Logger            *slog.Logger
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (like logger, requestID, recoverer) are expected
// to be applied *before* mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
			"message": "Welcome to the AI Concierge API. Systems operational.",
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		api.WriteJSONResponse(w, r, http.StatusOK, map[string]string{
			"status":      "ok",
			"environment": cfg.Environment,
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(appMiddleware.RateLimit(cfg.RequestsPerSecond, cfg.Burst, cfg.Logger))

		r.Route("/chat", func(r chi.Router) {
			r.Post("/message", cfg.ChatHandler.SendMessage)
			r.Post("/reset", cfg.ChatHandler.ResetChat)
			r.Post("/translate", cfg.ChatHandler.Translate)
			r.Post("/audio/speech-to-text", cfg.ChatHandler.SpeechToText)
			r.Post("/audio/text-to-speech", cfg.ChatHandler.TextToSpeech)
			r.Get("/recommendation-image", cfg.ImagesHandler.GetRecommendationImage)
		})

		r.Post("/booking/confirm", cfg.BookingHandler.ConfirmBooking)
		r.Get("/zones", cfg.ZonesHandler.GetZones)
	})

	return r
}
