package metrics

import (
	"log"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// AppMetrics holds the application's metric instruments.
type AppMetrics struct {
	ChatTurnsTotal            metric.Int64Counter
	TagParseFailuresTotal     metric.Int64Counter
	ImageTierHitsTotal        metric.Int64Counter
	BookingTransitionsTotal   metric.Int64Counter
	CompletionDurationSeconds metric.Float64Histogram
}

var (
	appMetrics *AppMetrics
	once       sync.Once
)

// InitAppMetrics creates the instruments from the global MeterProvider once.
// Call it after the provider is installed so the instruments are exported.
func InitAppMetrics() {
	once.Do(func() {
		meter := otel.GetMeterProvider().Meter("TravelConcierge")
		var err error
		m := &AppMetrics{}

		m.ChatTurnsTotal, err = meter.Int64Counter(
			"chat_turns_total",
			metric.WithDescription("Chat turns processed, by outcome"),
			metric.WithUnit("{turn}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create chat_turns_total: %v", err)
		}

		m.TagParseFailuresTotal, err = meter.Int64Counter(
			"tag_parse_failures_total",
			metric.WithDescription("Structured tags found in model output that failed to decode"),
			metric.WithUnit("{tag}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create tag_parse_failures_total: %v", err)
		}

		m.ImageTierHitsTotal, err = meter.Int64Counter(
			"image_tier_hits_total",
			metric.WithDescription("Recommendation images resolved, by resolution tier"),
			metric.WithUnit("{image}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create image_tier_hits_total: %v", err)
		}

		m.BookingTransitionsTotal, err = meter.Int64Counter(
			"booking_transitions_total",
			metric.WithDescription("Booking state transitions, by step"),
			metric.WithUnit("{transition}"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create booking_transitions_total: %v", err)
		}

		m.CompletionDurationSeconds, err = meter.Float64Histogram(
			"llm_completion_duration_seconds",
			metric.WithDescription("Latency of LLM completion calls"),
			metric.WithUnit("s"),
		)
		if err != nil {
			log.Fatalf("Metrics: Failed to create llm_completion_duration_seconds: %v", err)
		}

		appMetrics = m
	})
}

// Get returns the instruments, creating them on first use. Before a real
// MeterProvider is installed the global no-op provider backs them.
func Get() *AppMetrics {
	InitAppMetrics()
	return appMetrics
}
