package zones

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/internal/api/weather"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

type Service interface {
	ScoreAll(ctx context.Context, lat, lon float64) types.ZonesContext
}

type ServiceImpl struct {
	logger  *slog.Logger
	weather weather.Gateway
	zones   []types.ZoneStatic
}

// NewServiceImpl scores the given zones, or the built-in set when none are configured.
func NewServiceImpl(gateway weather.Gateway, zones []types.ZoneStatic, logger *slog.Logger) *ServiceImpl {
	if len(zones) == 0 {
		zones = DefaultZones()
	}
	return &ServiceImpl{
		logger:  logger,
		weather: gateway,
		zones:   zones,
	}
}

// ScoreAll fetches one reading and scores every zone against it.
func (s *ServiceImpl) ScoreAll(ctx context.Context, lat, lon float64) types.ZonesContext {
	ctx, span := otel.Tracer("ZonesService").Start(ctx, "ScoreAll", trace.WithAttributes(
		attribute.Int("zones.count", len(s.zones)),
	))
	defer span.End()

	reading := s.weather.Current(ctx, lat, lon)

	results := make([]types.ZoneResult, 0, len(s.zones))
	for _, z := range s.zones {
		results = append(results, Score(z, reading))
	}

	s.logger.DebugContext(ctx, "Zones scored",
		slog.String("method", "ScoreAll"),
		slog.String("condition", string(reading.Condition)),
		slog.Int("zones", len(results)),
	)
	return types.ZonesContext{WeatherContext: reading, Zones: results}
}

// DefaultZones is the district set served when configuration provides none.
func DefaultZones() []types.ZoneStatic {
	return []types.ZoneStatic{
		{ID: "old-town", Name: "Old Town", Safety: 85, Crowd: 60, Price: 50, Review: 90},
		{ID: "beach-district", Name: "Beach District", Safety: 90, Crowd: 70, Price: 65, Review: 85},
		{ID: "night-market", Name: "Night Market", Safety: 55, Crowd: 85, Price: 40, Review: 75},
		{ID: "industrial-quarter", Name: "Industrial Quarter", Safety: 30, Crowd: 20, Price: 80, Review: 25},
		{ID: "temple-district", Name: "Temple District", Safety: 95, Crowd: 45, Price: 55, Review: 95},
		{ID: "harbor-area", Name: "Harbor Area", Safety: 60, Crowd: 50, Price: 45, Review: 60},
	}
}
