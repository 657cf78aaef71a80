package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-travel-concierge/app/httpclient"
	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

const (
	DefaultURL     = "https://api.open-meteo.com/v1/forecast"
	DefaultTimeout = 5 * time.Second

	extremeHeatCelsius = 38.0
	rainThresholdMM    = 0.5
)

var _ Gateway = (*OpenMeteoGateway)(nil)

// Gateway reports current conditions. It never fails: callers get the
// fallback reading when the provider is unreachable.
type Gateway interface {
	Current(ctx context.Context, lat, lon float64) types.WeatherReading
}

type OpenMeteoGateway struct {
	logger  *slog.Logger
	client  *http.Client
	baseURL string
}

func NewOpenMeteoGateway(baseURL string, timeout time.Duration, logger *slog.Logger) *OpenMeteoGateway {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &OpenMeteoGateway{
		logger:  logger,
		client:  httpclient.New(timeout),
		baseURL: baseURL,
	}
}

type openMeteoResponse struct {
	Current struct {
		Temperature   *float64 `json:"temperature_2m"`
		Precipitation *float64 `json:"precipitation"`
		WeatherCode   *int     `json:"weather_code"`
	} `json:"current"`
}

func (g *OpenMeteoGateway) Current(ctx context.Context, lat, lon float64) types.WeatherReading {
	ctx, span := otel.Tracer("WeatherGateway").Start(ctx, "Current", trace.WithAttributes(
		attribute.Float64("weather.lat", lat),
		attribute.Float64("weather.lon", lon),
	))
	defer span.End()

	l := g.logger.With(slog.String("method", "Current"))

	reading, err := g.fetch(ctx, lat, lon)
	if err != nil {
		l.WarnContext(ctx, "Weather provider unavailable, using fallback reading", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "weather fallback")
		return types.FallbackWeather()
	}

	span.SetAttributes(
		attribute.String("weather.condition", string(reading.Condition)),
		attribute.Bool("weather.raining", reading.IsRaining),
	)
	return reading
}

func (g *OpenMeteoGateway) fetch(ctx context.Context, lat, lon float64) (types.WeatherReading, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("current", "temperature_2m,precipitation,weather_code")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return types.WeatherReading{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return types.WeatherReading{}, fmt.Errorf("open-meteo request: %w", err)
	}
	defer resp.Body.Close()

	if err := httpclient.CheckStatus(resp); err != nil {
		return types.WeatherReading{}, err
	}

	var body openMeteoResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&body); err != nil {
		return types.WeatherReading{}, fmt.Errorf("decode open-meteo response: %w", err)
	}

	temp, precip, code := 25.0, 0.0, 0
	if body.Current.Temperature != nil {
		temp = *body.Current.Temperature
	}
	if body.Current.Precipitation != nil {
		precip = *body.Current.Precipitation
	}
	if body.Current.WeatherCode != nil {
		code = *body.Current.WeatherCode
	}
	return NewReading(temp, precip, code), nil
}

// NewReading derives the condition and flags from raw provider values.
func NewReading(temperature, precipitationMM float64, code int) types.WeatherReading {
	condition := ConditionForCode(code)
	return types.WeatherReading{
		Temperature:     temperature,
		Condition:       condition,
		PrecipitationMM: precipitationMM,
		IsRaining:       condition == types.ConditionRain || condition == types.ConditionDrizzle || precipitationMM > rainThresholdMM,
		IsExtremeHeat:   temperature > extremeHeatCelsius,
	}
}

// ConditionForCode maps a WMO weather interpretation code.
func ConditionForCode(code int) types.WeatherCondition {
	switch code {
	case 1, 2, 3:
		return types.ConditionPartlyCloudy
	case 45, 48:
		return types.ConditionFoggy
	case 51, 53, 55, 56, 57:
		return types.ConditionDrizzle
	case 61, 63, 65, 66, 67, 80, 81, 82:
		return types.ConditionRain
	case 71, 73, 75, 77, 85, 86:
		return types.ConditionSnow
	}
	if code >= 95 {
		return types.ConditionThunderstorm
	}
	return types.ConditionClear
}
