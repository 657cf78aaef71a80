package weather

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

func newTestGateway(t *testing.T, h http.HandlerFunc, timeout time.Duration) *OpenMeteoGateway {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewOpenMeteoGateway(srv.URL, timeout, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestCurrent(t *testing.T) {
	var gotQuery map[string]string
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"latitude":  r.URL.Query().Get("latitude"),
			"longitude": r.URL.Query().Get("longitude"),
			"current":   r.URL.Query().Get("current"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"current":{"temperature_2m":39.5,"precipitation":0.2,"weather_code":63}}`))
	}, time.Second)

	reading := g.Current(context.Background(), 26.9124, 75.7873)

	assert.Equal(t, "26.9124", gotQuery["latitude"])
	assert.Equal(t, "75.7873", gotQuery["longitude"])
	assert.Equal(t, "temperature_2m,precipitation,weather_code", gotQuery["current"])
	assert.Equal(t, types.WeatherReading{
		Temperature:     39.5,
		Condition:       types.ConditionRain,
		PrecipitationMM: 0.2,
		IsRaining:       true,
		IsExtremeHeat:   true,
	}, reading)
}

func TestCurrentDefaultsMissingFields(t *testing.T) {
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"current":{}}`))
	}, time.Second)

	reading := g.Current(context.Background(), 1, 2)
	assert.Equal(t, 25.0, reading.Temperature)
	assert.Equal(t, types.ConditionClear, reading.Condition)
	assert.False(t, reading.IsRaining)
	assert.False(t, reading.IsExtremeHeat)
}

func TestCurrentFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}},
		{"malformed body", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"current":`))
		}},
		{"timeout", func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, tt.handler, 50*time.Millisecond)
			reading := g.Current(context.Background(), 0, 0)
			assert.Equal(t, types.FallbackWeather(), reading)
			assert.Equal(t, 28.0, reading.Temperature)
			assert.Equal(t, types.ConditionFallback, reading.Condition)
		})
	}
}

func TestConditionForCode(t *testing.T) {
	tests := map[int]types.WeatherCondition{
		0:  types.ConditionClear,
		2:  types.ConditionPartlyCloudy,
		48: types.ConditionFoggy,
		56: types.ConditionDrizzle,
		82: types.ConditionRain,
		86: types.ConditionSnow,
		95: types.ConditionThunderstorm,
		99: types.ConditionThunderstorm,
		10: types.ConditionClear,
	}
	for code, want := range tests {
		assert.Equal(t, want, ConditionForCode(code), "code %d", code)
	}
}

func TestNewReadingFlags(t *testing.T) {
	r := NewReading(30, 0.6, 0)
	require.True(t, r.IsRaining, "heavy precipitation counts as rain even with a clear code")
	assert.False(t, r.IsExtremeHeat)

	r = NewReading(38.0, 0, 53)
	assert.True(t, r.IsRaining)
	assert.False(t, r.IsExtremeHeat, "38 is not above the threshold")
}
