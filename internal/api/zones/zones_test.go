package zones

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

type MockWeatherGateway struct {
	mock.Mock
}

func (m *MockWeatherGateway) Current(ctx context.Context, lat, lon float64) types.WeatherReading {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(types.WeatherReading)
}

var (
	sunny = types.WeatherReading{Temperature: 30, Condition: types.ConditionClear}
	rain  = types.WeatherReading{Temperature: 24, Condition: types.ConditionRain, PrecipitationMM: 3, IsRaining: true}
	heat  = types.WeatherReading{Temperature: 42, Condition: types.ConditionClear, IsExtremeHeat: true}
	storm = types.WeatherReading{Temperature: 40, Condition: types.ConditionRain, IsRaining: true, IsExtremeHeat: true}
)

func TestScore(t *testing.T) {
	oldTown := types.ZoneStatic{ID: "old-town", Name: "Old Town", Safety: 85, Crowd: 60, Price: 50, Review: 90}

	tests := []struct {
		name        string
		zone        types.ZoneStatic
		weather     types.WeatherReading
		wantWeather int
		wantCrowd   int
		wantOverall int
		wantColor   types.ZoneColor
	}{
		{"sunny day", oldTown, sunny, 100, 60, 81, types.ZoneGreen},
		{"raining halves the crowd", oldTown, rain, 70, 30, 78, types.ZoneGreen},
		{"extreme heat", oldTown, heat, 60, 30, 76, types.ZoneGreen},
		{"rain and heat", oldTown, storm, 30, 30, 70, types.ZoneGreen},
		{"crowd floor under bad weather", types.ZoneStatic{Safety: 50, Crowd: 15, Price: 50, Review: 50}, rain, 70, 10, 58, types.ZoneYellow},
		{"boundary 70 is green", types.ZoneStatic{Safety: 50, Crowd: 0, Price: 0, Review: 100}, sunny, 100, 0, 70, types.ZoneGreen},
		{"boundary 69 is yellow", types.ZoneStatic{Safety: 50, Crowd: 1, Price: 0, Review: 100}, sunny, 100, 1, 69, types.ZoneYellow},
		{"boundary 40 is yellow", types.ZoneStatic{Safety: 0, Crowd: 100, Price: 0, Review: 100}, sunny, 100, 100, 40, types.ZoneYellow},
		{"boundary 39 is red", types.ZoneStatic{Safety: 0, Crowd: 100, Price: 0, Review: 99}, sunny, 100, 100, 39, types.ZoneRed},
		{"industrial quarter", types.ZoneStatic{Safety: 30, Crowd: 20, Price: 80, Review: 25}, sunny, 100, 20, 53, types.ZoneYellow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Score(tt.zone, tt.weather)
			assert.Equal(t, tt.wantWeather, got.WeatherScore, "weather score")
			assert.Equal(t, tt.wantCrowd, got.CrowdScore, "adjusted crowd")
			assert.Equal(t, tt.wantOverall, got.OverallScore, "overall")
			assert.Equal(t, tt.wantColor, got.Color)
			assert.Equal(t, tt.zone.Safety, got.SafetyScore)
			assert.Equal(t, tt.zone.Review, got.ReviewScore)
		})
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	for _, z := range DefaultZones() {
		assert.Equal(t, Score(z, rain), Score(z, rain))
	}
}

func TestBand(t *testing.T) {
	assert.Equal(t, types.ZoneRed, Band(0))
	assert.Equal(t, types.ZoneRed, Band(39))
	assert.Equal(t, types.ZoneYellow, Band(40))
	assert.Equal(t, types.ZoneYellow, Band(69))
	assert.Equal(t, types.ZoneGreen, Band(70))
	assert.Equal(t, types.ZoneGreen, Band(100))
}

func setupZonesTest() (*ServiceImpl, *MockWeatherGateway) {
	gw := new(MockWeatherGateway)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServiceImpl(gw, nil, logger), gw
}

func TestScoreAllSharesOneReading(t *testing.T) {
	svc, gw := setupZonesTest()
	gw.On("Current", mock.Anything, 26.9124, 75.7873).Return(rain).Once()

	out := svc.ScoreAll(context.Background(), 26.9124, 75.7873)

	require.Len(t, out.Zones, len(DefaultZones()))
	assert.Equal(t, rain, out.WeatherContext)
	assert.Equal(t, "old-town", out.Zones[0].ID)
	assert.Equal(t, 78, out.Zones[0].OverallScore)
	gw.AssertNumberOfCalls(t, "Current", 1)
}

func TestGetZonesHandler(t *testing.T) {
	svc, gw := setupZonesTest()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHandlerImpl(svc, 26.9124, 75.7873, logger)

	t.Run("defaults to the configured coordinate", func(t *testing.T) {
		gw.On("Current", mock.Anything, 26.9124, 75.7873).Return(sunny).Once()
		rr := httptest.NewRecorder()
		h.GetZones(rr, httptest.NewRequest(http.MethodGet, "/api/v1/zones", nil))

		require.Equal(t, http.StatusOK, rr.Code)
		var body types.ZonesContext
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
		assert.Equal(t, types.ConditionClear, body.WeatherContext.Condition)
		assert.Equal(t, 81, body.Zones[0].OverallScore)
		assert.Contains(t, rr.Body.String(), `"overallScore":81`)
	})

	t.Run("explicit coordinate", func(t *testing.T) {
		gw.On("Current", mock.Anything, 15.2993, 74.124).Return(heat).Once()
		rr := httptest.NewRecorder()
		h.GetZones(rr, httptest.NewRequest(http.MethodGet, "/api/v1/zones?lat=15.2993&lon=74.124", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("bad latitude", func(t *testing.T) {
		rr := httptest.NewRecorder()
		h.GetZones(rr, httptest.NewRequest(http.MethodGet, "/api/v1/zones?lat=north", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	gw.AssertExpectations(t)
}
