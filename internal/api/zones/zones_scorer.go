package zones

import "github.com/FACorreiaa/go-travel-concierge/internal/types"

const (
	rainPenalty     = 30
	heatPenalty     = 40
	minWeatherCrowd = 10

	yellowFrom = 40
	greenFrom  = 70
)

// Score blends a zone's static attributes with the live reading.
//
// The composite is 0.4 safety + 0.2 weather + 0.2 review + 0.1 price +
// 0.1 (100 - crowd), truncated. It is computed in tenths so the truncation
// lands exactly on the band boundaries.
func Score(zone types.ZoneStatic, w types.WeatherReading) types.ZoneResult {
	weatherScore := 100
	if w.IsRaining {
		weatherScore -= rainPenalty
	}
	if w.IsExtremeHeat {
		weatherScore -= heatPenalty
	}
	weatherScore = clamp(weatherScore)

	crowd := zone.Crowd
	if w.IsRaining || w.IsExtremeHeat {
		crowd = max(minWeatherCrowd, zone.Crowd/2)
	}

	tenths := 4*zone.Safety + 2*weatherScore + 2*zone.Review + zone.Price + (100 - crowd)
	overall := clamp(tenths / 10)

	return types.ZoneResult{
		ID:           zone.ID,
		Name:         zone.Name,
		SafetyScore:  zone.Safety,
		CrowdScore:   crowd,
		WeatherScore: weatherScore,
		PriceScore:   zone.Price,
		ReviewScore:  zone.Review,
		Color:        Band(overall),
		OverallScore: overall,
	}
}

// Band maps an overall score onto its color.
func Band(overall int) types.ZoneColor {
	switch {
	case overall >= greenFrom:
		return types.ZoneGreen
	case overall >= yellowFrom:
		return types.ZoneYellow
	default:
		return types.ZoneRed
	}
}

func clamp(v int) int {
	return min(100, max(0, v))
}
