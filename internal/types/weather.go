package types

type WeatherCondition string

const (
	ConditionClear        WeatherCondition = "Clear"
	ConditionPartlyCloudy WeatherCondition = "Partly Cloudy"
	ConditionFoggy        WeatherCondition = "Foggy"
	ConditionDrizzle      WeatherCondition = "Drizzle"
	ConditionRain         WeatherCondition = "Rain"
	ConditionSnow         WeatherCondition = "Snow"
	ConditionThunderstorm WeatherCondition = "Thunderstorm"
	ConditionFallback     WeatherCondition = "Clear (Fallback)"
)

// WeatherReading is a point-in-time snapshot for one coordinate.
type WeatherReading struct {
	Temperature     float64          `json:"temperature"`
	Condition       WeatherCondition `json:"condition"`
	PrecipitationMM float64          `json:"precipitation_mm"`
	IsRaining       bool             `json:"is_raining"`
	IsExtremeHeat   bool             `json:"is_extreme_heat"`
}

// FallbackWeather is served whenever the provider cannot be reached.
func FallbackWeather() WeatherReading {
	return WeatherReading{
		Temperature:     28.0,
		Condition:       ConditionFallback,
		PrecipitationMM: 0,
	}
}
