package types

type ZoneColor string

const (
	ZoneGreen  ZoneColor = "green"
	ZoneYellow ZoneColor = "yellow"
	ZoneRed    ZoneColor = "red"
)

// ZoneStatic holds the 0-100 attributes that do not depend on live conditions.
type ZoneStatic struct {
	ID     string `mapstructure:"id" json:"id"`
	Name   string `mapstructure:"name" json:"name"`
	Safety int    `mapstructure:"safety" json:"safety"`
	Crowd  int    `mapstructure:"crowd" json:"crowd"`
	Price  int    `mapstructure:"price" json:"price"`
	Review int    `mapstructure:"review" json:"review"`
}

type ZoneResult struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	SafetyScore  int       `json:"safetyScore"`
	CrowdScore   int       `json:"crowdScore"`
	WeatherScore int       `json:"weatherScore"`
	PriceScore   int       `json:"priceScore"`
	ReviewScore  int       `json:"reviewScore"`
	Color        ZoneColor `json:"color"`
	OverallScore int       `json:"overallScore"`
}

type ZonesContext struct {
	WeatherContext WeatherReading `json:"weather_context"`
	Zones          []ZoneResult   `json:"zones"`
}
