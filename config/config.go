package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/FACorreiaa/go-travel-concierge/internal/types"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode   string `mapstructure:"mode"`
	Dotenv string `mapstructure:"dotenv"`
	Server struct {
		HTTPPort      string        `mapstructure:"HTTPPort"`
		Timeout       time.Duration `mapstructure:"HTTPTimeout"`
		PublicBaseURL string        `mapstructure:"publicBaseURL"`
		RateLimit     struct {
			RequestsPerSecond float64 `mapstructure:"requestsPerSecond"`
			Burst             int     `mapstructure:"burst"`
		} `mapstructure:"rateLimit"`
	} `mapstructure:"server"`
	Handlers struct {
		Prometheus struct {
			Port string `mapstructure:"port"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	CORS struct {
		AllowedOrigins []string `mapstructure:"allowedOrigins"`
	} `mapstructure:"cors"`
	Repositories struct {
		// Driver selects the store for bookings and chat history: "postgres" or "sqlite".
		Driver string `mapstructure:"driver"`
		SQLite struct {
			DSN string `mapstructure:"dsn"`
		} `mapstructure:"sqlite"`
		Postgres struct {
			Host              string `mapstructure:"host"`
			Password          string `mapstructure:"password"`
			Port              string `mapstructure:"port"`
			Username          string `mapstructure:"username"`
			DB                string `mapstructure:"db"`
			SSLMODE           string `mapstructure:"SSLMODE"`
			MAXCONWAITINGTIME int    `mapstructure:"MAXCONWAITINGTIME"`
		} `mapstructure:"postgres"`
		Redis struct {
			Addr     string `mapstructure:"addr"`
			Password string `mapstructure:"password"`
			DB       int    `mapstructure:"db"`
		} `mapstructure:"redis"`
	} `mapstructure:"repositories"`
	LLM     LLMConfig          `mapstructure:"llm"`
	Images  ImagesConfig       `mapstructure:"images"`
	Weather WeatherConfig      `mapstructure:"weather"`
	Booking BookingConfig      `mapstructure:"booking"`
	Places  PlacesConfig       `mapstructure:"places"`
	Zones   []types.ZoneStatic `mapstructure:"zones"`
}

type LLMConfig struct {
	Provider          string        `mapstructure:"provider"`
	BaseURL           string        `mapstructure:"baseURL"`
	APIKey            string        `mapstructure:"apiKey"`
	GeminiAPIKey      string        `mapstructure:"geminiAPIKey"`
	GeminiBaseURL     string        `mapstructure:"geminiBaseURL"`
	ChatModel         string        `mapstructure:"chatModel"`
	TranslationModel  string        `mapstructure:"translationModel"`
	GeminiModel       string        `mapstructure:"geminiModel"`
	STTModel          string        `mapstructure:"sttModel"`
	TTSModel          string        `mapstructure:"ttsModel"`
	TTSVoice          string        `mapstructure:"ttsVoice"`
	Temperature       float32       `mapstructure:"temperature"`
	MaxTokens         int           `mapstructure:"maxTokens"`
	Timeout           time.Duration `mapstructure:"timeout"`
	AudioTimeout      time.Duration `mapstructure:"audioTimeout"`
	RequestsPerSecond float64       `mapstructure:"requestsPerSecond"`
	Burst             int           `mapstructure:"burst"`
}

type ImagesConfig struct {
	UnsplashAccessKey string        `mapstructure:"unsplashAccessKey"`
	UnsplashAPIURL    string        `mapstructure:"unsplashAPIURL"`
	UnsplashPublicURL string        `mapstructure:"unsplashPublicURL"`
	WikidataURL       string        `mapstructure:"wikidataURL"`
	FallbackURL       string        `mapstructure:"fallbackURL"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cacheTTL"`
	Eager             bool          `mapstructure:"eager"`
}

type WeatherConfig struct {
	URL        string        `mapstructure:"url"`
	Timeout    time.Duration `mapstructure:"timeout"`
	DefaultLat float64       `mapstructure:"defaultLat"`
	DefaultLon float64       `mapstructure:"defaultLon"`
}

type BookingConfig struct {
	FreshnessWindow time.Duration `mapstructure:"freshnessWindow"`
	// Lock is one of "none", "local" or "redis".
	Lock    string        `mapstructure:"lock"`
	LockTTL time.Duration `mapstructure:"lockTTL"`
}

type PlacesConfig struct {
	DatasetPath string `mapstructure:"datasetPath"`
	PromptLimit int    `mapstructure:"promptLimit"`
}

// secretEnv maps config keys to the environment variables deployments already use.
var secretEnv = map[string]string{
	"llm.apiKey":                 "NVIDIA_API_KEY",
	"llm.geminiAPIKey":           "GOOGLE_GEMINI_API_KEY",
	"images.unsplashAccessKey":   "UNSPLASH_ACCESS_KEY",
	"repositories.postgres.host": "POSTGRES_HOST",
	"repositories.redis.addr":    "REDIS_ADDR",
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")
	v.AddConfigPath("/usr/local/bin")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range secretEnv {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("failed to bind %s: %w", env, err)
		}
	}

	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %w", err)
		}
	}

	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	fmt.Println("Successfully loaded app configs...")
	return config, nil
}
