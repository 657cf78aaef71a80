package container

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	database "github.com/FACorreiaa/go-travel-concierge/app/db"
	"github.com/FACorreiaa/go-travel-concierge/config"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/booking"
	generativeAI "github.com/FACorreiaa/go-travel-concierge/internal/api/generative_ai"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/images"
	llmChat "github.com/FACorreiaa/go-travel-concierge/internal/api/llm_chat"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/places"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/weather"
	"github.com/FACorreiaa/go-travel-concierge/internal/api/zones"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	LockNone  = "none"
	LockLocal = "local"
	LockRedis = "redis"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *slog.Logger
	Pool   *pgxpool.Pool
	SQLite *gorm.DB
	Redis  *redis.Client

	ChatHandler    *llmChat.HandlerImpl
	ImagesHandler  *images.HandlerImpl
	BookingHandler *booking.HandlerImpl
	ZonesHandler   *zones.HandlerImpl
}

// stores are the repositories picked by repositories.driver.
type stores struct {
	booking booking.Repository
	chat    llmChat.Repository
}

// NewContainer initializes and returns a new dependency container
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Container, error) {
	c := &Container{Config: cfg, Logger: logger}

	repos, err := c.openStores(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	locker, err := c.newLocker(ctx)
	if err != nil {
		c.Close()
		return nil, err
	}

	completion, err := generativeAI.NewCompletionProvider(ctx, cfg.LLM, logger)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("completion provider: %w", err)
	}
	audio := generativeAI.NewNvidiaAudioClient(cfg.LLM, logger)

	bookingService := booking.NewServiceImpl(repos.booking, locker, cfg.Booking.FreshnessWindow, logger)
	c.BookingHandler = booking.NewHandlerImpl(bookingService, logger)

	imageService := images.NewServiceImpl(
		images.NewWikidataLookup(cfg.Images.WikidataURL, cfg.Images.Timeout),
		images.NewUnsplashSearch(cfg.Images.UnsplashAccessKey, cfg.Images.UnsplashAPIURL, cfg.Images.UnsplashPublicURL, cfg.Images.Timeout),
		images.LoremFlickr{BaseURL: cfg.Images.FallbackURL},
		cfg.Images.CacheTTL,
		logger,
	)
	c.ImagesHandler = images.NewHandlerImpl(imageService, logger)

	catalog := places.LoadCatalog(cfg.Places.DatasetPath, cfg.Places.PromptLimit, logger)

	chatService := llmChat.NewServiceImpl(completion, audio, bookingService, imageService, catalog, repos.chat, llmChat.Options{
		PublicBaseURL:    cfg.Server.PublicBaseURL,
		TranslationModel: cfg.LLM.TranslationModel,
		EagerImages:      cfg.Images.Eager,
	}, logger)
	c.ChatHandler = llmChat.NewHandlerImpl(chatService, logger)

	gateway := weather.NewOpenMeteoGateway(cfg.Weather.URL, cfg.Weather.Timeout, logger)
	zoneService := zones.NewServiceImpl(gateway, cfg.Zones, logger)
	c.ZonesHandler = zones.NewHandlerImpl(zoneService, cfg.Weather.DefaultLat, cfg.Weather.DefaultLon, logger)

	logger.Info("Container ready",
		slog.String("driver", c.driver()),
		slog.String("llm_provider", cfg.LLM.Provider),
		slog.Int("places", catalog.Len()),
	)
	return c, nil
}

func (c *Container) driver() string {
	d := strings.ToLower(strings.TrimSpace(c.Config.Repositories.Driver))
	if d == "" {
		return DriverPostgres
	}
	return d
}

func (c *Container) openStores(ctx context.Context) (stores, error) {
	switch c.driver() {
	case DriverSQLite:
		models := append(booking.GormModels(), llmChat.GormModels()...)
		db, err := database.OpenSQLite(c.Config.Repositories.SQLite.DSN, c.Logger, models...)
		if err != nil {
			return stores{}, err
		}
		c.SQLite = db
		return stores{
			booking: booking.NewGormBookingRepo(db, c.Logger),
			chat:    llmChat.NewGormRepository(db, c.Logger),
		}, nil

	case DriverPostgres:
		dbConfig, err := database.NewDatabaseConfig(c.Config, c.Logger)
		if err != nil {
			return stores{}, err
		}
		if err := database.RunMigrations(dbConfig.ConnectionURL, c.Logger); err != nil {
			return stores{}, err
		}
		pool, err := database.Init(dbConfig.ConnectionURL, c.Logger)
		if err != nil {
			return stores{}, err
		}
		c.Pool = pool
		if !database.WaitForDB(ctx, pool, c.Logger) {
			return stores{}, errors.New("database not ready")
		}
		return stores{
			booking: booking.NewPostgresBookingRepo(pool, c.Logger),
			chat:    llmChat.NewRepositoryImpl(pool, c.Logger),
		}, nil

	default:
		return stores{}, fmt.Errorf("unknown repositories.driver %q", c.Config.Repositories.Driver)
	}
}

func (c *Container) newLocker(ctx context.Context) (booking.Locker, error) {
	mode := strings.ToLower(strings.TrimSpace(c.Config.Booking.Lock))
	switch mode {
	case LockNone:
		c.Logger.Warn("Booking lock disabled; concurrent turns of one session may race")
		return booking.NoopLocker{}, nil
	case "", LockLocal:
		return booking.NewLocalLocker(), nil
	case LockRedis:
		rc := c.Config.Repositories.Redis
		client := redis.NewClient(&redis.Options{
			Addr:     rc.Addr,
			Password: rc.Password,
			DB:       rc.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping %s: %w", rc.Addr, err)
		}
		c.Redis = client
		return booking.NewRedisLocker(client, c.Config.Booking.LockTTL), nil
	default:
		return nil, fmt.Errorf("unknown booking.lock %q", c.Config.Booking.Lock)
	}
}

// Close releases all resources held by the container
func (c *Container) Close() {
	if c.Pool != nil {
		c.Pool.Close()
	}
	if c.SQLite != nil {
		if sqlDB, err := c.SQLite.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
