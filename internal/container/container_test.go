package container

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-travel-concierge/config"
)

func sqliteConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Repositories.Driver = "sqlite"
	cfg.Repositories.SQLite.DSN = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	cfg.Booking.Lock = "local"
	cfg.LLM.Provider = "nvidia"
	cfg.Places.DatasetPath = t.TempDir() + "/missing.csv"
	return cfg
}

func TestNewContainerWithSQLite(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewContainer(context.Background(), sqliteConfig(t), logger)
	require.NoError(t, err)
	t.Cleanup(c.Close)

	assert.NotNil(t, c.SQLite)
	assert.Nil(t, c.Pool)
	assert.Nil(t, c.Redis)
	assert.NotNil(t, c.ChatHandler)
	assert.NotNil(t, c.ImagesHandler)
	assert.NotNil(t, c.BookingHandler)
	assert.NotNil(t, c.ZonesHandler)

	for _, table := range []string{"booking_state", "bookings", "chat_sessions", "conversations"} {
		assert.True(t, c.SQLite.Migrator().HasTable(table), table)
	}
}

func TestNewContainerRejectsUnknownSettings(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"driver", func(c *config.Config) { c.Repositories.Driver = "mongo" }, "repositories.driver"},
		{"lock", func(c *config.Config) { c.Booking.Lock = "etcd" }, "booking.lock"},
		{"provider", func(c *config.Config) { c.LLM.Provider = "llamafile" }, "llm provider"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := sqliteConfig(t)
			tt.mutate(cfg)
			_, err := NewContainer(context.Background(), cfg, logger)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
