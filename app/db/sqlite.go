package database

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenSQLite opens the embedded store used when repositories.driver is "sqlite"
// and auto-migrates the given models.
func OpenSQLite(dsn string, logger *slog.Logger, models ...any) (*gorm.DB, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = "concierge.db"
	}
	if err := ensureSQLiteDirectory(dsn); err != nil {
		return nil, err
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("Failed to open sqlite store", slog.String("dsn", dsn), slog.Any("error", err))
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// sqlite serialises writers; one connection also keeps ":memory:" databases shared.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite handle: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if len(models) > 0 {
		if err := db.AutoMigrate(models...); err != nil {
			logger.Error("Failed to migrate sqlite store", slog.Any("error", err))
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
	}
	logger.Info("SQLite store ready", slog.String("dsn", dsn))
	return db, nil
}

func ensureSQLiteDirectory(dsn string) error {
	if strings.Contains(strings.ToLower(dsn), ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	path := strings.TrimPrefix(dsn, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	dir := filepath.Dir(path)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create sqlite db dir: %w", err)
	}
	return nil
}
