package database

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/driver/postgres"
	gormsqlite "gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	_ "modernc.org/sqlite"
)

func Connect(dsn string) (*gorm.DB, error) {
	return ConnectWithConfig(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
}

func ConnectWithConfig(dsn string, cfg *gorm.Config) (*gorm.DB, error) {
	if IsPostgresDSN(dsn) {
		slog.Info("database_connect", "driver", "postgres")
		return gorm.Open(postgres.Open(dsn), cfg)
	}

	slog.Info("database_connect", "driver", "sqlite", "dsn", dsn)

	db, err := gorm.Open(
		gormsqlite.New(gormsqlite.Config{
			DriverName: "sqlite",
			DSN:        dsn,
		}),
		cfg,
	)
	if err != nil {
		return nil, err
	}

	// SQLite allows one writer; a single connection keeps transactions from
	// tripping over "database is locked".
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("sqlite pool: %w", err)
	}
	sqlDB.SetMaxOpenConns(1)

	return db, nil
}

func IsPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}
