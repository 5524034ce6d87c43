// Package testdb opens migrated in-memory SQLite databases for tests.
package testdb

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"villastay/internal/database"
	"villastay/internal/domain"
	"villastay/internal/repository"
)

var nameReplacer = strings.NewReplacer("/", "_", " ", "_", "#", "_")

// Open returns a fresh database private to t.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:villastay_%s?mode=memory&cache=shared", nameReplacer.Replace(t.Name()))
	db, err := database.ConnectWithConfig(dsn, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("failed to open sqlite db: %v", err)
	}
	if err := repository.AutoMigrate(db); err != nil {
		t.Fatalf("failed to migrate db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// SeedVilla inserts an active villa with the given id.
func SeedVilla(t testing.TB, db *gorm.DB, id int64) {
	t.Helper()
	v := &domain.Villa{ID: id, Name: fmt.Sprintf("Villa %d", id), IsActive: true}
	if err := repository.NewVillaRepository(db).Save(context.Background(), v); err != nil {
		t.Fatalf("failed to seed villa: %v", err)
	}
}
