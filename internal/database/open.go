package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/productapp/catalog-backend/internal/config"
)

// Open connects the configured database driver. TranslateError is on so the
// repositories can match gorm.ErrDuplicatedKey across both drivers.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}
	switch cfg.DatabaseDriver {
	case "postgres":
		return gorm.Open(postgres.Open(cfg.DatabaseURL), gormCfg)
	case "sqlite":
		dsn := cfg.DatabaseURL
		if dsn == "" {
			dsn = "catalog.db"
		}
		return gorm.Open(sqlite.Open(dsn), gormCfg)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
	}
}
