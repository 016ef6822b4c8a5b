package db

import (
	"context"
	"fmt"
	"time"

	"github.com/hilthontt/spinwheel/internal/infrastructure/logging"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type PostgresConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// NewPostgres opens a bounded connection pool and pings it once.
func NewPostgres(ctx context.Context, cfg PostgresConfig, logger logging.Logger) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	database, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{
		Logger: NewGormLogger(logger, 200*time.Millisecond),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get postgres pool: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	logger.Info(logging.Postgres, logging.Startup, "connected to postgres", map[logging.ExtraKey]any{
		"max_open_conns": cfg.MaxOpenConns,
	})
	return database, nil
}

// Migrate creates or updates the tables for models.
func Migrate(database *gorm.DB, models ...any) error {
	if err := database.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func ClosePostgres(database *gorm.DB) error {
	if database == nil {
		return nil
	}
	sqlDB, err := database.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
