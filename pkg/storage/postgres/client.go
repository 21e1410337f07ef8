package postgres

import (
	"context"
	"fmt"

	"patternscope/config"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type PostgresClient struct {
	DB *gorm.DB
}

func NewClient(dsn string) (*PostgresClient, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	return &PostgresClient{DB: db}, nil
}

// InitializeAndMigrate connects to Postgres, optionally creates the DB,
// applies pool limits, and runs AutoMigrate for the pattern table.
func InitializeAndMigrate(cfg config.PostgresConfig, createDB bool) (*PostgresClient, error) {
	if createDB {
		if err := CreateDatabase(cfg); err != nil {
			return nil, fmt.Errorf("failed to create database: %w", err)
		}
	}

	client, err := NewClient(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return prepare(client, cfg)
}

// prepare applies pool limits and migrates; it closes client on failure.
func prepare(client *PostgresClient, cfg config.PostgresConfig) (*PostgresClient, error) {
	sqlDB, err := client.DB.DB()
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to retrieve raw DB: %w", err)
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

	if err := client.AutoMigratePatternRecord(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	return client, nil
}

func (p *PostgresClient) AutoMigratePatternRecord() error {
	if err := p.DB.AutoMigrate(&PatternRecord{}); err != nil {
		return fmt.Errorf("auto-migrate pattern table: %w", err)
	}
	return nil
}

func (p *PostgresClient) IsHealthy(ctx context.Context) bool {
	db, err := p.DB.DB()
	if err != nil {
		return false
	}
	return db.PingContext(ctx) == nil
}

func (p *PostgresClient) Close() error {
	db, err := p.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to retrieve raw DB: %w", err)
	}
	return db.Close()
}
