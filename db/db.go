package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/autora/contract-service/config"
	"github.com/autora/contract-service/models"
)

// Open connects to PostgreSQL with the pool tuned from config. TranslateError
// is on so unique-index violations surface as gorm.ErrDuplicatedKey.
func Open(cfg *config.Config) (*gorm.DB, error) {
	gormDB, err := gorm.Open(postgres.Open(cfg.GetDatabaseURL()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.Database.MaxLifetime)

	return gormDB, nil
}

// Migrate creates or updates the schema for all persisted entities.
func Migrate(gormDB *gorm.DB) error {
	return gormDB.AutoMigrate(
		&models.Contract{},
		&models.OutboxMessage{},
	)
}
