package db

import (
	"fmt"

	"github.com/rs/zerolog"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"smartgate-service/internal/config"
	"smartgate-service/internal/model"
)

// New opens the postgres connection and migrates the schema.
func New(cfg *config.Config, log zerolog.Logger) (*gorm.DB, error) {
	database, err := gorm.Open(postgres.Open(cfg.DB.DSN), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	sqlDB, err := database.DB()
	if err != nil {
		return nil, fmt.Errorf("access sql db: %w", err)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	if err := migrate(database); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Msg("database connected and migrated")
	return database, nil
}

func migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&model.User{},
		&model.UserCredential{},
		&model.Vehicle{},
		&model.Pass{},
		&model.PassApplication{},
		&model.RoleUpgradeRequest{},
		&model.Gate{},
		&model.AccessEvent{},
		&model.GuestSession{},
		&model.GuestRate{},
		&model.ClientRegistration{},
		&model.ClientProfile{},
		&model.WalletTransaction{},
		&model.Payment{},
		&model.ParkingVenue{},
		&model.Notification{},
	)
}
