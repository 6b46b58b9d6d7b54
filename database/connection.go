package database

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fletes-mx/cotizaciones-backend/internal/config"
	"github.com/fletes-mx/cotizaciones-backend/internal/models"
)

// Connect opens the Postgres connection described by cfg.
func Connect(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.InstanceConnectionName != "" {
		log.Info().Str("instance", cfg.InstanceConnectionName).Msg("connecting to Cloud SQL via socket")
	} else {
		log.Info().Str("host", cfg.Host).Msg("connecting to PostgreSQL")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql db")
	}
	sqlDB.SetMaxOpenConns(20)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	log.Info().Msg("database connected")
	return db, nil
}

// Migrate creates or updates every table the service uses.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Client{},
		&models.Destination{},
		&models.Origin{},
		&models.Administrator{},
		&models.VerificationCode{},
		&models.Quotation{},
	)
	return errors.Wrap(err, "auto migrate")
}
