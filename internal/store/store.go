package store

import (
	"errors"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/safelens/veriscan/internal/config"
	"github.com/safelens/veriscan/internal/logger"
	"github.com/safelens/veriscan/internal/model"
)

// ErrNotFound is returned by lookups for rows that do not exist; handlers
// map it to 404.
var ErrNotFound = errors.New("record not found")

func Open(cfg config.DatabaseConfig, log *logger.Logger) (*gorm.DB, error) {
	log.Info("connecting to postgres", "host", cfg.Host, "db", cfg.Name)

	db, err := gorm.Open(postgres.Open(cfg.DSN()), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.Member{},
		&model.Verification{},
		&model.RiskDetail{},
	); err != nil {
		return fmt.Errorf("auto-migration failed: %w", err)
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
