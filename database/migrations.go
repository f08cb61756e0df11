package database

import (
	"notepin/notepin/models"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// RunMigrations runs database migrations to ensure tables are up to date
func RunMigrations(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.Note{},
		&models.Event{},
	)

	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		return err
	}

	return nil
}
