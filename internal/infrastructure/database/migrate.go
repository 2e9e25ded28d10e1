package database

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/phizone/player-agent/internal/infrastructure/database/entities"
)

// AutoMigrate applies database schema changes.
func AutoMigrate(ctx context.Context, db *gorm.DB, log zerolog.Logger) error {
	if err := db.WithContext(ctx).AutoMigrate(&entities.RoomRecord{}, &entities.RenderConfig{}); err != nil {
		return err
	}
	log.Info().Msg("applied agent schema migrations")
	return nil
}
