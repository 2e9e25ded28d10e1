// Package renderconfig persists per-user render configuration documents.
package renderconfig

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/phizone/player-agent/internal/domain/renderconfig"
	"github.com/phizone/player-agent/internal/infrastructure/database/entities"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// Repository stores each user's configuration document as a JSONB blob; the
// schema lives in the domain layer, so column churn never follows a new
// property.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Load returns the user's document, or ErrConfigNotFound when the user has
// never saved one.
func (r *Repository) Load(ctx context.Context, user string) (domain.Document, error) {
	var entity entities.RenderConfig
	err := r.db.WithContext(ctx).Where(`"user" = ?`, user).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Document{}, domain.ErrConfigNotFound
		}
		return domain.Document{}, databaseError("failed to load render config", err)
	}

	var doc domain.Document
	if err := json.Unmarshal(entity.Document, &doc); err != nil {
		return domain.Document{}, databaseError("failed to decode render config", err)
	}
	return doc, nil
}

// Save creates or replaces the user's document.
func (r *Repository) Save(ctx context.Context, user string, doc domain.Document) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return databaseError("failed to encode render config", err)
	}

	entity := entities.RenderConfig{User: user, Document: data}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user"}},
			UpdateAll: true,
		}).
		Create(&entity).Error
	if err != nil {
		return databaseError("failed to save render config", err)
	}
	return nil
}

func databaseError(message string, err error) error {
	return platformerrors.NewError(platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError, message, err)
}
