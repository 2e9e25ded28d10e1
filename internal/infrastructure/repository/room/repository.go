// Package room persists room records in PostgreSQL.
package room

import (
	"context"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	domain "github.com/phizone/player-agent/internal/domain/room"
	"github.com/phizone/player-agent/internal/domain/run"
	"github.com/phizone/player-agent/internal/domain/transport"
	"github.com/phizone/player-agent/internal/infrastructure/database/entities"
	"github.com/phizone/player-agent/internal/utils/platformerrors"
)

// Repository handles room record persistence. Records survive restarts so
// that runs submitted before a crash still get their notifications delivered
// by the reconciler.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Put creates or replaces the record for record.User.
func (r *Repository) Put(ctx context.Context, record domain.Record) error {
	entity, err := mapRecord(record)
	if err != nil {
		return err
	}
	err = r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user"}},
			UpdateAll: true,
		}).
		Create(&entity).Error
	if err != nil {
		return databaseError("failed to persist room record", err)
	}
	return nil
}

// Get retrieves the record for a user.
func (r *Repository) Get(ctx context.Context, user string) (domain.Record, error) {
	var entity entities.RoomRecord
	err := r.db.WithContext(ctx).Where(`"user" = ?`, user).First(&entity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Record{}, domain.ErrRoomNotFound
		}
		return domain.Record{}, databaseError("failed to get room record", err)
	}
	return mapEntity(entity)
}

// UpdatePayload updates the payload of an existing record. A missing record
// is a no-op.
func (r *Repository) UpdatePayload(ctx context.Context, user string, payload domain.Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return databaseError("failed to encode room payload", err)
	}
	err = r.db.WithContext(ctx).
		Model(&entities.RoomRecord{}).
		Where(`"user" = ?`, user).
		Update("payload", data).Error
	if err != nil {
		return databaseError("failed to update room payload", err)
	}
	return nil
}

// Delete retires the record for a user. Deleting an absent record is not an
// error.
func (r *Repository) Delete(ctx context.Context, user string) error {
	err := r.db.WithContext(ctx).Where(`"user" = ?`, user).Delete(&entities.RoomRecord{}).Error
	if err != nil {
		return databaseError("failed to delete room record", err)
	}
	return nil
}

// List returns all live records.
func (r *Repository) List(ctx context.Context) ([]domain.Record, error) {
	var rows []entities.RoomRecord
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, databaseError("failed to list room records", err)
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		record, err := mapEntity(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func mapRecord(record domain.Record) (entities.RoomRecord, error) {
	conversation, err := json.Marshal(record.Conversation)
	if err != nil {
		return entities.RoomRecord{}, databaseError("failed to encode room conversation", err)
	}
	payload, err := json.Marshal(record.Payload)
	if err != nil {
		return entities.RoomRecord{}, databaseError("failed to encode room payload", err)
	}
	return entities.RoomRecord{
		User:         record.User,
		Namespace:    record.Address.Namespace,
		JobID:        record.Address.JobID,
		Conversation: conversation,
		Payload:      payload,
	}, nil
}

func mapEntity(entity entities.RoomRecord) (domain.Record, error) {
	var conversation transport.ConversationRef
	if len(entity.Conversation) > 0 {
		if err := json.Unmarshal(entity.Conversation, &conversation); err != nil {
			return domain.Record{}, databaseError("failed to decode room conversation", err)
		}
	}
	var payload domain.Payload
	if len(entity.Payload) > 0 {
		if err := json.Unmarshal(entity.Payload, &payload); err != nil {
			return domain.Record{}, databaseError("failed to decode room payload", err)
		}
	}
	return domain.Record{
		User: entity.User,
		Address: run.JobAddress{
			Namespace: entity.Namespace,
			User:      entity.User,
			JobID:     entity.JobID,
		},
		Conversation: conversation,
		Payload:      payload,
	}, nil
}

func databaseError(message string, err error) error {
	return platformerrors.NewError(platformerrors.LayerRepository,
		platformerrors.ErrorTypeDatabaseError, message, err)
}
