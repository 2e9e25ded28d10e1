package entities

import (
	"time"

	"gorm.io/datatypes"
)

// RoomRecord is the persisted subscription of one user to one run: the job
// address, the conversation to notify and the last observed payload.
type RoomRecord struct {
	User         string         `gorm:"type:varchar(64);primaryKey"`
	Namespace    string         `gorm:"type:varchar(64);not null"`
	JobID        string         `gorm:"type:varchar(64);not null"`
	Conversation datatypes.JSON `gorm:"type:jsonb"`
	Payload      datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt    time.Time      `gorm:"autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"autoUpdateTime"`
}

func (RoomRecord) TableName() string {
	return "agent_rooms"
}
