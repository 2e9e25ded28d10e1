package entities

import (
	"time"

	"gorm.io/datatypes"
)

// RenderConfig is the persisted per-user render configuration document.
type RenderConfig struct {
	User      string         `gorm:"type:varchar(64);primaryKey"`
	Document  datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time      `gorm:"autoCreateTime"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime"`
}

func (RenderConfig) TableName() string {
	return "agent_configs"
}
