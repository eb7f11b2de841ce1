package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AuditLog is an append-only record of billing mutations.
type AuditLog struct {
	ID         snowflake.ID      `gorm:"primaryKey"`
	OrgID      snowflake.ID      `gorm:"not null;index"`
	ActorType  string            `gorm:"type:text;not null;default:'system'"`
	ActorID    *string           `gorm:"type:text"`
	Action     string            `gorm:"type:text;not null;index"`
	TargetType string            `gorm:"type:text;not null"`
	TargetID   *string           `gorm:"type:text;index"`
	Metadata   datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt  time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AuditLog) TableName() string { return "audit_logs" }
