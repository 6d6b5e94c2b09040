// Package domain defines the append-only audit log written on every
// attributed mutation of closing data.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Actions recorded by the closing engine.
const (
	ActionStatementCalculate = "statement.calculate"
	ActionStatementConfirm   = "statement.confirm"
	ActionStatementLock      = "statement.lock"
	ActionStatementUnlock    = "statement.unlock"
	ActionStatementUpload    = "statement.upload"
	ActionShortfallAnalyze   = "shortfall.analyze"
	ActionFeeScheduleCreate  = "fee_schedule.create"
	ActionFeeScheduleUpdate  = "fee_schedule.update"
	ActionSummaryRecompute   = "project.summary.recompute"
)

// AuditLog is one immutable audit row. Rows are inserted, never updated
// or deleted.
type AuditLog struct {
	ID snowflake.ID `gorm:"primaryKey"`

	ActorID   string `gorm:"type:text;not null"`
	ActorRole string `gorm:"type:text;not null"`

	Action     string `gorm:"type:text;not null;index"`
	TargetType string `gorm:"type:text;not null"`
	TargetID   string `gorm:"type:text;index"`

	Metadata datatypes.JSONMap `gorm:"type:jsonb"`

	CreatedAt time.Time `gorm:"not null;index"`
}

func (AuditLog) TableName() string { return "audit_logs" }

// AuditCursor is the keyset position for audit pagination.
type AuditCursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

// ListFilter narrows an audit listing.
type ListFilter struct {
	Action     string
	TargetType string
	TargetID   string
	ActorRole  string
	StartAt    *time.Time
	EndAt      *time.Time
	Cursor     *AuditCursor
	Limit      int
}
