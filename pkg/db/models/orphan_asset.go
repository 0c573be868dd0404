package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/vidora/vidora-backend/pkg/enums"
)

// OrphanAsset is a remote object left without a referencing record because a
// compensating or deletion-time remote delete failed.
type OrphanAsset struct {
	ID         uuid.UUID          `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	StorageKey string             `gorm:"column:storage_key;not null" json:"storage_key"`
	Kind       enums.MediaKind    `gorm:"column:kind;not null" json:"kind"`
	URL        string             `gorm:"column:url" json:"url"`
	Reason     enums.OrphanReason `gorm:"column:reason;not null" json:"reason"`
	Status     enums.OrphanStatus `gorm:"column:status;not null;default:pending" json:"status"`
	Attempts   int                `gorm:"column:attempts;not null;default:0" json:"attempts"`
	LastError  *string            `gorm:"column:last_error" json:"last_error,omitempty"`
	CreatedAt  time.Time          `gorm:"column:created_at;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time          `gorm:"column:updated_at;autoUpdateTime" json:"updated_at"`
	ResolvedAt *time.Time         `gorm:"column:resolved_at" json:"resolved_at,omitempty"`
}

func (OrphanAsset) TableName() string { return "orphan_assets" }
