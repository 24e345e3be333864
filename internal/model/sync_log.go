package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SyncStatusRunning = "RUNNING"
	SyncStatusSuccess = "SUCCESS"
	SyncStatusPartial = "PARTIAL"
	SyncStatusFailed  = "FAILED"
)

// SyncLog records the outcome of one config-import run: aggregate counts and
// a terminal status, so operators can see when the last successful sync of a
// tenant happened and which resource types were skipped.
type SyncLog struct {
	ID                uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID          uuid.UUID  `json:"tenant_id" gorm:"index;not null"`
	Product           string     `json:"product" gorm:"size:32;not null"`
	StartedAt         time.Time  `json:"started_at" gorm:"autoCreateTime"`
	CompletedAt       *time.Time `json:"completed_at"`
	Status            string     `json:"status" gorm:"size:16;default:'RUNNING'"`
	ResourcesSynced   int        `json:"resources_synced" gorm:"default:0;not null"`
	ResourcesUpdated  int        `json:"resources_updated" gorm:"default:0;not null"`
	ResourcesDeleted  int        `json:"resources_deleted" gorm:"default:0;not null"`
	ErrorMessage      string     `json:"error_message" gorm:"type:text"`
	Details           JSONMap    `json:"details" gorm:"type:jsonb"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}

func (s *SyncLog) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
