package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RemoteResource caches one resource fetched from a tenant's remote
// configuration. One row per (tenant, product, resource_type, external_id).
// RawConfig holds the full JSON payload from the API; ConfigHash is a
// SHA-256 of that payload so re-imports can skip unchanged records. Rows are
// never hard-deleted: when a resource stops appearing in a subsequent import
// run, IsDeleted is flipped instead.
type RemoteResource struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     uuid.UUID `json:"tenant_id" gorm:"index;not null;uniqueIndex:uq_remote_resource"`
	Product      string    `json:"product" gorm:"size:32;not null;uniqueIndex:uq_remote_resource"`
	ResourceType string    `json:"resource_type" gorm:"size:64;not null;uniqueIndex:uq_remote_resource"`
	ExternalID   string    `json:"external_id" gorm:"size:255;not null;uniqueIndex:uq_remote_resource"`
	Name         string    `json:"name" gorm:"size:512"`
	RawConfig    JSONMap   `json:"raw_config" gorm:"type:jsonb;not null"`
	ConfigHash   string    `json:"config_hash" gorm:"size:64"`
	FirstSeenAt  time.Time `json:"first_seen_at" gorm:"autoCreateTime"`
	SyncedAt     time.Time `json:"synced_at" gorm:"index"`
	IsDeleted    bool      `json:"is_deleted" gorm:"default:false;not null"`
}

func (RemoteResource) TableName() string {
	return "remote_resources"
}

func (r *RemoteResource) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Entry converts the row to its inventory representation.
func (r *RemoteResource) Entry() ResourceEntry {
	cfg := r.RawConfig
	if cfg == nil {
		cfg = JSONMap{}
	}
	return ResourceEntry{ID: r.ExternalID, Name: r.Name, RawConfig: cfg}
}
