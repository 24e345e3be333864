package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RestorePoint is a point-in-time snapshot of a tenant's full configuration
// for one product. It stores the complete resource inventory captured from
// the local cache at snapshot time, enabling pre/post-change diffing and
// export. Immutable once created.
type RestorePoint struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	TenantID      uuid.UUID `json:"tenant_id" gorm:"index;not null"`
	Product       string    `json:"product" gorm:"size:32;not null"`
	Name          string    `json:"name" gorm:"size:255;not null"`
	Comment       string    `json:"comment" gorm:"type:text"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
	ResourceCount int       `json:"resource_count" gorm:"default:0"`
	// Snapshot structure: {"resources": {"<resource_type>": [{"id","name","raw_config"}, ...]}}
	Snapshot      JSONMap   `json:"snapshot" gorm:"type:jsonb;not null"`
}

func (RestorePoint) TableName() string {
	return "restore_points"
}

func (r *RestorePoint) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Inventory decodes the embedded resource inventory.
func (r *RestorePoint) Inventory() Inventory {
	if r.Snapshot == nil {
		return Inventory{}
	}
	raw, ok := r.Snapshot["resources"]
	if !ok {
		return Inventory{}
	}
	return DecodeInventory(raw)
}
