package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditEvent is an immutable record of every operation performed through
// this service: imports, pushes, snapshot and tenant mutations. Provides an
// audit trail for compliance and troubleshooting.
type AuditEvent struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	TenantID     *uuid.UUID `json:"tenant_id" gorm:"index"`
	Product      string     `json:"product" gorm:"size:32"`
	Operation    string     `json:"operation" gorm:"size:128"`
	Action       string     `json:"action" gorm:"size:32"`
	Status       string     `json:"status" gorm:"size:16"`
	ResourceType string     `json:"resource_type" gorm:"size:128"`
	ResourceID   string     `json:"resource_id" gorm:"size:255"`
	ResourceName string     `json:"resource_name" gorm:"size:512"`
	Details      JSONMap    `json:"details" gorm:"type:jsonb"`
	ErrorMsg     string     `json:"error_msg" gorm:"type:text"`
	Timestamp    time.Time  `json:"timestamp" gorm:"autoCreateTime;index"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

func (a *AuditEvent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
