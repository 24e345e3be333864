package repository

import (
	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/model"
	"gorm.io/gorm"
)

type AuditRepository struct {
	db *gorm.DB
}

type ListAuditParams struct {
	TenantID  *uuid.UUID
	Product   string
	Operation string
	Status    string
	Page      int
	Limit     int
}

func NewAuditRepository(db *gorm.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Create(event *model.AuditEvent) error {
	return r.db.Create(event).Error
}

func (r *AuditRepository) List(params ListAuditParams) ([]*model.AuditEvent, int64, error) {
	var events []*model.AuditEvent
	var total int64

	query := r.db.Model(&model.AuditEvent{})
	if params.TenantID != nil {
		query = query.Where("tenant_id = ?", *params.TenantID)
	}
	if params.Product != "" {
		query = query.Where("product = ?", params.Product)
	}
	if params.Operation != "" {
		query = query.Where("operation = ?", params.Operation)
	}
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := params.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := 0
	if params.Page > 1 {
		offset = (params.Page - 1) * limit
	}
	err := query.Order("timestamp desc").Offset(offset).Limit(limit).Find(&events).Error
	return events, total, err
}
