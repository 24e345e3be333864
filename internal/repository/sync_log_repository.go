package repository

import (
	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/model"
	"gorm.io/gorm"
)

type SyncLogRepository struct {
	db *gorm.DB
}

func NewSyncLogRepository(db *gorm.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

func (r *SyncLogRepository) Create(log *model.SyncLog) error {
	return r.db.Create(log).Error
}

func (r *SyncLogRepository) Update(log *model.SyncLog) error {
	return r.db.Save(log).Error
}

func (r *SyncLogRepository) GetByID(id uuid.UUID) (*model.SyncLog, error) {
	var log model.SyncLog
	err := r.db.Where("id = ?", id).First(&log).Error
	if err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *SyncLogRepository) List(tenantID uuid.UUID, product string, limit int) ([]*model.SyncLog, error) {
	var logs []*model.SyncLog
	query := r.db.Where("tenant_id = ?", tenantID)
	if product != "" {
		query = query.Where("product = ?", product)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	err := query.Order("started_at desc").Find(&logs).Error
	return logs, err
}

// Latest returns the most recent run for one tenant and product, or nil when
// the tenant has never been imported.
func (r *SyncLogRepository) Latest(tenantID uuid.UUID, product string) (*model.SyncLog, error) {
	var log model.SyncLog
	err := r.db.Where("tenant_id = ? AND product = ?", tenantID, product).
		Order("started_at desc").First(&log).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &log, nil
}
