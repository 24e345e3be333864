package repository

import (
	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/model"
	"gorm.io/gorm"
)

type RestorePointRepository struct {
	db *gorm.DB
}

func NewRestorePointRepository(db *gorm.DB) *RestorePointRepository {
	return &RestorePointRepository{db: db}
}

func (r *RestorePointRepository) Create(point *model.RestorePoint) error {
	return r.db.Create(point).Error
}

func (r *RestorePointRepository) GetByID(id uuid.UUID) (*model.RestorePoint, error) {
	var point model.RestorePoint
	err := r.db.Where("id = ?", id).First(&point).Error
	if err != nil {
		return nil, err
	}
	return &point, nil
}

func (r *RestorePointRepository) GetByName(tenantID uuid.UUID, product, name string) (*model.RestorePoint, error) {
	var point model.RestorePoint
	err := r.db.Where("tenant_id = ? AND product = ? AND name = ?", tenantID, product, name).
		First(&point).Error
	if err != nil {
		return nil, err
	}
	return &point, nil
}

func (r *RestorePointRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.RestorePoint{}).Error
}

// List returns snapshot metadata newest first. The snapshot payload column is
// omitted so listing stays cheap for tenants with large configurations.
func (r *RestorePointRepository) List(tenantID uuid.UUID, product string) ([]*model.RestorePoint, error) {
	var points []*model.RestorePoint
	query := r.db.Select("id", "tenant_id", "product", "name", "comment", "created_at", "resource_count").
		Where("tenant_id = ?", tenantID)
	if product != "" {
		query = query.Where("product = ?", product)
	}
	err := query.Order("created_at desc").Find(&points).Error
	return points, err
}
