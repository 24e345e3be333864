package repository

import (
	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/model"
	"gorm.io/gorm"
)

type TenantRepository struct {
	db *gorm.DB
}

func NewTenantRepository(db *gorm.DB) *TenantRepository {
	return &TenantRepository{db: db}
}

func (r *TenantRepository) Create(tenant *model.Tenant) error {
	return r.db.Create(tenant).Error
}

func (r *TenantRepository) GetByID(id uuid.UUID) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.Where("id = ?", id).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) GetByName(name string) (*model.Tenant, error) {
	var tenant model.Tenant
	err := r.db.Where("name = ?", name).First(&tenant).Error
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (r *TenantRepository) Update(tenant *model.Tenant) error {
	return r.db.Save(tenant).Error
}

func (r *TenantRepository) Delete(id uuid.UUID) error {
	return r.db.Where("id = ?", id).Delete(&model.Tenant{}).Error
}

func (r *TenantRepository) List() ([]*model.Tenant, error) {
	var tenants []*model.Tenant
	err := r.db.Order("name asc").Find(&tenants).Error
	return tenants, err
}

func (r *TenantRepository) ListActive() ([]*model.Tenant, error) {
	var tenants []*model.Tenant
	err := r.db.Where("is_active = ?", true).Order("name asc").Find(&tenants).Error
	return tenants, err
}

// UpdateDisabledTypes replaces the denylisted resource types for one product
// on the tenant record.
func (r *TenantRepository) UpdateDisabledTypes(id uuid.UUID, product string, types []string) error {
	tenant, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if tenant.DisabledResources == nil {
		tenant.DisabledResources = model.JSONMap{}
	}
	if len(types) == 0 {
		delete(tenant.DisabledResources, product)
	} else {
		list := make([]interface{}, 0, len(types))
		for _, t := range types {
			list = append(list, t)
		}
		tenant.DisabledResources[product] = list
	}
	return r.db.Model(tenant).Update("disabled_resources", tenant.DisabledResources).Error
}
