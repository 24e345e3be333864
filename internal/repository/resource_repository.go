package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/model"
	"gorm.io/gorm"
)

type ResourceRepository struct {
	db *gorm.DB
}

type ListResourcesParams struct {
	TenantID       uuid.UUID
	Product        string
	ResourceType   string
	Search         string
	IncludeDeleted bool
	Page           int
	Limit          int
}

func NewResourceRepository(db *gorm.DB) *ResourceRepository {
	return &ResourceRepository{db: db}
}

// GetExisting returns every cached row for one resource type, deleted rows
// included, keyed by external ID. Used by the importer to decide between
// insert, refresh and skip.
func (r *ResourceRepository) GetExisting(tenantID uuid.UUID, product, resourceType string) (map[string]*model.RemoteResource, error) {
	var rows []*model.RemoteResource
	err := r.db.Where("tenant_id = ? AND product = ? AND resource_type = ?", tenantID, product, resourceType).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	existing := make(map[string]*model.RemoteResource, len(rows))
	for _, row := range rows {
		existing[row.ExternalID] = row
	}
	return existing, nil
}

func (r *ResourceRepository) CreateBatch(rows []*model.RemoteResource) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.CreateInBatches(rows, 200).Error
}

func (r *ResourceRepository) Update(row *model.RemoteResource) error {
	return r.db.Save(row).Error
}

// TouchSynced refreshes synced_at on rows whose content did not change, so
// the stale sweep does not mistake them for removed resources.
func (r *ResourceRepository) TouchSynced(ids []uuid.UUID, ts time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&model.RemoteResource{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"synced_at": ts, "is_deleted": false}).Error
}

// MarkStaleDeleted soft-deletes every row of the given types that was not
// touched during the current run. Only types that were actually imported are
// swept; a skipped type keeps its rows intact.
func (r *ResourceRepository) MarkStaleDeleted(tenantID uuid.UUID, product string, types []string, runStart time.Time) (int64, error) {
	if len(types) == 0 {
		return 0, nil
	}
	res := r.db.Model(&model.RemoteResource{}).
		Where("tenant_id = ? AND product = ? AND resource_type IN ? AND is_deleted = ? AND synced_at < ?",
			tenantID, product, types, false, runStart).
		Update("is_deleted", true)
	return res.RowsAffected, res.Error
}

// CurrentInventory loads the live (non-deleted) cache for one tenant and
// product, grouped by resource type in stable order.
func (r *ResourceRepository) CurrentInventory(tenantID uuid.UUID, product string) (model.Inventory, error) {
	var rows []*model.RemoteResource
	err := r.db.Where("tenant_id = ? AND product = ? AND is_deleted = ?", tenantID, product, false).
		Order("resource_type asc, name asc, external_id asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	inv := model.Inventory{}
	for _, row := range rows {
		inv[row.ResourceType] = append(inv[row.ResourceType], row.Entry())
	}
	return inv, nil
}

// InventoryByName groups the live cache as resource_type → name → row, the
// shape the push classifier matches baseline entries against.
func (r *ResourceRepository) InventoryByName(tenantID uuid.UUID, product string) (map[string]map[string]*model.RemoteResource, error) {
	var rows []*model.RemoteResource
	err := r.db.Where("tenant_id = ? AND product = ? AND is_deleted = ?", tenantID, product, false).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	byName := make(map[string]map[string]*model.RemoteResource)
	for _, row := range rows {
		if byName[row.ResourceType] == nil {
			byName[row.ResourceType] = make(map[string]*model.RemoteResource)
		}
		byName[row.ResourceType][row.Name] = row
	}
	return byName, nil
}

func (r *ResourceRepository) List(params ListResourcesParams) ([]*model.RemoteResource, int64, error) {
	var rows []*model.RemoteResource
	var total int64

	query := r.db.Model(&model.RemoteResource{}).
		Where("tenant_id = ? AND product = ?", params.TenantID, params.Product)
	if params.ResourceType != "" {
		query = query.Where("resource_type = ?", params.ResourceType)
	}
	if !params.IncludeDeleted {
		query = query.Where("is_deleted = ?", false)
	}
	if params.Search != "" {
		query = query.Where("name LIKE ?", "%"+params.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if params.Limit > 0 {
		offset := 0
		if params.Page > 1 {
			offset = (params.Page - 1) * params.Limit
		}
		query = query.Offset(offset).Limit(params.Limit)
	}
	err := query.Order("resource_type asc, name asc").Find(&rows).Error
	return rows, total, err
}

// TypeCounts returns the number of live rows per resource type.
func (r *ResourceRepository) TypeCounts(tenantID uuid.UUID, product string) (map[string]int64, error) {
	type typeCount struct {
		ResourceType string
		Count        int64
	}
	var counts []typeCount
	err := r.db.Model(&model.RemoteResource{}).
		Select("resource_type, count(*) as count").
		Where("tenant_id = ? AND product = ? AND is_deleted = ?", tenantID, product, false).
		Group("resource_type").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(counts))
	for _, c := range counts {
		out[c.ResourceType] = c.Count
	}
	return out, nil
}

// Transaction runs fn inside a database transaction using a repository bound
// to the transactional handle.
func (r *ResourceRepository) Transaction(fn func(txRepo *ResourceRepository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&ResourceRepository{db: tx})
	})
}
