package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"gorm.io/gorm"
)

// BaselineDocument is the portable export format for a snapshot. It is what
// operators move between environments and feed into a push.
type BaselineDocument struct {
	Product       string                 `json:"product"`
	TenantName    string                 `json:"tenant_name"`
	SnapshotName  string                 `json:"snapshot_name"`
	Comment       string                 `json:"comment"`
	CreatedAt     string                 `json:"created_at"`
	ResourceCount int                    `json:"resource_count"`
	Resources     map[string]interface{} `json:"resources"`
}

// Inventory decodes the embedded resources.
func (b *BaselineDocument) Inventory() model.Inventory {
	return model.DecodeInventory(map[string]interface{}(b.Resources))
}

type SnapshotService struct {
	tenants      *TenantService
	restoreRepo  *repository.RestorePointRepository
	resourceRepo *repository.ResourceRepository
	audit        *AuditService
}

func NewSnapshotService(
	tenants *TenantService,
	restoreRepo *repository.RestorePointRepository,
	resourceRepo *repository.ResourceRepository,
	audit *AuditService,
) *SnapshotService {
	return &SnapshotService{
		tenants:      tenants,
		restoreRepo:  restoreRepo,
		resourceRepo: resourceRepo,
		audit:        audit,
	}
}

// Create captures the tenant's current cache into a named restore point.
func (s *SnapshotService) Create(tenantID uuid.UUID, product, name, comment string) (*model.RestorePoint, error) {
	tenant, err := s.tenants.Get(tenantID)
	if err != nil {
		return nil, err
	}
	if catalog.Definitions(product) == nil {
		return nil, ErrUnknownProduct
	}
	if name == "" {
		name = fmt.Sprintf("%s-%s", product, time.Now().UTC().Format("20060102-150405"))
	}

	inventory, err := s.resourceRepo.CurrentInventory(tenant.ID, product)
	if err != nil {
		return nil, fmt.Errorf("failed to load current inventory: %w", err)
	}

	point := &model.RestorePoint{
		TenantID:      tenant.ID,
		Product:       product,
		Name:          name,
		Comment:       comment,
		ResourceCount: inventory.Count(),
		Snapshot:      model.JSONMap{"resources": inventory.Encode()},
	}
	if err := s.restoreRepo.Create(point); err != nil {
		return nil, fmt.Errorf("failed to create snapshot: %w", err)
	}

	s.audit.RecordOperation(tenant.ID, product, "snapshot", "create", model.JSONMap{
		"name":           name,
		"resource_count": point.ResourceCount,
	})
	return point, nil
}

func (s *SnapshotService) Get(id uuid.UUID) (*model.RestorePoint, error) {
	point, err := s.restoreRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	return point, err
}

func (s *SnapshotService) List(tenantID uuid.UUID, product string) ([]*model.RestorePoint, error) {
	return s.restoreRepo.List(tenantID, product)
}

func (s *SnapshotService) Delete(id uuid.UUID) error {
	point, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.restoreRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	s.audit.RecordOperation(point.TenantID, point.Product, "snapshot", "delete", model.JSONMap{"name": point.Name})
	return nil
}

// Export renders a snapshot as a portable baseline document.
func (s *SnapshotService) Export(id uuid.UUID) (*BaselineDocument, error) {
	point, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	tenant, err := s.tenants.Get(point.TenantID)
	if err != nil {
		return nil, err
	}

	resources := map[string]interface{}{}
	if point.Snapshot != nil {
		if raw, ok := point.Snapshot["resources"].(map[string]interface{}); ok {
			resources = raw
		}
	}

	return &BaselineDocument{
		Product:       point.Product,
		TenantName:    tenant.Name,
		SnapshotName:  point.Name,
		Comment:       point.Comment,
		CreatedAt:     point.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ResourceCount: point.ResourceCount,
		Resources:     resources,
	}, nil
}

// ParseBaseline validates and decodes an exported baseline document.
func ParseBaseline(data []byte) (*BaselineDocument, error) {
	var doc BaselineDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseline, err)
	}
	if doc.Product == "" || doc.Resources == nil {
		return nil, fmt.Errorf("%w: missing product or resources", ErrInvalidBaseline)
	}
	return &doc, nil
}
