package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/remote"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"gorm.io/gorm"
)

type TenantService struct {
	tenantRepo *repository.TenantRepository
	encryption *EncryptionService
	audit      *AuditService
}

type CreateTenantParams struct {
	Name         string
	APIBaseURL   string
	AuthBaseURL  string
	ClientID     string
	ClientSecret string
	CustomerID   string
	Notes        string
}

type UpdateTenantParams struct {
	APIBaseURL   *string
	AuthBaseURL  *string
	ClientID     *string
	ClientSecret *string
	CustomerID   *string
	Notes        *string
	IsActive     *bool
}

func NewTenantService(tenantRepo *repository.TenantRepository, encryption *EncryptionService, audit *AuditService) *TenantService {
	return &TenantService{
		tenantRepo: tenantRepo,
		encryption: encryption,
		audit:      audit,
	}
}

func (s *TenantService) Create(params CreateTenantParams) (*model.Tenant, error) {
	if params.Name == "" {
		return nil, fmt.Errorf("tenant name cannot be empty")
	}
	if _, err := s.tenantRepo.GetByName(params.Name); err == nil {
		return nil, ErrTenantExists
	}

	secretEnc, nonce, err := s.encryption.Encrypt(params.ClientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt client secret: %w", err)
	}

	tenant := &model.Tenant{
		Name:              params.Name,
		APIBaseURL:        params.APIBaseURL,
		AuthBaseURL:       params.AuthBaseURL,
		ClientID:          params.ClientID,
		ClientSecretEnc:   secretEnc,
		ClientSecretNonce: nonce,
		CustomerID:        params.CustomerID,
		Notes:             params.Notes,
		IsActive:          true,
		DisabledResources: model.JSONMap{},
	}
	if err := s.tenantRepo.Create(tenant); err != nil {
		return nil, fmt.Errorf("failed to create tenant: %w", err)
	}

	s.audit.RecordOperation(tenant.ID, "", "tenant", "create", model.JSONMap{"name": tenant.Name})
	return tenant, nil
}

func (s *TenantService) Get(id uuid.UUID) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	return tenant, err
}

func (s *TenantService) GetByName(name string) (*model.Tenant, error) {
	tenant, err := s.tenantRepo.GetByName(name)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTenantNotFound
	}
	return tenant, err
}

func (s *TenantService) List() ([]*model.Tenant, error) {
	return s.tenantRepo.List()
}

func (s *TenantService) ListActive() ([]*model.Tenant, error) {
	return s.tenantRepo.ListActive()
}

func (s *TenantService) Update(id uuid.UUID, params UpdateTenantParams) (*model.Tenant, error) {
	tenant, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	if params.APIBaseURL != nil {
		tenant.APIBaseURL = *params.APIBaseURL
	}
	if params.AuthBaseURL != nil {
		tenant.AuthBaseURL = *params.AuthBaseURL
	}
	if params.ClientID != nil {
		tenant.ClientID = *params.ClientID
	}
	if params.ClientSecret != nil {
		secretEnc, nonce, err := s.encryption.Encrypt(*params.ClientSecret)
		if err != nil {
			return nil, fmt.Errorf("failed to encrypt client secret: %w", err)
		}
		tenant.ClientSecretEnc = secretEnc
		tenant.ClientSecretNonce = nonce
	}
	if params.CustomerID != nil {
		tenant.CustomerID = *params.CustomerID
	}
	if params.Notes != nil {
		tenant.Notes = *params.Notes
	}
	if params.IsActive != nil {
		tenant.IsActive = *params.IsActive
	}

	if err := s.tenantRepo.Update(tenant); err != nil {
		return nil, fmt.Errorf("failed to update tenant: %w", err)
	}
	s.audit.RecordOperation(tenant.ID, "", "tenant", "update", model.JSONMap{"name": tenant.Name})
	return tenant, nil
}

func (s *TenantService) Delete(id uuid.UUID) error {
	tenant, err := s.Get(id)
	if err != nil {
		return err
	}
	if err := s.tenantRepo.Delete(id); err != nil {
		return fmt.Errorf("failed to delete tenant: %w", err)
	}
	s.audit.RecordOperation(id, "", "tenant", "delete", model.JSONMap{"name": tenant.Name})
	return nil
}

// ClientSecret decrypts the stored API credential for one tenant.
func (s *TenantService) ClientSecret(tenant *model.Tenant) (string, error) {
	return s.encryption.Decrypt(tenant.ClientSecretEnc, tenant.ClientSecretNonce)
}

// ClearDisabledTypes removes the entitlement denylist for one product so the
// next import retries every type. Used after a subscription change.
func (s *TenantService) ClearDisabledTypes(id uuid.UUID, product string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	if catalog.Definitions(product) == nil {
		return ErrUnknownProduct
	}
	if err := s.tenantRepo.UpdateDisabledTypes(id, product, nil); err != nil {
		return fmt.Errorf("failed to clear disabled types: %w", err)
	}
	s.audit.RecordOperation(id, product, "tenant", "clear_disabled_types", nil)
	return nil
}

// DisableTypes appends newly denylisted resource types for one product.
func (s *TenantService) DisableTypes(id uuid.UUID, product string, types []string) error {
	tenant, err := s.Get(id)
	if err != nil {
		return err
	}
	existing := tenant.DisabledTypes(product)
	seen := make(map[string]bool, len(existing))
	merged := make([]string, 0, len(existing)+len(types))
	for _, t := range existing {
		seen[t] = true
		merged = append(merged, t)
	}
	for _, t := range types {
		if !seen[t] {
			seen[t] = true
			merged = append(merged, t)
		}
	}
	return s.tenantRepo.UpdateDisabledTypes(id, product, merged)
}

// DirectoryFactory builds authenticated remote sessions for tenants. Import
// and push depend on this signature so tests can substitute a fake API.
type DirectoryFactory func(tenant *model.Tenant, product string) (remote.Directory, error)

// NewDirectoryFactory wires the real HTTP client: OAuth2 token manager
// against the tenant's auth endpoint plus a per-call rate limiter.
func NewDirectoryFactory(tenants *TenantService, perSecond float64, burst int, timeout time.Duration) DirectoryFactory {
	return func(tenant *model.Tenant, product string) (remote.Directory, error) {
		if !tenant.IsActive {
			return nil, ErrTenantInactive
		}
		secret, err := tenants.ClientSecret(tenant)
		if err != nil {
			return nil, fmt.Errorf("failed to decrypt credentials for tenant %s: %w", tenant.Name, err)
		}
		tokens := remote.NewTokenManager(nil, tenant.AuthBaseURL, tenant.ClientID, secret, tenant.CustomerID)
		client := remote.NewClient(remote.ClientConfig{
			BaseURL:      tenant.APIBaseURL,
			Product:      product,
			TokenManager: tokens,
			Limiter:      remote.NewLimiter(perSecond, burst),
			Timeout:      timeout,
		})
		return client, nil
	}
}
