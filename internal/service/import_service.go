package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/remote"
	"github.com/zerotrust-ops/config-management/internal/repository"
)

// ImportService pulls a tenant's remote configuration into the local cache.
// Each run walks the product catalog, lists every entitled resource type,
// upserts by content hash and soft-deletes rows that stopped appearing.
type ImportService struct {
	tenants      *TenantService
	resourceRepo *repository.ResourceRepository
	syncLogRepo  *repository.SyncLogRepository
	audit        *AuditService
	factory      DirectoryFactory
}

type ImportOptions struct {
	// Types restricts the run to a subset of the catalog. Empty means all.
	Types []string
	// Progress, when set, is called after each resource type finishes.
	Progress func(resourceType string, done, total int)
}

type typeResult struct {
	fetched int
	updated int
	err     error
}

func NewImportService(
	tenants *TenantService,
	resourceRepo *repository.ResourceRepository,
	syncLogRepo *repository.SyncLogRepository,
	audit *AuditService,
	factory DirectoryFactory,
) *ImportService {
	return &ImportService{
		tenants:      tenants,
		resourceRepo: resourceRepo,
		syncLogRepo:  syncLogRepo,
		audit:        audit,
		factory:      factory,
	}
}

// Run imports one tenant's configuration for one product and returns the
// completed sync log. A non-nil error means the run could not start at all;
// per-type failures are folded into the log's status instead.
func (s *ImportService) Run(ctx context.Context, tenantID uuid.UUID, product string, opts ImportOptions) (*model.SyncLog, error) {
	tenant, err := s.tenants.Get(tenantID)
	if err != nil {
		return nil, err
	}
	if catalog.Definitions(product) == nil {
		return nil, ErrUnknownProduct
	}
	if !tenant.IsActive {
		return nil, ErrTenantInactive
	}

	dir, err := s.factory(tenant, product)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote session: %w", err)
	}

	syncLog := &model.SyncLog{
		TenantID: tenant.ID,
		Product:  product,
		Status:   model.SyncStatusRunning,
	}
	if err := s.syncLogRepo.Create(syncLog); err != nil {
		return nil, fmt.Errorf("failed to create sync log: %w", err)
	}

	runStart := time.Now()
	disabled := make(map[string]bool)
	for _, t := range tenant.DisabledTypes(product) {
		disabled[t] = true
	}

	defs := s.selectDefs(product, opts.Types)
	var (
		skippedNA     []string
		newlyDisabled []string
		sweepTypes    []string
		typeErrors    = map[string]interface{}{}
		attempted     int
		errored       int
	)

	for i, def := range defs {
		if err := ctx.Err(); err != nil {
			s.finishLog(syncLog, model.SyncStatusFailed, err.Error(), skippedNA, typeErrors)
			return syncLog, err
		}
		if disabled[def.Type] {
			skippedNA = append(skippedNA, def.Type)
			continue
		}

		attempted++
		result := s.importType(ctx, dir, tenant, product, def, runStart)
		if result.err != nil {
			errored++
			typeErrors[def.Type] = result.err.Error()
			if remote.IsUnauthorized(result.err) {
				log.Printf("tenant %s: type %s not entitled, disabling", tenant.Name, def.Type)
				newlyDisabled = append(newlyDisabled, def.Type)
				skippedNA = append(skippedNA, def.Type)
			} else {
				log.Printf("tenant %s: import of %s failed: %v", tenant.Name, def.Type, result.err)
			}
		} else {
			syncLog.ResourcesSynced += result.fetched
			syncLog.ResourcesUpdated += result.updated
			sweepTypes = append(sweepTypes, def.Type)
		}
		if opts.Progress != nil {
			opts.Progress(def.Type, i+1, len(defs))
		}
	}

	// Absence detection only sweeps types that listed successfully. A type
	// that failed keeps its cached rows.
	deleted, err := s.resourceRepo.MarkStaleDeleted(tenant.ID, product, sweepTypes, runStart)
	if err != nil {
		s.finishLog(syncLog, model.SyncStatusFailed, fmt.Sprintf("stale sweep failed: %v", err), skippedNA, typeErrors)
		return syncLog, fmt.Errorf("failed to mark stale resources: %w", err)
	}
	syncLog.ResourcesDeleted = int(deleted)

	if len(newlyDisabled) > 0 {
		if err := s.tenants.DisableTypes(tenant.ID, product, newlyDisabled); err != nil {
			log.Printf("tenant %s: failed to persist disabled types: %v", tenant.Name, err)
		}
	}

	status := model.SyncStatusSuccess
	errMsg := ""
	switch {
	case attempted > 0 && errored == attempted:
		status = model.SyncStatusFailed
		errMsg = "all resource types failed to import"
	case errored > 0:
		status = model.SyncStatusPartial
		errMsg = fmt.Sprintf("%d of %d resource types failed", errored, attempted)
	}
	s.finishLog(syncLog, status, errMsg, skippedNA, typeErrors)

	if status == model.SyncStatusFailed {
		s.audit.RecordFailure(tenant.ID, product, "import", "run", fmt.Errorf("%s", errMsg))
	} else {
		s.audit.RecordOperation(tenant.ID, product, "import", "run", model.JSONMap{
			"status":  status,
			"synced":  syncLog.ResourcesSynced,
			"updated": syncLog.ResourcesUpdated,
			"deleted": syncLog.ResourcesDeleted,
		})
	}
	return syncLog, nil
}

func (s *ImportService) selectDefs(product string, types []string) []catalog.ResourceDef {
	all := catalog.Definitions(product)
	if len(types) == 0 {
		return all
	}
	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}
	var defs []catalog.ResourceDef
	for _, def := range all {
		if wanted[def.Type] {
			defs = append(defs, def)
		}
	}
	return defs
}

func (s *ImportService) importType(ctx context.Context, dir remote.Directory, tenant *model.Tenant, product string, def catalog.ResourceDef, runStart time.Time) typeResult {
	ops, ok := dir.Ops(def.Type)
	if !ok || ops.List == nil {
		return typeResult{err: fmt.Errorf("no list operation for type %s", def.Type)}
	}

	items, err := ops.List(ctx)
	if err != nil {
		return typeResult{err: err}
	}

	updated := 0
	err = s.resourceRepo.Transaction(func(txRepo *repository.ResourceRepository) error {
		existing, err := txRepo.GetExisting(tenant.ID, product, def.Type)
		if err != nil {
			return err
		}

		var (
			newRows   []*model.RemoteResource
			unchanged []uuid.UUID
		)
		for _, item := range items {
			externalID, name := identify(def, item)
			if externalID == "" {
				continue
			}
			hash := configHash(item)

			row, found := existing[externalID]
			if !found {
				newRows = append(newRows, &model.RemoteResource{
					TenantID:     tenant.ID,
					Product:      product,
					ResourceType: def.Type,
					ExternalID:   externalID,
					Name:         name,
					RawConfig:    model.JSONMap(item),
					ConfigHash:   hash,
					SyncedAt:     runStart,
				})
				updated++
				continue
			}
			if row.ConfigHash == hash && !row.IsDeleted {
				unchanged = append(unchanged, row.ID)
				continue
			}
			row.Name = name
			row.RawConfig = model.JSONMap(item)
			row.ConfigHash = hash
			row.SyncedAt = runStart
			row.IsDeleted = false
			if err := txRepo.Update(row); err != nil {
				return err
			}
			updated++
		}

		if err := txRepo.CreateBatch(newRows); err != nil {
			return err
		}
		return txRepo.TouchSynced(unchanged, runStart)
	})
	if err != nil {
		return typeResult{err: fmt.Errorf("failed to store %s batch: %w", def.Type, err)}
	}
	return typeResult{fetched: len(items), updated: updated}
}

func (s *ImportService) finishLog(syncLog *model.SyncLog, status, errMsg string, skippedNA []string, typeErrors map[string]interface{}) {
	now := time.Now()
	syncLog.Status = status
	syncLog.CompletedAt = &now
	syncLog.ErrorMessage = errMsg
	details := model.JSONMap{}
	if len(skippedNA) > 0 {
		list := make([]interface{}, 0, len(skippedNA))
		for _, t := range skippedNA {
			list = append(list, t)
		}
		details["skipped_na"] = list
	}
	if len(typeErrors) > 0 {
		details["errors"] = map[string]interface{}(typeErrors)
	}
	if len(details) > 0 {
		syncLog.Details = details
	}
	if err := s.syncLogRepo.Update(syncLog); err != nil {
		log.Printf("failed to finalize sync log %s: %v", syncLog.ID, err)
	}
}

// identify extracts the external ID and display name from one API payload.
// Singleton endpoints have neither; the type name stands in for both.
func identify(def catalog.ResourceDef, item map[string]interface{}) (string, string) {
	if def.Singleton {
		return def.Type, def.Type
	}
	id := stringValue(item[def.IDField])
	name := stringValue(item[def.NameField])
	if name == "" {
		name = stringValue(item["name"])
	}
	if name == "" {
		name = id
	}
	return id, name
}

// configHash fingerprints a payload. Map keys are marshalled in sorted order,
// so equal configurations always produce equal hashes.
func configHash(item map[string]interface{}) string {
	encoded, err := json.Marshal(item)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:])
}

func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case json.Number:
		return val.String()
	default:
		return ""
	}
}
