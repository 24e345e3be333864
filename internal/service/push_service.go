package service

import (
	"context"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/remote"
	"github.com/zerotrust-ops/config-management/internal/repository"
)

const (
	PushActionCreated = "created"
	PushActionUpdated = "updated"
	PushActionSkipped = "skipped"
)

// PushRecord reports the outcome for one baseline entry. Action is one of
// created, updated, skipped, or "failed:<reason>".
type PushRecord struct {
	ResourceType string `json:"resource_type"`
	Name         string `json:"name"`
	ExternalID   string `json:"external_id"`
	Action       string `json:"action"`
	Detail       string `json:"detail,omitempty"`
}

// PushProgress observes records as they are produced. Pass is 0 for records
// settled during classification and counts apply passes from 1.
type PushProgress func(pass int, resourceType string, record PushRecord)

// pushAction is one pending create or update, classified but not yet applied.
type pushAction struct {
	def        catalog.ResourceDef
	tier       int
	entry      model.ResourceEntry
	isUpdate   bool
	targetID   string
	mergeField string
	targetRaw  model.JSONMap
}

// PushService replays an exported baseline onto a target tenant. The target
// is re-imported first so every decision is made against fresh state, then
// entries are classified by name within fixed dependency tiers and applied
// with multi-pass retry and cross-environment ID remapping.
type PushService struct {
	tenants      *TenantService
	importer     *ImportService
	resourceRepo *repository.ResourceRepository
	audit        *AuditService
	factory      DirectoryFactory
}

func NewPushService(
	tenants *TenantService,
	importer *ImportService,
	resourceRepo *repository.ResourceRepository,
	audit *AuditService,
	factory DirectoryFactory,
) *PushService {
	return &PushService{
		tenants:      tenants,
		importer:     importer,
		resourceRepo: resourceRepo,
		audit:        audit,
		factory:      factory,
	}
}

// PushBaseline applies a baseline document to the target tenant and returns
// one record per processed entry.
func (s *PushService) PushBaseline(ctx context.Context, baseline *BaselineDocument, targetTenantID uuid.UUID, progress PushProgress) ([]PushRecord, error) {
	plan, ok := catalog.PlanFor(baseline.Product)
	if !ok {
		return nil, ErrPushNotSupported
	}
	target, err := s.tenants.Get(targetTenantID)
	if err != nil {
		return nil, err
	}

	// Stage 1: refresh the target cache so classification sees reality, not
	// whatever the last sync happened to leave behind.
	syncLog, err := s.importer.Run(ctx, target.ID, baseline.Product, ImportOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to re-import target tenant: %w", err)
	}
	if syncLog.Status == model.SyncStatusFailed {
		return nil, fmt.Errorf("target re-import failed: %s", syncLog.ErrorMessage)
	}

	// Stage 2: load target state grouped by name.
	targetByName, err := s.resourceRepo.InventoryByName(target.ID, baseline.Product)
	if err != nil {
		return nil, fmt.Errorf("failed to load target state: %w", err)
	}

	dir, err := s.factory(target, baseline.Product)
	if err != nil {
		return nil, fmt.Errorf("failed to open remote session: %w", err)
	}

	inventory := baseline.Inventory()
	idMap := IDMap{}
	var records []PushRecord
	emit := func(pass int, rec PushRecord) {
		records = append(records, rec)
		if progress != nil {
			progress(pass, rec.ResourceType, rec)
		}
	}

	// Stage 3: classify tier by tier. Matches found in earlier tiers feed
	// the remap table used to compare and apply later tiers.
	classifyEmit := func(rec PushRecord) { emit(0, rec) }
	pending := s.classify(plan, baseline.Product, inventory, targetByName, idMap, classifyEmit)

	// Stage 4: apply with multi-pass retry.
	s.apply(ctx, dir, pending, idMap, emit)

	created, updated, skipped, failed := tally(records)
	s.audit.RecordOperation(target.ID, baseline.Product, "push", "run", model.JSONMap{
		"baseline": baseline.SnapshotName,
		"created":  created,
		"updated":  updated,
		"skipped":  skipped,
		"failed":   failed,
	})
	log.Printf("push of %q to tenant %s: %d created, %d updated, %d skipped, %d failed",
		baseline.SnapshotName, target.Name, created, updated, skipped, failed)
	return records, nil
}

func (s *PushService) classify(
	plan *catalog.PushPlan,
	product string,
	inventory model.Inventory,
	targetByName map[string]map[string]*model.RemoteResource,
	idMap IDMap,
	emit func(PushRecord),
) []*pushAction {
	var pending []*pushAction

	// Baseline types outside the fixed tiers (skip-listed identities, types
	// from a newer export) are visited in a final tier so every entry gets a
	// record.
	covered := make(map[string]bool)
	for _, types := range plan.Tiers {
		for _, t := range types {
			covered[t] = true
		}
	}
	var extra []string
	for resourceType := range inventory {
		if !covered[resourceType] {
			extra = append(extra, resourceType)
		}
	}
	sort.Strings(extra)
	tiers := append(append([][]string{}, plan.Tiers...), extra)

	for tier, types := range tiers {
		for _, resourceType := range types {
			entries, present := inventory[resourceType]
			if !present {
				continue
			}
			if plan.Skip[resourceType] {
				for _, entry := range entries {
					emit(PushRecord{
						ResourceType: resourceType,
						Name:         entry.Name,
						ExternalID:   entry.ID,
						Action:       PushActionSkipped,
						Detail:       "environment-specific resource",
					})
				}
				continue
			}
			def, ok := catalog.Lookup(product, resourceType)
			if !ok {
				for _, entry := range entries {
					emit(PushRecord{
						ResourceType: resourceType,
						Name:         entry.Name,
						ExternalID:   entry.ID,
						Action:       "failed:unsupported",
						Detail:       "unknown resource type",
					})
				}
				continue
			}

			existing := targetByName[resourceType]
			for _, entry := range entries {
				pending = s.classifyEntry(plan, def, tier, entry, existing, idMap, emit, pending)
			}
		}
	}
	return pending
}

func (s *PushService) classifyEntry(
	plan *catalog.PushPlan,
	def catalog.ResourceDef,
	tier int,
	entry model.ResourceEntry,
	existing map[string]*model.RemoteResource,
	idMap IDMap,
	emit func(PushRecord),
	pending []*pushAction,
) []*pushAction {
	match := existing[entry.Name]

	// Vendor-predefined entries are never written. A name match just feeds
	// the remap table; a miss is reported so the operator knows references
	// to it cannot be translated.
	if plan.SkipIfPredefined[def.Type] && entry.RawConfig.GetBool("predefined") {
		if match != nil {
			idMap.Put(entry.ID, match.ExternalID)
			emit(PushRecord{
				ResourceType: def.Type, Name: entry.Name, ExternalID: entry.ID,
				Action: PushActionSkipped, Detail: "predefined, mapped to existing",
			})
		} else {
			emit(PushRecord{
				ResourceType: def.Type, Name: entry.Name, ExternalID: entry.ID,
				Action: PushActionSkipped, Detail: "predefined, no match on target",
			})
		}
		return pending
	}

	if mergeField, isMergeOnly := plan.MergeOnly[def.Type]; isMergeOnly {
		action := &pushAction{def: def, tier: tier, entry: entry, isUpdate: true, mergeField: mergeField}
		if match != nil {
			action.targetID = match.ExternalID
			action.targetRaw = match.RawConfig
		}
		return append(pending, action)
	}

	if match == nil {
		if !def.CanCreate {
			emit(PushRecord{
				ResourceType: def.Type, Name: entry.Name, ExternalID: entry.ID,
				Action: PushActionSkipped, Detail: "type is read-only on target",
			})
			return pending
		}
		return append(pending, &pushAction{def: def, tier: tier, entry: entry})
	}

	idMap.Put(entry.ID, match.ExternalID)

	baseCleaned := cleanForCompare(RemapIDs(map[string]interface{}(entry.RawConfig), idMap).(map[string]interface{}))
	targetCleaned := cleanForCompare(map[string]interface{}(match.RawConfig))
	if jsonEqual(baseCleaned, targetCleaned) {
		emit(PushRecord{
			ResourceType: def.Type, Name: entry.Name, ExternalID: entry.ID,
			Action: PushActionSkipped, Detail: "already matches baseline",
		})
		return pending
	}

	if !def.CanUpdate {
		emit(PushRecord{
			ResourceType: def.Type, Name: entry.Name, ExternalID: entry.ID,
			Action: PushActionSkipped, Detail: "type is read-only on target",
		})
		return pending
	}
	return append(pending, &pushAction{
		def: def, tier: tier, entry: entry,
		isUpdate: true, targetID: match.ExternalID,
	})
}

// apply runs passes over the pending set until it drains or stops shrinking.
// Creates in early passes register remapped IDs that let later passes
// succeed; when a full pass makes no progress the remaining entries are in a
// stable failure state and further retries cannot help.
func (s *PushService) apply(ctx context.Context, dir remote.Directory, pending []*pushAction, idMap IDMap, emit func(int, PushRecord)) {
	for pass := 1; len(pending) > 0; pass++ {
		var next []*pushAction
		for i, action := range pending {
			if err := ctx.Err(); err != nil {
				s.failRemaining(append(next, pending[i:]...), "cancelled", pass, emit)
				return
			}
			retry, rec := s.applyOne(ctx, dir, action, idMap)
			if retry {
				next = append(next, action)
				continue
			}
			emit(pass, rec)
		}
		if len(next) >= len(pending) {
			s.failRemaining(next, "stable — no progress after retry", pass, emit)
			return
		}
		if len(next) > 0 {
			log.Printf("push pass %d: %d entries still pending", pass, len(next))
		}
		pending = next
	}
}

// applyOne attempts a single action. retry is true when the entry should be
// kept for the next pass.
func (s *PushService) applyOne(ctx context.Context, dir remote.Directory, action *pushAction, idMap IDMap) (retry bool, rec PushRecord) {
	rec = PushRecord{
		ResourceType: action.def.Type,
		Name:         action.entry.Name,
		ExternalID:   action.entry.ID,
	}
	ops, ok := dir.Ops(action.def.Type)
	if !ok {
		rec.Action = "failed:unsupported"
		rec.Detail = "no remote operations for type"
		return false, rec
	}

	if action.mergeField != "" {
		return false, s.applyMerge(ctx, ops, action, idMap, rec)
	}

	payload := preparePayload(action.entry.RawConfig, idMap)

	// A missing subtype cannot heal on retry; the payload itself is short a
	// required field.
	if action.def.SubtypeField != "" && stringValue(payload[action.def.SubtypeField]) == "" {
		rec.Action = "failed:invalid"
		rec.Detail = fmt.Sprintf("configuration has no %q field", action.def.SubtypeField)
		return false, rec
	}

	if action.isUpdate {
		if ops.Update == nil {
			rec.Action = "failed:unsupported"
			return false, rec
		}
		if _, err := ops.Update(ctx, action.targetID, payload); err != nil {
			return s.classifyFailure(err, "update", rec)
		}
		rec.Action = PushActionUpdated
		return false, rec
	}

	if ops.Create == nil {
		rec.Action = "failed:unsupported"
		return false, rec
	}
	resp, err := ops.Create(ctx, payload)
	if err != nil {
		if remote.IsConflict(err) {
			// The name already exists on the target even though the cache
			// missed it. Resolve against the live list and update instead.
			return false, s.resolveConflict(ctx, ops, action, payload, rec)
		}
		return s.classifyFailure(err, "create", rec)
	}
	newID := stringValue(resp[action.def.IDField])
	idMap.Put(action.entry.ID, newID)
	rec.Action = PushActionCreated
	return false, rec
}

func (s *PushService) applyMerge(ctx context.Context, ops remote.ResourceOps, action *pushAction, idMap IDMap, rec PushRecord) PushRecord {
	if ops.Update == nil {
		rec.Action = "failed:unsupported"
		return rec
	}
	baseValue, ok := action.entry.RawConfig[action.mergeField]
	if !ok {
		rec.Action = PushActionSkipped
		rec.Detail = "baseline has no mergeable field"
		return rec
	}
	if action.targetRaw != nil && jsonEqual(action.targetRaw[action.mergeField], baseValue) {
		rec.Action = PushActionSkipped
		rec.Detail = "already matches baseline"
		return rec
	}

	// Only the one mergeable list is replaced. The rest of the singleton
	// keeps its target-side values.
	payload := map[string]interface{}{}
	if action.targetRaw != nil {
		payload, _ = RemapIDs(map[string]interface{}(action.targetRaw), nil).(map[string]interface{})
	}
	payload[action.mergeField] = RemapIDs(baseValue, idMap)
	for field := range catalog.ReadOnlyFields {
		delete(payload, field)
	}

	if _, err := ops.Update(ctx, action.def.Type, payload); err != nil {
		rec.Action = "failed:" + string(remote.KindOf(err))
		rec.Detail = err.Error()
		return rec
	}
	rec.Action = PushActionUpdated
	return rec
}

// resolveConflict handles a create rejected with a name conflict: find the
// live entry by name and update it in place. Failures here are terminal; the
// same conflict would recur on every retry.
func (s *PushService) resolveConflict(ctx context.Context, ops remote.ResourceOps, action *pushAction, payload map[string]interface{}, rec PushRecord) PushRecord {
	if ops.List == nil || ops.Update == nil {
		rec.Action = "failed:conflict"
		rec.Detail = "name conflict and type cannot be updated"
		return rec
	}
	items, err := ops.List(ctx)
	if err != nil {
		rec.Action = "failed:conflict"
		rec.Detail = fmt.Sprintf("name conflict, live lookup failed: %v", err)
		return rec
	}

	nameField := action.def.NameField
	for _, item := range items {
		if stringValue(item[nameField]) != action.entry.Name {
			continue
		}
		liveID := stringValue(item[action.def.IDField])
		if _, err := ops.Update(ctx, liveID, payload); err != nil {
			rec.Action = "failed:conflict"
			rec.Detail = fmt.Sprintf("update after conflict failed: %v", err)
			return rec
		}
		rec.Action = PushActionUpdated
		rec.Detail = "resolved name conflict via live lookup"
		return rec
	}
	rec.Action = "failed:conflict"
	rec.Detail = "name conflict but entry not found in live list"
	return rec
}

// classifyFailure decides between terminal failure and retry for a failed
// create or update. Transient and dependency-shaped errors are retried;
// authorization failures never recover within a run.
func (s *PushService) classifyFailure(err error, op string, rec PushRecord) (bool, PushRecord) {
	kind := remote.KindOf(err)
	if kind == remote.KindUnauthorized {
		rec.Action = "failed:unauthorized"
		rec.Detail = err.Error()
		return false, rec
	}
	// Everything else may be an ordering problem (a reference that a later
	// pass will satisfy) or a transient fault. Keep it pending.
	log.Printf("push: %s of %s %q failed (%s), will retry: %v", op, rec.ResourceType, rec.Name, kind, err)
	return true, rec
}

func (s *PushService) failRemaining(pending []*pushAction, reason string, pass int, emit func(int, PushRecord)) {
	for _, action := range pending {
		emit(pass, PushRecord{
			ResourceType: action.def.Type,
			Name:         action.entry.Name,
			ExternalID:   action.entry.ID,
			Action:       "failed:" + reason,
		})
	}
}

func tally(records []PushRecord) (created, updated, skipped, failed int) {
	for _, rec := range records {
		switch {
		case rec.Action == PushActionCreated:
			created++
		case rec.Action == PushActionUpdated:
			updated++
		case rec.Action == PushActionSkipped:
			skipped++
		default:
			failed++
		}
	}
	return
}
