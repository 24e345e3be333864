package service

import (
	"encoding/json"
	"errors"
	"sort"

	"github.com/google/uuid"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"gorm.io/gorm"
)

type FieldChange struct {
	Field  string      `json:"field"`
	Before interface{} `json:"before"`
	After  interface{} `json:"after"`
}

type ModifiedEntry struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	FieldChanges []FieldChange `json:"field_changes"`
}

type ResourceDiff struct {
	Added    []model.ResourceEntry `json:"added,omitempty"`
	Removed  []model.ResourceEntry `json:"removed,omitempty"`
	Modified []ModifiedEntry       `json:"modified,omitempty"`
}

// DiffResult maps resource_type to its changes. Types with no changes are
// absent, so an empty result means the two inventories are equivalent.
type DiffResult map[string]ResourceDiff

func (d DiffResult) Empty() bool {
	return len(d) == 0
}

// ComputeDiff structurally compares two inventories. Entries are matched by
// ID within each resource type; volatile bookkeeping fields never count as
// differences. The same two inventories always produce the same result.
func ComputeDiff(before, after model.Inventory) DiffResult {
	result := DiffResult{}

	types := map[string]bool{}
	for t := range before {
		types[t] = true
	}
	for t := range after {
		types[t] = true
	}

	for t := range types {
		diff := diffType(before[t], after[t])
		if len(diff.Added) == 0 && len(diff.Removed) == 0 && len(diff.Modified) == 0 {
			continue
		}
		result[t] = diff
	}
	return result
}

// diffType preserves input-list order: added and modified entries follow the
// after list, removed entries follow the before list.
func diffType(before, after []model.ResourceEntry) ResourceDiff {
	beforeByID := indexByID(before)
	afterByID := indexByID(after)

	var diff ResourceDiff
	for _, entry := range after {
		oldEntry, ok := beforeByID[entry.ID]
		if !ok {
			diff.Added = append(diff.Added, entry)
			continue
		}
		changes := diffFields(oldEntry.RawConfig, entry.RawConfig)
		if len(changes) == 0 {
			continue
		}
		diff.Modified = append(diff.Modified, ModifiedEntry{
			ID:           entry.ID,
			Name:         entry.Name,
			FieldChanges: changes,
		})
	}
	for _, entry := range before {
		if _, ok := afterByID[entry.ID]; !ok {
			diff.Removed = append(diff.Removed, entry)
		}
	}
	return diff
}

func diffFields(before, after model.JSONMap) []FieldChange {
	fields := map[string]bool{}
	for f := range before {
		fields[f] = true
	}
	for f := range after {
		fields[f] = true
	}

	var changes []FieldChange
	for f := range fields {
		if catalog.VolatileFields[f] {
			continue
		}
		oldVal, inOld := before[f]
		newVal, inNew := after[f]
		if inOld && inNew && jsonEqual(oldVal, newVal) {
			continue
		}
		if !inOld && !inNew {
			continue
		}
		changes = append(changes, FieldChange{Field: f, Before: oldVal, After: newVal})
	}
	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return changes
}

// jsonEqual compares two decoded JSON values structurally. Marshalling
// normalizes map key order, so equal documents compare equal byte for byte.
func jsonEqual(a, b interface{}) bool {
	aBytes, errA := json.Marshal(a)
	bBytes, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aBytes) == string(bBytes)
}

func indexByID(entries []model.ResourceEntry) map[string]model.ResourceEntry {
	m := make(map[string]model.ResourceEntry, len(entries))
	for _, e := range entries {
		m[e.ID] = e
	}
	return m
}

// DiffService resolves stored snapshots and the live cache into inventories
// and diffs them.
type DiffService struct {
	restoreRepo  *repository.RestorePointRepository
	resourceRepo *repository.ResourceRepository
}

func NewDiffService(restoreRepo *repository.RestorePointRepository, resourceRepo *repository.ResourceRepository) *DiffService {
	return &DiffService{
		restoreRepo:  restoreRepo,
		resourceRepo: resourceRepo,
	}
}

// SnapshotVsSnapshot diffs two restore points, oldest side first.
func (s *DiffService) SnapshotVsSnapshot(beforeID, afterID uuid.UUID) (DiffResult, error) {
	before, err := s.loadSnapshot(beforeID)
	if err != nil {
		return nil, err
	}
	after, err := s.loadSnapshot(afterID)
	if err != nil {
		return nil, err
	}
	return ComputeDiff(before.Inventory(), after.Inventory()), nil
}

// SnapshotVsCurrent diffs a restore point against the tenant's live cache.
func (s *DiffService) SnapshotVsCurrent(snapshotID uuid.UUID) (DiffResult, error) {
	snapshot, err := s.loadSnapshot(snapshotID)
	if err != nil {
		return nil, err
	}
	current, err := s.resourceRepo.CurrentInventory(snapshot.TenantID, snapshot.Product)
	if err != nil {
		return nil, err
	}
	return ComputeDiff(snapshot.Inventory(), current), nil
}

func (s *DiffService) loadSnapshot(id uuid.UUID) (*model.RestorePoint, error) {
	snapshot, err := s.restoreRepo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, err
	}
	return snapshot, nil
}
