package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/remote"
	"github.com/zerotrust-ops/config-management/internal/repository"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&model.Tenant{},
		&model.RemoteResource{},
		&model.SyncLog{},
		&model.RestorePoint{},
		&model.AuditEvent{},
		&model.User{},
	))
	return db
}

// testEnv wires the service stack against an in-memory database and a fake
// remote API.
type testEnv struct {
	db       *gorm.DB
	api      *fakeAPI
	tenants  *TenantService
	importer *ImportService
	snaps    *SnapshotService
	diffs    *DiffService
	pusher   *PushService
	resRepo  *repository.ResourceRepository
	logRepo  *repository.SyncLogRepository
	tenant   *model.Tenant
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	enc, err := NewEncryptionService("test-key")
	require.NoError(t, err)

	auditRepo := repository.NewAuditRepository(db)
	audit := NewAuditService(auditRepo)
	tenantRepo := repository.NewTenantRepository(db)
	tenants := NewTenantService(tenantRepo, enc, audit)

	api := newFakeAPI()
	factory := func(tenant *model.Tenant, product string) (remote.Directory, error) {
		return api, nil
	}

	resRepo := repository.NewResourceRepository(db)
	logRepo := repository.NewSyncLogRepository(db)
	restoreRepo := repository.NewRestorePointRepository(db)

	importer := NewImportService(tenants, resRepo, logRepo, audit, factory)
	snaps := NewSnapshotService(tenants, restoreRepo, resRepo, audit)
	diffs := NewDiffService(restoreRepo, resRepo)
	pusher := NewPushService(tenants, importer, resRepo, audit, factory)

	tenant, err := tenants.Create(CreateTenantParams{
		Name:         "acme-prod",
		APIBaseURL:   "https://api.example.com",
		AuthBaseURL:  "https://auth.example.com/token",
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	require.NoError(t, err)

	return &testEnv{
		db:       db,
		api:      api,
		tenants:  tenants,
		importer: importer,
		snaps:    snaps,
		diffs:    diffs,
		pusher:   pusher,
		resRepo:  resRepo,
		logRepo:  logRepo,
		tenant:   tenant,
	}
}

func (e *testEnv) runImport(t *testing.T, types ...string) *model.SyncLog {
	t.Helper()
	syncLog, err := e.importer.Run(context.Background(), e.tenant.ID, catalog.ProductWeb, ImportOptions{Types: types})
	require.NoError(t, err)
	return syncLog
}

// fakeAPI is an in-memory stand-in for the remote configuration API. It
// serves list/create/update/delete per resource type and can be primed with
// canned errors.
type fakeAPI struct {
	mu        sync.Mutex
	items     map[string][]map[string]interface{}
	listErr   map[string]error
	createErr map[string]error
	updateErr map[string]error
	nextID    int
	creates   int
	updates   int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		items:     map[string][]map[string]interface{}{},
		listErr:   map[string]error{},
		createErr: map[string]error{},
		updateErr: map[string]error{},
		nextID:    9000,
	}
}

func (f *fakeAPI) seed(resourceType string, items ...map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[resourceType] = append(f.items[resourceType], items...)
}

func (f *fakeAPI) setItems(resourceType string, items []map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[resourceType] = items
}

func (f *fakeAPI) find(resourceType, name string) map[string]interface{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, item := range f.items[resourceType] {
		if item["name"] == name {
			return item
		}
	}
	return nil
}

func (f *fakeAPI) Ops(resourceType string) (remote.ResourceOps, bool) {
	def, ok := catalog.Lookup(catalog.ProductWeb, resourceType)
	if !ok {
		return remote.ResourceOps{}, false
	}

	ops := remote.ResourceOps{
		List: func(ctx context.Context) ([]map[string]interface{}, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.listErr[resourceType]; err != nil {
				return nil, err
			}
			out := make([]map[string]interface{}, len(f.items[resourceType]))
			copy(out, f.items[resourceType])
			return out, nil
		},
	}
	if def.Singleton {
		ops.List = func(ctx context.Context) ([]map[string]interface{}, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.listErr[resourceType]; err != nil {
				return nil, err
			}
			if len(f.items[resourceType]) == 0 {
				return []map[string]interface{}{{}}, nil
			}
			return f.items[resourceType][:1], nil
		}
		ops.Update = func(ctx context.Context, id string, payload map[string]interface{}) (map[string]interface{}, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.updateErr[resourceType]; err != nil {
				return nil, err
			}
			f.updates++
			f.items[resourceType] = []map[string]interface{}{payload}
			return payload, nil
		}
		return ops, true
	}

	if def.CanCreate {
		ops.Create = func(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.createErr[resourceType]; err != nil {
				return nil, err
			}
			name, _ := payload["name"].(string)
			for _, item := range f.items[resourceType] {
				if item["name"] == name {
					return nil, remote.NewAPIError(409, fmt.Sprintf("name %q already exists", name))
				}
			}
			f.nextID++
			f.creates++
			created := map[string]interface{}{}
			for k, v := range payload {
				created[k] = v
			}
			created["id"] = strconv.Itoa(f.nextID)
			f.items[resourceType] = append(f.items[resourceType], created)
			return created, nil
		}
	}
	if def.CanUpdate {
		ops.Update = func(ctx context.Context, id string, payload map[string]interface{}) (map[string]interface{}, error) {
			f.mu.Lock()
			defer f.mu.Unlock()
			if err := f.updateErr[resourceType]; err != nil {
				return nil, err
			}
			for i, item := range f.items[resourceType] {
				if fmt.Sprint(item["id"]) == id {
					updated := map[string]interface{}{}
					for k, v := range payload {
						updated[k] = v
					}
					updated["id"] = item["id"]
					f.items[resourceType][i] = updated
					f.updates++
					return updated, nil
				}
			}
			return nil, remote.NewAPIError(404, "no such resource")
		}
	}
	if def.CanDelete {
		ops.Delete = func(ctx context.Context, id string) error {
			f.mu.Lock()
			defer f.mu.Unlock()
			items := f.items[resourceType]
			for i, item := range items {
				if fmt.Sprint(item["id"]) == id {
					f.items[resourceType] = append(items[:i], items[i+1:]...)
					return nil
				}
			}
			return remote.NewAPIError(404, "no such resource")
		}
	}
	return ops, true
}
