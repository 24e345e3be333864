package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerotrust-ops/config-management/internal/model"
	"github.com/zerotrust-ops/config-management/internal/remote"
)

func TestImportCreatesResources(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label",
		map[string]interface{}{"id": "1", "name": "prod", "description": "production"},
		map[string]interface{}{"id": "2", "name": "staging"},
	)

	syncLog := env.runImport(t, "rule_label")

	assert.Equal(t, model.SyncStatusSuccess, syncLog.Status)
	assert.Equal(t, 2, syncLog.ResourcesSynced)
	assert.Equal(t, 2, syncLog.ResourcesUpdated)
	assert.NotNil(t, syncLog.CompletedAt)

	inv, err := env.resRepo.CurrentInventory(env.tenant.ID, "web")
	require.NoError(t, err)
	require.Len(t, inv["rule_label"], 2)
	assert.Equal(t, "prod", inv["rule_label"][0].Name)
}

func TestImportIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})

	first := env.runImport(t, "rule_label")
	assert.Equal(t, 1, first.ResourcesUpdated)

	second := env.runImport(t, "rule_label")
	assert.Equal(t, 1, second.ResourcesSynced)
	assert.Equal(t, 0, second.ResourcesUpdated)
	assert.Equal(t, 0, second.ResourcesDeleted)

	var count int64
	env.db.Model(&model.RemoteResource{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestImportDetectsContentChange(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod", "description": "v1"})
	env.runImport(t, "rule_label")

	env.api.setItems("rule_label", []map[string]interface{}{
		{"id": "1", "name": "prod", "description": "v2"},
	})
	syncLog := env.runImport(t, "rule_label")

	assert.Equal(t, 1, syncLog.ResourcesUpdated)

	inv, err := env.resRepo.CurrentInventory(env.tenant.ID, "web")
	require.NoError(t, err)
	assert.Equal(t, "v2", inv["rule_label"][0].RawConfig.GetString("description"))
}

func TestImportSoftDeletesMissingResources(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label",
		map[string]interface{}{"id": "1", "name": "prod"},
		map[string]interface{}{"id": "2", "name": "staging"},
	)
	env.runImport(t, "rule_label")

	env.api.setItems("rule_label", []map[string]interface{}{
		{"id": "1", "name": "prod"},
	})
	syncLog := env.runImport(t, "rule_label")

	assert.Equal(t, 1, syncLog.ResourcesDeleted)

	inv, err := env.resRepo.CurrentInventory(env.tenant.ID, "web")
	require.NoError(t, err)
	require.Len(t, inv["rule_label"], 1)
	assert.Equal(t, "1", inv["rule_label"][0].ID)

	// The row survives as a tombstone.
	var row model.RemoteResource
	require.NoError(t, env.db.Where("external_id = ?", "2").First(&row).Error)
	assert.True(t, row.IsDeleted)
}

func TestImportResurrectsDeletedResource(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.runImport(t, "rule_label")

	env.api.setItems("rule_label", nil)
	env.runImport(t, "rule_label")

	env.api.setItems("rule_label", []map[string]interface{}{
		{"id": "1", "name": "prod"},
	})
	syncLog := env.runImport(t, "rule_label")

	assert.Equal(t, 1, syncLog.ResourcesUpdated)
	inv, err := env.resRepo.CurrentInventory(env.tenant.ID, "web")
	require.NoError(t, err)
	assert.Len(t, inv["rule_label"], 1)
}

func TestImportFailedTypeKeepsCachedRows(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.runImport(t, "rule_label")

	env.api.listErr["rule_label"] = remote.NewAPIError(503, "maintenance window")
	syncLog := env.runImport(t, "rule_label")

	assert.Equal(t, model.SyncStatusFailed, syncLog.Status)
	assert.Equal(t, 0, syncLog.ResourcesDeleted)

	inv, err := env.resRepo.CurrentInventory(env.tenant.ID, "web")
	require.NoError(t, err)
	assert.Len(t, inv["rule_label"], 1)
}

func TestImportDisablesUnentitledTypes(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.api.listErr["dlp_dictionary"] = remote.NewAPIError(403, "SKU not subscribed")

	syncLog, err := env.importer.Run(context.Background(), env.tenant.ID, "web", ImportOptions{
		Types: []string{"rule_label", "dlp_dictionary"},
	})
	require.NoError(t, err)

	assert.Equal(t, model.SyncStatusPartial, syncLog.Status)
	require.NotNil(t, syncLog.Details)
	assert.Contains(t, syncLog.Details["skipped_na"], "dlp_dictionary")

	tenant, err := env.tenants.Get(env.tenant.ID)
	require.NoError(t, err)
	assert.Contains(t, tenant.DisabledTypes("web"), "dlp_dictionary")

	// Subsequent runs skip the type without calling the API.
	env.api.listErr["dlp_dictionary"] = nil
	second, err := env.importer.Run(context.Background(), env.tenant.ID, "web", ImportOptions{
		Types: []string{"rule_label", "dlp_dictionary"},
	})
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusSuccess, second.Status)
	assert.Contains(t, second.Details["skipped_na"], "dlp_dictionary")
}

func TestClearDisabledTypesRestoresImport(t *testing.T) {
	env := newTestEnv(t)
	env.api.listErr["dlp_dictionary"] = remote.NewAPIError(401, "not subscribed")
	env.importer.Run(context.Background(), env.tenant.ID, "web", ImportOptions{Types: []string{"dlp_dictionary"}})

	require.NoError(t, env.tenants.ClearDisabledTypes(env.tenant.ID, "web"))

	env.api.listErr["dlp_dictionary"] = nil
	env.api.seed("dlp_dictionary", map[string]interface{}{"id": "7", "name": "SSNs"})
	syncLog, err := env.importer.Run(context.Background(), env.tenant.ID, "web", ImportOptions{Types: []string{"dlp_dictionary"}})
	require.NoError(t, err)
	assert.Equal(t, model.SyncStatusSuccess, syncLog.Status)
	assert.Equal(t, 1, syncLog.ResourcesSynced)
}

func TestImportUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.importer.Run(context.Background(), env.tenant.ID, "nonexistent", ImportOptions{})
	assert.ErrorIs(t, err, ErrUnknownProduct)
}

func TestImportInactiveTenant(t *testing.T) {
	env := newTestEnv(t)
	inactive := false
	_, err := env.tenants.Update(env.tenant.ID, UpdateTenantParams{IsActive: &inactive})
	require.NoError(t, err)

	_, err = env.importer.Run(context.Background(), env.tenant.ID, "web", ImportOptions{})
	assert.ErrorIs(t, err, ErrTenantInactive)
}

func TestImportSingletonResource(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("allowlist", map[string]interface{}{
		"allowlistUrls": []interface{}{"ok.example.com"},
	})

	syncLog := env.runImport(t, "allowlist")
	assert.Equal(t, model.SyncStatusSuccess, syncLog.Status)

	inv, err := env.resRepo.CurrentInventory(env.tenant.ID, "web")
	require.NoError(t, err)
	require.Len(t, inv["allowlist"], 1)
	assert.Equal(t, "allowlist", inv["allowlist"][0].ID)
}
