package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/remote"
)

// exportBaseline snapshots the tenant's current cache and exports it, the
// same path an operator uses to produce a baseline file.
func exportBaseline(t *testing.T, env *testEnv, name string) *BaselineDocument {
	t.Helper()
	snap, err := env.snaps.Create(env.tenant.ID, "web", name, "")
	require.NoError(t, err)
	doc, err := env.snaps.Export(snap.ID)
	require.NoError(t, err)
	return doc
}

func recordsByAction(records []PushRecord) map[string][]PushRecord {
	byAction := map[string][]PushRecord{}
	for _, rec := range records {
		byAction[rec.Action] = append(byAction[rec.Action], rec)
	}
	return byAction
}

func TestPushCreatesMissingResources(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod", "description": "production"})
	env.runImport(t, "rule_label")
	baseline := exportBaseline(t, env, "source")

	// Wipe the environment so the push has to recreate everything.
	env.api.setItems("rule_label", nil)

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionCreated], 1)
	assert.Equal(t, "prod", byAction[PushActionCreated][0].Name)
	assert.NotNil(t, env.api.find("rule_label", "prod"))
}

func TestPushSkipsMatchingResources(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.runImport(t, "rule_label")
	baseline := exportBaseline(t, env, "source")

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	assert.Empty(t, byAction[PushActionCreated])
	assert.Empty(t, byAction[PushActionUpdated])
	require.Len(t, byAction[PushActionSkipped], 1)
	assert.Equal(t, 0, env.api.creates)
}

func TestPushUpdatesDriftedResources(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod", "description": "baseline wording"})
	env.runImport(t, "rule_label")
	baseline := exportBaseline(t, env, "source")

	// Drift the live environment.
	env.api.setItems("rule_label", []map[string]interface{}{
		{"id": "1", "name": "prod", "description": "someone changed this"},
	})

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionUpdated], 1)
	item := env.api.find("rule_label", "prod")
	require.NotNil(t, item)
	assert.Equal(t, "baseline wording", item["description"])
}

func TestPushRemapsCrossEnvironmentIDs(t *testing.T) {
	env := newTestEnv(t)
	// Source environment: a label and a rule referencing it by ID.
	env.api.seed("rule_label", map[string]interface{}{"id": "100", "name": "prod"})
	env.api.seed("firewall_rule", map[string]interface{}{
		"id":     "200",
		"name":   "Block P2P",
		"labels": []interface{}{map[string]interface{}{"id": "100", "name": "prod"}},
	})
	env.runImport(t, "rule_label", "firewall_rule")
	baseline := exportBaseline(t, env, "source")

	// Fresh target: both must be created and the reference rewritten.
	env.api.setItems("rule_label", nil)
	env.api.setItems("firewall_rule", nil)

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionCreated], 2)

	label := env.api.find("rule_label", "prod")
	require.NotNil(t, label)
	rule := env.api.find("firewall_rule", "Block P2P")
	require.NotNil(t, rule)

	labels := rule["labels"].([]interface{})
	ref := labels[0].(map[string]interface{})
	assert.Equal(t, label["id"], ref["id"], "label reference should point at the new target-side ID")
	assert.NotEqual(t, "100", ref["id"])
}

func TestPushSkipsEnvironmentSpecificTypes(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("department", map[string]interface{}{"id": "1", "name": "Engineering"})
	env.runImport(t, "department")
	baseline := exportBaseline(t, env, "source")

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionSkipped], 1)
	assert.Equal(t, "department", byAction[PushActionSkipped][0].ResourceType)
	assert.Equal(t, "environment-specific resource", byAction[PushActionSkipped][0].Detail)
}

func TestPushReportsUnknownBaselineTypes(t *testing.T) {
	env := newTestEnv(t)
	// A baseline from a newer export can carry types this build has never
	// heard of. Every entry still gets a record.
	baseline := &BaselineDocument{
		Product: "web",
		Resources: map[string]interface{}{
			"quantum_rule": []interface{}{map[string]interface{}{
				"id":         "1",
				"name":       "future-thing",
				"raw_config": map[string]interface{}{"id": "1", "name": "future-thing"},
			}},
		},
	}

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction["failed:unsupported"], 1)
	assert.Equal(t, "quantum_rule", byAction["failed:unsupported"][0].ResourceType)
	assert.Equal(t, "unknown resource type", byAction["failed:unsupported"][0].Detail)
}

func TestPushCloudAppRuleCreates(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("cloud_app_control_rule", map[string]interface{}{
		"id": "5", "name": "block-gaming", "type": "STREAMING_MEDIA", "state": "ENABLED",
	})
	env.runImport(t, "cloud_app_control_rule")
	baseline := exportBaseline(t, env, "source")

	env.api.setItems("cloud_app_control_rule", nil)

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionCreated], 1)
	item := env.api.find("cloud_app_control_rule", "block-gaming")
	require.NotNil(t, item)
	assert.Equal(t, "STREAMING_MEDIA", item["type"])
}

func TestPushCloudAppRuleWithoutTypeIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("cloud_app_control_rule", map[string]interface{}{
		"id": "5", "name": "broken-export",
	})
	env.runImport(t, "cloud_app_control_rule")
	baseline := exportBaseline(t, env, "source")

	env.api.setItems("cloud_app_control_rule", nil)

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction["failed:invalid"], 1)
	assert.Contains(t, byAction["failed:invalid"][0].Detail, `"type"`)
	assert.Equal(t, 0, env.api.creates)
}

func TestPushProgressReportsPassAndType(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.api.seed("department", map[string]interface{}{"id": "2", "name": "Engineering"})
	env.runImport(t, "rule_label", "department")
	baseline := exportBaseline(t, env, "source")

	env.api.setItems("rule_label", nil)

	type call struct {
		pass         int
		resourceType string
		action       string
	}
	var calls []call
	progress := func(pass int, resourceType string, rec PushRecord) {
		calls = append(calls, call{pass, resourceType, rec.Action})
	}

	_, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, progress)
	require.NoError(t, err)

	require.Len(t, calls, 2)
	assert.Equal(t, call{0, "department", PushActionSkipped}, calls[0])
	assert.Equal(t, call{1, "rule_label", PushActionCreated}, calls[1])
}

func TestPushPredefinedMappedNotWritten(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("dlp_dictionary", map[string]interface{}{"id": "10", "name": "Credit Cards", "predefined": true})
	env.runImport(t, "dlp_dictionary")
	baseline := exportBaseline(t, env, "source")

	// Target has the same predefined dictionary under a different ID.
	env.api.setItems("dlp_dictionary", []map[string]interface{}{
		{"id": "77", "name": "Credit Cards", "predefined": true},
	})

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionSkipped], 1)
	assert.Equal(t, "predefined, mapped to existing", byAction[PushActionSkipped][0].Detail)
	assert.Equal(t, 0, env.api.creates)
	assert.Equal(t, 0, env.api.updates)
}

func TestPushPredefinedNoMatchWarns(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("dlp_dictionary", map[string]interface{}{"id": "10", "name": "Custom Terms", "predefined": true})
	env.runImport(t, "dlp_dictionary")
	baseline := exportBaseline(t, env, "source")

	env.api.setItems("dlp_dictionary", nil)

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionSkipped], 1)
	assert.Equal(t, "predefined, no match on target", byAction[PushActionSkipped][0].Detail)
}

// conflictDir simulates a target whose live state is ahead of the cache: the
// create is rejected with a name conflict, and only the live list reveals the
// existing entry.
type conflictDir struct {
	liveID      string
	updatedID   string
	updatedBody map[string]interface{}
}

func (d *conflictDir) Ops(resourceType string) (remote.ResourceOps, bool) {
	return remote.ResourceOps{
		List: func(ctx context.Context) ([]map[string]interface{}, error) {
			return []map[string]interface{}{{"id": d.liveID, "name": "prod"}}, nil
		},
		Create: func(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error) {
			return nil, remote.NewAPIError(409, `name "prod" already exists`)
		},
		Update: func(ctx context.Context, id string, payload map[string]interface{}) (map[string]interface{}, error) {
			d.updatedID = id
			d.updatedBody = payload
			return payload, nil
		},
	}, true
}

func TestPushConflictFallsBackToUpdate(t *testing.T) {
	env := newTestEnv(t)
	dir := &conflictDir{liveID: "55"}

	def, ok := catalog.Lookup("web", "rule_label")
	require.True(t, ok)
	action := &pushAction{
		def:   def,
		entry: entry("1", "prod", map[string]interface{}{"description": "baseline"}),
	}

	retry, rec := env.pusher.applyOne(context.Background(), dir, action, IDMap{})
	assert.False(t, retry)
	assert.Equal(t, PushActionUpdated, rec.Action)
	assert.Equal(t, "resolved name conflict via live lookup", rec.Detail)
	assert.Equal(t, "55", dir.updatedID)
	assert.Equal(t, "baseline", dir.updatedBody["description"])
}

func TestPushStableFailureTerminates(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.runImport(t, "rule_label")
	baseline := exportBaseline(t, env, "source")

	env.api.setItems("rule_label", nil)
	env.api.createErr["rule_label"] = remote.NewAPIError(500, "backend down")

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction["failed:stable — no progress after retry"], 1)
}

func TestPushUnauthorizedIsTerminal(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("rule_label", map[string]interface{}{"id": "1", "name": "prod"})
	env.runImport(t, "rule_label")
	baseline := exportBaseline(t, env, "source")

	env.api.setItems("rule_label", nil)
	env.api.createErr["rule_label"] = remote.NewAPIError(403, "no write access")

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction["failed:unauthorized"], 1)
}

func TestPushMergeOnlySingleton(t *testing.T) {
	env := newTestEnv(t)
	env.api.seed("allowlist", map[string]interface{}{
		"allowlistUrls": []interface{}{"ok.example.com", "fine.example.com"},
		"otherSetting":  "keep-me",
	})
	env.runImport(t, "allowlist")
	baseline := exportBaseline(t, env, "source")

	// Target drifts: the allowlist shrinks, an unrelated setting changes.
	env.api.setItems("allowlist", []map[string]interface{}{{
		"allowlistUrls": []interface{}{"ok.example.com"},
		"otherSetting":  "target-value",
	}})

	records, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	require.NoError(t, err)

	byAction := recordsByAction(records)
	require.Len(t, byAction[PushActionUpdated], 1)

	env.api.mu.Lock()
	live := env.api.items["allowlist"][0]
	env.api.mu.Unlock()
	assert.ElementsMatch(t, []interface{}{"ok.example.com", "fine.example.com"}, live["allowlistUrls"])
	assert.Equal(t, "target-value", live["otherSetting"], "only the mergeable list is replaced")
}

func TestPushRejectsImportOnlyProduct(t *testing.T) {
	env := newTestEnv(t)
	baseline := &BaselineDocument{Product: "access", Resources: map[string]interface{}{}}
	_, err := env.pusher.PushBaseline(context.Background(), baseline, env.tenant.ID, nil)
	assert.ErrorIs(t, err, ErrPushNotSupported)
}
