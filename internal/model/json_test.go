package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONMapScanValueRoundTrip(t *testing.T) {
	m := JSONMap{"name": "prod", "order": float64(3), "nested": map[string]interface{}{"id": "1"}}

	value, err := m.Value()
	require.NoError(t, err)

	var restored JSONMap
	require.NoError(t, restored.Scan(value))
	assert.Equal(t, "prod", restored.GetString("name"))
	assert.Equal(t, float64(3), restored["order"])
}

func TestJSONMapGetBool(t *testing.T) {
	m := JSONMap{"predefined": true, "name": "x"}
	assert.True(t, m.GetBool("predefined"))
	assert.False(t, m.GetBool("name"))
	assert.False(t, m.GetBool("missing"))
}

func TestTenantDisabledTypes(t *testing.T) {
	tenant := &Tenant{DisabledResources: JSONMap{
		"web": []interface{}{"dlp_dictionary", "dlp_engine"},
	}}

	assert.Equal(t, []string{"dlp_dictionary", "dlp_engine"}, tenant.DisabledTypes("web"))
	assert.Empty(t, tenant.DisabledTypes("access"))

	var nilTenant Tenant
	assert.Empty(t, nilTenant.DisabledTypes("web"))
}

func TestInventoryEncodeDecodeRoundTrip(t *testing.T) {
	inv := Inventory{
		"rule_label": {
			{ID: "1", Name: "prod", RawConfig: JSONMap{"id": "1", "name": "prod"}},
		},
	}

	decoded := DecodeInventory(inv.Encode())
	require.Len(t, decoded["rule_label"], 1)
	assert.Equal(t, "prod", decoded["rule_label"][0].Name)
	assert.Equal(t, 1, decoded.Count())
}

func TestDecodeInventoryToleratesGarbage(t *testing.T) {
	assert.Empty(t, DecodeInventory(nil))
	assert.Empty(t, DecodeInventory("not a map"))
	assert.Empty(t, DecodeInventory(map[string]interface{}{"rule_label": "not a list"})["rule_label"])
}
