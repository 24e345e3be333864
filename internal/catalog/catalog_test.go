package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushPlanTypesExistInCatalog(t *testing.T) {
	plan, ok := PlanFor(ProductWeb)
	require.True(t, ok)

	for _, tier := range plan.Tiers {
		for _, resourceType := range tier {
			_, found := Lookup(ProductWeb, resourceType)
			assert.True(t, found, "tier type %s missing from catalog", resourceType)
		}
	}
	for resourceType := range plan.Skip {
		_, found := Lookup(ProductWeb, resourceType)
		assert.True(t, found, "skip type %s missing from catalog", resourceType)
	}
	for resourceType := range plan.SkipIfPredefined {
		_, found := Lookup(ProductWeb, resourceType)
		assert.True(t, found, "predefined-skip type %s missing from catalog", resourceType)
	}
}

func TestPushPlanTiersAreDisjoint(t *testing.T) {
	plan, ok := PlanFor(ProductWeb)
	require.True(t, ok)

	seen := map[string]bool{}
	for _, tier := range plan.Tiers {
		for _, resourceType := range tier {
			assert.False(t, seen[resourceType], "type %s appears in more than one tier", resourceType)
			seen[resourceType] = true
		}
	}
}

func TestMergeOnlyTypesAreSingletons(t *testing.T) {
	plan, ok := PlanFor(ProductWeb)
	require.True(t, ok)

	for resourceType := range plan.MergeOnly {
		def, found := Lookup(ProductWeb, resourceType)
		require.True(t, found)
		assert.True(t, def.Singleton, "merge-only type %s should be a singleton", resourceType)
	}
}

func TestOnlyWebSupportsPush(t *testing.T) {
	_, ok := PlanFor(ProductAccess)
	assert.False(t, ok)
	_, ok = PlanFor("nonexistent")
	assert.False(t, ok)
}

func TestDefinitionsUnknownProduct(t *testing.T) {
	assert.Nil(t, Definitions("nonexistent"))
	assert.Empty(t, Types("nonexistent"))
}

func TestAccessCatalogIsInventoryOnly(t *testing.T) {
	for _, def := range Definitions(ProductAccess) {
		assert.False(t, def.CanCreate || def.CanUpdate || def.CanDelete,
			"access type %s should be inventory-only", def.Type)
	}
}

func TestCatalogTypesAreUnique(t *testing.T) {
	for _, product := range []string{ProductWeb, ProductAccess} {
		seen := map[string]bool{}
		for _, def := range Definitions(product) {
			assert.False(t, seen[def.Type], "duplicate type %s in %s catalog", def.Type, product)
			seen[def.Type] = true
		}
	}
}
