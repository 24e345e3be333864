package service

import (
	"strconv"

	"github.com/zerotrust-ops/config-management/internal/catalog"
	"github.com/zerotrust-ops/config-management/internal/model"
)

// IDMap translates source-environment resource IDs to their target-tenant
// equivalents. Keys and values are the string form of the external ID.
type IDMap map[string]string

func (m IDMap) Put(oldID, newID string) {
	if oldID != "" && newID != "" && oldID != newID {
		m[oldID] = newID
	}
}

// RemapIDs returns a deep copy of a decoded JSON value with every object
// "id" field translated through the map. Values keep their original JSON
// type: a numeric id stays numeric, a string id stays a string. The input is
// never mutated.
func RemapIDs(value interface{}, ids IDMap) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(v))
		for key, inner := range v {
			if key == "id" {
				out[key] = remapScalar(inner, ids)
				continue
			}
			out[key] = RemapIDs(inner, ids)
		}
		return out
	case model.JSONMap:
		return RemapIDs(map[string]interface{}(v), ids)
	case []interface{}:
		out := make([]interface{}, len(v))
		for i, inner := range v {
			out[i] = RemapIDs(inner, ids)
		}
		return out
	default:
		return value
	}
}

func remapScalar(v interface{}, ids IDMap) interface{} {
	key := stringValue(v)
	if key == "" {
		return v
	}
	newID, ok := ids[key]
	if !ok {
		return v
	}
	switch v.(type) {
	case float64:
		if parsed, err := strconv.ParseFloat(newID, 64); err == nil {
			return parsed
		}
		return v
	default:
		return newID
	}
}

// preparePayload builds the request body for a create or update: IDs
// remapped for the target environment and server-managed fields stripped.
func preparePayload(raw model.JSONMap, ids IDMap) map[string]interface{} {
	remapped, _ := RemapIDs(map[string]interface{}(raw), ids).(map[string]interface{})
	if remapped == nil {
		return map[string]interface{}{}
	}
	for field := range catalog.ReadOnlyFields {
		delete(remapped, field)
	}
	return remapped
}

// cleanForCompare strips fields that never count toward configuration
// equivalence, so a baseline entry can be compared with its target twin.
func cleanForCompare(raw map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(raw))
	for key, v := range raw {
		if catalog.ReadOnlyFields[key] || catalog.VolatileFields[key] {
			continue
		}
		out[key] = v
	}
	return out
}
