package model

// ResourceEntry is the portable representation of one cached resource: the
// shape embedded in snapshots, exported baselines, and diff results.
type ResourceEntry struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	RawConfig JSONMap `json:"raw_config"`
}

// Inventory maps resource_type → entries, in cache order.
type Inventory map[string][]ResourceEntry

// Count returns the total number of entries across all resource types.
func (inv Inventory) Count() int {
	total := 0
	for _, entries := range inv {
		total += len(entries)
	}
	return total
}

// Encode converts the inventory into plain JSON-compatible values for
// storage in a JSONMap column.
func (inv Inventory) Encode() map[string]interface{} {
	out := make(map[string]interface{}, len(inv))
	for rtype, entries := range inv {
		list := make([]interface{}, 0, len(entries))
		for _, e := range entries {
			cfg := e.RawConfig
			if cfg == nil {
				cfg = JSONMap{}
			}
			list = append(list, map[string]interface{}{
				"id":         e.ID,
				"name":       e.Name,
				"raw_config": map[string]interface{}(cfg),
			})
		}
		out[rtype] = list
	}
	return out
}

// DecodeInventory rebuilds an Inventory from a decoded JSON value (as read
// back from a snapshot column or an exported baseline document).
func DecodeInventory(raw interface{}) Inventory {
	inv := Inventory{}
	m, ok := raw.(map[string]interface{})
	if !ok {
		return inv
	}
	for rtype, listRaw := range m {
		list, ok := listRaw.([]interface{})
		if !ok {
			continue
		}
		entries := make([]ResourceEntry, 0, len(list))
		for _, itemRaw := range list {
			item, ok := itemRaw.(map[string]interface{})
			if !ok {
				continue
			}
			entry := ResourceEntry{RawConfig: JSONMap{}}
			if id, ok := item["id"].(string); ok {
				entry.ID = id
			}
			if name, ok := item["name"].(string); ok {
				entry.Name = name
			}
			if cfg, ok := item["raw_config"].(map[string]interface{}); ok {
				entry.RawConfig = JSONMap(cfg)
			}
			entries = append(entries, entry)
		}
		inv[rtype] = entries
	}
	return inv
}
