package catalog

// PushPlan fixes the order and rules for replaying a baseline onto a target
// tenant. Tiers are applied strictly in sequence so that resources referenced
// by later tiers (labels, groups, locations) exist before the rules that use
// them.
type PushPlan struct {
	// Tiers lists resource types in dependency order. Baseline types absent
	// from every tier are attempted after the last tier.
	Tiers [][]string
	// Skip marks environment-specific types (identities, device inventory)
	// that are cached for reference but must never be replayed onto another
	// tenant.
	Skip map[string]bool
	// SkipIfPredefined marks types where vendor-predefined entries exist
	// alongside custom ones. Predefined entries are matched by name and
	// remapped, never created or updated.
	SkipIfPredefined map[string]bool
	// MergeOnly maps singleton types to the one list field inside their
	// payload that a push is allowed to replace.
	MergeOnly map[string]string
}

// ReadOnlyFields are stripped from payloads before create and update calls.
// The API rejects or silently ignores them.
var ReadOnlyFields = map[string]bool{
	"id":               true,
	"predefined":       true,
	"creatorContext":   true,
	"createdBy":        true,
	"creationTime":     true,
	"lastModifiedBy":   true,
	"lastModifiedTime": true,
	"modifiedBy":       true,
	"modifiedTime":     true,
}

// VolatileFields change on every save without representing a configuration
// difference. Diffs ignore them.
var VolatileFields = map[string]bool{
	"modifiedBy":       true,
	"modifiedTime":     true,
	"creationTime":     true,
	"modifiedAt":       true,
	"createdAt":        true,
	"lastModifiedTime": true,
	"modifiedByUser":   true,
	"createdByUser":    true,
}

var webPushPlan = PushPlan{
	Tiers: [][]string{
		{"rule_label", "time_interval", "bandwidth_class"},
		{"url_category", "ip_source_group", "ip_destination_group", "network_service",
			"network_service_group", "network_app_group", "dlp_dictionary", "dlp_engine",
			"dlp_notification_template"},
		{"location"},
		{"firewall_rule", "firewall_dns_rule", "firewall_ips_rule", "ssl_inspection_rule",
			"nat_control_rule", "forwarding_rule", "url_filtering_rule", "dlp_rule",
			"bandwidth_control_rule", "traffic_capture_rule", "cloud_app_control_rule"},
		{"allowlist", "denylist"},
	},
	Skip: map[string]bool{
		"department":           true,
		"user_group":           true,
		"user":                 true,
		"admin_user":           true,
		"admin_role":           true,
		"device_group":         true,
		"workload_group":       true,
		"location_group":       true,
		"network_app":          true,
		"cloud_app_policy":     true,
		"cloud_app_ssl_policy": true,
	},
	SkipIfPredefined: map[string]bool{
		"dlp_engine":      true,
		"dlp_dictionary":  true,
		"url_category":    true,
		"network_service": true,
	},
	MergeOnly: map[string]string{
		"allowlist": "allowlistUrls",
		"denylist":  "denylistUrls",
	},
}

// PlanFor returns the push plan for a product. Only the web product supports
// push; other products are import-only.
func PlanFor(product string) (*PushPlan, bool) {
	if product == ProductWeb {
		return &webPushPlan, true
	}
	return nil, false
}
