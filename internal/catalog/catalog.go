// Package catalog declares which resource types each product exposes, where
// they live on the remote API, and which write operations each one supports.
// Every importer and push decision starts from this table.
package catalog

const (
	ProductWeb    = "web"
	ProductAccess = "access"
)

// ResourceDef describes one resource type of a product.
type ResourceDef struct {
	// Type is the internal resource type name used across the cache,
	// snapshots and push plans.
	Type string
	// Endpoint is the API path relative to the product base, without query
	// string.
	Endpoint string
	// IDField and NameField name the identifier and display-name keys in the
	// API payload.
	IDField   string
	NameField string
	// ListArgs are extra query parameters sent on list calls.
	ListArgs map[string]string
	// Singleton marks endpoints that return a single object instead of a
	// list. The object is cached as one entry using the type name as both ID
	// and name.
	Singleton bool
	// SubtypeField names a payload key whose value is appended to Endpoint as
	// a path segment on create and update. Used where the API keys write
	// paths by an embedded rule type.
	SubtypeField string
	// Write capabilities. A type with none of these is inventory-only.
	CanCreate bool
	CanUpdate bool
	CanDelete bool
}

var webDefs = []ResourceDef{
	{Type: "rule_label", Endpoint: "/ruleLabels", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "time_interval", Endpoint: "/timeIntervals", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "bandwidth_class", Endpoint: "/bandwidthClasses", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "workload_group", Endpoint: "/workloadGroups", IDField: "id", NameField: "name"},
	{Type: "url_category", Endpoint: "/urlCategories", IDField: "id", NameField: "configuredName", ListArgs: map[string]string{"customOnly": "false"}, CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "ip_source_group", Endpoint: "/ipSourceGroups", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "ip_destination_group", Endpoint: "/ipDestinationGroups", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "network_service", Endpoint: "/networkServices", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "network_service_group", Endpoint: "/networkServiceGroups", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "dlp_dictionary", Endpoint: "/dlpDictionaries", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "dlp_engine", Endpoint: "/dlpEngines", IDField: "id", NameField: "name"},
	{Type: "dlp_notification_template", Endpoint: "/dlpNotificationTemplates", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "location", Endpoint: "/locations", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "firewall_rule", Endpoint: "/firewallFilteringRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "firewall_dns_rule", Endpoint: "/firewallDnsRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "firewall_ips_rule", Endpoint: "/firewallIpsRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "ssl_inspection_rule", Endpoint: "/sslInspectionRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "forwarding_rule", Endpoint: "/forwardingRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "nat_control_rule", Endpoint: "/dnatRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "url_filtering_rule", Endpoint: "/urlFilteringRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "dlp_rule", Endpoint: "/webDlpRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "bandwidth_control_rule", Endpoint: "/bandwidthControlRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "traffic_capture_rule", Endpoint: "/trafficCaptureRules", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "cloud_app_control_rule", Endpoint: "/webApplicationRules", IDField: "id", NameField: "name", SubtypeField: "type", CanCreate: true, CanUpdate: true},
	{Type: "network_app_group", Endpoint: "/networkApplicationGroups", IDField: "id", NameField: "name", CanCreate: true, CanUpdate: true, CanDelete: true},
	{Type: "network_app", Endpoint: "/networkApplications", IDField: "id", NameField: "name"},
	{Type: "location_group", Endpoint: "/locations/groups", IDField: "id", NameField: "name"},
	{Type: "cloud_app_policy", Endpoint: "/cloudApplications/policy", IDField: "app", NameField: "appName"},
	{Type: "cloud_app_ssl_policy", Endpoint: "/cloudApplications/sslPolicy", IDField: "app", NameField: "appName"},
	{Type: "allowlist", Endpoint: "/security", Singleton: true, CanUpdate: true},
	{Type: "denylist", Endpoint: "/security/advanced", Singleton: true, CanUpdate: true},
	{Type: "department", Endpoint: "/departments", IDField: "id", NameField: "name"},
	{Type: "user_group", Endpoint: "/groups", IDField: "id", NameField: "name"},
	{Type: "user", Endpoint: "/users", IDField: "id", NameField: "name"},
	{Type: "admin_user", Endpoint: "/adminUsers", IDField: "id", NameField: "loginName"},
	{Type: "admin_role", Endpoint: "/adminRoles/lite", IDField: "id", NameField: "name"},
	{Type: "device_group", Endpoint: "/deviceGroups", IDField: "id", NameField: "name"},
}

var accessDefs = []ResourceDef{
	{Type: "app_segment", Endpoint: "/application", IDField: "id", NameField: "name"},
	{Type: "segment_group", Endpoint: "/segmentGroup", IDField: "id", NameField: "name"},
	{Type: "server_group", Endpoint: "/serverGroup", IDField: "id", NameField: "name"},
	{Type: "app_connector_group", Endpoint: "/appConnectorGroup", IDField: "id", NameField: "name"},
	{Type: "access_policy_rule", Endpoint: "/policySet/rules", IDField: "id", NameField: "name"},
	{Type: "idp_controller", Endpoint: "/idp", IDField: "id", NameField: "name"},
}

// Definitions returns the resource catalog for a product, in declaration
// order. Unknown products get an empty catalog.
func Definitions(product string) []ResourceDef {
	switch product {
	case ProductWeb:
		return webDefs
	case ProductAccess:
		return accessDefs
	default:
		return nil
	}
}

// Lookup finds one type's definition within a product catalog.
func Lookup(product, resourceType string) (ResourceDef, bool) {
	for _, def := range Definitions(product) {
		if def.Type == resourceType {
			return def, true
		}
	}
	return ResourceDef{}, false
}

// Types returns the type names of a product catalog in declaration order.
func Types(product string) []string {
	defs := Definitions(product)
	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Type)
	}
	return names
}
