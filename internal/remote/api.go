package remote

import "context"

// ResourceOps bundles the operations the remote API supports for one resource
// type. A nil operation means the API does not expose it for that type; the
// capability table in the catalog decides which slots are populated.
type ResourceOps struct {
	List   func(ctx context.Context) ([]map[string]interface{}, error)
	Create func(ctx context.Context, payload map[string]interface{}) (map[string]interface{}, error)
	Update func(ctx context.Context, id string, payload map[string]interface{}) (map[string]interface{}, error)
	Delete func(ctx context.Context, id string) error
}

// Directory resolves resource types to their remote operations for one
// authenticated tenant session.
type Directory interface {
	// Ops returns the operations for a resource type. ok is false when the
	// catalog has no such type for the product.
	Ops(resourceType string) (ResourceOps, bool)
}
