package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tenant stores connection details for one managed tenant. The API client
// secret is stored AES-GCM encrypted; the key lives in configuration and is
// never written to the database.
type Tenant struct {
	ID                  uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Name                string    `json:"name" gorm:"uniqueIndex;not null;size:255"`
	APIBaseURL          string    `json:"api_base_url" gorm:"size:512;not null"`
	AuthBaseURL         string    `json:"auth_base_url" gorm:"size:512;not null"`
	ClientID            string    `json:"client_id" gorm:"size:512;not null"`
	ClientSecretEnc     string    `json:"-" gorm:"column:client_secret_enc;type:text;not null"`
	ClientSecretNonce   string    `json:"-" gorm:"column:client_secret_nonce;size:64;not null"`
	CustomerID          string    `json:"customer_id" gorm:"size:255"`
	Notes               string    `json:"notes" gorm:"type:text"`
	IsActive            bool      `json:"is_active" gorm:"default:true;not null"`
	// DisabledResources maps product → list of resource-type tags excluded
	// from import after an authorization failure. Cleared only by operator
	// action.
	DisabledResources   JSONMap   `json:"disabled_resources" gorm:"type:jsonb"`
	CreatedAt           time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt           time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Tenant) TableName() string {
	return "tenants"
}

func (t *Tenant) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// DisabledTypes returns the disabled resource-type tags for a product.
func (t *Tenant) DisabledTypes(product string) []string {
	if t.DisabledResources == nil {
		return nil
	}
	raw, ok := t.DisabledResources[product]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
