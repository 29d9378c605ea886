// Package tenants holds the publisher and advertiser identity models and
// their PostgreSQL persistence. Tenants and principals are provisioned by
// the Admin subsystem; this package is read-mostly from the agent's side.
package tenants

import "time"

// Policy modes controlling how brief/brand policy violations are handled.
const (
	PolicyModeOff     = "off"
	PolicyModeObserve = "observe"
	PolicyModeEnforce = "enforce"
)

// Tenant is one publisher's isolated configuration namespace. Requests are
// routed to a tenant by virtual host or subdomain, never by default.
type Tenant struct {
	TenantID    string `json:"tenant_id"    db:"tenant_id"`
	Name        string `json:"name"         db:"name"`
	Subdomain   string `json:"subdomain"    db:"subdomain"`
	VirtualHost string `json:"virtual_host" db:"virtual_host"`
	AdServer    string `json:"ad_server"    db:"ad_server"`
	// AdminTokenHash is the bcrypt hash of the tenant's admin token. The
	// plaintext is never stored.
	AdminTokenHash     string    `json:"-"                    db:"admin_token_hash"`
	AutoApproveFormats bool      `json:"auto_approve_formats" db:"auto_approve_formats"`
	HumanReview        bool      `json:"human_review"         db:"human_review"`
	MaxDailyBudget     float64   `json:"max_daily_budget"     db:"max_daily_budget"`
	PolicyMode         string    `json:"policy_mode"          db:"policy_mode"`
	SlackWebhookURL    string    `json:"-"                    db:"slack_webhook_url"`
	IsActive           bool      `json:"is_active"            db:"is_active"`
	CreatedAt          time.Time `json:"created_at"           db:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"           db:"updated_at"`
}

// Principal is an authenticated buyer identity inside exactly one tenant.
// The access token is a shared secret: unique per tenant and globally, so
// a token can locate its principal, but cross-tenant use is still refused
// at resolution time.
type Principal struct {
	PrincipalID string `json:"principal_id" db:"principal_id"`
	TenantID    string `json:"tenant_id"    db:"tenant_id"`
	Name        string `json:"name"         db:"name"`
	AccessToken string `json:"-"            db:"access_token"`
	// PlatformMappings carries per-adapter advertiser ids, keyed by
	// ad-server kind (e.g. "mock" -> "adv-123").
	PlatformMappings map[string]string `json:"platform_mappings" db:"platform_mappings"`
	CreatedAt        time.Time         `json:"created_at"        db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"        db:"updated_at"`
}

// AdapterAccount returns the advertiser id this principal maps to on the
// given ad server, if any.
func (p *Principal) AdapterAccount(adServer string) (string, bool) {
	id, ok := p.PlatformMappings[adServer]
	return id, ok
}
