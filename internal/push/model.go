// Package push delivers out-of-band task status updates to buyer-registered
// webhooks and owns the persistence of push-notification configs.
//
// Deliveries are fire-and-forget: a failed webhook is logged and dropped,
// never surfaced to the foreground request that triggered it.
package push

import (
	"time"
)

// Authentication schemes a config may request for outgoing webhooks.
const (
	SchemeHMAC   = "HMAC-SHA256"
	SchemeBearer = "Bearer"
	SchemeJWT    = "JWT"
	SchemeNone   = "None"
)

// Authentication selects how outgoing webhook requests prove their origin.
// Credentials is the shared secret and never appears in responses.
type Authentication struct {
	Schemes     []string `json:"schemes,omitempty"`
	Credentials string   `json:"credentials,omitempty"`
}

// Scheme returns the first requested scheme, defaulting to None.
func (a *Authentication) Scheme() string {
	if a == nil || len(a.Schemes) == 0 {
		return SchemeNone
	}
	return a.Schemes[0]
}

// Config is one registered webhook target. The camelCase fields are the A2A
// pushNotificationConfig wire shape; the rest is storage bookkeeping.
type Config struct {
	ID             string          `json:"id,omitempty"`
	URL            string          `json:"url"`
	Token          string          `json:"token,omitempty"` // sent as X-AdCP-Notification-Token on deliveries
	Authentication *Authentication `json:"authentication,omitempty"`

	TenantID    string    `json:"-"`
	PrincipalID string    `json:"-"`
	SessionID   string    `json:"-"` // task id the config arrived with, if any
	IsActive    bool      `json:"-"`
	CreatedAt   time.Time `json:"-"`
	UpdatedAt   time.Time `json:"-"`
}

// Redacted returns a copy safe to return to buyers: same target, secret
// credentials stripped.
func (c *Config) Redacted() *Config {
	out := *c
	if out.Authentication != nil {
		auth := *out.Authentication
		auth.Credentials = ""
		out.Authentication = &auth
	}
	return &out
}

// Notification is one status update bound for a webhook.
type Notification struct {
	TaskID   string
	TaskType string
	Status   string
	Result   any
	Error    string
}
