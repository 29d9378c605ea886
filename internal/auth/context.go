// Package auth resolves transport signals into a (tenant, principal) pair
// and carries that identity through every handler as an explicit
// ToolContext value. There is no process-global request state: parallel
// requests each own their context.
package auth

import (
	"time"

	"github.com/google/uuid"

	"github.com/adcontexthq/salesagent/internal/tenants"
)

// AnonymousPrincipal identifies unauthenticated callers on discovery
// operations that permit them.
const AnonymousPrincipal = "anonymous"

// Protocols a request can arrive on.
const (
	ProtocolA2A = "a2a"
	ProtocolMCP = "mcp"
)

// Metadata records where a request came from.
type Metadata struct {
	Protocol string `json:"protocol"`
	Source   string `json:"source,omitempty"`
}

// TestingContext carries per-request test hooks. Production requests have
// none; the server-wide dry-run flag forces DryRun on every context.
type TestingContext struct {
	DryRun   bool       `json:"dry_run,omitempty"`
	MockTime *time.Time `json:"mock_time,omitempty"`
}

// ToolContext is the immutable per-request identity carrier passed to
// every skill handler. It is constructed once, after tenant and principal
// resolution both succeed; a request that cannot build one is rejected.
type ToolContext struct {
	ContextID        string          `json:"context_id"`
	TenantID         string          `json:"tenant_id"`
	PrincipalID      string          `json:"principal_id"`
	ToolName         string          `json:"tool_name"`
	RequestTimestamp time.Time       `json:"request_timestamp"`
	Metadata         Metadata        `json:"metadata"`
	Testing          *TestingContext `json:"testing_context,omitempty"`

	// Resolved records, carried so handlers do not re-query identity.
	Tenant    *tenants.Tenant    `json:"-"`
	Principal *tenants.Principal `json:"-"`
}

// Now returns the request clock: the mock time when a testing context
// overrides it, otherwise wall time in UTC.
func (c *ToolContext) Now() time.Time {
	if c.Testing != nil && c.Testing.MockTime != nil {
		return c.Testing.MockTime.UTC()
	}
	return time.Now().UTC()
}

// DryRun reports whether side effects must be skipped for this request.
func (c *ToolContext) DryRun() bool {
	return c.Testing != nil && c.Testing.DryRun
}

// IsAnonymous reports whether the caller presented no credentials.
func (c *ToolContext) IsAnonymous() bool {
	return c.PrincipalID == AnonymousPrincipal
}

// IsAdmin reports whether the principal was synthesized from the tenant's
// admin token.
func (c *ToolContext) IsAdmin() bool {
	return c.TenantID != "" && c.PrincipalID == "admin_"+c.TenantID
}

// WithTool returns a copy of the context rebound to another tool name.
// Used when one message invokes several skills in order.
func (c *ToolContext) WithTool(tool string) *ToolContext {
	cp := *c
	cp.ToolName = tool
	return &cp
}

// NewContextID generates a fresh conversation id.
func NewContextID() string {
	return "ctx_" + uuid.NewString()
}
