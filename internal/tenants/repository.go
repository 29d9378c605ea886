package tenants

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrTenantNotFound is returned when no tenant matches the lookup key.
var ErrTenantNotFound = errors.New("tenant not found")

// ErrPrincipalNotFound is returned when no principal matches the lookup key.
var ErrPrincipalNotFound = errors.New("principal not found")

// Repository provides tenant and principal lookups against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const tenantColumns = `tenant_id, name, subdomain, virtual_host, ad_server,
	admin_token_hash, auto_approve_formats, human_review, max_daily_budget,
	policy_mode, slack_webhook_url, is_active, created_at, updated_at`

// GetTenant retrieves a tenant by id.
func (r *Repository) GetTenant(ctx context.Context, tenantID string) (*Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE tenant_id = $1 AND is_active`
	return r.scanTenant(ctx, q, tenantID)
}

// GetTenantBySubdomain retrieves a tenant by its subdomain label.
func (r *Repository) GetTenantBySubdomain(ctx context.Context, subdomain string) (*Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1 AND is_active`
	return r.scanTenant(ctx, q, subdomain)
}

// GetTenantByVirtualHost retrieves a tenant by its full virtual host.
func (r *Repository) GetTenantByVirtualHost(ctx context.Context, host string) (*Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE virtual_host = $1 AND is_active`
	return r.scanTenant(ctx, q, host)
}

// WebhookURL returns the tenant's notification webhook target, empty when
// the tenant has none configured.
func (r *Repository) WebhookURL(ctx context.Context, tenantID string) (string, error) {
	t, err := r.GetTenant(ctx, tenantID)
	if err != nil {
		return "", err
	}
	return t.SlackWebhookURL, nil
}

// ListTenants returns all active tenants.
func (r *Repository) ListTenants(ctx context.Context) ([]*Tenant, error) {
	q := `SELECT ` + tenantColumns + ` FROM tenants WHERE is_active ORDER BY tenant_id`
	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list tenants: %w", err)
	}
	defer rows.Close()

	var out []*Tenant
	for rows.Next() {
		t, err := scanTenantRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) scanTenant(ctx context.Context, q string, args ...any) (*Tenant, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrTenantNotFound
	}
	return scanTenantRow(rows)
}

func scanTenantRow(rows pgx.Rows) (*Tenant, error) {
	var t Tenant
	if err := rows.Scan(
		&t.TenantID, &t.Name, &t.Subdomain, &t.VirtualHost, &t.AdServer,
		&t.AdminTokenHash, &t.AutoApproveFormats, &t.HumanReview, &t.MaxDailyBudget,
		&t.PolicyMode, &t.SlackWebhookURL, &t.IsActive, &t.CreatedAt, &t.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan tenant: %w", err)
	}
	return &t, nil
}

const principalColumns = `principal_id, tenant_id, name, access_token,
	platform_mappings, created_at, updated_at`

// GetPrincipal retrieves a principal by (tenant, id).
func (r *Repository) GetPrincipal(ctx context.Context, tenantID, principalID string) (*Principal, error) {
	q := `SELECT ` + principalColumns + ` FROM principals WHERE tenant_id = $1 AND principal_id = $2`
	return r.scanPrincipal(ctx, q, tenantID, principalID)
}

// GetPrincipalByToken retrieves a principal by access token within one
// tenant. This is the only token lookup permitted once a tenant has been
// detected from routing headers.
func (r *Repository) GetPrincipalByToken(ctx context.Context, tenantID, token string) (*Principal, error) {
	q := `SELECT ` + principalColumns + ` FROM principals WHERE tenant_id = $1 AND access_token = $2`
	return r.scanPrincipal(ctx, q, tenantID, token)
}

// GetPrincipalByTokenGlobal retrieves a principal by access token across
// all tenants. Access tokens are globally unique by schema constraint.
// Callers must verify the principal's tenant against the detected tenant.
func (r *Repository) GetPrincipalByTokenGlobal(ctx context.Context, token string) (*Principal, error) {
	q := `SELECT ` + principalColumns + ` FROM principals WHERE access_token = $1`
	return r.scanPrincipal(ctx, q, token)
}

func (r *Repository) scanPrincipal(ctx context.Context, q string, args ...any) (*Principal, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrPrincipalNotFound
	}
	var p Principal
	if err := rows.Scan(
		&p.PrincipalID, &p.TenantID, &p.Name, &p.AccessToken,
		&p.PlatformMappings, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan principal: %w", err)
	}
	return &p, rows.Err()
}
