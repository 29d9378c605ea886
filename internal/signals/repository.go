// Package signals persists the signal catalog and per-platform
// activations.
package signals

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

var ErrSignalNotFound = errors.New("signal not found")

// Activation states.
const (
	ActivationDeployed   = "deployed"
	ActivationActivating = "activating"
	ActivationFailed     = "failed"
)

// Activation is one deployment of a signal onto a decisioning platform.
type Activation struct {
	SignalID    string     `json:"signal_id" db:"signal_id"`
	TenantID    string     `json:"-" db:"tenant_id"`
	PrincipalID string     `json:"-" db:"principal_id"`
	Platform    string     `json:"platform" db:"platform"`
	Account     string     `json:"account,omitempty" db:"account"`
	Status      string     `json:"status" db:"status"`
	SegmentID   string     `json:"decisioning_platform_segment_id,omitempty" db:"segment_id"`
	DeployedAt  *time.Time `json:"deployed_at,omitempty" db:"deployed_at"`
	CreatedAt   time.Time  `json:"-" db:"created_at"`
}

// Repository stores signals in Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const signalColumns = `signal_id, tenant_id, name, description, signal_type,
	data_provider, coverage_percentage, cpm, currency`

// Get fetches one signal from a tenant's catalog.
func (r *Repository) Get(ctx context.Context, tenantID, signalID string) (*adcp.Signal, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+signalColumns+` FROM signals
		WHERE tenant_id = $1 AND signal_id = $2`, tenantID, signalID)
	if err != nil {
		return nil, fmt.Errorf("query signal: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("scan signal: %w", err)
		}
		return nil, ErrSignalNotFound
	}
	return scanSignal(rows)
}

// Search matches the free-text spec against signal names, descriptions,
// and providers, then applies the structured filters.
func (r *Repository) Search(ctx context.Context, tenantID string, req *adcp.GetSignalsRequest) ([]adcp.Signal, error) {
	var (
		where = []string{"tenant_id = $1"}
		args  = []any{tenantID}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, term := range strings.Fields(req.SignalSpec) {
		p := arg("%" + term + "%")
		where = append(where, fmt.Sprintf(
			"(name ILIKE %s OR description ILIKE %s OR data_provider ILIKE %s)", p, p, p))
	}
	if req.Filters != nil {
		if len(req.Filters.CatalogTypes) > 0 {
			where = append(where, "signal_type = ANY("+arg(req.Filters.CatalogTypes)+")")
		}
		if len(req.Filters.DataProviders) > 0 {
			where = append(where, "data_provider = ANY("+arg(req.Filters.DataProviders)+")")
		}
		if req.Filters.MaxCPM > 0 {
			where = append(where, "cpm <= "+arg(req.Filters.MaxCPM))
		}
	}

	query := `SELECT ` + signalColumns + ` FROM signals
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY coverage_percentage DESC, signal_id
		LIMIT ` + arg(req.MaxResults)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search signals: %w", err)
	}
	defer rows.Close()

	var out []adcp.Signal
	for rows.Next() {
		s, err := scanSignal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// GetActivation returns a principal's activation of a signal on a
// platform, if any.
func (r *Repository) GetActivation(ctx context.Context, tenantID, principalID, signalID, platform string) (*Activation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT signal_id, tenant_id, principal_id, platform, account, status,
		       segment_id, deployed_at, created_at
		FROM signal_activations
		WHERE tenant_id = $1 AND principal_id = $2 AND signal_id = $3 AND platform = $4`,
		tenantID, principalID, signalID, platform)
	if err != nil {
		return nil, fmt.Errorf("query activation: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		return nil, ErrSignalNotFound
	}
	var a Activation
	if err := rows.Scan(&a.SignalID, &a.TenantID, &a.PrincipalID, &a.Platform,
		&a.Account, &a.Status, &a.SegmentID, &a.DeployedAt, &a.CreatedAt); err != nil {
		return nil, fmt.Errorf("scan activation: %w", err)
	}
	return &a, nil
}

// SaveActivation upserts an activation keyed by principal, signal, and
// platform. Re-activating an already-deployed signal is idempotent.
func (r *Repository) SaveActivation(ctx context.Context, a *Activation) error {
	a.CreatedAt = time.Now().UTC()
	_, err := r.db.Exec(ctx, `
		INSERT INTO signal_activations
			(signal_id, tenant_id, principal_id, platform, account, status,
			 segment_id, deployed_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id, principal_id, signal_id, platform)
		DO UPDATE SET account = $5, status = $6, segment_id = $7, deployed_at = $8`,
		a.SignalID, a.TenantID, a.PrincipalID, a.Platform, a.Account, a.Status,
		a.SegmentID, a.DeployedAt, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("save activation: %w", err)
	}
	return nil
}

// ListActivations returns every live deployment of a signal so responses
// can report where it is usable.
func (r *Repository) ListActivations(ctx context.Context, tenantID, signalID string) ([]Activation, error) {
	rows, err := r.db.Query(ctx, `
		SELECT signal_id, tenant_id, principal_id, platform, account, status,
		       segment_id, deployed_at, created_at
		FROM signal_activations
		WHERE tenant_id = $1 AND signal_id = $2
		ORDER BY created_at`, tenantID, signalID)
	if err != nil {
		return nil, fmt.Errorf("list activations: %w", err)
	}
	defer rows.Close()

	var out []Activation
	for rows.Next() {
		var a Activation
		if err := rows.Scan(&a.SignalID, &a.TenantID, &a.PrincipalID, &a.Platform,
			&a.Account, &a.Status, &a.SegmentID, &a.DeployedAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activation: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanSignal(rows pgx.Rows) (*adcp.Signal, error) {
	var (
		s        adcp.Signal
		tenantID string
		cpm      float64
		currency string
	)
	if err := rows.Scan(
		&s.SignalAgentSegmentID, &tenantID, &s.Name, &s.Description, &s.SignalType,
		&s.DataProvider, &s.CoveragePercentage, &cpm, &currency,
	); err != nil {
		return nil, fmt.Errorf("scan signal: %w", err)
	}
	if cpm > 0 {
		s.Pricing = &adcp.SignalPricing{CPM: cpm, Currency: currency}
	}
	return &s, nil
}
