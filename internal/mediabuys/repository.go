package mediabuys

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrMediaBuyNotFound = errors.New("media buy not found")
	ErrPackageNotFound  = errors.New("package not found")
	ErrBuyerRefExists   = errors.New("buyer_ref already in use")
)

// Repository stores media buys in Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const mediaBuyColumns = `media_buy_id, tenant_id, principal_id, buyer_ref, status,
	brand_manifest, po_number, start_time, end_time, budget_total, budget_currency,
	pacing, platform_order_id, workflow_step_id, creative_deadline, created_at, updated_at`

const packageColumns = `package_id, media_buy_id, tenant_id, buyer_ref, product_id,
	pricing_model, budget_total, budget_currency, targeting_overlay, creative_ids,
	active, platform_line_item_id, performance_index, metric_type, created_at, updated_at`

const prefixPackageColumns = `p.package_id, p.media_buy_id, p.tenant_id, p.buyer_ref,
	p.product_id, p.pricing_model, p.budget_total, p.budget_currency, p.targeting_overlay,
	p.creative_ids, p.active, p.platform_line_item_id, p.performance_index, p.metric_type,
	p.created_at, p.updated_at`

// Create inserts a buy and its packages in one transaction.
func (r *Repository) Create(ctx context.Context, buy *MediaBuy, packages []Package) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create media buy: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	now := time.Now().UTC()
	buy.CreatedAt, buy.UpdatedAt = now, now

	_, err = tx.Exec(ctx, `
		INSERT INTO media_buys (`+mediaBuyColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		buy.MediaBuyID, buy.TenantID, buy.PrincipalID, buy.BuyerRef, buy.Status,
		buy.BrandManifest, buy.PONumber, buy.StartTime, buy.EndTime, buy.BudgetTotal,
		buy.BudgetCurrency, buy.Pacing, buy.PlatformOrderID, buy.WorkflowStepID,
		buy.CreativeDeadline, buy.CreatedAt, buy.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrBuyerRefExists
		}
		return fmt.Errorf("insert media buy: %w", err)
	}

	for i := range packages {
		p := &packages[i]
		p.MediaBuyID = buy.MediaBuyID
		p.TenantID = buy.TenantID
		p.CreatedAt, p.UpdatedAt = now, now
		_, err = tx.Exec(ctx, `
			INSERT INTO media_buy_packages (`+packageColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
			p.PackageID, p.MediaBuyID, p.TenantID, p.BuyerRef, p.ProductID,
			p.PricingModel, p.BudgetTotal, p.BudgetCurrency, p.TargetingOverlay,
			p.CreativeIDs, p.Active, p.PlatformLineItemID, p.PerformanceIndex,
			p.MetricType, p.CreatedAt, p.UpdatedAt)
		if err != nil {
			return fmt.Errorf("insert package %s: %w", p.PackageID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create media buy: %w", err)
	}
	return nil
}

// Get fetches a buy by id, scoped to a tenant.
func (r *Repository) Get(ctx context.Context, tenantID, mediaBuyID string) (*MediaBuy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mediaBuyColumns+` FROM media_buys
		WHERE tenant_id = $1 AND media_buy_id = $2`, tenantID, mediaBuyID)
	if err != nil {
		return nil, fmt.Errorf("query media buy: %w", err)
	}
	return scanOneBuy(rows)
}

// GetByBuyerRef fetches a buy by its buyer-assigned reference.
func (r *Repository) GetByBuyerRef(ctx context.Context, tenantID, buyerRef string) (*MediaBuy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mediaBuyColumns+` FROM media_buys
		WHERE tenant_id = $1 AND buyer_ref = $2`, tenantID, buyerRef)
	if err != nil {
		return nil, fmt.Errorf("query media buy by buyer_ref: %w", err)
	}
	return scanOneBuy(rows)
}

// Resolve addresses a buy by media_buy_id when present, else buyer_ref.
func (r *Repository) Resolve(ctx context.Context, tenantID, mediaBuyID, buyerRef string) (*MediaBuy, error) {
	if mediaBuyID != "" {
		return r.Get(ctx, tenantID, mediaBuyID)
	}
	if buyerRef != "" {
		return r.GetByBuyerRef(ctx, tenantID, buyerRef)
	}
	return nil, ErrMediaBuyNotFound
}

// GetByWorkflowStep finds the buy held behind a manual-approval step.
func (r *Repository) GetByWorkflowStep(ctx context.Context, workflowStepID string) (*MediaBuy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mediaBuyColumns+` FROM media_buys
		WHERE workflow_step_id = $1`, workflowStepID)
	if err != nil {
		return nil, fmt.Errorf("query media buy by workflow step: %w", err)
	}
	return scanOneBuy(rows)
}

// List returns the buys matching any of the given ids or buyer_refs. With
// no selectors it returns every buy owned by the principal.
func (r *Repository) List(ctx context.Context, tenantID, principalID string, ids, buyerRefs []string) ([]MediaBuy, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if len(ids) == 0 && len(buyerRefs) == 0 {
		rows, err = r.db.Query(ctx, `
			SELECT `+mediaBuyColumns+` FROM media_buys
			WHERE tenant_id = $1 AND principal_id = $2
			ORDER BY created_at`, tenantID, principalID)
	} else {
		rows, err = r.db.Query(ctx, `
			SELECT `+mediaBuyColumns+` FROM media_buys
			WHERE tenant_id = $1 AND (media_buy_id = ANY($2) OR buyer_ref = ANY($3))
			ORDER BY created_at`, tenantID, ids, buyerRefs)
	}
	if err != nil {
		return nil, fmt.Errorf("list media buys: %w", err)
	}
	defer rows.Close()

	var out []MediaBuy
	for rows.Next() {
		buy, err := scanBuy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *buy)
	}
	return out, rows.Err()
}

// ListDelivering returns active buys whose flight has started, across all
// tenants. The delivery reporter drives webhooks from this set.
func (r *Repository) ListDelivering(ctx context.Context, now time.Time) ([]MediaBuy, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+mediaBuyColumns+` FROM media_buys
		WHERE status = $1 AND start_time <= $2
		ORDER BY tenant_id, created_at`, StatusActive, now)
	if err != nil {
		return nil, fmt.Errorf("list delivering media buys: %w", err)
	}
	defer rows.Close()

	var out []MediaBuy
	for rows.Next() {
		buy, err := scanBuy(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *buy)
	}
	return out, rows.Err()
}

// Update persists mutable buy fields.
func (r *Repository) Update(ctx context.Context, buy *MediaBuy) error {
	buy.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE media_buys
		SET status = $3, start_time = $4, end_time = $5, budget_total = $6,
		    budget_currency = $7, pacing = $8, platform_order_id = $9,
		    workflow_step_id = $10, updated_at = $11
		WHERE tenant_id = $1 AND media_buy_id = $2`,
		buy.TenantID, buy.MediaBuyID, buy.Status, buy.StartTime, buy.EndTime,
		buy.BudgetTotal, buy.BudgetCurrency, buy.Pacing, buy.PlatformOrderID,
		buy.WorkflowStepID, buy.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update media buy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrMediaBuyNotFound
	}
	return nil
}

// CompleteEnded flips buys whose flight window has passed to completed.
func (r *Repository) CompleteEnded(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE media_buys SET status = $1, updated_at = $2
		WHERE status IN ($3, $4) AND end_time < $2`,
		StatusCompleted, now, StatusActive, StatusPaused)
	if err != nil {
		return 0, fmt.Errorf("complete ended media buys: %w", err)
	}
	return tag.RowsAffected(), nil
}

// GetPackages returns the packages of a buy in creation order.
func (r *Repository) GetPackages(ctx context.Context, tenantID, mediaBuyID string) ([]Package, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+packageColumns+` FROM media_buy_packages
		WHERE tenant_id = $1 AND media_buy_id = $2
		ORDER BY created_at, package_id`, tenantID, mediaBuyID)
	if err != nil {
		return nil, fmt.Errorf("list packages: %w", err)
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(
			&p.PackageID, &p.MediaBuyID, &p.TenantID, &p.BuyerRef, &p.ProductID,
			&p.PricingModel, &p.BudgetTotal, &p.BudgetCurrency, &p.TargetingOverlay,
			&p.CreativeIDs, &p.Active, &p.PlatformLineItemID, &p.PerformanceIndex,
			&p.MetricType, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// FindPackages locates packages by package_id or buyer_ref across every
// buy the principal owns. Ambiguous ids return multiple rows; callers
// decide how to disambiguate.
func (r *Repository) FindPackages(ctx context.Context, tenantID, principalID, packageID string) ([]Package, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+prefixPackageColumns+` FROM media_buy_packages p
		JOIN media_buys b ON b.tenant_id = p.tenant_id AND b.media_buy_id = p.media_buy_id
		WHERE p.tenant_id = $1 AND b.principal_id = $2
		  AND (p.package_id = $3 OR p.buyer_ref = $3)
		ORDER BY p.created_at DESC`, tenantID, principalID, packageID)
	if err != nil {
		return nil, fmt.Errorf("find packages: %w", err)
	}
	defer rows.Close()

	var out []Package
	for rows.Next() {
		var p Package
		if err := rows.Scan(
			&p.PackageID, &p.MediaBuyID, &p.TenantID, &p.BuyerRef, &p.ProductID,
			&p.PricingModel, &p.BudgetTotal, &p.BudgetCurrency, &p.TargetingOverlay,
			&p.CreativeIDs, &p.Active, &p.PlatformLineItemID, &p.PerformanceIndex,
			&p.MetricType, &p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan package: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// UpdatePackage persists mutable package fields. The package is addressed
// by package_id or, failing that, buyer_ref.
func (r *Repository) UpdatePackage(ctx context.Context, p *Package) error {
	p.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE media_buy_packages
		SET budget_total = $4, budget_currency = $5, targeting_overlay = $6,
		    creative_ids = $7, active = $8, platform_line_item_id = $9, updated_at = $10
		WHERE tenant_id = $1 AND media_buy_id = $2
		  AND (package_id = $3 OR buyer_ref = $3)`,
		p.TenantID, p.MediaBuyID, p.PackageID, p.BudgetTotal, p.BudgetCurrency,
		p.TargetingOverlay, p.CreativeIDs, p.Active, p.PlatformLineItemID, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update package: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// AssignCreatives appends creative ids to a package, deduplicated.
func (r *Repository) AssignCreatives(ctx context.Context, tenantID, mediaBuyID, packageID string, creativeIDs []string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE media_buy_packages
		SET creative_ids = (
			SELECT ARRAY(SELECT DISTINCT unnest(coalesce(creative_ids, '{}') || $4::text[]))
		), updated_at = $5
		WHERE tenant_id = $1 AND media_buy_id = $2
		  AND (package_id = $3 OR buyer_ref = $3)`,
		tenantID, mediaBuyID, packageID, creativeIDs, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("assign creatives: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPackageNotFound
	}
	return nil
}

// UpdatePerformance records a performance index against a package,
// addressed by package_id when given, else product_id. Reports whether a
// package matched.
func (r *Repository) UpdatePerformance(ctx context.Context, tenantID, mediaBuyID, packageID, productID string, index float64, metricType string) (bool, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	now := time.Now().UTC()
	if packageID != "" {
		tag, err = r.db.Exec(ctx, `
			UPDATE media_buy_packages
			SET performance_index = $4, metric_type = $5, updated_at = $6
			WHERE tenant_id = $1 AND media_buy_id = $2
			  AND (package_id = $3 OR buyer_ref = $3)`,
			tenantID, mediaBuyID, packageID, index, metricType, now)
	} else {
		tag, err = r.db.Exec(ctx, `
			UPDATE media_buy_packages
			SET performance_index = $4, metric_type = $5, updated_at = $6
			WHERE tenant_id = $1 AND media_buy_id = $2 AND product_id = $3`,
			tenantID, mediaBuyID, productID, index, metricType, now)
	}
	if err != nil {
		return false, fmt.Errorf("update performance index: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOneBuy(rows pgx.Rows) (*MediaBuy, error) {
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("scan media buy: %w", err)
		}
		return nil, ErrMediaBuyNotFound
	}
	return scanBuy(rows)
}

func scanBuy(rows pgx.Rows) (*MediaBuy, error) {
	var m MediaBuy
	if err := rows.Scan(
		&m.MediaBuyID, &m.TenantID, &m.PrincipalID, &m.BuyerRef, &m.Status,
		&m.BrandManifest, &m.PONumber, &m.StartTime, &m.EndTime, &m.BudgetTotal,
		&m.BudgetCurrency, &m.Pacing, &m.PlatformOrderID, &m.WorkflowStepID,
		&m.CreativeDeadline, &m.CreatedAt, &m.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan media buy: %w", err)
	}
	return &m, nil
}
