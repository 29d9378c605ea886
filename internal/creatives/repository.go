package creatives

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCreativeNotFound = errors.New("creative not found")

// Repository stores creatives in Postgres.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const creativeColumns = `creative_id, tenant_id, principal_id, name, format, snippet,
	snippet_type, url, click_url, width, height, duration, status, review_feedback,
	platform_id, created_at, updated_at`

// Get fetches one creative owned by a principal.
func (r *Repository) Get(ctx context.Context, tenantID, principalID, creativeID string) (*Creative, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+creativeColumns+` FROM creatives
		WHERE tenant_id = $1 AND principal_id = $2 AND creative_id = $3`,
		tenantID, principalID, creativeID)
	if err != nil {
		return nil, fmt.Errorf("query creative: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("scan creative: %w", err)
		}
		return nil, ErrCreativeNotFound
	}
	return scanCreative(rows)
}

// GetByIDs fetches the named creatives owned by a principal. Missing ids
// are simply absent from the result.
func (r *Repository) GetByIDs(ctx context.Context, tenantID, principalID string, ids []string) (map[string]*Creative, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+creativeColumns+` FROM creatives
		WHERE tenant_id = $1 AND principal_id = $2 AND creative_id = ANY($3)`,
		tenantID, principalID, ids)
	if err != nil {
		return nil, fmt.Errorf("query creatives: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*Creative, len(ids))
	for rows.Next() {
		c, err := scanCreative(rows)
		if err != nil {
			return nil, err
		}
		out[c.CreativeID] = c
	}
	return out, rows.Err()
}

// Create inserts a creative.
func (r *Repository) Create(ctx context.Context, c *Creative) error {
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	_, err := r.db.Exec(ctx, `
		INSERT INTO creatives (`+creativeColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		c.CreativeID, c.TenantID, c.PrincipalID, c.Name, c.Format, c.Snippet,
		c.SnippetType, c.URL, c.ClickURL, c.Width, c.Height, c.Duration,
		c.Status, c.ReviewFeedback, c.PlatformID, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert creative: %w", err)
	}
	return nil
}

// Update persists the mutable fields of a creative.
func (r *Repository) Update(ctx context.Context, c *Creative) error {
	c.UpdatedAt = time.Now().UTC()
	tag, err := r.db.Exec(ctx, `
		UPDATE creatives
		SET name = $4, format = $5, snippet = $6, snippet_type = $7, url = $8,
		    click_url = $9, width = $10, height = $11, duration = $12,
		    status = $13, review_feedback = $14, platform_id = $15, updated_at = $16
		WHERE tenant_id = $1 AND principal_id = $2 AND creative_id = $3`,
		c.TenantID, c.PrincipalID, c.CreativeID, c.Name, c.Format, c.Snippet,
		c.SnippetType, c.URL, c.ClickURL, c.Width, c.Height, c.Duration,
		c.Status, c.ReviewFeedback, c.PlatformID, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update creative: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCreativeNotFound
	}
	return nil
}

// Delete removes creatives owned by a principal, returning how many went.
func (r *Repository) Delete(ctx context.Context, tenantID, principalID string, ids []string) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM creatives
		WHERE tenant_id = $1 AND principal_id = $2 AND creative_id = ANY($3)`,
		tenantID, principalID, ids)
	if err != nil {
		return 0, fmt.Errorf("delete creatives: %w", err)
	}
	return tag.RowsAffected(), nil
}

// ListQuery filters the creative library. Zero values mean "no filter".
type ListQuery struct {
	MediaBuyIDs   []string
	Status        string
	FormatID      string
	Search        string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Limit         int
	Offset        int
}

// FiltersApplied names the active filters for the query summary.
func (q *ListQuery) FiltersApplied() []string {
	var out []string
	if len(q.MediaBuyIDs) > 0 {
		out = append(out, "media_buy_ids")
	}
	if q.Status != "" {
		out = append(out, "status")
	}
	if q.FormatID != "" {
		out = append(out, "format")
	}
	if q.Search != "" {
		out = append(out, "search")
	}
	if q.CreatedAfter != nil {
		out = append(out, "created_after")
	}
	if q.CreatedBefore != nil {
		out = append(out, "created_before")
	}
	return out
}

// List pages through a principal's creatives, newest first, returning the
// page and the total match count. Media-buy filtering goes through the
// package assignment arrays.
func (r *Repository) List(ctx context.Context, tenantID, principalID string, q ListQuery) ([]Creative, int, error) {
	var (
		where = []string{"c.tenant_id = $1", "c.principal_id = $2"}
		args  = []any{tenantID, principalID}
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if len(q.MediaBuyIDs) > 0 {
		where = append(where, `EXISTS (
			SELECT 1 FROM media_buy_packages p
			WHERE p.tenant_id = c.tenant_id
			  AND p.media_buy_id = ANY(`+arg(q.MediaBuyIDs)+`)
			  AND c.creative_id = ANY(p.creative_ids))`)
	}
	if q.Status != "" {
		where = append(where, "c.status = "+arg(q.Status))
	}
	if q.FormatID != "" {
		where = append(where, "c.format->>'id' = "+arg(q.FormatID))
	}
	if q.Search != "" {
		where = append(where, "c.name ILIKE "+arg("%"+q.Search+"%"))
	}
	if q.CreatedAfter != nil {
		where = append(where, "c.created_at > "+arg(*q.CreatedAfter))
	}
	if q.CreatedBefore != nil {
		where = append(where, "c.created_at < "+arg(*q.CreatedBefore))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.db.QueryRow(ctx,
		"SELECT COUNT(*) FROM creatives c WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count creatives: %w", err)
	}

	query := `SELECT ` + prefixColumns("c.", creativeColumns) + ` FROM creatives c
		WHERE ` + cond + ` ORDER BY c.created_at DESC, c.creative_id
		LIMIT ` + arg(q.Limit) + ` OFFSET ` + arg(q.Offset)
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list creatives: %w", err)
	}
	defer rows.Close()

	var out []Creative
	for rows.Next() {
		c, err := scanCreative(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *c)
	}
	return out, total, rows.Err()
}

func scanCreative(rows pgx.Rows) (*Creative, error) {
	var c Creative
	if err := rows.Scan(
		&c.CreativeID, &c.TenantID, &c.PrincipalID, &c.Name, &c.Format, &c.Snippet,
		&c.SnippetType, &c.URL, &c.ClickURL, &c.Width, &c.Height, &c.Duration,
		&c.Status, &c.ReviewFeedback, &c.PlatformID, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan creative: %w", err)
	}
	return &c, nil
}

func prefixColumns(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = prefix + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
