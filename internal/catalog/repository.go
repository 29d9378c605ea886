// Package catalog serves the publisher-side inventory data: products,
// creative formats, and authorized properties. Products and properties are
// provisioned per tenant by the Admin subsystem; formats combine a builtin
// standard set, tenant-defined custom formats, and an optional remote
// format registry.
package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// ErrProductNotFound is returned when a product lookup finds no row.
var ErrProductNotFound = errors.New("product not found")

// Repository provides catalog reads against PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a Repository backed by the given pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const productColumns = `product_id, name, description, delivery_type, is_fixed_price,
	formats, pricing_options, properties, property_tags, is_custom`

// ListProducts returns all products for a tenant in stable order.
func (r *Repository) ListProducts(ctx context.Context, tenantID string) ([]adcp.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 ORDER BY product_id`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []adcp.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// GetProduct returns one product by id within a tenant.
func (r *Repository) GetProduct(ctx context.Context, tenantID, productID string) (*adcp.Product, error) {
	q := `SELECT ` + productColumns + ` FROM products WHERE tenant_id = $1 AND product_id = $2`
	rows, err := r.db.Query(ctx, q, tenantID, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrProductNotFound
	}
	return scanProduct(rows)
}

func scanProduct(rows pgx.Rows) (*adcp.Product, error) {
	var p adcp.Product
	if err := rows.Scan(
		&p.ProductID, &p.Name, &p.Description, &p.DeliveryType, &p.IsFixedPrice,
		&p.Formats, &p.PricingOptions, &p.Properties, &p.PropertyTags, &p.IsCustom,
	); err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}
	return &p, nil
}

// ListCustomFormats returns the tenant-defined formats.
func (r *Repository) ListCustomFormats(ctx context.Context, tenantID string) ([]adcp.Format, error) {
	q := `SELECT format_id, agent_url, name, type, description, requirements
		FROM creative_formats WHERE tenant_id = $1 ORDER BY format_id`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list custom formats: %w", err)
	}
	defer rows.Close()

	var out []adcp.Format
	for rows.Next() {
		var f adcp.Format
		if err := rows.Scan(
			&f.FormatID.ID, &f.FormatID.AgentURL, &f.Name, &f.Type,
			&f.Description, &f.Requirements,
		); err != nil {
			return nil, fmt.Errorf("scan format: %w", err)
		}
		f.Category = adcp.FormatCategoryCustom
		out = append(out, f)
	}
	return out, rows.Err()
}

// ListProperties returns the tenant's authorized properties, optionally
// narrowed to those carrying any of the given tags.
func (r *Repository) ListProperties(ctx context.Context, tenantID string, tags []string) ([]adcp.Property, error) {
	q := `SELECT property_type, name, identifiers, tags, publisher_domain
		FROM properties WHERE tenant_id = $1`
	args := []any{tenantID}
	if len(tags) > 0 {
		q += ` AND tags && $2`
		args = append(args, tags)
	}
	q += ` ORDER BY name`

	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	defer rows.Close()

	var out []adcp.Property
	for rows.Next() {
		var p adcp.Property
		if err := rows.Scan(&p.PropertyType, &p.Name, &p.Identifiers, &p.Tags, &p.PublisherDomain); err != nil {
			return nil, fmt.Errorf("scan property: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ListPropertyTags returns the tenant's tag vocabulary.
func (r *Repository) ListPropertyTags(ctx context.Context, tenantID string) (map[string]adcp.PropertyTagMeta, error) {
	q := `SELECT tag, name, description FROM property_tags WHERE tenant_id = $1`
	rows, err := r.db.Query(ctx, q, tenantID)
	if err != nil {
		return nil, fmt.Errorf("list property tags: %w", err)
	}
	defer rows.Close()

	out := make(map[string]adcp.PropertyTagMeta)
	for rows.Next() {
		var tag string
		var meta adcp.PropertyTagMeta
		if err := rows.Scan(&tag, &meta.Name, &meta.Description); err != nil {
			return nil, fmt.Errorf("scan property tag: %w", err)
		}
		out[tag] = meta
	}
	return out, rows.Err()
}
