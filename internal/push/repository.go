package push

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrConfigNotFound = errors.New("push notification config not found")

// Repository persists push-notification configs keyed by
// (tenant, principal, config id). Deletion is a soft deactivate so the
// delivery history stays attributable.
type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const configColumns = `tenant_id, principal_id, id, url, authentication_type,
	authentication_token, validation_token, session_id, is_active, created_at, updated_at`

// Save upserts a config. A second set with the same id reactivates and
// overwrites the stored target instead of producing a duplicate.
func (r *Repository) Save(ctx context.Context, c *Config) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.IsActive = true
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := r.db.Exec(ctx, `
		INSERT INTO push_configs (`+configColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, true, $9, $9)
		ON CONFLICT (tenant_id, principal_id, id)
		DO UPDATE SET url = $4, authentication_type = $5, authentication_token = $6,
		              validation_token = $7, session_id = $8, is_active = true, updated_at = $9`,
		c.TenantID, c.PrincipalID, c.ID, c.URL,
		c.Authentication.Scheme(), credentialsOf(c), c.Token, c.SessionID, now)
	if err != nil {
		return fmt.Errorf("save push config: %w", err)
	}
	return nil
}

// Get fetches one config by id, active or not.
func (r *Repository) Get(ctx context.Context, tenantID, principalID, id string) (*Config, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+configColumns+` FROM push_configs
		WHERE tenant_id = $1 AND principal_id = $2 AND id = $3`,
		tenantID, principalID, id)
	if err != nil {
		return nil, fmt.Errorf("query push config: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("scan push config: %w", err)
		}
		return nil, ErrConfigNotFound
	}
	return scanConfig(rows)
}

// List returns a principal's active configs, oldest first.
func (r *Repository) List(ctx context.Context, tenantID, principalID string) ([]*Config, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+configColumns+` FROM push_configs
		WHERE tenant_id = $1 AND principal_id = $2 AND is_active = true
		ORDER BY created_at`, tenantID, principalID)
	if err != nil {
		return nil, fmt.Errorf("list push configs: %w", err)
	}
	defer rows.Close()

	var out []*Config
	for rows.Next() {
		c, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// GetBySession returns the most recent active config registered under a
// task (session) id.
func (r *Repository) GetBySession(ctx context.Context, tenantID, principalID, sessionID string) (*Config, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+configColumns+` FROM push_configs
		WHERE tenant_id = $1 AND principal_id = $2 AND session_id = $3 AND is_active = true
		ORDER BY updated_at DESC
		LIMIT 1`, tenantID, principalID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query push config: %w", err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("scan push config: %w", err)
		}
		return nil, ErrConfigNotFound
	}
	return scanConfig(rows)
}

// Delete soft-deletes a config. Idempotent on already-inactive configs.
func (r *Repository) Delete(ctx context.Context, tenantID, principalID, id string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE push_configs SET is_active = false, updated_at = $4
		WHERE tenant_id = $1 AND principal_id = $2 AND id = $3`,
		tenantID, principalID, id, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("delete push config: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrConfigNotFound
	}
	return nil
}

func scanConfig(rows pgx.Rows) (*Config, error) {
	var (
		c         Config
		authType  string
		authToken string
	)
	if err := rows.Scan(&c.TenantID, &c.PrincipalID, &c.ID, &c.URL, &authType,
		&authToken, &c.Token, &c.SessionID, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, fmt.Errorf("scan push config: %w", err)
	}
	if authType != "" && authType != SchemeNone {
		c.Authentication = &Authentication{Schemes: []string{authType}, Credentials: authToken}
	}
	return &c, nil
}

func credentialsOf(c *Config) string {
	if c.Authentication == nil {
		return ""
	}
	return c.Authentication.Credentials
}
