package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// advisoryLockKey serialises concurrent Append calls across every agent
// instance sharing the database. The value is arbitrary but fixed.
const advisoryLockKey = int64(7_412_358_960)

// PostgresLog persists the hash-chained activity log to PostgreSQL.
type PostgresLog struct {
	pool   *pgxpool.Pool
	feed   *Feed
	logger *zap.Logger
}

// NewPostgresLog creates a PostgresLog backed by the given pool. The
// genesis row is seeded by migration. feed may be nil.
func NewPostgresLog(pool *pgxpool.Pool, feed *Feed, logger *zap.Logger) *PostgresLog {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PostgresLog{pool: pool, feed: feed, logger: logger}
}

// Append implements Log. It acquires an advisory lock, reads the chain
// tail, computes the new hash, and inserts, all in one transaction.
func (l *PostgresLog) Append(ctx context.Context, ev Event, payload any) (*Event, error) {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Lock is released automatically at commit or rollback.
	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", advisoryLockKey); err != nil {
		return nil, fmt.Errorf("acquire advisory lock: %w", err)
	}

	var prevIdx int
	var prevHash string
	if err := tx.QueryRow(ctx,
		"SELECT idx, hash FROM audit_log ORDER BY idx DESC LIMIT 1",
	).Scan(&prevIdx, &prevHash); err != nil {
		return nil, fmt.Errorf("read audit tail: %w", err)
	}

	ev.Index = prevIdx + 1
	ev.Timestamp = time.Now().UTC()
	ev.DataHash = sha256Sum(payloadJSON)
	ev.PrevHash = prevHash
	ev.Hash = hashEvent(&ev)

	if _, err := tx.Exec(ctx,
		`INSERT INTO audit_log (idx, timestamp, tenant_id, principal_id, operation, success, message, data_hash, prev_hash, hash)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.Index, ev.Timestamp, ev.TenantID, ev.PrincipalID,
		ev.Operation, ev.Success, ev.Message, ev.DataHash, ev.PrevHash, ev.Hash,
	); err != nil {
		return nil, fmt.Errorf("insert audit event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit audit tx: %w", err)
	}

	l.logger.Debug("audit event appended",
		zap.Int("idx", ev.Index),
		zap.String("tenant_id", ev.TenantID),
		zap.String("operation", ev.Operation),
	)
	if l.feed != nil {
		l.feed.Publish(ev)
	}
	return &ev, nil
}

// Recent implements Log.
func (l *PostgresLog) Recent(ctx context.Context, tenantID string, limit int) ([]Event, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT idx, timestamp, tenant_id, principal_id, operation, success, message, data_hash, prev_hash, hash
		 FROM audit_log WHERE tenant_id = $1 ORDER BY idx DESC LIMIT $2`,
		tenantID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent audit events: %w", err)
	}
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(
			&ev.Index, &ev.Timestamp, &ev.TenantID, &ev.PrincipalID,
			&ev.Operation, &ev.Success, &ev.Message, &ev.DataHash, &ev.PrevHash, &ev.Hash,
		); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Len implements Log.
func (l *PostgresLog) Len(ctx context.Context) (int, error) {
	var n int
	if err := l.pool.QueryRow(ctx, "SELECT COUNT(*) FROM audit_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("count audit events: %w", err)
	}
	return n, nil
}

// Verify implements Log. It streams all rows ordered by idx and validates
// the hash chain. O(n) in log length.
func (l *PostgresLog) Verify(ctx context.Context) error {
	rows, err := l.pool.Query(ctx,
		`SELECT idx, timestamp, tenant_id, principal_id, operation, success, message, data_hash, prev_hash, hash
		 FROM audit_log ORDER BY idx ASC`,
	)
	if err != nil {
		return fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var prev *Event
	for rows.Next() {
		curr := &Event{}
		if err := rows.Scan(
			&curr.Index, &curr.Timestamp, &curr.TenantID, &curr.PrincipalID,
			&curr.Operation, &curr.Success, &curr.Message, &curr.DataHash, &curr.PrevHash, &curr.Hash,
		); err != nil {
			return fmt.Errorf("scan audit row: %w", err)
		}

		if prev == nil {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
			}
			prev = curr
			continue
		}

		if curr.PrevHash != prev.Hash {
			return fmt.Errorf("hash chain broken at index %d", curr.Index)
		}
		if curr.Hash != hashEvent(curr) {
			return fmt.Errorf("event %d has invalid hash", curr.Index)
		}
		prev = curr
	}
	return rows.Err()
}

// Root implements Log.
func (l *PostgresLog) Root(ctx context.Context) (string, error) {
	var hash string
	if err := l.pool.QueryRow(ctx,
		"SELECT hash FROM audit_log ORDER BY idx DESC LIMIT 1",
	).Scan(&hash); err != nil {
		return "", fmt.Errorf("get audit root: %w", err)
	}
	return hash, nil
}
