// Package audit implements a hash-chained activity log for skill
// invocations.
//
// Media buys move money, so the log is tamper-evident: the chain begins
// with a well-known genesis entry whose Hash equals GenesisHash (64 hex
// zeros), and every subsequent entry records the SHA-256 of its
// predecessor. Any rewrite of history is detectable via Verify.
//
// Two implementations of the Log interface are provided:
//   - MemoryLog: in-process, for testing and development.
//   - PostgresLog: durable, for production use.
//
// A Feed fans recent events out to live subscribers (the ops activity
// stream); slow subscribers lose their oldest events, never block writers.
package audit

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// GenesisHash is the canonical well-known hash of the genesis entry.
const GenesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// SystemActor marks events the agent generated on its own, such as the
// genesis entry and delivery report runs.
const SystemActor = "sales-agent"

// Event is a single audit record.
type Event struct {
	Index       int       `json:"index"`
	Timestamp   time.Time `json:"timestamp"`
	TenantID    string    `json:"tenant_id"`
	PrincipalID string    `json:"principal_id"`
	Operation   string    `json:"operation"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	DataHash    string    `json:"data_hash"`
	PrevHash    string    `json:"prev_hash"`
	Hash        string    `json:"hash"`
}

// Log is the append-only hash-chained activity log.
type Log interface {
	// Append adds a new event chained to the previous one. payload is
	// JSON-marshalled and its SHA-256 stored as DataHash.
	Append(ctx context.Context, ev Event, payload any) (*Event, error)

	// Recent returns a tenant's newest events, newest first.
	Recent(ctx context.Context, tenantID string, limit int) ([]Event, error)

	// Len returns the total number of events (including genesis).
	Len(ctx context.Context) (int, error)

	// Verify walks the entire chain and checks hash consistency.
	Verify(ctx context.Context) error

	// Root returns the hash of the most recent event (the chain tip).
	Root(ctx context.Context) (string, error)
}

// hashEvent computes a deterministic SHA-256 hash over an event's fields.
// Never called on the genesis entry (index 0).
func hashEvent(e *Event) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s|%s|%s|%t|%s|%s",
		e.Index, e.Timestamp.Format(time.RFC3339Nano),
		e.TenantID, e.PrincipalID, e.Operation, e.Success, e.DataHash, e.PrevHash,
	)
	return hex.EncodeToString(h.Sum(nil))
}

// sha256Sum returns the hex-encoded SHA-256 digest of data.
func sha256Sum(data []byte) string {
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:])
}
