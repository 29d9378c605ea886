package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// MemoryLog is an in-memory, thread-safe Log implementation. Useful for
// tests and single-process deployments without durability needs.
type MemoryLog struct {
	mu     sync.RWMutex
	events []*Event
	feed   *Feed
}

// NewMemoryLog creates a MemoryLog initialised with the canonical genesis
// entry. feed may be nil.
func NewMemoryLog(feed *Feed) *MemoryLog {
	l := &MemoryLog{feed: feed}
	genesis := &Event{
		Index:       0,
		Timestamp:   time.Now().UTC(),
		PrincipalID: SystemActor,
		Operation:   "genesis",
		DataHash:    GenesisHash,
		PrevHash:    GenesisHash,
		Hash:        GenesisHash, // well-known constant, not computed
	}
	l.events = append(l.events, genesis)
	return l
}

// Append implements Log.
func (l *MemoryLog) Append(_ context.Context, ev Event, payload any) (*Event, error) {
	l.mu.Lock()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	prev := l.events[len(l.events)-1]
	ev.Index = len(l.events)
	ev.Timestamp = time.Now().UTC()
	ev.DataHash = sha256Sum(payloadJSON)
	ev.PrevHash = prev.Hash
	ev.Hash = hashEvent(&ev)
	l.events = append(l.events, &ev)
	l.mu.Unlock()

	if l.feed != nil {
		l.feed.Publish(ev)
	}
	return &ev, nil
}

// Recent implements Log.
func (l *MemoryLog) Recent(_ context.Context, tenantID string, limit int) ([]Event, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []Event
	for i := len(l.events) - 1; i > 0 && len(out) < limit; i-- {
		if l.events[i].TenantID == tenantID {
			out = append(out, *l.events[i])
		}
	}
	return out, nil
}

// Len implements Log.
func (l *MemoryLog) Len(_ context.Context) (int, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.events), nil
}

// Verify implements Log. The genesis entry is validated against
// GenesisHash; every later entry must chain from its predecessor.
func (l *MemoryLog) Verify(_ context.Context) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for i, curr := range l.events {
		if i == 0 {
			if curr.Hash != GenesisHash {
				return fmt.Errorf("genesis entry has wrong hash: got %q", curr.Hash)
			}
			continue
		}
		prev := l.events[i-1]
		if curr.PrevHash != prev.Hash {
			return fmt.Errorf("hash chain broken at index %d", curr.Index)
		}
		if curr.Hash != hashEvent(curr) {
			return fmt.Errorf("event %d has invalid hash", curr.Index)
		}
	}
	return nil
}

// Root implements Log.
func (l *MemoryLog) Root(_ context.Context) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if len(l.events) == 0 {
		return "", nil
	}
	return l.events[len(l.events)-1].Hash, nil
}
