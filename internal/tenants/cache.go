package tenants

import (
	"sync"
	"time"
)

// cacheEntry holds one cached tenant with its expiry.
type cacheEntry struct {
	tenant    *Tenant
	expiresAt time.Time
}

func (e *cacheEntry) expired() bool {
	return time.Now().After(e.expiresAt)
}

// Cache is a thread-safe TTL cache over tenant lookups, keyed separately
// by id, subdomain, and virtual host. Admin-side writes invalidate out of
// band; brief staleness is tolerated.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	ttl     time.Duration
}

// NewCache creates a Cache with the given entry TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]*cacheEntry),
		ttl:     ttl,
	}
}

// Cache key namespaces.
const (
	keyByID        = "id:"
	keyBySubdomain = "sub:"
	keyByVHost     = "vhost:"
)

// GetByID looks up a cached tenant by tenant id.
func (c *Cache) GetByID(id string) (*Tenant, bool) { return c.get(keyByID + id) }

// GetBySubdomain looks up a cached tenant by subdomain.
func (c *Cache) GetBySubdomain(sub string) (*Tenant, bool) { return c.get(keyBySubdomain + sub) }

// GetByVirtualHost looks up a cached tenant by virtual host.
func (c *Cache) GetByVirtualHost(host string) (*Tenant, bool) { return c.get(keyByVHost + host) }

func (c *Cache) get(key string) (*Tenant, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	if !ok || e.expired() {
		return nil, false
	}
	return e.tenant, true
}

// Put stores a tenant under all three lookup keys.
func (c *Cache) Put(t *Tenant) {
	if t == nil {
		return
	}
	e := &cacheEntry{tenant: t, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[keyByID+t.TenantID] = e
	if t.Subdomain != "" {
		c.entries[keyBySubdomain+t.Subdomain] = e
	}
	if t.VirtualHost != "" {
		c.entries[keyByVHost+t.VirtualHost] = e
	}
}

// Invalidate removes a tenant from every key namespace.
func (c *Cache) Invalidate(t *Tenant) {
	if t == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, keyByID+t.TenantID)
	delete(c.entries, keyBySubdomain+t.Subdomain)
	delete(c.entries, keyByVHost+t.VirtualHost)
}

// Evict removes all expired entries and returns how many were dropped.
func (c *Cache) Evict() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if e.expired() {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of cached entries (including expired).
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
