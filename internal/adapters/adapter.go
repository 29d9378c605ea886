// Package adapters abstracts the ad servers a tenant may run on. Each
// adapter translates media buy operations into platform calls; the mock
// adapter simulates a platform end to end.
package adapters

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
)

var ErrUnknownAdServer = errors.New("unknown ad server")

// CreateMediaBuyRequest carries a buy into the platform.
type CreateMediaBuyRequest struct {
	MediaBuy *mediabuys.MediaBuy
	Packages []mediabuys.Package
	Account  string
	DryRun   bool
}

// CreateMediaBuyResult reports the platform identifiers assigned.
type CreateMediaBuyResult struct {
	PlatformOrderID string
	// LineItemIDs maps package_id to the platform line item created for it.
	LineItemIDs map[string]string
}

// UpdateMediaBuyRequest carries buy-level and package-level changes.
type UpdateMediaBuyRequest struct {
	MediaBuy *mediabuys.MediaBuy
	Packages []mediabuys.Package
	Account  string
	DryRun   bool
}

// AddCreativesRequest uploads creatives to the platform.
type AddCreativesRequest struct {
	MediaBuy    *mediabuys.MediaBuy
	CreativeIDs []string
	Account     string
	DryRun      bool
}

// DeliveryRequest asks for delivery metrics as of a moment in time.
type DeliveryRequest struct {
	MediaBuy *mediabuys.MediaBuy
	Packages []mediabuys.Package
	Account  string
	AsOf     time.Time
}

// DeliveryReport carries platform metrics, totalled and per package.
type DeliveryReport struct {
	Totals    adcp.DeliveryTotals
	ByPackage map[string]adcp.DeliveryTotals
}

// Adapter is one ad-server integration.
type Adapter interface {
	// Name identifies the platform, matching tenants' ad_server column.
	Name() string
	// SupportedPricingModels lists what the platform can transact.
	SupportedPricingModels() []string
	// RequiresManualApproval reports whether buys on this platform must
	// be held for a human before creation.
	RequiresManualApproval() bool

	CreateMediaBuy(ctx context.Context, req *CreateMediaBuyRequest) (*CreateMediaBuyResult, error)
	UpdateMediaBuy(ctx context.Context, req *UpdateMediaBuyRequest) error
	AddCreatives(ctx context.Context, req *AddCreativesRequest) (map[string]string, error)
	Delivery(ctx context.Context, req *DeliveryRequest) (*DeliveryReport, error)
}

// Registry holds the configured adapters keyed by platform name.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
	fallback string
}

// NewRegistry builds a registry. fallback names the adapter used when a
// tenant has no ad_server configured.
func NewRegistry(fallback string) *Registry {
	return &Registry{
		adapters: make(map[string]Adapter),
		fallback: fallback,
	}
}

// Register adds an adapter under its own name.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Name()] = a
}

// For selects the adapter for an ad server name, falling back to the
// registry default when the name is empty.
func (r *Registry) For(adServer string) (Adapter, error) {
	if adServer == "" {
		adServer = r.fallback
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.adapters[adServer]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAdServer, adServer)
	}
	return a, nil
}

// Names lists the registered platforms, for diagnostics.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.adapters))
	for name := range r.adapters {
		out = append(out, name)
	}
	return out
}
