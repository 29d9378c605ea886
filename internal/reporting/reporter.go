// Package reporting pushes scheduled delivery snapshots to buyers. On every
// tick it lists the media buys currently in flight, renders a delivery
// report per owning principal, and posts it to that principal's standing
// webhook configs. Buys whose flight window has passed are flipped to
// completed after their final snapshot goes out.
package reporting

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
	"github.com/adcontexthq/salesagent/internal/push"
	"github.com/adcontexthq/salesagent/internal/skills"
	"github.com/adcontexthq/salesagent/internal/tenants"
)

// Config holds reporter scheduling knobs.
type Config struct {
	Interval    time.Duration
	Concurrency int
}

// BuyStore lists in-flight buys and retires ended ones.
type BuyStore interface {
	ListDelivering(ctx context.Context, now time.Time) ([]mediabuys.MediaBuy, error)
	CompleteEnded(ctx context.Context, now time.Time) (int64, error)
}

// ConfigStore returns a principal's registered webhook configs.
type ConfigStore interface {
	List(ctx context.Context, tenantID, principalID string) ([]*push.Config, error)
}

// DirectoryStore resolves the identity records a snapshot request needs.
type DirectoryStore interface {
	GetTenant(ctx context.Context, tenantID string) (*tenants.Tenant, error)
	GetPrincipal(ctx context.Context, tenantID, principalID string) (*tenants.Principal, error)
}

// DeliveryService renders delivery snapshots. Satisfied by *skills.Service,
// so scheduled reports and buyer-initiated get_media_buy_delivery calls
// share one code path.
type DeliveryService interface {
	GetMediaBuyDelivery(ctx context.Context, tc *auth.ToolContext, req *adcp.GetMediaBuyDeliveryRequest) (*skills.Outcome, error)
}

// Dispatcher schedules webhook deliveries.
type Dispatcher interface {
	Dispatch(cfg *push.Config, n push.Notification)
}

// MetricsRecordFunc is an optional callback recording snapshots pushed.
type MetricsRecordFunc func(count int)

// Reporter runs the periodic delivery-report loop.
type Reporter struct {
	buys      BuyStore
	configs   ConfigStore
	directory DirectoryStore
	delivery  DeliveryService
	sender    Dispatcher
	cfg       Config
	onMetrics MetricsRecordFunc
	logger    *zap.Logger
}

// New creates a Reporter. Zero config fields get defaults.
func New(buys BuyStore, configs ConfigStore, directory DirectoryStore, delivery DeliveryService, sender Dispatcher, cfg Config, logger *zap.Logger) *Reporter {
	if cfg.Interval == 0 {
		cfg.Interval = time.Hour
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = 8
	}
	return &Reporter{
		buys:      buys,
		configs:   configs,
		directory: directory,
		delivery:  delivery,
		sender:    sender,
		cfg:       cfg,
		logger:    logger,
	}
}

// SetMetricsRecord configures the metrics callback.
func (r *Reporter) SetMetricsRecord(fn MetricsRecordFunc) { r.onMetrics = fn }

// Run ticks until ctx is done.
func (r *Reporter) Run(ctx context.Context) {
	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, r.cfg.Interval-time.Second)
			r.ReportAll(tickCtx)
			cancel()
		}
	}
}

type owner struct {
	tenantID    string
	principalID string
}

// ReportAll renders and pushes one snapshot per owning principal, with
// bounded concurrency, then retires buys whose flight has ended. Retirement
// runs after the push so an ended buy's last snapshot reports it completed.
func (r *Reporter) ReportAll(ctx context.Context) {
	now := time.Now().UTC()
	buys, err := r.buys.ListDelivering(ctx, now)
	if err != nil {
		r.logger.Error("reporting: list delivering buys", zap.Error(err))
		return
	}

	byOwner := make(map[owner][]string)
	for _, b := range buys {
		k := owner{tenantID: b.TenantID, principalID: b.PrincipalID}
		byOwner[k] = append(byOwner[k], b.MediaBuyID)
	}

	sem := make(chan struct{}, r.cfg.Concurrency)
	var wg sync.WaitGroup
	for k, ids := range byOwner {
		wg.Add(1)
		go func(k owner, ids []string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			r.reportOwner(ctx, k, ids, now)
		}(k, ids)
	}
	wg.Wait()

	if n, err := r.buys.CompleteEnded(ctx, now); err != nil {
		r.logger.Warn("reporting: complete ended buys", zap.Error(err))
	} else if n > 0 {
		r.logger.Info("reporting: retired ended buys", zap.Int64("count", n))
	}
}

// reportOwner pushes one principal's snapshot to its standing configs.
// Configs bound to a task session belong to that task's lifecycle and are
// skipped here.
func (r *Reporter) reportOwner(ctx context.Context, k owner, mediaBuyIDs []string, now time.Time) {
	configs, err := r.configs.List(ctx, k.tenantID, k.principalID)
	if err != nil {
		r.logger.Warn("reporting: list push configs",
			zap.String("tenant_id", k.tenantID), zap.Error(err))
		return
	}
	standing := configs[:0]
	for _, c := range configs {
		if c.SessionID == "" {
			standing = append(standing, c)
		}
	}
	if len(standing) == 0 {
		return
	}

	tenant, err := r.directory.GetTenant(ctx, k.tenantID)
	if err != nil {
		r.logger.Warn("reporting: resolve tenant",
			zap.String("tenant_id", k.tenantID), zap.Error(err))
		return
	}
	principal, err := r.directory.GetPrincipal(ctx, k.tenantID, k.principalID)
	if err != nil {
		r.logger.Warn("reporting: resolve principal",
			zap.String("tenant_id", k.tenantID),
			zap.String("principal_id", k.principalID), zap.Error(err))
		return
	}

	tc := &auth.ToolContext{
		TenantID:         k.tenantID,
		PrincipalID:      k.principalID,
		ToolName:         skills.SkillGetMediaBuyDelivery,
		RequestTimestamp: now,
		Tenant:           tenant,
		Principal:        principal,
	}
	out, err := r.delivery.GetMediaBuyDelivery(ctx, tc, &adcp.GetMediaBuyDeliveryRequest{MediaBuyIDs: mediaBuyIDs})
	if err != nil {
		r.logger.Warn("reporting: render snapshot",
			zap.String("tenant_id", k.tenantID),
			zap.String("principal_id", k.principalID), zap.Error(err))
		return
	}

	n := push.Notification{
		TaskID:   "delivery_" + uuid.NewString(),
		TaskType: skills.SkillGetMediaBuyDelivery,
		Status:   out.State,
		Result:   out.Data,
	}
	for _, cfg := range standing {
		r.sender.Dispatch(cfg, n)
	}
	if r.onMetrics != nil {
		r.onMetrics(len(standing))
	}
	r.logger.Debug("reporting: snapshot pushed",
		zap.String("tenant_id", k.tenantID),
		zap.String("principal_id", k.principalID),
		zap.Int("media_buys", len(mediaBuyIDs)),
		zap.Int("webhooks", len(standing)))
}
