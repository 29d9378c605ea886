// Package skills implements the AdCP media buy skills behind both
// protocol endpoints. Each skill takes a typed request, already decoded
// from the transport, and returns an Outcome the transport wraps into a
// task or tool result.
package skills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/adapters"
	"github.com/adcontexthq/salesagent/internal/audit"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/creatives"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
	"github.com/adcontexthq/salesagent/internal/notify"
	"github.com/adcontexthq/salesagent/internal/policy"
	"github.com/adcontexthq/salesagent/internal/signals"
)

// Call errors the transports translate into protocol codes.
var (
	ErrUnknownSkill  = errors.New("unknown skill")
	ErrInvalidParams = errors.New("invalid params")
)

// Outcome states, matching the task states the A2A layer reports.
const (
	StateCompleted = "completed"
	StateSubmitted = "submitted"
	StateFailed    = "failed"
)

// Outcome is the transport-agnostic result of a skill call.
type Outcome struct {
	Skill    string
	Artifact string
	Summary  string
	Data     any
	State    string
}

// ProductStore supplies the tenant's product catalog.
type ProductStore interface {
	ListProducts(ctx context.Context, tenantID string) ([]adcp.Product, error)
	GetProduct(ctx context.Context, tenantID, productID string) (*adcp.Product, error)
}

// FormatCatalog resolves creative formats for a tenant.
type FormatCatalog interface {
	List(ctx context.Context, tenantID string, req *adcp.ListCreativeFormatsRequest) ([]adcp.Format, error)
	Resolve(ctx context.Context, tenantID, formatID string) (*adcp.Format, bool)
}

// PropertyStore supplies the tenant's authorized properties.
type PropertyStore interface {
	ListProperties(ctx context.Context, tenantID string, tags []string) ([]adcp.Property, error)
	ListPropertyTags(ctx context.Context, tenantID string) (map[string]adcp.PropertyTagMeta, error)
}

// MediaBuyStore persists buys and packages.
type MediaBuyStore interface {
	Create(ctx context.Context, buy *mediabuys.MediaBuy, packages []mediabuys.Package) error
	Resolve(ctx context.Context, tenantID, mediaBuyID, buyerRef string) (*mediabuys.MediaBuy, error)
	List(ctx context.Context, tenantID, principalID string, ids, buyerRefs []string) ([]mediabuys.MediaBuy, error)
	Update(ctx context.Context, buy *mediabuys.MediaBuy) error
	GetPackages(ctx context.Context, tenantID, mediaBuyID string) ([]mediabuys.Package, error)
	UpdatePackage(ctx context.Context, p *mediabuys.Package) error
	FindPackages(ctx context.Context, tenantID, principalID, packageID string) ([]mediabuys.Package, error)
	AssignCreatives(ctx context.Context, tenantID, mediaBuyID, packageID string, creativeIDs []string) error
	UpdatePerformance(ctx context.Context, tenantID, mediaBuyID, packageID, productID string, index float64, metricType string) (bool, error)
}

// CreativeStore persists the creative library.
type CreativeStore interface {
	GetByIDs(ctx context.Context, tenantID, principalID string, ids []string) (map[string]*creatives.Creative, error)
	Create(ctx context.Context, c *creatives.Creative) error
	Update(ctx context.Context, c *creatives.Creative) error
	Delete(ctx context.Context, tenantID, principalID string, ids []string) (int64, error)
	List(ctx context.Context, tenantID, principalID string, q creatives.ListQuery) ([]creatives.Creative, int, error)
}

// SignalStore persists the signal catalog and activations.
type SignalStore interface {
	Get(ctx context.Context, tenantID, signalID string) (*adcp.Signal, error)
	Search(ctx context.Context, tenantID string, req *adcp.GetSignalsRequest) ([]adcp.Signal, error)
	GetActivation(ctx context.Context, tenantID, principalID, signalID, platform string) (*signals.Activation, error)
	SaveActivation(ctx context.Context, a *signals.Activation) error
	ListActivations(ctx context.Context, tenantID, signalID string) ([]signals.Activation, error)
}

// Service wires the stores, the ad-server adapters, and the operational
// collaborators behind the skill handlers.
type Service struct {
	products   ProductStore
	formats    FormatCatalog
	properties PropertyStore
	buys       MediaBuyStore
	creatives  CreativeStore
	signals    SignalStore
	adapters   *adapters.Registry
	policy     policy.Checker
	audit      audit.Log
	notify     notify.Notifier
	logger     *zap.Logger
}

// Config carries the service dependencies. policy, audit, and notify may
// be nil; the service degrades to not screening, not recording, and not
// alerting respectively.
type Config struct {
	Products   ProductStore
	Formats    FormatCatalog
	Properties PropertyStore
	Buys       MediaBuyStore
	Creatives  CreativeStore
	Signals    SignalStore
	Adapters   *adapters.Registry
	Policy     policy.Checker
	Audit      audit.Log
	Notify     notify.Notifier
	Logger     *zap.Logger
}

func NewService(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		products:   cfg.Products,
		formats:    cfg.Formats,
		properties: cfg.Properties,
		buys:       cfg.Buys,
		creatives:  cfg.Creatives,
		signals:    cfg.Signals,
		adapters:   cfg.Adapters,
		policy:     cfg.Policy,
		audit:      cfg.Audit,
		notify:     cfg.Notify,
		logger:     logger,
	}
}

// Call decodes raw params for a skill and dispatches to its handler.
// Decode failures wrap ErrInvalidParams; unrecognized skills return
// ErrUnknownSkill. Domain failures come back as failed Outcomes, not
// errors.
func (s *Service) Call(ctx context.Context, tc *auth.ToolContext, skill string, raw json.RawMessage) (*Outcome, error) {
	def, ok := definitionsByName[skill]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
	}
	if def.RequiresAuth && tc.IsAnonymous() {
		return nil, fmt.Errorf("%w: %s requires authentication", auth.ErrMissingToken, skill)
	}
	tc = tc.WithTool(skill)

	out, err := s.dispatch(ctx, tc, skill, raw)
	if err != nil {
		s.record(ctx, tc, skill, false, raw)
		return nil, err
	}
	out.Skill = skill
	if out.Artifact == "" {
		out.Artifact = skill + "_result"
	}
	s.record(ctx, tc, skill, out.State != StateFailed, raw)
	return out, nil
}

func (s *Service) dispatch(ctx context.Context, tc *auth.ToolContext, skill string, raw json.RawMessage) (*Outcome, error) {
	switch skill {
	case SkillGetProducts:
		req := new(adcp.GetProductsRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.GetProducts(ctx, tc, req)
	case SkillListCreativeFormats:
		req := new(adcp.ListCreativeFormatsRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.ListCreativeFormats(ctx, tc, req)
	case SkillListAuthorizedProperties:
		req := new(adcp.ListAuthorizedPropertiesRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.ListAuthorizedProperties(ctx, tc, req)
	case SkillCreateMediaBuy:
		req := new(adcp.CreateMediaBuyRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.CreateMediaBuy(ctx, tc, req)
	case SkillUpdateMediaBuy:
		req := new(adcp.UpdateMediaBuyRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.UpdateMediaBuy(ctx, tc, req)
	case SkillGetMediaBuyDelivery:
		req := new(adcp.GetMediaBuyDeliveryRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.GetMediaBuyDelivery(ctx, tc, req)
	case SkillSyncCreatives:
		req := new(adcp.SyncCreativesRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.SyncCreatives(ctx, tc, req)
	case SkillListCreatives:
		req := new(adcp.ListCreativesRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.ListCreatives(ctx, tc, req)
	case SkillGetSignals:
		req := new(adcp.GetSignalsRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.GetSignals(ctx, tc, req)
	case SkillActivateSignal:
		req := new(adcp.ActivateSignalRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.ActivateSignal(ctx, tc, req)
	case SkillUpdatePerformanceIndex:
		req := new(adcp.UpdatePerformanceIndexRequest)
		if err := adcp.Decode(raw, req); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidParams, err)
		}
		return s.UpdatePerformanceIndex(ctx, tc, req)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownSkill, skill)
}

// record appends to the audit log; audit failures are logged, never
// surfaced to the buyer.
func (s *Service) record(ctx context.Context, tc *auth.ToolContext, skill string, success bool, raw json.RawMessage) {
	if s.audit == nil {
		return
	}
	_, err := s.audit.Append(ctx, audit.Event{
		TenantID:    tc.TenantID,
		PrincipalID: tc.PrincipalID,
		Operation:   skill,
		Success:     success,
	}, json.RawMessage(raw))
	if err != nil {
		s.logger.Warn("audit append failed", zap.String("operation", skill), zap.Error(err))
	}
}

// alert notifies publisher ops; delivery failures are logged, never
// surfaced to the buyer.
func (s *Service) alert(ctx context.Context, tenantID, title, text string) {
	if s.notify == nil {
		return
	}
	if err := s.notify.Notify(ctx, tenantID, title, text); err != nil {
		s.logger.Warn("notification failed", zap.String("tenant_id", tenantID), zap.Error(err))
	}
}

// screen runs the policy checker when the tenant enforces or observes.
// It returns a failed Outcome when the request must be blocked.
func (s *Service) screen(ctx context.Context, tc *auth.ToolContext, brief string, manifest *adcp.BrandManifest) *adcp.Error {
	if s.policy == nil || tc.Tenant == nil {
		return nil
	}
	mode := tc.Tenant.PolicyMode
	if mode == "" || mode == "off" {
		return nil
	}

	report, err := s.policy.Check(ctx, brief, manifest)
	if err != nil {
		s.logger.Warn("policy check failed", zap.Error(err))
		return nil
	}
	if len(report.Findings) == 0 {
		return nil
	}

	s.logger.Info("policy findings",
		zap.String("tenant_id", tc.TenantID),
		zap.String("principal_id", tc.PrincipalID),
		zap.Int("score", report.Score),
		zap.String("severity", report.Severity))

	if report.Rejected {
		s.alert(ctx, tc.TenantID, "Policy violation",
			fmt.Sprintf("Principal %s request scored %d (%s): %s",
				tc.PrincipalID, report.Score, report.Severity, report.Findings[0].Description))
		if mode == "enforce" {
			return &adcp.Error{
				Code:     adcp.CodePolicyViolation,
				Message:  "request violates publisher content policy: " + report.Findings[0].Description,
				Severity: adcp.SeverityError,
			}
		}
	}
	return nil
}

// failed wraps a response that carries domain errors.
func failed(data interface{ Summary() string }) *Outcome {
	return &Outcome{Summary: data.Summary(), Data: data, State: StateFailed}
}

// completed wraps a successful response.
func completed(data interface{ Summary() string }) *Outcome {
	return &Outcome{Summary: data.Summary(), Data: data, State: StateCompleted}
}

// creativeDeadlineLead is how long before flight start creatives are due.
const creativeDeadlineLead = 48 * time.Hour
