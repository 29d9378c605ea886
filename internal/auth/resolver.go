package auth

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/adcontexthq/salesagent/internal/tenants"
)

// Resolution failures. All surface as JSON-RPC InvalidRequest at the
// dispatcher boundary, with ErrorCode(err) as the structured code.
var (
	ErrMissingToken         = errors.New("missing access token")
	ErrInvalidToken         = errors.New("invalid or unknown access token")
	ErrTenantDetection      = errors.New("tenant could not be detected from request headers")
	ErrPrincipalNotInTenant = errors.New("principal does not belong to the detected tenant")
)

// ErrorCode maps a resolution failure to its stable wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTenantDetection):
		return "tenant_detection_failed"
	case errors.Is(err, ErrPrincipalNotInTenant):
		return "principal_not_in_tenant"
	default:
		return "authentication_error"
	}
}

// TenantStore is the tenant lookup surface the resolver consumes.
type TenantStore interface {
	GetTenant(ctx context.Context, tenantID string) (*tenants.Tenant, error)
	GetTenantBySubdomain(ctx context.Context, subdomain string) (*tenants.Tenant, error)
	GetTenantByVirtualHost(ctx context.Context, host string) (*tenants.Tenant, error)
}

// PrincipalStore is the principal lookup surface the resolver consumes.
type PrincipalStore interface {
	GetPrincipalByToken(ctx context.Context, tenantID, token string) (*tenants.Principal, error)
	GetPrincipalByTokenGlobal(ctx context.Context, token string) (*tenants.Principal, error)
}

// Signals are the transport inputs identity resolution runs on. They are
// captured from the request immediately on receipt.
type Signals struct {
	ApxIncomingHost string
	Host            string
	Token           string
	Protocol        string
	Source          string

	// TenantHeader is x-adcp-tenant. Honored only when AllowTenantHeader
	// is set by an admin or debug surface; buyer paths never set it.
	TenantHeader      string
	AllowTenantHeader bool

	Testing *TestingContext
}

// SignalsFromRequest captures resolution inputs from an HTTP request.
// token extraction differs per transport, so the caller supplies it.
func SignalsFromRequest(r *http.Request, token, protocol string) Signals {
	sig := Signals{
		ApxIncomingHost: r.Header.Get("Apx-Incoming-Host"),
		Host:            r.Host,
		Token:           token,
		Protocol:        protocol,
		Source:          r.RemoteAddr,
		TenantHeader:    r.Header.Get("x-adcp-tenant"),
	}
	if dr := r.Header.Get("X-Dry-Run"); strings.EqualFold(dr, "true") {
		if sig.Testing == nil {
			sig.Testing = &TestingContext{}
		}
		sig.Testing.DryRun = true
	}
	if mt := r.Header.Get("X-Mock-Time"); mt != "" {
		if t, err := time.Parse(time.RFC3339, mt); err == nil {
			if sig.Testing == nil {
				sig.Testing = &TestingContext{}
			}
			sig.Testing.MockTime = &t
		}
	}
	return sig
}

// TokenFromA2A extracts the bearer token from an Authorization header.
func TokenFromA2A(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if len(h) > 7 && strings.EqualFold(h[:7], "Bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return ""
}

// TokenFromMCP extracts the token from the x-adcp-auth header.
func TokenFromMCP(r *http.Request) string {
	return strings.TrimSpace(r.Header.Get("x-adcp-auth"))
}

// Subdomain labels that never identify a tenant.
var reservedSubdomains = map[string]bool{
	"localhost": true,
	"www":       true,
}

// Resolver maps (token, routing headers) to (tenant, principal). It never
// falls back to a default tenant: detection either succeeds or the
// request fails loudly.
type Resolver struct {
	store       TenantStore
	principals  PrincipalStore
	cache       *tenants.Cache
	rootHost    string
	forceDryRun bool
	production  bool
	onMetrics   func(reason string)
	logger      *zap.Logger
}

// NewResolver builds a Resolver. cache may be nil to disable caching;
// rootHost is the agent's own host, whose bare subdomain is reserved.
func NewResolver(store TenantStore, principals PrincipalStore, cache *tenants.Cache, rootHost string, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		store:      store,
		principals: principals,
		cache:      cache,
		rootHost:   hostWithoutPort(rootHost),
		logger:     logger,
	}
}

// SetForceDryRun makes every built context a dry run, regardless of
// request headers. Driven by the server-wide dry-run flag.
func (r *Resolver) SetForceDryRun(on bool) { r.forceDryRun = on }

// SetProduction discards request testing hooks (X-Dry-Run, X-Mock-Time)
// so callers cannot alter behavior in production. The server-wide dry-run
// flag still applies.
func (r *Resolver) SetProduction(on bool) { r.production = on }

// SetMetricsRecorder configures an optional callback fired when
// BuildContext refuses a request, with the stable wire code as the
// reason. Set before serving; not guarded afterwards.
func (r *Resolver) SetMetricsRecorder(fn func(reason string)) { r.onMetrics = fn }

// refuse records the failure and returns err unchanged.
func (r *Resolver) refuse(err error) error {
	if r.onMetrics != nil {
		r.onMetrics(ErrorCode(err))
	}
	return err
}

// ResolveTenant detects the tenant from routing headers, in precedence
// order: Apx-Incoming-Host virtual host, Host virtual host, Host
// subdomain, then the explicit tenant header when the surface allows it.
func (r *Resolver) ResolveTenant(ctx context.Context, sig Signals) (*tenants.Tenant, error) {
	if apx := hostWithoutPort(sig.ApxIncomingHost); apx != "" {
		if t, err := r.tenantByVirtualHost(ctx, apx); err == nil {
			return t, nil
		}
	}
	if host := hostWithoutPort(sig.Host); host != "" {
		if t, err := r.tenantByVirtualHost(ctx, host); err == nil {
			return t, nil
		}
		if sub, ok := r.subdomainOf(host); ok {
			if t, err := r.tenantBySubdomain(ctx, sub); err == nil {
				return t, nil
			}
		}
	}
	if sig.AllowTenantHeader && sig.TenantHeader != "" {
		if t, err := r.tenantByID(ctx, sig.TenantHeader); err == nil {
			return t, nil
		}
	}
	r.logger.Warn("tenant detection failed",
		zap.String("apx_incoming_host", sig.ApxIncomingHost),
		zap.String("host", sig.Host))
	return nil, ErrTenantDetection
}

// ResolvePrincipal authenticates a token within an already-detected
// tenant. The global token table is consulted only to distinguish a
// cross-tenant token from an unknown one; it never authenticates.
func (r *Resolver) ResolvePrincipal(ctx context.Context, tenant *tenants.Tenant, token string) (*tenants.Principal, string, error) {
	if token == "" {
		return nil, "", ErrMissingToken
	}
	p, err := r.principals.GetPrincipalByToken(ctx, tenant.TenantID, token)
	if err == nil {
		return p, p.PrincipalID, nil
	}
	if !errors.Is(err, tenants.ErrPrincipalNotFound) {
		return nil, "", err
	}

	// Admin token authenticates only the tenant that owns it.
	if tenant.AdminTokenHash != "" &&
		bcrypt.CompareHashAndPassword([]byte(tenant.AdminTokenHash), []byte(token)) == nil {
		return nil, "admin_" + tenant.TenantID, nil
	}

	other, gerr := r.principals.GetPrincipalByTokenGlobal(ctx, token)
	if gerr == nil && other.TenantID != tenant.TenantID {
		r.logger.Warn("token belongs to a different tenant",
			zap.String("detected_tenant", tenant.TenantID),
			zap.String("principal_tenant", other.TenantID))
		return nil, "", ErrPrincipalNotInTenant
	}
	return nil, "", ErrInvalidToken
}

// BuildContext runs full resolution and returns the request's
// ToolContext. optionalAuth permits anonymous access for discovery
// operations; a present-but-invalid token is still rejected.
func (r *Resolver) BuildContext(ctx context.Context, sig Signals, toolName, contextID string, optionalAuth bool) (*ToolContext, error) {
	tenant, err := r.ResolveTenant(ctx, sig)
	if err != nil {
		return nil, r.refuse(err)
	}

	var principal *tenants.Principal
	principalID := AnonymousPrincipal
	if sig.Token != "" {
		principal, principalID, err = r.ResolvePrincipal(ctx, tenant, sig.Token)
		if err != nil {
			return nil, r.refuse(err)
		}
	} else if !optionalAuth {
		return nil, r.refuse(ErrMissingToken)
	}

	if contextID == "" {
		contextID = NewContextID()
	}
	testing := sig.Testing
	if r.production {
		testing = nil
	}
	if r.forceDryRun {
		if testing == nil {
			testing = &TestingContext{}
		}
		testing.DryRun = true
	}
	return &ToolContext{
		ContextID:        contextID,
		TenantID:         tenant.TenantID,
		PrincipalID:      principalID,
		ToolName:         toolName,
		RequestTimestamp: time.Now().UTC(),
		Metadata:         Metadata{Protocol: sig.Protocol, Source: sig.Source},
		Testing:          testing,
		Tenant:           tenant,
		Principal:        principal,
	}, nil
}

func (r *Resolver) tenantByVirtualHost(ctx context.Context, host string) (*tenants.Tenant, error) {
	if r.cache != nil {
		if t, ok := r.cache.GetByVirtualHost(host); ok {
			return t, nil
		}
	}
	t, err := r.store.GetTenantByVirtualHost(ctx, host)
	if err != nil {
		return nil, err
	}
	r.cachePut(t)
	return t, nil
}

func (r *Resolver) tenantBySubdomain(ctx context.Context, sub string) (*tenants.Tenant, error) {
	if r.cache != nil {
		if t, ok := r.cache.GetBySubdomain(sub); ok {
			return t, nil
		}
	}
	t, err := r.store.GetTenantBySubdomain(ctx, sub)
	if err != nil {
		return nil, err
	}
	r.cachePut(t)
	return t, nil
}

func (r *Resolver) tenantByID(ctx context.Context, id string) (*tenants.Tenant, error) {
	if r.cache != nil {
		if t, ok := r.cache.GetByID(id); ok {
			return t, nil
		}
	}
	t, err := r.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cachePut(t)
	return t, nil
}

func (r *Resolver) cachePut(t *tenants.Tenant) {
	if r.cache != nil {
		r.cache.Put(t)
	}
}

// subdomainOf extracts the tenant label from a host, refusing reserved
// labels and the agent's own root host.
func (r *Resolver) subdomainOf(host string) (string, bool) {
	if host == "" || host == r.rootHost {
		return "", false
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return "", false
	}
	label := parts[0]
	if reservedSubdomains[label] {
		return "", false
	}
	if r.rootHost != "" && strings.HasPrefix(r.rootHost, label+".") {
		return "", false
	}
	return label, true
}

func hostWithoutPort(host string) string {
	if host == "" {
		return ""
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
