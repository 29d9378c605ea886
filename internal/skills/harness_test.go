package skills_test

import (
	"context"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/adapters"
	"github.com/adcontexthq/salesagent/internal/audit"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/catalog"
	"github.com/adcontexthq/salesagent/internal/creatives"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
	"github.com/adcontexthq/salesagent/internal/policy"
	"github.com/adcontexthq/salesagent/internal/signals"
	"github.com/adcontexthq/salesagent/internal/skills"
	"github.com/adcontexthq/salesagent/internal/tenants"
)

// testNow is the frozen request clock every test context carries.
var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// ── Stub product store ──────────────────────────────────────────────────────

type stubProducts struct {
	mu    sync.RWMutex
	items []adcp.Product
}

func (s *stubProducts) ListProducts(_ context.Context, tenantID string) ([]adcp.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]adcp.Product, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *stubProducts) GetProduct(_ context.Context, tenantID, productID string) (*adcp.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			p := s.items[i]
			return &p, nil
		}
	}
	return nil, catalog.ErrProductNotFound
}

// ── Stub format catalog ─────────────────────────────────────────────────────

type stubFormats struct {
	items []adcp.Format
}

func (s *stubFormats) List(_ context.Context, tenantID string, _ *adcp.ListCreativeFormatsRequest) ([]adcp.Format, error) {
	out := make([]adcp.Format, len(s.items))
	copy(out, s.items)
	return out, nil
}

func (s *stubFormats) Resolve(_ context.Context, tenantID, formatID string) (*adcp.Format, bool) {
	for i := range s.items {
		if s.items[i].FormatID.ID == formatID {
			f := s.items[i]
			return &f, true
		}
	}
	return nil, false
}

// ── Stub property store ─────────────────────────────────────────────────────

type stubProperties struct {
	items []adcp.Property
	tags  map[string]adcp.PropertyTagMeta
}

func (s *stubProperties) ListProperties(_ context.Context, tenantID string, tags []string) ([]adcp.Property, error) {
	if len(tags) == 0 {
		out := make([]adcp.Property, len(s.items))
		copy(out, s.items)
		return out, nil
	}
	want := make(map[string]bool, len(tags))
	for _, t := range tags {
		want[t] = true
	}
	var out []adcp.Property
	for _, p := range s.items {
		for _, t := range p.Tags {
			if want[t] {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (s *stubProperties) ListPropertyTags(_ context.Context, tenantID string) (map[string]adcp.PropertyTagMeta, error) {
	out := make(map[string]adcp.PropertyTagMeta, len(s.tags))
	for k, v := range s.tags {
		out[k] = v
	}
	return out, nil
}

// ── Stub media buy store ────────────────────────────────────────────────────

// stubBuys mirrors the repository's addressing rules: Resolve prefers ids
// over refs, List without selectors is principal-scoped, and selector
// lookups are tenant-scoped so ownership stays a handler concern.
type stubBuys struct {
	mu       sync.RWMutex
	buys     map[string]*mediabuys.MediaBuy
	packages map[string][]*mediabuys.Package
	seq      int
}

func newStubBuys() *stubBuys {
	return &stubBuys{
		buys:     make(map[string]*mediabuys.MediaBuy),
		packages: make(map[string][]*mediabuys.Package),
	}
}

// tick hands out strictly increasing created_at stamps.
func (s *stubBuys) tick() time.Time {
	s.seq++
	return testNow.Add(time.Duration(s.seq) * time.Second)
}

func (s *stubBuys) Create(_ context.Context, buy *mediabuys.MediaBuy, packages []mediabuys.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.buys {
		if b.TenantID == buy.TenantID && b.BuyerRef == buy.BuyerRef {
			return mediabuys.ErrBuyerRefExists
		}
	}
	b := *buy
	b.CreatedAt = s.tick()
	b.UpdatedAt = b.CreatedAt
	s.buys[b.MediaBuyID] = &b
	for i := range packages {
		p := packages[i]
		p.MediaBuyID = b.MediaBuyID
		p.TenantID = b.TenantID
		p.CreatedAt = s.tick()
		p.UpdatedAt = p.CreatedAt
		s.packages[b.MediaBuyID] = append(s.packages[b.MediaBuyID], &p)
	}
	return nil
}

func (s *stubBuys) Resolve(_ context.Context, tenantID, mediaBuyID, buyerRef string) (*mediabuys.MediaBuy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if mediaBuyID != "" {
		if b, ok := s.buys[mediaBuyID]; ok && b.TenantID == tenantID {
			c := *b
			return &c, nil
		}
	}
	if buyerRef != "" {
		for _, b := range s.buys {
			if b.TenantID == tenantID && b.BuyerRef == buyerRef {
				c := *b
				return &c, nil
			}
		}
	}
	return nil, mediabuys.ErrMediaBuyNotFound
}

func (s *stubBuys) List(_ context.Context, tenantID, principalID string, ids, buyerRefs []string) ([]mediabuys.MediaBuy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []mediabuys.MediaBuy
	if len(ids) == 0 && len(buyerRefs) == 0 {
		for _, b := range s.buys {
			if b.TenantID == tenantID && b.PrincipalID == principalID {
				out = append(out, *b)
			}
		}
	} else {
		wantID := make(map[string]bool, len(ids))
		for _, id := range ids {
			wantID[id] = true
		}
		wantRef := make(map[string]bool, len(buyerRefs))
		for _, ref := range buyerRefs {
			wantRef[ref] = true
		}
		for _, b := range s.buys {
			if b.TenantID == tenantID && (wantID[b.MediaBuyID] || wantRef[b.BuyerRef]) {
				out = append(out, *b)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *stubBuys) Update(_ context.Context, buy *mediabuys.MediaBuy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.buys[buy.MediaBuyID]
	if !ok {
		return mediabuys.ErrMediaBuyNotFound
	}
	b := *buy
	b.CreatedAt = cur.CreatedAt
	b.UpdatedAt = s.tick()
	s.buys[b.MediaBuyID] = &b
	return nil
}

func (s *stubBuys) GetPackages(_ context.Context, tenantID, mediaBuyID string) ([]mediabuys.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.packages[mediaBuyID]
	out := make([]mediabuys.Package, 0, len(stored))
	for _, p := range stored {
		out = append(out, *p)
	}
	return out, nil
}

func (s *stubBuys) UpdatePackage(_ context.Context, p *mediabuys.Package) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, cur := range s.packages[p.MediaBuyID] {
		if cur.PackageID == p.PackageID || (p.PackageID != "" && cur.BuyerRef == p.PackageID) {
			c := *p
			c.CreatedAt = cur.CreatedAt
			c.UpdatedAt = s.tick()
			s.packages[p.MediaBuyID][i] = &c
			return nil
		}
	}
	return mediabuys.ErrPackageNotFound
}

func (s *stubBuys) FindPackages(_ context.Context, tenantID, principalID, packageID string) ([]mediabuys.Package, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []mediabuys.Package
	for buyID, stored := range s.packages {
		buy, ok := s.buys[buyID]
		if !ok || buy.TenantID != tenantID || buy.PrincipalID != principalID {
			continue
		}
		for _, p := range stored {
			if p.PackageID == packageID || p.BuyerRef == packageID {
				out = append(out, *p)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *stubBuys) AssignCreatives(_ context.Context, tenantID, mediaBuyID, packageID string, creativeIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.packages[mediaBuyID] {
		if p.PackageID != packageID {
			continue
		}
		have := make(map[string]bool, len(p.CreativeIDs))
		for _, id := range p.CreativeIDs {
			have[id] = true
		}
		for _, id := range creativeIDs {
			if !have[id] {
				p.CreativeIDs = append(p.CreativeIDs, id)
				have[id] = true
			}
		}
		return nil
	}
	return mediabuys.ErrPackageNotFound
}

func (s *stubBuys) UpdatePerformance(_ context.Context, tenantID, mediaBuyID, packageID, productID string, index float64, metricType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := false
	for _, p := range s.packages[mediaBuyID] {
		switch {
		case packageID != "":
			if p.PackageID != packageID && p.BuyerRef != packageID {
				continue
			}
		default:
			if p.ProductID != productID {
				continue
			}
		}
		idx := index
		p.PerformanceIndex = &idx
		p.MetricType = metricType
		matched = true
	}
	return matched, nil
}

// ── Stub creative store ─────────────────────────────────────────────────────

type stubCreatives struct {
	mu    sync.RWMutex
	items map[string]*creatives.Creative
	// assigned maps creative_id to media buy ids, standing in for the
	// repository's package-assignment join.
	assigned map[string][]string
	seq      int
}

func newStubCreatives() *stubCreatives {
	return &stubCreatives{
		items:    make(map[string]*creatives.Creative),
		assigned: make(map[string][]string),
	}
}

func (s *stubCreatives) GetByIDs(_ context.Context, tenantID, principalID string, ids []string) (map[string]*creatives.Creative, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*creatives.Creative, len(ids))
	for _, id := range ids {
		if c, ok := s.items[id]; ok && c.TenantID == tenantID && c.PrincipalID == principalID {
			cp := *c
			out[id] = &cp
		}
	}
	return out, nil
}

func (s *stubCreatives) Create(_ context.Context, c *creatives.Creative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *c
	s.seq++
	cp.CreatedAt = testNow.Add(time.Duration(s.seq) * time.Second)
	cp.UpdatedAt = cp.CreatedAt
	s.items[cp.CreativeID] = &cp
	return nil
}

func (s *stubCreatives) Update(_ context.Context, c *creatives.Creative) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.items[c.CreativeID]
	if !ok {
		return creatives.ErrCreativeNotFound
	}
	cp := *c
	cp.CreatedAt = cur.CreatedAt
	s.items[cp.CreativeID] = &cp
	return nil
}

func (s *stubCreatives) Delete(_ context.Context, tenantID, principalID string, ids []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, id := range ids {
		if c, ok := s.items[id]; ok && c.TenantID == tenantID && c.PrincipalID == principalID {
			delete(s.items, id)
			n++
		}
	}
	return n, nil
}

func (s *stubCreatives) List(_ context.Context, tenantID, principalID string, q creatives.ListQuery) ([]creatives.Creative, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []creatives.Creative
	for _, c := range s.items {
		if c.TenantID != tenantID || c.PrincipalID != principalID {
			continue
		}
		if len(q.MediaBuyIDs) > 0 && !s.assignedToAny(c.CreativeID, q.MediaBuyIDs) {
			continue
		}
		if q.Status != "" && c.Status != q.Status {
			continue
		}
		if q.FormatID != "" && (c.Format == nil || c.Format.ID != q.FormatID) {
			continue
		}
		if q.Search != "" && !strings.Contains(strings.ToLower(c.Name+" "+c.CreativeID), strings.ToLower(q.Search)) {
			continue
		}
		if q.CreatedAfter != nil && !c.CreatedAt.After(*q.CreatedAfter) {
			continue
		}
		if q.CreatedBefore != nil && !c.CreatedAt.Before(*q.CreatedBefore) {
			continue
		}
		all = append(all, *c)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].CreatedAt.After(all[j].CreatedAt)
		}
		return all[i].CreativeID < all[j].CreativeID
	})
	total := len(all)
	if q.Offset > 0 {
		if q.Offset >= len(all) {
			all = nil
		} else {
			all = all[q.Offset:]
		}
	}
	if q.Limit > 0 && len(all) > q.Limit {
		all = all[:q.Limit]
	}
	return all, total, nil
}

func (s *stubCreatives) assignedToAny(creativeID string, buyIDs []string) bool {
	for _, assigned := range s.assigned[creativeID] {
		for _, want := range buyIDs {
			if assigned == want {
				return true
			}
		}
	}
	return false
}

// ── Stub signal store ───────────────────────────────────────────────────────

type stubSignals struct {
	mu          sync.RWMutex
	items       []adcp.Signal
	activations map[string]*signals.Activation
}

func newStubSignals(items ...adcp.Signal) *stubSignals {
	return &stubSignals{items: items, activations: make(map[string]*signals.Activation)}
}

func activationKey(tenantID, principalID, signalID, platform string) string {
	return strings.Join([]string{tenantID, principalID, signalID, platform}, "|")
}

func (s *stubSignals) Get(_ context.Context, tenantID, signalID string) (*adcp.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.items {
		if s.items[i].SignalAgentSegmentID == signalID {
			sig := s.items[i]
			return &sig, nil
		}
	}
	return nil, signals.ErrSignalNotFound
}

func (s *stubSignals) Search(_ context.Context, tenantID string, req *adcp.GetSignalsRequest) ([]adcp.Signal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []adcp.Signal
	spec := strings.ToLower(req.SignalSpec)
	for _, sig := range s.items {
		if spec != "" && !strings.Contains(strings.ToLower(sig.Name+" "+sig.Description), spec) {
			continue
		}
		out = append(out, sig)
		if req.MaxResults > 0 && len(out) == req.MaxResults {
			break
		}
	}
	return out, nil
}

func (s *stubSignals) GetActivation(_ context.Context, tenantID, principalID, signalID, platform string) (*signals.Activation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.activations[activationKey(tenantID, principalID, signalID, platform)]
	if !ok {
		return nil, signals.ErrSignalNotFound
	}
	c := *a
	return &c, nil
}

func (s *stubSignals) SaveActivation(_ context.Context, a *signals.Activation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *a
	s.activations[activationKey(a.TenantID, a.PrincipalID, a.SignalID, a.Platform)] = &c
	return nil
}

func (s *stubSignals) ListActivations(_ context.Context, tenantID, signalID string) ([]signals.Activation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []signals.Activation
	for _, a := range s.activations {
		if a.TenantID == tenantID && a.SignalID == signalID {
			out = append(out, *a)
		}
	}
	return out, nil
}

// ── Stub notifier ───────────────────────────────────────────────────────────

type stubNotifier struct {
	mu     sync.Mutex
	titles []string
	texts  []string
}

func (s *stubNotifier) Notify(_ context.Context, tenantID, title, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	s.texts = append(s.texts, text)
	return nil
}

func (s *stubNotifier) sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.titles))
	copy(out, s.titles)
	return out
}

// ── Fixture ─────────────────────────────────────────────────────────────────

type fixture struct {
	svc        *skills.Service
	products   *stubProducts
	formats    *stubFormats
	properties *stubProperties
	buys       *stubBuys
	creatives  *stubCreatives
	signals    *stubSignals
	notifier   *stubNotifier
	log        *audit.MemoryLog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		products: &stubProducts{items: []adcp.Product{
			{
				ProductID:    "prod_ctv",
				Name:         "CTV Premium Sports",
				Description:  "Connected TV inventory across live sports streams",
				DeliveryType: "guaranteed",
				IsFixedPrice: true,
				Formats:      []adcp.FormatID{{ID: "video_standard"}},
				PricingOptions: []adcp.PricingOption{
					{PricingModel: adcp.PricingModelCPM, IsFixed: true, Rate: 18, Currency: "USD"},
				},
				PropertyTags: []string{"ctv"},
			},
			{
				ProductID:    "prod_podcast",
				Name:         "Podcast Mid-roll",
				Description:  "Host-read mid-roll slots on the daily shows",
				DeliveryType: "non_guaranteed",
				Formats:      []adcp.FormatID{{ID: "audio_standard"}},
				PricingOptions: []adcp.PricingOption{
					{PricingModel: adcp.PricingModelCPCV, Rate: 0.04, Currency: "USD"},
				},
				PropertyTags: []string{"audio"},
			},
			{
				ProductID:    "prod_run_of_site",
				Name:         "Run of Site Display",
				Description:  "Remnant display across every property",
				DeliveryType: "non_guaranteed",
				Formats:      []adcp.FormatID{{ID: "display_300x250"}},
				PropertyTags: []string{"display"},
			},
			{
				ProductID:    "prod_custom_nike",
				Name:         "Custom Homepage Takeover",
				Description:  "Negotiated homepage takeover",
				DeliveryType: "guaranteed",
				IsFixedPrice: true,
				Formats:      []adcp.FormatID{{ID: "display_300x250"}},
				PricingOptions: []adcp.PricingOption{
					{PricingModel: adcp.PricingModelCPM, IsFixed: true, Rate: 40, Currency: "USD"},
				},
				PropertyTags: []string{"homepage"},
				IsCustom:     true,
			},
		}},
		formats: &stubFormats{items: []adcp.Format{
			{FormatID: adcp.FormatID{ID: "video_standard"}, Name: "Standard Video", Type: "video", IsStandard: true},
			{FormatID: adcp.FormatID{ID: "audio_standard"}, Name: "Standard Audio", Type: "audio", IsStandard: true},
			{FormatID: adcp.FormatID{ID: "display_300x250"}, Name: "Medium Rectangle", Type: "display", IsStandard: true},
		}},
		properties: &stubProperties{
			items: []adcp.Property{
				{
					PropertyType:    adcp.PropertyTypeWebsite,
					Name:            "Wonder News",
					Identifiers:     []adcp.PropertyIdentifier{{Type: "domain", Value: "wonder.example"}},
					Tags:            []string{"news", "display"},
					PublisherDomain: "wonder.example",
				},
				{
					PropertyType:    adcp.PropertyTypeCTVApp,
					Name:            "Wonder Sports TV",
					Identifiers:     []adcp.PropertyIdentifier{{Type: "bundle_id", Value: "tv.wonder.sports"}},
					Tags:            []string{"ctv"},
					PublisherDomain: "wonder.example",
				},
			},
			tags: map[string]adcp.PropertyTagMeta{
				"news": {Name: "news", Description: "News and editorial"},
				"ctv":  {Name: "ctv", Description: "Connected TV apps"},
			},
		},
		buys:      newStubBuys(),
		creatives: newStubCreatives(),
		signals: newStubSignals(
			adcp.Signal{
				SignalAgentSegmentID: "sig_sports",
				Name:                 "Sports Enthusiasts",
				Description:          "Households indexing high on live sports viewing",
				SignalType:           "marketplace",
				DataProvider:         "Polk",
				CoveragePercentage:   45,
				Pricing:              &adcp.SignalPricing{CPM: 3.5, Currency: "USD"},
			},
			adcp.Signal{
				SignalAgentSegmentID: "sig_auto",
				Name:                 "Auto Intenders",
				Description:          "In-market for a new vehicle",
				SignalType:           "marketplace",
				DataProvider:         "Polk",
				CoveragePercentage:   12,
				Pricing:              &adcp.SignalPricing{CPM: 2.25, Currency: "USD"},
			},
		),
		notifier: &stubNotifier{},
		log:      audit.NewMemoryLog(nil),
	}

	registry := adapters.NewRegistry("mock")
	registry.Register(adapters.NewMockAdapter(false, nil))

	f.svc = skills.NewService(skills.Config{
		Products:   f.products,
		Formats:    f.formats,
		Properties: f.properties,
		Buys:       f.buys,
		Creatives:  f.creatives,
		Signals:    f.signals,
		Adapters:   registry,
		Policy:     policy.NewRuleChecker(),
		Audit:      f.log,
		Notify:     f.notifier,
		Logger:     zap.NewNop(),
	})
	return f
}

// ── Context helpers ─────────────────────────────────────────────────────────

func testTenant() *tenants.Tenant {
	return &tenants.Tenant{
		TenantID:   "wonder",
		Name:       "Wonder Media",
		Subdomain:  "wonder",
		AdServer:   "mock",
		PolicyMode: tenants.PolicyModeEnforce,
		IsActive:   true,
	}
}

func buyerContext() *auth.ToolContext {
	return &auth.ToolContext{
		ContextID:        auth.NewContextID(),
		TenantID:         "wonder",
		PrincipalID:      "nike",
		RequestTimestamp: testNow,
		Testing:          &auth.TestingContext{MockTime: &testNow},
		Tenant:           testTenant(),
		Principal: &tenants.Principal{
			PrincipalID:      "nike",
			TenantID:         "wonder",
			Name:             "Nike",
			PlatformMappings: map[string]string{"mock": "adv-nike-1"},
		},
	}
}

func anonymousContext() *auth.ToolContext {
	return &auth.ToolContext{
		ContextID:        auth.NewContextID(),
		TenantID:         "wonder",
		PrincipalID:      "anonymous",
		RequestTimestamp: testNow,
		Testing:          &auth.TestingContext{MockTime: &testNow},
		Tenant:           testTenant(),
	}
}

// ── Request helpers ─────────────────────────────────────────────────────────

func nikeManifest() *adcp.BrandManifest {
	return &adcp.BrandManifest{Name: "Nike", Offering: "running shoes and athletic apparel"}
}

// createBuyRequest is a valid two-package buy: a named CTV line and an
// anonymous podcast line, flying for ten days starting in three days.
func createBuyRequest() *adcp.CreateMediaBuyRequest {
	start := testNow.Add(72 * time.Hour)
	return &adcp.CreateMediaBuyRequest{
		BuyerRef:      "nike-spring-26",
		BrandManifest: nikeManifest(),
		StartTime:     adcp.NewTimeOrASAP(start),
		EndTime:       adcp.NewTimestamp(start.Add(10 * 24 * time.Hour)),
		Budget:        &adcp.Budget{Total: 10000, Currency: "USD"},
		Packages: []adcp.Package{
			{BuyerRef: "pkg1", ProductID: "prod_ctv", PricingModel: adcp.PricingModelCPM, Budget: &adcp.Budget{Total: 6000}},
			{ProductID: "prod_podcast", PricingModel: adcp.PricingModelCPCV, Budget: &adcp.Budget{Total: 4000}},
		},
	}
}

// seedBuy plants a buy directly in the store, bypassing the handler.
func seedBuy(t *testing.T, f *fixture, buy mediabuys.MediaBuy, packages ...mediabuys.Package) {
	t.Helper()
	if err := f.buys.Create(context.Background(), &buy, packages); err != nil {
		t.Fatalf("seed buy %s: %v", buy.MediaBuyID, err)
	}
}

// seedCreative plants a stored creative owned by nike.
func seedCreative(t *testing.T, f *fixture, c creatives.Creative) {
	t.Helper()
	if c.TenantID == "" {
		c.TenantID = "wonder"
	}
	if c.PrincipalID == "" {
		c.PrincipalID = "nike"
	}
	if err := f.creatives.Create(context.Background(), &c); err != nil {
		t.Fatalf("seed creative %s: %v", c.CreativeID, err)
	}
}

// deliveredBuy is a ten-day flight centered on testNow: five days in,
// five to go, owned by nike.
func deliveredBuy() (mediabuys.MediaBuy, []mediabuys.Package) {
	buy := mediabuys.MediaBuy{
		MediaBuyID:     "mb_42",
		TenantID:       "wonder",
		PrincipalID:    "nike",
		BuyerRef:       "nike-flight-42",
		Status:         mediabuys.StatusActive,
		StartTime:      testNow.Add(-5 * 24 * time.Hour),
		EndTime:        testNow.Add(5 * 24 * time.Hour),
		BudgetTotal:    10000,
		BudgetCurrency: "USD",
	}
	packages := []mediabuys.Package{
		{PackageID: "pkg_1", ProductID: "prod_ctv", PricingModel: adcp.PricingModelCPM, BudgetTotal: 6000, BudgetCurrency: "USD", Active: true},
		{PackageID: "pkg_2", BuyerRef: "audio-line", ProductID: "prod_podcast", PricingModel: adcp.PricingModelCPCV, BudgetTotal: 4000, BudgetCurrency: "USD", Active: true},
	}
	return buy, packages
}

func findResult(results []adcp.SyncCreativeResult, creativeID string) *adcp.SyncCreativeResult {
	for i := range results {
		if results[i].CreativeID == creativeID {
			return &results[i]
		}
	}
	return nil
}
