package adapters

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"

	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// MockAdapter simulates an ad server. Creation hands out deterministic
// platform ids; delivery follows the flight window so repeated reads of
// the same buy at the same instant agree.
type MockAdapter struct {
	manualApproval bool
	logger         *zap.Logger
}

// NewMockAdapter builds the simulator. manualApproval forces every buy
// through the human-review hold, mimicking platforms that gate creation.
func NewMockAdapter(manualApproval bool, logger *zap.Logger) *MockAdapter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MockAdapter{manualApproval: manualApproval, logger: logger}
}

func (m *MockAdapter) Name() string { return "mock" }

func (m *MockAdapter) SupportedPricingModels() []string {
	return []string{
		adcp.PricingModelCPM,
		adcp.PricingModelCPCV,
		adcp.PricingModelFlatRate,
	}
}

func (m *MockAdapter) RequiresManualApproval() bool { return m.manualApproval }

func (m *MockAdapter) CreateMediaBuy(_ context.Context, req *CreateMediaBuyRequest) (*CreateMediaBuyResult, error) {
	buy := req.MediaBuy
	if req.DryRun {
		m.logger.Info("would create media buy",
			zap.String("media_buy_id", buy.MediaBuyID),
			zap.String("account", req.Account),
			zap.Int("packages", len(req.Packages)))
	} else {
		m.logger.Info("created media buy",
			zap.String("media_buy_id", buy.MediaBuyID),
			zap.String("account", req.Account),
			zap.Int("packages", len(req.Packages)))
	}

	result := &CreateMediaBuyResult{
		PlatformOrderID: "mock_order_" + buy.MediaBuyID,
		LineItemIDs:     make(map[string]string, len(req.Packages)),
	}
	for _, p := range req.Packages {
		result.LineItemIDs[p.PackageID] = fmt.Sprintf("mock_li_%s_%s", buy.MediaBuyID, p.PackageID)
	}
	return result, nil
}

func (m *MockAdapter) UpdateMediaBuy(_ context.Context, req *UpdateMediaBuyRequest) error {
	verb := "updated"
	if req.DryRun {
		verb = "would update"
	}
	m.logger.Info(verb+" media buy",
		zap.String("media_buy_id", req.MediaBuy.MediaBuyID),
		zap.String("account", req.Account),
		zap.Int("packages", len(req.Packages)))
	return nil
}

func (m *MockAdapter) AddCreatives(_ context.Context, req *AddCreativesRequest) (map[string]string, error) {
	out := make(map[string]string, len(req.CreativeIDs))
	for _, id := range req.CreativeIDs {
		out[id] = "mock_creative_" + id
	}
	verb := "uploaded"
	if req.DryRun {
		verb = "would upload"
	}
	m.logger.Info(verb+" creatives",
		zap.String("media_buy_id", req.MediaBuy.MediaBuyID),
		zap.Int("count", len(req.CreativeIDs)))
	return out, nil
}

// Delivery simulates metrics from the flight window. Spend tracks elapsed
// flight time; impressions derive from a CPM seeded per buy so rereads
// are stable.
func (m *MockAdapter) Delivery(_ context.Context, req *DeliveryRequest) (*DeliveryReport, error) {
	buy := req.MediaBuy
	fraction := buy.FlightFraction(req.AsOf)

	report := &DeliveryReport{
		ByPackage: make(map[string]adcp.DeliveryTotals, len(req.Packages)),
	}
	for _, p := range req.Packages {
		if !p.Active && fraction < 1 {
			report.ByPackage[p.PackageID] = adcp.DeliveryTotals{}
			continue
		}
		spend := round2(p.BudgetTotal * fraction)
		cpm := seededCPM(buy.MediaBuyID + p.PackageID)
		impressions := math.Floor(spend / cpm * 1000)
		totals := adcp.DeliveryTotals{
			Impressions: impressions,
			Spend:       spend,
			Clicks:      math.Floor(impressions / 500),
		}
		if p.PricingModel == adcp.PricingModelCPCV || p.PricingModel == adcp.PricingModelVCPM {
			totals.VideoCompletions = math.Floor(impressions * 0.7)
		}
		report.ByPackage[p.PackageID] = totals
		report.Totals.Impressions += totals.Impressions
		report.Totals.Spend = round2(report.Totals.Spend + totals.Spend)
		report.Totals.Clicks += totals.Clicks
		report.Totals.VideoCompletions += totals.VideoCompletions
	}
	return report, nil
}

// seededCPM maps an id onto a stable rate between 8 and 24 dollars.
func seededCPM(id string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return 8 + float64(h.Sum32()%1600)/100
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
