package skills_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
	"github.com/adcontexthq/salesagent/internal/skills"
	"github.com/adcontexthq/salesagent/internal/tenants"
)

func boolPtr(b bool) *bool { return &b }

func hasErrorField(errs []adcp.Error, field string) bool {
	for _, e := range errs {
		if e.Field == field {
			return true
		}
	}
	return false
}

func hasErrorCode(errs []adcp.Error, code string) bool {
	for _, e := range errs {
		if e.Code == code {
			return true
		}
	}
	return false
}

// ── create_media_buy ────────────────────────────────────────────────────────

func TestCreateMediaBuy_success(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.svc.CreateMediaBuy(ctx, buyerContext(), createBuyRequest())
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q, want %q", out.State, skills.StateCompleted)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !strings.HasPrefix(resp.MediaBuyID, "mb_") {
		t.Errorf("media_buy_id = %q, want mb_ prefix", resp.MediaBuyID)
	}
	if resp.BuyerRef != "nike-spring-26" {
		t.Errorf("buyer_ref = %q", resp.BuyerRef)
	}
	if resp.WorkflowStepID != "" {
		t.Errorf("workflow_step_id = %q, want empty on auto-approved buy", resp.WorkflowStepID)
	}
	if len(resp.Packages) != 2 {
		t.Fatalf("packages = %d, want 2", len(resp.Packages))
	}
	if resp.Packages[0].PackageID != "pkg1" {
		t.Errorf("packages[0].package_id = %q, want buyer_ref echo", resp.Packages[0].PackageID)
	}
	if resp.Packages[1].PackageID != "pkg_2" {
		t.Errorf("packages[1].package_id = %q, want positional pkg_2", resp.Packages[1].PackageID)
	}

	wantDeadline := testNow.Add(72*time.Hour - 48*time.Hour)
	if resp.CreativeDeadline == nil || !resp.CreativeDeadline.Equal(wantDeadline) {
		t.Errorf("creative_deadline = %v, want %v", resp.CreativeDeadline, wantDeadline)
	}

	buy, err := f.buys.Resolve(ctx, "wonder", resp.MediaBuyID, "")
	if err != nil {
		t.Fatalf("Resolve stored buy: %v", err)
	}
	if buy.Status != mediabuys.StatusActive {
		t.Errorf("stored status = %q, want active", buy.Status)
	}
	if buy.PlatformOrderID != "mock_order_"+buy.MediaBuyID {
		t.Errorf("platform_order_id = %q", buy.PlatformOrderID)
	}
	if buy.PrincipalID != "nike" {
		t.Errorf("principal_id = %q", buy.PrincipalID)
	}

	packages, err := f.buys.GetPackages(ctx, "wonder", buy.MediaBuyID)
	if err != nil {
		t.Fatalf("GetPackages: %v", err)
	}
	if len(packages) != 2 {
		t.Fatalf("stored packages = %d, want 2", len(packages))
	}
	if packages[0].PlatformLineItemID != "mock_li_"+buy.MediaBuyID+"_pkg1" {
		t.Errorf("packages[0].platform_line_item_id = %q", packages[0].PlatformLineItemID)
	}
	if packages[0].BudgetTotal != 6000 || packages[0].BudgetCurrency != "USD" {
		t.Errorf("packages[0] budget = %v %s", packages[0].BudgetTotal, packages[0].BudgetCurrency)
	}
	if !packages[0].Active || !packages[1].Active {
		t.Error("packages should default to active")
	}
}

func TestCreateMediaBuy_asapStartsNow(t *testing.T) {
	f := newFixture(t)
	req := createBuyRequest()
	req.StartTime = adcp.ASAPTime()
	req.EndTime = adcp.NewTimestamp(testNow.Add(10 * 24 * time.Hour))

	out, err := f.svc.CreateMediaBuy(context.Background(), buyerContext(), req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)

	buy, err := f.buys.Resolve(context.Background(), "wonder", resp.MediaBuyID, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if !buy.StartTime.Equal(testNow) {
		t.Errorf("start_time = %v, want request clock %v", buy.StartTime, testNow)
	}
	// The 48h lead would land before now, so the deadline clamps to now.
	if resp.CreativeDeadline == nil || !resp.CreativeDeadline.Equal(testNow) {
		t.Errorf("creative_deadline = %v, want clamped to %v", resp.CreativeDeadline, testNow)
	}
}

func TestCreateMediaBuy_pastStartRejected(t *testing.T) {
	f := newFixture(t)
	req := createBuyRequest()
	req.StartTime = adcp.NewTimeOrASAP(testNow.Add(-time.Hour))

	out, err := f.svc.CreateMediaBuy(context.Background(), buyerContext(), req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !hasErrorField(resp.Errors, "start_time") {
		t.Errorf("errors = %+v, want start_time validation", resp.Errors)
	}
	if buys, _ := f.buys.List(context.Background(), "wonder", "nike", nil, nil); len(buys) != 0 {
		t.Errorf("stored buys = %d, want none", len(buys))
	}
}

func TestCreateMediaBuy_unknownProduct(t *testing.T) {
	f := newFixture(t)
	req := createBuyRequest()
	req.Packages = []adcp.Package{{ProductID: "prod_ghost", Budget: &adcp.Budget{Total: 1000}}}

	out, err := f.svc.CreateMediaBuy(context.Background(), buyerContext(), req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !hasErrorCode(resp.Errors, adcp.CodeProductNotFound) {
		t.Errorf("errors = %+v, want product_not_found", resp.Errors)
	}
	if !hasErrorField(resp.Errors, "packages[0].product_id") {
		t.Errorf("errors = %+v, want packages[0].product_id field", resp.Errors)
	}
}

func TestCreateMediaBuy_pricingModelUnsupported(t *testing.T) {
	f := newFixture(t)
	req := createBuyRequest()
	// prod_ctv sells cpm only.
	req.Packages = []adcp.Package{{ProductID: "prod_ctv", PricingModel: adcp.PricingModelCPCV, Budget: &adcp.Budget{Total: 1000}}}

	out, err := f.svc.CreateMediaBuy(context.Background(), buyerContext(), req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !hasErrorCode(resp.Errors, adcp.CodePricingModelUnsupported) {
		t.Errorf("errors = %+v, want pricing_model_unsupported", resp.Errors)
	}
}

func TestCreateMediaBuy_defaultPricingModel(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := createBuyRequest()
	// prod_run_of_site publishes no pricing options; cpm is the default.
	req.Packages = []adcp.Package{{ProductID: "prod_run_of_site", Budget: &adcp.Budget{Total: 1000}}}

	out, err := f.svc.CreateMediaBuy(ctx, buyerContext(), req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	packages, _ := f.buys.GetPackages(ctx, "wonder", resp.MediaBuyID)
	if len(packages) != 1 || packages[0].PricingModel != adcp.PricingModelCPM {
		t.Errorf("stored pricing model = %+v, want cpm", packages)
	}
}

func TestCreateMediaBuy_humanReviewHold(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tc := buyerContext()
	tc.Tenant.HumanReview = true

	out, err := f.svc.CreateMediaBuy(ctx, tc, createBuyRequest())
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateSubmitted {
		t.Fatalf("state = %q, want submitted", out.State)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !strings.HasPrefix(resp.WorkflowStepID, "ws_") {
		t.Errorf("workflow_step_id = %q, want ws_ prefix", resp.WorkflowStepID)
	}

	buy, err := f.buys.Resolve(ctx, "wonder", resp.MediaBuyID, "")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if buy.Status != mediabuys.StatusPendingApproval {
		t.Errorf("status = %q, want pending_approval", buy.Status)
	}
	if buy.PlatformOrderID != "" {
		t.Errorf("platform_order_id = %q, want empty before approval", buy.PlatformOrderID)
	}
	titles := f.notifier.sent()
	if len(titles) == 0 || titles[0] != "Media buy approval needed" {
		t.Errorf("notifications = %v, want approval alert", titles)
	}
}

func TestCreateMediaBuy_dailyBudgetCapHold(t *testing.T) {
	f := newFixture(t)
	tc := buyerContext()
	tc.Tenant.MaxDailyBudget = 500 // 10000 over 10 days = 1000/day

	out, err := f.svc.CreateMediaBuy(context.Background(), tc, createBuyRequest())
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateSubmitted {
		t.Fatalf("state = %q, want submitted", out.State)
	}
	f.notifier.mu.Lock()
	texts := strings.Join(f.notifier.texts, "\n")
	f.notifier.mu.Unlock()
	if !strings.Contains(texts, "daily budget") {
		t.Errorf("notification text = %q, want daily budget reason", texts)
	}
}

func TestCreateMediaBuy_duplicateBuyerRef(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if out, err := f.svc.CreateMediaBuy(ctx, buyerContext(), createBuyRequest()); err != nil || out.State != skills.StateCompleted {
		t.Fatalf("first create: state=%v err=%v", out, err)
	}
	out, err := f.svc.CreateMediaBuy(ctx, buyerContext(), createBuyRequest())
	if err != nil {
		t.Fatalf("second create: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed on duplicate buyer_ref", out.State)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !hasErrorField(resp.Errors, "buyer_ref") {
		t.Errorf("errors = %+v, want buyer_ref conflict", resp.Errors)
	}
}

func TestCreateMediaBuy_policyEnforceBlocks(t *testing.T) {
	f := newFixture(t)
	req := createBuyRequest()
	req.BrandManifest = &adcp.BrandManifest{
		Name:     "SmokeCo",
		Offering: "tobacco cigarette vaping firearm accessories",
	}

	out, err := f.svc.CreateMediaBuy(context.Background(), buyerContext(), req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed under enforce", out.State)
	}
	resp := out.Data.(*adcp.CreateMediaBuyResponse)
	if !hasErrorCode(resp.Errors, adcp.CodePolicyViolation) {
		t.Errorf("errors = %+v, want policy_violation", resp.Errors)
	}
	if buys, _ := f.buys.List(context.Background(), "wonder", "nike", nil, nil); len(buys) != 0 {
		t.Errorf("stored buys = %d, want none", len(buys))
	}
	titles := f.notifier.sent()
	if len(titles) == 0 || titles[0] != "Policy violation" {
		t.Errorf("notifications = %v, want policy alert", titles)
	}
}

func TestCreateMediaBuy_policyObserveAllows(t *testing.T) {
	f := newFixture(t)
	tc := buyerContext()
	tc.Tenant.PolicyMode = tenants.PolicyModeObserve
	req := createBuyRequest()
	req.BrandManifest = &adcp.BrandManifest{
		Name:     "SmokeCo",
		Offering: "tobacco cigarette vaping firearm accessories",
	}

	out, err := f.svc.CreateMediaBuy(context.Background(), tc, req)
	if err != nil {
		t.Fatalf("CreateMediaBuy: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q, want completed under observe", out.State)
	}
	// The violation is still reported to ops, just not blocked.
	titles := f.notifier.sent()
	if len(titles) == 0 || titles[0] != "Policy violation" {
		t.Errorf("notifications = %v, want policy alert", titles)
	}
}

// ── update_media_buy ────────────────────────────────────────────────────────

func TestUpdateMediaBuy_pauseAndResume(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdateMediaBuy(ctx, buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		Active:     boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy pause: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if resp.ImplementationDate == nil || !resp.ImplementationDate.Equal(testNow) {
		t.Errorf("implementation_date = %v, want %v", resp.ImplementationDate, testNow)
	}
	stored, _ := f.buys.Resolve(ctx, "wonder", "mb_42", "")
	if stored.Status != mediabuys.StatusPaused {
		t.Errorf("status = %q, want paused", stored.Status)
	}
	if got := stored.DeliveryStatus(testNow); got != adcp.DeliveryStatusPaused {
		t.Errorf("delivery status = %q, want paused", got)
	}

	if _, err := f.svc.UpdateMediaBuy(ctx, buyerContext(), &adcp.UpdateMediaBuyRequest{
		BuyerRef: "nike-flight-42",
		Active:   boolPtr(true),
	}); err != nil {
		t.Fatalf("UpdateMediaBuy resume: %v", err)
	}
	stored, _ = f.buys.Resolve(ctx, "wonder", "mb_42", "")
	if stored.Status != mediabuys.StatusActive {
		t.Errorf("status after resume = %q, want active", stored.Status)
	}
}

func TestUpdateMediaBuy_packageChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdateMediaBuy(ctx, buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		Packages: []adcp.Package{
			{PackageID: "pkg_1", Budget: &adcp.Budget{Total: 7500}},
			{BuyerRef: "audio-line", Active: boolPtr(false)},
		},
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if len(resp.AffectedPackages) != 2 {
		t.Fatalf("affected = %v, want both packages", resp.AffectedPackages)
	}

	stored, _ := f.buys.GetPackages(ctx, "wonder", "mb_42")
	if stored[0].BudgetTotal != 7500 {
		t.Errorf("pkg_1 budget = %v, want 7500", stored[0].BudgetTotal)
	}
	if stored[1].Active {
		t.Error("pkg_2 should be paused via buyer_ref addressing")
	}
}

func TestUpdateMediaBuy_unknownPackage(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdateMediaBuy(context.Background(), buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		Packages:   []adcp.Package{{PackageID: "pkg_ghost", Active: boolPtr(false)}},
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if len(resp.AffectedPackages) != 0 {
		t.Errorf("affected = %v, want none", resp.AffectedPackages)
	}
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0].Message, "not found in media buy") {
		t.Errorf("errors = %+v, want unknown package error", resp.Errors)
	}
}

func TestUpdateMediaBuy_unknownCreativeIDs(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdateMediaBuy(context.Background(), buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		Packages:   []adcp.Package{{PackageID: "pkg_1", CreativeIDs: []string{"cr_ghost"}}},
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if len(resp.Errors) != 1 || !strings.Contains(resp.Errors[0].Message, "unknown creative ids") {
		t.Errorf("errors = %+v, want unknown creative ids", resp.Errors)
	}
	stored, _ := f.buys.GetPackages(context.Background(), "wonder", "mb_42")
	if len(stored[0].CreativeIDs) != 0 {
		t.Errorf("creative_ids = %v, want unchanged", stored[0].CreativeIDs)
	}
}

func TestUpdateMediaBuy_notFound(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.UpdateMediaBuy(context.Background(), buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_ghost",
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if !hasErrorCode(resp.Errors, adcp.CodeMediaBuyNotFound) {
		t.Errorf("errors = %+v, want media_buy_not_found", resp.Errors)
	}
}

func TestUpdateMediaBuy_foreignBuyHidden(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	buy.PrincipalID = "adidas"
	buy.BuyerRef = "adidas-flight-1"
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdateMediaBuy(context.Background(), buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		Active:     boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed for foreign buy", out.State)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if !hasErrorCode(resp.Errors, adcp.CodeMediaBuyNotFound) {
		t.Errorf("errors = %+v, want not-found masking", resp.Errors)
	}
}

func TestUpdateMediaBuy_adminActsOnAnyBuy(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	tc := buyerContext()
	tc.PrincipalID = "admin_wonder"
	tc.Principal = nil

	out, err := f.svc.UpdateMediaBuy(ctx, tc, &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		Active:     boolPtr(false),
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q, want completed for tenant admin", out.State)
	}
	stored, _ := f.buys.Resolve(ctx, "wonder", "mb_42", "")
	if stored.Status != mediabuys.StatusPaused {
		t.Errorf("status = %q, want paused", stored.Status)
	}
}

func TestUpdateMediaBuy_endBeforeStartRejected(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	end := adcp.NewTimestamp(buy.StartTime.Add(-time.Hour))
	out, err := f.svc.UpdateMediaBuy(context.Background(), buyerContext(), &adcp.UpdateMediaBuyRequest{
		MediaBuyID: "mb_42",
		EndTime:    &end,
	})
	if err != nil {
		t.Fatalf("UpdateMediaBuy: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	resp := out.Data.(*adcp.UpdateMediaBuyResponse)
	if !hasErrorField(resp.Errors, "end_time") {
		t.Errorf("errors = %+v, want end_time validation", resp.Errors)
	}
}

// ── get_media_buy_delivery ──────────────────────────────────────────────────

func TestGetMediaBuyDelivery_midFlight(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.GetMediaBuyDelivery(context.Background(), buyerContext(), &adcp.GetMediaBuyDeliveryRequest{})
	if err != nil {
		t.Fatalf("GetMediaBuyDelivery: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	resp := out.Data.(*adcp.GetMediaBuyDeliveryResponse)
	if len(resp.MediaBuyDeliveries) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(resp.MediaBuyDeliveries))
	}

	d := resp.MediaBuyDeliveries[0]
	if d.Status != adcp.DeliveryStatusDelivering {
		t.Errorf("status = %q, want delivering", d.Status)
	}
	// Half the flight has elapsed, so exactly half the budget is spent.
	if d.Totals.Spend != 5000.0 {
		t.Errorf("spend = %v, want 5000.0", d.Totals.Spend)
	}
	if len(d.ByPackage) != 2 {
		t.Fatalf("by_package = %d, want 2", len(d.ByPackage))
	}
	if d.ByPackage[0].Spend != 3000.0 {
		t.Errorf("pkg_1 spend = %v, want 3000.0", d.ByPackage[0].Spend)
	}
	if d.ByPackage[0].Pacing != 1.0 {
		t.Errorf("pkg_1 pacing = %v, want 1.0 on plan", d.ByPackage[0].Pacing)
	}

	if resp.AggregatedTotals == nil || resp.AggregatedTotals.Spend != 5000.0 {
		t.Errorf("aggregated totals = %+v, want spend 5000.0", resp.AggregatedTotals)
	}
	if resp.Currency != "USD" {
		t.Errorf("currency = %q", resp.Currency)
	}
	if resp.ReportingPeriod == nil || !resp.ReportingPeriod.Start.Equal(buy.StartTime) || !resp.ReportingPeriod.End.Equal(testNow) {
		t.Errorf("reporting period = %+v", resp.ReportingPeriod)
	}
}

func TestGetMediaBuyDelivery_foreignAndUnknownIDs(t *testing.T) {
	f := newFixture(t)
	mine, packages := deliveredBuy()
	seedBuy(t, f, mine, packages...)

	other, otherPackages := deliveredBuy()
	other.MediaBuyID = "mb_77"
	other.BuyerRef = "adidas-flight-7"
	other.PrincipalID = "adidas"
	seedBuy(t, f, other, otherPackages...)

	out, err := f.svc.GetMediaBuyDelivery(context.Background(), buyerContext(), &adcp.GetMediaBuyDeliveryRequest{
		MediaBuyIDs: []string{"mb_42", "mb_77", "mb_ghost"},
	})
	if err != nil {
		t.Fatalf("GetMediaBuyDelivery: %v", err)
	}
	resp := out.Data.(*adcp.GetMediaBuyDeliveryResponse)
	if len(resp.MediaBuyDeliveries) != 1 || resp.MediaBuyDeliveries[0].MediaBuyID != "mb_42" {
		t.Fatalf("deliveries = %+v, want only mb_42", resp.MediaBuyDeliveries)
	}
	if len(resp.Errors) != 2 {
		t.Fatalf("errors = %+v, want two not-found entries", resp.Errors)
	}
	for _, e := range resp.Errors {
		if e.Code != adcp.CodeMediaBuyNotFound {
			t.Errorf("error code = %q, want media_buy_not_found", e.Code)
		}
	}
}

func TestGetMediaBuyDelivery_pendingStart(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	buy.StartTime = testNow.Add(48 * time.Hour)
	buy.EndTime = testNow.Add(12 * 24 * time.Hour)
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.GetMediaBuyDelivery(context.Background(), buyerContext(), &adcp.GetMediaBuyDeliveryRequest{
		BuyerRefs: []string{"nike-flight-42"},
	})
	if err != nil {
		t.Fatalf("GetMediaBuyDelivery: %v", err)
	}
	resp := out.Data.(*adcp.GetMediaBuyDeliveryResponse)
	if len(resp.MediaBuyDeliveries) != 1 {
		t.Fatalf("deliveries = %d, want 1", len(resp.MediaBuyDeliveries))
	}
	d := resp.MediaBuyDeliveries[0]
	if d.Status != adcp.DeliveryStatusPendingStart {
		t.Errorf("status = %q, want pending_start", d.Status)
	}
	if d.Totals.Spend != 0 || d.Totals.Impressions != 0 {
		t.Errorf("totals = %+v, want zeros before flight", d.Totals)
	}
}

// ── update_performance_index ────────────────────────────────────────────────

func TestUpdatePerformanceIndex_accepted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdatePerformanceIndex(ctx, buyerContext(), &adcp.UpdatePerformanceIndexRequest{
		MediaBuyID: "mb_42",
		PerformanceData: []adcp.PerformanceData{
			{PackageID: "pkg_1", PerformanceIndex: 1.2},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePerformanceIndex: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	resp := out.Data.(*adcp.UpdatePerformanceIndexResponse)
	if resp.Status != "accepted" {
		t.Errorf("status = %q, want accepted", resp.Status)
	}

	stored, _ := f.buys.GetPackages(ctx, "wonder", "mb_42")
	if stored[0].PerformanceIndex == nil || *stored[0].PerformanceIndex != 1.2 {
		t.Errorf("performance index = %v, want 1.2", stored[0].PerformanceIndex)
	}
	if stored[0].MetricType != "overall" {
		t.Errorf("metric type = %q, want overall default", stored[0].MetricType)
	}
}

func TestUpdatePerformanceIndex_byProduct(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdatePerformanceIndex(ctx, buyerContext(), &adcp.UpdatePerformanceIndexRequest{
		BuyerRef: "nike-flight-42",
		PerformanceData: []adcp.PerformanceData{
			{ProductID: "prod_podcast", PerformanceIndex: 0.8, MetricType: "video_completion"},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePerformanceIndex: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	stored, _ := f.buys.GetPackages(ctx, "wonder", "mb_42")
	if stored[1].PerformanceIndex == nil || *stored[1].PerformanceIndex != 0.8 {
		t.Errorf("pkg_2 index = %v, want 0.8", stored[1].PerformanceIndex)
	}
	if stored[1].MetricType != "video_completion" {
		t.Errorf("metric type = %q", stored[1].MetricType)
	}
}

func TestUpdatePerformanceIndex_noMatchFails(t *testing.T) {
	f := newFixture(t)
	buy, packages := deliveredBuy()
	seedBuy(t, f, buy, packages...)

	out, err := f.svc.UpdatePerformanceIndex(context.Background(), buyerContext(), &adcp.UpdatePerformanceIndexRequest{
		MediaBuyID: "mb_42",
		PerformanceData: []adcp.PerformanceData{
			{PackageID: "pkg_ghost", PerformanceIndex: 1.1},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePerformanceIndex: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed when nothing matches", out.State)
	}
	resp := out.Data.(*adcp.UpdatePerformanceIndexResponse)
	if resp.Status != "failed" {
		t.Errorf("status = %q, want failed", resp.Status)
	}
	if len(resp.Errors) != 1 {
		t.Errorf("errors = %+v, want one no-match entry", resp.Errors)
	}
}
