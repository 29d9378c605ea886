package skills

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/adapters"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/catalog"
	"github.com/adcontexthq/salesagent/internal/mediabuys"
)

// CreateMediaBuy validates a buy, screens it, and either creates it on
// the platform or holds it for manual approval.
func (s *Service) CreateMediaBuy(ctx context.Context, tc *auth.ToolContext, req *adcp.CreateMediaBuyRequest) (*Outcome, error) {
	errs := req.Normalize()
	errs = append(errs, req.ValidateSchedule(tc.Now())...)
	if adcp.HasBlocking(errs) {
		return failed(&adcp.CreateMediaBuyResponse{Errors: errs}), nil
	}
	if perr := s.screen(ctx, tc, "", req.BrandManifest); perr != nil {
		return failed(&adcp.CreateMediaBuyResponse{Errors: []adcp.Error{*perr}}), nil
	}

	adapter, err := s.adapters.For(tc.Tenant.AdServer)
	if err != nil {
		return nil, err
	}

	now := tc.Now()
	start := req.StartTime.Time()
	if req.StartTime.IsASAP() {
		start = now
	}
	end := req.EndTime.Time()
	total, currency := req.Budget.Amount(req.Currency)

	buy := &mediabuys.MediaBuy{
		MediaBuyID:     "mb_" + uuid.NewString()[:8],
		TenantID:       tc.TenantID,
		PrincipalID:    tc.PrincipalID,
		BuyerRef:       req.BuyerRef,
		BrandManifest:  req.BrandManifest,
		PONumber:       req.PONumber,
		StartTime:      start,
		EndTime:        end,
		BudgetTotal:    total,
		BudgetCurrency: currency,
		Pacing:         req.Budget.Pacing,
	}
	deadline := start.Add(-creativeDeadlineLead)
	if deadline.Before(now) {
		deadline = now
	}
	buy.CreativeDeadline = &deadline

	packages, results, pkgErrs, err := s.buildPackages(ctx, tc, adapter, req, currency)
	if err != nil {
		return nil, err
	}
	if adcp.HasBlocking(pkgErrs) {
		return failed(&adcp.CreateMediaBuyResponse{Errors: pkgErrs}), nil
	}

	if hold, reason := s.needsApproval(tc, adapter, buy); hold {
		buy.Status = mediabuys.StatusPendingApproval
		buy.WorkflowStepID = "ws_" + uuid.NewString()[:8]
		if err := s.buys.Create(ctx, buy, packages); err != nil {
			return s.createError(err)
		}
		s.alert(ctx, tc.TenantID, "Media buy approval needed",
			fmt.Sprintf("Buy %s from %s needs review: %s", buy.MediaBuyID, tc.PrincipalID, reason))
		s.logger.Info("media buy held for approval",
			zap.String("media_buy_id", buy.MediaBuyID),
			zap.String("workflow_step_id", buy.WorkflowStepID),
			zap.String("reason", reason))

		resp := &adcp.CreateMediaBuyResponse{
			MediaBuyID:       buy.MediaBuyID,
			BuyerRef:         buy.BuyerRef,
			Packages:         results,
			CreativeDeadline: buy.CreativeDeadline,
			WorkflowStepID:   buy.WorkflowStepID,
		}
		return &Outcome{Summary: resp.Summary(), Data: resp, State: StateSubmitted}, nil
	}

	created, err := adapter.CreateMediaBuy(ctx, &adapters.CreateMediaBuyRequest{
		MediaBuy: buy,
		Packages: packages,
		Account:  accountFor(tc),
		DryRun:   tc.DryRun(),
	})
	if err != nil {
		resp := &adcp.CreateMediaBuyResponse{Errors: []adcp.Error{{
			Code:     adcp.CodeAdapterError,
			Message:  "ad server rejected the media buy: " + err.Error(),
			Severity: adcp.SeverityError,
		}}}
		return failed(resp), nil
	}
	buy.Status = mediabuys.StatusActive
	buy.PlatformOrderID = created.PlatformOrderID
	for i := range packages {
		packages[i].PlatformLineItemID = created.LineItemIDs[packages[i].PackageID]
	}

	if err := s.buys.Create(ctx, buy, packages); err != nil {
		return s.createError(err)
	}

	resp := &adcp.CreateMediaBuyResponse{
		MediaBuyID:       buy.MediaBuyID,
		BuyerRef:         buy.BuyerRef,
		Packages:         results,
		CreativeDeadline: buy.CreativeDeadline,
	}
	return completed(resp), nil
}

// buildPackages resolves products, enforces pricing support, and assigns
// package ids (echoing buyer_ref when present, else pkg_<n>).
func (s *Service) buildPackages(ctx context.Context, tc *auth.ToolContext, adapter adapters.Adapter, req *adcp.CreateMediaBuyRequest, currency string) ([]mediabuys.Package, []adcp.PackageResult, []adcp.Error, error) {
	var (
		packages []mediabuys.Package
		results  []adcp.PackageResult
		errs     []adcp.Error
	)
	supported := make(map[string]bool)
	for _, m := range adapter.SupportedPricingModels() {
		supported[m] = true
	}

	for i, pkg := range req.Packages {
		product, err := s.products.GetProduct(ctx, tc.TenantID, pkg.ProductID)
		if errors.Is(err, catalog.ErrProductNotFound) {
			errs = append(errs, adcp.Error{
				Code:     adcp.CodeProductNotFound,
				Message:  fmt.Sprintf("product %q not found", pkg.ProductID),
				Severity: adcp.SeverityError,
				Field:    fmt.Sprintf("packages[%d].product_id", i),
			})
			continue
		}
		if err != nil {
			return nil, nil, nil, err
		}

		model := pkg.PricingModel
		if model == "" {
			if models := product.PricingModels(); len(models) > 0 {
				model = models[0]
			} else {
				model = adcp.PricingModelCPM
			}
		}
		if !productSells(product, model) || !supported[model] {
			errs = append(errs, adcp.Error{
				Code: adcp.CodePricingModelUnsupported,
				Message: fmt.Sprintf("pricing model %q is not available for product %q",
					model, pkg.ProductID),
				Severity: adcp.SeverityError,
				Field:    fmt.Sprintf("packages[%d].pricing_model", i),
			})
			continue
		}

		packageID := pkg.BuyerRef
		if packageID == "" {
			packageID = fmt.Sprintf("pkg_%d", i+1)
		}
		pkgTotal, pkgCurrency := pkg.Budget.Amount(currency)
		active := true
		if pkg.Active != nil {
			active = *pkg.Active
		}

		packages = append(packages, mediabuys.Package{
			PackageID:        packageID,
			BuyerRef:         pkg.BuyerRef,
			ProductID:        pkg.ProductID,
			PricingModel:     model,
			BudgetTotal:      pkgTotal,
			BudgetCurrency:   pkgCurrency,
			TargetingOverlay: pkg.TargetingOverlay,
			CreativeIDs:      pkg.CreativeIDs,
			Active:           active,
		})
		results = append(results, adcp.PackageResult{
			PackageID: packageID,
			BuyerRef:  pkg.BuyerRef,
			ProductID: pkg.ProductID,
		})
	}
	return packages, results, errs, nil
}

// needsApproval decides whether a buy is held for a human. Tenants can
// force review on everything; adapters can demand it; and buys whose
// daily spend exceeds the tenant cap are always held.
func (s *Service) needsApproval(tc *auth.ToolContext, adapter adapters.Adapter, buy *mediabuys.MediaBuy) (bool, string) {
	if tc.Tenant.HumanReview {
		return true, "tenant requires human review on all media buys"
	}
	if adapter.RequiresManualApproval() {
		return true, "ad server requires manual approval"
	}
	if limit := tc.Tenant.MaxDailyBudget; limit > 0 {
		days := math.Ceil(buy.EndTime.Sub(buy.StartTime).Hours() / 24)
		if days < 1 {
			days = 1
		}
		if daily := buy.BudgetTotal / days; daily > limit {
			return true, fmt.Sprintf("daily budget %.2f exceeds the %.2f cap", daily, limit)
		}
	}
	return false, ""
}

func (s *Service) createError(err error) (*Outcome, error) {
	if errors.Is(err, mediabuys.ErrBuyerRefExists) {
		return failed(&adcp.CreateMediaBuyResponse{Errors: []adcp.Error{
			adcp.ValidationError("buyer_ref", "buyer_ref is already in use"),
		}}), nil
	}
	return nil, err
}

// UpdateMediaBuy applies buy-level and package-level changes.
func (s *Service) UpdateMediaBuy(ctx context.Context, tc *auth.ToolContext, req *adcp.UpdateMediaBuyRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.UpdateMediaBuyResponse{Errors: errs}), nil
	}

	buy, err := s.resolveOwnedBuy(ctx, tc, req.MediaBuyID, req.BuyerRef)
	if err != nil {
		return failed(&adcp.UpdateMediaBuyResponse{
			MediaBuyID: req.MediaBuyID,
			BuyerRef:   req.BuyerRef,
			Errors:     []adcp.Error{notFoundError(req.MediaBuyID, req.BuyerRef)},
		}), nil
	}

	now := tc.Now()
	var affected []string
	var errs []adcp.Error

	if req.Active != nil {
		if *req.Active {
			buy.Status = mediabuys.StatusActive
		} else {
			buy.Status = mediabuys.StatusPaused
		}
	}
	if req.StartTime != nil {
		if req.StartTime.IsASAP() {
			buy.StartTime = now
		} else {
			buy.StartTime = req.StartTime.Time()
		}
	}
	if req.EndTime != nil {
		buy.EndTime = req.EndTime.Time()
	}
	if !buy.EndTime.After(buy.StartTime) {
		return failed(&adcp.UpdateMediaBuyResponse{
			MediaBuyID: buy.MediaBuyID,
			Errors:     []adcp.Error{adcp.ValidationError("end_time", "end_time must be after start_time")},
		}), nil
	}
	if req.Budget != nil {
		buy.BudgetTotal, buy.BudgetCurrency = req.Budget.Amount(buy.BudgetCurrency)
		if req.Budget.Pacing != "" {
			buy.Pacing = req.Budget.Pacing
		}
	}

	stored, err := s.buys.GetPackages(ctx, tc.TenantID, buy.MediaBuyID)
	if err != nil {
		return nil, err
	}
	for i, upd := range req.Packages {
		target := matchPackage(stored, &upd)
		if target == nil {
			errs = append(errs, adcp.ValidationError(
				fmt.Sprintf("packages[%d]", i), "package %q not found in media buy %s",
				firstNonEmpty(upd.PackageID, upd.BuyerRef), buy.MediaBuyID))
			continue
		}
		if upd.Active != nil {
			target.Active = *upd.Active
		}
		if upd.Budget != nil {
			target.BudgetTotal, target.BudgetCurrency = upd.Budget.Amount(target.BudgetCurrency)
		}
		if upd.TargetingOverlay != nil {
			target.TargetingOverlay = upd.TargetingOverlay
		}
		if upd.CreativeIDs != nil {
			missing, err := s.missingCreatives(ctx, tc, upd.CreativeIDs)
			if err != nil {
				return nil, err
			}
			if len(missing) > 0 {
				errs = append(errs, adcp.ValidationError(
					fmt.Sprintf("packages[%d].creative_ids", i),
					"unknown creative ids: %v", missing))
				continue
			}
			target.CreativeIDs = upd.CreativeIDs
		}
		if err := s.buys.UpdatePackage(ctx, target); err != nil {
			return nil, err
		}
		affected = append(affected, target.PackageID)
	}

	adapter, err := s.adapters.For(tc.Tenant.AdServer)
	if err != nil {
		return nil, err
	}
	if err := adapter.UpdateMediaBuy(ctx, &adapters.UpdateMediaBuyRequest{
		MediaBuy: buy,
		Packages: stored,
		Account:  accountFor(tc),
		DryRun:   tc.DryRun(),
	}); err != nil {
		return failed(&adcp.UpdateMediaBuyResponse{
			MediaBuyID: buy.MediaBuyID,
			Errors: []adcp.Error{{
				Code:     adcp.CodeAdapterError,
				Message:  "ad server rejected the update: " + err.Error(),
				Severity: adcp.SeverityError,
			}},
		}), nil
	}
	if err := s.buys.Update(ctx, buy); err != nil {
		return nil, err
	}

	resp := &adcp.UpdateMediaBuyResponse{
		MediaBuyID:         buy.MediaBuyID,
		BuyerRef:           buy.BuyerRef,
		ImplementationDate: &now,
		AffectedPackages:   affected,
		Errors:             errs,
	}
	return completed(resp), nil
}

// GetMediaBuyDelivery reports delivery for the addressed buys, or every
// buy the principal owns when none are named.
func (s *Service) GetMediaBuyDelivery(ctx context.Context, tc *auth.ToolContext, req *adcp.GetMediaBuyDeliveryRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.GetMediaBuyDeliveryResponse{Errors: errs}), nil
	}

	buys, err := s.buys.List(ctx, tc.TenantID, tc.PrincipalID, req.MediaBuyIDs, req.BuyerRefs)
	if err != nil {
		return nil, err
	}

	// Foreign buys fold into "not found" so ids cannot be probed.
	owned := buys[:0]
	seen := make(map[string]bool)
	for _, b := range buys {
		if !b.OwnedBy(tc.PrincipalID) {
			continue
		}
		owned = append(owned, b)
		seen[b.MediaBuyID] = true
		seen[b.BuyerRef] = true
	}

	resp := &adcp.GetMediaBuyDeliveryResponse{Currency: "USD"}
	for _, ref := range append(append([]string{}, req.MediaBuyIDs...), req.BuyerRefs...) {
		if !seen[ref] {
			resp.Errors = append(resp.Errors, notFoundError(ref, ""))
		}
	}

	now := tc.Now()
	adapter, err := s.adapters.For(tc.Tenant.AdServer)
	if err != nil {
		return nil, err
	}

	var earliest time.Time
	var aggregate adcp.DeliveryTotals
	for i := range owned {
		buy := &owned[i]
		packages, err := s.buys.GetPackages(ctx, tc.TenantID, buy.MediaBuyID)
		if err != nil {
			return nil, err
		}
		report, err := adapter.Delivery(ctx, &adapters.DeliveryRequest{
			MediaBuy: buy,
			Packages: packages,
			Account:  accountFor(tc),
			AsOf:     now,
		})
		if err != nil {
			resp.Errors = append(resp.Errors, adcp.Error{
				Code:     adcp.CodeAdapterError,
				Message:  fmt.Sprintf("delivery unavailable for %s: %v", buy.MediaBuyID, err),
				Severity: adcp.SeverityWarning,
			})
			continue
		}

		delivery := adcp.MediaBuyDelivery{
			MediaBuyID: buy.MediaBuyID,
			BuyerRef:   buy.BuyerRef,
			Status:     buy.DeliveryStatus(now),
			Totals:     report.Totals,
		}
		fraction := buy.FlightFraction(now)
		for _, p := range packages {
			totals := report.ByPackage[p.PackageID]
			pd := adcp.PackageDelivery{
				PackageID:   p.PackageID,
				BuyerRef:    p.BuyerRef,
				Impressions: totals.Impressions,
				Spend:       totals.Spend,
			}
			if expected := p.BudgetTotal * fraction; expected > 0 {
				pd.Pacing = totals.Spend / expected
			}
			delivery.ByPackage = append(delivery.ByPackage, pd)
		}
		resp.MediaBuyDeliveries = append(resp.MediaBuyDeliveries, delivery)
		aggregate.Impressions += report.Totals.Impressions
		aggregate.Spend += report.Totals.Spend
		aggregate.Clicks += report.Totals.Clicks
		aggregate.VideoCompletions += report.Totals.VideoCompletions
		if buy.BudgetCurrency != "" {
			resp.Currency = buy.BudgetCurrency
		}
		if earliest.IsZero() || buy.StartTime.Before(earliest) {
			earliest = buy.StartTime
		}
	}
	if len(resp.MediaBuyDeliveries) > 0 {
		resp.AggregatedTotals = &aggregate
	}
	if !earliest.IsZero() {
		resp.ReportingPeriod = &adcp.ReportingPeriod{Start: earliest, End: now}
	}
	return completed(resp), nil
}

// UpdatePerformanceIndex records buyer-reported performance scores.
func (s *Service) UpdatePerformanceIndex(ctx context.Context, tc *auth.ToolContext, req *adcp.UpdatePerformanceIndexRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.UpdatePerformanceIndexResponse{Status: "failed", Errors: errs}), nil
	}

	buy, err := s.resolveOwnedBuy(ctx, tc, req.MediaBuyID, req.BuyerRef)
	if err != nil {
		return failed(&adcp.UpdatePerformanceIndexResponse{
			Status: "failed",
			Errors: []adcp.Error{notFoundError(req.MediaBuyID, req.BuyerRef)},
		}), nil
	}

	var errs []adcp.Error
	matched := 0
	for i, d := range req.PerformanceData {
		ok, err := s.buys.UpdatePerformance(ctx, tc.TenantID, buy.MediaBuyID,
			d.PackageID, d.ProductID, d.PerformanceIndex, d.MetricType)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs = append(errs, adcp.ValidationError(
				fmt.Sprintf("performance_data[%d]", i),
				"no package matches %q", firstNonEmpty(d.PackageID, d.ProductID)))
			continue
		}
		matched++
	}

	status := "accepted"
	state := StateCompleted
	if matched == 0 {
		status = "failed"
		state = StateFailed
	}
	resp := &adcp.UpdatePerformanceIndexResponse{Status: status, Errors: errs}
	return &Outcome{Summary: resp.Summary(), Data: resp, State: state}, nil
}

// resolveOwnedBuy loads a buy and verifies the caller may act on it.
// Ownership failures surface as not-found upstream.
func (s *Service) resolveOwnedBuy(ctx context.Context, tc *auth.ToolContext, mediaBuyID, buyerRef string) (*mediabuys.MediaBuy, error) {
	buy, err := s.buys.Resolve(ctx, tc.TenantID, mediaBuyID, buyerRef)
	if err != nil {
		return nil, err
	}
	if !buy.OwnedBy(tc.PrincipalID) {
		return nil, mediabuys.ErrMediaBuyNotFound
	}
	return buy, nil
}

// missingCreatives returns the requested ids absent from the principal's
// library.
func (s *Service) missingCreatives(ctx context.Context, tc *auth.ToolContext, ids []string) ([]string, error) {
	found, err := s.creatives.GetByIDs(ctx, tc.TenantID, tc.PrincipalID, ids)
	if err != nil {
		return nil, err
	}
	var missing []string
	for _, id := range ids {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// accountFor returns the principal's advertiser id on the tenant's ad
// server, empty when unmapped.
func accountFor(tc *auth.ToolContext) string {
	if tc.Principal == nil || tc.Tenant == nil {
		return ""
	}
	id, _ := tc.Principal.AdapterAccount(tc.Tenant.AdServer)
	return id
}

func matchPackage(stored []mediabuys.Package, upd *adcp.Package) *mediabuys.Package {
	for i := range stored {
		if upd.PackageID != "" && (stored[i].PackageID == upd.PackageID || stored[i].BuyerRef == upd.PackageID) {
			return &stored[i]
		}
		if upd.BuyerRef != "" && (stored[i].BuyerRef == upd.BuyerRef || stored[i].PackageID == upd.BuyerRef) {
			return &stored[i]
		}
	}
	return nil
}

func productSells(p *adcp.Product, model string) bool {
	models := p.PricingModels()
	if len(models) == 0 {
		return model == adcp.PricingModelCPM
	}
	for _, m := range models {
		if m == model {
			return true
		}
	}
	return false
}

func notFoundError(mediaBuyID, buyerRef string) adcp.Error {
	return adcp.Error{
		Code:     adcp.CodeMediaBuyNotFound,
		Message:  fmt.Sprintf("media buy %q not found", firstNonEmpty(mediaBuyID, buyerRef)),
		Severity: adcp.SeverityError,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
