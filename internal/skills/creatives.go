package skills

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/adapters"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/creatives"
)

// SyncCreatives upserts creatives, optionally assigns them to packages,
// and reports a per-creative action. Strict validation rejects the whole
// batch when any creative is invalid; lenient mode skips only the bad ones.
func (s *Service) SyncCreatives(ctx context.Context, tc *auth.ToolContext, req *adcp.SyncCreativesRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.SyncCreativesResponse{DryRun: req.DryRun, Errors: errs}), nil
	}
	dryRun := req.DryRun || tc.DryRun()
	resp := &adcp.SyncCreativesResponse{DryRun: dryRun}

	invalid := make(map[int][]adcp.Error)
	for i := range req.Creatives {
		if errs := req.Creatives[i].Validate(); len(errs) > 0 {
			invalid[i] = errs
		}
	}
	if len(invalid) > 0 && req.ValidationMode == adcp.ValidationModeStrict {
		for i := range req.Creatives {
			if errs, bad := invalid[i]; bad {
				resp.Creatives = append(resp.Creatives, adcp.SyncCreativeResult{
					CreativeID: req.Creatives[i].CreativeID,
					Action:     adcp.SyncActionFailed,
					Errors:     errs,
				})
			}
		}
		resp.Errors = append(resp.Errors, adcp.ValidationError("creatives",
			"%d creative(s) failed validation; strict mode synced nothing", len(invalid)))
		return failed(resp), nil
	}

	library, err := s.loadLibrary(ctx, tc, req)
	if err != nil {
		return nil, err
	}

	// Entries stay behind pointers until the end so the assignment and
	// upload phases can amend results made during the upsert phase.
	var ordered []*adcp.SyncCreativeResult
	results := make(map[string]*adcp.SyncCreativeResult)
	addResult := func(r adcp.SyncCreativeResult) *adcp.SyncCreativeResult {
		entry := &r
		ordered = append(ordered, entry)
		results[r.CreativeID] = entry
		return entry
	}

	pendingReview := 0
	for i := range req.Creatives {
		wire := &req.Creatives[i]
		if errs, bad := invalid[i]; bad {
			addResult(adcp.SyncCreativeResult{
				CreativeID: wire.CreativeID,
				Action:     adcp.SyncActionFailed,
				Errors:     errs,
			})
			continue
		}

		cur, exists := library[wire.CreativeID]
		switch {
		case !exists:
			model := creatives.FromWire(tc.TenantID, tc.PrincipalID, wire)
			model.Status = s.initialStatus(tc)
			if model.Status == creatives.StatusPendingReview {
				pendingReview++
			}
			if !dryRun {
				if err := s.creatives.Create(ctx, model); err != nil {
					return nil, err
				}
			}
			library[wire.CreativeID] = model
			addResult(adcp.SyncCreativeResult{
				CreativeID: wire.CreativeID,
				Action:     adcp.SyncActionCreated,
			})

		default:
			changes := cur.Diff(wire)
			if len(changes) == 0 {
				addResult(adcp.SyncCreativeResult{
					CreativeID: wire.CreativeID,
					Action:     adcp.SyncActionUnchanged,
					PlatformID: cur.PlatformID,
				})
				continue
			}
			cur.Apply(wire)
			if contentChanged(changes) {
				cur.Status = s.initialStatus(tc)
				cur.ReviewFeedback = ""
				if cur.Status == creatives.StatusPendingReview {
					pendingReview++
				}
			}
			if !dryRun {
				if err := s.creatives.Update(ctx, cur); err != nil {
					return nil, err
				}
			}
			addResult(adcp.SyncCreativeResult{
				CreativeID: wire.CreativeID,
				Action:     adcp.SyncActionUpdated,
				PlatformID: cur.PlatformID,
				Changes:    changes,
			})
		}
	}

	s.deleteMissing(ctx, tc, req, library, dryRun, addResult, resp)
	if err := s.applyAssignments(ctx, tc, req, library, dryRun, results, addResult, resp); err != nil {
		return nil, err
	}
	for _, entry := range ordered {
		resp.Creatives = append(resp.Creatives, *entry)
	}

	if pendingReview > 0 && !dryRun {
		s.alert(ctx, tc.TenantID, "Creatives pending review",
			fmt.Sprintf("%d creative(s) from %s await review.", pendingReview, tc.PrincipalID))
	}
	return completed(resp), nil
}

// loadLibrary fetches every stored creative this sync can touch: payload
// ids, assignment targets, and the delete_missing scope.
func (s *Service) loadLibrary(ctx context.Context, tc *auth.ToolContext, req *adcp.SyncCreativesRequest) (map[string]*creatives.Creative, error) {
	seen := make(map[string]bool)
	var ids []string
	add := func(id string) {
		if id != "" && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for i := range req.Creatives {
		add(req.Creatives[i].CreativeID)
	}
	for id := range req.Assignments {
		add(id)
	}
	for _, id := range req.CreativeIDs {
		add(id)
	}
	if len(ids) == 0 {
		return make(map[string]*creatives.Creative), nil
	}
	return s.creatives.GetByIDs(ctx, tc.TenantID, tc.PrincipalID, ids)
}

// initialStatus is the review state a new or materially-changed creative
// enters, honoring the tenant's auto-approve setting.
func (s *Service) initialStatus(tc *auth.ToolContext) string {
	if tc.Tenant != nil && tc.Tenant.AutoApproveFormats {
		return creatives.StatusApproved
	}
	return creatives.StatusPendingReview
}

// contentChanged reports whether a diff touches anything beyond the name.
// Renames keep the existing review state; content edits reset it.
func contentChanged(changes []string) bool {
	for _, c := range changes {
		if c != "name" {
			return true
		}
	}
	return false
}

// deleteMissing removes the creative_ids entries absent from the payload.
func (s *Service) deleteMissing(ctx context.Context, tc *auth.ToolContext, req *adcp.SyncCreativesRequest, library map[string]*creatives.Creative, dryRun bool, addResult func(adcp.SyncCreativeResult) *adcp.SyncCreativeResult, resp *adcp.SyncCreativesResponse) {
	if !req.DeleteMissing {
		return
	}
	inPayload := make(map[string]bool, len(req.Creatives))
	for i := range req.Creatives {
		inPayload[req.Creatives[i].CreativeID] = true
	}
	var doomed []string
	for _, id := range req.CreativeIDs {
		if inPayload[id] {
			continue
		}
		if _, exists := library[id]; !exists {
			continue
		}
		doomed = append(doomed, id)
	}
	if len(doomed) == 0 {
		return
	}
	if !dryRun {
		if _, err := s.creatives.Delete(ctx, tc.TenantID, tc.PrincipalID, doomed); err != nil {
			resp.Errors = append(resp.Errors, adcp.Error{
				Code:     adcp.CodeAdapterError,
				Message:  "delete failed: " + err.Error(),
				Severity: adcp.SeverityWarning,
			})
			return
		}
	}
	for _, id := range doomed {
		delete(library, id)
		addResult(adcp.SyncCreativeResult{CreativeID: id, Action: adcp.SyncActionDeleted})
	}
}

// applyAssignments binds creatives to packages and uploads newly-bound
// creatives to the ad server, package selectors resolving to the most
// recently created match.
func (s *Service) applyAssignments(ctx context.Context, tc *auth.ToolContext, req *adcp.SyncCreativesRequest, library map[string]*creatives.Creative, dryRun bool, results map[string]*adcp.SyncCreativeResult, addResult func(adcp.SyncCreativeResult) *adcp.SyncCreativeResult, resp *adcp.SyncCreativesResponse) error {
	if len(req.Assignments) == 0 {
		return nil
	}

	uploads := make(map[string][]string) // media_buy_id -> creative ids needing platform registration
	for creativeID, selectors := range req.Assignments {
		entry, ok := results[creativeID]
		if !ok {
			entry = addResult(adcp.SyncCreativeResult{
				CreativeID: creativeID,
				Action:     adcp.SyncActionUnchanged,
			})
		}
		model, exists := library[creativeID]
		if !exists {
			entry.Action = adcp.SyncActionFailed
			entry.Errors = append(entry.Errors, adcp.ValidationError(
				"assignments", "creative %q is not in the library", creativeID))
			continue
		}
		entry.PlatformID = model.PlatformID

		for _, selector := range selectors {
			matches, err := s.buys.FindPackages(ctx, tc.TenantID, tc.PrincipalID, selector)
			if err != nil {
				return err
			}
			if len(matches) == 0 {
				entry.Errors = append(entry.Errors, adcp.ValidationError(
					"assignments", "package %q not found", selector))
				continue
			}
			target := matches[0]
			if !dryRun {
				if err := s.buys.AssignCreatives(ctx, tc.TenantID, target.MediaBuyID,
					target.PackageID, []string{creativeID}); err != nil {
					return err
				}
			}
			entry.AssignedTo = append(entry.AssignedTo, target.PackageID)
			if model.PlatformID == "" {
				uploads[target.MediaBuyID] = append(uploads[target.MediaBuyID], creativeID)
			}
		}
	}

	adapter, err := s.adapters.For(tc.Tenant.AdServer)
	if err != nil {
		return err
	}
	for mediaBuyID, ids := range uploads {
		buy, err := s.buys.Resolve(ctx, tc.TenantID, mediaBuyID, "")
		if err != nil {
			return err
		}
		platformIDs, err := adapter.AddCreatives(ctx, &adapters.AddCreativesRequest{
			MediaBuy:    buy,
			CreativeIDs: ids,
			Account:     accountFor(tc),
			DryRun:      dryRun,
		})
		if err != nil {
			resp.Errors = append(resp.Errors, adcp.Error{
				Code:     adcp.CodeAdapterError,
				Message:  "creative upload failed: " + err.Error(),
				Severity: adcp.SeverityWarning,
			})
			continue
		}
		for _, id := range ids {
			platformID, ok := platformIDs[id]
			if !ok {
				continue
			}
			model := library[id]
			if model.PlatformID != "" {
				continue // already registered via an earlier buy
			}
			model.PlatformID = platformID
			if !dryRun {
				if err := s.creatives.Update(ctx, model); err != nil {
					return err
				}
			}
			if entry, ok := results[id]; ok {
				entry.PlatformID = platformID
			}
		}
	}
	return nil
}

// ListCreatives pages through the caller's creative library.
func (s *Service) ListCreatives(ctx context.Context, tc *auth.ToolContext, req *adcp.ListCreativesRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.ListCreativesResponse{Errors: errs}), nil
	}

	mediaBuyIDs := req.MediaBuyIDs
	if len(req.BuyerRefs) > 0 {
		buys, err := s.buys.List(ctx, tc.TenantID, tc.PrincipalID, nil, req.BuyerRefs)
		if err != nil {
			return nil, err
		}
		for i := range buys {
			mediaBuyIDs = append(mediaBuyIDs, buys[i].MediaBuyID)
		}
		if len(mediaBuyIDs) == 0 {
			s.logger.Debug("list_creatives buyer_refs matched no buys",
				zap.Strings("buyer_refs", req.BuyerRefs))
			resp := &adcp.ListCreativesResponse{
				Creatives:    []adcp.Creative{},
				QuerySummary: &adcp.QuerySummary{FiltersApplied: []string{"media_buy_ids"}},
				Pagination:   &adcp.Pagination{Limit: req.Limit, Offset: req.Offset},
			}
			return completed(resp), nil
		}
	}

	q := creatives.ListQuery{
		MediaBuyIDs: mediaBuyIDs,
		Status:      req.Status,
		FormatID:    req.Format,
		Search:      req.Search,
		Limit:       req.Limit,
		Offset:      req.Offset,
	}
	if req.CreatedAfter != nil && !req.CreatedAfter.IsZero() {
		t := req.CreatedAfter.Time()
		q.CreatedAfter = &t
	}
	if req.CreatedBefore != nil && !req.CreatedBefore.IsZero() {
		t := req.CreatedBefore.Time()
		q.CreatedBefore = &t
	}

	page, total, err := s.creatives.List(ctx, tc.TenantID, tc.PrincipalID, q)
	if err != nil {
		return nil, err
	}

	wire := make([]adcp.Creative, 0, len(page))
	for i := range page {
		wire = append(wire, page[i].ToWire())
	}
	resp := &adcp.ListCreativesResponse{
		Creatives: wire,
		QuerySummary: &adcp.QuerySummary{
			TotalMatching:  total,
			Returned:       len(wire),
			FiltersApplied: q.FiltersApplied(),
		},
		Pagination: &adcp.Pagination{
			Limit:   q.Limit,
			Offset:  q.Offset,
			HasMore: q.Offset+len(wire) < total,
		},
	}
	return completed(resp), nil
}
