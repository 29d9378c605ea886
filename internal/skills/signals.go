package skills

import (
	"context"
	"errors"
	"fmt"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/signals"
)

// GetSignals searches the tenant's signal catalog. Deployments reflect
// the caller's own activations; foreign activations stay invisible.
func (s *Service) GetSignals(ctx context.Context, tc *auth.ToolContext, req *adcp.GetSignalsRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.GetSignalsResponse{Signals: []adcp.Signal{}, Errors: errs}), nil
	}

	found, err := s.signals.Search(ctx, tc.TenantID, req)
	if err != nil {
		return nil, err
	}

	for i := range found {
		sig := &found[i]
		if !tc.IsAnonymous() {
			acts, err := s.signals.ListActivations(ctx, tc.TenantID, sig.SignalAgentSegmentID)
			if err != nil {
				return nil, err
			}
			for _, a := range acts {
				if a.PrincipalID != tc.PrincipalID {
					continue
				}
				sig.Deployments = append(sig.Deployments, adcp.SignalDeployment{
					Platform:                     a.Platform,
					Account:                      a.Account,
					IsLive:                       a.Status == signals.ActivationDeployed,
					Scope:                        "account-specific",
					DecisioningPlatformSegmentID: a.SegmentID,
				})
			}
		}
		// Platforms the buyer asked about but where nothing is live yet.
		if req.DeliverTo != nil && !req.DeliverTo.Platforms.All() {
			for _, platform := range req.DeliverTo.Platforms {
				if !hasDeployment(sig.Deployments, platform) {
					sig.Deployments = append(sig.Deployments, adcp.SignalDeployment{
						Platform: platform,
						IsLive:   false,
						Scope:    "platform-wide",
					})
				}
			}
		}
	}

	if found == nil {
		found = []adcp.Signal{}
	}
	return completed(&adcp.GetSignalsResponse{Signals: found}), nil
}

func hasDeployment(deployments []adcp.SignalDeployment, platform string) bool {
	for _, d := range deployments {
		if d.Platform == platform {
			return true
		}
	}
	return false
}

// ActivateSignal deploys a signal segment onto a decisioning platform.
// Re-activating an already-deployed signal returns the existing segment.
func (s *Service) ActivateSignal(ctx context.Context, tc *auth.ToolContext, req *adcp.ActivateSignalRequest) (*Outcome, error) {
	errs := req.Normalize()
	if req.Platform == "" {
		errs = append(errs, adcp.ValidationError("platform", "platform is required"))
	}
	if adcp.HasBlocking(errs) {
		return failed(&adcp.ActivateSignalResponse{SignalID: req.SignalID, Errors: errs}), nil
	}

	if _, err := s.signals.Get(ctx, tc.TenantID, req.SignalID); err != nil {
		if errors.Is(err, signals.ErrSignalNotFound) {
			return failed(&adcp.ActivateSignalResponse{
				SignalID: req.SignalID,
				Errors: []adcp.Error{{
					Code:     adcp.CodeSignalNotFound,
					Message:  fmt.Sprintf("signal %q not found", req.SignalID),
					Severity: adcp.SeverityError,
				}},
			}), nil
		}
		return nil, err
	}

	existing, err := s.signals.GetActivation(ctx, tc.TenantID, tc.PrincipalID, req.SignalID, req.Platform)
	switch {
	case err == nil && existing.Status == signals.ActivationDeployed:
		return completed(activationResponse(req.SignalID, existing)), nil
	case err != nil && !errors.Is(err, signals.ErrSignalNotFound):
		return nil, err
	}

	now := tc.Now()
	activation := &signals.Activation{
		SignalID:    req.SignalID,
		TenantID:    tc.TenantID,
		PrincipalID: tc.PrincipalID,
		Platform:    req.Platform,
		Account:     req.Account,
		Status:      signals.ActivationDeployed,
		SegmentID:   fmt.Sprintf("seg_%s_%s", req.SignalID, req.Platform),
		DeployedAt:  &now,
	}
	if !tc.DryRun() {
		if err := s.signals.SaveActivation(ctx, activation); err != nil {
			return nil, err
		}
	}
	return completed(activationResponse(req.SignalID, activation)), nil
}

func activationResponse(signalID string, a *signals.Activation) *adcp.ActivateSignalResponse {
	details := &adcp.SignalActivation{
		Status:                       a.Status,
		DecisioningPlatformSegmentID: a.SegmentID,
	}
	if a.DeployedAt != nil {
		ts := adcp.NewTimestamp(*a.DeployedAt)
		details.DeployedAt = &ts
	}
	return &adcp.ActivateSignalResponse{SignalID: signalID, ActivationDetails: details}
}
