package adcp

import "encoding/json"

// Signal types.
const (
	SignalTypeMarketplace = "marketplace"
	SignalTypeCustom      = "custom"
	SignalTypeOwned       = "owned"
)

// PlatformList is the deliver_to.platforms value: either the literal
// string "all" or an explicit list of decisioning platforms.
type PlatformList []string

func (p *PlatformList) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*p = PlatformList{s}
		return nil
	}
	var list []string
	if err := json.Unmarshal(b, &list); err != nil {
		return err
	}
	*p = PlatformList(list)
	return nil
}

// All reports whether the buyer asked for every platform.
func (p PlatformList) All() bool {
	return len(p) == 1 && p[0] == "all"
}

// SignalDeliverTo names where an activated signal must be usable.
type SignalDeliverTo struct {
	Platforms PlatformList `json:"platforms,omitempty"`
	Countries []string     `json:"countries,omitempty"`
}

// SignalFilters narrows a signal search.
type SignalFilters struct {
	CatalogTypes  []string `json:"catalog_types,omitempty"`
	DataProviders []string `json:"data_providers,omitempty"`
	MaxCPM        float64  `json:"max_cpm,omitempty"`
}

// SignalDeployment records where a signal segment is live.
type SignalDeployment struct {
	Platform                     string `json:"platform"`
	Account                      string `json:"account,omitempty"`
	IsLive                       bool   `json:"is_live"`
	Scope                        string `json:"scope,omitempty"`
	DecisioningPlatformSegmentID string `json:"decisioning_platform_segment_id,omitempty"`
}

// SignalPricing is the usage price of a signal.
type SignalPricing struct {
	CPM      float64 `json:"cpm,omitempty"`
	Currency string  `json:"currency,omitempty"`
}

// Signal is one audience or contextual segment offered to buyers.
type Signal struct {
	SignalAgentSegmentID string             `json:"signal_agent_segment_id"`
	Name                 string             `json:"name"`
	Description          string             `json:"description,omitempty"`
	SignalType           string             `json:"signal_type"`
	DataProvider         string             `json:"data_provider,omitempty"`
	CoveragePercentage   float64            `json:"coverage_percentage,omitempty"`
	Deployments          []SignalDeployment `json:"deployments,omitempty"`
	Pricing              *SignalPricing     `json:"pricing,omitempty"`
}

// GetSignalsRequest searches the signal catalog against a free-text spec.
type GetSignalsRequest struct {
	SignalSpec  string           `json:"signal_spec"`
	DeliverTo   *SignalDeliverTo `json:"deliver_to,omitempty"`
	Filters     *SignalFilters   `json:"filters,omitempty"`
	MaxResults  int              `json:"max_results,omitempty"`
	AdCPVersion string           `json:"adcp_version,omitempty"`
}

// Normalize validates the search spec and clamps max_results.
func (r *GetSignalsRequest) Normalize() []Error {
	var errs []Error
	if r.SignalSpec == "" {
		errs = append(errs, ValidationError("signal_spec", "signal_spec is required"))
	}
	if r.MaxResults < 0 {
		errs = append(errs, ValidationError("max_results", "max_results must not be negative"))
	}
	if r.MaxResults == 0 || r.MaxResults > maxPageLimit {
		r.MaxResults = defaultPageLimit
	}
	return errs
}

// GetSignalsResponse lists matching signals.
type GetSignalsResponse struct {
	Signals []Signal `json:"signals"`
	Errors  []Error  `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *GetSignalsResponse) Summary() string {
	return pluralSummary(len(r.Signals), "signal", "signals")
}

// ActivateSignalRequest activates a signal on a decisioning platform.
// signal_agent_segment_id from get_signals is accepted as an alias.
type ActivateSignalRequest struct {
	SignalID string `json:"signal_id,omitempty"`
	Platform string `json:"platform,omitempty"`
	Account  string `json:"account,omitempty"`

	SignalAgentSegmentID string `json:"signal_agent_segment_id,omitempty"`
}

// Normalize merges the id alias and validates presence.
func (r *ActivateSignalRequest) Normalize() []Error {
	if r.SignalID == "" && r.SignalAgentSegmentID != "" {
		r.SignalID = r.SignalAgentSegmentID
	}
	r.SignalAgentSegmentID = ""
	if r.SignalID == "" {
		return []Error{ValidationError("signal_id", "signal_id is required")}
	}
	return nil
}

// SignalActivation describes the state of an activation.
type SignalActivation struct {
	Status                       string     `json:"status"`
	DecisioningPlatformSegmentID string     `json:"decisioning_platform_segment_id,omitempty"`
	DeployedAt                   *Timestamp `json:"deployed_at,omitempty"`
	EstimatedActivationMinutes   int        `json:"estimated_activation_duration_minutes,omitempty"`
}

// ActivateSignalResponse reports the activation outcome.
type ActivateSignalResponse struct {
	SignalID          string            `json:"signal_id"`
	ActivationDetails *SignalActivation `json:"activation_details,omitempty"`
	Errors            []Error           `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *ActivateSignalResponse) Summary() string {
	if r.ActivationDetails != nil {
		return "Signal " + r.SignalID + " activation " + r.ActivationDetails.Status + "."
	}
	return "Signal could not be activated."
}
