package adcp

import (
	"fmt"
	"time"
)

// Package is one product line inside a media buy. On create, buyers may
// omit package_id; the response always carries one (echoing buyer_ref when
// present). On update, packages are matched by package_id or buyer_ref.
type Package struct {
	PackageID        string         `json:"package_id,omitempty"`
	BuyerRef         string         `json:"buyer_ref,omitempty"`
	ProductID        string         `json:"product_id,omitempty"`
	PricingModel     string         `json:"pricing_model,omitempty"`
	Budget           *Budget        `json:"budget,omitempty"`
	TargetingOverlay map[string]any `json:"targeting_overlay,omitempty"`
	CreativeIDs      []string       `json:"creative_ids,omitempty"`
	Active           *bool          `json:"active,omitempty"`
}

// PushNotificationConfig is the webhook target a buyer may attach to an
// operation or register via tasks/pushNotificationConfig/set.
type PushNotificationConfig struct {
	URL            string              `json:"url"`
	Authentication *PushAuthentication `json:"authentication,omitempty"`
}

// PushAuthentication selects how outgoing webhooks are signed.
// Recognized schemes: HMAC-SHA256, Bearer, JWT, None.
type PushAuthentication struct {
	Schemes     []string `json:"schemes,omitempty"`
	Credentials string   `json:"credentials,omitempty"`
}

// CreateMediaBuyRequest creates a media buy from one or more packages.
// Legacy shapes still accepted: product_ids[] instead of packages[],
// date-only start_date/end_date, and flat total_budget + currency.
type CreateMediaBuyRequest struct {
	BrandManifest          *BrandManifest          `json:"brand_manifest,omitempty"`
	BuyerRef               string                  `json:"buyer_ref,omitempty"`
	Packages               []Package               `json:"packages,omitempty"`
	StartTime              TimeOrASAP              `json:"start_time,omitempty"`
	EndTime                Timestamp               `json:"end_time,omitempty"`
	Budget                 *Budget                 `json:"budget,omitempty"`
	Currency               string                  `json:"currency,omitempty"`
	PONumber               string                  `json:"po_number,omitempty"`
	TargetingOverlay       map[string]any          `json:"targeting_overlay,omitempty"`
	PushNotificationConfig *PushNotificationConfig `json:"push_notification_config,omitempty"`
	AdCPVersion            string                  `json:"adcp_version,omitempty"`

	// Legacy aliases, cleared during Normalize so re-serialization yields
	// only the canonical shape.
	ProductIDs  []string `json:"product_ids,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`
	TotalBudget *float64 `json:"total_budget,omitempty"`

	// Legacy: pre-2.2 clients sent promoted_offering instead of a manifest.
	PromotedOffering string `json:"promoted_offering,omitempty"`
}

// Normalize promotes legacy fields to their canonical shapes and runs the
// structural validation that does not need a clock or a catalog.
func (r *CreateMediaBuyRequest) Normalize() []Error {
	var errs []Error

	if r.BrandManifest == nil && r.PromotedOffering != "" {
		r.BrandManifest = &BrandManifest{Name: r.PromotedOffering, Offering: r.PromotedOffering}
	}
	r.PromotedOffering = ""

	if len(r.Packages) == 0 && len(r.ProductIDs) > 0 {
		for _, id := range r.ProductIDs {
			r.Packages = append(r.Packages, Package{ProductID: id})
		}
	}
	r.ProductIDs = nil

	if r.StartTime.IsZero() && r.StartDate != "" {
		if t, ok := promoteDate(r.StartDate, false); ok {
			r.StartTime = NewTimeOrASAP(t)
		} else {
			errs = append(errs, ValidationError("start_date", "invalid date %q, want YYYY-MM-DD", r.StartDate))
		}
	}
	if r.EndTime.IsZero() && r.EndDate != "" {
		if t, ok := promoteDate(r.EndDate, true); ok {
			r.EndTime = NewTimestamp(t)
		} else {
			errs = append(errs, ValidationError("end_date", "invalid date %q, want YYYY-MM-DD", r.EndDate))
		}
	}
	r.StartDate, r.EndDate = "", ""

	if r.Budget == nil && r.TotalBudget != nil {
		r.Budget = &Budget{Total: *r.TotalBudget, Currency: r.Currency}
	}
	r.TotalBudget = nil

	if err := r.BrandManifest.Validate(); err != nil {
		errs = append(errs, *err)
	}
	if r.BuyerRef == "" {
		errs = append(errs, ValidationError("buyer_ref", "buyer_ref is required"))
	}
	if len(r.Packages) == 0 {
		errs = append(errs, ValidationError("packages", "at least one package is required"))
	}
	for i, pkg := range r.Packages {
		if pkg.ProductID == "" {
			errs = append(errs, ValidationError(fmt.Sprintf("packages[%d].product_id", i), "product_id is required"))
		}
		if err := pkg.Budget.Validate(fmt.Sprintf("packages[%d].budget", i)); err != nil {
			errs = append(errs, *err)
		}
	}

	if r.StartTime.IsZero() {
		errs = append(errs, ValidationError("start_time", "start_time is required"))
	} else if err := r.StartTime.Validate("start_time"); err != nil {
		errs = append(errs, *err)
	}
	if r.EndTime.IsZero() {
		errs = append(errs, ValidationError("end_time", "end_time is required"))
	} else if err := r.EndTime.Validate("end_time"); err != nil {
		errs = append(errs, *err)
	}

	if r.Budget == nil {
		errs = append(errs, ValidationError("budget", "budget is required"))
	} else if err := r.Budget.Validate("budget"); err != nil {
		errs = append(errs, *err)
	}

	return errs
}

// ValidateSchedule runs the clock-dependent checks. now comes from the
// request context so testing hooks can override it.
func (r *CreateMediaBuyRequest) ValidateSchedule(now time.Time) []Error {
	var errs []Error
	if !r.StartTime.IsASAP() && !r.StartTime.IsZero() && r.StartTime.Time().Before(now) {
		errs = append(errs, ValidationError("start_time",
			"start_time %s is in the past", r.StartTime.Time().Format(time.RFC3339)))
	}
	if !r.EndTime.IsZero() {
		start := now
		if !r.StartTime.IsASAP() {
			start = r.StartTime.Time()
		}
		if !r.EndTime.Time().After(start) {
			errs = append(errs, ValidationError("end_time", "end_time must be after start_time"))
		}
	}
	return errs
}

// PackageResult is the buyer-visible per-package outcome of a create or
// update. It always carries package_id, even on failure paths.
type PackageResult struct {
	PackageID string `json:"package_id"`
	BuyerRef  string `json:"buyer_ref,omitempty"`
	ProductID string `json:"product_id,omitempty"`
}

// CreateMediaBuyResponse reports the created buy. On manual-approval paths
// MediaBuyID may be empty while WorkflowStepID is set.
type CreateMediaBuyResponse struct {
	MediaBuyID       string          `json:"media_buy_id,omitempty"`
	BuyerRef         string          `json:"buyer_ref,omitempty"`
	Packages         []PackageResult `json:"packages,omitempty"`
	CreativeDeadline *time.Time      `json:"creative_deadline,omitempty"`
	WorkflowStepID   string          `json:"workflow_step_id,omitempty"`
	Errors           []Error         `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *CreateMediaBuyResponse) Summary() string {
	switch {
	case r.WorkflowStepID != "":
		return "Media buy submitted for publisher approval."
	case r.MediaBuyID != "":
		return fmt.Sprintf("Created media buy %s with %d package(s).", r.MediaBuyID, len(r.Packages))
	default:
		return "Media buy could not be created."
	}
}

// legacyUpdates is the pre-1.4 wrapper around package updates.
type legacyUpdates struct {
	Packages []Package `json:"packages,omitempty"`
}

// UpdateMediaBuyRequest modifies an existing buy addressed by media_buy_id
// or buyer_ref. The legacy updates{packages} wrapper is still accepted.
type UpdateMediaBuyRequest struct {
	MediaBuyID string      `json:"media_buy_id,omitempty"`
	BuyerRef   string      `json:"buyer_ref,omitempty"`
	Active     *bool       `json:"active,omitempty"`
	StartTime  *TimeOrASAP `json:"start_time,omitempty"`
	EndTime    *Timestamp  `json:"end_time,omitempty"`
	Budget     *Budget     `json:"budget,omitempty"`
	Currency   string      `json:"currency,omitempty"`
	Packages   []Package   `json:"packages,omitempty"`

	// Legacy aliases.
	Updates     *legacyUpdates `json:"updates,omitempty"`
	TotalBudget *float64       `json:"total_budget,omitempty"`
}

// Normalize promotes legacy fields and validates addressing.
func (r *UpdateMediaBuyRequest) Normalize() []Error {
	var errs []Error

	if len(r.Packages) == 0 && r.Updates != nil {
		r.Packages = r.Updates.Packages
	}
	r.Updates = nil

	if r.Budget == nil && r.TotalBudget != nil {
		r.Budget = &Budget{Total: *r.TotalBudget, Currency: r.Currency}
	}
	r.TotalBudget = nil

	if r.MediaBuyID == "" && r.BuyerRef == "" {
		errs = append(errs, ValidationError("media_buy_id", "one of media_buy_id or buyer_ref is required"))
	}
	if r.StartTime != nil {
		if err := r.StartTime.Validate("start_time"); err != nil {
			errs = append(errs, *err)
		}
	}
	if r.EndTime != nil {
		if err := r.EndTime.Validate("end_time"); err != nil {
			errs = append(errs, *err)
		}
	}
	if r.Budget != nil {
		if err := r.Budget.Validate("budget"); err != nil {
			errs = append(errs, *err)
		}
	}
	for i, pkg := range r.Packages {
		if pkg.PackageID == "" && pkg.BuyerRef == "" {
			errs = append(errs, ValidationError(fmt.Sprintf("packages[%d]", i),
				"package updates need package_id or buyer_ref"))
		}
		if err := pkg.Budget.Validate(fmt.Sprintf("packages[%d].budget", i)); err != nil {
			errs = append(errs, *err)
		}
	}
	return errs
}

// UpdateMediaBuyResponse reports which packages an update touched.
type UpdateMediaBuyResponse struct {
	MediaBuyID         string     `json:"media_buy_id"`
	BuyerRef           string     `json:"buyer_ref,omitempty"`
	ImplementationDate *time.Time `json:"implementation_date,omitempty"`
	AffectedPackages   []string   `json:"affected_packages,omitempty"`
	Errors             []Error    `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *UpdateMediaBuyResponse) Summary() string {
	if len(r.Errors) > 0 && len(r.AffectedPackages) == 0 {
		return "Media buy could not be updated."
	}
	return fmt.Sprintf("Updated media buy %s (%d package(s) affected).", r.MediaBuyID, len(r.AffectedPackages))
}
