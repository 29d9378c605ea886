// Package mediabuys persists media buys and their packages, and owns the
// lifecycle states a buy moves through between creation and completion.
package mediabuys

import (
	"time"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// Lifecycle states of a media buy. The buyer-visible delivery status is
// derived from these plus the flight window; see DeliveryStatus.
const (
	StatusPendingApproval = "pending_approval"
	StatusActive          = "active"
	StatusPaused          = "paused"
	StatusCompleted       = "completed"
	StatusRejected        = "rejected"
)

// MediaBuy is the stored form of a buy. Platform identifiers and workflow
// state stay internal; buyers only ever see projections of this record.
type MediaBuy struct {
	MediaBuyID       string              `json:"media_buy_id" db:"media_buy_id"`
	TenantID         string              `json:"-" db:"tenant_id"`
	PrincipalID      string              `json:"-" db:"principal_id"`
	BuyerRef         string              `json:"buyer_ref" db:"buyer_ref"`
	Status           string              `json:"-" db:"status"`
	BrandManifest    *adcp.BrandManifest `json:"brand_manifest,omitempty" db:"brand_manifest"`
	PONumber         string              `json:"po_number,omitempty" db:"po_number"`
	StartTime        time.Time           `json:"start_time" db:"start_time"`
	EndTime          time.Time           `json:"end_time" db:"end_time"`
	BudgetTotal      float64             `json:"budget_total" db:"budget_total"`
	BudgetCurrency   string              `json:"budget_currency" db:"budget_currency"`
	Pacing           string              `json:"pacing,omitempty" db:"pacing"`
	PlatformOrderID  string              `json:"-" db:"platform_order_id"`
	WorkflowStepID   string              `json:"-" db:"workflow_step_id"`
	CreativeDeadline *time.Time          `json:"creative_deadline,omitempty" db:"creative_deadline"`
	CreatedAt        time.Time           `json:"-" db:"created_at"`
	UpdatedAt        time.Time           `json:"-" db:"updated_at"`
}

// Package is the stored form of one product line inside a buy.
type Package struct {
	PackageID          string         `json:"package_id" db:"package_id"`
	MediaBuyID         string         `json:"-" db:"media_buy_id"`
	TenantID           string         `json:"-" db:"tenant_id"`
	BuyerRef           string         `json:"buyer_ref,omitempty" db:"buyer_ref"`
	ProductID          string         `json:"product_id" db:"product_id"`
	PricingModel       string         `json:"pricing_model,omitempty" db:"pricing_model"`
	BudgetTotal        float64        `json:"budget_total" db:"budget_total"`
	BudgetCurrency     string         `json:"budget_currency" db:"budget_currency"`
	TargetingOverlay   map[string]any `json:"targeting_overlay,omitempty" db:"targeting_overlay"`
	CreativeIDs        []string       `json:"creative_ids,omitempty" db:"creative_ids"`
	Active             bool           `json:"active" db:"active"`
	PlatformLineItemID string         `json:"-" db:"platform_line_item_id"`
	PerformanceIndex   *float64       `json:"-" db:"performance_index"`
	MetricType         string         `json:"-" db:"metric_type"`
	CreatedAt          time.Time      `json:"-" db:"created_at"`
	UpdatedAt          time.Time      `json:"-" db:"updated_at"`
}

// DeliveryStatus derives the buyer-visible status from lifecycle state and
// the flight window.
func (m *MediaBuy) DeliveryStatus(now time.Time) string {
	switch {
	case m.Status == StatusPaused:
		return adcp.DeliveryStatusPaused
	case m.Status == StatusPendingApproval, m.Status == StatusRejected:
		return adcp.DeliveryStatusPendingStart
	case m.Status == StatusCompleted, !now.Before(m.EndTime):
		return adcp.DeliveryStatusCompleted
	case now.Before(m.StartTime):
		return adcp.DeliveryStatusPendingStart
	default:
		return adcp.DeliveryStatusDelivering
	}
}

// FlightFraction reports how far through its flight window the buy is,
// clamped to [0, 1]. Zero-length flights count as complete once started.
func (m *MediaBuy) FlightFraction(now time.Time) float64 {
	if now.Before(m.StartTime) {
		return 0
	}
	total := m.EndTime.Sub(m.StartTime)
	if total <= 0 {
		return 1
	}
	f := float64(now.Sub(m.StartTime)) / float64(total)
	if f > 1 {
		return 1
	}
	return f
}

// OwnedBy reports whether a principal may act on this buy. Tenant admins
// may act on every buy in their tenant.
func (m *MediaBuy) OwnedBy(principalID string) bool {
	return m.PrincipalID == principalID || principalID == "admin_"+m.TenantID
}
