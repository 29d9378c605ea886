package adcp

import "time"

// Delivery statuses reported per media buy.
const (
	DeliveryStatusPendingStart = "pending_start"
	DeliveryStatusDelivering   = "delivering"
	DeliveryStatusPaused       = "paused"
	DeliveryStatusCompleted    = "completed"
)

// GetMediaBuyDeliveryRequest asks for delivery metrics. The current wire
// form is plural media_buy_ids; the singular field is merged in for
// back-compat.
type GetMediaBuyDeliveryRequest struct {
	MediaBuyIDs []string `json:"media_buy_ids,omitempty"`
	BuyerRefs   []string `json:"buyer_refs,omitempty"`
	StartDate   string   `json:"start_date,omitempty"`
	EndDate     string   `json:"end_date,omitempty"`

	// Legacy singular forms.
	MediaBuyID string `json:"media_buy_id,omitempty"`
	BuyerRef   string `json:"buyer_ref,omitempty"`
}

// Normalize merges singular addressing into the plural lists, deduplicated.
func (r *GetMediaBuyDeliveryRequest) Normalize() []Error {
	r.MediaBuyIDs = mergeUnique(r.MediaBuyIDs, r.MediaBuyID)
	r.MediaBuyID = ""
	r.BuyerRefs = mergeUnique(r.BuyerRefs, r.BuyerRef)
	r.BuyerRef = ""

	var errs []Error
	for _, f := range []struct{ name, raw string }{
		{"start_date", r.StartDate},
		{"end_date", r.EndDate},
	} {
		if f.raw == "" {
			continue
		}
		if _, err := time.Parse(dateOnly, f.raw); err != nil {
			errs = append(errs, ValidationError(f.name, "invalid date %q, want YYYY-MM-DD", f.raw))
		}
	}
	return errs
}

func mergeUnique(list []string, extra string) []string {
	if extra != "" {
		list = append(list, extra)
	}
	seen := make(map[string]struct{}, len(list))
	out := list[:0]
	for _, v := range list {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DeliveryTotals aggregates delivered volume and spend.
type DeliveryTotals struct {
	Impressions      float64 `json:"impressions"`
	Spend            float64 `json:"spend"`
	Clicks           float64 `json:"clicks,omitempty"`
	VideoCompletions float64 `json:"video_completions,omitempty"`
}

// PackageDelivery breaks a media buy's delivery down per package.
type PackageDelivery struct {
	PackageID   string  `json:"package_id"`
	BuyerRef    string  `json:"buyer_ref,omitempty"`
	Impressions float64 `json:"impressions"`
	Spend       float64 `json:"spend"`
	Pacing      float64 `json:"pacing,omitempty"`
}

// MediaBuyDelivery is the delivery snapshot for one media buy.
type MediaBuyDelivery struct {
	MediaBuyID string            `json:"media_buy_id"`
	BuyerRef   string            `json:"buyer_ref,omitempty"`
	Status     string            `json:"status"`
	Totals     DeliveryTotals    `json:"totals"`
	ByPackage  []PackageDelivery `json:"by_package,omitempty"`
}

// ReportingPeriod bounds the window the metrics cover.
type ReportingPeriod struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// GetMediaBuyDeliveryResponse carries per-buy snapshots plus the
// aggregate across all requested buys.
type GetMediaBuyDeliveryResponse struct {
	ReportingPeriod    *ReportingPeriod   `json:"reporting_period,omitempty"`
	Currency           string             `json:"currency,omitempty"`
	AggregatedTotals   *DeliveryTotals    `json:"aggregated_totals,omitempty"`
	MediaBuyDeliveries []MediaBuyDelivery `json:"media_buy_deliveries"`
	Errors             []Error            `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *GetMediaBuyDeliveryResponse) Summary() string {
	return pluralSummary(len(r.MediaBuyDeliveries), "media buy delivery report", "media buy delivery reports")
}
