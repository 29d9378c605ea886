package adcp

import "fmt"

// PerformanceData is one buyer-reported performance observation, indexed
// against 1.0 as baseline.
type PerformanceData struct {
	PackageID        string  `json:"package_id,omitempty"`
	ProductID        string  `json:"product_id,omitempty"`
	PerformanceIndex float64 `json:"performance_index"`
	MetricType       string  `json:"metric_type,omitempty"`
}

// UpdatePerformanceIndexRequest reports buyer-side performance for the
// packages of one media buy, letting publishers tune allocation.
type UpdatePerformanceIndexRequest struct {
	MediaBuyID      string            `json:"media_buy_id,omitempty"`
	BuyerRef        string            `json:"buyer_ref,omitempty"`
	PerformanceData []PerformanceData `json:"performance_data,omitempty"`
}

// Normalize validates addressing and observation values.
func (r *UpdatePerformanceIndexRequest) Normalize() []Error {
	var errs []Error
	if r.MediaBuyID == "" && r.BuyerRef == "" {
		errs = append(errs, ValidationError("media_buy_id", "one of media_buy_id or buyer_ref is required"))
	}
	if len(r.PerformanceData) == 0 {
		errs = append(errs, ValidationError("performance_data", "at least one observation is required"))
	}
	for i := range r.PerformanceData {
		d := &r.PerformanceData[i]
		if d.PerformanceIndex < 0 {
			errs = append(errs, ValidationError(
				fmt.Sprintf("performance_data[%d].performance_index", i),
				"performance_index must not be negative"))
		}
		if d.MetricType == "" {
			d.MetricType = "overall"
		}
	}
	return errs
}

// UpdatePerformanceIndexResponse acknowledges the report.
type UpdatePerformanceIndexResponse struct {
	Status string  `json:"status"`
	Errors []Error `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *UpdatePerformanceIndexResponse) Summary() string {
	if r.Status == "accepted" {
		return "Performance index updated."
	}
	return "Performance index update " + r.Status + "."
}
