package adcp

import "fmt"

// Delivery types.
const (
	DeliveryTypeGuaranteed    = "guaranteed"
	DeliveryTypeNonGuaranteed = "non_guaranteed"
)

// Pricing models. Adapters may support only a subset; the intersection is
// enforced at media-buy creation, not here.
const (
	PricingModelCPM      = "cpm"
	PricingModelCPP      = "cpp"
	PricingModelCPCV     = "cpcv"
	PricingModelVCPM     = "vcpm"
	PricingModelFlatRate = "flat_rate"
)

// PriceGuidance carries auction pricing hints for non-fixed options.
type PriceGuidance struct {
	Floor         float64 `json:"floor,omitempty"`
	SuggestedRate float64 `json:"suggested_rate,omitempty"`
	P90           float64 `json:"p90,omitempty"`
}

// PricingOption is one way a product can be bought.
type PricingOption struct {
	PricingModel  string         `json:"pricing_model"`
	IsFixed       bool           `json:"is_fixed"`
	Rate          float64        `json:"rate,omitempty"`
	PriceGuidance *PriceGuidance `json:"price_guidance,omitempty"`
	Currency      string         `json:"currency,omitempty"`
	MinSpend      float64        `json:"min_spend,omitempty"`
}

// Product is the buyer-visible inventory unit. Exactly one of Properties
// or PropertyTags must be set; violating the oneOf fails construction in
// strict deployments and drops the product from listings in lenient ones.
type Product struct {
	ProductID      string          `json:"product_id"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	DeliveryType   string          `json:"delivery_type"`
	IsFixedPrice   bool            `json:"is_fixed_price"`
	Formats        []FormatID      `json:"formats,omitempty"`
	PricingOptions []PricingOption `json:"pricing_options,omitempty"`
	Properties     []Property      `json:"properties,omitempty"`
	PropertyTags   []string        `json:"property_tags,omitempty"`
	IsCustom       bool            `json:"is_custom,omitempty"`
}

// Validate enforces the product's structural invariants.
func (p *Product) Validate() []Error {
	var errs []Error
	if p.ProductID == "" {
		errs = append(errs, ValidationError("product_id", "product_id is required"))
	}
	if p.Name == "" {
		errs = append(errs, ValidationError("name", "name is required"))
	}
	hasProps := len(p.Properties) > 0
	hasTags := len(p.PropertyTags) > 0
	if hasProps == hasTags {
		errs = append(errs, ValidationError("properties",
			"product %s must carry exactly one of properties or property_tags", p.ProductID))
	}
	switch p.DeliveryType {
	case DeliveryTypeGuaranteed, DeliveryTypeNonGuaranteed:
	default:
		errs = append(errs, ValidationError("delivery_type", "unknown delivery_type %q", p.DeliveryType))
	}
	return errs
}

// PricingModels lists the models offered by this product.
func (p *Product) PricingModels() []string {
	out := make([]string, 0, len(p.PricingOptions))
	for _, opt := range p.PricingOptions {
		out = append(out, opt.PricingModel)
	}
	return out
}

// ProductFilters narrows a product listing. Fields are ANDed.
type ProductFilters struct {
	DeliveryType        string   `json:"delivery_type,omitempty"`
	IsFixedPrice        *bool    `json:"is_fixed_price,omitempty"`
	FormatTypes         []string `json:"format_types,omitempty"`
	FormatIDs           []string `json:"format_ids,omitempty"`
	StandardFormatsOnly bool     `json:"standard_formats_only,omitempty"`
}

// GetProductsRequest asks for products matching a free-text brief and
// structured filters. Authentication is optional on this operation.
type GetProductsRequest struct {
	Brief         string          `json:"brief,omitempty"`
	BrandManifest *BrandManifest  `json:"brand_manifest,omitempty"`
	Filters       *ProductFilters `json:"filters,omitempty"`
	AdCPVersion   string          `json:"adcp_version,omitempty"`

	// Legacy: pre-2.2 clients sent promoted_offering instead of a manifest.
	PromotedOffering string `json:"promoted_offering,omitempty"`
}

// Normalize promotes legacy fields and validates required ones.
func (r *GetProductsRequest) Normalize() []Error {
	if r.BrandManifest == nil && r.PromotedOffering != "" {
		r.BrandManifest = &BrandManifest{Name: r.PromotedOffering, Offering: r.PromotedOffering}
		r.PromotedOffering = ""
	}
	if err := r.BrandManifest.Validate(); err != nil {
		return []Error{*err}
	}
	return nil
}

// GetProductsResponse lists the matching products.
type GetProductsResponse struct {
	Products []Product `json:"products"`
	Errors   []Error   `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *GetProductsResponse) Summary() string {
	switch len(r.Products) {
	case 0:
		return "No products match your requirements."
	case 1:
		return "Found 1 product that matches your requirements."
	default:
		return fmt.Sprintf("Found %d products that match your requirements.", len(r.Products))
	}
}

func pluralSummary(n int, singular, plural string) string {
	if n == 1 {
		return fmt.Sprintf("Found 1 %s.", singular)
	}
	return fmt.Sprintf("Found %d %s.", n, plural)
}
