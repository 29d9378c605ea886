package skills

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/auth"
	"github.com/adcontexthq/salesagent/internal/catalog"
)

// GetProducts matches the tenant's catalog against a brief and filters.
// Anonymous callers see only the public catalog; custom (negotiated)
// products need a principal.
func (s *Service) GetProducts(ctx context.Context, tc *auth.ToolContext, req *adcp.GetProductsRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.GetProductsResponse{Errors: errs}), nil
	}
	if perr := s.screen(ctx, tc, req.Brief, req.BrandManifest); perr != nil {
		return failed(&adcp.GetProductsResponse{Errors: []adcp.Error{*perr}}), nil
	}

	products, err := s.products.ListProducts(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}

	matched := products[:0]
	for _, p := range products {
		if p.IsCustom && tc.IsAnonymous() {
			continue
		}
		if catalog.MatchBrief(&p, req.Brief) {
			matched = append(matched, p)
		}
	}

	types, err := s.formatTypes(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}
	matched = catalog.FilterProducts(matched, req.Filters, types)

	// Catalog rows are publisher-configured and can drift from the schema.
	// Strict deployments surface the violation; lenient ones drop the row.
	valid := matched[:0]
	var structural []adcp.Error
	for _, p := range matched {
		if verrs := p.Validate(); len(verrs) > 0 {
			if adcp.StrictDecoding() {
				structural = append(structural, verrs...)
			} else {
				s.logger.Warn("dropping malformed product from listing",
					zap.String("tenant_id", tc.TenantID),
					zap.String("product_id", p.ProductID))
			}
			continue
		}
		valid = append(valid, p)
	}
	if len(structural) > 0 {
		return failed(&adcp.GetProductsResponse{Errors: structural}), nil
	}
	if valid == nil {
		valid = []adcp.Product{}
	}

	resp := &adcp.GetProductsResponse{Products: valid}
	return completed(resp), nil
}

// ListCreativeFormats lists the formats the agent accepts.
func (s *Service) ListCreativeFormats(ctx context.Context, tc *auth.ToolContext, req *adcp.ListCreativeFormatsRequest) (*Outcome, error) {
	if errs := req.Normalize(); adcp.HasBlocking(errs) {
		return failed(&adcp.ListCreativeFormatsResponse{Errors: errs}), nil
	}

	formats, err := s.formats.List(ctx, tc.TenantID, req)
	if err != nil {
		return nil, err
	}
	return completed(&adcp.ListCreativeFormatsResponse{Formats: formats}), nil
}

// ListAuthorizedProperties lists the properties this agent may sell.
func (s *Service) ListAuthorizedProperties(ctx context.Context, tc *auth.ToolContext, req *adcp.ListAuthorizedPropertiesRequest) (*Outcome, error) {
	req.Normalize()

	properties, err := s.properties.ListProperties(ctx, tc.TenantID, req.Tags)
	if err != nil {
		return nil, err
	}
	tags, err := s.properties.ListPropertyTags(ctx, tc.TenantID)
	if err != nil {
		return nil, err
	}

	resp := &adcp.ListAuthorizedPropertiesResponse{
		Properties: properties,
		Tags:       tags,
	}
	domains := make(map[string]bool)
	channels := make(map[string]bool)
	for _, p := range properties {
		if p.PublisherDomain != "" {
			domains[p.PublisherDomain] = true
		}
		if p.PropertyType != "" {
			channels[p.PropertyType] = true
		}
	}
	resp.PublisherDomains = sortedKeys(domains)
	resp.PrimaryChannels = sortedKeys(channels)
	return completed(resp), nil
}

// formatTypes indexes format id to type for product filtering.
func (s *Service) formatTypes(ctx context.Context, tenantID string) (map[string]string, error) {
	formats, err := s.formats.List(ctx, tenantID, &adcp.ListCreativeFormatsRequest{})
	if err != nil {
		return nil, err
	}
	types := make(map[string]string, len(formats))
	for _, f := range formats {
		types[f.FormatID.ID] = f.Type
	}
	return types, nil
}

func sortedKeys(set map[string]bool) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
