package skills_test

import (
	"context"
	"testing"

	"github.com/adcontexthq/salesagent/internal/adcp"
	"github.com/adcontexthq/salesagent/internal/skills"
)

// ── get_products ────────────────────────────────────────────────────────────

func TestGetProducts_matchesBrief(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		Brief:         "reach sports fans on the big screen",
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q: %+v", out.State, out.Data)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if len(resp.Products) != 1 || resp.Products[0].ProductID != "prod_ctv" {
		t.Fatalf("products = %+v, want only the sports product", resp.Products)
	}
}

func TestGetProducts_anonymousHidesCustom(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), anonymousContext(), &adcp.GetProductsRequest{
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if len(resp.Products) != 3 {
		t.Fatalf("products = %d, want 3 public products", len(resp.Products))
	}
	for _, p := range resp.Products {
		if p.IsCustom {
			t.Errorf("custom product %s leaked to anonymous caller", p.ProductID)
		}
	}
}

func TestGetProducts_authenticatedSeesCustom(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if len(resp.Products) != 4 {
		t.Fatalf("products = %d, want full catalog", len(resp.Products))
	}
}

func TestGetProducts_formatTypeFilter(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		BrandManifest: nikeManifest(),
		Filters:       &adcp.ProductFilters{FormatTypes: []string{"audio"}},
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if len(resp.Products) != 1 || resp.Products[0].ProductID != "prod_podcast" {
		t.Fatalf("products = %+v, want only the audio product", resp.Products)
	}
}

func TestGetProducts_noMatchesReturnsEmptyList(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		Brief:         "underwater basket weaving broadcasts",
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if resp.Products == nil {
		t.Fatal("products = nil, want empty list")
	}
	if len(resp.Products) != 0 {
		t.Fatalf("products = %+v, want none", resp.Products)
	}
}

func TestGetProducts_missingManifest(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed", out.State)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if !hasErrorField(resp.Errors, "brand_manifest") {
		t.Errorf("errors = %+v, want brand_manifest validation", resp.Errors)
	}
}

func TestGetProducts_policyEnforceBlocksBrief(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		Brief:         "tobacco cigarette vaping firearm promotions",
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed under enforce", out.State)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if !hasErrorCode(resp.Errors, adcp.CodePolicyViolation) {
		t.Errorf("errors = %+v, want policy_violation", resp.Errors)
	}
}

func TestGetProducts_malformedProductHandling(t *testing.T) {
	f := newFixture(t)
	f.products.items = append(f.products.items, adcp.Product{
		ProductID:    "prod_broken",
		Name:         "Orphaned Placement",
		Description:  "Row missing its property linkage",
		DeliveryType: "non_guaranteed",
	})

	// Lenient mode drops the row and serves the rest.
	out, err := f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	resp := out.Data.(*adcp.GetProductsResponse)
	if len(resp.Products) != 4 {
		t.Fatalf("products = %d, want the 4 well-formed ones", len(resp.Products))
	}
	for _, p := range resp.Products {
		if p.ProductID == "prod_broken" {
			t.Fatal("malformed product served in lenient mode")
		}
	}

	// Strict mode surfaces the violation instead.
	adcp.SetStrictDecoding(true)
	defer adcp.SetStrictDecoding(false)

	out, err = f.svc.GetProducts(context.Background(), buyerContext(), &adcp.GetProductsRequest{
		BrandManifest: nikeManifest(),
	})
	if err != nil {
		t.Fatalf("GetProducts strict: %v", err)
	}
	if out.State != skills.StateFailed {
		t.Fatalf("state = %q, want failed in strict mode", out.State)
	}
	resp = out.Data.(*adcp.GetProductsResponse)
	if !hasErrorField(resp.Errors, "properties") {
		t.Errorf("errors = %+v, want properties oneOf violation", resp.Errors)
	}
}

// ── list_creative_formats ───────────────────────────────────────────────────

func TestListCreativeFormats_returnsCatalog(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.ListCreativeFormats(context.Background(), anonymousContext(), &adcp.ListCreativeFormatsRequest{})
	if err != nil {
		t.Fatalf("ListCreativeFormats: %v", err)
	}
	if out.State != skills.StateCompleted {
		t.Fatalf("state = %q", out.State)
	}
	resp := out.Data.(*adcp.ListCreativeFormatsResponse)
	if len(resp.Formats) != 3 {
		t.Fatalf("formats = %d, want 3", len(resp.Formats))
	}
}

// ── list_authorized_properties ──────────────────────────────────────────────

func TestListAuthorizedProperties_summarizes(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.ListAuthorizedProperties(context.Background(), anonymousContext(), &adcp.ListAuthorizedPropertiesRequest{})
	if err != nil {
		t.Fatalf("ListAuthorizedProperties: %v", err)
	}
	resp := out.Data.(*adcp.ListAuthorizedPropertiesResponse)
	if len(resp.Properties) != 2 {
		t.Fatalf("properties = %d, want 2", len(resp.Properties))
	}
	if len(resp.PublisherDomains) != 1 || resp.PublisherDomains[0] != "wonder.example" {
		t.Errorf("publisher_domains = %v", resp.PublisherDomains)
	}
	wantChannels := []string{adcp.PropertyTypeCTVApp, adcp.PropertyTypeWebsite}
	if len(resp.PrimaryChannels) != 2 || resp.PrimaryChannels[0] != wantChannels[0] || resp.PrimaryChannels[1] != wantChannels[1] {
		t.Errorf("primary_channels = %v, want %v sorted", resp.PrimaryChannels, wantChannels)
	}
	if _, ok := resp.Tags["news"]; !ok {
		t.Errorf("tags = %v, want news vocabulary", resp.Tags)
	}
}

func TestListAuthorizedProperties_tagFilter(t *testing.T) {
	f := newFixture(t)

	out, err := f.svc.ListAuthorizedProperties(context.Background(), anonymousContext(), &adcp.ListAuthorizedPropertiesRequest{
		Tags: []string{"ctv"},
	})
	if err != nil {
		t.Fatalf("ListAuthorizedProperties: %v", err)
	}
	resp := out.Data.(*adcp.ListAuthorizedPropertiesResponse)
	if len(resp.Properties) != 1 || resp.Properties[0].Name != "Wonder Sports TV" {
		t.Fatalf("properties = %+v, want only the CTV app", resp.Properties)
	}
}
