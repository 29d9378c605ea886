package adcp

import "encoding/json"

// BrandManifest identifies the advertiser a buyer is acting for. Required
// on get_products and create_media_buy since AdCP 2.2. The legacy form is
// a bare string naming the promoted offering.
type BrandManifest struct {
	Name       string   `json:"name"`
	URL        string   `json:"url,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Offering   string   `json:"offering,omitempty"`
}

func (m *BrandManifest) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = BrandManifest{Name: s}
		return nil
	}
	type alias BrandManifest
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*m = BrandManifest(a)
	return nil
}

// Validate requires a brand name.
func (m *BrandManifest) Validate() *Error {
	if m == nil {
		e := ValidationError("brand_manifest", "brand_manifest is required")
		return &e
	}
	if m.Name == "" {
		e := ValidationError("brand_manifest.name", "brand name is required")
		return &e
	}
	return nil
}

// Text returns the searchable text of the manifest for policy checks.
func (m *BrandManifest) Text() string {
	if m == nil {
		return ""
	}
	out := m.Name
	if m.Offering != "" {
		out += " " + m.Offering
	}
	for _, c := range m.Categories {
		out += " " + c
	}
	return out
}
