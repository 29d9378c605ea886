package adcp

// Property types per the AdCP property taxonomy.
const (
	PropertyTypeWebsite   = "website"
	PropertyTypeMobileApp = "mobile_app"
	PropertyTypeCTVApp    = "ctv_app"
	PropertyTypeDOOH      = "dooh"
	PropertyTypePodcast   = "podcast"
	PropertyTypeRadio     = "radio"
)

// PropertyIdentifier is one externally-meaningful id for a property, such
// as a domain or an app-store bundle id.
type PropertyIdentifier struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// Property is one sellable media property a publisher is authorized for.
type Property struct {
	PropertyType    string               `json:"property_type"`
	Name            string               `json:"name"`
	Identifiers     []PropertyIdentifier `json:"identifiers,omitempty"`
	Tags            []string             `json:"tags,omitempty"`
	PublisherDomain string               `json:"publisher_domain,omitempty"`
}

// PropertyTagMeta describes one property tag in a listing response.
type PropertyTagMeta struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// ListAuthorizedPropertiesRequest filters the property listing by tag.
// Authentication is optional on this operation.
type ListAuthorizedPropertiesRequest struct {
	Tags        []string `json:"tags,omitempty"`
	AdCPVersion string   `json:"adcp_version,omitempty"`
}

// Normalize is a no-op; the request has no legacy shapes.
func (r *ListAuthorizedPropertiesRequest) Normalize() []Error { return nil }

// ListAuthorizedPropertiesResponse enumerates the publisher's properties
// together with the tag vocabulary used to group them.
type ListAuthorizedPropertiesResponse struct {
	Properties       []Property                 `json:"properties,omitempty"`
	PublisherDomains []string                   `json:"publisher_domains,omitempty"`
	Tags             map[string]PropertyTagMeta `json:"tags,omitempty"`
	PrimaryChannels  []string                   `json:"primary_channels,omitempty"`
	PrimaryCountries []string                   `json:"primary_countries,omitempty"`
	Errors           []Error                    `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *ListAuthorizedPropertiesResponse) Summary() string {
	return pluralSummary(len(r.Properties), "authorized property", "authorized properties")
}
