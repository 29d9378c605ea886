package adcp

import "encoding/json"

// Format media types.
const (
	FormatTypeVideo   = "video"
	FormatTypeDisplay = "display"
	FormatTypeAudio   = "audio"
	FormatTypeNative  = "native"
	FormatTypeDOOH    = "dooh"
)

// Format categories.
const (
	FormatCategoryStandard = "standard"
	FormatCategoryCustom   = "custom"
)

// FormatID identifies a creative format, optionally qualified by the URL
// of the registry agent that defines it. The legacy bare-string form is
// accepted on input and expanded; serialization is always the object shape.
type FormatID struct {
	AgentURL string `json:"agent_url,omitempty"`
	ID       string `json:"id"`
}

func (f *FormatID) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = FormatID{ID: s}
		return nil
	}
	type alias FormatID
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*f = FormatID(a)
	return nil
}

// IsZero reports whether the format id was absent.
func (f FormatID) IsZero() bool { return f.ID == "" }

// Format describes one creative format as served by list_creative_formats.
type Format struct {
	FormatID       FormatID       `json:"format_id"`
	Name           string         `json:"name"`
	Type           string         `json:"type"`
	Category       string         `json:"category,omitempty"`
	IsStandard     bool           `json:"is_standard,omitempty"`
	Description    string         `json:"description,omitempty"`
	Requirements   map[string]any `json:"requirements,omitempty"`
	AssetsRequired []FormatAsset  `json:"assets_required,omitempty"`
}

// FormatAsset names one asset slot a creative must fill for a format.
type FormatAsset struct {
	AssetType string         `json:"asset_type"`
	Required  bool           `json:"required,omitempty"`
	Specs     map[string]any `json:"specs,omitempty"`
}

// ListCreativeFormatsRequest filters the format catalog. All fields are
// optional; an empty request lists everything the tenant serves.
type ListCreativeFormatsRequest struct {
	Type         string   `json:"type,omitempty"`
	StandardOnly *bool    `json:"standard_only,omitempty"`
	Category     string   `json:"category,omitempty"`
	FormatIDs    []string `json:"format_ids,omitempty"`
	AdCPVersion  string   `json:"adcp_version,omitempty"`
}

// Normalize validates filter values.
func (r *ListCreativeFormatsRequest) Normalize() []Error {
	var errs []Error
	switch r.Type {
	case "", FormatTypeVideo, FormatTypeDisplay, FormatTypeAudio, FormatTypeNative, FormatTypeDOOH:
	default:
		errs = append(errs, ValidationError("type", "unknown format type %q", r.Type))
	}
	switch r.Category {
	case "", FormatCategoryStandard, FormatCategoryCustom:
	default:
		errs = append(errs, ValidationError("category", "unknown category %q", r.Category))
	}
	return errs
}

// ListCreativeFormatsResponse is the format catalog slice matching the
// request filters.
type ListCreativeFormatsResponse struct {
	Formats []Format `json:"formats"`
	Errors  []Error  `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *ListCreativeFormatsResponse) Summary() string {
	return pluralSummary(len(r.Formats), "creative format", "creative formats")
}
