package adcp

import (
	"fmt"
	"strings"
)

// Snippet types a creative may declare.
const (
	SnippetTypeVASTXML    = "vast_xml"
	SnippetTypeVASTURL    = "vast_url"
	SnippetTypeHTML       = "html"
	SnippetTypeJavaScript = "javascript"
)

// Sync actions reported per creative.
const (
	SyncActionCreated   = "created"
	SyncActionUpdated   = "updated"
	SyncActionUnchanged = "unchanged"
	SyncActionDeleted   = "deleted"
	SyncActionFailed    = "failed"
)

// Validation modes for sync_creatives.
const (
	ValidationModeStrict  = "strict"
	ValidationModeLenient = "lenient"
)

// minSnippetLen rejects snippets too short to be real markup.
const minSnippetLen = 10

// Creative is the buyer-visible creative asset. Review state and feedback
// are internal and never appear on this type.
type Creative struct {
	CreativeID  string    `json:"creative_id"`
	Name        string    `json:"name,omitempty"`
	Format      *FormatID `json:"format,omitempty"`
	Snippet     string    `json:"snippet,omitempty"`
	SnippetType string    `json:"snippet_type,omitempty"`
	URL         string    `json:"url,omitempty"`
	ClickURL    string    `json:"click_url,omitempty"`
	Width       int       `json:"width,omitempty"`
	Height      int       `json:"height,omitempty"`
	Duration    float64   `json:"duration,omitempty"`

	// Legacy aliases for the snippet pair, seen from several SDK
	// generations. Cleared during Normalize.
	Content        string `json:"content,omitempty"`
	Code           string `json:"code,omitempty"`
	SnippetFormat  string `json:"snippet_format,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
	FormatIDLegacy string `json:"format_id,omitempty"`
}

// Normalize folds legacy aliases into the canonical fields.
func (c *Creative) Normalize() {
	if c.Snippet == "" {
		if c.Content != "" {
			c.Snippet = c.Content
		} else if c.Code != "" {
			c.Snippet = c.Code
		}
	}
	c.Content, c.Code = "", ""

	if c.SnippetType == "" {
		if c.SnippetFormat != "" {
			c.SnippetType = c.SnippetFormat
		} else if c.ContentType != "" {
			c.SnippetType = c.ContentType
		}
	}
	c.SnippetFormat, c.ContentType = "", ""

	if c.Format == nil && c.FormatIDLegacy != "" {
		c.Format = &FormatID{ID: c.FormatIDLegacy}
	}
	c.FormatIDLegacy = ""
}

// Validate checks identity and snippet coherence. It assumes Normalize
// has already run.
func (c *Creative) Validate() []Error {
	var errs []Error
	if c.CreativeID == "" {
		errs = append(errs, ValidationError("creative_id", "creative_id is required"))
	}
	if c.Snippet != "" {
		errs = append(errs, c.validateSnippet()...)
	}
	return errs
}

func (c *Creative) validateSnippet() []Error {
	var errs []Error
	snippet := strings.TrimSpace(c.Snippet)
	lower := strings.ToLower(snippet)

	if len(snippet) < minSnippetLen {
		errs = append(errs, ValidationError("snippet",
			"snippet is too short (%d chars, minimum %d)", len(snippet), minSnippetLen))
		return errs
	}
	looksLikeMarkup := strings.Contains(lower, "<") ||
		strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
	if !looksLikeMarkup {
		errs = append(errs, ValidationError("snippet",
			"snippet must contain HTML, JavaScript, or VAST markup, or be a URL"))
		return errs
	}

	switch c.SnippetType {
	case "":
	case SnippetTypeVASTXML:
		if !strings.Contains(lower, "<vast") {
			errs = append(errs, ValidationError("snippet_type",
				"snippet_type is vast_xml but snippet has no <VAST> tag"))
		}
	case SnippetTypeVASTURL:
		if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
			errs = append(errs, ValidationError("snippet_type",
				"snippet_type is vast_url but snippet is not a URL"))
		}
	case SnippetTypeHTML:
		if !strings.Contains(lower, "<") {
			errs = append(errs, ValidationError("snippet_type",
				"snippet_type is html but snippet has no markup"))
		}
	case SnippetTypeJavaScript:
		if !strings.Contains(lower, "<script") && !strings.Contains(snippet, ";") {
			errs = append(errs, ValidationError("snippet_type",
				"snippet_type is javascript but snippet does not look like script"))
		}
	default:
		errs = append(errs, ValidationError("snippet_type", "unknown snippet_type %q", c.SnippetType))
	}
	return errs
}

// SyncCreativesRequest upserts creatives and their package assignments.
// creative_ids scopes the sync (and delete_missing) to the named subset.
type SyncCreativesRequest struct {
	Creatives      []Creative          `json:"creatives,omitempty"`
	CreativeIDs    []string            `json:"creative_ids,omitempty"`
	Assignments    map[string][]string `json:"assignments,omitempty"`
	DeleteMissing  bool                `json:"delete_missing,omitempty"`
	DryRun         bool                `json:"dry_run,omitempty"`
	ValidationMode string              `json:"validation_mode,omitempty"`
}

// Normalize folds creative aliases and validates the mode flag.
func (r *SyncCreativesRequest) Normalize() []Error {
	var errs []Error
	for i := range r.Creatives {
		r.Creatives[i].Normalize()
	}
	switch r.ValidationMode {
	case "":
		r.ValidationMode = ValidationModeStrict
	case ValidationModeStrict, ValidationModeLenient:
	default:
		errs = append(errs, ValidationError("validation_mode",
			"validation_mode must be strict or lenient, got %q", r.ValidationMode))
	}
	if r.DeleteMissing && len(r.Creatives) == 0 && len(r.CreativeIDs) == 0 {
		errs = append(errs, ValidationError("delete_missing",
			"delete_missing without creatives or creative_ids would delete the whole library"))
	}
	return errs
}

// SyncCreativeResult is the per-creative outcome of a sync.
type SyncCreativeResult struct {
	CreativeID string   `json:"creative_id"`
	Action     string   `json:"action"`
	PlatformID string   `json:"platform_id,omitempty"`
	Changes    []string `json:"changes,omitempty"`
	Errors     []Error  `json:"errors,omitempty"`
	Warnings   []string `json:"warnings,omitempty"`
	AssignedTo []string `json:"assigned_to,omitempty"`
}

// SyncCreativesResponse reports per-creative outcomes. dry_run echoes the
// request flag so receivers can tell a rehearsal from a real sync.
type SyncCreativesResponse struct {
	Creatives []SyncCreativeResult `json:"creatives,omitempty"`
	DryRun    bool                 `json:"dry_run"`
	Errors    []Error              `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *SyncCreativesResponse) Summary() string {
	var created, updated, failed int
	for _, c := range r.Creatives {
		switch c.Action {
		case SyncActionCreated:
			created++
		case SyncActionUpdated:
			updated++
		case SyncActionFailed:
			failed++
		}
	}
	s := fmt.Sprintf("Synced %d creative(s): %d created, %d updated, %d failed.",
		len(r.Creatives), created, updated, failed)
	if r.DryRun {
		s += " (dry run)"
	}
	return s
}

// ListCreativesRequest filters the creative library. Singular media_buy_id
// and buyer_ref are merged into the plural lists for back-compat.
type ListCreativesRequest struct {
	MediaBuyIDs   []string   `json:"media_buy_ids,omitempty"`
	BuyerRefs     []string   `json:"buyer_refs,omitempty"`
	Status        string     `json:"status,omitempty"`
	Format        string     `json:"format,omitempty"`
	Search        string     `json:"search,omitempty"`
	CreatedAfter  *Timestamp `json:"created_after,omitempty"`
	CreatedBefore *Timestamp `json:"created_before,omitempty"`
	Limit         int        `json:"limit,omitempty"`
	Offset        int        `json:"offset,omitempty"`

	// Legacy singular forms.
	MediaBuyID string `json:"media_buy_id,omitempty"`
	BuyerRef   string `json:"buyer_ref,omitempty"`
}

// Pagination bounds applied to list operations.
const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Normalize merges singular filters, validates timestamps, and clamps
// pagination.
func (r *ListCreativesRequest) Normalize() []Error {
	var errs []Error
	r.MediaBuyIDs = mergeUnique(r.MediaBuyIDs, r.MediaBuyID)
	r.MediaBuyID = ""
	r.BuyerRefs = mergeUnique(r.BuyerRefs, r.BuyerRef)
	r.BuyerRef = ""

	if r.CreatedAfter != nil {
		if err := r.CreatedAfter.Validate("created_after"); err != nil {
			errs = append(errs, *err)
		}
	}
	if r.CreatedBefore != nil {
		if err := r.CreatedBefore.Validate("created_before"); err != nil {
			errs = append(errs, *err)
		}
	}
	if r.Limit <= 0 {
		r.Limit = defaultPageLimit
	}
	if r.Limit > maxPageLimit {
		r.Limit = maxPageLimit
	}
	if r.Offset < 0 {
		r.Offset = 0
	}
	return errs
}

// QuerySummary describes what a list query matched.
type QuerySummary struct {
	TotalMatching  int      `json:"total_matching"`
	Returned       int      `json:"returned"`
	FiltersApplied []string `json:"filters_applied,omitempty"`
}

// Pagination reports the window a list response covers.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
}

// ListCreativesResponse pages through the creative library.
type ListCreativesResponse struct {
	Creatives    []Creative    `json:"creatives"`
	QuerySummary *QuerySummary `json:"query_summary,omitempty"`
	Pagination   *Pagination   `json:"pagination,omitempty"`
	Errors       []Error       `json:"errors,omitempty"`
}

// Summary renders the human-readable line for the response envelope.
func (r *ListCreativesResponse) Summary() string {
	if r.QuerySummary != nil {
		return fmt.Sprintf("Found %d creative(s), returning %d.",
			r.QuerySummary.TotalMatching, r.QuerySummary.Returned)
	}
	return pluralSummary(len(r.Creatives), "creative", "creatives")
}
