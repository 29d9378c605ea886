// Package creatives persists the creative library. Review state, feedback,
// and platform identifiers live here and never reach the wire types.
package creatives

import (
	"time"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// Review states of a stored creative.
const (
	StatusPendingReview = "pending_review"
	StatusApproved      = "approved"
	StatusRejected      = "rejected"
)

// Creative is the stored form of a creative asset.
type Creative struct {
	CreativeID     string         `json:"creative_id" db:"creative_id"`
	TenantID       string         `json:"-" db:"tenant_id"`
	PrincipalID    string         `json:"-" db:"principal_id"`
	Name           string         `json:"name,omitempty" db:"name"`
	Format         *adcp.FormatID `json:"format,omitempty" db:"format"`
	Snippet        string         `json:"snippet,omitempty" db:"snippet"`
	SnippetType    string         `json:"snippet_type,omitempty" db:"snippet_type"`
	URL            string         `json:"url,omitempty" db:"url"`
	ClickURL       string         `json:"click_url,omitempty" db:"click_url"`
	Width          int            `json:"width,omitempty" db:"width"`
	Height         int            `json:"height,omitempty" db:"height"`
	Duration       float64        `json:"duration,omitempty" db:"duration"`
	Status         string         `json:"-" db:"status"`
	ReviewFeedback string         `json:"-" db:"review_feedback"`
	PlatformID     string         `json:"-" db:"platform_id"`
	CreatedAt      time.Time      `json:"-" db:"created_at"`
	UpdatedAt      time.Time      `json:"-" db:"updated_at"`
}

// FromWire builds a stored creative from its wire form. The caller owns
// status assignment.
func FromWire(tenantID, principalID string, w *adcp.Creative) *Creative {
	return &Creative{
		CreativeID:  w.CreativeID,
		TenantID:    tenantID,
		PrincipalID: principalID,
		Name:        w.Name,
		Format:      w.Format,
		Snippet:     w.Snippet,
		SnippetType: w.SnippetType,
		URL:         w.URL,
		ClickURL:    w.ClickURL,
		Width:       w.Width,
		Height:      w.Height,
		Duration:    w.Duration,
	}
}

// ToWire projects the stored creative onto its buyer-visible form.
func (c *Creative) ToWire() adcp.Creative {
	return adcp.Creative{
		CreativeID:  c.CreativeID,
		Name:        c.Name,
		Format:      c.Format,
		Snippet:     c.Snippet,
		SnippetType: c.SnippetType,
		URL:         c.URL,
		ClickURL:    c.ClickURL,
		Width:       c.Width,
		Height:      c.Height,
		Duration:    c.Duration,
	}
}

// Diff lists the fields an incoming wire creative would change, by wire
// name. An empty diff means the sync action is "unchanged".
func (c *Creative) Diff(w *adcp.Creative) []string {
	var changed []string
	if w.Name != c.Name {
		changed = append(changed, "name")
	}
	if !formatEqual(c.Format, w.Format) {
		changed = append(changed, "format")
	}
	if w.Snippet != c.Snippet {
		changed = append(changed, "snippet")
	}
	if w.SnippetType != c.SnippetType {
		changed = append(changed, "snippet_type")
	}
	if w.URL != c.URL {
		changed = append(changed, "url")
	}
	if w.ClickURL != c.ClickURL {
		changed = append(changed, "click_url")
	}
	if w.Width != c.Width {
		changed = append(changed, "width")
	}
	if w.Height != c.Height {
		changed = append(changed, "height")
	}
	if w.Duration != c.Duration {
		changed = append(changed, "duration")
	}
	return changed
}

// Apply copies the wire fields over the stored creative. Review state is
// reset by the caller when content changed.
func (c *Creative) Apply(w *adcp.Creative) {
	c.Name = w.Name
	c.Format = w.Format
	c.Snippet = w.Snippet
	c.SnippetType = w.SnippetType
	c.URL = w.URL
	c.ClickURL = w.ClickURL
	c.Width = w.Width
	c.Height = w.Height
	c.Duration = w.Duration
}

func formatEqual(a, b *adcp.FormatID) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.ID == b.ID && a.AgentURL == b.AgentURL
}
