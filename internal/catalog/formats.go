package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// StandardFormatsAgentURL is the reference registry that defines the
// builtin standard formats.
const StandardFormatsAgentURL = "https://creatives.adcontextprotocol.org"

// standardFormats is the builtin catalog every tenant serves.
var standardFormats = []adcp.Format{
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "video_16x9"},
		Name:        "Video 16:9",
		Type:        adcp.FormatTypeVideo,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "Landscape video, VAST or hosted",
		Requirements: map[string]any{
			"aspect_ratio": "16:9", "max_duration_seconds": 30,
		},
	},
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "video_vertical"},
		Name:        "Vertical Video",
		Type:        adcp.FormatTypeVideo,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "9:16 vertical video for mobile placements",
		Requirements: map[string]any{
			"aspect_ratio": "9:16", "max_duration_seconds": 15,
		},
	},
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "display_300x250"},
		Name:        "Medium Rectangle",
		Type:        adcp.FormatTypeDisplay,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "300x250 display",
		Requirements: map[string]any{
			"width": 300, "height": 250,
		},
	},
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "display_728x90"},
		Name:        "Leaderboard",
		Type:        adcp.FormatTypeDisplay,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "728x90 display",
		Requirements: map[string]any{
			"width": 728, "height": 90,
		},
	},
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "native_feed"},
		Name:        "Native Feed Unit",
		Type:        adcp.FormatTypeNative,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "In-feed native with image and copy",
	},
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "audio_30s"},
		Name:        "Audio 30s",
		Type:        adcp.FormatTypeAudio,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "30 second audio spot",
	},
	{
		FormatID:    adcp.FormatID{AgentURL: StandardFormatsAgentURL, ID: "dooh_billboard"},
		Name:        "Digital Billboard",
		Type:        adcp.FormatTypeDOOH,
		Category:    adcp.FormatCategoryStandard,
		IsStandard:  true,
		Description: "Large-format digital out-of-home",
	},
}

// StandardFormats returns a copy of the builtin format set.
func StandardFormats() []adcp.Format {
	out := make([]adcp.Format, len(standardFormats))
	copy(out, standardFormats)
	return out
}

// customFormatStore is the persistence surface the registry consumes.
type customFormatStore interface {
	ListCustomFormats(ctx context.Context, tenantID string) ([]adcp.Format, error)
}

// FormatRegistry merges the builtin standard formats with tenant-defined
// custom formats and, when configured, formats fetched from a remote
// registry agent. Remote results are cached with a TTL.
type FormatRegistry struct {
	store     customFormatStore
	remoteURL string
	http      *http.Client
	logger    *zap.Logger

	mu        sync.RWMutex
	remote    []adcp.Format
	fetchedAt time.Time
	cacheTTL  time.Duration
}

// NewFormatRegistry builds a registry. store may be nil (builtins only);
// remoteURL may be empty to disable remote fetching.
func NewFormatRegistry(store customFormatStore, remoteURL string, logger *zap.Logger) *FormatRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FormatRegistry{
		store:     store,
		remoteURL: remoteURL,
		http:      &http.Client{Timeout: 5 * time.Second},
		logger:    logger,
		cacheTTL:  15 * time.Minute,
	}
}

// List returns the formats visible to a tenant, filtered per the request.
func (r *FormatRegistry) List(ctx context.Context, tenantID string, req *adcp.ListCreativeFormatsRequest) ([]adcp.Format, error) {
	all := StandardFormats()
	if r.store != nil {
		custom, err := r.store.ListCustomFormats(ctx, tenantID)
		if err != nil {
			return nil, err
		}
		all = append(all, custom...)
	}
	all = append(all, r.remoteFormats(ctx)...)

	var wantIDs map[string]bool
	if len(req.FormatIDs) > 0 {
		wantIDs = make(map[string]bool, len(req.FormatIDs))
		for _, id := range req.FormatIDs {
			wantIDs[id] = true
		}
	}

	out := all[:0]
	for _, f := range all {
		if req.Type != "" && f.Type != req.Type {
			continue
		}
		if req.StandardOnly != nil && *req.StandardOnly && !f.IsStandard {
			continue
		}
		if req.Category != "" && f.Category != req.Category {
			continue
		}
		if wantIDs != nil && !wantIDs[f.FormatID.ID] {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Resolve maps a format id to its definition for a tenant.
func (r *FormatRegistry) Resolve(ctx context.Context, tenantID, formatID string) (*adcp.Format, bool) {
	list, err := r.List(ctx, tenantID, &adcp.ListCreativeFormatsRequest{})
	if err != nil {
		return nil, false
	}
	for i := range list {
		if list[i].FormatID.ID == formatID {
			return &list[i], true
		}
	}
	return nil, false
}

// remoteFormats returns the cached remote set, refreshing when stale.
// Remote failures degrade to the cached (possibly empty) set.
func (r *FormatRegistry) remoteFormats(ctx context.Context) []adcp.Format {
	if r.remoteURL == "" {
		return nil
	}
	r.mu.RLock()
	fresh := time.Since(r.fetchedAt) < r.cacheTTL
	cached := r.remote
	r.mu.RUnlock()
	if fresh {
		return cached
	}

	fetched, err := r.fetchRemote(ctx)
	if err != nil {
		r.logger.Warn("remote format registry fetch failed",
			zap.String("url", r.remoteURL), zap.Error(err))
		r.mu.Lock()
		r.fetchedAt = time.Now() // back off until the TTL passes again
		r.mu.Unlock()
		return cached
	}

	r.mu.Lock()
	r.remote = fetched
	r.fetchedAt = time.Now()
	r.mu.Unlock()
	return fetched
}

func (r *FormatRegistry) fetchRemote(ctx context.Context) ([]adcp.Format, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.remoteURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build format registry request: %w", err)
	}
	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch format registry %s: %w", r.remoteURL, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("format registry returned status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read format registry response: %w", err)
	}

	var doc struct {
		Formats []adcp.Format `json:"formats"`
	}
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("decode format registry response: %w", err)
	}
	for i := range doc.Formats {
		if doc.Formats[i].FormatID.AgentURL == "" {
			doc.Formats[i].FormatID.AgentURL = r.remoteURL
		}
	}
	return doc.Formats, nil
}
