package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// webhookResolver supplies the per-tenant webhook target.
type webhookResolver interface {
	WebhookURL(ctx context.Context, tenantID string) (string, error)
}

// SlackNotifier posts alerts to Slack incoming webhooks. Each tenant may
// carry its own webhook; a default URL covers the rest. Tenants with no
// webhook at all are skipped silently.
type SlackNotifier struct {
	resolver   webhookResolver
	defaultURL string
	http       *http.Client
	logger     *zap.Logger
}

// NewSlackNotifier creates a SlackNotifier. resolver may be nil, in which
// case every alert goes to defaultURL.
func NewSlackNotifier(resolver webhookResolver, defaultURL string, logger *zap.Logger) *SlackNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlackNotifier{
		resolver:   resolver,
		defaultURL: defaultURL,
		http:       &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Notify implements Notifier.
func (s *SlackNotifier) Notify(ctx context.Context, tenantID, title, text string) error {
	url := s.defaultURL
	if s.resolver != nil {
		tenantURL, err := s.resolver.WebhookURL(ctx, tenantID)
		if err == nil && tenantURL != "" {
			url = tenantURL
		}
	}
	if url == "" {
		return nil
	}

	payload, err := json.Marshal(map[string]string{
		"text": fmt.Sprintf("*%s*\n%s", title, text),
	})
	if err != nil {
		return fmt.Errorf("marshal slack payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.http.Do(req)
	if err != nil {
		return fmt.Errorf("post slack notification: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}

	s.logger.Debug("notification sent",
		zap.String("tenant_id", tenantID),
		zap.String("title", title),
	)
	return nil
}
