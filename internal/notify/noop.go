package notify

import (
	"context"

	"go.uber.org/zap"
)

// NoopNotifier logs alerts to zap instead of delivering them.
// Use in development or when no webhook is configured.
type NoopNotifier struct {
	logger *zap.Logger
}

// NewNoopNotifier creates a NoopNotifier backed by the given logger.
func NewNoopNotifier(logger *zap.Logger) *NoopNotifier {
	return &NoopNotifier{logger: logger}
}

// Notify logs the alert and returns nil.
func (n *NoopNotifier) Notify(_ context.Context, tenantID, title, text string) error {
	n.logger.Info("notification suppressed (noop sender)",
		zap.String("tenant_id", tenantID),
		zap.String("title", title),
		zap.String("text", text),
	)
	return nil
}
