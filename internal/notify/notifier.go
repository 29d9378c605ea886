// Package notify alerts publisher operations teams about events that need
// a human: manual-approval holds, policy flags, creative reviews.
package notify

import "context"

// Notifier delivers operational alerts for a tenant.
type Notifier interface {
	Notify(ctx context.Context, tenantID, title, text string) error
}
