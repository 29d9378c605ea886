// Package adcp holds the wire-level request and response types for every
// AdCP operation this agent implements, together with the validation and
// legacy-field normalization rules the protocol requires.
//
// Types in this package describe what buyers see on the wire. Internal
// bookkeeping (tenant ids, platform line-item ids, review state) lives on
// the storage models and never appears here, so marshaling a response can
// never leak it.
package adcp

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync/atomic"
)

// Version is the AdCP schema version this agent speaks. It is echoed in
// webhook payloads and may be requested explicitly via adcp_version fields.
const Version = "2.3.0"

// strictDecoding controls whether unknown JSON fields are rejected.
// Development deployments run strict to catch schema drift; production
// runs lenient so newer buyer clients keep working.
var strictDecoding atomic.Bool

// SetStrictDecoding toggles rejection of unknown request fields.
// Call once at startup, before serving traffic.
func SetStrictDecoding(on bool) { strictDecoding.Store(on) }

// StrictDecoding reports the current decode mode.
func StrictDecoding() bool { return strictDecoding.Load() }

// Decode unmarshals a raw request body into dst, honoring the configured
// strictness. A nil or empty body decodes as an empty object so operations
// with all-optional arguments can be invoked bare.
func Decode(raw []byte, dst any) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = []byte("{}")
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	if strictDecoding.Load() {
		dec.DisallowUnknownFields()
	}
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

// Severity grades a domain error.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Error is the structured domain error carried in response errors[] arrays.
// Protocol-level faults (malformed JSON-RPC, auth failures) never use this
// type; they surface as JSON-RPC error objects at the dispatcher boundary.
type Error struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity,omitempty"`
	Field    string   `json:"field,omitempty"`
}

// Stable error codes. The set is open: adapters and collaborators may
// introduce their own, but these are the ones this core emits.
const (
	CodeValidationError         = "validation_error"
	CodeAuthenticationError     = "authentication_error"
	CodeAuthorizationError      = "authorization_error"
	CodeTenantDetectionFailed   = "tenant_detection_failed"
	CodePrincipalNotInTenant    = "principal_not_in_tenant"
	CodePricingModelUnsupported = "pricing_model_unsupported"
	CodeProductNotFound         = "product_not_found"
	CodeFormatNotFound          = "format_not_found"
	CodeMediaBuyNotFound        = "media_buy_not_found"
	CodeSignalNotFound          = "signal_not_found"
	CodeAdapterError            = "adapter_error"
	CodeManualApprovalRequired  = "manual_approval_required"
	CodePolicyViolation         = "policy_violation"
)

func (e Error) Error() string {
	if e.Field != "" {
		return e.Code + " (" + e.Field + "): " + e.Message
	}
	return e.Code + ": " + e.Message
}

// ValidationError builds a field-scoped validation failure.
func ValidationError(field, format string, args ...any) Error {
	return Error{
		Code:     CodeValidationError,
		Message:  fmt.Sprintf(format, args...),
		Severity: SeverityError,
		Field:    field,
	}
}

// HasBlocking reports whether errs contains at least one error-severity
// entry. Warnings alone do not fail an operation.
func HasBlocking(errs []Error) bool {
	for _, e := range errs {
		if e.Severity != SeverityWarning {
			return true
		}
	}
	return false
}
