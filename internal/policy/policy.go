// Package policy screens briefs and brand manifests before inventory is
// offered or a buy is created. It scores inputs against a fixed rule set
// and can reject high-risk requests outright.
package policy

import (
	"context"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// Finding is a single rule match returned by the checker.
type Finding struct {
	Rule        string  `json:"rule"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// Report is the output of a policy run.
type Report struct {
	// Score is the aggregate risk score (0-100).
	Score int `json:"score"`

	// Severity is a label derived from Score:
	//   0-14   -> "none"
	//   15-34  -> "low"
	//   35-64  -> "medium"
	//   65-84  -> "high"
	//   85-100 -> "critical"
	Severity string `json:"severity"`

	// Findings lists every rule that triggered.
	Findings []Finding `json:"findings"`

	// Rejected is true when Score >= 85. Whether rejection blocks the
	// request depends on the tenant's policy mode.
	Rejected bool `json:"rejected"`
}

// Checker analyses buyer input for policy violations.
type Checker interface {
	Check(ctx context.Context, brief string, manifest *adcp.BrandManifest) (*Report, error)
}

// severityLabel maps a 0-100 score to a severity string.
func severityLabel(score int) string {
	switch {
	case score >= 85:
		return "critical"
	case score >= 65:
		return "high"
	case score >= 35:
		return "medium"
	case score >= 15:
		return "low"
	default:
		return "none"
	}
}
