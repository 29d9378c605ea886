package policy

import (
	"context"
	"strings"

	"github.com/adcontexthq/salesagent/internal/adcp"
)

// ruleFunc inspects the combined brief and manifest text and returns zero
// or more Findings if its rule matches.
type ruleFunc func(brief, manifest string) []Finding

// RuleChecker is the default Checker implementation. It runs a fixed set
// of pattern-matching rules against the request text and accumulates a
// score.
type RuleChecker struct {
	rules []ruleFunc
}

// NewRuleChecker returns a RuleChecker loaded with the default rule set.
func NewRuleChecker() *RuleChecker {
	c := &RuleChecker{}
	c.rules = []ruleFunc{
		ruleProhibitedCategories,
		ruleRestrictedCategories,
		ruleMinorsTargeting,
		ruleHealthClaims,
	}
	return c
}

// Check implements Checker.
func (c *RuleChecker) Check(_ context.Context, brief string, manifest *adcp.BrandManifest) (*Report, error) {
	manifestText := ""
	if manifest != nil {
		manifestText = manifest.Text()
	}

	var findings []Finding
	for _, r := range c.rules {
		findings = append(findings, r(strings.ToLower(brief), strings.ToLower(manifestText))...)
	}

	total := 0
	for _, f := range findings {
		total += int(f.Confidence * 25)
	}
	if total > 100 {
		total = 100
	}

	if findings == nil {
		findings = []Finding{}
	}

	return &Report{
		Score:    total,
		Severity: severityLabel(total),
		Findings: findings,
		Rejected: total >= 85,
	}, nil
}

// ── Rules ─────────────────────────────────────────────────────────────────────

// prohibitedCategoryTerms name offerings no tenant may transact.
var prohibitedCategoryTerms = []string{
	"weapons", "firearm", "ammunition", "explosive", "tobacco", "cigarette",
	"vaping", "counterfeit", "illegal drug", "narcotic",
}

func ruleProhibitedCategories(brief, manifest string) []Finding {
	var findings []Finding
	for _, term := range prohibitedCategoryTerms {
		if strings.Contains(brief, term) || strings.Contains(manifest, term) {
			findings = append(findings, Finding{
				Rule:        "prohibited_category",
				Description: "Request references a prohibited category: " + term,
				Confidence:  1.0,
			})
		}
	}
	return findings
}

// restrictedCategoryTerms need publisher-side clearance before transacting.
var restrictedCategoryTerms = []string{
	"alcohol", "beer", "wine", "spirits", "gambling", "casino", "betting",
	"lottery", "cannabis", "cbd", "cryptocurrency", "crypto exchange",
}

func ruleRestrictedCategories(brief, manifest string) []Finding {
	var findings []Finding
	for _, term := range restrictedCategoryTerms {
		if strings.Contains(brief, term) || strings.Contains(manifest, term) {
			findings = append(findings, Finding{
				Rule:        "restricted_category",
				Description: "Request references a restricted category: " + term,
				Confidence:  0.6,
			})
		}
	}
	return findings
}

// minorsTargetingPhrases suggest the campaign aims at children.
var minorsTargetingPhrases = []string{
	"target children", "targeting kids", "under 13", "under 16",
	"elementary school", "preschool",
}

func ruleMinorsTargeting(brief, manifest string) []Finding {
	var findings []Finding
	for _, phrase := range minorsTargetingPhrases {
		if strings.Contains(brief, phrase) || strings.Contains(manifest, phrase) {
			findings = append(findings, Finding{
				Rule:        "minors_targeting",
				Description: "Request appears to target minors: " + phrase,
				Confidence:  0.9,
			})
		}
	}
	return findings
}

// healthClaimPhrases suggest unsubstantiated medical claims.
var healthClaimPhrases = []string{
	"miracle cure", "cures cancer", "guaranteed weight loss", "fda approval pending",
	"reverses aging",
}

func ruleHealthClaims(brief, manifest string) []Finding {
	var findings []Finding
	for _, phrase := range healthClaimPhrases {
		if strings.Contains(brief, phrase) || strings.Contains(manifest, phrase) {
			findings = append(findings, Finding{
				Rule:        "health_claim",
				Description: "Request contains an unsubstantiated health claim: " + phrase,
				Confidence:  0.8,
			})
		}
	}
	return findings
}
