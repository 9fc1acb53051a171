// Package entitlement gates intent execution against the plan's
// feature flags and numeric limits.
package entitlement

import (
	"strings"

	"github.com/sitewright/previewd/internal/types"
)

// Limit and feature names the policy evaluates
const (
	LimitSubmissionsPerMonth = "submissionsPerMonth"
	FeatureAutomations       = "automations"
)

// Decision is the result of an entitlement check
type Decision struct {
	Allowed bool
	Reason  string
}

// Check decides whether an intent may execute under the given
// entitlements. Intents outside the known prefixes are allowed; the
// policy is deliberately fail-open so new intent families work without
// a plan change.
func Check(intentID string, ent types.Entitlements) Decision {
	if strings.HasPrefix(intentID, "lead.") || strings.HasPrefix(intentID, "subscribe.") {
		if limit, ok := ent.Limit(LimitSubmissionsPerMonth); ok && limit <= 0 {
			return Decision{Reason: "Monthly submission limit reached."}
		}
		return Decision{Allowed: true}
	}

	if strings.HasPrefix(intentID, "automation.") {
		if !ent.Feature(FeatureAutomations) {
			return Decision{Reason: "Automations not available on current plan."}
		}
		return Decision{Allowed: true}
	}

	return Decision{Allowed: true}
}
