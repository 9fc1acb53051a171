package entitlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sitewright/previewd/internal/types"
)

func TestCheck(t *testing.T) {
	tests := []struct {
		name     string
		intentID string
		ent      types.Entitlements
		allowed  bool
		reason   string
	}{
		{
			name:     "lead capture with remaining quota",
			intentID: "lead.capture",
			ent:      types.Entitlements{Limits: map[string]int{LimitSubmissionsPerMonth: 100}},
			allowed:  true,
		},
		{
			name:     "lead capture with exhausted quota",
			intentID: "lead.capture",
			ent:      types.Entitlements{Limits: map[string]int{LimitSubmissionsPerMonth: 0}},
			allowed:  false,
			reason:   "Monthly submission limit reached.",
		},
		{
			name:     "lead capture with no declared limit",
			intentID: "lead.capture",
			ent:      types.Entitlements{},
			allowed:  true,
		},
		{
			name:     "subscribe shares the submission limit",
			intentID: "subscribe.newsletter",
			ent:      types.Entitlements{Limits: map[string]int{LimitSubmissionsPerMonth: -1}},
			allowed:  false,
			reason:   "Monthly submission limit reached.",
		},
		{
			name:     "automation with feature enabled",
			intentID: "automation.run",
			ent:      types.Entitlements{Features: map[string]bool{FeatureAutomations: true}},
			allowed:  true,
		},
		{
			name:     "automation without feature",
			intentID: "automation.run",
			ent:      types.Entitlements{Features: map[string]bool{FeatureAutomations: false}},
			allowed:  false,
			reason:   "Automations not available on current plan.",
		},
		{
			name:     "automation with no feature map",
			intentID: "automation.trigger",
			ent:      types.Entitlements{},
			allowed:  false,
			reason:   "Automations not available on current plan.",
		},
		{
			name:     "unknown intent family is allowed",
			intentID: "nav.goto",
			ent:      types.Entitlements{},
			allowed:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := Check(tt.intentID, tt.ent)

			assert.Equal(t, tt.allowed, decision.Allowed)
			assert.Equal(t, tt.reason, decision.Reason)
		})
	}
}
