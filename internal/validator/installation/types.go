// Package installation holds the compliance checklist for solar installation
// paperwork.
package installation

import (
	"context"

	"solarops/internal/domain"
)

// CheckResult is a local result type to avoid an import cycle with the validator package.
type CheckResult struct {
	Passed      bool
	FieldPath   string
	ActualValue string
	Message     string
}

// Rule is one checklist item.
type Rule interface {
	Check(ctx context.Context, fields *domain.FieldSet) CheckResult
	RuleKey() string
	RuleName() string
}

// Capacity bounds in kW, inclusive.
const (
	MinCapacityKW = 0.5
	MaxCapacityKW = 20.0
)

// AllRules returns the checklist in issue order.
func AllRules() []Rule {
	rules := RequiredFieldRules()
	out := make([]Rule, 0, len(rules)+2)
	out = append(out, rules[:3]...)
	out = append(out, &capacityRule{min: MinCapacityKW, max: MaxCapacityKW})
	out = append(out, rules[3:]...)
	out = append(out, &signatureRule{})
	return out
}
