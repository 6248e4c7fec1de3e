package validator

import (
	"context"

	"solarops/internal/domain"
	"solarops/internal/validator/installation"
)

// Validator is the interface for a single checklist rule.
type Validator interface {
	Check(ctx context.Context, fields *domain.FieldSet) installation.CheckResult
	RuleKey() string
	RuleName() string
}

var defaultEngine = NewEngine(DefaultRegistry())

// Validate runs the installation checklist with the default engine.
func Validate(fields domain.FieldSet) domain.ValidationVerdict {
	return defaultEngine.Validate(context.Background(), &fields)
}

// Confidence applies the flat penalty: 10 points per issue, floored at 0.
func Confidence(issueCount int) int {
	c := 100 - 10*issueCount
	if c < 0 {
		return 0
	}
	return c
}
