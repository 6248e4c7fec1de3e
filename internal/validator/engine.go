package validator

import (
	"context"

	"go.uber.org/zap"

	"solarops/internal/domain"
)

// Engine runs every registered rule over a FieldSet. Rules never short-circuit.
type Engine struct {
	registry *Registry
}

// NewEngine creates a new validation engine.
func NewEngine(registry *Registry) *Engine {
	return &Engine{registry: registry}
}

// Validate evaluates the checklist and derives the verdict.
func (e *Engine) Validate(ctx context.Context, fields *domain.FieldSet) domain.ValidationVerdict {
	if fields == nil {
		fields = &domain.FieldSet{}
	}

	issues := make([]string, 0)
	results := make([]domain.RuleResult, 0, len(e.registry.order))
	for _, v := range e.registry.All() {
		r := v.Check(ctx, fields)
		results = append(results, domain.RuleResult{
			RuleKey:   v.RuleKey(),
			RuleName:  v.RuleName(),
			FieldPath: r.FieldPath,
			Passed:    r.Passed,
			Actual:    r.ActualValue,
			Message:   r.Message,
		})
		if !r.Passed {
			issues = append(issues, r.Message)
		}
	}

	verdict := domain.ValidationVerdict{
		Valid:      len(issues) == 0,
		Issues:     issues,
		Confidence: Confidence(len(issues)),
		Results:    results,
	}
	zap.L().Debug("validator.Engine: checklist evaluated",
		zap.Int("issues", len(issues)), zap.Int("confidence", verdict.Confidence))
	return verdict
}
