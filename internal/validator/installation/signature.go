package installation

import (
	"context"
	"strconv"

	"solarops/internal/domain"
)

type signatureRule struct{}

func (signatureRule) RuleKey() string  { return "req.signature" }
func (signatureRule) RuleName() string { return "Required: Customer Signature" }

func (signatureRule) Check(_ context.Context, fields *domain.FieldSet) CheckResult {
	res := CheckResult{
		Passed:      fields.SignatureFound,
		FieldPath:   string(domain.FieldSignatureFound),
		ActualValue: strconv.FormatBool(fields.SignatureFound),
	}
	if !res.Passed {
		res.Message = "Missing customer signature"
	}
	return res
}
