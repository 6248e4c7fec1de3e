package installation

import (
	"context"
	"strings"

	"solarops/internal/domain"
)

// requiredFieldRule checks that a required field is populated.
type requiredFieldRule struct {
	ruleKey  string
	ruleName string
	field    domain.FieldName
	issue    string
	actual   func(*domain.FieldSet) string
}

func (r *requiredFieldRule) RuleKey() string  { return r.ruleKey }
func (r *requiredFieldRule) RuleName() string { return r.ruleName }

func (r *requiredFieldRule) Check(_ context.Context, fields *domain.FieldSet) CheckResult {
	res := CheckResult{
		Passed:      fields.IsPopulated(r.field),
		FieldPath:   string(r.field),
		ActualValue: r.actual(fields),
	}
	if !res.Passed {
		res.Message = r.issue
	}
	return res
}

// RequiredFieldRules returns the presence checks in checklist order.
func RequiredFieldRules() []Rule {
	return []Rule{
		&requiredFieldRule{
			ruleKey: "req.customer_name", ruleName: "Required: Customer Name",
			field: domain.FieldCustomerName, issue: "Missing customer name",
			actual: func(f *domain.FieldSet) string { return f.CustomerName },
		},
		&requiredFieldRule{
			ruleKey: "req.customer_address", ruleName: "Required: Customer Address",
			field: domain.FieldCustomerAddress, issue: "Missing customer address",
			actual: func(f *domain.FieldSet) string { return f.CustomerAddress },
		},
		&requiredFieldRule{
			ruleKey: "req.utility_account_number", ruleName: "Required: Utility Account Number",
			field: domain.FieldUtilityAccountNumber, issue: "Missing utility account number",
			actual: func(f *domain.FieldSet) string { return f.UtilityAccountNumber },
		},
		&requiredFieldRule{
			ruleKey: "req.panel_serial_numbers", ruleName: "Required: Panel Serial Numbers",
			field: domain.FieldPanelSerialNumbers, issue: "No panel serial numbers found",
			actual: func(f *domain.FieldSet) string { return strings.Join(f.PanelSerialNumbers, ",") },
		},
		&requiredFieldRule{
			ruleKey: "req.inverter_serial_number", ruleName: "Required: Inverter Serial Number",
			field: domain.FieldInverterSerialNumber, issue: "Missing inverter serial number",
			actual: func(f *domain.FieldSet) string { return f.InverterSerialNumber },
		},
		&requiredFieldRule{
			ruleKey: "req.install_date", ruleName: "Required: Install Date",
			field: domain.FieldInstallDate, issue: "Missing install date",
			actual: func(f *domain.FieldSet) string { return f.InstallDate },
		},
	}
}
