// Package extractor pulls installation paperwork fields out of raw OCR text
// with a fixed table of label-anchored patterns.
package extractor

import (
	"regexp"
	"strings"

	"solarops/internal/domain"
)

// Cardinality says whether a rule keeps the first match or every match.
type Cardinality int

const (
	Singular Cardinality = iota
	Plural
)

// Rule binds a field to the pattern that locates it. The first capture
// group of Pattern is the field value.
type Rule struct {
	Field       domain.FieldName
	Pattern     *regexp.Regexp
	Cardinality Cardinality
	Trim        bool
}

const signatureMarker = "Customer Signature"

var rules = []Rule{
	{Field: domain.FieldCustomerName, Pattern: regexp.MustCompile(`Name[:\s]+([A-Za-z ]+)`), Trim: true},
	{Field: domain.FieldCustomerAddress, Pattern: regexp.MustCompile(`Address[:\s]+(.+)`), Trim: true},
	{Field: domain.FieldUtilityAccountNumber, Pattern: regexp.MustCompile(`Utility Account[:\s]+(\d{8,12})`)},
	{Field: domain.FieldSystemCapacityKW, Pattern: regexp.MustCompile(`(?i)(\d{1,2}\.\d{1,2})\s*kW`)},
	{Field: domain.FieldPanelSerialNumbers, Pattern: regexp.MustCompile(`Panel SN[:\s]+([A-Z0-9\-]+)`), Cardinality: Plural},
	{Field: domain.FieldInverterSerialNumber, Pattern: regexp.MustCompile(`Inverter SN[:\s]+([A-Z0-9\-]+)`)},
	{Field: domain.FieldInstallDate, Pattern: regexp.MustCompile(`Install Date[:\s]+(\d{1,2}/\d{1,2}/\d{4})`)},
	{Field: domain.FieldRebateAmount, Pattern: regexp.MustCompile(`Rebate Amount[:\s]+Rs[\s]?([\d,]+\.\d+)`)},
}

// Rules returns a copy of the extraction table in evaluation order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Extract applies every rule to text. Rules are independent; a rule that
// finds nothing leaves its field absent. It never fails.
func Extract(text string) domain.FieldSet {
	var fs domain.FieldSet
	for _, r := range rules {
		switch r.Cardinality {
		case Plural:
			var values []string
			for _, m := range r.Pattern.FindAllStringSubmatch(text, -1) {
				values = append(values, r.clean(m[1]))
			}
			if len(values) > 0 {
				set(&fs, r.Field, values)
			}
		default:
			m := r.Pattern.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			if v := r.clean(m[1]); v != "" {
				set(&fs, r.Field, []string{v})
			}
		}
	}
	fs.SignatureFound = strings.Contains(text, signatureMarker)
	return fs
}

func (r Rule) clean(v string) string {
	if r.Trim {
		return strings.TrimSpace(v)
	}
	return v
}

func set(fs *domain.FieldSet, field domain.FieldName, values []string) {
	switch field {
	case domain.FieldCustomerName:
		fs.CustomerName = values[0]
	case domain.FieldCustomerAddress:
		fs.CustomerAddress = values[0]
	case domain.FieldUtilityAccountNumber:
		fs.UtilityAccountNumber = values[0]
	case domain.FieldSystemCapacityKW:
		fs.SystemCapacityKW = values[0]
	case domain.FieldPanelSerialNumbers:
		fs.PanelSerialNumbers = values
	case domain.FieldInverterSerialNumber:
		fs.InverterSerialNumber = values[0]
	case domain.FieldInstallDate:
		fs.InstallDate = values[0]
	case domain.FieldRebateAmount:
		fs.RebateAmount = values[0]
	}
}
