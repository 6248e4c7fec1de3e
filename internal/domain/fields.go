package domain

// FieldName identifies one key of the FieldSet vocabulary.
type FieldName string

const (
	FieldCustomerName         FieldName = "customer_name"
	FieldCustomerAddress      FieldName = "customer_address"
	FieldUtilityAccountNumber FieldName = "utility_account_number"
	FieldSystemCapacityKW     FieldName = "system_capacity_kw"
	FieldPanelSerialNumbers   FieldName = "panel_serial_numbers"
	FieldInverterSerialNumber FieldName = "inverter_serial_number"
	FieldInstallDate          FieldName = "install_date"
	FieldRebateAmount         FieldName = "rebate_amount"
	FieldSignatureFound       FieldName = "signature_found"
)

// AllFieldNames lists the vocabulary in extraction order.
var AllFieldNames = []FieldName{
	FieldCustomerName,
	FieldCustomerAddress,
	FieldUtilityAccountNumber,
	FieldSystemCapacityKW,
	FieldPanelSerialNumbers,
	FieldInverterSerialNumber,
	FieldInstallDate,
	FieldRebateAmount,
	FieldSignatureFound,
}

// DefaultCriticalFields are the fields whose absence triggers the alternate
// extraction strategy.
var DefaultCriticalFields = []FieldName{
	FieldCustomerName,
	FieldSystemCapacityKW,
	FieldPanelSerialNumbers,
}

// IsKnownField reports whether name belongs to the FieldSet vocabulary.
func IsKnownField(name string) bool {
	for _, f := range AllFieldNames {
		if string(f) == name {
			return true
		}
	}
	return false
}

// FieldSet holds the values extracted from one document. A zero value means
// the field was not found; missing and empty are treated identically.
// Capacity and rebate are kept as the decimal text that was extracted.
type FieldSet struct {
	CustomerName         string   `json:"customer_name,omitempty"`
	CustomerAddress      string   `json:"customer_address,omitempty"`
	UtilityAccountNumber string   `json:"utility_account_number,omitempty"`
	SystemCapacityKW     string   `json:"system_capacity_kw,omitempty"`
	PanelSerialNumbers   []string `json:"panel_serial_numbers,omitempty"`
	InverterSerialNumber string   `json:"inverter_serial_number,omitempty"`
	InstallDate          string   `json:"install_date,omitempty"`
	RebateAmount         string   `json:"rebate_amount,omitempty"`
	SignatureFound       bool     `json:"signature_found"`
}

// IsPopulated reports whether the named field carries a usable value.
func (f *FieldSet) IsPopulated(name FieldName) bool {
	switch name {
	case FieldCustomerName:
		return f.CustomerName != ""
	case FieldCustomerAddress:
		return f.CustomerAddress != ""
	case FieldUtilityAccountNumber:
		return f.UtilityAccountNumber != ""
	case FieldSystemCapacityKW:
		return f.SystemCapacityKW != ""
	case FieldPanelSerialNumbers:
		return len(f.PanelSerialNumbers) > 0
	case FieldInverterSerialNumber:
		return f.InverterSerialNumber != ""
	case FieldInstallDate:
		return f.InstallDate != ""
	case FieldRebateAmount:
		return f.RebateAmount != ""
	case FieldSignatureFound:
		return f.SignatureFound
	default:
		return false
	}
}

// MissingAny reports whether any of the given fields is unpopulated.
func (f *FieldSet) MissingAny(names []FieldName) bool {
	for _, n := range names {
		if !f.IsPopulated(n) {
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (f FieldSet) Clone() FieldSet {
	if f.PanelSerialNumbers != nil {
		serials := make([]string, len(f.PanelSerialNumbers))
		copy(serials, f.PanelSerialNumbers)
		f.PanelSerialNumbers = serials
	}
	return f
}
