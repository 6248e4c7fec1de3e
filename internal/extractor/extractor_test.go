package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"solarops/internal/domain"
	"solarops/internal/extractor"
)

const completeForm = `SOLAR INSTALLATION COMPLETION FORM
Customer Name: Priya Raman
Address: 14 Lake View Road, Chennai 600041
Utility Account: 1234567890
System Capacity: 5.50 kW
Panel SN: PNL-2024-001
Panel SN: PNL-2024-002
Inverter SN: INV-88-A
Install Date: 03/11/2024
Rebate Amount: Rs 12,500.00
Customer Signature: ________`

func TestExtract_CompleteForm(t *testing.T) {
	fs := extractor.Extract(completeForm)

	assert.Equal(t, "Priya Raman", fs.CustomerName)
	assert.Equal(t, "14 Lake View Road, Chennai 600041", fs.CustomerAddress)
	assert.Equal(t, "1234567890", fs.UtilityAccountNumber)
	assert.Equal(t, "5.50", fs.SystemCapacityKW)
	assert.Equal(t, []string{"PNL-2024-001", "PNL-2024-002"}, fs.PanelSerialNumbers)
	assert.Equal(t, "INV-88-A", fs.InverterSerialNumber)
	assert.Equal(t, "03/11/2024", fs.InstallDate)
	assert.Equal(t, "12,500.00", fs.RebateAmount)
	assert.True(t, fs.SignatureFound)
}

func TestExtract_BareCapacityLineAndShortNameLabel(t *testing.T) {
	text := "Name: Jane Doe\nAddress: 12 Oak St\nUtility Account: 12345678\n5.50 kW\nPanel SN: AB-1\nPanel SN: AB-2\nInverter SN: INV-9\nInstall Date: 01/07/2025\nCustomer Signature"

	fs := extractor.Extract(text)

	assert.Equal(t, "Jane Doe", fs.CustomerName)
	assert.Equal(t, "12 Oak St", fs.CustomerAddress)
	assert.Equal(t, "12345678", fs.UtilityAccountNumber)
	assert.Equal(t, "5.50", fs.SystemCapacityKW)
	assert.Equal(t, []string{"AB-1", "AB-2"}, fs.PanelSerialNumbers)
	assert.Equal(t, "INV-9", fs.InverterSerialNumber)
	assert.Equal(t, "01/07/2025", fs.InstallDate)
	assert.True(t, fs.SignatureFound)
}

func TestExtract_EmptyText(t *testing.T) {
	fs := extractor.Extract("")

	assert.Equal(t, domain.FieldSet{}, fs)
	assert.False(t, fs.SignatureFound)
	assert.Nil(t, fs.PanelSerialNumbers)
}

func TestExtract_SingularFieldTakesFirstMatch(t *testing.T) {
	fs := extractor.Extract("Inverter SN: FIRST-1\nInverter SN: SECOND-2")
	assert.Equal(t, "FIRST-1", fs.InverterSerialNumber)
}

func TestExtract_CapacityCaseInsensitiveUnit(t *testing.T) {
	fs := extractor.Extract("rated 7.2kw array")
	assert.Equal(t, "7.2", fs.SystemCapacityKW)
}

func TestExtract_CapacityWithoutDecimalIsIgnored(t *testing.T) {
	fs := extractor.Extract("System: 5 kW")
	assert.Empty(t, fs.SystemCapacityKW)
}

func TestExtract_UtilityAccountLengthBounds(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"too short", "Utility Account: 1234567", ""},
		{"eight digits", "Utility Account: 12345678", "12345678"},
		{"twelve digits", "Utility Account: 123456789012", "123456789012"},
		{"thirteen digits truncated to twelve", "Utility Account: 1234567890123", "123456789012"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := extractor.Extract(tt.text)
			assert.Equal(t, tt.want, fs.UtilityAccountNumber)
		})
	}
}

func TestExtract_SerialsRequireUppercase(t *testing.T) {
	fs := extractor.Extract("Panel SN: abc-1")
	assert.Nil(t, fs.PanelSerialNumbers)
}

func TestExtract_RebateNeedsCurrencyPrefix(t *testing.T) {
	assert.Empty(t, extractor.Extract("Rebate Amount: 500.00").RebateAmount)
	assert.Equal(t, "500.00", extractor.Extract("Rebate Amount: Rs500.00").RebateAmount)
}

func TestExtract_SignatureMarkerOnly(t *testing.T) {
	fs := extractor.Extract("signed by Customer Signature")
	assert.True(t, fs.SignatureFound)
	assert.False(t, extractor.Extract("customer signature").SignatureFound)
}

func TestRules_OrderAndCopy(t *testing.T) {
	r := extractor.Rules()
	assert.Len(t, r, 8)
	assert.Equal(t, domain.FieldCustomerName, r[0].Field)
	assert.Equal(t, extractor.Plural, r[4].Cardinality)

	r[0].Field = "mutated"
	assert.Equal(t, domain.FieldCustomerName, extractor.Rules()[0].Field)
}
