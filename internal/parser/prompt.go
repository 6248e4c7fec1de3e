package parser

// ExtractionSystemPrompt instructs the model to behave as a strict field extractor.
const ExtractionSystemPrompt = "You extract structured data from OCR text of solar and battery installation paperwork. " +
	"Reply with a single JSON object and nothing else."

// BuildFieldPrompt returns the user prompt asking for the installation fields in text.
func BuildFieldPrompt(text string) string {
	return `Extract the following fields from the installation document below and return ONLY a raw JSON object
(no markdown, no code fences, no explanation).

Allowed keys (omit a key when the value is not present in the document; never invent values):
{
  "customer_name": "",            // customer's full name, letters and spaces only
  "customer_address": "",         // full installation address on one line
  "utility_account_number": "",   // 8 to 12 digits
  "system_capacity_kw": "",       // decimal number as text, kW, e.g. "5.50"
  "panel_serial_numbers": [],     // every panel serial, uppercase letters, digits and dashes
  "inverter_serial_number": "",
  "install_date": "",             // exactly as written, DD/MM/YYYY
  "rebate_amount": "",            // decimal text without currency, e.g. "12,500.00"
  "signature_found": false        // true only if a customer signature block is present
}

Do not add any other keys.

DOCUMENT:
` + text
}
