// Package suggestion turns validation issues into remediation text for reviewers.
package suggestion

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"solarops/internal/domain"
	"solarops/internal/port"
)

// Separator joins per-issue suggestions.
const Separator = " | "

// Generator produces reviewer-facing advice. It never fails.
type Generator interface {
	Suggest(ctx context.Context, fields domain.FieldSet, issues []string) string
}

type cannedEntry struct {
	needle string
	advice string
}

// Evaluated in order; the first needle contained in the lowercased issue wins.
var cannedTable = []cannedEntry{
	{"customer name", "Verify customer name field."},
	{"address", "Ensure full customer address is present."},
	{"utility", "Add valid utility account number."},
	{"panel serial", "Attach correct panel serial numbers."},
}

// Canned maps each issue through a fixed advice table.
type Canned struct{}

// NewCanned returns the table-driven generator.
func NewCanned() Canned { return Canned{} }

func (Canned) Suggest(_ context.Context, _ domain.FieldSet, issues []string) string {
	parts := make([]string, 0, len(issues))
	for _, issue := range issues {
		parts = append(parts, adviceFor(issue))
	}
	return strings.Join(parts, Separator)
}

func adviceFor(issue string) string {
	lower := strings.ToLower(issue)
	for _, e := range cannedTable {
		if strings.Contains(lower, e.needle) {
			return e.advice
		}
	}
	return "Check: " + issue
}

const modelSystemPrompt = "You review solar installation paperwork for a compliance team. " +
	"Given the extracted fields and the checklist issues, reply with short, concrete remediation steps " +
	"for the installer, one per issue, separated by \" | \". Plain text only."

// Model asks a text completer for remediation advice and falls back to
// Canned when the completer errors or returns nothing.
type Model struct {
	completer port.TextCompleter
	fallback  Canned
}

// NewModel creates a model-derived generator.
func NewModel(completer port.TextCompleter) *Model {
	return &Model{completer: completer}
}

func (m *Model) Suggest(ctx context.Context, fields domain.FieldSet, issues []string) string {
	if len(issues) == 0 {
		return ""
	}
	prompt := buildPrompt(fields, issues)
	out, err := m.completer.Complete(ctx, modelSystemPrompt, prompt)
	if err != nil {
		zap.L().Warn("suggestion.Model: completion failed, using canned advice", zap.Error(err))
		return m.fallback.Suggest(ctx, fields, issues)
	}
	out = strings.TrimSpace(out)
	if out == "" {
		zap.L().Warn("suggestion.Model: empty completion, using canned advice")
		return m.fallback.Suggest(ctx, fields, issues)
	}
	return out
}

func buildPrompt(fields domain.FieldSet, issues []string) string {
	var b strings.Builder
	b.WriteString("Extracted fields:\n")
	fmt.Fprintf(&b, "- customer_name: %q\n", fields.CustomerName)
	fmt.Fprintf(&b, "- customer_address: %q\n", fields.CustomerAddress)
	fmt.Fprintf(&b, "- utility_account_number: %q\n", fields.UtilityAccountNumber)
	fmt.Fprintf(&b, "- system_capacity_kw: %q\n", fields.SystemCapacityKW)
	fmt.Fprintf(&b, "- panel_serial_numbers: %q\n", fields.PanelSerialNumbers)
	fmt.Fprintf(&b, "- inverter_serial_number: %q\n", fields.InverterSerialNumber)
	fmt.Fprintf(&b, "- install_date: %q\n", fields.InstallDate)
	fmt.Fprintf(&b, "- signature_found: %t\n", fields.SignatureFound)
	b.WriteString("\nIssues:\n")
	for _, issue := range issues {
		b.WriteString("- ")
		b.WriteString(issue)
		b.WriteString("\n")
	}
	return b.String()
}
