package validator

import "solarops/internal/domain"

// FieldValidationStatus is the per-field outcome shown to reviewers.
type FieldValidationStatus string

const (
	FieldStatusValid   FieldValidationStatus = "valid"
	FieldStatusInvalid FieldValidationStatus = "invalid"
)

// FieldStatus represents the computed validation state for a single field.
type FieldStatus struct {
	Status   FieldValidationStatus `json:"status"`
	Messages []string              `json:"messages"`
}

// ComputeFieldStatuses groups rule results by field path. A field is invalid
// if any rule touching it failed.
func ComputeFieldStatuses(results []domain.RuleResult) map[string]*FieldStatus {
	out := make(map[string]*FieldStatus, len(results))
	for _, r := range results {
		fs, ok := out[r.FieldPath]
		if !ok {
			fs = &FieldStatus{Status: FieldStatusValid, Messages: []string{}}
			out[r.FieldPath] = fs
		}
		if !r.Passed {
			fs.Status = FieldStatusInvalid
			fs.Messages = append(fs.Messages, r.Message)
		}
	}
	return out
}
