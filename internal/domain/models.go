package domain

import (
	"time"

	"github.com/google/uuid"
)

// RuleResult is the outcome of a single checklist rule.
type RuleResult struct {
	RuleKey   string `json:"rule_key"`
	RuleName  string `json:"rule_name"`
	FieldPath string `json:"field_path"`
	Passed    bool   `json:"passed"`
	Actual    string `json:"actual_value,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ValidationVerdict is the result of running the checklist over a FieldSet.
// Valid is true iff Issues is empty; Confidence is max(0, 100-10*len(Issues)).
type ValidationVerdict struct {
	Valid      bool         `json:"valid"`
	Issues     []string     `json:"issues"`
	Confidence int          `json:"confidence"`
	Results    []RuleResult `json:"results,omitempty"`
}

// AuditEntry records one reviewer override. Entries are append-only.
type AuditEntry struct {
	Timestamp time.Time    `json:"timestamp"`
	OldStatus ReviewStatus `json:"old_status"`
	NewStatus ReviewStatus `json:"new_status"`
	Reviewer  string       `json:"reviewer"`
	Comment   string       `json:"comment"`
}

// Record is the persisted result of processing one document plus its review state.
type Record struct {
	ID              uuid.UUID    `json:"id"`
	Filename        string       `json:"filename"`
	Timestamp       time.Time    `json:"timestamp"`
	Fields          FieldSet     `json:"fields"`
	Valid           bool         `json:"valid"`
	Issues          []string     `json:"issues"`
	Confidence      int          `json:"confidence"`
	AISuggestion    string       `json:"ai_suggestion"`
	Status          ReviewStatus `json:"status"`
	ReviewedBy      *string      `json:"reviewed_by"`
	ReviewedAt      *time.Time   `json:"reviewed_at"`
	ReviewerComment *string      `json:"reviewer_comment"`
	AuditTrail      []AuditEntry `json:"audit_trail"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// RecordFilter narrows a record listing.
type RecordFilter struct {
	Status ReviewStatus
	Valid  *bool
}

// Stats summarises all stored records.
type Stats struct {
	Total         int                  `json:"total"`
	Valid         int                  `json:"valid"`
	Invalid       int                  `json:"invalid"`
	AvgConfidence float64              `json:"avg_confidence"`
	ByStatus      map[ReviewStatus]int `json:"by_status"`
}

// StatusChangeEvent is published after an override commits.
type StatusChangeEvent struct {
	Filename  string
	OldStatus ReviewStatus
	NewStatus ReviewStatus
	Reviewer  string
	Comment   string
	At        time.Time
}
