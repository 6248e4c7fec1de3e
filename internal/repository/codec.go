// Package repository holds the column codecs shared by the record store drivers.
package repository

import (
	"encoding/json"
	"math"

	"github.com/rotisserie/eris"

	"solarops/internal/domain"
)

// RecordColumns are the JSON-encoded columns of a validation_results row.
type RecordColumns struct {
	Fields     string
	Issues     string
	AuditTrail string
}

// EncodeColumns serialises the JSON columns of rec. Nil slices are stored as
// empty arrays so readers never see null.
func EncodeColumns(rec *domain.Record) (RecordColumns, error) {
	fields, err := json.Marshal(rec.Fields)
	if err != nil {
		return RecordColumns{}, eris.Wrap(err, "encode fields")
	}
	issues := rec.Issues
	if issues == nil {
		issues = []string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return RecordColumns{}, eris.Wrap(err, "encode issues")
	}
	audit, err := EncodeAuditTrail(rec.AuditTrail)
	if err != nil {
		return RecordColumns{}, err
	}
	return RecordColumns{Fields: string(fields), Issues: string(issuesJSON), AuditTrail: audit}, nil
}

// EncodeAuditTrail serialises an audit trail, never producing null.
func EncodeAuditTrail(trail []domain.AuditEntry) (string, error) {
	if trail == nil {
		trail = []domain.AuditEntry{}
	}
	b, err := json.Marshal(trail)
	if err != nil {
		return "", eris.Wrap(err, "encode audit trail")
	}
	return string(b), nil
}

// DecodeColumns fills the JSON-backed fields of rec.
func DecodeColumns(rec *domain.Record, fields, issues, audit []byte) error {
	if len(fields) > 0 {
		if err := json.Unmarshal(fields, &rec.Fields); err != nil {
			return eris.Wrap(err, "decode fields")
		}
	}
	rec.Issues = []string{}
	if len(issues) > 0 {
		if err := json.Unmarshal(issues, &rec.Issues); err != nil {
			return eris.Wrap(err, "decode issues")
		}
	}
	rec.AuditTrail = []domain.AuditEntry{}
	if len(audit) > 0 {
		if err := json.Unmarshal(audit, &rec.AuditTrail); err != nil {
			return eris.Wrap(err, "decode audit trail")
		}
	}
	if rec.Issues == nil {
		rec.Issues = []string{}
	}
	if rec.AuditTrail == nil {
		rec.AuditTrail = []domain.AuditEntry{}
	}
	return nil
}

// StatusCount is one row of a GROUP BY status aggregate.
type StatusCount struct {
	Status string `db:"status"`
	Count  int    `db:"n"`
}

// BuildStats assembles domain.Stats from the aggregate query results.
func BuildStats(total, valid int, avg float64, byStatus []StatusCount) *domain.Stats {
	s := &domain.Stats{
		Total:         total,
		Valid:         valid,
		Invalid:       total - valid,
		AvgConfidence: math.Round(avg*10) / 10,
		ByStatus:      make(map[domain.ReviewStatus]int, len(byStatus)),
	}
	for _, sc := range byStatus {
		s.ByStatus[domain.ReviewStatus(sc.Status)] = sc.Count
	}
	return s
}
