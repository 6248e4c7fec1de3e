// Package export renders record listings as CSV or XLSX spreadsheets.
package export

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"solarops/internal/domain"
)

// Supported export formats.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// columns defines the header row shared by every format.
var columns = []string{
	"Filename",
	"Processed At",
	"Customer Name",
	"Customer Address",
	"Utility Account Number",
	"System Capacity (kW)",
	"Panel Serial Numbers",
	"Inverter Serial Number",
	"Install Date",
	"Rebate Amount",
	"Signature Found",
	"Valid",
	"Confidence",
	"Issues",
	"AI Suggestion",
	"Review Status",
	"Reviewed By",
	"Reviewed At",
	"Reviewer Comment",
	"Overrides",
}

// Columns returns a copy of the header row.
func Columns() []string {
	out := make([]string, len(columns))
	copy(out, columns)
	return out
}

// Writer streams records into a spreadsheet. Close must be called to
// finish the document.
type Writer interface {
	WriteHeader() error
	WriteRecords(recs []domain.Record) error
	Close() error
}

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	if format == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// ParseFormat normalises a user-supplied format, defaulting to CSV.
func ParseFormat(s string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	default:
		return "", eris.Wrapf(domain.ErrInvalidInput, "unsupported export format %q", s)
	}
}

// recordToRow converts a record into len(columns) cells.
func recordToRow(rec *domain.Record) []string {
	f := rec.Fields
	return []string{
		rec.Filename,
		rec.Timestamp.UTC().Format(time.RFC3339),
		f.CustomerName,
		f.CustomerAddress,
		f.UtilityAccountNumber,
		f.SystemCapacityKW,
		strings.Join(f.PanelSerialNumbers, "; "),
		f.InverterSerialNumber,
		f.InstallDate,
		f.RebateAmount,
		formatBool(f.SignatureFound),
		formatBool(rec.Valid),
		strconv.Itoa(rec.Confidence),
		strings.Join(rec.Issues, "; "),
		rec.AISuggestion,
		string(rec.Status),
		deref(rec.ReviewedBy),
		formatTime(rec.ReviewedAt),
		deref(rec.ReviewerComment),
		strconv.Itoa(len(rec.AuditTrail)),
	}
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns {sanitized_prefix}_{YYYY-MM-DD}.{format}.
func BuildFilename(prefix, format string, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename(prefix), now.Format("2006-01-02"), format)
}

// New creates a Writer for format.
func New(format string, w io.Writer) (Writer, error) {
	switch format {
	case FormatCSV:
		return NewCSVWriter(w), nil
	case FormatXLSX:
		return NewXLSXWriter(w)
	default:
		return nil, eris.Wrapf(domain.ErrInvalidInput, "unsupported export format %q", format)
	}
}
