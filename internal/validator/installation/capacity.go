package installation

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"solarops/internal/domain"
)

const invalidCapacityIssue = "Invalid or missing system capacity"

// capacityRule parses the capacity text and checks it against [min, max].
// Unparseable and out-of-range are mutually exclusive outcomes.
type capacityRule struct {
	min, max float64
}

func (r *capacityRule) RuleKey() string  { return "range.system_capacity_kw" }
func (r *capacityRule) RuleName() string { return "Range: System Capacity (kW)" }

func (r *capacityRule) Check(_ context.Context, fields *domain.FieldSet) CheckResult {
	res := CheckResult{
		FieldPath:   string(domain.FieldSystemCapacityKW),
		ActualValue: fields.SystemCapacityKW,
	}

	kw, ok := ParseCapacity(fields.SystemCapacityKW)
	if !ok {
		res.Message = invalidCapacityIssue
		return res
	}
	if kw < r.min || kw > r.max {
		res.Message = fmt.Sprintf("System capacity %s kW out of range", FormatKW(kw))
		return res
	}
	res.Passed = true
	return res
}

// ParseCapacity converts capacity text to kW. Blank, non-numeric and
// non-finite values are rejected.
func ParseCapacity(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, false
	}
	kw, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(kw) || math.IsInf(kw, 0) {
		return 0, false
	}
	return kw, true
}

// FormatKW renders a capacity with at least one decimal place (25 -> "25.0").
func FormatKW(kw float64) string {
	s := strconv.FormatFloat(kw, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
