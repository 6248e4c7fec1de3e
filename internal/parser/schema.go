package parser

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"solarops/internal/domain"
)

// fieldSetSchema restricts model output to the FieldSet vocabulary.
var fieldSetSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		string(domain.FieldCustomerName):         map[string]any{"type": "string"},
		string(domain.FieldCustomerAddress):      map[string]any{"type": "string"},
		string(domain.FieldUtilityAccountNumber): map[string]any{"type": "string"},
		string(domain.FieldSystemCapacityKW):     map[string]any{"type": "string"},
		string(domain.FieldPanelSerialNumbers): map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		string(domain.FieldInverterSerialNumber): map[string]any{"type": "string"},
		string(domain.FieldInstallDate):          map[string]any{"type": "string"},
		string(domain.FieldRebateAmount):         map[string]any{"type": "string"},
		string(domain.FieldSignatureFound):       map[string]any{"type": "boolean"},
	},
}

var (
	compiledOnce   sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func schema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		b, err := json.Marshal(fieldSetSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("fieldset.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("fieldset.json")
	})
	return compiledSchema, compileErr
}

// DecodeFields turns raw model output into a FieldSet. The output is
// normalized (numbers to text, blanks dropped) and must then match the
// FieldSet schema exactly.
func DecodeFields(provider, raw string) (*domain.FieldSet, error) {
	raw = stripCodeFence(raw)
	if raw == "" {
		return nil, domain.NewExtractionError(provider, "empty response", nil)
	}

	var obj map[string]any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return nil, domain.NewExtractionError(provider, "output is not a JSON object: "+truncate(raw, 200), err)
	}
	normalize(obj)

	s, err := schema()
	if err != nil {
		return nil, domain.NewExtractionError(provider, "schema unavailable", err)
	}
	if err := s.Validate(obj); err != nil {
		return nil, domain.NewExtractionError(provider, "output does not match field schema", err)
	}

	b, err := json.Marshal(obj)
	if err != nil {
		return nil, domain.NewExtractionError(provider, "re-encoding output", err)
	}
	var fs domain.FieldSet
	if err := json.Unmarshal(b, &fs); err != nil {
		return nil, domain.NewExtractionError(provider, "decoding output", err)
	}
	return &fs, nil
}

// normalize coerces loosely typed model output in place.
func normalize(obj map[string]any) {
	for k, v := range obj {
		switch val := v.(type) {
		case nil:
			delete(obj, k)
		case string:
			val = strings.TrimSpace(val)
			if k == string(domain.FieldSignatureFound) {
				if b, err := strconv.ParseBool(val); err == nil {
					obj[k] = b
					continue
				}
			}
			if k == string(domain.FieldPanelSerialNumbers) {
				if val == "" {
					delete(obj, k)
				} else {
					obj[k] = []any{val}
				}
				continue
			}
			if val == "" {
				delete(obj, k)
				continue
			}
			obj[k] = val
		case float64:
			obj[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case []any:
			items := make([]any, 0, len(val))
			for _, item := range val {
				switch iv := item.(type) {
				case nil:
				case float64:
					items = append(items, strconv.FormatFloat(iv, 'f', -1, 64))
				case string:
					if s := strings.TrimSpace(iv); s != "" {
						items = append(items, s)
					}
				default:
					items = append(items, iv)
				}
			}
			if len(items) == 0 {
				delete(obj, k)
			} else {
				obj[k] = items
			}
		}
	}
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
