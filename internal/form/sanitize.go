package form

import (
	"math"
	"strconv"
	"strings"

	"anakcore/pkg/dateparts"
	"anakcore/pkg/domain"
)

// Sanitizer turns an in-memory edit buffer into an API-safe payload. It is a
// pure function over the buffer: no I/O, no mutation of the input.
type Sanitizer struct {
	schema Schema
}

// NewSanitizer builds a sanitizer for the given schema.
func NewSanitizer(schema Schema) Sanitizer {
	return Sanitizer{schema: schema}
}

// Sanitize applies the pipeline recursively and wraps the result as a
// repository payload. Sanitization never fails; invalid values degrade by
// omission. The single exception to "omit empty" is an attachment field
// explicitly set to nil, which is preserved as JSON null to signal
// delete-on-server.
func (s Sanitizer) Sanitize(buffer map[string]any) (domain.Payload, error) {
	return domain.NewPayloadFromValue(s.sanitizeMap(buffer, ""))
}

// SanitizeFields returns the cleaned tree without payload wrapping.
func (s Sanitizer) SanitizeFields(buffer map[string]any) map[string]any {
	return s.sanitizeMap(buffer, "")
}

func (s Sanitizer) sanitizeMap(node map[string]any, prefix string) map[string]any {
	out := make(map[string]any, len(node))
	for key, value := range node {
		if s.schema.Stripped(key) {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			cleaned := s.sanitizeMap(child, path)
			if len(cleaned) > 0 {
				out[key] = cleaned
			}
			continue
		}
		spec, declared := s.schema.Spec(path)
		if !declared {
			spec = FieldSpec{Kind: KindString}
		}
		if cleaned, keep := sanitizeValue(value, spec); keep {
			out[key] = cleaned
		}
	}
	return out
}

func sanitizeValue(value any, spec FieldSpec) (any, bool) {
	switch spec.Kind {
	case KindAttachment:
		if value == nil {
			return nil, true // explicit null: delete-on-server
		}
		str, ok := value.(string)
		if !ok || strings.TrimSpace(str) == "" {
			return nil, false
		}
		return str, true
	case KindNumber:
		return coerceNumber(value)
	case KindDate:
		str, ok := value.(string)
		if !ok {
			return nil, false
		}
		parts := dateparts.Decompose(str)
		iso := dateparts.Compose(parts.Day, parts.Month, parts.Year)
		if iso == "" {
			return nil, false
		}
		return iso, true
	case KindEnum:
		str, ok := value.(string)
		if !ok {
			return nil, false
		}
		str = strings.ToUpper(strings.TrimSpace(str))
		for _, allowed := range spec.Allowed {
			if str == allowed {
				return str, true
			}
		}
		return nil, false
	case KindTags:
		items := tagItems(value)
		if len(items) == 0 {
			return nil, false
		}
		if spec.Joined {
			return strings.Join(items, ", "), true
		}
		return items, true
	default:
		if value == nil {
			return nil, false
		}
		if str, ok := value.(string); ok {
			if strings.TrimSpace(str) == "" {
				return nil, false
			}
			return str, true
		}
		return value, true
	}
}

// coerceNumber accepts JSON numbers, Go ints, and numeric strings. Empty
// strings, nil, unparseable text, NaN, and infinities are omitted.
func coerceNumber(value any) (any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		return v, true
	case float32:
		return coerceNumber(float64(v))
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, false
		}
		return f, true
	default:
		return nil, false
	}
}

// tagItems normalizes a tag field value ([]string, []any, or a comma-joined
// string) into trimmed unique items, preserving order.
func tagItems(value any) []string {
	var raw []string
	switch v := value.(type) {
	case []string:
		raw = v
	case []any:
		for _, item := range v {
			if str, ok := item.(string); ok {
				raw = append(raw, str)
			}
		}
	case string:
		raw = strings.Split(v, ",")
	default:
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
