package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
)

// ErrInvalidJSON is the single violation emitted when a structured reply does
// not parse as JSON at all.
const ErrInvalidJSON = "invalid JSON"

// ParseStructured parses a raw model reply that claims to be structured data.
// On parse failure it returns a nil object and the invalid-JSON violation;
// callers keep the raw text for diagnostics.
func ParseStructured(raw string) (map[string]any, []string) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &obj); err != nil {
		return nil, []string{ErrInvalidJSON}
	}
	return obj, nil
}

// Validate checks obj against s and returns one violation string per problem.
// An empty result means the object is valid. Checks run in declaration order:
// required fields first, then kind matches, then enum membership and pattern.
func Validate(obj map[string]any, s Schema) []string {
	var violations []string

	for _, name := range s.Required {
		v, ok := obj[name]
		if !ok || !truthy(v) {
			violations = append(violations, fmt.Sprintf("missing required field: %s", name))
		}
	}

	for _, f := range s.Fields {
		v, ok := obj[f.Name]
		if !ok {
			continue
		}

		if f.Kind != "" && !kindMatches(v, f.Kind) {
			violations = append(violations,
				fmt.Sprintf("field %s: expected %s, got %s", f.Name, f.Kind, kindOf(v)))
			continue
		}

		if len(f.Enum) > 0 && !enumMember(v, f.Enum) {
			violations = append(violations,
				fmt.Sprintf("field %s: value %q not in allowed values [%s]",
					f.Name, fmt.Sprintf("%v", v), strings.Join(f.Enum, ", ")))
		}

		if f.Pattern != "" {
			if str, isStr := v.(string); isStr {
				re, err := regexp.Compile(f.Pattern)
				if err != nil {
					violations = append(violations,
						fmt.Sprintf("field %s: invalid pattern %q", f.Name, f.Pattern))
				} else if !re.MatchString(str) {
					violations = append(violations,
						fmt.Sprintf("field %s: value does not match pattern %s", f.Name, f.Pattern))
				}
			}
		}
	}

	return violations
}

// truthy mirrors the admission rule for required fields: zero values do not
// satisfy a requirement even when the key is present.
func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func kindMatches(v any, k Kind) bool {
	switch k {
	case KindString:
		_, ok := v.(string)
		return ok
	case KindNumber:
		_, ok := v.(float64)
		return ok
	case KindInteger:
		f, ok := v.(float64)
		return ok && f == math.Trunc(f)
	case KindBoolean:
		_, ok := v.(bool)
		return ok
	case KindArray:
		_, ok := v.([]any)
		return ok
	default:
		return true
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case string:
		return "string"
	case float64:
		return "number"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func enumMember(v any, allowed []string) bool {
	val := fmt.Sprintf("%v", v)
	for _, a := range allowed {
		if val == a {
			return true
		}
	}
	return false
}
