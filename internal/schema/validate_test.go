package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateWellFormedObject(t *testing.T) {
	obj := map[string]any{
		"entityName":    "Acme Corp",
		"entityId":      "acme-1",
		"evidenceSpans": []any{"Acme announced"},
		"confidence":    0.93,
	}

	assert.Empty(t, Validate(obj, EntityResolution()))
}

func TestValidateMissingRequiredField(t *testing.T) {
	obj := map[string]any{
		"entityName": "Acme Corp",
		"entityId":   "acme-1",
		"confidence": 0.93,
	}

	violations := Validate(obj, EntityResolution())
	require.Len(t, violations, 1)
	assert.Equal(t, "missing required field: evidenceSpans", violations[0])
}

func TestValidateRequiredFieldMustBeTruthy(t *testing.T) {
	obj := map[string]any{
		"entityName":    "",
		"entityId":      "acme-1",
		"evidenceSpans": []any{},
		"confidence":    0.93,
	}

	violations := Validate(obj, EntityResolution())
	assert.Contains(t, violations, "missing required field: entityName")
	assert.Contains(t, violations, "missing required field: evidenceSpans")
}

func TestValidateTypeMismatch(t *testing.T) {
	obj := map[string]any{
		"entityName":    "Acme Corp",
		"entityId":      "acme-1",
		"evidenceSpans": []any{"x"},
		"confidence":    "very high",
	}

	violations := Validate(obj, EntityResolution())
	require.Len(t, violations, 1)
	assert.Equal(t, "field confidence: expected number, got string", violations[0])
}

func TestValidateIntegerRejectsFraction(t *testing.T) {
	obj := map[string]any{
		"reasoning":        "looks risky",
		"triageCategory":   "SECURITY_INCIDENT",
		"interactionStyle": "URGENT",
		"riskScore":        72.5,
	}

	violations := Validate(obj, RiskScore())
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "field riskScore: expected integer")
}

func TestValidateEnumMembership(t *testing.T) {
	obj := map[string]any{
		"rationale":  "matches the billing branch",
		"path":       "Billing > Refunds",
		"confidence": 0.95,
		"status":     "MAYBE",
	}

	violations := Validate(obj, Classification())
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], `field status: value "MAYBE" not in allowed values`)
	assert.Contains(t, violations[0], "ACCEPTED, REJECTED, NEEDS_REVIEW")
}

func TestValidatePattern(t *testing.T) {
	obj := map[string]any{
		"rationale":  "matches the billing branch",
		"path":       "Billing>Refunds", // missing spaces around separator
		"confidence": 0.95,
		"status":     "ACCEPTED",
	}

	violations := Validate(obj, Classification())
	require.Len(t, violations, 1)
	assert.Contains(t, violations[0], "field path: value does not match pattern")
}

func TestValidateMultipleViolationsReported(t *testing.T) {
	obj := map[string]any{
		"section": "4.2",
		"status":  "UNKNOWN",
	}

	violations := Validate(obj, Compliance())
	assert.Contains(t, violations, "missing required field: evidence")
	found := false
	for _, v := range violations {
		if v == `field status: value "UNKNOWN" not in allowed values [COMPLIANT, NON_COMPLIANT, PARTIALLY_COMPLIANT]` {
			found = true
		}
	}
	assert.True(t, found, "enum violation missing: %v", violations)
}

func TestParseStructured(t *testing.T) {
	obj, violations := ParseStructured(`{"found": true, "confidence": 0.92}`)
	require.Nil(t, violations)
	assert.Equal(t, true, obj["found"])
	assert.Empty(t, Validate(obj, MemoryRecall()))

	obj, violations = ParseStructured("not json")
	assert.Nil(t, obj)
	require.Len(t, violations, 1)
	assert.Equal(t, ErrInvalidJSON, violations[0])
}

func TestValidateUndeclaredFieldsIgnored(t *testing.T) {
	obj := map[string]any{
		"found":      true,
		"confidence": 0.8,
		"extra":      "ignored",
	}

	assert.Empty(t, Validate(obj, MemoryRecall()))
}
