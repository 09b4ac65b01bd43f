package schema

// Canned schema catalog for the structured-output modes.

// EntityResolution validates entity-linking replies.
func EntityResolution() Schema {
	return Schema{
		Fields: []Field{
			{Name: "entityName", Kind: KindString},
			{Name: "entityId", Kind: KindString},
			{Name: "evidenceSpans", Kind: KindArray},
			{Name: "confidence", Kind: KindNumber},
		},
		Required: []string{"entityName", "entityId", "evidenceSpans", "confidence"},
	}
}

// Classification validates taxonomy-classification replies. The path pattern
// enforces a two- or three-level hierarchy.
func Classification() Schema {
	return Schema{
		Fields: []Field{
			{Name: "rationale", Kind: KindString},
			{Name: "path", Kind: KindString, Pattern: `^[A-Za-z_]+ > [A-Za-z_]+( > [A-Za-z_]+)?$`},
			{Name: "confidence", Kind: KindNumber},
			{Name: "status", Kind: KindString, Enum: []string{"ACCEPTED", "REJECTED", "NEEDS_REVIEW"}},
		},
		Required: []string{"rationale", "path", "confidence", "status"},
	}
}

// RiskScore validates triage replies.
func RiskScore() Schema {
	return Schema{
		Fields: []Field{
			{Name: "reasoning", Kind: KindString},
			{Name: "triageCategory", Kind: KindString, Enum: []string{
				"SECURITY_INCIDENT", "COMPLIANCE_ISSUE", "GENERAL_INQUIRY", "FEATURE_REQUEST",
			}},
			{Name: "interactionStyle", Kind: KindString, Enum: []string{
				"URGENT", "PROFESSIONAL", "CASUAL", "FRUSTRATED",
			}},
			{Name: "riskScore", Kind: KindInteger},
		},
		Required: []string{"reasoning", "triageCategory", "interactionStyle", "riskScore"},
	}
}

// Compliance validates gap-analysis replies. Evidence must be an exact quote,
// so it is required alongside section and status.
func Compliance() Schema {
	return Schema{
		Fields: []Field{
			{Name: "section", Kind: KindString},
			{Name: "status", Kind: KindString, Enum: []string{
				"COMPLIANT", "NON_COMPLIANT", "PARTIALLY_COMPLIANT",
			}},
			{Name: "evidence", Kind: KindString},
			{Name: "gap", Kind: KindString},
			{Name: "recommendation", Kind: KindString},
		},
		Required: []string{"section", "status", "evidence"},
	}
}

// MemoryRecall validates recall-verification replies.
func MemoryRecall() Schema {
	return Schema{
		Fields: []Field{
			{Name: "found", Kind: KindBoolean},
			{Name: "confidence", Kind: KindNumber},
			{Name: "context", Kind: KindString},
			{Name: "timestamp", Kind: KindString},
			{Name: "sourceChatId", Kind: KindString},
		},
		Required: []string{"found", "confidence"},
	}
}
