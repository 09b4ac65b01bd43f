// Package schema declares structured-output schemas as tagged field
// descriptors and validates parsed model replies against them.
package schema

// Kind is the primitive kind a field must hold.
type Kind string

const (
	KindString  Kind = "string"
	KindNumber  Kind = "number"
	KindInteger Kind = "integer"
	KindBoolean Kind = "boolean"
	KindArray   Kind = "array"
)

// Field describes one declared property.
type Field struct {
	Name    string   `json:"name"`
	Kind    Kind     `json:"kind"`
	Enum    []string `json:"enum,omitempty"`
	Pattern string   `json:"pattern,omitempty"`
}

// Schema is a flat set of field descriptors plus the required-field list.
// Nested schemas are not supported; a single generic validator covers every
// schema in the catalog.
type Schema struct {
	Fields   []Field  `json:"fields"`
	Required []string `json:"required"`
}

// FieldByName returns the descriptor for name, if declared.
func (s Schema) FieldByName(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
