package domain

// FieldType represents the value type of a catalog field
type FieldType string

const (
	FieldTypeString   FieldType = "string"
	FieldTypeNumber   FieldType = "number"
	FieldTypeBoolean  FieldType = "boolean"
	FieldTypeCategory FieldType = "category"
	FieldTypeSource   FieldType = "source"
	FieldTypeEnum     FieldType = "enum"
)

// FieldDefinition describes one target attribute of a record type.
// Definitions are process-wide constants and never mutated after start.
type FieldDefinition struct {
	Key        string    `json:"key"`
	Label      string    `json:"label"`
	Type       FieldType `json:"type"`
	Required   bool      `json:"required"`
	EnumValues []string  `json:"enumValues,omitempty"`
	Aliases    []string  `json:"aliases,omitempty"`
}

// RecordType distinguishes the two fixed record shapes of an import.
type RecordType string

const (
	RecordTypePlace    RecordType = "place"
	RecordTypeEntrance RecordType = "entrance"
)

// RawRow is one spreadsheet row as parsed from the source file. Cells maps
// the literal column header to the trimmed cell text. Number is the 1-based
// position counted from the first data row (the header is not row 1).
type RawRow struct {
	Number int               `json:"rowNumber"`
	Cells  map[string]string `json:"cells"`
}

// ColumnMapping maps catalog field keys to chosen source column names.
// A missing or empty entry means the field is unmapped.
type ColumnMapping map[string]string

// Column returns the mapped source column for a field key, if any.
func (m ColumnMapping) Column(fieldKey string) (string, bool) {
	column, ok := m[fieldKey]
	if !ok || column == "" {
		return "", false
	}
	return column, true
}

// Set assigns a source column to a field key. An empty column clears the
// assignment.
func (m ColumnMapping) Set(fieldKey, column string) {
	if column == "" {
		delete(m, fieldKey)
		return
	}
	m[fieldKey] = column
}

// Clone returns an independent copy of the mapping.
func (m ColumnMapping) Clone() ColumnMapping {
	cloned := make(ColumnMapping, len(m))
	for key, column := range m {
		cloned[key] = column
	}
	return cloned
}
