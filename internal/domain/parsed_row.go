package domain

import "github.com/google/uuid"

// ParsedRow is the result of transforming and validating one raw row.
// MappedData holds the coerced value for every catalog field key; unmapped
// or empty cells yield nil. MappedData is never mutated after validation,
// but Errors may grow during execution when the store rejects a write.
type ParsedRow struct {
	RowNumber  int            `json:"rowNumber"`
	RawData    RawRow         `json:"rawData"`
	MappedData map[string]any `json:"mappedData"`
	Valid      bool           `json:"isValid"`
	Errors     []string       `json:"errors"`
	Warnings   []string       `json:"warnings,omitempty"`
	IsUpdate   bool           `json:"isUpdate"`

	// PlaceID is set on entrance rows once the parent place resolves to a
	// persisted record. Rows whose parent is pending in the same batch keep
	// it nil until the executor refreshes the key index.
	PlaceID *uuid.UUID `json:"placeId,omitempty"`
}

// MappedString returns the coerced string value for a field key, or ""
// when the value is nil or not a string.
func (r ParsedRow) MappedString(key string) string {
	if value, ok := r.MappedData[key].(string); ok {
		return value
	}
	return ""
}

// WithError returns a copy of the row with an extra error message appended
// and Valid cleared.
func (r ParsedRow) WithError(message string) ParsedRow {
	errs := make([]string, 0, len(r.Errors)+1)
	errs = append(errs, r.Errors...)
	errs = append(errs, message)
	r.Errors = errs
	r.Valid = false
	return r
}

// ImportResults aggregates the outcome of one execution run. Error rows
// carry their accumulated messages regardless of whether validation or the
// store rejected them.
type ImportResults struct {
	PlacesCreated    int `json:"placesCreated"`
	PlacesUpdated    int `json:"placesUpdated"`
	PlacesErrored    int `json:"placesErrored"`
	EntrancesCreated int `json:"entrancesCreated"`
	EntrancesUpdated int `json:"entrancesUpdated"`
	EntrancesErrored int `json:"entrancesErrored"`

	PlaceErrors    []ParsedRow `json:"placeErrors"`
	EntranceErrors []ParsedRow `json:"entranceErrors"`
}
