package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/placedir/importer/internal/catalog"
	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
)

var (
	truthyCells = map[string]bool{"true": true, "yes": true, "1": true, "y": true}
	falsyCells  = map[string]bool{"false": true, "no": true, "0": true, "n": true}
)

// TransformPlaces coerces and validates raw place rows against the place
// catalog. existing is the pre-fetched external-id index used for
// create-vs-update classification; classification is independent of row
// validity. Rows come back in input order.
func TransformPlaces(rows []domain.RawRow, mapping domain.ColumnMapping, existing map[string]uuid.UUID) []domain.ParsedRow {
	fields := catalog.PlaceFields()
	seen := make(map[string]int, len(rows))

	parsed := make([]domain.ParsedRow, 0, len(rows))
	for _, raw := range rows {
		row := transformRow(raw, mapping, fields)

		validateRequired(&row, fields)
		validateCoordinates(&row)

		externalID := row.MappedString(catalog.FieldPlaceExternalID)
		if externalID != "" {
			if _, dup := existing[externalID]; dup {
				row.IsUpdate = true
			}
			warnDuplicate(&row, catalog.FieldPlaceExternalID, externalID, seen)
		}

		row.Valid = len(row.Errors) == 0
		parsed = append(parsed, row)
	}
	return parsed
}

// TransformEntrances coerces and validates raw entrance rows. keys is the
// place key index built from the store plus the current batch's valid new
// place rows; an entrance whose parent resolves to neither is invalid. The
// resolved internal id is attached only for already-persisted parents.
func TransformEntrances(rows []domain.RawRow, mapping domain.ColumnMapping, keys domain.KeyIndex, existing map[string]uuid.UUID) []domain.ParsedRow {
	fields := catalog.EntranceFields()
	seen := make(map[string]int, len(rows))

	parsed := make([]domain.ParsedRow, 0, len(rows))
	for _, raw := range rows {
		row := transformRow(raw, mapping, fields)

		validateRequired(&row, fields)
		validateCoordinates(&row)

		placeExternalID := row.MappedString(catalog.FieldPlaceExternalID)
		if placeExternalID != "" {
			resolution := keys.Resolve(placeExternalID)
			switch resolution.State {
			case domain.KeyResolved:
				id := resolution.ID
				row.PlaceID = &id
			case domain.KeyPending:
				// Parent is created later in this batch; the executor
				// attaches the real id after the place phase.
			default:
				row.Errors = append(row.Errors, fmt.Sprintf("Place with external_id %q not found", placeExternalID))
			}
		}

		externalID := row.MappedString(catalog.FieldEntranceExternalID)
		if externalID != "" {
			if _, dup := existing[externalID]; dup {
				row.IsUpdate = true
			}
			warnDuplicate(&row, catalog.FieldEntranceExternalID, externalID, seen)
		}

		row.Valid = len(row.Errors) == 0
		parsed = append(parsed, row)
	}
	return parsed
}

// transformRow coerces every catalog field for one raw row. Unmapped
// fields and empty cells yield nil; every catalog key is present in
// MappedData so later phases never distinguish missing from null.
func transformRow(raw domain.RawRow, mapping domain.ColumnMapping, fields []domain.FieldDefinition) domain.ParsedRow {
	row := domain.ParsedRow{
		RowNumber:  raw.Number,
		RawData:    raw,
		MappedData: make(map[string]any, len(fields)),
	}

	for _, field := range fields {
		column, mapped := mapping.Column(field.Key)
		if !mapped {
			row.MappedData[field.Key] = nil
			continue
		}
		cell, present := raw.Cells[column]
		if !present {
			row.MappedData[field.Key] = nil
			continue
		}

		value, warning := coerceCell(field, cell)
		row.MappedData[field.Key] = value
		if warning != "" {
			row.Warnings = append(row.Warnings, warning)
		}
	}
	return row
}

// coerceCell applies the type-specific coercion rule for one cell. The
// second return is a non-blocking warning, used when category or source
// cells fall back to their defaults.
func coerceCell(field domain.FieldDefinition, cell string) (any, string) {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return nil, ""
	}

	switch field.Type {
	case domain.FieldTypeString:
		return trimmed, ""
	case domain.FieldTypeNumber:
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return nil, ""
		}
		return f, ""
	case domain.FieldTypeBoolean:
		lowered := strings.ToLower(trimmed)
		if truthyCells[lowered] {
			return true, ""
		}
		if falsyCells[lowered] {
			return false, ""
		}
		return nil, ""
	case domain.FieldTypeCategory:
		category, matched := catalog.NormalizeCategory(trimmed)
		if !matched {
			return category, fmt.Sprintf("unrecognized category %q defaulted to %q", trimmed, category)
		}
		return category, ""
	case domain.FieldTypeSource:
		source, matched := catalog.NormalizeSource(trimmed)
		if !matched {
			return source, fmt.Sprintf("unrecognized source %q defaulted to %q", trimmed, source)
		}
		return source, ""
	case domain.FieldTypeEnum:
		lowered := strings.ToLower(trimmed)
		for _, allowed := range field.EnumValues {
			if allowed == lowered {
				return lowered, ""
			}
		}
		return nil, ""
	default:
		return trimmed, ""
	}
}

func validateRequired(row *domain.ParsedRow, fields []domain.FieldDefinition) {
	for _, field := range fields {
		if field.Required && row.MappedData[field.Key] == nil {
			row.Errors = append(row.Errors, fmt.Sprintf("Missing %s", field.Key))
		}
	}
}

func validateCoordinates(row *domain.ParsedRow) {
	lat, latOK := row.MappedData[catalog.FieldLatitude].(float64)
	if !latOK || lat < -90 || lat > 90 {
		row.Errors = append(row.Errors, "Invalid latitude")
	}
	lng, lngOK := row.MappedData[catalog.FieldLongitude].(float64)
	if !lngOK || lng < -180 || lng > 180 {
		row.Errors = append(row.Errors, "Invalid longitude")
	}
}

// warnDuplicate flags every occurrence of an external id after the first.
// Duplicates are not de-duplicated; each row is still evaluated and written
// independently, so the last one processed wins.
func warnDuplicate(row *domain.ParsedRow, fieldKey, externalID string, seen map[string]int) {
	seen[externalID]++
	if count := seen[externalID]; count > 1 {
		row.Warnings = append(row.Warnings, fmt.Sprintf("duplicate %s %q in file (occurrence %d)", fieldKey, externalID, count))
	}
}
