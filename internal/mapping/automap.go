// Package mapping proposes column-to-field assignments for an uploaded
// sheet. Matching is a normalized-alias comparison; the operator reviews
// and may override every proposal before validation runs.
package mapping

import (
	"strings"
	"unicode"

	"github.com/placedir/importer/internal/domain"
)

// AutoMap proposes a ColumnMapping for the given source columns. For each
// field the first column whose normalized name equals any normalized alias
// is selected; fields with no match are left unmapped. A column may be
// claimed by more than one field. Pure and deterministic: the same columns
// and catalog always produce the same mapping.
func AutoMap(columns []string, fields []domain.FieldDefinition) domain.ColumnMapping {
	normalized := make([]string, len(columns))
	for i, column := range columns {
		normalized[i] = Normalize(column)
	}

	result := make(domain.ColumnMapping, len(fields))
	for _, field := range fields {
		aliases := make(map[string]struct{}, len(field.Aliases)+1)
		aliases[Normalize(field.Key)] = struct{}{}
		for _, alias := range field.Aliases {
			aliases[Normalize(alias)] = struct{}{}
		}

		for i, column := range columns {
			if normalized[i] == "" {
				continue
			}
			if _, ok := aliases[normalized[i]]; ok {
				result[field.Key] = column
				break
			}
		}
	}
	return result
}

// Normalize strips underscores, hyphens and whitespace and lower-cases,
// so "Place ID", "place-id" and "place_id" all compare equal.
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if r == '_' || r == '-' || unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
