package importer

import (
	"github.com/placedir/importer/internal/catalog"
	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
)

// BuildKeyIndex constructs the place external-id index used to validate
// entrance parent references. Persisted places resolve to their internal
// id; place rows that are valid and will be created in this batch resolve
// to Pending. Both count as resolvable for validation, but only a resolved
// entry carries an id usable for writing.
func BuildKeyIndex(existing map[string]uuid.UUID, placeRows []domain.ParsedRow) domain.KeyIndex {
	index := make(domain.KeyIndex, len(existing)+len(placeRows))
	for externalID, id := range existing {
		index[externalID] = domain.ResolvedKey(id)
	}

	for _, row := range placeRows {
		if !row.Valid || row.IsUpdate {
			continue
		}
		externalID := row.MappedString(catalog.FieldPlaceExternalID)
		if externalID == "" {
			continue
		}
		if _, ok := index[externalID]; ok {
			continue
		}
		index[externalID] = domain.PendingKey()
	}
	return index
}
