package importer

import (
	"testing"

	"github.com/placedir/importer/internal/catalog"
	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformPlacesValidRow(t *testing.T) {
	rows := []domain.RawRow{rawRow(1, placeCells("p1", "Cafe Noord"))}

	parsed := TransformPlaces(rows, testPlaceMapping, nil)
	require.Len(t, parsed, 1)

	row := parsed[0]
	assert.True(t, row.Valid, "errors: %v", row.Errors)
	assert.False(t, row.IsUpdate)
	assert.Equal(t, 1, row.RowNumber)
	assert.Equal(t, "p1", row.MappedData["place_external_id"])
	assert.Equal(t, "cafe", row.MappedData["primary_category"])
	assert.Equal(t, 52.37, row.MappedData["latitude"])
	// Unmapped fields are explicit nulls.
	assert.Nil(t, row.MappedData["description"])
}

func TestTransformPlacesMissingRequired(t *testing.T) {
	cells := placeCells("p1", "Cafe Noord")
	delete(cells, "name")
	delete(cells, "country")

	parsed := TransformPlaces([]domain.RawRow{rawRow(1, cells)}, testPlaceMapping, nil)
	require.Len(t, parsed, 1)

	row := parsed[0]
	assert.False(t, row.Valid)
	assert.Contains(t, row.Errors, "Missing name")
	assert.Contains(t, row.Errors, "Missing country")
}

func TestTransformPlacesCoordinateBounds(t *testing.T) {
	cells := placeCells("p1", "Cafe Noord")
	cells["lat"] = "200"
	cells["lng"] = "not a number"

	parsed := TransformPlaces([]domain.RawRow{rawRow(3, cells)}, testPlaceMapping, nil)
	require.Len(t, parsed, 1)

	row := parsed[0]
	assert.False(t, row.Valid)
	assert.Contains(t, row.Errors, "Invalid latitude")
	assert.Contains(t, row.Errors, "Invalid longitude")
	assert.Equal(t, 3, row.RowNumber)
}

func TestTransformPlacesBooleanCoercion(t *testing.T) {
	for _, cell := range []string{"YES", "y", "1", "True"} {
		cells := placeCells("p1", "Cafe Noord")
		cells["wheelchair"] = cell
		parsed := TransformPlaces([]domain.RawRow{rawRow(1, cells)}, testPlaceMapping, nil)
		assert.Equal(t, true, parsed[0].MappedData["wheelchair_accessible"], "cell %q", cell)
	}

	for _, cell := range []string{"no", "N", "0", "FALSE"} {
		cells := placeCells("p1", "Cafe Noord")
		cells["wheelchair"] = cell
		parsed := TransformPlaces([]domain.RawRow{rawRow(1, cells)}, testPlaceMapping, nil)
		assert.Equal(t, false, parsed[0].MappedData["wheelchair_accessible"], "cell %q", cell)
	}

	cells := placeCells("p1", "Cafe Noord")
	cells["wheelchair"] = "maybe"
	parsed := TransformPlaces([]domain.RawRow{rawRow(1, cells)}, testPlaceMapping, nil)
	assert.Nil(t, parsed[0].MappedData["wheelchair_accessible"])
	assert.True(t, parsed[0].Valid, "boolean field is optional, null must not invalidate")
}

func TestTransformPlacesCategoryDefaultsWithWarning(t *testing.T) {
	cells := placeCells("p1", "Cafe Noord")
	cells["category"] = "coffeeshop"

	parsed := TransformPlaces([]domain.RawRow{rawRow(1, cells)}, testPlaceMapping, nil)
	row := parsed[0]

	assert.Equal(t, catalog.DefaultCategory, row.MappedData["primary_category"])
	assert.True(t, row.Valid, "category always resolves; defaulting must not block")
	require.Len(t, row.Warnings, 1)
	assert.Contains(t, row.Warnings[0], "coffeeshop")
}

func TestTransformPlacesUpdateClassification(t *testing.T) {
	existing := map[string]uuid.UUID{"p1": uuid.New()}
	rows := []domain.RawRow{
		rawRow(1, placeCells("p1", "Cafe Noord")),
		rawRow(2, placeCells("p2", "Cafe Zuid")),
	}

	parsed := TransformPlaces(rows, testPlaceMapping, existing)
	assert.True(t, parsed[0].IsUpdate)
	assert.False(t, parsed[1].IsUpdate)
}

func TestTransformPlacesDuplicateExternalIDWarns(t *testing.T) {
	rows := []domain.RawRow{
		rawRow(1, placeCells("p1", "Cafe Noord")),
		rawRow(2, placeCells("p1", "Cafe Noord Again")),
	}

	parsed := TransformPlaces(rows, testPlaceMapping, nil)
	assert.Empty(t, parsed[0].Warnings)
	require.Len(t, parsed[1].Warnings, 1)
	assert.Contains(t, parsed[1].Warnings[0], "duplicate")
	assert.True(t, parsed[1].Valid, "duplicates stay writable")
}

func TestTransformEntrancesParentResolution(t *testing.T) {
	placeID := uuid.New()
	keys := domain.KeyIndex{
		"p1": domain.ResolvedKey(placeID),
		"p2": domain.PendingKey(),
	}

	rows := []domain.RawRow{
		rawRow(1, entranceCells("p1", "e1", "Main door")),
		rawRow(2, entranceCells("p2", "e2", "Side door")),
		rawRow(3, entranceCells("p9", "e3", "Ghost door")),
	}

	parsed := TransformEntrances(rows, testEntranceMapping, keys, nil)
	require.Len(t, parsed, 3)

	require.NotNil(t, parsed[0].PlaceID)
	assert.Equal(t, placeID, *parsed[0].PlaceID)
	assert.True(t, parsed[0].Valid)

	assert.Nil(t, parsed[1].PlaceID, "pending parents have no id until the place phase")
	assert.True(t, parsed[1].Valid)

	assert.False(t, parsed[2].Valid)
	require.Len(t, parsed[2].Errors, 1)
	assert.Contains(t, parsed[2].Errors[0], `Place with external_id "p9" not found`)
}

func TestTransformEntrancesMissingRequired(t *testing.T) {
	cells := entranceCells("p1", "e1", "Main door")
	delete(cells, "name")

	keys := domain.KeyIndex{"p1": domain.ResolvedKey(uuid.New())}
	parsed := TransformEntrances([]domain.RawRow{rawRow(1, cells)}, testEntranceMapping, keys, nil)

	assert.False(t, parsed[0].Valid)
	assert.Contains(t, parsed[0].Errors, "Missing entrance_name")
}

func TestTransformEntrancesEnumCoercion(t *testing.T) {
	keys := domain.KeyIndex{"p1": domain.ResolvedKey(uuid.New())}

	cells := entranceCells("p1", "e1", "Main door")
	cells["type"] = "SIDE"
	parsed := TransformEntrances([]domain.RawRow{rawRow(1, cells)}, testEntranceMapping, keys, nil)
	assert.Equal(t, "side", parsed[0].MappedData["entrance_type"])

	cells = entranceCells("p1", "e2", "Odd door")
	cells["type"] = "trapdoor"
	parsed = TransformEntrances([]domain.RawRow{rawRow(2, cells)}, testEntranceMapping, keys, nil)
	assert.Nil(t, parsed[0].MappedData["entrance_type"])
}
