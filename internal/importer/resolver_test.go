package importer

import (
	"testing"

	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestBuildKeyIndex(t *testing.T) {
	storedID := uuid.New()
	existing := map[string]uuid.UUID{"p1": storedID}

	placeRows := TransformPlaces([]domain.RawRow{
		rawRow(1, placeCells("p1", "Stored")),   // update, stays resolved
		rawRow(2, placeCells("p2", "New")),      // valid create, pending
		rawRow(3, placeCells("", "Broken row")), // invalid, skipped
	}, testPlaceMapping, existing)

	index := BuildKeyIndex(existing, placeRows)

	resolved := index.Resolve("p1")
	assert.Equal(t, domain.KeyResolved, resolved.State)
	assert.Equal(t, storedID, resolved.ID)

	pending := index.Resolve("p2")
	assert.Equal(t, domain.KeyPending, pending.State)
	assert.True(t, pending.Resolvable())

	missing := index.Resolve("p9")
	assert.Equal(t, domain.KeyUnresolved, missing.State)
	assert.False(t, missing.Resolvable())
}

func TestBuildKeyIndexDoesNotDowngradeResolved(t *testing.T) {
	storedID := uuid.New()
	existing := map[string]uuid.UUID{"p1": storedID}

	// A create row for an id that also exists in the store must not shadow
	// the resolved entry.
	row := TransformPlaces([]domain.RawRow{rawRow(1, placeCells("p1", "Clone"))}, testPlaceMapping, nil)
	index := BuildKeyIndex(existing, row)

	assert.Equal(t, domain.KeyResolved, index.Resolve("p1").State)
}
