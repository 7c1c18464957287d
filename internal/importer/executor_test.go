package importer

import (
	"context"
	"errors"
	"testing"

	"github.com/placedir/importer/internal/domain"
	"github.com/placedir/importer/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExecutor(places *stubPlaceRepo, entrances *stubEntranceRepo, logs *stubLogRepo) *Executor {
	var logRepo repository.ImportLogRepository
	if logs != nil {
		logRepo = logs
	}
	return NewExecutor(places, entrances, logRepo, nil, WithWorkers(2))
}

func TestExecutorCreatesAndCounts(t *testing.T) {
	places := newStubPlaceRepo()
	entrances := newStubEntranceRepo()
	logs := &stubLogRepo{}
	executor := newTestExecutor(places, entrances, logs)

	placeRows := TransformPlaces([]domain.RawRow{
		rawRow(1, placeCells("p1", "Cafe Noord")),
		rawRow(2, placeCells("p2", "Cafe Zuid")),
	}, testPlaceMapping, nil)

	results, err := executor.Execute(context.Background(), "places.xlsx", placeRows, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, results.PlacesCreated)
	assert.Equal(t, 0, results.PlacesUpdated)
	assert.Equal(t, 0, results.PlacesErrored)
	assert.Len(t, places.created, 2)
	assert.Empty(t, logs.entries)
}

func TestExecutorPartialFailureIsolation(t *testing.T) {
	places := newStubPlaceRepo()
	places.failCreates = map[string]error{"p2": errors.New("connection reset")}
	entrances := newStubEntranceRepo()
	logs := &stubLogRepo{}
	executor := newTestExecutor(places, entrances, logs)

	placeRows := TransformPlaces([]domain.RawRow{
		rawRow(1, placeCells("p1", "A")),
		rawRow(2, placeCells("p2", "B")),
		rawRow(3, placeCells("p3", "C")),
	}, testPlaceMapping, nil)

	results, err := executor.Execute(context.Background(), "places.xlsx", placeRows, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, results.PlacesCreated)
	assert.Equal(t, 1, results.PlacesErrored)
	require.Len(t, results.PlaceErrors, 1)
	assert.Equal(t, 2, results.PlaceErrors[0].RowNumber)
	assert.Contains(t, results.PlaceErrors[0].Errors, "connection reset")
	require.Len(t, logs.entries, 1)
	assert.Equal(t, "connection reset", logs.entries[0].ErrorMessage)
}

func TestExecutorInvalidRowsJoinErrorReport(t *testing.T) {
	places := newStubPlaceRepo()
	executor := newTestExecutor(places, newStubEntranceRepo(), nil)

	badCells := placeCells("p2", "Broken")
	badCells["lat"] = "200"

	placeRows := TransformPlaces([]domain.RawRow{
		rawRow(1, placeCells("p1", "A")),
		rawRow(2, badCells),
		rawRow(3, placeCells("p3", "C")),
	}, testPlaceMapping, nil)

	results, err := executor.Execute(context.Background(), "places.xlsx", placeRows, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, results.PlacesCreated)
	assert.Equal(t, 1, results.PlacesErrored)
	require.Len(t, results.PlaceErrors, 1)
	assert.Equal(t, 2, results.PlaceErrors[0].RowNumber)
	assert.Contains(t, results.PlaceErrors[0].Errors, "Invalid latitude")
	assert.Len(t, places.created, 2, "invalid rows are never sent to the store")
}

func TestExecutorSparseUpdateOmitsBlankFields(t *testing.T) {
	places := newStubPlaceRepo()
	places.existing["p1"] = uuid.New()
	executor := newTestExecutor(places, newStubEntranceRepo(), nil)

	cells := placeCells("p1", "Cafe Noord")
	cells["website"] = "" // blank cell: no opinion, never clears stored data
	placeRows := TransformPlaces([]domain.RawRow{rawRow(1, cells)}, testPlaceMapping, places.existing)
	require.True(t, placeRows[0].IsUpdate)

	results, err := executor.Execute(context.Background(), "places.xlsx", placeRows, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, results.PlacesUpdated)

	payloads := places.updates["p1"]
	require.Len(t, payloads, 1)
	payload := payloads[0]
	assert.Equal(t, "Cafe Noord", payload["name"])
	assert.NotContains(t, payload, "website")
	assert.NotContains(t, payload, "description")
	assert.NotContains(t, payload, "place_external_id", "natural key never appears in the update payload")
}

func TestExecutorResolvesPendingParentsAfterPlacePhase(t *testing.T) {
	places := newStubPlaceRepo()
	entrances := newStubEntranceRepo()
	executor := newTestExecutor(places, entrances, nil)

	placeRows := TransformPlaces([]domain.RawRow{rawRow(1, placeCells("p1", "New place"))}, testPlaceMapping, nil)
	keys := BuildKeyIndex(nil, placeRows)
	entranceRows := TransformEntrances([]domain.RawRow{
		rawRow(1, entranceCells("p1", "e1", "Main door")),
	}, testEntranceMapping, keys, nil)
	require.True(t, entranceRows[0].Valid)
	require.Nil(t, entranceRows[0].PlaceID)

	results, err := executor.Execute(context.Background(), "import.xlsx", placeRows, entranceRows)
	require.NoError(t, err)

	assert.Equal(t, 1, results.PlacesCreated)
	assert.Equal(t, 1, results.EntrancesCreated)
	assert.Equal(t, 0, results.EntrancesErrored)
	require.Len(t, entrances.created, 1)
	assert.Equal(t, places.existing["p1"], entrances.created[0].PlaceID)
}

func TestExecutorEntranceParentCreateFailed(t *testing.T) {
	places := newStubPlaceRepo()
	places.failCreates = map[string]error{"p1": errors.New("constraint violation")}
	entrances := newStubEntranceRepo()
	executor := newTestExecutor(places, entrances, nil)

	placeRows := TransformPlaces([]domain.RawRow{rawRow(1, placeCells("p1", "Doomed"))}, testPlaceMapping, nil)
	keys := BuildKeyIndex(nil, placeRows)
	entranceRows := TransformEntrances([]domain.RawRow{
		rawRow(1, entranceCells("p1", "e1", "Main door")),
	}, testEntranceMapping, keys, nil)

	results, err := executor.Execute(context.Background(), "import.xlsx", placeRows, entranceRows)
	require.NoError(t, err)

	assert.Equal(t, 1, results.PlacesErrored)
	assert.Equal(t, 1, results.EntrancesErrored)
	require.Len(t, results.EntranceErrors, 1)
	assert.Contains(t, results.EntranceErrors[0].Errors[len(results.EntranceErrors[0].Errors)-1], "not found after import")
	assert.Empty(t, entrances.created, "unresolved entrances are never attempted")
}

func TestExecutorUpdatesEntrances(t *testing.T) {
	places := newStubPlaceRepo()
	placeID := uuid.New()
	places.existing["p1"] = placeID
	entrances := newStubEntranceRepo()
	entrances.existing["e1"] = uuid.New()
	executor := newTestExecutor(places, entrances, nil)

	keys := BuildKeyIndex(places.existing, nil)
	entranceRows := TransformEntrances([]domain.RawRow{
		rawRow(1, entranceCells("p1", "e1", "Renamed door")),
	}, testEntranceMapping, keys, entrances.existing)
	require.True(t, entranceRows[0].IsUpdate)

	results, err := executor.Execute(context.Background(), "entrances.xlsx", nil, entranceRows)
	require.NoError(t, err)

	assert.Equal(t, 1, results.EntrancesUpdated)
	payloads := entrances.updates["e1"]
	require.Len(t, payloads, 1)
	assert.Equal(t, "Renamed door", payloads[0]["entrance_name"])
	assert.Equal(t, placeID, payloads[0]["place_id"])
	assert.NotContains(t, payloads[0], "entrance_external_id")
}

func TestExecutorIdempotentRerun(t *testing.T) {
	places := newStubPlaceRepo()
	entrances := newStubEntranceRepo()
	executor := newTestExecutor(places, entrances, nil)

	rows := []domain.RawRow{
		rawRow(1, placeCells("p1", "A")),
		rawRow(2, placeCells("p2", "B")),
	}

	first, err := executor.Execute(context.Background(), "run.xlsx",
		TransformPlaces(rows, testPlaceMapping, nil), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, first.PlacesCreated)

	existing, err := places.ListExternalIDs(context.Background())
	require.NoError(t, err)

	rerunRows := TransformPlaces(rows, testPlaceMapping, existing)
	for _, row := range rerunRows {
		assert.True(t, row.IsUpdate)
	}

	second, err := executor.Execute(context.Background(), "run.xlsx", rerunRows, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, second.PlacesCreated)
	assert.Equal(t, 2, second.PlacesUpdated)
	assert.Equal(t, 0, second.PlacesErrored)
}
