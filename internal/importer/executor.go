package importer

import (
	"context"
	"fmt"

	"github.com/placedir/importer/internal/catalog"
	"github.com/placedir/importer/internal/domain"
	"github.com/placedir/importer/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const defaultWorkers = 8

// Executor performs the ordered write phase of an import run: place
// creates, place updates, an external-id refresh, then entrance writes.
// Every row write is isolated; a store rejection marks that row errored and
// processing continues. Nothing is rolled back.
type Executor struct {
	places    repository.PlaceRepository
	entrances repository.EntranceRepository
	logs      repository.ImportLogRepository
	logger    *logrus.Logger
	workers   int
}

// ExecutorOption customizes an Executor.
type ExecutorOption func(*Executor)

// WithWorkers caps the number of concurrent row writes inside one phase.
func WithWorkers(n int) ExecutorOption {
	return func(e *Executor) {
		if n > 0 {
			e.workers = n
		}
	}
}

// NewExecutor wires an executor. logs may be nil when failure persistence
// is not wanted (tests).
func NewExecutor(
	places repository.PlaceRepository,
	entrances repository.EntranceRepository,
	logs repository.ImportLogRepository,
	logger *logrus.Logger,
	opts ...ExecutorOption,
) *Executor {
	e := &Executor{
		places:    places,
		entrances: entrances,
		logs:      logs,
		logger:    logger,
		workers:   defaultWorkers,
	}
	if e.logger == nil {
		e.logger = logrus.StandardLogger()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// rowOutcome pairs one row with the result of its write attempt.
type rowOutcome struct {
	row domain.ParsedRow
	err error
}

// phaseResult is the immutable fold of one phase's outcomes.
type phaseResult struct {
	created int
	updated int
	failed  []domain.ParsedRow
}

// Execute runs the write phase over validated rows and returns the
// aggregated report. Rows that failed validation are never sent to the
// store; they are appended to the error collections at the end so callers
// receive one unified report.
func (e *Executor) Execute(ctx context.Context, fileName string, placeRows, entranceRows []domain.ParsedRow) (domain.ImportResults, error) {
	var results domain.ImportResults

	placeCreates, placeUpdates, placeInvalid := splitRows(placeRows)

	// Creates strictly before updates; both before any entrance write.
	createResult := e.runPhase(ctx, placeCreates, e.writePlace)
	updateResult := e.runPhase(ctx, placeUpdates, e.writePlace)

	results.PlacesCreated = createResult.created
	results.PlacesUpdated = updateResult.updated
	results.PlaceErrors = append(results.PlaceErrors, createResult.failed...)
	results.PlaceErrors = append(results.PlaceErrors, updateResult.failed...)

	e.recordFailures(ctx, domain.RecordTypePlace, fileName, createResult.failed)
	e.recordFailures(ctx, domain.RecordTypePlace, fileName, updateResult.failed)

	// Barrier: entrance writes need the internal ids assigned by the place
	// phase, including ids for rows created in this very run.
	refreshed, err := e.places.ListExternalIDs(ctx)
	if err != nil {
		return results, fmt.Errorf("failed to refresh place ids: %w", err)
	}

	entranceValid, entranceInvalid := splitEntrances(entranceRows)
	entranceResult := e.runPhase(ctx, entranceValid, func(ctx context.Context, row domain.ParsedRow) error {
		return e.writeEntrance(ctx, row, refreshed)
	})

	results.EntrancesCreated = entranceResult.created
	results.EntrancesUpdated = entranceResult.updated
	results.EntranceErrors = append(results.EntranceErrors, entranceResult.failed...)
	e.recordFailures(ctx, domain.RecordTypeEntrance, fileName, entranceResult.failed)

	// Validation failures join the same collections as execution failures.
	results.PlaceErrors = append(results.PlaceErrors, placeInvalid...)
	results.EntranceErrors = append(results.EntranceErrors, entranceInvalid...)
	results.PlacesErrored = len(results.PlaceErrors)
	results.EntrancesErrored = len(results.EntranceErrors)

	e.logger.WithFields(logrus.Fields{
		"file":              fileName,
		"places_created":    results.PlacesCreated,
		"places_updated":    results.PlacesUpdated,
		"places_errored":    results.PlacesErrored,
		"entrances_created": results.EntrancesCreated,
		"entrances_updated": results.EntrancesUpdated,
		"entrances_errored": results.EntrancesErrored,
	}).Info("import run completed")

	return results, nil
}

// runPhase writes one phase's rows on a bounded worker group and folds the
// outcomes, in row order, into an immutable phase result. Workers never
// abort the group; failures surface per row.
func (e *Executor) runPhase(ctx context.Context, rows []domain.ParsedRow, write func(context.Context, domain.ParsedRow) error) phaseResult {
	outcomes := make([]rowOutcome, len(rows))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range rows {
		i := i
		g.Go(func() error {
			outcomes[i] = rowOutcome{row: rows[i], err: write(gctx, rows[i])}
			return nil
		})
	}
	_ = g.Wait()

	var result phaseResult
	for _, outcome := range outcomes {
		if outcome.err != nil {
			result.failed = append(result.failed, outcome.row.WithError(outcome.err.Error()))
			continue
		}
		if outcome.row.IsUpdate {
			result.updated++
		} else {
			result.created++
		}
	}
	return result
}

func (e *Executor) writePlace(ctx context.Context, row domain.ParsedRow) error {
	if row.IsUpdate {
		externalID := row.MappedString(catalog.FieldPlaceExternalID)
		return e.places.UpdateByExternalID(ctx, externalID, sparsePayload(row, catalog.FieldPlaceExternalID))
	}
	_, err := e.places.Create(ctx, buildPlace(row))
	return err
}

func (e *Executor) writeEntrance(ctx context.Context, row domain.ParsedRow, refreshed map[string]uuid.UUID) error {
	placeID, err := resolveParent(row, refreshed)
	if err != nil {
		return err
	}

	if row.IsUpdate {
		payload := sparsePayload(row, catalog.FieldEntranceExternalID, catalog.FieldPlaceExternalID)
		payload["place_id"] = placeID
		externalID := row.MappedString(catalog.FieldEntranceExternalID)
		return e.entrances.UpdateByExternalID(ctx, externalID, payload)
	}
	_, err = e.entrances.Create(ctx, buildEntrance(row, placeID))
	return err
}

// resolveParent returns the parent place's internal id. Rows whose parent
// was pending use the refreshed index; a parent still missing there means
// its create failed earlier in this run, so the entrance is not attempted.
func resolveParent(row domain.ParsedRow, refreshed map[string]uuid.UUID) (uuid.UUID, error) {
	if row.PlaceID != nil {
		return *row.PlaceID, nil
	}
	externalID := row.MappedString(catalog.FieldPlaceExternalID)
	if id, ok := refreshed[externalID]; ok {
		return id, nil
	}
	return uuid.Nil, fmt.Errorf("Place with external_id %q not found after import", externalID)
}

// sparsePayload collects the non-null mapped values for an update. Blank
// source cells coerce to nil and are omitted, so they never clear stored
// data. The natural-key fields themselves are excluded from the payload.
func sparsePayload(row domain.ParsedRow, exclude ...string) map[string]any {
	payload := make(map[string]any, len(row.MappedData))
	for key, value := range row.MappedData {
		if value == nil {
			continue
		}
		excluded := false
		for _, skip := range exclude {
			if key == skip {
				excluded = true
				break
			}
		}
		if !excluded {
			payload[key] = value
		}
	}
	return payload
}

// buildPlace assembles a total create payload: every catalog field is set,
// with explicit defaults substituted for omitted optional cells.
func buildPlace(row domain.ParsedRow) domain.Place {
	return domain.Place{
		ExternalID:           row.MappedString(catalog.FieldPlaceExternalID),
		Name:                 row.MappedString(catalog.FieldName),
		Description:          row.MappedString("description"),
		PrimaryCategory:      stringOr(row, catalog.FieldPrimaryCategory, catalog.DefaultCategory),
		SecondaryCategory:    stringOr(row, "secondary_category", catalog.DefaultCategory),
		Country:              row.MappedString(catalog.FieldCountry),
		City:                 row.MappedString("city"),
		StreetAddress:        row.MappedString("street_address"),
		PostalCode:           row.MappedString("postal_code"),
		Latitude:             numberValue(row, catalog.FieldLatitude),
		Longitude:            numberValue(row, catalog.FieldLongitude),
		Website:              row.MappedString("website"),
		PhoneNumber:          row.MappedString("phone_number"),
		Email:                row.MappedString("email"),
		Source:               stringOr(row, catalog.FieldSource, catalog.DefaultSource),
		WheelchairAccessible: boolValue(row, "wheelchair_accessible"),
	}
}

func buildEntrance(row domain.ParsedRow, placeID uuid.UUID) domain.Entrance {
	return domain.Entrance{
		PlaceID:        placeID,
		ExternalID:     row.MappedString(catalog.FieldEntranceExternalID),
		Name:           row.MappedString(catalog.FieldEntranceName),
		EntranceType:   stringOr(row, catalog.FieldEntranceType, catalog.DefaultEntranceType),
		Latitude:       numberValue(row, catalog.FieldLatitude),
		Longitude:      numberValue(row, catalog.FieldLongitude),
		StepFreeAccess: boolValue(row, "step_free_access"),
		AutomaticDoor:  boolValue(row, "automatic_door"),
		DoorWidthCM:    numberValue(row, "door_width_cm"),
		Notes:          row.MappedString("notes"),
		PhotoURL:       row.MappedString("photo_url"),
	}
}

func stringOr(row domain.ParsedRow, key, fallback string) string {
	if value := row.MappedString(key); value != "" {
		return value
	}
	return fallback
}

func numberValue(row domain.ParsedRow, key string) float64 {
	if value, ok := row.MappedData[key].(float64); ok {
		return value
	}
	return 0
}

func boolValue(row domain.ParsedRow, key string) bool {
	if value, ok := row.MappedData[key].(bool); ok {
		return value
	}
	return false
}

// splitRows partitions place rows into creates, updates, and invalid.
func splitRows(rows []domain.ParsedRow) (creates, updates, invalid []domain.ParsedRow) {
	for _, row := range rows {
		switch {
		case !row.Valid:
			invalid = append(invalid, row)
		case row.IsUpdate:
			updates = append(updates, row)
		default:
			creates = append(creates, row)
		}
	}
	return creates, updates, invalid
}

// splitEntrances keeps creates and updates in one slice; they share a
// phase because both depend only on the refreshed place ids.
func splitEntrances(rows []domain.ParsedRow) (valid, invalid []domain.ParsedRow) {
	for _, row := range rows {
		if !row.Valid {
			invalid = append(invalid, row)
			continue
		}
		valid = append(valid, row)
	}
	return valid, invalid
}

func (e *Executor) recordFailures(ctx context.Context, recordType domain.RecordType, fileName string, failed []domain.ParsedRow) {
	if e.logs == nil {
		return
	}
	for _, row := range failed {
		if len(row.Errors) == 0 {
			continue
		}
		rowNumber := row.RowNumber
		entry := domain.ImportLogEntry{
			RecordType:   recordType,
			FileName:     fileName,
			RowNumber:    &rowNumber,
			ErrorMessage: row.Errors[len(row.Errors)-1],
		}
		_ = e.logs.Record(ctx, entry)
	}
}
