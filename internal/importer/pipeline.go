// Package importer implements the two-sheet import pipeline: column
// mapping, row transformation and validation, cross-sheet key resolution,
// and the phased write against the place store.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/placedir/importer/internal/catalog"
	"github.com/placedir/importer/internal/domain"
	"github.com/placedir/importer/internal/mapping"
	"github.com/placedir/importer/internal/repository"
	"github.com/placedir/importer/internal/workbook"
)

// Stage identifies one step of the import wizard.
type Stage string

const (
	StageUpload       Stage = "upload"
	StageMapPlaces    Stage = "map_places"
	StageMapEntrances Stage = "map_entrances"
	StageValidate     Stage = "validate"
	StageResults      Stage = "results"
)

// ErrInvalidTransition is returned when an operation is called from a
// stage it is not legal in. Skipping stages is rejected rather than
// silently allowed.
var ErrInvalidTransition = errors.New("operation not allowed in current stage")

// Pipeline drives one import run through the stage sequence
// upload → map_places → map_entrances → validate → results. All working
// state (mappings, parsed rows, results) is scoped to the run and
// discarded on Reset; nothing persists across runs.
type Pipeline struct {
	places    repository.PlaceRepository
	entrances repository.EntranceRepository
	executor  *Executor

	mu              sync.Mutex
	stage           Stage
	fileName        string
	book            workbook.Workbook
	placeMapping    domain.ColumnMapping
	entranceMapping domain.ColumnMapping
	placeRows       []domain.ParsedRow
	entranceRows    []domain.ParsedRow
	results         *domain.ImportResults
}

// NewPipeline creates a pipeline in the upload stage.
func NewPipeline(places repository.PlaceRepository, entrances repository.EntranceRepository, executor *Executor) *Pipeline {
	return &Pipeline{
		places:    places,
		entrances: entrances,
		executor:  executor,
		stage:     StageUpload,
	}
}

// Stage returns the current stage.
func (p *Pipeline) Stage() Stage {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stage
}

// Upload parses the file, proposes column mappings for both sheets, and
// advances to map_places. A parse failure keeps the pipeline in upload
// with no partial state retained.
func (p *Pipeline) Upload(fileName string, data io.Reader) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != StageUpload {
		return fmt.Errorf("%w: upload from %s", ErrInvalidTransition, p.stage)
	}

	payload, err := io.ReadAll(data)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}

	book, err := workbook.Parse(fileName, payload)
	if err != nil {
		return err
	}

	p.fileName = fileName
	p.book = book
	p.placeMapping = mapping.AutoMap(book.Places.Columns, catalog.PlaceFields())
	p.entranceMapping = mapping.AutoMap(book.Entrances.Columns, catalog.EntranceFields())
	p.stage = StageMapPlaces
	return nil
}

// Workbook returns the parsed sheets for operator review.
func (p *Pipeline) Workbook() workbook.Workbook {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.book
}

// FileName returns the uploaded file's name.
func (p *Pipeline) FileName() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fileName
}

// Mappings returns copies of the current column mappings.
func (p *Pipeline) Mappings() (places, entrances domain.ColumnMapping) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.placeMapping.Clone(), p.entranceMapping.Clone()
}

// SetPlaceColumn overrides the mapped source column for a place field. An
// empty column clears the assignment. Legal in either mapping stage.
func (p *Pipeline) SetPlaceColumn(fieldKey, column string) error {
	return p.setColumn(fieldKey, column, domain.RecordTypePlace)
}

// SetEntranceColumn overrides the mapped source column for an entrance
// field.
func (p *Pipeline) SetEntranceColumn(fieldKey, column string) error {
	return p.setColumn(fieldKey, column, domain.RecordTypeEntrance)
}

func (p *Pipeline) setColumn(fieldKey, column string, recordType domain.RecordType) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != StageMapPlaces && p.stage != StageMapEntrances {
		return fmt.Errorf("%w: mapping edit from %s", ErrInvalidTransition, p.stage)
	}
	if !fieldExists(fieldKey, recordType) {
		return fmt.Errorf("unknown %s field %q", recordType, fieldKey)
	}

	if recordType == domain.RecordTypeEntrance {
		p.entranceMapping.Set(fieldKey, column)
	} else {
		p.placeMapping.Set(fieldKey, column)
	}
	return nil
}

// ProceedToEntrances advances map_places → map_entrances.
func (p *Pipeline) ProceedToEntrances() error {
	return p.transition(StageMapPlaces, StageMapEntrances)
}

// BackToPlaces re-visits the place mapping step without discarding any
// previously entered mappings.
func (p *Pipeline) BackToPlaces() error {
	return p.transition(StageMapEntrances, StageMapPlaces)
}

func (p *Pipeline) transition(from, to Stage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stage != from {
		return fmt.Errorf("%w: %s -> %s from %s", ErrInvalidTransition, from, to, p.stage)
	}
	p.stage = to
	return nil
}

// Validate runs both transformer passes: places first, then entrances
// consuming the place pass's key index. Advances map_entrances → validate.
func (p *Pipeline) Validate(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != StageMapEntrances {
		return fmt.Errorf("%w: validate from %s", ErrInvalidTransition, p.stage)
	}

	existingPlaces, err := p.places.ListExternalIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list place ids: %w", err)
	}
	existingEntrances, err := p.entrances.ListExternalIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list entrance ids: %w", err)
	}

	p.placeRows = TransformPlaces(p.book.Places.Rows, p.placeMapping, existingPlaces)
	keys := BuildKeyIndex(existingPlaces, p.placeRows)
	p.entranceRows = TransformEntrances(p.book.Entrances.Rows, p.entranceMapping, keys, existingEntrances)
	p.stage = StageValidate
	return nil
}

// Rows exposes the validated row sets for operator review.
func (p *Pipeline) Rows() (places, entrances []domain.ParsedRow) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.placeRows, p.entranceRows
}

// Run invokes the executor over the validated rows and advances
// validate → results.
func (p *Pipeline) Run(ctx context.Context) (domain.ImportResults, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stage != StageValidate {
		return domain.ImportResults{}, fmt.Errorf("%w: run from %s", ErrInvalidTransition, p.stage)
	}

	results, err := p.executor.Execute(ctx, p.fileName, p.placeRows, p.entranceRows)
	if err != nil {
		return results, err
	}
	p.results = &results
	p.stage = StageResults
	return results, nil
}

// Results returns the aggregated report once the run has executed.
func (p *Pipeline) Results() (domain.ImportResults, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.results == nil {
		return domain.ImportResults{}, false
	}
	return *p.results, true
}

// Reset discards all run state and returns to upload. Legal from any
// stage.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stage = StageUpload
	p.fileName = ""
	p.book = workbook.Workbook{}
	p.placeMapping = nil
	p.entranceMapping = nil
	p.placeRows = nil
	p.entranceRows = nil
	p.results = nil
}

func fieldExists(fieldKey string, recordType domain.RecordType) bool {
	for _, field := range catalog.Fields(recordType) {
		if field.Key == fieldKey {
			return true
		}
	}
	return false
}
