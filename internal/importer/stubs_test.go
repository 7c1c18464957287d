package importer

import (
	"context"
	"errors"
	"sync"

	"github.com/placedir/importer/internal/domain"
	"github.com/placedir/importer/internal/repository"

	"github.com/google/uuid"
)

type stubPlaceRepo struct {
	mu          sync.Mutex
	existing    map[string]uuid.UUID
	created     []domain.Place
	updates     map[string][]map[string]any
	failCreates map[string]error
	failUpdates map[string]error
	listErr     error
}

func newStubPlaceRepo() *stubPlaceRepo {
	return &stubPlaceRepo{
		existing: map[string]uuid.UUID{},
		updates:  map[string][]map[string]any{},
	}
}

func (s *stubPlaceRepo) Create(ctx context.Context, place domain.Place) (domain.Place, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCreates[place.ExternalID]; err != nil {
		return domain.Place{}, err
	}
	if _, ok := s.existing[place.ExternalID]; ok {
		return domain.Place{}, errors.New("duplicate key value violates unique constraint")
	}
	place.ID = uuid.New()
	s.existing[place.ExternalID] = place.ID
	s.created = append(s.created, place)
	return place, nil
}

func (s *stubPlaceRepo) UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failUpdates[externalID]; err != nil {
		return err
	}
	if _, ok := s.existing[externalID]; !ok {
		return errors.New("place not found")
	}
	s.updates[externalID] = append(s.updates[externalID], fields)
	return nil
}

func (s *stubPlaceRepo) GetByExternalID(ctx context.Context, externalID string) (domain.Place, error) {
	return domain.Place{}, errors.New("not implemented")
}

func (s *stubPlaceRepo) ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listErr != nil {
		return nil, s.listErr
	}
	ids := make(map[string]uuid.UUID, len(s.existing))
	for externalID, id := range s.existing {
		ids[externalID] = id
	}
	return ids, nil
}

type stubEntranceRepo struct {
	mu          sync.Mutex
	existing    map[string]uuid.UUID
	created     []domain.Entrance
	updates     map[string][]map[string]any
	failCreates map[string]error
}

func newStubEntranceRepo() *stubEntranceRepo {
	return &stubEntranceRepo{
		existing: map[string]uuid.UUID{},
		updates:  map[string][]map[string]any{},
	}
}

func (s *stubEntranceRepo) Create(ctx context.Context, entrance domain.Entrance) (domain.Entrance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCreates[entrance.ExternalID]; err != nil {
		return domain.Entrance{}, err
	}
	entrance.ID = uuid.New()
	s.existing[entrance.ExternalID] = entrance.ID
	s.created = append(s.created, entrance)
	return entrance, nil
}

func (s *stubEntranceRepo) UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.existing[externalID]; !ok {
		return errors.New("entrance not found")
	}
	s.updates[externalID] = append(s.updates[externalID], fields)
	return nil
}

func (s *stubEntranceRepo) GetByExternalID(ctx context.Context, externalID string) (domain.Entrance, error) {
	return domain.Entrance{}, errors.New("not implemented")
}

func (s *stubEntranceRepo) ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]uuid.UUID, len(s.existing))
	for externalID, id := range s.existing {
		ids[externalID] = id
	}
	return ids, nil
}

type stubLogRepo struct {
	mu      sync.Mutex
	entries []domain.ImportLogEntry
}

func (s *stubLogRepo) Record(ctx context.Context, entry domain.ImportLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, entry)
	return nil
}

func (s *stubLogRepo) List(ctx context.Context, fileName string, limit, offset int) ([]domain.ImportLogEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	matched := []domain.ImportLogEntry{}
	for _, entry := range s.entries {
		if entry.FileName == fileName {
			matched = append(matched, entry)
		}
	}
	return matched, nil
}

var _ repository.PlaceRepository = (*stubPlaceRepo)(nil)
var _ repository.EntranceRepository = (*stubEntranceRepo)(nil)
var _ repository.ImportLogRepository = (*stubLogRepo)(nil)

func rawRow(number int, cells map[string]string) domain.RawRow {
	return domain.RawRow{Number: number, Cells: cells}
}

var testPlaceMapping = domain.ColumnMapping{
	"place_external_id":     "external_id",
	"name":                  "name",
	"primary_category":      "category",
	"country":               "country",
	"latitude":              "lat",
	"longitude":             "lng",
	"wheelchair_accessible": "wheelchair",
	"website":               "website",
}

var testEntranceMapping = domain.ColumnMapping{
	"place_external_id":    "place_id",
	"entrance_external_id": "entrance_id",
	"entrance_name":        "name",
	"entrance_type":        "type",
	"latitude":             "lat",
	"longitude":            "lng",
	"step_free_access":     "step_free",
}

func placeCells(externalID, name string) map[string]string {
	return map[string]string{
		"external_id": externalID,
		"name":        name,
		"category":    "cafe",
		"country":     "NL",
		"lat":         "52.37",
		"lng":         "4.89",
	}
}

func entranceCells(placeExternalID, entranceExternalID, name string) map[string]string {
	return map[string]string{
		"place_id":    placeExternalID,
		"entrance_id": entranceExternalID,
		"name":        name,
		"type":        "main",
		"lat":         "52.37",
		"lng":         "4.89",
	}
}
