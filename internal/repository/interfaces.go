package repository

import (
	"context"

	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
)

// PlaceRepository defines the store contract consumed by the import
// pipeline for place records. ListExternalIDs is the bulk reconciliation
// lookup; it runs once before validation and once after the place write
// phase to pick up ids created in the same run.
type PlaceRepository interface {
	Create(ctx context.Context, place domain.Place) (domain.Place, error)
	UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error
	GetByExternalID(ctx context.Context, externalID string) (domain.Place, error)
	ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error)
}

// EntranceRepository defines the store contract for entrance records.
type EntranceRepository interface {
	Create(ctx context.Context, entrance domain.Entrance) (domain.Entrance, error)
	UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error
	GetByExternalID(ctx context.Context, externalID string) (domain.Entrance, error)
	ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error)
}

// ImportLogRepository stores row-scoped import failures for observability.
type ImportLogRepository interface {
	Record(ctx context.Context, entry domain.ImportLogEntry) error
	List(ctx context.Context, fileName string, limit, offset int) ([]domain.ImportLogEntry, error)
}
