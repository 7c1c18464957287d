package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var entranceColumns = map[string]string{
	"place_id":         "place_id",
	"entrance_name":    "name",
	"entrance_type":    "entrance_type",
	"latitude":         "latitude",
	"longitude":        "longitude",
	"step_free_access": "step_free_access",
	"automatic_door":   "automatic_door",
	"door_width_cm":    "door_width_cm",
	"notes":            "notes",
	"photo_url":        "photo_url",
}

type entranceRepository struct {
	pool *pgxpool.Pool
}

// NewEntranceRepository wires an entrance repository backed by pgxpool.
func NewEntranceRepository(pool *pgxpool.Pool) EntranceRepository {
	return &entranceRepository{pool: pool}
}

func (r *entranceRepository) Create(ctx context.Context, entrance domain.Entrance) (domain.Entrance, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO entrances (
			place_id, external_id, name, entrance_type, latitude, longitude,
			step_free_access, automatic_door, door_width_cm, notes, photo_url
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`,
		entrance.PlaceID,
		entrance.ExternalID,
		entrance.Name,
		entrance.EntranceType,
		entrance.Latitude,
		entrance.Longitude,
		entrance.StepFreeAccess,
		entrance.AutomaticDoor,
		entrance.DoorWidthCM,
		entrance.Notes,
		entrance.PhotoURL,
	)
	if err := row.Scan(&entrance.ID, &entrance.CreatedAt, &entrance.UpdatedAt); err != nil {
		return domain.Entrance{}, fmt.Errorf("failed to create entrance: %w", err)
	}
	return entrance, nil
}

func (r *entranceRepository) UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error {
	setClause, args := buildSparseUpdate(entranceColumns, fields)
	if setClause == "" {
		return nil
	}
	args = append(args, externalID)

	query := fmt.Sprintf(
		"UPDATE entrances SET %s, updated_at = now() WHERE external_id = $%d",
		setClause, len(args),
	)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entrance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("entrance %q: %w", externalID, ErrNotFound)
	}
	return nil
}

func (r *entranceRepository) GetByExternalID(ctx context.Context, externalID string) (domain.Entrance, error) {
	var entrance domain.Entrance
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, place_id, external_id, name, entrance_type, latitude, longitude,
			step_free_access, automatic_door, door_width_cm, notes, photo_url,
			created_at, updated_at
		 FROM entrances WHERE external_id = $1`,
		externalID,
	).Scan(
		&entrance.ID,
		&entrance.PlaceID,
		&entrance.ExternalID,
		&entrance.Name,
		&entrance.EntranceType,
		&entrance.Latitude,
		&entrance.Longitude,
		&entrance.StepFreeAccess,
		&entrance.AutomaticDoor,
		&entrance.DoorWidthCM,
		&entrance.Notes,
		&entrance.PhotoURL,
		&entrance.CreatedAt,
		&entrance.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Entrance{}, fmt.Errorf("entrance %q: %w", externalID, ErrNotFound)
		}
		return domain.Entrance{}, fmt.Errorf("failed to get entrance: %w", err)
	}
	return entrance, nil
}

func (r *entranceRepository) ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT external_id, id FROM entrances`)
	if err != nil {
		return nil, fmt.Errorf("failed to list entrance ids: %w", err)
	}
	defer rows.Close()

	return scanExternalIDs(rows, "entrance")
}
