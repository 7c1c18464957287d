package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/placedir/importer/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a natural-key lookup matches no record.
var ErrNotFound = errors.New("record not found")

// placeColumns maps catalog field keys to their table columns for sparse
// updates. Keys outside this map are ignored.
var placeColumns = map[string]string{
	"name":                  "name",
	"description":           "description",
	"primary_category":      "primary_category",
	"secondary_category":    "secondary_category",
	"country":               "country",
	"city":                  "city",
	"street_address":        "street_address",
	"postal_code":           "postal_code",
	"latitude":              "latitude",
	"longitude":             "longitude",
	"website":               "website",
	"phone_number":          "phone_number",
	"email":                 "email",
	"source":                "source",
	"wheelchair_accessible": "wheelchair_accessible",
}

type placeRepository struct {
	pool *pgxpool.Pool
}

// NewPlaceRepository wires a place repository backed by pgxpool.
func NewPlaceRepository(pool *pgxpool.Pool) PlaceRepository {
	return &placeRepository{pool: pool}
}

func (r *placeRepository) Create(ctx context.Context, place domain.Place) (domain.Place, error) {
	row := r.pool.QueryRow(
		ctx,
		`INSERT INTO places (
			external_id, name, description, primary_category, secondary_category,
			country, city, street_address, postal_code, latitude, longitude,
			website, phone_number, email, source, wheelchair_accessible
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, created_at, updated_at`,
		place.ExternalID,
		place.Name,
		place.Description,
		place.PrimaryCategory,
		place.SecondaryCategory,
		place.Country,
		place.City,
		place.StreetAddress,
		place.PostalCode,
		place.Latitude,
		place.Longitude,
		place.Website,
		place.PhoneNumber,
		place.Email,
		place.Source,
		place.WheelchairAccessible,
	)
	if err := row.Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt); err != nil {
		return domain.Place{}, fmt.Errorf("failed to create place: %w", err)
	}
	return place, nil
}

func (r *placeRepository) UpdateByExternalID(ctx context.Context, externalID string, fields map[string]any) error {
	setClause, args := buildSparseUpdate(placeColumns, fields)
	if setClause == "" {
		return nil
	}
	args = append(args, externalID)

	query := fmt.Sprintf(
		"UPDATE places SET %s, updated_at = now() WHERE external_id = $%d",
		setClause, len(args),
	)
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update place: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("place %q: %w", externalID, ErrNotFound)
	}
	return nil
}

func (r *placeRepository) GetByExternalID(ctx context.Context, externalID string) (domain.Place, error) {
	var place domain.Place
	err := r.pool.QueryRow(
		ctx,
		`SELECT id, external_id, name, description, primary_category, secondary_category,
			country, city, street_address, postal_code, latitude, longitude,
			website, phone_number, email, source, wheelchair_accessible,
			created_at, updated_at
		 FROM places WHERE external_id = $1`,
		externalID,
	).Scan(
		&place.ID,
		&place.ExternalID,
		&place.Name,
		&place.Description,
		&place.PrimaryCategory,
		&place.SecondaryCategory,
		&place.Country,
		&place.City,
		&place.StreetAddress,
		&place.PostalCode,
		&place.Latitude,
		&place.Longitude,
		&place.Website,
		&place.PhoneNumber,
		&place.Email,
		&place.Source,
		&place.WheelchairAccessible,
		&place.CreatedAt,
		&place.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Place{}, fmt.Errorf("place %q: %w", externalID, ErrNotFound)
		}
		return domain.Place{}, fmt.Errorf("failed to get place: %w", err)
	}
	return place, nil
}

func (r *placeRepository) ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, `SELECT external_id, id FROM places`)
	if err != nil {
		return nil, fmt.Errorf("failed to list place ids: %w", err)
	}
	defer rows.Close()

	return scanExternalIDs(rows, "place")
}

// buildSparseUpdate renders a deterministic SET clause from the non-null
// payload fields. Keys without a column mapping are skipped.
func buildSparseUpdate(columns map[string]string, fields map[string]any) (string, []any) {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		if _, ok := columns[key]; ok {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	assignments := make([]string, 0, len(keys))
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		args = append(args, fields[key])
		assignments = append(assignments, fmt.Sprintf("%s = $%d", columns[key], len(args)))
	}
	return strings.Join(assignments, ", "), args
}

func scanExternalIDs(rows pgx.Rows, label string) (map[string]uuid.UUID, error) {
	ids := make(map[string]uuid.UUID)
	for rows.Next() {
		var externalID string
		var id uuid.UUID
		if err := rows.Scan(&externalID, &id); err != nil {
			return nil, fmt.Errorf("failed to scan %s id: %w", label, err)
		}
		ids[externalID] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate %s ids: %w", label, err)
	}
	return ids, nil
}
