package domain

import (
	"time"

	"github.com/google/uuid"
)

// Place is a stored directory record. ExternalID is the natural key used to
// reconcile imports against existing records.
type Place struct {
	ID                   uuid.UUID `json:"id"`
	ExternalID           string    `json:"external_id"`
	Name                 string    `json:"name"`
	Description          string    `json:"description"`
	PrimaryCategory      string    `json:"primary_category"`
	SecondaryCategory    string    `json:"secondary_category"`
	Country              string    `json:"country"`
	City                 string    `json:"city"`
	StreetAddress        string    `json:"street_address"`
	PostalCode           string    `json:"postal_code"`
	Latitude             float64   `json:"latitude"`
	Longitude            float64   `json:"longitude"`
	Website              string    `json:"website"`
	PhoneNumber          string    `json:"phone_number"`
	Email                string    `json:"email"`
	Source               string    `json:"source"`
	WheelchairAccessible bool      `json:"wheelchair_accessible"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// Entrance is a stored entrance record belonging to a place. Both its own
// ExternalID and the parent's external id arrive with the import file; the
// PlaceID foreign key is assigned during reconciliation.
type Entrance struct {
	ID             uuid.UUID `json:"id"`
	PlaceID        uuid.UUID `json:"place_id"`
	ExternalID     string    `json:"external_id"`
	Name           string    `json:"name"`
	EntranceType   string    `json:"entrance_type"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	StepFreeAccess bool      `json:"step_free_access"`
	AutomaticDoor  bool      `json:"automatic_door"`
	DoorWidthCM    float64   `json:"door_width_cm"`
	Notes          string    `json:"notes"`
	PhotoURL       string    `json:"photo_url"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}
