// Package catalog defines the fixed field catalogs for the two record
// shapes an import file can carry, together with the closed category and
// source-platform enumerations. Everything here is a process-wide constant;
// accessors return copies so callers cannot mutate the tables.
package catalog

import (
	"strings"

	"github.com/placedir/importer/internal/domain"
)

// Field keys shared by both catalogs and referenced throughout the pipeline.
const (
	FieldPlaceExternalID    = "place_external_id"
	FieldName               = "name"
	FieldPrimaryCategory    = "primary_category"
	FieldCountry            = "country"
	FieldLatitude           = "latitude"
	FieldLongitude          = "longitude"
	FieldSource             = "source"
	FieldEntranceExternalID = "entrance_external_id"
	FieldEntranceName       = "entrance_name"
	FieldEntranceType       = "entrance_type"
)

const (
	// DefaultCategory is substituted when a category cell matches nothing.
	DefaultCategory = "other"

	// DefaultSource is substituted when a source cell matches nothing.
	DefaultSource = "manual"

	// DefaultEntranceType is used for created entrances with no type cell.
	DefaultEntranceType = "main"
)

var categories = []string{
	"restaurant",
	"cafe",
	"bar",
	"shop",
	"hotel",
	"museum",
	"park",
	"theater",
	"library",
	"healthcare",
	"education",
	"transport",
	"services",
	"other",
}

var sources = []string{
	"manual",
	"google_maps",
	"openstreetmap",
	"foursquare",
	"tripadvisor",
	"city_registry",
}

var entranceTypes = []string{"main", "side", "rear", "service", "accessible"}

var placeFields = []domain.FieldDefinition{
	{
		Key:      FieldPlaceExternalID,
		Label:    "External ID",
		Type:     domain.FieldTypeString,
		Required: true,
		Aliases:  []string{"place_external_id", "external_id", "place_id", "ext_id", "id"},
	},
	{
		Key:      FieldName,
		Label:    "Name",
		Type:     domain.FieldTypeString,
		Required: true,
		Aliases:  []string{"name", "place_name", "venue_name", "title"},
	},
	{
		Key:     "description",
		Label:   "Description",
		Type:    domain.FieldTypeString,
		Aliases: []string{"description", "about", "summary"},
	},
	{
		Key:      FieldPrimaryCategory,
		Label:    "Primary Category",
		Type:     domain.FieldTypeCategory,
		Required: true,
		Aliases:  []string{"primary_category", "category", "main_category", "place_type", "type"},
	},
	{
		Key:     "secondary_category",
		Label:   "Secondary Category",
		Type:    domain.FieldTypeCategory,
		Aliases: []string{"secondary_category", "sub_category", "subcategory"},
	},
	{
		Key:      FieldCountry,
		Label:    "Country",
		Type:     domain.FieldTypeString,
		Required: true,
		Aliases:  []string{"country", "country_code", "nation"},
	},
	{
		Key:     "city",
		Label:   "City",
		Type:    domain.FieldTypeString,
		Aliases: []string{"city", "town", "locality"},
	},
	{
		Key:     "street_address",
		Label:   "Street Address",
		Type:    domain.FieldTypeString,
		Aliases: []string{"street_address", "address", "street", "address_line_1"},
	},
	{
		Key:     "postal_code",
		Label:   "Postal Code",
		Type:    domain.FieldTypeString,
		Aliases: []string{"postal_code", "postcode", "zip", "zip_code"},
	},
	{
		Key:     FieldLatitude,
		Label:   "Latitude",
		Type:    domain.FieldTypeNumber,
		Aliases: []string{"latitude", "lat"},
	},
	{
		Key:     FieldLongitude,
		Label:   "Longitude",
		Type:    domain.FieldTypeNumber,
		Aliases: []string{"longitude", "lng", "lon", "long"},
	},
	{
		Key:     "website",
		Label:   "Website",
		Type:    domain.FieldTypeString,
		Aliases: []string{"website", "url", "web", "homepage"},
	},
	{
		Key:     "phone_number",
		Label:   "Phone Number",
		Type:    domain.FieldTypeString,
		Aliases: []string{"phone_number", "phone", "telephone", "tel"},
	},
	{
		Key:     "email",
		Label:   "Email",
		Type:    domain.FieldTypeString,
		Aliases: []string{"email", "e_mail", "contact_email"},
	},
	{
		Key:     FieldSource,
		Label:   "Source",
		Type:    domain.FieldTypeSource,
		Aliases: []string{"source", "data_source", "platform", "origin"},
	},
	{
		Key:     "wheelchair_accessible",
		Label:   "Wheelchair Accessible",
		Type:    domain.FieldTypeBoolean,
		Aliases: []string{"wheelchair_accessible", "wheelchair", "accessible"},
	},
}

var entranceFields = []domain.FieldDefinition{
	{
		Key:      FieldPlaceExternalID,
		Label:    "Place External ID",
		Type:     domain.FieldTypeString,
		Required: true,
		Aliases:  []string{"place_external_id", "place_id", "parent_id", "place"},
	},
	{
		Key:      FieldEntranceExternalID,
		Label:    "Entrance External ID",
		Type:     domain.FieldTypeString,
		Required: true,
		Aliases:  []string{"entrance_external_id", "entrance_id", "external_id", "id"},
	},
	{
		Key:      FieldEntranceName,
		Label:    "Entrance Name",
		Type:     domain.FieldTypeString,
		Required: true,
		Aliases:  []string{"entrance_name", "name", "label", "title"},
	},
	{
		Key:        FieldEntranceType,
		Label:      "Entrance Type",
		Type:       domain.FieldTypeEnum,
		EnumValues: entranceTypes,
		Aliases:    []string{"entrance_type", "type", "kind"},
	},
	{
		Key:     FieldLatitude,
		Label:   "Latitude",
		Type:    domain.FieldTypeNumber,
		Aliases: []string{"latitude", "lat"},
	},
	{
		Key:     FieldLongitude,
		Label:   "Longitude",
		Type:    domain.FieldTypeNumber,
		Aliases: []string{"longitude", "lng", "lon", "long"},
	},
	{
		Key:     "step_free_access",
		Label:   "Step-free Access",
		Type:    domain.FieldTypeBoolean,
		Aliases: []string{"step_free_access", "step_free", "stepfree", "no_steps", "level_access"},
	},
	{
		Key:     "automatic_door",
		Label:   "Automatic Door",
		Type:    domain.FieldTypeBoolean,
		Aliases: []string{"automatic_door", "auto_door", "automatic"},
	},
	{
		Key:     "door_width_cm",
		Label:   "Door Width (cm)",
		Type:    domain.FieldTypeNumber,
		Aliases: []string{"door_width_cm", "door_width", "width_cm", "width"},
	},
	{
		Key:     "notes",
		Label:   "Notes",
		Type:    domain.FieldTypeString,
		Aliases: []string{"notes", "comments", "remarks"},
	},
	{
		Key:     "photo_url",
		Label:   "Photo URL",
		Type:    domain.FieldTypeString,
		Aliases: []string{"photo_url", "photo", "image_url", "image"},
	},
}

// PlaceFields returns the place catalog in display order.
func PlaceFields() []domain.FieldDefinition {
	return copyFields(placeFields)
}

// EntranceFields returns the entrance catalog in display order.
func EntranceFields() []domain.FieldDefinition {
	return copyFields(entranceFields)
}

// Fields returns the catalog for a record type.
func Fields(recordType domain.RecordType) []domain.FieldDefinition {
	if recordType == domain.RecordTypeEntrance {
		return EntranceFields()
	}
	return PlaceFields()
}

// Categories returns the closed category enumeration.
func Categories() []string {
	return append([]string(nil), categories...)
}

// Sources returns the closed source-platform enumeration.
func Sources() []string {
	return append([]string(nil), sources...)
}

// NormalizeCategory matches raw cell text against the category enumeration,
// case-insensitively. The second return reports whether the text matched;
// on no match the default category is returned.
func NormalizeCategory(raw string) (string, bool) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	for _, category := range categories {
		if category == needle {
			return category, true
		}
	}
	return DefaultCategory, false
}

// NormalizeSource collapses whitespace runs to underscores, lower-cases,
// and matches against the source enumeration. On no match the default
// source tag is returned.
func NormalizeSource(raw string) (string, bool) {
	needle := strings.ToLower(strings.Join(strings.Fields(strings.TrimSpace(raw)), "_"))
	for _, source := range sources {
		if source == needle {
			return source, true
		}
	}
	return DefaultSource, false
}

func copyFields(fields []domain.FieldDefinition) []domain.FieldDefinition {
	copied := make([]domain.FieldDefinition, len(fields))
	copy(copied, fields)
	return copied
}
