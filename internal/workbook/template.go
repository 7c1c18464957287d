package workbook

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"github.com/placedir/importer/internal/catalog"
	"github.com/placedir/importer/internal/domain"

	"github.com/xuri/excelize/v2"
)

const (
	templateSheetPlaces    = "Places"
	templateSheetEntrances = "Entrances"
)

// Template returns an empty two-sheet workbook pre-populated with the
// catalog header labels, ready to be filled in and re-uploaded.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", templateSheetPlaces); err != nil {
		return nil, fmt.Errorf("failed to name places sheet: %w", err)
	}
	if _, err := f.NewSheet(templateSheetEntrances); err != nil {
		return nil, fmt.Errorf("failed to add entrances sheet: %w", err)
	}

	placeLabels := fieldLabels(catalog.PlaceFields())
	if err := f.SetSheetRow(templateSheetPlaces, "A1", &placeLabels); err != nil {
		return nil, fmt.Errorf("failed to write places header: %w", err)
	}
	entranceLabels := fieldLabels(catalog.EntranceFields())
	if err := f.SetSheetRow(templateSheetEntrances, "A1", &entranceLabels); err != nil {
		return nil, fmt.Errorf("failed to write entrances header: %w", err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// CSVTemplate returns an empty single-sheet CSV header for one record type.
func CSVTemplate(recordType domain.RecordType) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(fieldLabels(catalog.Fields(recordType))); err != nil {
		return nil, fmt.Errorf("failed to write csv header: %w", err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("failed to flush csv header: %w", err)
	}
	return buf.Bytes(), nil
}

func fieldLabels(fields []domain.FieldDefinition) []string {
	labels := make([]string, len(fields))
	for i, field := range fields {
		labels[i] = field.Label
	}
	return labels
}
