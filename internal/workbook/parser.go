// Package workbook reads two-sheet import files into raw row tables and
// generates empty templates pre-populated with the catalog headers.
package workbook

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/placedir/importer/internal/domain"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrMalformedWorkbook is returned when the binary input cannot be read.
	ErrMalformedWorkbook = errors.New("malformed workbook")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Sheet is one parsed sheet: the non-empty column headers in file order and
// the raw rows keyed by those headers. Fully blank rows are discarded, but
// row numbering still counts them so reported numbers match the file.
type Sheet struct {
	Name    string          `json:"name"`
	Columns []string        `json:"columns"`
	Rows    []domain.RawRow `json:"rows"`
}

// Workbook holds the two parsed record sheets. A file without an entrances
// sheet yields an empty Entrances sheet, not an error.
type Workbook struct {
	Places    Sheet `json:"places"`
	Entrances Sheet `json:"entrances"`
}

// Parse reads an uploaded file into the two record sheets. Sheet roles are
// matched case-insensitively by name substring ("place", "entrance"); a
// sheet that matches neither falls back to position. CSV input carries a
// single sheet and is treated as places only.
func Parse(fileName string, payload []byte) (Workbook, error) {
	if len(payload) == 0 {
		return Workbook{}, fmt.Errorf("%w: file is empty", ErrMalformedWorkbook)
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return Workbook{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (Workbook, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return Workbook{}, fmt.Errorf("%w: failed to read csv: %v", ErrMalformedWorkbook, err)
	}

	places, err := buildSheet("places", records)
	if err != nil {
		return Workbook{}, err
	}
	return Workbook{Places: places, Entrances: Sheet{Name: "entrances"}}, nil
}

func parseExcel(payload []byte) (Workbook, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return Workbook{}, fmt.Errorf("%w: failed to open xlsx: %v", ErrMalformedWorkbook, err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return Workbook{}, fmt.Errorf("%w: excel file has no sheets", ErrMalformedWorkbook)
	}

	placeName, entranceName := pickSheets(sheets)

	places, err := readSheet(f, "places", placeName)
	if err != nil {
		return Workbook{}, err
	}

	entrances := Sheet{Name: "entrances"}
	if entranceName != "" {
		entrances, err = readSheet(f, "entrances", entranceName)
		if err != nil {
			return Workbook{}, err
		}
	}

	return Workbook{Places: places, Entrances: entrances}, nil
}

// pickSheets assigns sheet roles by case-insensitive substring match, with
// positional fallbacks: first sheet for places, second for entrances.
func pickSheets(names []string) (placeName, entranceName string) {
	for _, name := range names {
		lower := strings.ToLower(name)
		if placeName == "" && strings.Contains(lower, "place") {
			placeName = name
		}
		if entranceName == "" && strings.Contains(lower, "entrance") {
			entranceName = name
		}
	}
	if placeName == "" {
		placeName = names[0]
	}
	if entranceName == "" && len(names) > 1 && names[1] != placeName {
		entranceName = names[1]
	}
	return placeName, entranceName
}

func readSheet(f *excelize.File, role, sheetName string) (Sheet, error) {
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return Sheet{}, fmt.Errorf("%w: failed to read sheet %s: %v", ErrMalformedWorkbook, sheetName, err)
	}
	return buildSheet(role, rows)
}

// buildSheet turns raw records into a Sheet. The first record is the header
// row; columns with empty header text are dropped from the column list but
// their cells still populate rows under an empty key.
func buildSheet(role string, records [][]string) (Sheet, error) {
	sheet := Sheet{Name: role}
	if len(records) == 0 {
		return sheet, nil
	}

	headers := make([]string, len(records[0]))
	for i, header := range records[0] {
		headers[i] = strings.TrimSpace(header)
	}
	for _, header := range headers {
		if header != "" {
			sheet.Columns = append(sheet.Columns, header)
		}
	}

	for idx, record := range records[1:] {
		row := padRow(record, len(headers))

		keep := false
		cells := make(map[string]string, len(headers))
		for col, header := range headers {
			value := strings.TrimSpace(row[col])
			cells[header] = value
			if value != "" {
				keep = true
			}
		}
		if !keep {
			continue
		}

		sheet.Rows = append(sheet.Rows, domain.RawRow{
			Number: idx + 1, // 1-based, counted from the first data row
			Cells:  cells,
		})
	}

	return sheet, nil
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	return padded
}
