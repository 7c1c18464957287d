package domain

import "time"

// ImportLogEntry records one row-scoped import failure for observability.
type ImportLogEntry struct {
	ID           int64      `json:"id"`
	RecordType   RecordType `json:"record_type"`
	FileName     string     `json:"file_name"`
	RowNumber    *int       `json:"row_number,omitempty"`
	ErrorMessage string     `json:"error_message"`
	CreatedAt    time.Time  `json:"created_at"`
}
