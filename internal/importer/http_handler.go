package importer

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/placedir/importer/internal/domain"
	"github.com/placedir/importer/internal/repository"
	"github.com/placedir/importer/internal/workbook"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// Handler exposes the import wizard over HTTP. One session id maps to one
// pipeline run; the UI drives the stage transitions through these routes.
type Handler struct {
	sessions *SessionStore
	logs     repository.ImportLogRepository
}

// NewHTTPHandler wires the wizard routes onto a chi router. logs may be
// nil when failure history is not persisted.
func NewHTTPHandler(sessions *SessionStore, logs repository.ImportLogRepository) http.Handler {
	h := &Handler{sessions: sessions, logs: logs}

	r := chi.NewRouter()
	r.Get("/template", h.template)
	r.Get("/logs", h.listLogs)
	r.Post("/", h.upload)
	r.Get("/{sessionID}", h.state)
	r.Patch("/{sessionID}/mappings", h.updateMappings)
	r.Post("/{sessionID}/proceed", h.proceed)
	r.Post("/{sessionID}/back", h.back)
	r.Post("/{sessionID}/validate", h.validate)
	r.Post("/{sessionID}/run", h.run)
	r.Post("/{sessionID}/reset", h.reset)
	return r
}

type sheetSummary struct {
	Columns  []string `json:"columns"`
	RowCount int      `json:"rowCount"`
}

type sessionResponse struct {
	ID               uuid.UUID            `json:"id"`
	Stage            Stage                `json:"stage"`
	FileName         string               `json:"fileName,omitempty"`
	Places           sheetSummary         `json:"places"`
	Entrances        sheetSummary         `json:"entrances"`
	PlaceMappings    domain.ColumnMapping `json:"placeMappings"`
	EntranceMappings domain.ColumnMapping `json:"entranceMappings"`
}

type validationResponse struct {
	Stage        Stage              `json:"stage"`
	PlaceRows    []domain.ParsedRow `json:"placeRows"`
	EntranceRows []domain.ParsedRow `json:"entranceRows"`
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid form data: %v", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, fmt.Sprintf("file required: %v", err), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to read file: %v", err), http.StatusBadRequest)
		return
	}

	id, pipeline := h.sessions.Create()
	if err := pipeline.Upload(header.Filename, bytes.NewReader(data)); err != nil {
		h.sessions.Delete(id)
		status := http.StatusBadRequest
		if !errors.Is(err, workbook.ErrMalformedWorkbook) && !errors.Is(err, workbook.ErrUnsupportedFormat) {
			status = http.StatusInternalServerError
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusCreated, h.sessionState(id, pipeline))
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	id, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.sessionState(id, pipeline))
}

type mappingUpdate struct {
	Places    map[string]string `json:"places"`
	Entrances map[string]string `json:"entrances"`
}

func (h *Handler) updateMappings(w http.ResponseWriter, r *http.Request) {
	id, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var update mappingUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		http.Error(w, fmt.Sprintf("invalid mapping payload: %v", err), http.StatusBadRequest)
		return
	}

	for fieldKey, column := range update.Places {
		if err := pipeline.SetPlaceColumn(fieldKey, column); err != nil {
			writeTransitionError(w, err)
			return
		}
	}
	for fieldKey, column := range update.Entrances {
		if err := pipeline.SetEntranceColumn(fieldKey, column); err != nil {
			writeTransitionError(w, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, h.sessionState(id, pipeline))
}

func (h *Handler) proceed(w http.ResponseWriter, r *http.Request) {
	id, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := pipeline.ProceedToEntrances(); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionState(id, pipeline))
}

func (h *Handler) back(w http.ResponseWriter, r *http.Request) {
	id, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := pipeline.BackToPlaces(); err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.sessionState(id, pipeline))
}

func (h *Handler) validate(w http.ResponseWriter, r *http.Request) {
	_, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}
	if err := pipeline.Validate(r.Context()); err != nil {
		writeTransitionError(w, err)
		return
	}

	placeRows, entranceRows := pipeline.Rows()
	writeJSON(w, http.StatusOK, validationResponse{
		Stage:        pipeline.Stage(),
		PlaceRows:    placeRows,
		EntranceRows: entranceRows,
	})
}

func (h *Handler) run(w http.ResponseWriter, r *http.Request) {
	_, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}
	results, err := pipeline.Run(r.Context())
	if err != nil {
		writeTransitionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	id, pipeline, ok := h.lookup(w, r)
	if !ok {
		return
	}
	pipeline.Reset()
	writeJSON(w, http.StatusOK, h.sessionState(id, pipeline))
}

func (h *Handler) template(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Query().Get("format") {
	case "csv":
		recordType := domain.RecordTypePlace
		if r.URL.Query().Get("type") == string(domain.RecordTypeEntrance) {
			recordType = domain.RecordTypeEntrance
		}
		payload, err := workbook.CSVTemplate(recordType)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s_import_template.csv", recordType))
		_, _ = w.Write(payload)
	default:
		payload, err := workbook.Template()
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition", "attachment; filename=import_template.xlsx")
		_, _ = w.Write(payload)
	}
}

func (h *Handler) listLogs(w http.ResponseWriter, r *http.Request) {
	if h.logs == nil {
		http.Error(w, "import log history not available", http.StatusNotFound)
		return
	}

	fileName := r.URL.Query().Get("file")
	if fileName == "" {
		http.Error(w, "query parameter file is required", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	entries, err := h.logs.List(r.Context(), fileName, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (uuid.UUID, *Pipeline, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "sessionID"))
	if err != nil {
		http.Error(w, fmt.Sprintf("invalid session id: %v", err), http.StatusBadRequest)
		return uuid.Nil, nil, false
	}
	pipeline, err := h.sessions.Get(id)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return uuid.Nil, nil, false
	}
	return id, pipeline, true
}

func (h *Handler) sessionState(id uuid.UUID, pipeline *Pipeline) sessionResponse {
	book := pipeline.Workbook()
	placeMappings, entranceMappings := pipeline.Mappings()
	return sessionResponse{
		ID:       id,
		Stage:    pipeline.Stage(),
		FileName: pipeline.FileName(),
		Places: sheetSummary{
			Columns:  book.Places.Columns,
			RowCount: len(book.Places.Rows),
		},
		Entrances: sheetSummary{
			Columns:  book.Entrances.Columns,
			RowCount: len(book.Entrances.Rows),
		},
		PlaceMappings:    placeMappings,
		EntranceMappings: entranceMappings,
	}
}

func writeTransitionError(w http.ResponseWriter, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, ErrInvalidTransition) {
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(payload)
}
