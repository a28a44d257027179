package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/karahi-ops/api/internal/database"
)

// SectionStore defines the database methods needed by section handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type SectionStore interface {
	ListSections(ctx context.Context) ([]database.Section, error)
	ListActiveSections(ctx context.Context) ([]database.Section, error)
	GetSection(ctx context.Context, id uuid.UUID) (database.Section, error)
	CreateSection(ctx context.Context, name string) (database.Section, error)
	UpdateSection(ctx context.Context, arg database.UpdateSectionParams) (database.Section, error)
	SoftDeleteSection(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// SectionHandler handles section CRUD endpoints.
type SectionHandler struct {
	store SectionStore
}

// NewSectionHandler creates a new SectionHandler.
func NewSectionHandler(store SectionStore) *SectionHandler {
	return &SectionHandler{store: store}
}

// RegisterRoutes registers section CRUD endpoints. Mounted behind an admin
// role check; branch staff read sections through /catalog.
func (h *SectionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type sectionRequest struct {
	Name string `json:"name"`
}

type sectionResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toSectionResponse(s database.Section) sectionResponse {
	return sectionResponse{ID: s.ID, Name: s.Name, IsActive: s.IsActive, CreatedAt: s.CreatedAt}
}

// List returns all sections. Pass ?active=true to hide soft-deleted ones.
func (h *SectionHandler) List(w http.ResponseWriter, r *http.Request) {
	var sections []database.Section
	var err error
	if r.URL.Query().Get("active") == "true" {
		sections, err = h.store.ListActiveSections(r.Context())
	} else {
		sections, err = h.store.ListSections(r.Context())
	}
	if err != nil {
		log.Printf("ERROR: list sections: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]sectionResponse, len(sections))
	for i, s := range sections {
		resp[i] = toSectionResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new section.
func (h *SectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	section, err := h.store.CreateSection(r.Context(), req.Name)
	if err != nil {
		log.Printf("ERROR: create section: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toSectionResponse(section))
}

// Get returns one section by ID.
func (h *SectionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid section ID"})
		return
	}

	section, err := h.store.GetSection(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "section not found"})
			return
		}
		log.Printf("ERROR: get section: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSectionResponse(section))
}

// Update renames an existing section.
func (h *SectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid section ID"})
		return
	}

	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	section, err := h.store.UpdateSection(r.Context(), database.UpdateSectionParams{ID: id, Name: req.Name})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "section not found"})
			return
		}
		log.Printf("ERROR: update section: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toSectionResponse(section))
}

// Delete soft-deletes a section by setting is_active=false.
func (h *SectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid section ID"})
		return
	}

	if _, err := h.store.SoftDeleteSection(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "section not found"})
			return
		}
		log.Printf("ERROR: delete section: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
