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
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/service"
)

// ItemStore defines the database methods needed by item handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type ItemStore interface {
	ListItems(ctx context.Context) ([]database.Item, error)
	GetItem(ctx context.Context, id uuid.UUID) (database.Item, error)
	CreateItem(ctx context.Context, arg database.CreateItemParams) (database.Item, error)
	UpdateItem(ctx context.Context, arg database.UpdateItemParams) (database.Item, error)
	SoftDeleteItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ItemHandler handles catalog item endpoints.
type ItemHandler struct {
	store ItemStore
}

// NewItemHandler creates a new ItemHandler.
func NewItemHandler(store ItemStore) *ItemHandler {
	return &ItemHandler{store: store}
}

// RegisterRoutes registers admin item CRUD endpoints.
func (h *ItemHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// RegisterCatalogRoutes registers the branch-facing read endpoint. Mounted
// inside a branch-scoped subrouter: /branches/{bid}/catalog/items
func (h *ItemHandler) RegisterCatalogRoutes(r chi.Router) {
	r.Get("/", h.ListForBranch)
}

// --- Request / Response types ---

type itemRequest struct {
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	CategoryID    string          `json:"category_id"`
	SubCategoryID string          `json:"sub_category_id"`
	SectionID     string          `json:"section_id"`
	AssignBranch  json.RawMessage `json:"assign_branch"`
}

type itemResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Unit          string          `json:"unit"`
	CategoryID    *uuid.UUID      `json:"category_id"`
	SubCategoryID *uuid.UUID      `json:"sub_category_id"`
	SectionID     *uuid.UUID      `json:"section_id"`
	AssignBranch  json.RawMessage `json:"assign_branch"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

func toItemResponse(i database.Item) itemResponse {
	resp := itemResponse{
		ID:        i.ID,
		Code:      i.Code,
		Name:      i.Name,
		Unit:      i.Unit,
		IsActive:  i.IsActive,
		CreatedAt: i.CreatedAt,
	}
	if i.CategoryID.Valid {
		id := uuid.UUID(i.CategoryID.Bytes)
		resp.CategoryID = &id
	}
	if i.SubCategoryID.Valid {
		id := uuid.UUID(i.SubCategoryID.Bytes)
		resp.SubCategoryID = &id
	}
	if i.SectionID.Valid {
		id := uuid.UUID(i.SectionID.Bytes)
		resp.SectionID = &id
	}
	if len(i.AssignBranch) > 0 {
		resp.AssignBranch = json.RawMessage(i.AssignBranch)
	}
	return resp
}

// --- Handlers ---

// List returns all active items.
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemResponse, len(items))
	for i, item := range items {
		resp[i] = toItemResponse(item)
	}
	writeJSON(w, http.StatusOK, resp)
}

// ListForBranch returns the items assigned to the branch, optionally
// narrowed to one section. Assignment data comes in four historical shapes;
// filtering happens at read time.
func (h *ItemHandler) ListForBranch(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	var sectionID uuid.UUID
	if v := r.URL.Query().Get("section_id"); v != "" {
		sectionID, err = uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid section_id"})
			return
		}
	}

	items, err := h.store.ListItems(r.Context())
	if err != nil {
		log.Printf("ERROR: list items for branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]itemResponse, 0, len(items))
	for _, item := range items {
		if service.ItemBelongsTo(item, branchID, sectionID) {
			resp = append(resp, toItemResponse(item))
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one item by ID.
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	item, err := h.store.GetItem(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: get item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Create adds a new catalog item.
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Code == "" || req.Name == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "code, name and unit are required"})
		return
	}

	categoryID, ok := parseOptionalUUID(w, req.CategoryID, "category_id")
	if !ok {
		return
	}
	subCategoryID, ok := parseOptionalUUID(w, req.SubCategoryID, "sub_category_id")
	if !ok {
		return
	}
	sectionID, ok := parseOptionalUUID(w, req.SectionID, "section_id")
	if !ok {
		return
	}

	item, err := h.store.CreateItem(r.Context(), database.CreateItemParams{
		Code:          req.Code,
		Name:          req.Name,
		Unit:          req.Unit,
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		SectionID:     sectionID,
		AssignBranch:  req.AssignBranch,
	})
	if err != nil {
		log.Printf("ERROR: create item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toItemResponse(item))
}

// Update modifies an existing item. The code is immutable once assigned;
// order lines reference items by code snapshot.
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	var req itemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" || req.Unit == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name and unit are required"})
		return
	}

	categoryID, ok := parseOptionalUUID(w, req.CategoryID, "category_id")
	if !ok {
		return
	}
	subCategoryID, ok := parseOptionalUUID(w, req.SubCategoryID, "sub_category_id")
	if !ok {
		return
	}
	sectionID, ok := parseOptionalUUID(w, req.SectionID, "section_id")
	if !ok {
		return
	}

	item, err := h.store.UpdateItem(r.Context(), database.UpdateItemParams{
		ID:            id,
		Name:          req.Name,
		Unit:          req.Unit,
		CategoryID:    categoryID,
		SubCategoryID: subCategoryID,
		SectionID:     sectionID,
		AssignBranch:  req.AssignBranch,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: update item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toItemResponse(item))
}

// Delete soft-deletes an item by setting is_active=false. Existing order
// lines keep their snapshots.
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid item ID"})
		return
	}

	if _, err := h.store.SoftDeleteItem(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "item not found"})
			return
		}
		log.Printf("ERROR: delete item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseOptionalUUID parses an optional UUID field and writes a 400 response
// on malformed input. The second return reports whether to continue.
func parseOptionalUUID(w http.ResponseWriter, s, field string) (pgtype.UUID, bool) {
	if s == "" {
		return pgtype.UUID{}, true
	}
	id, err := uuid.Parse(s)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid " + field})
		return pgtype.UUID{}, false
	}
	return pgtype.UUID{Bytes: id, Valid: true}, true
}
