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
)

// CategoryStore defines the database methods needed by category handlers.
// Satisfied by *database.Queries; narrow interface for testability.
//
// Four category families share the same bilingual shape: item categories
// (with sub-categories hanging off them), branch categories and purchase
// categories.
type CategoryStore interface {
	ListItemCategories(ctx context.Context) ([]database.ItemCategory, error)
	GetItemCategory(ctx context.Context, id uuid.UUID) (database.ItemCategory, error)
	CreateItemCategory(ctx context.Context, arg database.CreateItemCategoryParams) (database.ItemCategory, error)
	UpdateItemCategory(ctx context.Context, arg database.UpdateItemCategoryParams) (database.ItemCategory, error)
	DeleteItemCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListSubCategoriesByCategory(ctx context.Context, categoryID uuid.UUID) ([]database.SubCategory, error)
	CreateSubCategory(ctx context.Context, arg database.CreateSubCategoryParams) (database.SubCategory, error)

	ListBranchCategories(ctx context.Context) ([]database.BranchCategory, error)
	CreateBranchCategory(ctx context.Context, arg database.CreateBranchCategoryParams) (database.BranchCategory, error)
	UpdateBranchCategory(ctx context.Context, arg database.UpdateBranchCategoryParams) (database.BranchCategory, error)
	DeleteBranchCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error)

	ListPurchaseCategories(ctx context.Context) ([]database.PurchaseCategory, error)
	CreatePurchaseCategory(ctx context.Context, arg database.CreatePurchaseCategoryParams) (database.PurchaseCategory, error)
	UpdatePurchaseCategory(ctx context.Context, arg database.UpdatePurchaseCategoryParams) (database.PurchaseCategory, error)
	DeletePurchaseCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// CategoryHandler handles the category family endpoints.
type CategoryHandler struct {
	store CategoryStore
}

// NewCategoryHandler creates a new CategoryHandler.
func NewCategoryHandler(store CategoryStore) *CategoryHandler {
	return &CategoryHandler{store: store}
}

// RegisterRoutes registers category endpoints. Mounted behind an admin role
// check.
func (h *CategoryHandler) RegisterRoutes(r chi.Router) {
	r.Route("/item-categories", func(r chi.Router) {
		r.Get("/", h.ListItemCategories)
		r.Post("/", h.CreateItemCategory)
		r.Put("/{id}", h.UpdateItemCategory)
		r.Delete("/{id}", h.DeleteItemCategory)
		r.Get("/{id}/sub-categories", h.ListSubCategories)
		r.Post("/{id}/sub-categories", h.CreateSubCategory)
	})
	r.Route("/branch-categories", func(r chi.Router) {
		r.Get("/", h.ListBranchCategories)
		r.Post("/", h.CreateBranchCategory)
		r.Put("/{id}", h.UpdateBranchCategory)
		r.Delete("/{id}", h.DeleteBranchCategory)
	})
	r.Route("/purchase-categories", func(r chi.Router) {
		r.Get("/", h.ListPurchaseCategories)
		r.Post("/", h.CreatePurchaseCategory)
		r.Put("/{id}", h.UpdatePurchaseCategory)
		r.Delete("/{id}", h.DeletePurchaseCategory)
	})
}

// --- Request / Response types ---

type categoryRequest struct {
	NameEn string `json:"name_en"`
	NameUr string `json:"name_ur"`
}

type categoryResponse struct {
	ID         uuid.UUID `json:"id"`
	NameEn     string    `json:"name_en"`
	NameUr     *string   `json:"name_ur"`
	TotalItems int32     `json:"total_items"`
	CreatedAt  time.Time `json:"created_at"`
}

type subCategoryResponse struct {
	ID         uuid.UUID `json:"id"`
	CategoryID uuid.UUID `json:"category_id"`
	NameEn     string    `json:"name_en"`
	NameUr     *string   `json:"name_ur"`
	CreatedAt  time.Time `json:"created_at"`
}

func (req *categoryRequest) validate(w http.ResponseWriter) bool {
	if req.NameEn == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name_en is required"})
		return false
	}
	return true
}

// --- Item categories ---

func (h *CategoryHandler) ListItemCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListItemCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list item categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{
			ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
			TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CategoryHandler) CreateItemCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	c, err := h.store.CreateItemCategory(r.Context(), database.CreateItemCategoryParams{
		NameEn: req.NameEn,
		NameUr: optionalText(req.NameUr),
	})
	if err != nil {
		log.Printf("ERROR: create item category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{
		ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
		TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
	})
}

func (h *CategoryHandler) UpdateItemCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	c, err := h.store.UpdateItemCategory(r.Context(), database.UpdateItemCategoryParams{
		ID:     id,
		NameEn: req.NameEn,
		NameUr: optionalText(req.NameUr),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: update item category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
		TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
	})
}

func (h *CategoryHandler) DeleteItemCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	if _, err := h.store.DeleteItemCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: delete item category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Sub-categories ---

func (h *CategoryHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	subs, err := h.store.ListSubCategoriesByCategory(r.Context(), categoryID)
	if err != nil {
		log.Printf("ERROR: list sub categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]subCategoryResponse, len(subs))
	for i, s := range subs {
		resp[i] = subCategoryResponse{
			ID: s.ID, CategoryID: s.CategoryID, NameEn: s.NameEn,
			NameUr: textPtr(s.NameUr), CreatedAt: s.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CategoryHandler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	// The parent row must exist; a dangling category_id violates the FK
	// anyway, this just gives a clean 404 instead of a 500.
	if _, err := h.store.GetItemCategory(r.Context(), categoryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: get item category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	s, err := h.store.CreateSubCategory(r.Context(), database.CreateSubCategoryParams{
		CategoryID: categoryID,
		NameEn:     req.NameEn,
		NameUr:     optionalText(req.NameUr),
	})
	if err != nil {
		log.Printf("ERROR: create sub category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, subCategoryResponse{
		ID: s.ID, CategoryID: s.CategoryID, NameEn: s.NameEn,
		NameUr: textPtr(s.NameUr), CreatedAt: s.CreatedAt,
	})
}

// --- Branch categories ---

func (h *CategoryHandler) ListBranchCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListBranchCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list branch categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{
			ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
			TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CategoryHandler) CreateBranchCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	c, err := h.store.CreateBranchCategory(r.Context(), database.CreateBranchCategoryParams{
		NameEn: req.NameEn,
		NameUr: optionalText(req.NameUr),
	})
	if err != nil {
		log.Printf("ERROR: create branch category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{
		ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
		TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
	})
}

func (h *CategoryHandler) UpdateBranchCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	c, err := h.store.UpdateBranchCategory(r.Context(), database.UpdateBranchCategoryParams{
		ID:     id,
		NameEn: req.NameEn,
		NameUr: optionalText(req.NameUr),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: update branch category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
		TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
	})
}

func (h *CategoryHandler) DeleteBranchCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	if _, err := h.store.DeleteBranchCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: delete branch category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Purchase categories ---

func (h *CategoryHandler) ListPurchaseCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListPurchaseCategories(r.Context())
	if err != nil {
		log.Printf("ERROR: list purchase categories: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]categoryResponse, len(categories))
	for i, c := range categories {
		resp[i] = categoryResponse{
			ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
			TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CategoryHandler) CreatePurchaseCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	c, err := h.store.CreatePurchaseCategory(r.Context(), database.CreatePurchaseCategoryParams{
		NameEn: req.NameEn,
		NameUr: optionalText(req.NameUr),
	})
	if err != nil {
		log.Printf("ERROR: create purchase category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, categoryResponse{
		ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
		TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
	})
}

func (h *CategoryHandler) UpdatePurchaseCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	var req categoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if !req.validate(w) {
		return
	}

	c, err := h.store.UpdatePurchaseCategory(r.Context(), database.UpdatePurchaseCategoryParams{
		ID:     id,
		NameEn: req.NameEn,
		NameUr: optionalText(req.NameUr),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: update purchase category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, categoryResponse{
		ID: c.ID, NameEn: c.NameEn, NameUr: textPtr(c.NameUr),
		TotalItems: c.TotalItems, CreatedAt: c.CreatedAt,
	})
}

func (h *CategoryHandler) DeletePurchaseCategory(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid category ID"})
		return
	}

	if _, err := h.store.DeletePurchaseCategory(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "category not found"})
			return
		}
		log.Printf("ERROR: delete purchase category: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	return &t.String
}
