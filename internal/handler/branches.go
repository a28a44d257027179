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

// BranchStore defines the database methods needed by branch handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type BranchStore interface {
	ListBranches(ctx context.Context) ([]database.Branch, error)
	GetBranch(ctx context.Context, id uuid.UUID) (database.Branch, error)
	CreateBranch(ctx context.Context, arg database.CreateBranchParams) (database.Branch, error)
	UpdateBranch(ctx context.Context, arg database.UpdateBranchParams) (database.Branch, error)
	SoftDeleteBranch(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// BranchHandler handles branch CRUD endpoints.
type BranchHandler struct {
	store BranchStore
}

// NewBranchHandler creates a new BranchHandler.
func NewBranchHandler(store BranchStore) *BranchHandler {
	return &BranchHandler{store: store}
}

// RegisterRoutes registers branch CRUD endpoints. Mounted behind an admin
// role check.
func (h *BranchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.Get)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type branchRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type branchResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Address   *string   `json:"address"`
	Phone     *string   `json:"phone"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func toBranchResponse(b database.Branch) branchResponse {
	resp := branchResponse{
		ID:        b.ID,
		Name:      b.Name,
		IsActive:  b.IsActive,
		CreatedAt: b.CreatedAt,
	}
	if b.Address.Valid {
		resp.Address = &b.Address.String
	}
	if b.Phone.Valid {
		resp.Phone = &b.Phone.String
	}
	return resp
}

// --- Handlers ---

// List returns all active branches.
func (h *BranchHandler) List(w http.ResponseWriter, r *http.Request) {
	branches, err := h.store.ListBranches(r.Context())
	if err != nil {
		log.Printf("ERROR: list branches: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]branchResponse, len(branches))
	for i, b := range branches {
		resp[i] = toBranchResponse(b)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one branch by ID.
func (h *BranchHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	branch, err := h.store.GetBranch(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: get branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBranchResponse(branch))
}

// Create adds a new branch.
func (h *BranchHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	branch, err := h.store.CreateBranch(r.Context(), database.CreateBranchParams{
		Name:    req.Name,
		Address: optionalText(req.Address),
		Phone:   optionalText(req.Phone),
	})
	if err != nil {
		log.Printf("ERROR: create branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toBranchResponse(branch))
}

// Update modifies an existing branch.
func (h *BranchHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	var req branchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	branch, err := h.store.UpdateBranch(r.Context(), database.UpdateBranchParams{
		ID:      id,
		Name:    req.Name,
		Address: optionalText(req.Address),
		Phone:   optionalText(req.Phone),
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: update branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, toBranchResponse(branch))
}

// Delete soft-deletes a branch by setting is_active=false.
func (h *BranchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	if _, err := h.store.SoftDeleteBranch(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "branch not found"})
			return
		}
		log.Printf("ERROR: delete branch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func optionalText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{}
	}
	return pgtype.Text{String: s, Valid: true}
}
