package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/enum"
	"github.com/karahi-ops/api/internal/middleware"
	"github.com/karahi-ops/api/internal/service"
	"github.com/shopspring/decimal"
)

// 10 MB cap on the whole multipart form, media file included.
const maxWastageFormSize = 10 << 20

// WastageStore defines the database methods needed by wastage handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type WastageStore interface {
	GetItemByCode(ctx context.Context, code string) (database.Item, error)
	CreateWastageRecord(ctx context.Context, arg database.CreateWastageRecordParams) (database.WastageRecord, error)
	ListWastageByBranch(ctx context.Context, arg database.ListWastageByBranchParams) ([]database.WastageRecord, error)
}

// WastageHandler handles wastage recording endpoints.
type WastageHandler struct {
	store     WastageStore
	uploadDir string
}

// NewWastageHandler creates a new WastageHandler. Media evidence lands under
// uploadDir; the directory must exist and be writable.
func NewWastageHandler(store WastageStore, uploadDir string) *WastageHandler {
	return &WastageHandler{store: store, uploadDir: uploadDir}
}

// RegisterRoutes registers wastage endpoints on the given Chi router.
// Expected to be mounted inside a branch-scoped subrouter: /branches/{bid}/wastage
func (h *WastageHandler) RegisterRoutes(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/", h.List)
}

type wastageResponse struct {
	ID             uuid.UUID `json:"id"`
	BranchID       uuid.UUID `json:"branch_id"`
	SectionID      uuid.UUID `json:"section_id"`
	ItemCode       string    `json:"item_code"`
	ItemName       string    `json:"item_name"`
	Unit           string    `json:"unit"`
	Qty            string    `json:"qty"`
	WastageType    string    `json:"wastage_type"`
	MediaPath      *string   `json:"media_path"`
	RecordedBy     uuid.UUID `json:"recorded_by"`
	RecordedByName string    `json:"recorded_by_name"`
}

func toWastageResponse(rec database.WastageRecord) wastageResponse {
	resp := wastageResponse{
		ID:             rec.ID,
		BranchID:       rec.BranchID,
		SectionID:      rec.SectionID,
		ItemCode:       rec.ItemCode,
		ItemName:       rec.ItemName,
		Unit:           rec.Unit,
		Qty:            numericString(rec.Qty),
		WastageType:    rec.WastageType,
		RecordedBy:     rec.RecordedBy,
		RecordedByName: rec.RecordedByName,
	}
	if rec.MediaPath.Valid {
		resp.MediaPath = &rec.MediaPath.String
	}
	return resp
}

// Create records wastage from a multipart form. Records are write-once:
// there is no update or delete endpoint.
//
// Form fields: section_id, item_code, qty, wastage_type, media (optional file).
func (h *WastageHandler) Create(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}

	if err := r.ParseMultipartForm(maxWastageFormSize); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form"})
		return
	}

	sectionID, err := uuid.Parse(r.FormValue("section_id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid section_id"})
		return
	}

	itemCode := r.FormValue("item_code")
	if itemCode == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item_code is required"})
		return
	}

	qty, err := decimal.NewFromString(r.FormValue("qty"))
	if err != nil || !qty.IsPositive() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "qty must be > 0"})
		return
	}

	wastageType := r.FormValue("wastage_type")
	switch wastageType {
	case enum.WastageTypeExpired, enum.WastageTypeUnsold, enum.WastageTypeSpillOver:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid wastage_type"})
		return
	}

	item, err := h.store.GetItemByCode(r.Context(), itemCode)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown item_code"})
			return
		}
		log.Printf("ERROR: wastage get item: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	// Same selectable-item predicate as order creation: wastage can only be
	// recorded against items assigned to this branch and section.
	if !service.ItemBelongsTo(item, branchID, sectionID) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "item is not assigned to this branch"})
		return
	}

	mediaPath := pgtype.Text{}
	if file, header, err := r.FormFile("media"); err == nil {
		defer file.Close()
		saved, err := h.saveMedia(file, header.Filename)
		if err != nil {
			log.Printf("ERROR: wastage save media: %v", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
			return
		}
		mediaPath = pgtype.Text{String: saved, Valid: true}
	}

	var n pgtype.Numeric
	_ = n.Scan(qty.String())

	rec, err := h.store.CreateWastageRecord(r.Context(), database.CreateWastageRecordParams{
		BranchID:       branchID,
		SectionID:      sectionID,
		ItemCode:       item.Code,
		ItemName:       item.Name,
		Unit:           item.Unit,
		Qty:            n,
		WastageType:    wastageType,
		MediaPath:      mediaPath,
		RecordedBy:     claims.UserID,
		RecordedByName: claims.FullName,
	})
	if err != nil {
		log.Printf("ERROR: create wastage record: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toWastageResponse(rec))
}

// List returns the branch's wastage records, newest first.
func (h *WastageHandler) List(w http.ResponseWriter, r *http.Request) {
	branchID, err := uuid.Parse(chi.URLParam(r, "bid"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid branch ID"})
		return
	}

	params := database.ListWastageByBranchParams{BranchID: branchID, Limit: 50, Offset: 0}
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		params.Limit = int32(n)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid offset"})
			return
		}
		params.Offset = int32(n)
	}

	records, err := h.store.ListWastageByBranch(r.Context(), params)
	if err != nil {
		log.Printf("ERROR: list wastage: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]wastageResponse, len(records))
	for i, rec := range records {
		resp[i] = toWastageResponse(rec)
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveMedia writes the uploaded file under the upload directory with a
// random name, keeping only the original extension.
func (h *WastageHandler) saveMedia(src io.Reader, original string) (string, error) {
	ext := strings.ToLower(filepath.Ext(original))
	name := fmt.Sprintf("%s%s", uuid.New().String(), ext)
	path := filepath.Join(h.uploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(path)
		return "", err
	}
	return name, nil
}
