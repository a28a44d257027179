package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/karahi-ops/api/internal/auth"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/handler"
	"github.com/karahi-ops/api/internal/middleware"
)

type mockWastageStore struct {
	getItemByCodeFn       func(ctx context.Context, code string) (database.Item, error)
	createWastageRecordFn func(ctx context.Context, arg database.CreateWastageRecordParams) (database.WastageRecord, error)
	listWastageByBranchFn func(ctx context.Context, arg database.ListWastageByBranchParams) ([]database.WastageRecord, error)
}

func (m *mockWastageStore) GetItemByCode(ctx context.Context, code string) (database.Item, error) {
	if m.getItemByCodeFn != nil {
		return m.getItemByCodeFn(ctx, code)
	}
	return database.Item{}, pgx.ErrNoRows
}

func (m *mockWastageStore) CreateWastageRecord(ctx context.Context, arg database.CreateWastageRecordParams) (database.WastageRecord, error) {
	if m.createWastageRecordFn != nil {
		return m.createWastageRecordFn(ctx, arg)
	}
	return database.WastageRecord{}, pgx.ErrNoRows
}

func (m *mockWastageStore) ListWastageByBranch(ctx context.Context, arg database.ListWastageByBranchParams) ([]database.WastageRecord, error) {
	if m.listWastageByBranchFn != nil {
		return m.listWastageByBranchFn(ctx, arg)
	}
	return []database.WastageRecord{}, nil
}

func setupWastageRouter(t *testing.T, store *mockWastageStore) *chi.Mux {
	t.Helper()
	h := handler.NewWastageHandler(store, t.TempDir())
	r := chi.NewRouter()
	r.Use(middleware.Authenticate(testJWTSecret))
	r.Route("/branches/{bid}/wastage", h.RegisterRoutes)
	return r
}

// doWastageForm posts a multipart form with the given fields.
func doWastageForm(t *testing.T, router http.Handler, branchID uuid.UUID, claims *auth.Claims, fields map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field %s: %v", k, err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	token, err := auth.GenerateToken(testJWTSecret, claims.UserID, claims.BranchID, claims.FullName, claims.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	req := httptest.NewRequest("POST", "/branches/"+branchID.String()+"/wastage", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestWastageCreate_HappyPath(t *testing.T) {
	branchID := uuid.New()
	sectionID := uuid.New()
	claims := branchClaims(branchID)

	store := &mockWastageStore{
		getItemByCodeFn: func(ctx context.Context, code string) (database.Item, error) {
			if code != "RICE01" {
				t.Errorf("item code: got %v, want RICE01", code)
			}
			return database.Item{
				ID:           uuid.New(),
				Code:         "RICE01",
				Name:         "Basmati Rice",
				Unit:         "kg",
				AssignBranch: []byte(`"` + branchID.String() + `"`),
			}, nil
		},
		createWastageRecordFn: func(ctx context.Context, arg database.CreateWastageRecordParams) (database.WastageRecord, error) {
			if arg.BranchID != branchID {
				t.Errorf("branch_id: got %v, want %v", arg.BranchID, branchID)
			}
			if arg.ItemName != "Basmati Rice" || arg.Unit != "kg" {
				t.Errorf("snapshot: got %v/%v", arg.ItemName, arg.Unit)
			}
			if arg.WastageType != "EXPIRED" {
				t.Errorf("wastage_type: got %v, want EXPIRED", arg.WastageType)
			}
			if arg.RecordedBy != claims.UserID || arg.RecordedByName != claims.FullName {
				t.Errorf("recorded_by: got %v/%v", arg.RecordedBy, arg.RecordedByName)
			}
			return database.WastageRecord{
				ID:             uuid.New(),
				BranchID:       arg.BranchID,
				SectionID:      arg.SectionID,
				ItemCode:       arg.ItemCode,
				ItemName:       arg.ItemName,
				Unit:           arg.Unit,
				Qty:            arg.Qty,
				WastageType:    arg.WastageType,
				RecordedBy:     arg.RecordedBy,
				RecordedByName: arg.RecordedByName,
			}, nil
		},
	}
	router := setupWastageRouter(t, store)

	rr := doWastageForm(t, router, branchID, claims, map[string]string{
		"section_id":   sectionID.String(),
		"item_code":    "RICE01",
		"qty":          "2.5",
		"wastage_type": "EXPIRED",
	})

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusCreated, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["item_code"] != "RICE01" {
		t.Errorf("item_code: got %v, want RICE01", resp["item_code"])
	}
	if resp["qty"] != "2.5" {
		t.Errorf("qty: got %v, want 2.5", resp["qty"])
	}
	if resp["media_path"] != nil {
		t.Errorf("media_path: got %v, want null", resp["media_path"])
	}
}

func TestWastageCreate_InvalidQty(t *testing.T) {
	branchID := uuid.New()
	claims := branchClaims(branchID)
	router := setupWastageRouter(t, &mockWastageStore{})

	for _, qty := range []string{"0", "-1", "abc"} {
		rr := doWastageForm(t, router, branchID, claims, map[string]string{
			"section_id":   uuid.NewString(),
			"item_code":    "RICE01",
			"qty":          qty,
			"wastage_type": "UNSOLD",
		})
		if rr.Code != http.StatusBadRequest {
			t.Errorf("qty %q: status got %d, want %d", qty, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestWastageCreate_InvalidType(t *testing.T) {
	branchID := uuid.New()
	claims := branchClaims(branchID)
	router := setupWastageRouter(t, &mockWastageStore{})

	rr := doWastageForm(t, router, branchID, claims, map[string]string{
		"section_id":   uuid.NewString(),
		"item_code":    "RICE01",
		"qty":          "1",
		"wastage_type": "LOST",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestWastageCreate_UnknownItemCode(t *testing.T) {
	branchID := uuid.New()
	claims := branchClaims(branchID)
	router := setupWastageRouter(t, &mockWastageStore{})

	rr := doWastageForm(t, router, branchID, claims, map[string]string{
		"section_id":   uuid.NewString(),
		"item_code":    "NOPE",
		"qty":          "1",
		"wastage_type": "SPILL_OVER",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "unknown item_code" {
		t.Errorf("error: got %v", resp["error"])
	}
}

func TestWastageCreate_ItemAssignedElsewhere(t *testing.T) {
	branchID := uuid.New()
	otherBranch := uuid.New()
	claims := branchClaims(branchID)

	created := false
	store := &mockWastageStore{
		getItemByCodeFn: func(ctx context.Context, code string) (database.Item, error) {
			return database.Item{
				ID:           uuid.New(),
				Code:         "RICE01",
				Name:         "Basmati Rice",
				Unit:         "kg",
				AssignBranch: []byte(`"` + otherBranch.String() + `"`),
			}, nil
		},
		createWastageRecordFn: func(ctx context.Context, arg database.CreateWastageRecordParams) (database.WastageRecord, error) {
			created = true
			return database.WastageRecord{}, nil
		},
	}
	router := setupWastageRouter(t, store)

	rr := doWastageForm(t, router, branchID, claims, map[string]string{
		"section_id":   uuid.NewString(),
		"item_code":    "RICE01",
		"qty":          "1",
		"wastage_type": "EXPIRED",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "item is not assigned to this branch" {
		t.Errorf("error: got %v", resp["error"])
	}
	if created {
		t.Error("wastage record was created for an unassigned item")
	}
}

func TestWastageCreate_ItemInDifferentSection(t *testing.T) {
	branchID := uuid.New()
	itemSection := uuid.New()
	claims := branchClaims(branchID)

	store := &mockWastageStore{
		getItemByCodeFn: func(ctx context.Context, code string) (database.Item, error) {
			return database.Item{
				ID:           uuid.New(),
				Code:         "RICE01",
				Name:         "Basmati Rice",
				Unit:         "kg",
				SectionID:    pgtype.UUID{Bytes: itemSection, Valid: true},
				AssignBranch: []byte(`"` + branchID.String() + `"`),
			}, nil
		},
	}
	router := setupWastageRouter(t, store)

	rr := doWastageForm(t, router, branchID, claims, map[string]string{
		"section_id":   uuid.NewString(),
		"item_code":    "RICE01",
		"qty":          "1",
		"wastage_type": "EXPIRED",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestWastageList_HappyPath(t *testing.T) {
	branchID := uuid.New()
	claims := branchClaims(branchID)

	store := &mockWastageStore{
		listWastageByBranchFn: func(ctx context.Context, arg database.ListWastageByBranchParams) ([]database.WastageRecord, error) {
			if arg.BranchID != branchID {
				t.Errorf("branch_id: got %v, want %v", arg.BranchID, branchID)
			}
			return []database.WastageRecord{
				{ID: uuid.New(), BranchID: branchID, ItemCode: "RICE01", ItemName: "Basmati Rice", Unit: "kg", Qty: testNumeric("2"), WastageType: "EXPIRED"},
				{ID: uuid.New(), BranchID: branchID, ItemCode: "OIL02", ItemName: "Cooking Oil", Unit: "ltr", Qty: testNumeric("1"), WastageType: "SPILL_OVER"},
			}, nil
		},
	}
	router := setupWastageRouter(t, store)

	rr := doAuthRequest(t, router, "GET", "/branches/"+branchID.String()+"/wastage", nil, claims)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	var resp []map[string]interface{}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp) != 2 {
		t.Fatalf("records: got %d, want 2", len(resp))
	}
	if resp[0]["wastage_type"] != "EXPIRED" {
		t.Errorf("wastage_type: got %v, want EXPIRED", resp[0]["wastage_type"])
	}
}
