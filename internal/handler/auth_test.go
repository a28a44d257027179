package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/karahi-ops/api/internal/auth"
	"github.com/karahi-ops/api/internal/database"
	"github.com/karahi-ops/api/internal/enum"
	"github.com/karahi-ops/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

type mockAuthStore struct {
	getUserByEmailFn func(ctx context.Context, email string) (database.User, error)
	getUserByIDFn    func(ctx context.Context, id uuid.UUID) (database.User, error)
}

func (m *mockAuthStore) GetUserByEmail(ctx context.Context, email string) (database.User, error) {
	if m.getUserByEmailFn != nil {
		return m.getUserByEmailFn(ctx, email)
	}
	return database.User{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetUserByID(ctx context.Context, id uuid.UUID) (database.User, error) {
	if m.getUserByIDFn != nil {
		return m.getUserByIDFn(ctx, id)
	}
	return database.User{}, pgx.ErrNoRows
}

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, testJWTSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func testUser(t *testing.T, password string) database.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return database.User{
		ID:             uuid.New(),
		BranchID:       uuid.New(),
		Email:          "manager@gulberg.karahi.com",
		HashedPassword: string(hashed),
		FullName:       "Branch Manager",
		Role:           enum.UserRoleBranch,
		IsActive:       true,
	}
}

// doRequest sends an unauthenticated request; auth endpoints are public.
func doRequest(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	b, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestLogin_HappyPath(t *testing.T) {
	user := testUser(t, "password123")
	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			if email != user.Email {
				t.Errorf("email: got %v, want %v", email, user.Email)
			}
			return user, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    user.Email,
		"password": "password123",
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	accessToken, _ := resp["access_token"].(string)
	if accessToken == "" {
		t.Fatal("access_token missing")
	}
	refreshToken, _ := resp["refresh_token"].(string)
	if refreshToken == "" {
		t.Fatal("refresh_token missing")
	}

	// The access token must round-trip through our own validation.
	claims, err := auth.ValidateToken(testJWTSecret, accessToken)
	if err != nil {
		t.Fatalf("validate access token: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user_id: got %v, want %v", claims.UserID, user.ID)
	}
	if claims.BranchID != user.BranchID {
		t.Errorf("claims branch_id: got %v, want %v", claims.BranchID, user.BranchID)
	}
	if claims.Role != enum.UserRoleBranch {
		t.Errorf("claims role: got %v, want BRANCH", claims.Role)
	}

	userResp, ok := resp["user"].(map[string]interface{})
	if !ok {
		t.Fatal("user missing from response")
	}
	if userResp["email"] != user.Email {
		t.Errorf("user email: got %v, want %v", userResp["email"], user.Email)
	}
	if _, present := userResp["hashed_password"]; present {
		t.Error("response leaks hashed_password")
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	user := testUser(t, "password123")
	store := &mockAuthStore{
		getUserByEmailFn: func(ctx context.Context, email string) (database.User, error) {
			return user, nil
		},
	}
	router := setupAuthRouter(store)

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    user.Email,
		"password": "wrong-password",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "invalid credentials" {
		t.Errorf("error: got %v, want 'invalid credentials'", resp["error"])
	}
}

func TestLogin_UnknownEmail(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email":    "nobody@karahi.com",
		"password": "password123",
	})

	// Same response as a wrong password so the endpoint does not reveal
	// which emails exist.
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
	resp := decodeResponse(t, rr)
	if resp["error"] != "invalid credentials" {
		t.Errorf("error: got %v, want 'invalid credentials'", resp["error"])
	}
}

func TestLogin_MissingFields(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/auth/login", map[string]string{
		"email": "manager@gulberg.karahi.com",
	})

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestLogin_InvalidBody(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/auth/login", "not json")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusBadRequest, rr.Body.String())
	}
}

func TestRefresh_HappyPath(t *testing.T) {
	user := testUser(t, "password123")
	store := &mockAuthStore{
		getUserByIDFn: func(ctx context.Context, id uuid.UUID) (database.User, error) {
			if id != user.ID {
				t.Errorf("user id: got %v, want %v", id, user.ID)
			}
			return user, nil
		},
	}
	router := setupAuthRouter(store)

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, user.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusOK, rr.Body.String())
	}

	resp := decodeResponse(t, rr)
	if resp["access_token"] == "" {
		t.Error("access_token missing")
	}
	if resp["refresh_token"] == refreshToken {
		t.Error("refresh token was not rotated")
	}
}

func TestRefresh_InvalidToken(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": "garbage",
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}

func TestRefresh_DeletedUser(t *testing.T) {
	router := setupAuthRouter(&mockAuthStore{})

	refreshToken, err := auth.GenerateRefreshToken(testJWTSecret, uuid.New())
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := doRequest(t, router, "POST", "/auth/refresh", map[string]string{
		"refresh_token": refreshToken,
	})

	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("status: got %d, want %d; body: %s", rr.Code, http.StatusUnauthorized, rr.Body.String())
	}
}
