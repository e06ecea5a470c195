package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Bhuvanani14/goodcity/internal/services"
	"github.com/Bhuvanani14/goodcity/types"
	"github.com/go-chi/chi/v5"
)

func newAuthRouter(t *testing.T) (*chi.Mux, *memUserRepo) {
	t.Helper()
	repo := newMemUserRepo()
	router := chi.NewRouter()
	router.Route("/auth", func(r chi.Router) {
		AuthRouter(r, services.NewAuthService(repo), testSecret)
	})
	return router, repo
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestTokenRoundTrip(t *testing.T) {
	user := types.User{ID: 42, Username: "alice", Role: types.RoleAdmin}

	token, err := issueToken(user, []byte(testSecret), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	claims, err := parseClaims(token, []byte(testSecret))
	if err != nil {
		t.Fatalf("parse claims: %v", err)
	}
	if claims.Username != "alice" || claims.Role != types.RoleAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	id, err := claims.UserID()
	if err != nil || id != 42 {
		t.Fatalf("expected subject 42, got %d (%v)", id, err)
	}
}

func TestParseClaimsRejectsBadTokens(t *testing.T) {
	user := types.User{ID: 1, Username: "alice", Role: types.RoleUser}

	forged, err := issueToken(user, []byte("other-secret"), time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := parseClaims(forged, []byte(testSecret)); err == nil {
		t.Fatalf("expected foreign signature to be rejected")
	}

	expired, err := issueToken(user, []byte(testSecret), -time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := parseClaims(expired, []byte(testSecret)); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	if _, err := parseClaims("not.a.token", []byte(testSecret)); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		name   string
		header string
		want   string
		ok     bool
	}{
		{"valid", "Bearer abc", "abc", true},
		{"case insensitive scheme", "bearer abc", "abc", true},
		{"missing", "", "", false},
		{"wrong scheme", "Basic abc", "", false},
		{"empty token", "Bearer ", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			token, err := bearerToken(req)
			if tc.ok && (err != nil || token != tc.want) {
				t.Fatalf("expected %q, got %q (%v)", tc.want, token, err)
			}
			if !tc.ok && err == nil {
				t.Fatalf("expected error for header %q", tc.header)
			}
		})
	}
}

func TestRegisterEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var user types.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Username != "alice" || user.Role != types.RoleUser {
		t.Fatalf("unexpected user: %+v", user)
	}
	if strings.Contains(rec.Body.String(), "password") {
		t.Fatalf("response leaked password material")
	}

	// Same username again conflicts.
	rec = doJSON(t, router, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"other@example.com","password":"secret1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	// Same email again conflicts.
	rec = doJSON(t, router, http.MethodPost, "/auth/register", "",
		`{"username":"bob","email":"alice@example.com","password":"secret1"}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/register", "",
		`{"username":"carol","email":"carol@example.com","password":"123"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", rec.Code)
	}
}

func TestLoginEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	claims, err := parseClaims(resp.Token, []byte(testSecret))
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.Username != "alice" || claims.Role != types.RoleUser {
		t.Fatalf("unexpected claims: %+v", claims)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret2"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for wrong password, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret1","role":"admin"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for role mismatch, got %d", rec.Code)
	}
}

func TestMeEndpoint(t *testing.T) {
	router, _ := newAuthRouter(t)

	doJSON(t, router, http.MethodPost, "/auth/register", "",
		`{"username":"alice","email":"alice@example.com","password":"secret1"}`)
	rec := doJSON(t, router, http.MethodPost, "/auth/login", "",
		`{"username":"alice","password":"secret1"}`)

	var resp AuthResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	rec = doJSON(t, router, http.MethodGet, "/auth/me", resp.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var user types.User
	if err := json.NewDecoder(rec.Body).Decode(&user); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if user.Username != "alice" {
		t.Fatalf("unexpected user: %+v", user)
	}

	rec = doJSON(t, router, http.MethodGet, "/auth/me", "", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/auth/logout", resp.Token, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", rec.Code)
	}
}
