package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/virtualclassroom/backend/internal/infrastructure/profanity"
	memrepo "github.com/virtualclassroom/backend/internal/infrastructure/repository"
	"github.com/virtualclassroom/backend/internal/infrastructure/security"
	"github.com/virtualclassroom/backend/internal/presentation/auth"
)

func newTestHandler() (*Handler, *security.TokenManager) {
	tm := security.NewTokenManager(security.TokenConfig{
		Secret:   "test-secret",
		Issuer:   "classroom-api",
		TokenTTL: time.Hour,
	})
	return NewHandler(memrepo.NewInMemoryUserRepository(), tm, profanity.NewFilter()), tm
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func TestRegisterAndLogin(t *testing.T) {
	h, _ := newTestHandler()

	rec := postJSON(t, h.RegisterHandler, "/api/user/register", registerRequest{
		Username: "jane",
		Email:    "jane@example.com",
		Password: "super-secret-1",
		Role:     "teacher",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)
	require.Equal(t, "jane", created.User.Username)
	require.Equal(t, "teacher", created.User.Role)

	rec = postJSON(t, h.LoginHandler, "/api/user/login", loginRequest{
		Email:    "Jane@Example.com", // case-insensitive lookup
		Password: "super-secret-1",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var logged authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logged))
	require.Equal(t, created.User.ID, logged.User.ID)
}

func TestRegisterRejectsBadInput(t *testing.T) {
	h, _ := newTestHandler()

	cases := []struct {
		name string
		req  registerRequest
		code int
	}{
		{"short password", registerRequest{Username: "jane", Email: "jane@example.com", Password: "short"}, http.StatusBadRequest},
		{"bad email", registerRequest{Username: "jane", Email: "nope", Password: "super-secret-1"}, http.StatusBadRequest},
		{"bad role", registerRequest{Username: "jane", Email: "jane@example.com", Password: "super-secret-1", Role: "principal"}, http.StatusBadRequest},
		{"profane username", registerRequest{Username: "shit", Email: "jane@example.com", Password: "super-secret-1"}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.RegisterHandler, "/api/user/register", tc.req)
			require.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := newTestHandler()

	req := registerRequest{Username: "jane", Email: "jane@example.com", Password: "super-secret-1"}
	require.Equal(t, http.StatusCreated, postJSON(t, h.RegisterHandler, "/api/user/register", req).Code)

	req.Username = "janet"
	require.Equal(t, http.StatusConflict, postJSON(t, h.RegisterHandler, "/api/user/register", req).Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := newTestHandler()

	require.Equal(t, http.StatusCreated, postJSON(t, h.RegisterHandler, "/api/user/register", registerRequest{
		Username: "jane", Email: "jane@example.com", Password: "super-secret-1",
	}).Code)

	rec := postJSON(t, h.LoginHandler, "/api/user/login", loginRequest{Email: "jane@example.com", Password: "wrong"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Unknown accounts look identical to wrong passwords.
	rec = postJSON(t, h.LoginHandler, "/api/user/login", loginRequest{Email: "ghost@example.com", Password: "whatever"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestProfileRequiresAuth(t *testing.T) {
	h, tm := newTestHandler()

	rec := postJSON(t, h.RegisterHandler, "/api/user/register", registerRequest{
		Username: "jane", Email: "jane@example.com", Password: "super-secret-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	var created authResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	protected := auth.Middleware(tm)(http.HandlerFunc(h.ProfileHandler))

	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	w := httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	require.Equal(t, http.StatusUnauthorized, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	req.Header.Set("Authorization", "Bearer "+created.Token)
	w = httptest.NewRecorder()
	protected.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var profile userResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &profile))
	require.Equal(t, created.User.ID, profile.ID)
	require.Equal(t, "jane@example.com", profile.Email)
}
