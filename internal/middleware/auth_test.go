package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mhollstein/timeledger/internal/middleware"
)

var testSecret = []byte("test-secret")

// signToken issues an HS256 token with the given subject and roles.
func signToken(t *testing.T, secret []byte, subject string, roles []string, expiresAt time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub": subject,
		"exp": expiresAt.Unix(),
	}
	if roles != nil {
		claims["realm_access"] = map[string]any{"roles": roles}
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

// echoUserID is a terminal handler that writes the context user id so tests
// can verify what the middleware stored.
func echoUserID(w http.ResponseWriter, r *http.Request) {
	id, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		http.Error(w, "no user", http.StatusInternalServerError)
		return
	}
	_, _ = w.Write([]byte(id.String()))
}

func serve(t *testing.T, requiredRoles []string, authorization string) *httptest.ResponseRecorder {
	t.Helper()
	h := middleware.NewAuthenticator(testSecret, requiredRoles)(http.HandlerFunc(echoUserID))

	req := httptest.NewRequest(http.MethodGet, "/time-entries", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticator_ValidToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, userID.String(), nil, time.Now().Add(time.Hour))

	rec := serve(t, nil, "Bearer "+token)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, userID.String(), rec.Body.String(), "the subject becomes the acting user")
}

func TestAuthenticator_MissingHeader(t *testing.T) {
	rec := serve(t, nil, "")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Header().Get("WWW-Authenticate"), "Bearer")
}

func TestAuthenticator_NotBearer(t *testing.T) {
	rec := serve(t, nil, "Basic dXNlcjpwYXNz")

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_WrongSecret(t *testing.T) {
	token := signToken(t, []byte("other-secret"), uuid.NewString(), nil, time.Now().Add(time.Hour))

	rec := serve(t, nil, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_ExpiredToken(t *testing.T) {
	token := signToken(t, testSecret, uuid.NewString(), nil, time.Now().Add(-time.Minute))

	rec := serve(t, nil, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_SubjectNotUUID(t *testing.T) {
	token := signToken(t, testSecret, "alice@example.com", nil, time.Now().Add(time.Hour))

	rec := serve(t, nil, "Bearer "+token)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthenticator_RoleRequired_Missing(t *testing.T) {
	token := signToken(t, testSecret, uuid.NewString(), []string{"viewer"}, time.Now().Add(time.Hour))

	rec := serve(t, []string{"tracker"}, "Bearer "+token)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthenticator_RoleRequired_Present(t *testing.T) {
	token := signToken(t, testSecret, uuid.NewString(), []string{"viewer", "tracker"}, time.Now().Add(time.Hour))

	rec := serve(t, []string{"tracker"}, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthenticator_NoRoleGateWhenUnconfigured(t *testing.T) {
	token := signToken(t, testSecret, uuid.NewString(), nil, time.Now().Add(time.Hour))

	rec := serve(t, nil, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
}
