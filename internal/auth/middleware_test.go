package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"haat/internal/apperr"
	"haat/internal/models"
)

func statusWriter(w http.ResponseWriter, _ *http.Request, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindUnauthorized:
		w.WriteHeader(http.StatusUnauthorized)
	case apperr.KindForbidden:
		w.WriteHeader(http.StatusForbidden)
	default:
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func newAuthenticator() (*Authenticator, *TokenService) {
	ts := NewTokenService(nil, testSecret, time.Minute, time.Hour)
	return NewAuthenticator(ts, "access_token", statusWriter, zap.NewNop().Sugar()), ts
}

func echoIdentity(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := FromContext(r.Context())
		require.False(t, id.IsZero())
		w.Header().Set("X-User", id.UserID())
		w.Header().Set("X-Role", string(id.Role()))
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequireRoleStatusCodes(t *testing.T) {
	a, ts := newAuthenticator()
	customer, err := ts.IssueAccessToken("cust-1", models.RoleCustomer)
	require.NoError(t, err)
	admin, err := ts.IssueAccessToken("admin-1", models.RoleAdmin)
	require.NoError(t, err)
	super, err := ts.IssueAccessToken("super-1", models.RoleSuperAdmin)
	require.NoError(t, err)

	h := a.RequireRole(Staff...)(echoIdentity(t))
	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no token", "", http.StatusUnauthorized},
		{"malformed header", "Token " + admin, http.StatusUnauthorized},
		{"garbage token", "Bearer nonsense", http.StatusUnauthorized},
		{"customer", "Bearer " + customer, http.StatusForbidden},
		{"admin", "Bearer " + admin, http.StatusOK},
		{"super admin", "bearer " + super, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestRequireAuthenticatedCookieFallback(t *testing.T) {
	a, ts := newAuthenticator()
	tok, err := ts.IssueAccessToken("cust-9", models.RoleCustomer)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/user/orders", nil)
	req.AddCookie(&http.Cookie{Name: "access_token", Value: tok})
	rec := httptest.NewRecorder()
	a.RequireAuthenticated()(echoIdentity(t)).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cust-9", rec.Header().Get("X-User"))
	assert.Equal(t, "customer", rec.Header().Get("X-Role"))
}

func TestExpiredTokenIsUnauthorized(t *testing.T) {
	a, ts := newAuthenticator()
	issued := time.Now()
	ts.now = func() time.Time { return issued.Add(-2 * time.Minute) }
	tok, err := ts.IssueAccessToken("cust-1", models.RoleCustomer)
	require.NoError(t, err)
	ts.now = time.Now

	_, err = a.Authorize(newBearerRequest(tok))
	assert.ErrorIs(t, err, apperr.ErrUnauthorized)
	assert.ErrorIs(t, err, apperr.ErrTokenExpired)
}

func TestFromContextWithoutMiddleware(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	id := FromContext(req.Context())
	assert.True(t, id.IsZero())
	assert.False(t, id.HasRole(models.RoleCustomer))
}

func newBearerRequest(tok string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	return req
}
