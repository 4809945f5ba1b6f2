package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
)

func protected(svc jwt.Service, mw ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(jwtauth.Verifier(svc.JWTAuth()))
	r.Use(AuthRequired(svc))
	r.Use(mw...)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	return r
}

func call(t *testing.T, h http.Handler, token string) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Code
}

func TestAuthRequired(t *testing.T) {
	svc := jwt.NewJWTService("test-secret")
	h := protected(svc)

	access, _, err := svc.GenerateAccessToken(jwt.Identity{UserID: "p1", Role: user.RoleSocio}, time.Hour)
	require.NoError(t, err)
	sse, _, err := svc.GenerateSSEToken("p1")
	require.NoError(t, err)

	assert.Equal(t, http.StatusNoContent, call(t, h, access))
	assert.Equal(t, http.StatusUnauthorized, call(t, h, ""))
	assert.Equal(t, http.StatusUnauthorized, call(t, h, sse), "sse tokens are not access tokens")

	svc.RevokeToken(access)
	assert.Equal(t, http.StatusUnauthorized, call(t, h, access))
}

func TestRequirePermission(t *testing.T) {
	svc := jwt.NewJWTService("test-secret")
	h := protected(svc, RequirePermission(user.PermissionShiftAssign))

	socio, _, err := svc.GenerateAccessToken(jwt.Identity{UserID: "p1", Role: user.RoleSocio}, time.Hour)
	require.NoError(t, err)
	sup, _, err := svc.GenerateAccessToken(jwt.Identity{UserID: "p2", Role: user.RoleSupervisor}, time.Hour)
	require.NoError(t, err)

	assert.Equal(t, http.StatusForbidden, call(t, h, socio))
	assert.Equal(t, http.StatusNoContent, call(t, h, sup))
}

func TestRequireSupervisor(t *testing.T) {
	svc := jwt.NewJWTService("test-secret")
	h := protected(svc, RequireSupervisor)

	for role, want := range map[user.Role]int{
		user.RoleSocio:         http.StatusForbidden,
		user.RoleSupervisor:    http.StatusNoContent,
		user.RoleAdministrator: http.StatusNoContent,
	} {
		token, _, err := svc.GenerateAccessToken(jwt.Identity{UserID: "x", Role: role}, time.Hour)
		require.NoError(t, err)
		assert.Equal(t, want, call(t, h, token), role)
	}
}
