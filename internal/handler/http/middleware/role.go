package middleware

import (
	"fmt"
	"net/http"

	"github.com/wecare/escalas-backend/internal/domain/user"
	"github.com/wecare/escalas-backend/internal/handler/http/response"
	"github.com/wecare/escalas-backend/internal/pkg/jwt"
)

// RequireSupervisor admits supervisors and administrators.
func RequireSupervisor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := jwt.FromContext(r.Context())
		if err != nil {
			response.HandleError(w, user.ErrSupervisorAccessRequired)
			return
		}
		if person := id.Person(); !person.IsSupervisor() {
			response.HandleError(w, user.ErrSupervisorAccessRequired)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequirePermission checks the caller's role against user.RolePermissions.
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := jwt.FromContext(r.Context())
			switch {
			case err != nil:
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
			case !user.HasPermission(id.Role, permission):
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, id.Role))
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
