package middleware

import (
	"net/http"

	"github.com/MrEthical07/storefront/session"
)

// RoleAdministrator is the WordPress role allowed into admin routes.
const RoleAdministrator = "administrator"

// MsgForbidden is returned when the user lacks the required role.
const MsgForbidden = "Access denied. Admin privileges required."

// RequireRole must be mounted after [RequireUser]. Requests whose user
// lacks role get 403; requests with no user get 401.
func RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				reject(w, http.StatusUnauthorized, session.MsgNotAuthenticated)
				return
			}
			if !u.HasRole(role) {
				reject(w, http.StatusForbidden, MsgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
