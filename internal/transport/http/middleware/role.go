package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/localtourx-api/internal/domain"
)

// RequireRole returns middleware that allows access only to accounts whose
// role is one of allowed. It must run after Auth.
func RequireRole(allowed ...domain.Role) func(http.Handler) http.Handler {
	set := domain.RoleSet(allowed)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, CodeMissingToken, "please login to access this resource")
				return
			}
			if !set.Contains(u.Role) {
				msg := fmt.Sprintf("role (%s) is not allowed to access this resource, requires one of: %s",
					u.Role, strings.Join(set.Strings(), ", "))
				writeJSONError(w, http.StatusForbidden, "forbidden", msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
