package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/domain/directory"
	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/response"
	"github.com/go-chi/jwtauth/v5"
)

// RequireRole admits callers whose token role is one of roles
func RequireRole(roles ...directory.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, claims, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			roleStr, ok := claims["role"].(string)
			if !ok {
				response.Forbidden(w, "Insufficient permissions")
				return
			}

			role := directory.Role(roleStr)
			for _, allowed := range roles {
				if role == allowed {
					next.ServeHTTP(w, r)
					return
				}
			}

			response.Forbidden(w, fmt.Sprintf("Insufficient permissions: role '%s' cannot perform this action", role))
		})
	}
}

// RequireApprover admits every role that takes part in an approval sequence
func RequireApprover(next http.Handler) http.Handler {
	return RequireRole(directory.RoleIncharge, directory.RolePO, directory.RoleHR, directory.RolePADM)(next)
}
