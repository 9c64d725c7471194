package http

import (
	"net/http"

	"github.com/cmlabs-hris/hris-approval-go/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth/v5"
	"github.com/google/uuid"
)

// getUserIDFromContext extracts user_id from JWT context
func getUserIDFromContext(r *http.Request) string {
	_, claims, _ := jwtauth.FromContext(r.Context())
	if userID, ok := claims["user_id"].(string); ok {
		return userID
	}
	return ""
}

// idParam reads the {id} path segment. Ids are UUIDs, so anything
// else is answered with notFound without reaching the service.
func idParam(w http.ResponseWriter, r *http.Request, notFound error) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		response.HandleError(w, notFound)
		return "", false
	}
	return id, true
}
