package handlers

import (
	"net/http"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/http/middleware"
)

// requireAction resolves the caller and checks the role policy. It
// writes the error response itself when access is denied.
func (h *Handler) requireAction(w http.ResponseWriter, r *http.Request, action auth.Action) (string, bool) {
	userName, ok := middleware.UserNameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if !auth.CanPerform(role, action) {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	return userName, true
}

// requireSelfOrAction allows the owner of a resource through and falls
// back to the role policy for everyone else.
func (h *Handler) requireSelfOrAction(w http.ResponseWriter, r *http.Request, owner string, action auth.Action) (string, bool) {
	userName, ok := middleware.UserNameFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	if userName == owner {
		return userName, true
	}
	role, _ := middleware.RoleFromContext(r.Context())
	if !auth.CanPerform(role, action) {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	return userName, true
}
