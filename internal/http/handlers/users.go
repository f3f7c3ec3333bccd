package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// createUserRequest represents create user request.
type createUserRequest struct {
	UserName string `json:"user_name" validate:"required,min=2,max=64"`
	FullName string `json:"full_name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email"`
	Tlfn     string `json:"tlfn" validate:"max=32"`
	Role     string `json:"role" validate:"required,oneof=admin client"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// ListUsers returns users.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionManageUsers); !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	users, err := h.repo.ListUsers(ctx)
	if err != nil {
		logger.Error("action", "action", "list_users", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeData(w, http.StatusOK, users)
}

// CreateUser creates user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionManageUsers); !ok {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "create_user", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.UserName = strings.TrimSpace(req.UserName)
	req.Email = strings.TrimSpace(req.Email)
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", "create_user", "status", "invalid_fields", "error", err)
		writeError(w, http.StatusBadRequest, "invalid user fields")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("action", "action", "create_user", "status", "hash_error", "error", err)
		writeError(w, http.StatusInternalServerError, "hash error")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	user, err := h.repo.CreateUser(ctx, models.User{
		UserName:     req.UserName,
		FullName:     req.FullName,
		Email:        req.Email,
		Tlfn:         req.Tlfn,
		Role:         req.Role,
		PasswordHash: string(hash),
	})
	if err != nil {
		logger.Error("action", "action", "create_user", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	logger.Info("action", "action", "create_user", "status", "success", "created_user", user.UserName, "role", user.Role)
	writeData(w, http.StatusCreated, user)
}

// GetUser returns user.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	target := chi.URLParam(r, "user")
	if _, ok := h.requireSelfOrAction(w, r, target, auth.ActionManageUsers); !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	user, err := h.repo.GetUser(ctx, target)
	if err == pgx.ErrNoRows {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "get_user", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeData(w, http.StatusOK, user)
}

// DeleteUser deletes user.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	caller, ok := h.requireAction(w, r, auth.ActionManageUsers)
	if !ok {
		return
	}
	target := chi.URLParam(r, "user")
	if target == caller {
		writeError(w, http.StatusBadRequest, "cannot delete own account")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	deleted, err := h.repo.DeleteUser(ctx, target)
	if err != nil {
		logger.Error("action", "action", "delete_user", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "user not found")
		return
	}

	logger.Info("action", "action", "delete_user", "status", "success", "deleted_user", target)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
