package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/models"
	"arsys/backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
)

// createProfileRequest represents create profile request.
type createProfileRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=64"`
	Uptime string `json:"uptime" validate:"required,max=32"`
	Server string `json:"server" validate:"required,max=64"`
}

// updateProfileRequest represents update profile request.
type updateProfileRequest struct {
	Uptime *string `json:"uptime" validate:"omitempty,max=32"`
	Server *string `json:"server" validate:"omitempty,max=64"`
}

// ListProfiles returns profiles.
func (h *Handler) ListProfiles(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	owner := chi.URLParam(r, "user")
	if _, ok := h.requireSelfOrAction(w, r, owner, auth.ActionManageProfiles); !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	profiles, err := h.repo.ListProfiles(ctx, owner)
	if err != nil {
		logger.Error("action", "action", "list_profiles", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeData(w, http.StatusOK, profiles)
}

// CreateProfile creates profile.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionManageProfiles); !ok {
		return
	}
	owner := chi.URLParam(r, "user")

	var req createProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "create_profile", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", "create_profile", "status", "invalid_fields", "error", err)
		writeError(w, http.StatusBadRequest, "invalid profile fields")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	profile, err := h.repo.CreateProfile(ctx, models.Profile{
		UserName: owner,
		Name:     req.Name,
		Uptime:   req.Uptime,
		Server:   req.Server,
	})
	if err != nil {
		logger.Error("action", "action", "create_profile", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	logger.Info("action", "action", "create_profile", "status", "success", "owner", owner, "profile", profile.Name)
	writeData(w, http.StatusCreated, profile)
}

// GetProfile returns profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	owner := chi.URLParam(r, "user")
	name := chi.URLParam(r, "profile")
	if _, ok := h.requireSelfOrAction(w, r, owner, auth.ActionManageProfiles); !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	profile, err := h.repo.GetProfile(ctx, owner, name)
	if err == pgx.ErrNoRows {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "get_profile", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeData(w, http.StatusOK, profile)
}

// UpdateProfile updates profile.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionManageProfiles); !ok {
		return
	}
	owner := chi.URLParam(r, "user")
	name := chi.URLParam(r, "profile")

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "update_profile", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", "update_profile", "status", "invalid_fields", "error", err)
		writeError(w, http.StatusBadRequest, "invalid profile fields")
		return
	}
	if req.Uptime == nil && req.Server == nil {
		writeError(w, http.StatusBadRequest, "nothing to update")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	profile, err := h.repo.UpdateProfile(ctx, owner, name, repository.ProfilePatch{
		Uptime: req.Uptime,
		Server: req.Server,
	})
	if err == pgx.ErrNoRows {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "update_profile", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	logger.Info("action", "action", "update_profile", "status", "success", "owner", owner, "profile", name)
	writeData(w, http.StatusOK, profile)
}

// DeleteProfile deletes profile.
func (h *Handler) DeleteProfile(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionManageProfiles); !ok {
		return
	}
	owner := chi.URLParam(r, "user")
	name := chi.URLParam(r, "profile")

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	deleted, err := h.repo.DeleteProfile(ctx, owner, name)
	if err != nil {
		logger.Error("action", "action", "delete_profile", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "profile not found")
		return
	}

	logger.Info("action", "action", "delete_profile", "status", "success", "owner", owner, "profile", name)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}
