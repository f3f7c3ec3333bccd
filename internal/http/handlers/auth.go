package handlers

import (
	"encoding/json"
	"net"
	"net/http"
	"strings"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/http/middleware"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/bcrypt"
)

// loginRequest represents login request.
type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// loginResponse represents login response.
type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login handles login behavior.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)

	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if !h.loginLimiter.Allow(ip) {
		logger.Warn("action", "action", "login", "status", "rate_limited", "ip", ip)
		writeError(w, http.StatusTooManyRequests, "too many attempts")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "login", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", "login", "status", "missing_fields")
		writeError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	user, err := h.repo.GetUser(ctx, req.Username)
	if err == pgx.ErrNoRows && strings.Contains(req.Username, "@") {
		user, err = h.repo.GetUserByEmail(ctx, req.Username)
	}
	if err == pgx.ErrNoRows {
		logger.Warn("action", "action", "login", "status", "unknown_user")
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err != nil {
		logger.Error("action", "action", "login", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		logger.Warn("action", "action", "login", "status", "bad_password", "login_user", user.UserName)
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, err := auth.SignAccessToken(h.cfg.JWTSecret, user.UserName, user.Role)
	if err != nil {
		logger.Error("action", "action", "login", "status", "sign_error", "error", err)
		writeError(w, http.StatusInternalServerError, "token error")
		return
	}

	logger.Info("action", "action", "login", "status", "success", "login_user", user.UserName, "role", user.Role)
	writeJSON(w, http.StatusOK, loginResponse{Token: token, User: user})
}

// Me handles internal me behavior.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	userName, ok := middleware.UserNameFromContext(r.Context())
	if !ok {
		logger.Warn("action", "action", "me", "status", "unauthorized")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	user, err := h.repo.GetUser(ctx, userName)
	if err == pgx.ErrNoRows {
		logger.Warn("action", "action", "me", "status", "unknown_user")
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		logger.Error("action", "action", "me", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	logger.Info("action", "action", "me", "status", "success")
	writeJSON(w, http.StatusOK, user)
}
