package handlers

import (
	"fmt"
	"net/http"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/mikrotik"
	"arsys/backend/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ExportTicket renders the router command script for a ticket's codes.
// With store=true and object storage configured the script is uploaded
// and a download link is returned instead.
func (h *Handler) ExportTicket(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")
	ticketID := chi.URLParam(r, "ticket")
	if _, ok := h.requireSelfOrAction(w, r, owner, auth.ActionViewAllTickets); !ok {
		return
	}
	if _, err := uuid.Parse(ticketID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	kind := r.URL.Query().Get("kind")
	if kind != "add" && kind != "remove" {
		writeError(w, http.StatusBadRequest, "kind must be add or remove")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	ticket, err := h.repo.GetTicket(ctx, owner, profile, ticketID)
	if err == pgx.ErrNoRows {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "export_ticket", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	prof, err := h.repo.GetProfile(ctx, owner, profile)
	if err != nil {
		logger.Error("action", "action", "export_ticket", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	ft := models.FullTicket{
		User:    owner,
		Profile: prof.Name,
		Server:  prof.Server,
		Uptime:  prof.Uptime,
		Ticket:  ticket,
	}
	script := mikrotik.AddScript(ft)
	if kind == "remove" {
		script = mikrotik.RemoveScript(ft)
	}

	if r.URL.Query().Get("store") == "true" {
		if h.s3 == nil {
			writeError(w, http.StatusServiceUnavailable, "object storage is not configured")
			return
		}
		fileName := fmt.Sprintf("%s-%s-%s-%s.rsc", owner, profile, ticketID, kind)
		key, err := h.s3.UploadScript(ctx, fileName, script)
		if err != nil {
			logger.Error("action", "action", "export_ticket", "status", "upload_error", "error", err)
			writeError(w, http.StatusInternalServerError, "upload error")
			return
		}
		url, err := h.s3.PresignGetObject(ctx, key)
		if err != nil {
			logger.Error("action", "action", "export_ticket", "status", "presign_error", "error", err)
			writeError(w, http.StatusInternalServerError, "presign error")
			return
		}
		logger.Info("action", "action", "export_ticket", "status", "stored", "kind", kind, "key", key)
		writeData(w, http.StatusOK, map[string]string{"key": key, "url": url})
		return
	}

	logger.Info("action", "action", "export_ticket", "status", "success", "kind", kind, "codes", len(ticket.Codes))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(script))
}

// Healthz reports liveness.
func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
