package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/codes"
	"arsys/backend/internal/mikrotik"
	"arsys/backend/internal/models"
	"arsys/backend/internal/repository"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// createTicketRequest represents create ticket request.
type createTicketRequest struct {
	Quantity int `json:"quantity" validate:"required,min=1,max=100"`
}

// importTicketRequest represents import ticket request.
type importTicketRequest struct {
	Text string `json:"text" validate:"required"`
}

// wireCode is a code as the clients consume it.
type wireCode struct {
	Code   string          `json:"code"`
	Status string          `json:"status"`
	UsedAt *models.Instant `json:"usedAt,omitempty"`
}

// wireTicket is a ticket as the clients consume it.
type wireTicket struct {
	ID        string         `json:"id"`
	CreatedAt models.Instant `json:"createdAt"`
	Codes     []wireCode     `json:"codes"`
}

func toWireTicket(t models.Ticket) wireTicket {
	out := wireTicket{
		ID:        t.TicketID,
		CreatedAt: t.CreatedAt,
		Codes:     make([]wireCode, 0, len(t.Codes)),
	}
	for _, code := range t.Codes {
		status := "unused"
		if code.Used {
			status = "used"
		}
		out.Codes = append(out.Codes, wireCode{Code: code.Value, Status: status, UsedAt: code.UsedAt})
	}
	return out
}

func toWireTickets(tickets []models.Ticket) []wireTicket {
	out := make([]wireTicket, 0, len(tickets))
	for _, t := range tickets {
		out = append(out, toWireTicket(t))
	}
	return out
}

// refreshStore reloads the ticket snapshot after a write so reports and
// the aggregate listing catch up without waiting for the next poll.
func (h *Handler) refreshStore(logger *slog.Logger) {
	if h.store == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := h.store.Refresh(ctx); err != nil {
			logger.Error("action", "action", "store_refresh", "status", "error", "error", err)
		}
	}()
}

// ListTickets returns tickets.
func (h *Handler) ListTickets(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")
	if _, ok := h.requireSelfOrAction(w, r, owner, auth.ActionViewAllTickets); !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	tickets, err := h.repo.ListTickets(ctx, owner, profile)
	if err != nil {
		logger.Error("action", "action", "list_tickets", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeData(w, http.StatusOK, toWireTickets(tickets))
}

// CreateTicket creates a ticket holding a batch of generated codes.
func (h *Handler) CreateTicket(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionCreateTickets); !ok {
		return
	}
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")

	var req createTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "create_ticket", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		logger.Warn("action", "action", "create_ticket", "status", "invalid_quantity", "quantity", req.Quantity)
		writeError(w, http.StatusBadRequest, "quantity must be between 1 and 100")
		return
	}

	values, err := codes.Batch(req.Quantity, h.cfg.CodeLength)
	if err != nil {
		logger.Error("action", "action", "create_ticket", "status", "generate_error", "error", err)
		writeError(w, http.StatusInternalServerError, "code generation error")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	ticket, err := h.repo.CreateTicket(ctx, owner, profile, values)
	if err != nil {
		logger.Error("action", "action", "create_ticket", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	logger.Info("action", "action", "create_ticket", "status", "success", "owner", owner, "profile", profile, "quantity", req.Quantity)
	h.refreshStore(logger)
	writeData(w, http.StatusCreated, toWireTicket(ticket))
}

// ImportTicket creates a ticket from a pasted router user export.
func (h *Handler) ImportTicket(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionImportTickets); !ok {
		return
	}
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")

	var req importTicketRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("action", "action", "import_ticket", "status", "invalid_json")
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	names := mikrotik.ParseExport(req.Text)
	if len(names) == 0 {
		logger.Warn("action", "action", "import_ticket", "status", "no_names")
		writeError(w, http.StatusBadRequest, "no user names found in export text")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	ticket, err := h.repo.CreateTicket(ctx, owner, profile, names)
	if err != nil {
		logger.Error("action", "action", "import_ticket", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}

	logger.Info("action", "action", "import_ticket", "status", "success", "owner", owner, "profile", profile, "imported", len(names))
	h.refreshStore(logger)
	writeData(w, http.StatusCreated, toWireTicket(ticket))
}

// GetTicket returns ticket.
func (h *Handler) GetTicket(w http.ResponseWriter, r *http.Request) {
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
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	ticket, err := h.repo.GetTicket(ctx, owner, profile, ticketID)
	if err == pgx.ErrNoRows {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}
	if err != nil {
		logger.Error("action", "action", "get_ticket", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	writeData(w, http.StatusOK, toWireTicket(ticket))
}

// DeleteTicket deletes ticket.
func (h *Handler) DeleteTicket(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionDeleteTickets); !ok {
		return
	}
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")
	ticketID := chi.URLParam(r, "ticket")
	if _, err := uuid.Parse(ticketID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	deleted, err := h.repo.DeleteTicket(ctx, owner, profile, ticketID)
	if err != nil {
		logger.Error("action", "action", "delete_ticket", "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "ticket not found")
		return
	}

	logger.Info("action", "action", "delete_ticket", "status", "success", "owner", owner, "profile", profile, "ticket", ticketID)
	h.refreshStore(logger)
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RedeemCode marks one code on a known ticket as used.
func (h *Handler) RedeemCode(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")
	ticketID := chi.URLParam(r, "ticket")
	value := strings.TrimSpace(chi.URLParam(r, "code"))
	if _, ok := h.requireSelfOrAction(w, r, owner, auth.ActionRedeemCodes); !ok {
		return
	}
	if _, err := uuid.Parse(ticketID); err != nil {
		writeError(w, http.StatusBadRequest, "invalid ticket id")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	ticket, err := h.repo.RedeemCode(ctx, owner, profile, ticketID, value)
	h.writeRedeemResult(w, logger, "redeem_code", owner, profile, value, ticket, err)
}

// RedeemCodeByValue locates the code by value across the profile's
// tickets and marks it used.
func (h *Handler) RedeemCodeByValue(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	owner := chi.URLParam(r, "user")
	profile := chi.URLParam(r, "profile")
	value := strings.TrimSpace(chi.URLParam(r, "code"))
	if _, ok := h.requireSelfOrAction(w, r, owner, auth.ActionRedeemCodes); !ok {
		return
	}
	if value == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	ticket, err := h.repo.RedeemCodeByValue(ctx, owner, profile, value)
	h.writeRedeemResult(w, logger, "redeem_code_by_value", owner, profile, value, ticket, err)
}

func (h *Handler) writeRedeemResult(w http.ResponseWriter, logger *slog.Logger, action, owner, profile, value string, ticket models.Ticket, err error) {
	switch {
	case err == repository.ErrCodeUsed:
		logger.Warn("action", "action", action, "status", "already_used", "owner", owner, "profile", profile)
		writeError(w, http.StatusConflict, "code already used")
	case err == pgx.ErrNoRows:
		logger.Warn("action", "action", action, "status", "not_found", "owner", owner, "profile", profile)
		writeError(w, http.StatusNotFound, "code not found")
	case err != nil:
		logger.Error("action", "action", action, "status", "db_error", "error", err)
		writeError(w, http.StatusInternalServerError, "db error")
	default:
		logger.Info("action", "action", action, "status", "success", "owner", owner, "profile", profile, "code", value)
		h.refreshStore(logger)
		writeData(w, http.StatusOK, toWireTicket(ticket))
	}
}

// ListAllTickets returns the aggregate of every user's tickets from the
// current snapshot.
func (h *Handler) ListAllTickets(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireAction(w, r, auth.ActionViewAllTickets); !ok {
		return
	}
	snapshot, _ := h.store.Snapshot()
	writeData(w, http.StatusOK, snapshot)
}
