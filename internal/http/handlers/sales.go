package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/sales"
)

// SalesReport builds the sales report for the query, serving memoized
// results while the snapshot generation is unchanged.
func (h *Handler) SalesReport(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionViewSales); !ok {
		return
	}

	q := sales.Query{
		User: strings.TrimSpace(r.URL.Query().Get("user")),
		Date: strings.TrimSpace(r.URL.Query().Get("date")),
		Mode: strings.TrimSpace(r.URL.Query().Get("mode")),
	}
	if q.User == "" {
		q.User = sales.AllUsers
	}
	switch q.Mode {
	case "":
		q.Mode = sales.ModeDay
	case sales.ModeDay, sales.ModeWeek:
	default:
		writeError(w, http.StatusBadRequest, "mode must be day or week")
		return
	}
	if q.Date != "" {
		if _, err := sales.ParseDayKey(q.Date, h.location); err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
	}

	snapshot, gen := h.store.Snapshot()

	if payload, ok := h.reports.Get(r.Context(), gen, q); ok {
		writeData(w, http.StatusOK, json.RawMessage(payload))
		return
	}

	report, droppedCodes := sales.BuildReport(snapshot, q, h.location)
	if droppedCodes > 0 {
		logger.Warn("action", "action", "sales_report", "status", "codes_without_timestamp", "dropped", droppedCodes)
	}

	payload, err := json.Marshal(report)
	if err != nil {
		logger.Error("action", "action", "sales_report", "status", "encode_error", "error", err)
		writeError(w, http.StatusInternalServerError, "encode error")
		return
	}
	h.reports.Set(r.Context(), gen, q, payload)

	logger.Info("action", "action", "sales_report", "status", "success", "mode", q.Mode, "report_user", q.User, "total", report.TotalSales)
	writeData(w, http.StatusOK, json.RawMessage(payload))
}

// RefreshStore forces a snapshot reload.
func (h *Handler) RefreshStore(w http.ResponseWriter, r *http.Request) {
	logger := h.loggerForRequest(r)
	if _, ok := h.requireAction(w, r, auth.ActionRefreshStore); !ok {
		return
	}
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()
	if err := h.store.Refresh(ctx); err != nil {
		logger.Error("action", "action", "refresh_store", "status", "error", "error", err)
		writeError(w, http.StatusInternalServerError, "refresh failed")
		return
	}
	_, gen := h.store.Snapshot()
	logger.Info("action", "action", "refresh_store", "status", "success", "generation", gen)
	writeJSON(w, http.StatusOK, map[string]interface{}{"ok": true, "generation": gen})
}
