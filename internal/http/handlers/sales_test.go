package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"arsys/backend/internal/auth"
	"arsys/backend/internal/config"
	"arsys/backend/internal/http/middleware"
	"arsys/backend/internal/models"
	"arsys/backend/internal/store"

	"github.com/go-chi/chi/v5"
)

type fixedSource struct {
	tickets []models.FullTicket
}

func (s *fixedSource) LoadTickets(ctx context.Context) ([]models.FullTicket, error) {
	return s.tickets, nil
}

func instantAt(t time.Time) *models.Instant {
	i := models.InstantFromTime(t)
	return &i
}

func newSalesTestRouter(t *testing.T, tickets []models.FullTicket) (*chi.Mux, string) {
	t.Helper()
	st := store.New(&fixedSource{tickets: tickets})
	if err := st.Refresh(context.Background()); err != nil {
		t.Fatalf("store refresh: %v", err)
	}

	cfg := &config.Config{JWTSecret: "test-secret"}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := New(nil, st, store.NewReportCache(nil), nil, cfg, time.UTC, logger)

	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware(cfg.JWTSecret))
		r.Get("/sales/report", handler.SalesReport)
		r.Get("/tickets", handler.ListAllTickets)
	})

	token, err := auth.SignAccessToken(cfg.JWTSecret, "boss", models.RoleAdmin)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return r, token
}

func salesFixture() []models.FullTicket {
	day := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	return []models.FullTicket{
		{
			User: "bar1", Profile: "2h", Server: "hotspot1", Uptime: "2h",
			Ticket: models.Ticket{
				TicketID:  "t1",
				CreatedAt: models.InstantFromTime(day.AddDate(0, 0, -3)),
				Codes: []models.Code{
					{Value: "aaa111", Used: true, UsedAt: instantAt(day)},
					{Value: "bbb222", Used: true, UsedAt: instantAt(day.Add(time.Hour))},
					{Value: "ccc333", Used: true, UsedAt: instantAt(day.AddDate(0, 0, -1))},
					{Value: "ddd444"},
					{Value: "eee555", Used: true},
				},
			},
		},
	}
}

func TestSalesReportDayMode(t *testing.T) {
	r, token := newSalesTestRouter(t, salesFixture())

	req := httptest.NewRequest(http.MethodGet, "/sales/report?user=bar1&date=2025-06-10&mode=day", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Success bool `json:"success"`
		Data    struct {
			Mode       string `json:"mode"`
			TotalSales int    `json:"totalSales"`
			Periods    []struct {
				Period string `json:"period"`
				Users  []struct {
					User  string `json:"user"`
					Count int    `json:"count"`
					Trend *struct {
						Label     string `json:"label"`
						Direction string `json:"direction"`
					} `json:"trend"`
				} `json:"users"`
			} `json:"periods"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !envelope.Success {
		t.Fatalf("expected success envelope")
	}
	if envelope.Data.TotalSales != 2 {
		t.Fatalf("expected 2 sales on 2025-06-10, got %d", envelope.Data.TotalSales)
	}
	if len(envelope.Data.Periods) != 1 || envelope.Data.Periods[0].Period != "2025-06-10" {
		t.Fatalf("unexpected periods: %+v", envelope.Data.Periods)
	}
	ug := envelope.Data.Periods[0].Users[0]
	if ug.User != "bar1" || ug.Count != 2 {
		t.Fatalf("unexpected user group: %+v", ug)
	}
	if ug.Trend == nil || ug.Trend.Direction != "up" || ug.Trend.Label != "+100% vs yesterday" {
		t.Fatalf("unexpected trend: %+v", ug.Trend)
	}
}

func TestSalesReportWeekModeHasNoTrend(t *testing.T) {
	r, token := newSalesTestRouter(t, salesFixture())

	req := httptest.NewRequest(http.MethodGet, "/sales/report?mode=week", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var envelope struct {
		Data struct {
			Mode       string `json:"mode"`
			TotalSales int    `json:"totalSales"`
			Periods    []struct {
				Period string          `json:"period"`
				Users  []json.RawMessage `json:"users"`
			} `json:"periods"`
		} `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if envelope.Data.Mode != "week" || envelope.Data.TotalSales != 3 {
		t.Fatalf("unexpected week report: mode=%s total=%d", envelope.Data.Mode, envelope.Data.TotalSales)
	}
	if len(envelope.Data.Periods) != 1 || envelope.Data.Periods[0].Period != "2025-W24" {
		t.Fatalf("unexpected periods: %+v", envelope.Data.Periods)
	}
	for _, raw := range envelope.Data.Periods[0].Users {
		var ug map[string]json.RawMessage
		if err := json.Unmarshal(raw, &ug); err != nil {
			t.Fatalf("decode user group: %v", err)
		}
		if _, ok := ug["trend"]; ok {
			t.Fatalf("week mode must not carry trends: %s", raw)
		}
	}
}

func TestSalesReportValidation(t *testing.T) {
	r, token := newSalesTestRouter(t, salesFixture())

	for _, target := range []string{
		"/sales/report?mode=month",
		"/sales/report?date=10-06-2025",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", target, resp.Code)
		}
	}
}

func TestSalesReportRequiresAuth(t *testing.T) {
	r, _ := newSalesTestRouter(t, salesFixture())

	req := httptest.NewRequest(http.MethodGet, "/sales/report", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}
}

func TestSalesReportServedFromCacheAcrossRequests(t *testing.T) {
	r, token := newSalesTestRouter(t, salesFixture())

	var bodies []string
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/sales/report?user=bar1&date=2025-06-10", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		if resp.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, resp.Code)
		}
		bodies = append(bodies, resp.Body.String())
	}
	if bodies[0] != bodies[1] {
		t.Fatalf("cached response differs:\n%s\n%s", bodies[0], bodies[1])
	}
}

func TestListAllTicketsRequiresAuth(t *testing.T) {
	r, token := newSalesTestRouter(t, salesFixture())

	req := httptest.NewRequest(http.MethodGet, "/tickets", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/tickets", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", resp.Code)
	}

	var envelope struct {
		Success bool                `json:"success"`
		Data    []models.FullTicket `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(envelope.Data) != 1 || envelope.Data[0].User != "bar1" {
		t.Fatalf("unexpected aggregate: %+v", envelope.Data)
	}
}
