// Package upstream fetches users, profiles and tickets from a remote
// hotspot ticket API so they can be imported locally.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"arsys/backend/internal/models"

	"golang.org/x/time/rate"
)

type Config struct {
	BaseURL string
	Token   string
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
}

type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream api status %d: %s", e.StatusCode, e.Body)
}

type wireUser struct {
	UserName string `json:"user_name"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Tlfn     string `json:"tlfn"`
	Role     string `json:"role"`
}

type wireProfile struct {
	Name   string `json:"name"`
	Uptime string `json:"uptime"`
	Server string `json:"server"`
}

type wireCode struct {
	Code   string          `json:"code"`
	Status string          `json:"status"`
	UsedAt *models.Instant `json:"usedAt,omitempty"`
}

type wireTicket struct {
	ID        string         `json:"id"`
	CreatedAt models.Instant `json:"createdAt"`
	Codes     []wireCode     `json:"codes"`
}

type usersEnvelope struct {
	Success bool       `json:"success"`
	Data    []wireUser `json:"data"`
}

type profilesEnvelope struct {
	Success bool          `json:"success"`
	Data    []wireProfile `json:"data"`
}

type ticketsEnvelope struct {
	Success bool         `json:"success"`
	Data    []wireTicket `json:"data"`
}

func NewClient(cfg Config, httpClient *http.Client, logger *slog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		token:      strings.TrimSpace(cfg.Token),
		httpClient: httpClient,
		limiter:    rate.NewLimiter(rate.Limit(5), 5),
		logger:     logger,
	}
}

func (c *Client) ListUsers(ctx context.Context) ([]models.User, error) {
	body, err := c.get(ctx, "/users")
	if err != nil {
		return nil, err
	}
	var resp usersEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode users response: %w", err)
	}
	users := make([]models.User, 0, len(resp.Data))
	for _, u := range resp.Data {
		users = append(users, models.User{
			UserName: u.UserName,
			FullName: u.FullName,
			Email:    u.Email,
			Tlfn:     u.Tlfn,
			Role:     u.Role,
		})
	}
	return users, nil
}

func (c *Client) ListProfiles(ctx context.Context, userName string) ([]models.Profile, error) {
	body, err := c.get(ctx, fmt.Sprintf("/users/%s/profiles", url.PathEscape(userName)))
	if err != nil {
		return nil, err
	}
	var resp profilesEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode profiles response: %w", err)
	}
	profiles := make([]models.Profile, 0, len(resp.Data))
	for _, p := range resp.Data {
		profiles = append(profiles, models.Profile{
			UserName: userName,
			Name:     p.Name,
			Uptime:   p.Uptime,
			Server:   p.Server,
		})
	}
	return profiles, nil
}

func (c *Client) ListTickets(ctx context.Context, userName, profileName string) ([]models.Ticket, error) {
	body, err := c.get(ctx, fmt.Sprintf("/users/%s/profiles/%s/tickets",
		url.PathEscape(userName), url.PathEscape(profileName)))
	if err != nil {
		return nil, err
	}
	var resp ticketsEnvelope
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode tickets response: %w", err)
	}
	tickets := make([]models.Ticket, 0, len(resp.Data))
	for _, wt := range resp.Data {
		ticket := models.Ticket{
			TicketID:  wt.ID,
			CreatedAt: wt.CreatedAt,
			Codes:     make([]models.Code, 0, len(wt.Codes)),
		}
		for _, wc := range wt.Codes {
			ticket.Codes = append(ticket.Codes, models.Code{
				Value:  wc.Code,
				Used:   strings.EqualFold(wc.Status, "used"),
				UsedAt: wc.UsedAt,
			})
		}
		tickets = append(tickets, ticket)
	}
	return tickets, nil
}

// FetchAll walks users, then profiles per user, then tickets per
// profile, the nesting the remote API imposes.
func (c *Client) FetchAll(ctx context.Context) ([]models.User, []models.Profile, []models.FullTicket, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, nil, nil, err
	}

	var profiles []models.Profile
	var full []models.FullTicket
	for _, user := range users {
		userProfiles, err := c.ListProfiles(ctx, user.UserName)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("profiles for %s: %w", user.UserName, err)
		}
		profiles = append(profiles, userProfiles...)
		for _, profile := range userProfiles {
			tickets, err := c.ListTickets(ctx, user.UserName, profile.Name)
			if err != nil {
				return nil, nil, nil, fmt.Errorf("tickets for %s/%s: %w", user.UserName, profile.Name, err)
			}
			for _, ticket := range tickets {
				full = append(full, models.FullTicket{
					User:    user.UserName,
					Profile: profile.Name,
					Server:  profile.Server,
					Uptime:  profile.Uptime,
					Ticket:  ticket,
				})
			}
		}
	}
	return users, profiles, full, nil
}

func (c *Client) get(ctx context.Context, pathPart string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathPart, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if c.logger != nil {
		c.logger.Debug("upstream_api_response", "path", pathPart, "status", resp.StatusCode)
	}
	return body, nil
}
